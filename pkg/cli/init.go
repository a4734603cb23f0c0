package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/getsigsim/sigsim/pkg/cli/internal/parse"
	"github.com/getsigsim/sigsim/pkg/config"
)

var (
	initScenario string
	initFields   string
	initOutput   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a mock configuration interactively",
	Long: `Init walks through the built-in scenarios and writes a starting
configuration. Run it with --scenario to skip the prompts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Flags intentionally omitted (just ran "sigsim init") means the user
		// wants the interactive prompt.
		if !cmd.Flags().Changed("scenario") {
			formScenario := config.ScenarioUnitTesting
			formFields := ""
			formOutput := initOutput
			confirmed := true

			presets := config.NewFactory().Presets()
			options := make([]huh.Option[string], len(presets))
			for i, p := range presets {
				options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", p.Name, p.Description), p.Name)
			}

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewSelect[string]().
						Title("Which testing scenario is this configuration for?").
						Options(options...).
						Value(&formScenario),
					huh.NewInput().
						Title("Field count as N or MIN:MAX (empty keeps the scenario default)").
						Placeholder("3:5").
						Value(&formFields).
						Validate(func(s string) error {
							if s == "" {
								return nil
							}
							_, _, err := parse.Range(s)
							return err
						}),
					huh.NewInput().
						Title("Where should the configuration be written?").
						Value(&formOutput).
						Validate(func(s string) error {
							if s == "" {
								return errors.New("output path is required")
							}
							return nil
						}),
					huh.NewConfirm().
						Title("Write the configuration?").
						Value(&confirmed),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted, nothing written")
				return nil
			}

			_ = cmd.Flags().Set("scenario", formScenario)
			_ = cmd.Flags().Set("fields", formFields)
			_ = cmd.Flags().Set("output", formOutput)
		}

		var opts []config.Option
		if initFields != "" {
			min, max, err := parse.Range(initFields)
			if err != nil {
				return fmt.Errorf("--fields: %w", err)
			}
			opts = append(opts, config.WithFieldCount(min, max))
		}

		factory := config.NewFactory()
		factory.SetLogger(newLogger())
		gen, err := factory.CreateConfiguration(initScenario, opts...)
		if err != nil {
			return err
		}
		rendered, err := renderGenerated(gen)
		if err != nil {
			return err
		}
		if err := os.WriteFile(initOutput, rendered, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", initOutput, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s configuration to %s (%d fields, %d error scenarios)\n",
			gen.Scenario, initOutput, len(gen.Mocks.Field.Fields), scenarioTotal(gen.Mocks))
		fmt.Fprintf(cmd.OutOrStdout(), "validate it any time with: sigsim config validate %s\n", initOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initScenario, "scenario", config.ScenarioUnitTesting, "Scenario to generate (see sigsim presets list)")
	initCmd.Flags().StringVar(&initFields, "fields", "", "Override field count as N or MIN:MAX")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "sigsim.yaml", "Output path for the configuration")
}
