package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/getsigsim/sigsim/pkg/cli/internal/output"
	"github.com/getsigsim/sigsim/pkg/config"
)

var presetsFull bool

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Inspect the built-in configuration scenarios",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in scenarios with their constraint ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		presets := config.NewFactory().Presets()
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), presets)
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{
			text.FgHiCyan.Sprint("SCENARIO"),
			text.FgHiCyan.Sprint("COMPLEXITY"),
			text.FgHiCyan.Sprint("FIELDS"),
			text.FgHiCyan.Sprint("ERROR SCENARIOS"),
			text.FgHiCyan.Sprint("DESCRIPTION"),
		})
		for _, p := range presets {
			t.AppendRow(table.Row{
				p.Name,
				string(p.Complexity),
				rangeCell(p.FieldCount),
				rangeCell(p.ScenarioCount),
				p.Description,
			})
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d scenarios", len(presets)), "", "", "", ""})
		t.Render()
		return nil
	},
}

var presetsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one scenario as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		preset, ok := findPreset(name)
		if !ok {
			return fmt.Errorf("unknown scenario %q, expected one of %s", name, strings.Join(presetNames(), ", "))
		}

		if presetsFull {
			gen, err := config.NewFactory().CreateConfiguration(name)
			if err != nil {
				return err
			}
			if jsonOutput {
				return output.JSON(cmd.OutOrStdout(), gen)
			}
			fmt.Fprintln(cmd.OutOrStdout(), headingFor(name))
			data, err := yaml.Marshal(gen)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), preset)
		}
		fmt.Fprintln(cmd.OutOrStdout(), headingFor(name))
		data, err := yaml.Marshal(preset)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// headingFor renders a scenario name as a highlighted title line,
// "error-testing" becoming "Error Testing".
func headingFor(name string) string {
	title := cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
	return text.FgHiCyan.Sprint(title)
}

func rangeCell(r config.Range) string {
	if r.Min == r.Max {
		return fmt.Sprintf("%d", r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

func findPreset(name string) (config.Preset, bool) {
	for _, p := range config.NewFactory().Presets() {
		if p.Name == name {
			return p, true
		}
	}
	return config.Preset{}, false
}

func presetNames() []string {
	presets := config.NewFactory().Presets()
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.AddCommand(presetsListCmd)
	presetsCmd.AddCommand(presetsShowCmd)

	presetsShowCmd.Flags().BoolVar(&presetsFull, "full", false, "Include the fully generated configuration")
}
