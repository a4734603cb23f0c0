package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/harness"
	"github.com/getsigsim/sigsim/pkg/pattern"
	"github.com/getsigsim/sigsim/pkg/sim"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

var selftestScenario string

// selfCheck is one entry of the built-in smoke suite. Each check runs as its
// own harness execution under the scenario configuration it exercises.
type selfCheck struct {
	name     string
	scenario string
	body     func(*harness.TestContext) error
}

func selfChecks() []selfCheck {
	return []selfCheck{
		{"document-lifecycle", config.ScenarioUnitTesting, checkDocumentLifecycle},
		{"field-validation", config.ScenarioUnitTesting, checkFieldValidation},
		{"pattern-formatting", config.ScenarioUnitTesting, checkPatternFormatting},
		{"crypto-roundtrip", config.ScenarioIntegrationTesting, checkCryptoRoundtrip},
		{"error-scenarios-armed", config.ScenarioErrorTesting, checkErrorScenariosArmed},
		{"outcome-rotation", config.ScenarioPropertyTesting, checkOutcomeRotation},
		{"performance-fixture", config.ScenarioPerformanceTesting, checkPerformanceFixture},
	}
}

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the built-in smoke suite against the simulation engine",
	Long: `Selftest drives every subsystem through the test harness: document
loading, field validation, error-pattern formatting, crypto round trips,
armed error scenarios, outcome rotations, and the performance fixture.
The command exits non-zero when any check fails.`,
	Example: `  sigsim selftest
  sigsim selftest --scenario error-testing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		checks := selfChecks()
		if selftestScenario != "" {
			filtered := checks[:0]
			for _, c := range checks {
				if c.scenario == selftestScenario {
					filtered = append(filtered, c)
				}
			}
			if len(filtered) == 0 {
				return fmt.Errorf("no self checks use scenario %q", selftestScenario)
			}
			checks = filtered
		}

		runner := harness.NewRunner(harness.Options{Logger: newLogger()})
		for _, check := range checks {
			// Failures land in the recorded result; the run itself continues.
			_, _ = runner.ExecuteTest(check.name, check.body, harness.ContextOptions{Scenario: check.scenario})
		}

		results := runner.Results()
		reporter := harness.NewReporter(cmd.OutOrStdout())
		reporter.RenderResults(results)
		reporter.RenderStatus(runner.Coordinator().Status())

		if _, failed, errored := harness.Summarize(results); failed+errored > 0 {
			return fmt.Errorf("self test failed: %d of %d checks did not pass", failed+errored, len(results))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "all %d checks passed\n", len(results))
		return nil
	},
}

func checkDocumentLifecycle(ctx *harness.TestContext) error {
	docs := ctx.Coordinator.Document()
	doc, err := docs.LoadDocument("selftest_agreement")
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	fields, err := docs.DiscoverFields(doc.ID)
	if err != nil {
		return fmt.Errorf("discovering fields: %w", err)
	}
	if len(fields) == 0 {
		return errors.New("configuration produced no signature fields")
	}
	if want := len(ctx.Config.Mocks.Field.Fields); len(fields) != want {
		return fmt.Errorf("discovered %d fields, configuration defines %d", len(fields), want)
	}
	if _, err := docs.GetField(doc.ID, fields[0].Name); err != nil {
		return fmt.Errorf("reading field %q: %w", fields[0].Name, err)
	}
	return nil
}

func checkFieldValidation(ctx *harness.TestContext) error {
	docs := ctx.Coordinator.Document()
	if _, err := docs.LoadDocument("selftest_form"); err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	fields, err := docs.DiscoverFields("selftest_form")
	if err != nil {
		return fmt.Errorf("discovering fields: %w", err)
	}
	if len(fields) == 0 {
		return errors.New("configuration produced no signature fields")
	}

	fieldMock := ctx.Coordinator.Field()
	if err := fieldMock.RegisterFields(fields); err != nil {
		return fmt.Errorf("registering fields: %w", err)
	}
	name := fields[0].Name
	if _, err := fieldMock.LookupField(name); err != nil {
		return fmt.Errorf("looking up %q: %w", name, err)
	}
	verdict, err := fieldMock.ValidateField(name, "Jordan Signer")
	if err != nil {
		return fmt.Errorf("validating %q: %w", name, err)
	}
	if !verdict.IsValid {
		return fmt.Errorf("field %q rejected a good value: %s", name, verdict.Message)
	}
	if fields[0].Required {
		verdict, err = fieldMock.ValidateField(name, "")
		if err != nil {
			return fmt.Errorf("validating empty %q: %w", name, err)
		}
		if verdict.IsValid {
			return fmt.Errorf("required field %q accepted an empty value", name)
		}
	}
	return nil
}

func checkPatternFormatting(ctx *harness.TestContext) error {
	formatted, err := ctx.Registry.FormatError(pattern.KeyDocumentLoadFailure, map[string]any{
		"documentId": "selftest_agreement",
		"reason":     "cross-reference table is corrupt",
	})
	if err != nil {
		return fmt.Errorf("formatting %s: %w", pattern.KeyDocumentLoadFailure, err)
	}
	if !strings.Contains(formatted.Message, "selftest_agreement") {
		return fmt.Errorf("formatted message %q does not name the document", formatted.Message)
	}

	first := ctx.Generator.GenerateRealisticError(simerr.DocumentLoadError, map[string]any{
		"documentId": "selftest_agreement",
	})
	if !strings.Contains(first.Message, "(Code:") {
		return fmt.Errorf("generated message %q carries no error code", first.Message)
	}
	second := ctx.Generator.GenerateRealisticError(simerr.DocumentLoadError, map[string]any{
		"documentId": "selftest_agreement",
	})
	if withoutCode(first.Message) != withoutCode(second.Message) {
		return fmt.Errorf("generated messages disagree beyond the code digits: %q vs %q", first.Message, second.Message)
	}
	return nil
}

// withoutCode drops the time-derived "(Code: ...)" segment so messages can be
// compared for determinism.
func withoutCode(msg string) string {
	start := strings.Index(msg, "(Code:")
	if start < 0 {
		return msg
	}
	rest := msg[start:]
	end := strings.Index(rest, ")")
	if end < 0 {
		return msg[:start]
	}
	return msg[:start] + rest[end+1:]
}

func checkCryptoRoundtrip(ctx *harness.TestContext) error {
	crypto := ctx.Coordinator.Crypto()
	res, err := crypto.SignDocument(sim.SignRequest{
		DocumentID: "selftest_agreement",
		FieldName:  "signature_field_1",
		SignerName: "Jordan Approver",
		Algorithm:  sim.AlgorithmRSA,
		Reason:     "self test",
	})
	if err != nil {
		return fmt.Errorf("signing: %w", err)
	}
	verdict, err := crypto.ValidatePKCS7(res.Envelope())
	if err != nil {
		return fmt.Errorf("validating envelope: %w", err)
	}
	if !verdict.IsValid {
		return fmt.Errorf("signed envelope failed validation: %s", verdict.Message)
	}
	verdict, err = crypto.DetectTampering(res.Envelope())
	if err != nil {
		return fmt.Errorf("checking tampering: %w", err)
	}
	if !verdict.IsValid {
		return fmt.Errorf("untouched envelope flagged as tampered: %s", verdict.Message)
	}
	return nil
}

func checkErrorScenariosArmed(ctx *harness.TestContext) error {
	docs := ctx.Coordinator.Document()
	_, err := docs.LoadDocument("test_document_0")
	if err == nil {
		return errors.New("poison document loaded without error")
	}
	if !simerr.IsType(err, simerr.DocumentLoadError) {
		return fmt.Errorf("poison document failed with %q, expected %q", simerr.TypeOf(err), simerr.DocumentLoadError)
	}

	_, err = ctx.Coordinator.Field().LookupField("test_field_1")
	if err == nil {
		return errors.New("poison field lookup succeeded")
	}
	if !simerr.IsType(err, simerr.FieldNotFound) {
		return fmt.Errorf("poison field failed with %q, expected %q", simerr.TypeOf(err), simerr.FieldNotFound)
	}

	if _, err := docs.LoadDocument("selftest_agreement"); err != nil {
		return fmt.Errorf("clean document failed to load: %w", err)
	}
	return nil
}

func checkOutcomeRotation(ctx *harness.TestContext) error {
	crypto := ctx.Coordinator.Crypto()
	var sawValid, sawInvalid bool
	for i := 0; i < 64 && !(sawValid && sawInvalid); i++ {
		verdict, err := crypto.ValidatePKCS7(sim.Envelope{Signature: fmt.Sprintf("pkcs7:rsa:prop_%d", i)})
		if err != nil {
			return fmt.Errorf("validating envelope %d: %w", i, err)
		}
		if verdict.IsValid {
			sawValid = true
		} else {
			sawInvalid = true
		}
	}
	if !sawValid || !sawInvalid {
		return errors.New("outcome rotation produced only one verdict across 64 distinct envelopes")
	}

	env := sim.Envelope{Signature: "pkcs7:rsa:prop_0"}
	first, err := crypto.ValidatePKCS7(env)
	if err != nil {
		return err
	}
	second, err := crypto.ValidatePKCS7(env)
	if err != nil {
		return err
	}
	if first.IsValid != second.IsValid {
		return errors.New("identical envelopes produced different verdicts")
	}
	return nil
}

func checkPerformanceFixture(ctx *harness.TestContext) error {
	docs := ctx.Coordinator.Document()
	doc, err := docs.LoadDocument("selftest_perf")
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}
	fields, err := docs.DiscoverFields(doc.ID)
	if err != nil {
		return fmt.Errorf("discovering fields: %w", err)
	}
	if len(fields) < 50 {
		return fmt.Errorf("performance fixture has %d fields, expected at least 50", len(fields))
	}
	if doc.PageCount < 1 {
		return fmt.Errorf("performance fixture reports page count %d", doc.PageCount)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(selftestCmd)

	selftestCmd.Flags().StringVar(&selftestScenario, "scenario", "", "Run only the checks backed by this scenario")
}
