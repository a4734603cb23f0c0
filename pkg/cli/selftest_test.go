package cli

import (
	"strings"
	"testing"
)

func TestSelftest(t *testing.T) {
	out, err := executeCommand("selftest")
	if err != nil {
		t.Fatalf("selftest failed: %v\n%s", err, out)
	}
	lower := strings.ToLower(out)
	for _, name := range []string{
		"document-lifecycle",
		"field-validation",
		"pattern-formatting",
		"crypto-roundtrip",
		"error-scenarios-armed",
		"outcome-rotation",
		"performance-fixture",
	} {
		if !strings.Contains(lower, name) {
			t.Errorf("report is missing check %q:\n%s", name, out)
		}
	}
	if !strings.Contains(lower, "7 passed, 0 failed, 0 errored") {
		t.Errorf("report is missing the summary footer:\n%s", out)
	}
	if !strings.Contains(lower, "all 7 checks passed") {
		t.Errorf("missing final verdict:\n%s", out)
	}
}

func TestSelftestScenarioFilter(t *testing.T) {
	out, err := executeCommand("selftest", "--scenario", "error-testing")
	if err != nil {
		t.Fatalf("selftest failed: %v\n%s", err, out)
	}
	lower := strings.ToLower(out)
	if !strings.Contains(lower, "error-scenarios-armed") {
		t.Errorf("filtered report is missing the error check:\n%s", out)
	}
	if strings.Contains(lower, "document-lifecycle") {
		t.Errorf("filter leaked an unrelated check:\n%s", out)
	}
	if !strings.Contains(lower, "all 1 checks passed") {
		t.Errorf("missing final verdict:\n%s", out)
	}
}

func TestSelftestUnknownScenario(t *testing.T) {
	_, err := executeCommand("selftest", "--scenario", "smoke-testing")
	if err == nil {
		t.Fatal("expected an error for a scenario no check uses")
	}
	if !strings.Contains(err.Error(), "no self checks") {
		t.Errorf("unexpected error: %v", err)
	}
}
