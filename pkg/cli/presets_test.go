package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/getsigsim/sigsim/pkg/config"
)

func TestPresetsList(t *testing.T) {
	out, err := executeCommand("presets", "list")
	if err != nil {
		t.Fatalf("presets list failed: %v", err)
	}
	lower := strings.ToLower(out)
	for _, name := range []string{
		config.ScenarioUnitTesting,
		config.ScenarioIntegrationTesting,
		config.ScenarioPropertyTesting,
		config.ScenarioErrorTesting,
		config.ScenarioPerformanceTesting,
	} {
		if !strings.Contains(lower, name) {
			t.Errorf("listing is missing scenario %q:\n%s", name, out)
		}
	}
	if !strings.Contains(lower, "5 scenarios") {
		t.Errorf("listing is missing the footer count:\n%s", out)
	}
}

func TestPresetsListJSON(t *testing.T) {
	out, err := executeCommand("presets", "list", "--json")
	if err != nil {
		t.Fatalf("presets list --json failed: %v", err)
	}
	var presets []config.Preset
	if err := json.Unmarshal([]byte(out), &presets); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(presets) != 5 {
		t.Fatalf("expected 5 presets, got %d", len(presets))
	}
	if presets[0].Name != config.ScenarioUnitTesting {
		t.Errorf("expected %s first (lowest complexity), got %s", config.ScenarioUnitTesting, presets[0].Name)
	}
}

func TestPresetsShow(t *testing.T) {
	out, err := executeCommand("presets", "show", "error-testing")
	if err != nil {
		t.Fatalf("presets show failed: %v", err)
	}
	if !strings.Contains(out, "Error Testing") {
		t.Errorf("show output is missing the heading:\n%s", out)
	}
	if !strings.Contains(out, "name: error-testing") {
		t.Errorf("show output is missing the preset name:\n%s", out)
	}
	if !strings.Contains(out, "complexity: high") {
		t.Errorf("show output is missing the complexity:\n%s", out)
	}
}

func TestPresetsShowFull(t *testing.T) {
	out, err := executeCommand("presets", "show", "unit-testing", "--full")
	if err != nil {
		t.Fatalf("presets show --full failed: %v", err)
	}
	if !strings.Contains(out, "scenario: unit-testing") {
		t.Errorf("full output is missing the scenario:\n%s", out)
	}
	for _, section := range []string{"constraints:", "mocks:", "document:", "field:", "crypto:"} {
		if !strings.Contains(out, section) {
			t.Errorf("full output is missing %q:\n%s", section, out)
		}
	}
}

func TestPresetsShowUnknown(t *testing.T) {
	_, err := executeCommand("presets", "show", "smoke-testing")
	if err == nil {
		t.Fatal("expected an error for an unknown scenario")
	}
	if !strings.Contains(err.Error(), "unknown scenario") {
		t.Errorf("unexpected error: %v", err)
	}
}
