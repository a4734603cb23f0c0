package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsigsim/sigsim/pkg/pattern"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

func compatGenConfig() *GeneratedConfig {
	return &GeneratedConfig{
		Scenario:   ScenarioIntegrationTesting,
		Complexity: ComplexityMedium,
		Constraints: Constraints{
			FieldCount:           Range{Min: 3, Max: 10},
			ErrorScenarioCount:   Range{Min: 1, Max: 3},
			ValidationComplexity: ComplexityMedium,
		},
	}
}

func compatMockConfig(fieldCount, scenarioCount int) MockConfiguration {
	cfg := MockConfiguration{
		Alignment: &AlignmentFlags{EnforceFieldRanges: true, EnforceScenarioLimit: true},
	}
	for i := 0; i < fieldCount; i++ {
		cfg.Fields = append(cfg.Fields, FieldDefinition{Name: fieldName(i), Page: 1})
	}
	for i := 0; i < scenarioCount; i++ {
		cfg.ErrorScenarios = append(cfg.ErrorScenarios, pattern.ErrorScenario{
			Trigger:   "all",
			ErrorType: simerr.TamperDetected,
			Message:   "m",
		})
	}
	return cfg
}

func fieldName(i int) string {
	return string(rune('a'+i%26)) + "_field"
}

func TestValidateCompatibilityClean(t *testing.T) {
	report := ValidateCompatibility(compatMockConfig(5, 2), compatGenConfig())

	assert.True(t, report.IsCompatible)
	assert.Empty(t, report.Issues)
}

func TestValidateCompatibilityFieldCount(t *testing.T) {
	report := ValidateCompatibility(compatMockConfig(1, 2), compatGenConfig())

	require.False(t, report.IsCompatible)
	require.NotEmpty(t, report.Issues)
	issue := report.Issues[0]
	assert.Equal(t, "fieldCount", issue.Aspect)
	assert.Contains(t, issue.Detail, "1 fields")
	assert.Contains(t, issue.Detail, "3-10")
	assert.Contains(t, issue.Remediation, "between 3 and 10")
}

func TestValidateCompatibilityScenarioExcess(t *testing.T) {
	report := ValidateCompatibility(compatMockConfig(5, 7), compatGenConfig())

	require.False(t, report.IsCompatible)
	found := false
	for _, issue := range report.Issues {
		if issue.Aspect == "errorScenarios" {
			found = true
			assert.Contains(t, issue.Detail, "7 error scenarios")
			assert.NotEmpty(t, issue.Remediation)
		}
	}
	assert.True(t, found, "expected an errorScenarios issue")
}

func TestValidateCompatibilityAlignment(t *testing.T) {
	cfg := compatMockConfig(5, 2)
	cfg.Alignment = &AlignmentFlags{EnforceFieldRanges: false, EnforceScenarioLimit: true}

	report := ValidateCompatibility(cfg, compatGenConfig())
	require.False(t, report.IsCompatible)
	assert.Equal(t, "alignment.enforceFieldRanges", report.Issues[0].Aspect)

	cfg.Alignment = nil
	report = ValidateCompatibility(cfg, compatGenConfig())
	require.False(t, report.IsCompatible)
	assert.Equal(t, "alignment", report.Issues[0].Aspect)
}

func TestValidateCompatibilityComplexity(t *testing.T) {
	cfg := compatMockConfig(5, 2)
	cfg.ValidationBehavior = &ValidationBehavior{Complexity: ComplexityLow}

	report := ValidateCompatibility(cfg, compatGenConfig())
	require.False(t, report.IsCompatible)
	found := false
	for _, issue := range report.Issues {
		if issue.Aspect == "validationBehavior.complexity" {
			found = true
			assert.Contains(t, issue.Remediation, "medium")
		}
	}
	assert.True(t, found, "expected a complexity issue")
}

func TestValidateCompatibilityNilGenerated(t *testing.T) {
	report := ValidateCompatibility(compatMockConfig(5, 2), nil)

	require.False(t, report.IsCompatible)
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0].Remediation, "CreateConfiguration")
}

func TestValidateCompatibilityAgainstFactoryOutput(t *testing.T) {
	f := newTestFactory(t)
	gen, err := f.CreateConfiguration(ScenarioIntegrationTesting)
	require.NoError(t, err)

	report := ValidateCompatibility(*gen.Mocks.Field, gen)
	assert.True(t, report.IsCompatible, "factory output must be self-compatible: %v", report.Issues)
}
