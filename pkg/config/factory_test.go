package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsigsim/sigsim/internal/clock"
	"github.com/getsigsim/sigsim/pkg/pattern"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewFactory(WithClock(clk), WithGenerator(pattern.NewGenerator(pattern.WithClock(clk))))
}

func TestCreateConfigurationScenarios(t *testing.T) {
	f := newTestFactory(t)

	tests := []struct {
		scenario   string
		complexity Complexity
	}{
		{ScenarioUnitTesting, ComplexityLow},
		{ScenarioIntegrationTesting, ComplexityMedium},
		{ScenarioPropertyTesting, ComplexityMedium},
		{ScenarioErrorTesting, ComplexityHigh},
		{ScenarioPerformanceTesting, ComplexityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			cfg, err := f.CreateConfiguration(tt.scenario)
			require.NoError(t, err)

			assert.Equal(t, tt.scenario, cfg.Scenario)
			assert.Equal(t, tt.complexity, cfg.Complexity)
			require.NotNil(t, cfg.Mocks.Document)
			require.NotNil(t, cfg.Mocks.Field)
			require.NotNil(t, cfg.Mocks.Crypto)

			preset := presetTable[tt.scenario]
			assert.True(t, preset.FieldCount.Contains(len(cfg.Mocks.Field.Fields)),
				"field count %d outside preset range %+v", len(cfg.Mocks.Field.Fields), preset.FieldCount)
			assert.True(t, preset.ScenarioCount.Contains(totalScenarios(cfg.Mocks)),
				"scenario count %d outside preset range %+v", totalScenarios(cfg.Mocks), preset.ScenarioCount)

			require.NoError(t, cfg.Mocks.Validate())
			assert.Empty(t, cfg.Mocks.Check())

			var all []pattern.ErrorScenario
			all = append(all, cfg.Mocks.Document.ErrorScenarios...)
			all = append(all, cfg.Mocks.Field.ErrorScenarios...)
			all = append(all, cfg.Mocks.Crypto.ErrorScenarios...)
			for _, sc := range all {
				assert.NotEmpty(t, sc.Trigger, "generated scenarios carry triggers")
				assert.NotEmpty(t, sc.Message)
				assert.Contains(t, sc.When, `== "test_`, "generated scenarios are gated to designated inputs")
			}
		})
	}
}

func TestCreateConfigurationUnknownScenario(t *testing.T) {
	f := newTestFactory(t)

	_, err := f.CreateConfiguration("load-testing")
	require.Error(t, err)
	assert.True(t, simerr.IsType(err, simerr.UnknownPreset))
	assert.Contains(t, err.Error(), "load-testing")
	assert.Contains(t, err.Error(), ScenarioUnitTesting)
}

func TestCreateConfigurationPerformanceConstraints(t *testing.T) {
	f := newTestFactory(t)

	cfg, err := f.CreateConfiguration(ScenarioPerformanceTesting)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, cfg.Constraints.FieldCount.Min, 50)
	assert.Equal(t, ComplexityHigh, cfg.Constraints.ValidationComplexity)
	assert.GreaterOrEqual(t, len(cfg.Mocks.Field.Fields), 50)

	// Overrides below the floor are rejected, not silently clamped.
	_, err = f.CreateConfiguration(ScenarioPerformanceTesting, WithFieldCount(10, 20))
	require.Error(t, err)
	assert.True(t, simerr.IsType(err, simerr.MockConfigurationError))
}

func TestCreateConfigurationDeterministicAndCached(t *testing.T) {
	f := newTestFactory(t)

	first, err := f.CreateConfiguration(ScenarioIntegrationTesting)
	require.NoError(t, err)
	second, err := f.CreateConfiguration(ScenarioIntegrationTesting)
	require.NoError(t, err)

	assert.Equal(t, 1, f.CacheSize())
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	require.Equal(t, len(first.Mocks.Field.Fields), len(second.Mocks.Field.Fields))
	for i := range first.Mocks.Field.Fields {
		assert.Equal(t, first.Mocks.Field.Fields[i], second.Mocks.Field.Fields[i])
	}

	// Returned copies are independent of the cache.
	second.Mocks.Field.Fields[0].Name = "mutated"
	third, err := f.CreateConfiguration(ScenarioIntegrationTesting)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", third.Mocks.Field.Fields[0].Name)

	// Different options generate and cache separately.
	_, err = f.CreateConfiguration(ScenarioIntegrationTesting, WithFieldCount(4, 4))
	require.NoError(t, err)
	assert.Equal(t, 2, f.CacheSize())

	f.ClearCache()
	assert.Equal(t, 0, f.CacheSize())
}

func TestCreateConfigurationOptions(t *testing.T) {
	f := newTestFactory(t)

	cfg, err := f.CreateConfiguration(ScenarioUnitTesting,
		WithFieldCount(7, 7),
		WithScenarioCount(2, 2),
		WithValidationComplexity(ComplexityHigh),
	)
	require.NoError(t, err)

	assert.Len(t, cfg.Mocks.Field.Fields, 7)
	assert.Equal(t, 2, totalScenarios(cfg.Mocks))
	assert.Equal(t, ComplexityHigh, cfg.Constraints.ValidationComplexity)
	require.NotNil(t, cfg.Mocks.Field.ValidationBehavior)
	assert.Equal(t, ComplexityHigh, cfg.Mocks.Field.ValidationBehavior.Complexity)
}

func TestCreateForComplexity(t *testing.T) {
	f := newTestFactory(t)

	tests := []struct {
		level    Complexity
		scenario string
	}{
		{ComplexityLow, ScenarioUnitTesting},
		{ComplexityMedium, ScenarioIntegrationTesting},
		{ComplexityHigh, ScenarioErrorTesting},
	}
	for _, tt := range tests {
		cfg, err := f.CreateForComplexity(tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.scenario, cfg.Scenario)
	}

	_, err := f.CreateForComplexity("extreme")
	require.Error(t, err)
	assert.True(t, simerr.IsType(err, simerr.UnknownPreset))
}

func TestComplexityRichnessMonotonic(t *testing.T) {
	f := newTestFactory(t)

	low, err := f.CreateForComplexity(ComplexityLow)
	require.NoError(t, err)
	medium, err := f.CreateForComplexity(ComplexityMedium)
	require.NoError(t, err)
	high, err := f.CreateForComplexity(ComplexityHigh)
	require.NoError(t, err)

	patternCount := func(c *GeneratedConfig) int {
		return len(c.Mocks.Document.ErrorPatterns) +
			len(c.Mocks.Field.ErrorPatterns) +
			len(c.Mocks.Crypto.ErrorPatterns)
	}
	scenarioFloor := func(c *GeneratedConfig) int { return c.Constraints.ErrorScenarioCount.Min }
	fieldFloor := func(c *GeneratedConfig) int { return c.Constraints.FieldCount.Min }

	assert.LessOrEqual(t, fieldFloor(low), fieldFloor(medium))
	assert.LessOrEqual(t, fieldFloor(medium), fieldFloor(high))
	assert.LessOrEqual(t, scenarioFloor(low), scenarioFloor(medium))
	assert.LessOrEqual(t, scenarioFloor(medium), scenarioFloor(high))
	assert.LessOrEqual(t, patternCount(low), patternCount(medium))
	assert.LessOrEqual(t, patternCount(medium), patternCount(high))
}

func TestPresets(t *testing.T) {
	f := newTestFactory(t)

	presets := f.Presets()
	require.Len(t, presets, 5)
	for i := 1; i < len(presets); i++ {
		assert.LessOrEqual(t, presets[i-1].Complexity.Rank(), presets[i].Complexity.Rank(),
			"presets ordered by complexity")
	}
	assert.Equal(t, ScenarioUnitTesting, presets[0].Name)
}

func TestTriggerForType(t *testing.T) {
	tests := []struct {
		typ  simerr.ErrorType
		want string
	}{
		{simerr.DocumentLoadError, "loadDocument"},
		{simerr.FieldNotFound, "lookupField"},
		{simerr.FieldValidationFailed, "validateField"},
		{simerr.PKCS7Invalid, "validatePKCS7"},
		{simerr.CertificateExpired, "verifySignature"},
		{simerr.TamperDetected, "detectTampering"},
		{simerr.IntegrationError, "all"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, triggerForType(tt.typ), "type %s", tt.typ)
	}
}
