package harness

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsigsim/sigsim/internal/clock"
	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/sim"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

func testClock() *clock.Manual {
	return clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestExecuteTestPassed(t *testing.T) {
	clk := testClock()
	r := New(t, Options{Clock: clk})

	res, err := r.ExecuteTest("tc_happy_path", func(ctx *TestContext) error {
		if _, err := ctx.Coordinator.Document().LoadDocument("contract_1"); err != nil {
			return err
		}
		v, err := ctx.Coordinator.Crypto().ValidatePKCS7(sim.Envelope{Signature: "pkcs7:rsa:deadbeef"})
		if err != nil {
			return err
		}
		if !v.IsValid {
			return errors.New("expected a valid envelope")
		}
		clk.Advance(50 * time.Millisecond)
		return nil
	}, ContextOptions{})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, "tc_happy_path", res.TestID)
	assert.NotEmpty(t, res.ExecutionID)
	assert.Equal(t, OutcomePassed, res.Outcome)
	assert.True(t, res.Passed())
	assert.Empty(t, res.Failure)
	assert.Empty(t, res.Findings)
	assert.Equal(t, 50*time.Millisecond, res.Duration)
	assert.Equal(t, res.StartTime.Add(50*time.Millisecond), res.EndTime)
	assert.Equal(t, map[string]int{"document": 1, "field": 0, "crypto": 1}, res.MockUsage)

	assert.False(t, r.HasActiveContext())
	assert.True(t, r.Coordinator().VerifyCleanState())

	results := r.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "tc_happy_path", results[0].TestID)
}

func TestExecuteTestFailed(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})
	sentinel := errors.New("field bounds drifted")

	res, err := r.ExecuteTest("tc_failing", func(ctx *TestContext) error {
		_, loadErr := ctx.Coordinator.Document().LoadDocument("contract_1")
		require.NoError(t, loadErr)
		return sentinel
	}, ContextOptions{})
	require.ErrorIs(t, err, sentinel)
	require.NotNil(t, res)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.False(t, res.Passed())
	assert.Equal(t, "field bounds drifted", res.Failure)
	assert.Equal(t, 1, res.MockUsage["document"])

	// The sweep runs for failing bodies too.
	assert.False(t, r.HasActiveContext())
	assert.True(t, r.Coordinator().VerifyCleanState())
}

func TestExecuteTestPanicRecovered(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})

	res, err := r.ExecuteTest("tc_panicking", func(ctx *TestContext) error {
		_, loadErr := ctx.Coordinator.Document().LoadDocument("contract_1")
		require.NoError(t, loadErr)
		panic("boom")
	}, ContextOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tc_panicking panicked: boom")
	require.NotNil(t, res)

	assert.Equal(t, OutcomeErrored, res.Outcome)
	assert.Equal(t, "panic: boom", res.Failure)
	assert.Equal(t, 1, res.MockUsage["document"])

	// A recovered panic must not leak context or mock state.
	assert.False(t, r.HasActiveContext())
	assert.True(t, r.Coordinator().VerifyCleanState())

	res, err = r.ExecuteTest("tc_after_panic", func(ctx *TestContext) error {
		return nil
	}, ContextOptions{})
	require.NoError(t, err)
	assert.Equal(t, OutcomePassed, res.Outcome)

	passed, failed, errored := Summarize(r.Results())
	assert.Equal(t, 1, passed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 1, errored)
}

func TestExecuteTestNilBody(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})

	_, err := r.ExecuteTest("tc_nil", nil, ContextOptions{})
	require.Error(t, err)
	assert.True(t, simerr.IsType(err, simerr.MockConfigurationError))
	assert.Empty(t, r.Results())
}

func TestExecuteTestAppliesScenarioConfiguration(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})
	patternsBefore := r.Registry().Len()

	res, err := r.ExecuteTest("tc_error_suite", func(ctx *TestContext) error {
		assert.Equal(t, config.ScenarioErrorTesting, ctx.Scenario)
		assert.Equal(t, config.ComplexityHigh, ctx.Config.Complexity)
		assert.True(t, ctx.Config.Constraints.FieldCount.Contains(len(ctx.Config.Mocks.Document.Fields)))

		// Designated inputs trip the generated error scenarios.
		_, loadErr := ctx.Coordinator.Document().LoadDocument("test_document_0")
		require.Error(t, loadErr)
		assert.True(t, simerr.IsType(loadErr, simerr.DocumentLoadError))

		// Everything else passes through.
		_, loadErr = ctx.Coordinator.Document().LoadDocument("contract_7")
		return loadErr
	}, ContextOptions{Scenario: config.ScenarioErrorTesting})
	require.NoError(t, err)
	assert.Equal(t, OutcomePassed, res.Outcome)

	// High-complexity configurations enrich the pattern registry.
	assert.Equal(t, patternsBefore+3, r.Registry().Len())
	assert.True(t, r.Registry().HasPattern("document-quota-exceeded"))
	assert.True(t, r.Registry().HasPattern("hsm-session-failure"))
	assert.True(t, r.Registry().HasPattern("field-collision"))
}

func TestExecuteTestByComplexity(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})

	res, err := r.ExecuteTest("tc_medium", func(ctx *TestContext) error {
		assert.Equal(t, config.ScenarioIntegrationTesting, ctx.Scenario)
		return nil
	}, ContextOptions{Complexity: config.ComplexityMedium})
	require.NoError(t, err)
	assert.Equal(t, OutcomePassed, res.Outcome)
}

func TestCreateTestContextSequential(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})

	_, err := r.CreateTestContext("", ContextOptions{})
	require.Error(t, err)
	assert.True(t, simerr.IsType(err, simerr.MockConfigurationError))

	first, err := r.CreateTestContext("tc_first", ContextOptions{})
	require.NoError(t, err)
	assert.Equal(t, "tc_first", first.TestID)
	assert.True(t, r.HasActiveContext())

	_, err = r.CreateTestContext("tc_second", ContextOptions{})
	require.Error(t, err)
	assert.True(t, simerr.IsType(err, simerr.IntegrationError))
	assert.Contains(t, err.Error(), "tc_first")

	require.NoError(t, r.CloseContext())
	assert.False(t, r.HasActiveContext())
	assert.True(t, r.Coordinator().VerifyCleanState())

	err = r.CloseContext()
	require.Error(t, err)
	assert.True(t, simerr.IsType(err, simerr.NoActiveContext))

	second, err := r.CreateTestContext("tc_second", ContextOptions{})
	require.NoError(t, err)
	assert.Equal(t, "tc_second", second.TestID)
	require.NoError(t, r.CloseContext())
}

func TestCreateTestContextUnknownScenario(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})

	_, err := r.CreateTestContext("tc_typo", ContextOptions{Scenario: "smoke-testing"})
	require.Error(t, err)
	assert.True(t, simerr.IsType(err, simerr.UnknownPreset))
	assert.False(t, r.HasActiveContext())
}

func TestCreateTestContextSweepsPriorState(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})

	_, err := r.Coordinator().Document().LoadDocument("leftover_doc")
	require.NoError(t, err)
	require.False(t, r.Coordinator().VerifyCleanState())

	ctx, err := r.CreateTestContext("tc_swept", ContextOptions{})
	require.NoError(t, err)
	assert.Empty(t, ctx.Coordinator.Document().LoadedDocuments())
	assert.Zero(t, ctx.baseline["document"])
	require.NoError(t, r.CloseContext())
}

func TestCreateTestContextSkipReset(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})

	_, err := r.Coordinator().Document().LoadDocument("leftover_doc")
	require.NoError(t, err)

	ctx, err := r.CreateTestContext("tc_keep", ContextOptions{SkipReset: true})
	require.NoError(t, err)
	assert.Contains(t, ctx.Coordinator.Document().LoadedDocuments(), "leftover_doc")
	assert.Equal(t, 1, ctx.baseline["document"])
	require.NoError(t, r.CloseContext())
}

func TestExecuteTestUsageDeltaExcludesPriorRuns(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})

	_, err := r.ExecuteTest("tc_one", func(ctx *TestContext) error {
		_, loadErr := ctx.Coordinator.Document().LoadDocument("contract_1")
		return loadErr
	}, ContextOptions{})
	require.NoError(t, err)

	res, err := r.ExecuteTest("tc_two", func(ctx *TestContext) error {
		if _, err := ctx.Coordinator.Document().LoadDocument("contract_2"); err != nil {
			return err
		}
		_, err := ctx.Coordinator.Document().DiscoverFields("contract_2")
		return err
	}, ContextOptions{})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"document": 2, "field": 0, "crypto": 0}, res.MockUsage)

	results := r.Results()
	require.Len(t, results, 2)
	assert.NotEqual(t, results[0].ExecutionID, results[1].ExecutionID)
}
