package harness

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsigsim/sigsim/pkg/coordinator"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

func TestSummarize(t *testing.T) {
	results := []ExecutionResult{
		{TestID: "a", Outcome: OutcomePassed},
		{TestID: "b", Outcome: OutcomeFailed},
		{TestID: "c", Outcome: OutcomePassed},
		{TestID: "d", Outcome: OutcomeErrored},
	}
	passed, failed, errored := Summarize(results)
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, errored)

	passed, failed, errored = Summarize(nil)
	assert.Zero(t, passed)
	assert.Zero(t, failed)
	assert.Zero(t, errored)
}

func TestRenderResults(t *testing.T) {
	results := []ExecutionResult{
		{
			TestID:    "tc_signing_flow",
			Outcome:   OutcomePassed,
			Duration:  1500 * time.Microsecond,
			MockUsage: map[string]int{"document": 2, "crypto": 1},
		},
		{
			TestID:   "tc_tamper_check",
			Outcome:  OutcomeFailed,
			Duration: 400 * time.Microsecond,
			Failure:  "signature digest drifted",
			Findings: []Finding{{
				Source:   "data:field",
				Severity: simerr.SeverityMedium,
				Message:  `field "ghost_field" is not part of the configured field set`,
			}},
		},
	}

	var buf bytes.Buffer
	NewReporter(&buf).RenderResults(results)
	out := strings.ToLower(buf.String())

	assert.Contains(t, out, "tc_signing_flow")
	assert.Contains(t, out, "tc_tamper_check")
	assert.Contains(t, out, "2 tests")
	assert.Contains(t, out, "1 passed, 1 failed, 0 errored")
	assert.Contains(t, out, "signature digest drifted")
	assert.Contains(t, out, "data:field")
	assert.Contains(t, out, "ghost_field")
}

func TestRenderStatus(t *testing.T) {
	clk := testClock()
	c := coordinator.New(coordinator.Options{Clock: clk})
	_, err := c.Document().LoadDocument("contract_1")
	require.NoError(t, err)
	c.ResetAll("render test")

	var buf bytes.Buffer
	NewReporter(&buf).RenderStatus(c.Status())
	out := strings.ToLower(buf.String())

	assert.Contains(t, out, "document")
	assert.Contains(t, out, "field")
	assert.Contains(t, out, "crypto")
	assert.Contains(t, out, "clean")
	assert.Contains(t, out, "1 resets")
}

func TestReporterEndToEnd(t *testing.T) {
	r := NewRunner(Options{Clock: testClock()})

	_, err := r.ExecuteTest("tc_render", func(ctx *TestContext) error {
		_, loadErr := ctx.Coordinator.Document().LoadDocument("contract_1")
		return loadErr
	}, ContextOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	NewReporter(&buf).RenderResults(r.Results())
	out := strings.ToLower(buf.String())
	assert.Contains(t, out, "tc_render")
	assert.Contains(t, out, "1 passed, 0 failed, 0 errored")
}
