package harness

import (
	"time"

	"github.com/getsigsim/sigsim/pkg/simerr"
)

// Outcome classifies how a test execution ended.
type Outcome string

const (
	// OutcomePassed means the body returned nil.
	OutcomePassed Outcome = "passed"
	// OutcomeFailed means the body returned an error.
	OutcomeFailed Outcome = "failed"
	// OutcomeErrored means the body panicked and the panic was recovered.
	OutcomeErrored Outcome = "errored"
)

// Finding is one observation recorded while a test ran: a data
// compatibility issue or a configuration drift detected at teardown.
type Finding struct {
	Source   string          `json:"source"`
	Severity simerr.Severity `json:"severity"`
	Message  string          `json:"message"`
}

// ExecutionResult is the structured record of one ExecuteTest run. Each run
// gets its own ExecutionID, so repeats of the same test id stay
// distinguishable in the run log.
type ExecutionResult struct {
	ExecutionID string         `json:"executionId"`
	TestID      string         `json:"testId"`
	Outcome     Outcome        `json:"outcome"`
	StartTime   time.Time      `json:"startTime"`
	EndTime     time.Time      `json:"endTime"`
	Duration    time.Duration  `json:"duration"`
	MockUsage   map[string]int `json:"mockUsage"`
	Findings    []Finding      `json:"findings,omitempty"`
	Failure     string         `json:"failure,omitempty"`
}

// Passed reports whether the execution ended with OutcomePassed.
func (r ExecutionResult) Passed() bool {
	return r.Outcome == OutcomePassed
}

func (r ExecutionResult) clone() ExecutionResult {
	out := r
	if r.MockUsage != nil {
		out.MockUsage = make(map[string]int, len(r.MockUsage))
		for k, v := range r.MockUsage {
			out.MockUsage[k] = v
		}
	}
	if r.Findings != nil {
		out.Findings = append([]Finding(nil), r.Findings...)
	}
	return out
}

// Summarize counts results by outcome.
func Summarize(results []ExecutionResult) (passed, failed, errored int) {
	for _, r := range results {
		switch r.Outcome {
		case OutcomePassed:
			passed++
		case OutcomeFailed:
			failed++
		case OutcomeErrored:
			errored++
		}
	}
	return passed, failed, errored
}
