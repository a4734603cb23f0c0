package harness

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/getsigsim/sigsim/pkg/coordinator"
)

var (
	passMark    = color.New(color.FgGreen, color.Bold)
	failMark    = color.New(color.FgRed, color.Bold)
	erroredMark = color.New(color.FgYellow, color.Bold)
)

// Reporter renders execution results and coordinator status for terminals.
type Reporter struct {
	w io.Writer
}

// NewReporter writes to w, or to stdout when w is nil.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{w: w}
}

// RenderResults prints one row per execution plus a pass/fail summary
// footer.
func (rp *Reporter) RenderResults(results []ExecutionResult) {
	t := table.NewWriter()
	t.SetOutputMirror(rp.w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("TEST"),
		text.FgHiCyan.Sprint("OUTCOME"),
		text.FgHiCyan.Sprint("DURATION"),
		text.FgHiCyan.Sprint("MOCK CALLS"),
		text.FgHiCyan.Sprint("FINDINGS"),
	})
	for _, res := range results {
		t.AppendRow(table.Row{
			res.TestID,
			outcomeCell(res.Outcome),
			res.Duration.Round(time.Microsecond),
			totalUsage(res.MockUsage),
			len(res.Findings),
		})
	}
	passed, failed, errored := Summarize(results)
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d tests", len(results)),
		fmt.Sprintf("%d passed, %d failed, %d errored", passed, failed, errored),
		"", "", "",
	})
	t.Render()

	for _, res := range results {
		if res.Failure != "" {
			failMark.Fprintf(rp.w, "  %s: %s\n", res.TestID, res.Failure)
		}
		for _, f := range res.Findings {
			fmt.Fprintf(rp.w, "  %s [%s] %s: %s\n",
				text.FgYellow.Sprint("finding"), f.Severity, f.Source, f.Message)
		}
	}
}

// RenderStatus prints per-mock entity, operation, and cache counts plus the
// overall clean verdict.
func (rp *Reporter) RenderStatus(st coordinator.StatusReport) {
	t := table.NewWriter()
	t.SetOutputMirror(rp.w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("MOCK"),
		text.FgHiCyan.Sprint("ENTITIES"),
		text.FgHiCyan.Sprint("OPERATIONS"),
		text.FgHiCyan.Sprint("CACHED"),
	})
	t.AppendRow(statusRow(coordinator.KindDocument, st.Document))
	t.AppendRow(statusRow(coordinator.KindField, st.Field))
	t.AppendRow(statusRow(coordinator.KindCrypto, st.Crypto))
	clean := passMark.Sprint("clean")
	if !st.Overall.IsClean {
		clean = failMark.Sprint("dirty")
	}
	t.AppendFooter(table.Row{clean, "", "", fmt.Sprintf("%d resets", st.Overall.ResetCount)})
	t.Render()
}

func statusRow(kind coordinator.MockKind, st coordinator.MockStatus) table.Row {
	return table.Row{string(kind), st.Entities, st.Operations, st.CachedResults}
}

func outcomeCell(o Outcome) string {
	switch o {
	case OutcomePassed:
		return passMark.Sprint("PASS")
	case OutcomeFailed:
		return failMark.Sprint("FAIL")
	default:
		return erroredMark.Sprint("ERROR")
	}
}

func totalUsage(usage map[string]int) int {
	total := 0
	for _, n := range usage {
		total += n
	}
	return total
}
