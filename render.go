package jdm

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// String renders a human-readable table of the evaluation result,
// grounded on the teacher's Result.String()/Rule.String() rendering.
func (r *EvaluationResult) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nJDM EVALUATION RESULT\n")
	tw.AppendHeader(table.Row{"\nResult", "Trace\nEntries", "Performance"})

	traceCount := 0
	if r.Trace != nil {
		traceCount = len(r.Trace.Entries)
	}
	perf := "-"
	if r.Performance != nil {
		perf = fmt.Sprintf("%v", r.Performance)
	}

	tw.AppendRow(table.Row{r.Result.String(), traceCount, perf})

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}
