package graph

import (
	"fmt"
	"time"

	"github.com/Delta456/box-cli-maker/v2"
	"github.com/alexeyco/simpletable"
	"github.com/dustin/go-humanize"

	"github.com/flowgraph/jdm/schema"
	"github.com/flowgraph/jdm/value"
)

// TraceEntry records one node's execution: its id, kind, input/output
// snapshots, and wall duration. The snapshots are the context values
// themselves, not deep copies; the executor only ever builds new values
// (value.Set/WithField), so later nodes do not change a past entry.
type TraceEntry struct {
	ID       string
	Name     string
	Kind     schema.NodeKind
	Input    value.Value
	Output   value.Value
	Duration time.Duration
}

// Trace is the ordered sequence of TraceEntry produced by one
// evaluation, in visitation order.
type Trace struct {
	Entries []TraceEntry
}

func (t *Trace) record(n *schema.Node, in, out value.Value, d time.Duration) {
	t.Entries = append(t.Entries, TraceEntry{ID: n.ID, Name: n.Name, Kind: n.Type, Input: in, Output: out, Duration: d})
}

// Report renders a boxed diagnostic report of the trace: one table row
// per node, grounded on the teacher's Diagnostics.AsString rendering.
func (t *Trace) Report(evaluationID string) string {
	b := box.New(box.Config{Px: 2, Py: 1, Type: "Double", Color: "Cyan", TitlePos: "Top", ContentAlign: "Left"})

	tbl := simpletable.New()
	tbl.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Node"},
			{Align: simpletable.AlignCenter, Text: "Kind"},
			{Align: simpletable.AlignCenter, Text: "Output"},
			{Align: simpletable.AlignCenter, Text: "Duration"},
		},
	}
	for _, e := range t.Entries {
		tbl.Body.Cells = append(tbl.Body.Cells, []*simpletable.Cell{
			{Text: e.ID},
			{Text: string(e.Kind)},
			{Text: e.Output.String()},
			{Text: humanize.SI(e.Duration.Seconds(), "s")},
		})
	}
	tbl.SetStyle(simpletable.StyleUnicode)

	body := fmt.Sprintf("Evaluation: %s\n\n%s", evaluationID, tbl.String())
	return b.String("JDM EVALUATION TRACE", body)
}
