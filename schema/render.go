package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// String renders a table of every node in the document, one row per
// node, sorted by id for determinism.
func (d *Document) String() string {
	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("\nJDM DOCUMENT %s\n", d.Name))
	tw.AppendHeader(table.Row{"\nNode", "\nKind", "Edges\nOut"})

	for _, id := range d.sortedNodeIDs() {
		n := d.Nodes[id]
		tw.AppendRow(table.Row{n.ID, string(n.Type), d.outDegree(n.ID)})
	}

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func (d *Document) sortedNodeIDs() []string {
	ids := make([]string, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d *Document) outDegree(id string) int {
	n := 0
	for _, e := range d.Edges {
		if e.SourceID == id {
			n++
		}
	}
	return n
}

// Tree prints the document's graph as a box-drawing tree rooted at each
// input node, following outbound edges in declared order. Recursion is
// limited to a depth of 20 to guard against an undetected cycle.
func (d *Document) Tree() string {
	var sb strings.Builder
	for _, id := range d.sortedNodeIDs() {
		if d.Nodes[id].Type != KindInput {
			continue
		}
		sb.WriteString(id)
		sb.WriteString("\n")
		d.buildTree(&sb, id, "", 0)
	}
	return sb.String()
}

func (d *Document) buildTree(sb *strings.Builder, nodeID, prefix string, depth int) {
	if depth >= 20 {
		return
	}
	children := d.successors(nodeID)
	for i, childID := range children {
		isLast := i == len(children)-1
		var connector, childPrefix string
		if isLast {
			connector, childPrefix = "└── ", "    "
		} else {
			connector, childPrefix = "├── ", "│   "
		}
		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(childID)
		sb.WriteString("\n")
		d.buildTree(sb, childID, prefix+childPrefix, depth+1)
	}
}

func (d *Document) successors(nodeID string) []string {
	var out []string
	for _, e := range d.Edges {
		if e.SourceID == nodeID {
			out = append(out, e.TargetID)
		}
	}
	return out
}
