package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/flowgraph/jdm/schema"
)

// ErrInvalidGraph is the sentinel for any structural defect in a
// document's node/edge graph: a cycle, a dangling edge endpoint, a
// missing input/output node, a non-input node with no inbound edge, or
// a non-output node with no successor. Edge ids are not checked for
// uniqueness.
var ErrInvalidGraph = errors.New("invalid graph")

// topoOrder computes a topological order over doc's nodes using Kahn's
// algorithm, breaking ties deterministically by node id (spec §4.F).
// Returns ErrInvalidGraph if a cycle is detected or an edge dangles.
func topoOrder(doc *schema.Document) ([]string, error) {
	indegree := make(map[string]int, len(doc.Nodes))
	outgoing := make(map[string][]string, len(doc.Nodes))
	for id := range doc.Nodes {
		indegree[id] = 0
	}
	for _, e := range doc.Edges {
		if _, ok := doc.Nodes[e.SourceID]; !ok {
			return nil, fmt.Errorf("edge %q references unknown source %q: %w", e.ID, e.SourceID, ErrInvalidGraph)
		}
		if _, ok := doc.Nodes[e.TargetID]; !ok {
			return nil, fmt.Errorf("edge %q references unknown target %q: %w", e.ID, e.TargetID, ErrInvalidGraph)
		}
		outgoing[e.SourceID] = append(outgoing[e.SourceID], e.TargetID)
		indegree[e.TargetID]++
	}

	var ready []string
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		targets := append([]string(nil), outgoing[id]...)
		sort.Strings(targets)
		for _, t := range targets {
			indegree[t]--
			if indegree[t] == 0 {
				ready = append(ready, t)
			}
		}
	}

	if len(order) != len(doc.Nodes) {
		return nil, fmt.Errorf("cycle detected: %w", ErrInvalidGraph)
	}
	return order, nil
}

// Validate checks a document's structural invariants (acyclic, has an
// input and output node, every non-input node reachable, every
// non-output node has a successor) without executing anything. Used by
// the façade's DryRun mode.
func Validate(doc *schema.Document) error {
	order, err := topoOrder(doc)
	if err != nil {
		return err
	}
	return validate(doc, order)
}

// validate checks the structural invariants from spec §3: at least one
// input and one output node, every non-input node reachable from some
// input, every non-output node has at least one successor.
func validate(doc *schema.Document, order []string) error {
	var hasInput, hasOutput bool
	for _, n := range doc.Nodes {
		switch n.Type {
		case schema.KindInput:
			hasInput = true
		case schema.KindOutput:
			hasOutput = true
		}
	}
	if !hasInput {
		return fmt.Errorf("no input node: %w", ErrInvalidGraph)
	}
	if !hasOutput {
		return fmt.Errorf("no output node: %w", ErrInvalidGraph)
	}

	hasInbound := make(map[string]bool, len(doc.Nodes))
	hasOutbound := make(map[string]bool, len(doc.Nodes))
	for _, e := range doc.Edges {
		hasInbound[e.TargetID] = true
		hasOutbound[e.SourceID] = true
	}
	for id, n := range doc.Nodes {
		if n.Type != schema.KindInput && !hasInbound[id] {
			return fmt.Errorf("non-input node %q is unreachable: %w", id, ErrInvalidGraph)
		}
		if n.Type != schema.KindOutput && !hasOutbound[id] {
			return fmt.Errorf("non-output node %q has no successor: %w", id, ErrInvalidGraph)
		}
	}
	return nil
}
