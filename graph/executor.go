// Package graph implements the topological graph executor (spec §4.F):
// scheduling nodes in Kahn-order, merging fan-in contexts, dispatching
// per-node evaluation, pruning dead switch branches, and threading
// trace/performance instrumentation through the walk.
package graph

import (
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/flowgraph/jdm/schema"
	"github.com/flowgraph/jdm/value"
)

// Options configures one evaluation walk.
type Options struct {
	IncludeTrace       bool
	IncludePerformance bool
	MaxExecutionTime   time.Duration // zero disables the timeout check
	Logger             hclog.Logger
	EvaluationID       string
}

// Result is the outcome of one graph walk: the merged output context,
// an optional trace, and optional performance figures.
type Result struct {
	Output      value.Value
	Trace       *Trace
	Performance map[string]interface{}
}

// Execute walks doc in topological order against input, returning the
// merged output-node context. input is used directly by every input
// node and is never mutated (spec invariant 3).
func Execute(doc *schema.Document, input value.Value, opts Options) (*Result, error) {
	order, err := topoOrder(doc)
	if err != nil {
		return nil, err
	}
	if err := validate(doc, order); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	inbound := make(map[string][]schema.Edge, len(doc.Nodes))
	for _, e := range doc.Edges {
		inbound[e.TargetID] = append(inbound[e.TargetID], e)
	}

	start := time.Now()
	outputs := make(map[string]value.Value, len(order))
	active := make(map[string]bool, len(order))
	switchActive := make(map[string]map[string]bool)

	var trace *Trace
	if opts.IncludeTrace {
		trace = &Trace{}
	}

	var nodeCount, edgesTraversed int
	var lastNodeID string

	for _, id := range order {
		n := doc.Nodes[id]
		var in value.Value
		var liveEdges []schema.Edge

		if n.Type == schema.KindInput {
			in = input
			active[id] = true
		} else {
			liveEdges, err = liveInboundEdges(doc, inbound[id], active, switchActive)
			if err != nil {
				return nil, err
			}
			if len(liveEdges) == 0 {
				active[id] = false
				continue
			}
			sort.Slice(liveEdges, func(i, j int) bool { return pos[liveEdges[i].SourceID] < pos[liveEdges[j].SourceID] })
			preds := make([]value.Value, len(liveEdges))
			for i, e := range liveEdges {
				preds[i] = outputs[e.SourceID]
			}
			in = mergeFanIn(preds)
			active[id] = true
		}

		nodeStart := time.Now()
		res, err := evalNode(n, in)
		dur := time.Since(nodeStart)
		if err != nil {
			logger.Warn("node evaluation failed", "node", id, "kind", n.Type, "error", err)
			return nil, nodeErr(n, err)
		}

		outputs[id] = res.output
		if n.Type == schema.KindSwitch {
			switchActive[id] = res.activeStmtIDs
		}
		lastNodeID = id
		nodeCount++
		edgesTraversed += len(liveEdges)

		if trace != nil {
			trace.record(n, in, res.output, dur)
		}
		logger.Trace("node evaluated", "node", id, "kind", n.Type, "duration", dur)

		if opts.MaxExecutionTime > 0 && time.Since(start) > opts.MaxExecutionTime {
			logger.Warn("execution time budget exceeded", "node", id, "elapsed", time.Since(start))
			return nil, &NodeError{NodeID: lastNodeID, NodeKind: n.Type, Err: ErrTimeout}
		}
	}

	output := finalOutput(doc, order, outputs, active)

	result := &Result{Output: output, Trace: trace}
	if opts.IncludePerformance {
		result.Performance = map[string]interface{}{
			"execution_time_ms": float64(time.Since(start)) / float64(time.Millisecond),
			"node_count":        nodeCount,
			"edges_traversed":   edgesTraversed,
			"evaluation_id":     opts.EvaluationID,
		}
	}
	return result, nil
}

// liveInboundEdges filters a node's inbound edges to those whose source
// is active, and, when the source is a switch node, whose SourceHandle
// names a currently-active statement id. A switch source edge with no
// SourceHandle is an InvalidGraph error (SPEC_FULL.md §9 design note:
// fail fast rather than silently broadcast to all successors).
func liveInboundEdges(doc *schema.Document, edges []schema.Edge, active map[string]bool, switchActive map[string]map[string]bool) ([]schema.Edge, error) {
	var live []schema.Edge
	for _, e := range edges {
		if !active[e.SourceID] {
			continue
		}
		src := doc.Nodes[e.SourceID]
		if src.Type != schema.KindSwitch {
			live = append(live, e)
			continue
		}
		if e.SourceHandle == "" {
			return nil, fmt.Errorf("edge %q from switch node %q carries no sourceHandle: %w", e.ID, e.SourceID, ErrInvalidGraph)
		}
		if switchActive[e.SourceID][e.SourceHandle] {
			live = append(live, e)
		}
	}
	return live, nil
}

// finalOutput merges every active output node's context, in
// topological order, into the evaluation's result (spec §4.F's fan-in
// rule applies here too when a document has more than one output node).
func finalOutput(doc *schema.Document, order []string, outputs map[string]value.Value, active map[string]bool) value.Value {
	var results []value.Value
	for _, id := range order {
		n := doc.Nodes[id]
		if n.Type == schema.KindOutput && active[id] {
			results = append(results, outputs[id])
		}
	}
	if len(results) == 0 {
		return value.NewObject()
	}
	return mergeFanIn(results)
}
