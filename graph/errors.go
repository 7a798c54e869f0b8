package graph

import (
	"errors"

	"github.com/flowgraph/jdm/schema"
)

// ErrTimeout is the sentinel for max_execution_time_ms exceeded.
var ErrTimeout = errors.New("execution time budget exceeded")

// NodeError annotates a failure with the node that produced it, so the
// public façade can build a NodeExecutionFailure with node id and kind
// (spec §7) without graph needing to know about the façade's error
// taxonomy.
type NodeError struct {
	NodeID   string
	NodeKind schema.NodeKind
	Err      error
}

func (e *NodeError) Error() string {
	return "node " + e.NodeID + ": " + e.Err.Error()
}

func (e *NodeError) Unwrap() error { return e.Err }

func nodeErr(n *schema.Node, err error) error {
	return &NodeError{NodeID: n.ID, NodeKind: n.Type, Err: err}
}
