package jdm

import (
	"errors"
	"fmt"

	"github.com/flowgraph/jdm/expr"
	"github.com/flowgraph/jdm/graph"
	"github.com/flowgraph/jdm/loader"
	"github.com/flowgraph/jdm/schema"
	"github.com/flowgraph/jdm/value"
)

// Kind identifies one of the engine's error taxonomy entries (spec §7).
type Kind int

const (
	KindNotFound Kind = iota
	KindInvalidGraph
	KindParseError
	KindTypeMismatch
	KindDivisionByZero
	KindUnknownNodeKind
	KindTimeout
	KindNodeExecutionFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidGraph:
		return "InvalidGraph"
	case KindParseError:
		return "ParseError"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindDivisionByZero:
		return "DivisionByZero"
	case KindUnknownNodeKind:
		return "UnknownNodeKind"
	case KindTimeout:
		return "Timeout"
	case KindNodeExecutionFailure:
		return "NodeExecutionFailure"
	default:
		return "Unknown"
	}
}

// Error is the engine's public error type, carrying a taxonomy Kind
// plus, where applicable, the failing node id and source position.
type Error struct {
	Kind   Kind
	NodeID string
	Pos    *expr.Pos
	Err    error
}

func (e *Error) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s: node %q: %s", e.Kind, e.NodeID, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// classify wraps a raw error from value/expr/schema/table/graph/loader
// into the engine's taxonomy, annotating node id and position where the
// underlying error carries them (spec §7's NodeExecutionFailure:
// "catch-all wrapper... annotated with the failing node id and kind").
func classify(err error) error {
	if err == nil {
		return nil
	}

	var nodeErr *graph.NodeError
	if errors.As(err, &nodeErr) {
		if errors.Is(nodeErr.Err, graph.ErrTimeout) {
			return &Error{Kind: KindTimeout, NodeID: nodeErr.NodeID, Err: err}
		}
		return &Error{Kind: KindNodeExecutionFailure, NodeID: nodeErr.NodeID, Pos: extractPos(nodeErr.Err), Err: err}
	}

	switch {
	case errors.Is(err, loader.ErrNotFound):
		return &Error{Kind: KindNotFound, Err: err}
	case errors.Is(err, graph.ErrInvalidGraph):
		return &Error{Kind: KindInvalidGraph, Err: err}
	case errors.Is(err, schema.ErrUnknownNodeKind):
		return &Error{Kind: KindUnknownNodeKind, Err: err}
	case errors.Is(err, value.ErrTypeMismatch):
		return &Error{Kind: KindTypeMismatch, Pos: extractPos(err), Err: err}
	case errors.Is(err, value.ErrDivisionByZero):
		return &Error{Kind: KindDivisionByZero, Pos: extractPos(err), Err: err}
	}

	var perr *expr.ParseError
	if errors.As(err, &perr) {
		return &Error{Kind: KindParseError, Pos: &perr.Position, Err: err}
	}

	return &Error{Kind: KindNodeExecutionFailure, Err: err}
}

func extractPos(err error) *expr.Pos {
	var perr *expr.ParseError
	if errors.As(err, &perr) {
		return &perr.Position
	}
	var everr *expr.EvalError
	if errors.As(err, &everr) {
		return &everr.Position
	}
	return nil
}
