// Package jdm is the public façade of the business rules engine: it
// resolves a JSON Decision Model document via a Loader (or accepts one
// pre-loaded) and executes it against a context, returning a result
// optionally accompanied by a trace and performance figures.
package jdm

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/flowgraph/jdm/graph"
	"github.com/flowgraph/jdm/loader"
	"github.com/flowgraph/jdm/schema"
	"github.com/flowgraph/jdm/value"
)

// EngineOptions holds the settings applied via EngineOption functions.
type EngineOptions struct {
	Logger hclog.Logger
	DryRun bool
}

// EngineOption configures an Engine at construction time, following the
// functional-options pattern the engine's options are built on.
type EngineOption func(*EngineOptions)

func applyEngineOptions(o *EngineOptions, opts ...EngineOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithLogger attaches a structured logger the graph executor emits
// per-node diagnostics to. Defaults to a null logger.
func WithLogger(l hclog.Logger) EngineOption {
	return func(o *EngineOptions) { o.Logger = l }
}

// DryRun, when true, makes Evaluate/EvaluateDoc validate a document's
// structure (and, transitively, confirm every expression/predicate
// parsed cleanly at load time) without ever executing a node. Useful
// for CI validation of JDM documents.
func DryRun(b bool) EngineOption {
	return func(o *EngineOptions) { o.DryRun = b }
}

// Engine is the façade: a loader plus engine-wide options, safe for
// concurrent evaluations from multiple goroutines provided the loader
// is (spec §5).
type Engine struct {
	loader loader.Loader
	opts   EngineOptions
}

// New builds an Engine backed by l.
func New(l loader.Loader, opts ...EngineOption) *Engine {
	e := &Engine{loader: l}
	applyEngineOptions(&e.opts, opts...)
	if e.opts.Logger == nil {
		e.opts.Logger = hclog.NewNullLogger()
	}
	return e
}

// EvaluationOptions configures one evaluation call (spec §6).
type EvaluationOptions struct {
	IncludeTrace       bool
	IncludePerformance bool
	MaxExecutionTimeMS int64 // 0 disables the timeout check
}

// EvaluationResult is the outcome of one evaluation (spec §4.H/§6).
type EvaluationResult struct {
	Result      value.Value
	Trace       *graph.Trace
	Performance map[string]interface{}
}

// Evaluate resolves key via the engine's loader, then executes it.
func (e *Engine) Evaluate(key string, ctx value.Value, opts ...EvaluationOptions) (*EvaluationResult, error) {
	doc, err := e.loader.Load(key)
	if err != nil {
		return nil, classify(err)
	}
	return e.EvaluateDoc(doc, ctx, opts...)
}

// EvaluateDoc executes a pre-loaded document directly.
func (e *Engine) EvaluateDoc(doc *schema.Document, ctx value.Value, opts ...EvaluationOptions) (*EvaluationResult, error) {
	var o EvaluationOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	if e.opts.DryRun {
		if err := graph.Validate(doc); err != nil {
			return nil, classify(err)
		}
		return &EvaluationResult{Result: value.NewObject()}, nil
	}

	evalID := uuid.NewString()
	gopts := graph.Options{
		IncludeTrace:       o.IncludeTrace,
		IncludePerformance: o.IncludePerformance,
		Logger:             e.opts.Logger.Named("evaluate").With("evaluation_id", evalID),
		EvaluationID:       evalID,
	}
	if o.MaxExecutionTimeMS > 0 {
		gopts.MaxExecutionTime = time.Duration(o.MaxExecutionTimeMS) * time.Millisecond
	}

	res, err := graph.Execute(doc, ctx, gopts)
	if err != nil {
		return nil, classify(err)
	}
	return &EvaluationResult{Result: res.Output, Trace: res.Trace, Performance: res.Performance}, nil
}
