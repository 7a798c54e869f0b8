package jdm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/jdm"
	"github.com/flowgraph/jdm/loader"
	"github.com/flowgraph/jdm/schema"
	"github.com/flowgraph/jdm/value"
)

func mustLoad(t *testing.T, raw string) *schema.Document {
	t.Helper()
	doc, err := schema.Parse([]byte(raw))
	require.NoError(t, err)
	return doc
}

const decisionTableDoc = `{
  "id":"tiers","name":"tiers",
  "nodes": {
    "in": {"id":"in","name":"in","type":"inputNode"},
    "dt": {"id":"dt","name":"dt","type":"decisionTableNode","content":{
      "hitPolicy":"first",
      "inputs":[{"id":"age","field":"customer.age"}],
      "outputs":[{"id":"tier","field":"tier"}],
      "rules":[
        {"age":"< 18","tier":"\"minor\""},
        {"age":"[18..65]","tier":"\"adult\""},
        {"age":"> 65","tier":"\"senior\""}
      ]
    }},
    "out": {"id":"out","name":"out","type":"outputNode"}
  },
  "edges": [
    {"id":"e1","sourceId":"in","targetId":"dt"},
    {"id":"e2","sourceId":"dt","targetId":"out"}
  ]
}`

// S3 — decision table, hit policy first, end to end through the façade.
func TestEvaluateDocDecisionTableFirst(t *testing.T) {
	doc := mustLoad(t, decisionTableDoc)
	engine := jdm.New(loader.NewMap())

	ctx := value.FromNative(map[string]interface{}{"customer": map[string]interface{}{"age": float64(30)}})
	res, err := engine.EvaluateDoc(doc, ctx)
	require.NoError(t, err)
	assert.Equal(t, "adult", res.Result.Field("tier").AsString())
}

func TestEvaluateByKeyThroughMapLoader(t *testing.T) {
	m := loader.NewMap()
	m.Put("tiers", mustLoad(t, decisionTableDoc))
	engine := jdm.New(m)

	ctx := value.FromNative(map[string]interface{}{"customer": map[string]interface{}{"age": float64(70)}})
	res, err := engine.Evaluate("tiers", ctx)
	require.NoError(t, err)
	assert.Equal(t, "senior", res.Result.Field("tier").AsString())
}

func TestEvaluateUnknownKeyIsNotFound(t *testing.T) {
	engine := jdm.New(loader.NewMap())
	_, err := engine.Evaluate("nope", value.NewObject())
	require.Error(t, err)

	var jerr *jdm.Error
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jdm.KindNotFound, jerr.Kind)
}

// Invariant 1 — determinism.
func TestDeterminism(t *testing.T) {
	doc := mustLoad(t, decisionTableDoc)
	engine := jdm.New(loader.NewMap())
	ctx := value.FromNative(map[string]interface{}{"customer": map[string]interface{}{"age": float64(40)}})

	r1, err := engine.EvaluateDoc(doc, ctx, jdm.EvaluationOptions{IncludeTrace: true})
	require.NoError(t, err)
	r2, err := engine.EvaluateDoc(doc, ctx, jdm.EvaluationOptions{IncludeTrace: true})
	require.NoError(t, err)

	assert.True(t, value.Equal(r1.Result, r2.Result))
	require.Len(t, r1.Trace.Entries, len(r2.Trace.Entries))
	for i := range r1.Trace.Entries {
		assert.Equal(t, r1.Trace.Entries[i].ID, r2.Trace.Entries[i].ID)
	}
}

// Invariant 3 — the caller's context is not observably mutated.
func TestInputImmutability(t *testing.T) {
	doc := mustLoad(t, decisionTableDoc)
	engine := jdm.New(loader.NewMap())

	ctxNative := map[string]interface{}{"customer": map[string]interface{}{"age": float64(10)}}
	ctx := value.FromNative(ctxNative)

	_, err := engine.EvaluateDoc(doc, ctx)
	require.NoError(t, err)

	assert.Equal(t, float64(10), ctx.Field("customer").Field("age").AsNumber())
}

func TestPerformanceFiguresPopulated(t *testing.T) {
	doc := mustLoad(t, decisionTableDoc)
	engine := jdm.New(loader.NewMap())
	ctx := value.FromNative(map[string]interface{}{"customer": map[string]interface{}{"age": float64(30)}})

	res, err := engine.EvaluateDoc(doc, ctx, jdm.EvaluationOptions{IncludePerformance: true})
	require.NoError(t, err)
	require.NotNil(t, res.Performance)
	assert.Contains(t, res.Performance, "execution_time_ms")
	assert.Contains(t, res.Performance, "node_count")
	assert.Contains(t, res.Performance, "evaluation_id")
	assert.NotEmpty(t, res.String())
}

func TestDryRunValidatesWithoutEvaluating(t *testing.T) {
	doc := mustLoad(t, decisionTableDoc)
	engine := jdm.New(loader.NewMap(), jdm.DryRun(true))

	res, err := engine.EvaluateDoc(doc, value.NewObject())
	require.NoError(t, err)
	assert.True(t, res.Result.IsNull() || res.Result.Kind() == value.Object)
}

func TestDryRunSurfacesInvalidGraph(t *testing.T) {
	doc := mustLoad(t, `{"id":"d","name":"d","nodes":{"in":{"id":"in","name":"in","type":"inputNode"}},"edges":[]}`)
	engine := jdm.New(loader.NewMap(), jdm.DryRun(true))

	_, err := engine.EvaluateDoc(doc, value.NewObject())
	require.Error(t, err)

	var jerr *jdm.Error
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jdm.KindInvalidGraph, jerr.Kind)
}
