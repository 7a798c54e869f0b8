package graph_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgraph/jdm/graph"
	"github.com/flowgraph/jdm/schema"
	"github.com/flowgraph/jdm/value"
)

func parseDoc(t *testing.T, raw string) *schema.Document {
	t.Helper()
	doc, err := schema.Parse([]byte(raw))
	require.NoError(t, err)
	return doc
}

// S1 — identity expression.
func TestIdentityExpression(t *testing.T) {
	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "e":  {"id":"e","name":"e","type":"expressionNode","content":{"expressions":{"out":"input"}}},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"e"},
        {"id":"e2","sourceId":"e","targetId":"out"}
      ]
    }`)

	ctx := value.FromNative(map[string]interface{}{"input": float64(15)})
	res, err := graph.Execute(doc, ctx, graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, float64(15), res.Output.Field("out").AsNumber())
}

// S2 — multiply.
func TestMultiplyExpression(t *testing.T) {
	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "e":  {"id":"e","name":"e","type":"expressionNode","content":{"expressions":{"result":"input * 2"}}},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"e"},
        {"id":"e2","sourceId":"e","targetId":"out"}
      ]
    }`)

	ctx := value.FromNative(map[string]interface{}{"input": float64(15)})
	res, err := graph.Execute(doc, ctx, graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, float64(30), res.Output.Field("result").AsNumber())
}

// S4 — switch routing.
func TestSwitchRouting(t *testing.T) {
	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "sw": {"id":"sw","name":"sw","type":"switchNode","content":{
          "hitPolicy":"first",
          "statements":[{"id":"A","condition":"x > 0"},{"id":"B","isDefault":true}]
        }},
        "pos": {"id":"pos","name":"pos","type":"expressionNode","content":{"expressions":{"label":"\"positive\""}}},
        "neg": {"id":"neg","name":"neg","type":"expressionNode","content":{"expressions":{"label":"\"other\""}}},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"sw"},
        {"id":"e2","sourceId":"sw","targetId":"pos","sourceHandle":"A"},
        {"id":"e3","sourceId":"sw","targetId":"neg","sourceHandle":"B"},
        {"id":"e4","sourceId":"pos","targetId":"out"},
        {"id":"e5","sourceId":"neg","targetId":"out"}
      ]
    }`)

	ctx := value.FromNative(map[string]interface{}{"x": float64(-1)})
	res, err := graph.Execute(doc, ctx, graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, "other", res.Output.Field("label").AsString())
}

// S5 — nested assignment.
func TestNestedAssignment(t *testing.T) {
	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "e":  {"id":"e","name":"e","type":"expressionNode","content":{"expressions":{"a.b.c":"1 + 2"}}},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"e"},
        {"id":"e2","sourceId":"e","targetId":"out"}
      ]
    }`)

	res, err := graph.Execute(doc, value.NewObject(), graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, float64(3), res.Output.Field("a").Field("b").Field("c").AsNumber())
}

// S6 — timeout.
func TestTimeoutOnSyntheticLargeTable(t *testing.T) {
	rules := `[`
	for i := 0; i < 100000; i++ {
		if i > 0 {
			rules += ","
		}
		rules += `{"age":"-","tier":"\"x\""}`
	}
	rules += `]`

	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "dt": {"id":"dt","name":"dt","type":"decisionTableNode","content":{
          "hitPolicy":"collect",
          "inputs":[{"id":"age"}],
          "outputs":[{"id":"tier","field":"tier"}],
          "rules":`+rules+`
        }},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"dt"},
        {"id":"e2","sourceId":"dt","targetId":"out"}
      ]
    }`)

	_, err := graph.Execute(doc, value.NewObject(), graph.Options{MaxExecutionTime: time.Nanosecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrTimeout)
}

func TestInvalidGraphCycleDetected(t *testing.T) {
	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "a": {"id":"a","name":"a","type":"expressionNode","content":{"expressions":{"x":"1"}}},
        "b": {"id":"b","name":"b","type":"expressionNode","content":{"expressions":{"y":"1"}}},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"a"},
        {"id":"e2","sourceId":"a","targetId":"b"},
        {"id":"e3","sourceId":"b","targetId":"a"},
        {"id":"e4","sourceId":"b","targetId":"out"}
      ]
    }`)

	_, err := graph.Execute(doc, value.NewObject(), graph.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)
}

func TestSwitchEdgeWithoutHandleFailsFast(t *testing.T) {
	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "sw": {"id":"sw","name":"sw","type":"switchNode","content":{"hitPolicy":"first","statements":[{"id":"A","condition":"true"}]}},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"sw"},
        {"id":"e2","sourceId":"sw","targetId":"out"}
      ]
    }`)

	_, err := graph.Execute(doc, value.NewObject(), graph.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)
}

// Invariant 2 — for any edge u -> v, u appears before v in the trace.
func TestTraceRecordsTopologicalOrder(t *testing.T) {
	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "e":  {"id":"e","name":"e","type":"expressionNode","content":{"expressions":{"out":"input"}}},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"e"},
        {"id":"e2","sourceId":"e","targetId":"out"}
      ]
    }`)

	res, err := graph.Execute(doc, value.FromNative(map[string]interface{}{"input": float64(1)}), graph.Options{IncludeTrace: true})
	require.NoError(t, err)
	require.Len(t, res.Trace.Entries, 3)
	assert.Equal(t, "in", res.Trace.Entries[0].ID)
	assert.Equal(t, "e", res.Trace.Entries[1].ID)
	assert.Equal(t, "out", res.Trace.Entries[2].ID)
	assert.NotEmpty(t, res.Trace.Report("test-eval-id"))
}

// A single node's assignments must be honored in declared order, not
// sorted alphabetically: "b" is declared before "a" here, so "a" must
// see "b"'s freshly assigned value (2), not its missing pre-node value.
func TestExpressionNodeHonorsDeclaredAssignmentOrder(t *testing.T) {
	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "e": {"id":"e","name":"e","type":"expressionNode",
              "content":{"expressions":{"b":"2","a":"b + 1"}}},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"e"},
        {"id":"e2","sourceId":"e","targetId":"out"}
      ]
    }`)

	res, err := graph.Execute(doc, value.NewObject(), graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, float64(2), res.Output.Field("b").AsNumber())
	assert.Equal(t, float64(3), res.Output.Field("a").AsNumber())
}

func TestFanInMergeRecursivelyMergesObjects(t *testing.T) {
	doc := parseDoc(t, `{
      "id":"d","name":"d",
      "nodes": {
        "in": {"id":"in","name":"in","type":"inputNode"},
        "a": {"id":"a","name":"a","type":"expressionNode","content":{"expressions":{"profile.name":"\"alice\""}}},
        "b": {"id":"b","name":"b","type":"expressionNode","content":{"expressions":{"profile.age":"30"}}},
        "out": {"id":"out","name":"out","type":"outputNode"}
      },
      "edges": [
        {"id":"e1","sourceId":"in","targetId":"a"},
        {"id":"e2","sourceId":"in","targetId":"b"},
        {"id":"e3","sourceId":"a","targetId":"out"},
        {"id":"e4","sourceId":"b","targetId":"out"}
      ]
    }`)

	res, err := graph.Execute(doc, value.NewObject(), graph.Options{})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Output.Field("profile").Field("name").AsString())
	assert.Equal(t, float64(30), res.Output.Field("profile").Field("age").AsNumber())
}
