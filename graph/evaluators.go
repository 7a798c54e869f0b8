package graph

import (
	"fmt"

	"github.com/flowgraph/jdm/expr"
	"github.com/flowgraph/jdm/schema"
	"github.com/flowgraph/jdm/table"
	"github.com/flowgraph/jdm/value"
)

// evalResult is a node's output context plus, for switch nodes, the set
// of statement ids that were active this evaluation (nil for every
// other kind).
type evalResult struct {
	output       value.Value
	activeStmtIDs map[string]bool
}

// evalNode dispatches to the node-kind-specific evaluator (spec §4.E).
// Exhaustive over schema.NodeKind, with an UnknownNodeKind fallback for
// defensive completeness even though schema.Parse already rejects
// unrecognized kinds at load time.
func evalNode(n *schema.Node, in value.Value) (evalResult, error) {
	switch n.Type {
	case schema.KindInput, schema.KindOutput:
		return evalResult{output: in}, nil
	case schema.KindExpression:
		out, err := evalExpressionNode(n.Content.(*schema.ExpressionContent), in)
		return evalResult{output: out}, err
	case schema.KindDecisionTable:
		out, err := table.Evaluate(n.Content.(*schema.DecisionTableContent), in)
		return evalResult{output: out}, err
	case schema.KindSwitch:
		active, err := evalSwitchNode(n.Content.(*schema.SwitchContent), in)
		return evalResult{output: in, activeStmtIDs: active}, err
	default:
		return evalResult{}, fmt.Errorf("type %q: %w", n.Type, schema.ErrUnknownNodeKind)
	}
}

func evalExpressionNode(c *schema.ExpressionContent, in value.Value) (value.Value, error) {
	acc := in
	for i, a := range c.Assignments {
		v, err := expr.Eval(c.AST(i), expr.NewEnv(acc))
		if err != nil {
			return value.NullValue, fmt.Errorf("assignment to %q: %w", a.Path, err)
		}
		acc, err = value.Set(acc, a.Path, v)
		if err != nil {
			return value.NullValue, fmt.Errorf("assignment to %q: %w", a.Path, err)
		}
	}
	return acc, nil
}

// evalSwitchNode evaluates every statement's condition and returns the
// set of statement ids that are active this evaluation, honoring the
// hit policy: "first" keeps only the earliest match, "collect" keeps
// all matches. If nothing matched, a default:true statement (if any)
// becomes active instead.
func evalSwitchNode(c *schema.SwitchContent, ctx value.Value) (map[string]bool, error) {
	var matched []string
	var defaultID string
	haveDefault := false

	for i, st := range c.Statements {
		if st.IsDefault {
			defaultID = st.ID
			haveDefault = true
		}
		ast := c.ConditionAST(i)
		if ast == nil {
			continue
		}
		env := expr.NewEnv(ctx).WithDollar(ctx)
		v, err := expr.Eval(ast, env)
		if err != nil {
			return nil, fmt.Errorf("statement %q: %w", st.ID, err)
		}
		if v.Truthy() {
			matched = append(matched, st.ID)
			if c.HitPolicy == table.HitPolicyFirst {
				break
			}
		}
	}

	if len(matched) == 0 {
		if haveDefault {
			return map[string]bool{defaultID: true}, nil
		}
		return map[string]bool{}, nil
	}
	active := make(map[string]bool, len(matched))
	for _, id := range matched {
		active[id] = true
	}
	return active, nil
}
