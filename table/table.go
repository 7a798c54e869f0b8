// Package table implements the decision table interpreter (spec §4.D):
// row matching against per-column predicates bound to "$", hit-policy
// selection of matching rows, and construction of the output object
// from matching rows' output column expressions.
package table

import (
	"errors"
	"fmt"

	"github.com/flowgraph/jdm/expr"
	"github.com/flowgraph/jdm/schema"
	"github.com/flowgraph/jdm/value"
)

const (
	HitPolicyFirst   = "first"
	HitPolicyCollect = "collect"
)

// ErrUnknownHitPolicy is returned for a hit_policy value other than
// "first" or "collect".
var ErrUnknownHitPolicy = errors.New("unknown hit policy")

// Evaluate runs a decision table against a context and returns its
// output: an object under HitPolicyFirst (empty object if nothing
// matched), or an array of objects under HitPolicyCollect.
func Evaluate(dt *schema.DecisionTableContent, ctx value.Value) (value.Value, error) {
	if dt.HitPolicy != HitPolicyFirst && dt.HitPolicy != HitPolicyCollect {
		return value.NullValue, fmt.Errorf("%q: %w", dt.HitPolicy, ErrUnknownHitPolicy)
	}

	colValues := make(map[string]value.Value, len(dt.Inputs))
	for _, col := range dt.Inputs {
		if col.Field == "" {
			colValues[col.ID] = ctx
		} else {
			colValues[col.ID] = value.Get(ctx, col.Field)
		}
	}

	var collected []value.Value
	for ruleIdx := range dt.Rules {
		matched, err := matchRule(dt, ruleIdx, colValues, ctx)
		if err != nil {
			return value.NullValue, err
		}
		if !matched {
			continue
		}

		out, err := buildOutput(dt, ruleIdx, ctx)
		if err != nil {
			return value.NullValue, err
		}

		if dt.HitPolicy == HitPolicyFirst {
			return out, nil
		}
		collected = append(collected, out)
	}

	if dt.HitPolicy == HitPolicyFirst {
		return value.NewObject(), nil
	}
	return value.OfArray(collected), nil
}

func matchRule(dt *schema.DecisionTableContent, ruleIdx int, colValues map[string]value.Value, ctx value.Value) (bool, error) {
	for _, col := range dt.Inputs {
		ast := dt.PredicateAST(ruleIdx, col.ID)
		env := expr.NewEnv(ctx).WithDollar(colValues[col.ID])
		v, err := expr.Eval(ast, env)
		if err != nil {
			return false, fmt.Errorf("rule %d, input column %q: %w", ruleIdx, col.ID, err)
		}
		if !v.Truthy() {
			return false, nil
		}
	}
	return true, nil
}

func buildOutput(dt *schema.DecisionTableContent, ruleIdx int, ctx value.Value) (value.Value, error) {
	out := value.NewObject()
	for _, col := range dt.Outputs {
		ast := dt.ExpressionAST(ruleIdx, col.ID)
		v, err := expr.Eval(ast, expr.NewEnv(ctx))
		if err != nil {
			return value.NullValue, fmt.Errorf("rule %d, output column %q: %w", ruleIdx, col.ID, err)
		}
		updated, err := value.Set(out, col.Field, v)
		if err != nil {
			return value.NullValue, fmt.Errorf("rule %d, output column %q: %w", ruleIdx, col.ID, err)
		}
		out = updated
	}
	return out, nil
}
