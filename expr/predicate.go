package expr

import (
	"strings"

	"github.com/flowgraph/jdm/value"
)

// ParsePredicate parses a decision-table cell as a predicate, applying
// the shorthand conventions documented in SPEC_FULL.md/spec.md §4.B:
//
//   - empty string or "-"            -> always true
//   - bare value literal              -> "$ == value"
//   - range literal at top level      -> "$ in range"
//   - leading comparison operator     -> "$" prepended ("< 18" -> "$ < 18")
//   - anything else                   -> parsed and evaluated as-is,
//     with "$" available in the environment
func ParsePredicate(cell string) (Node, error) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || trimmed == "-" {
		return &Literal{Val: true}, nil
	}

	if beginsWithComparisonOperator(trimmed) {
		trimmed = "$ " + trimmed
	}

	n, err := Parse(trimmed)
	if err != nil {
		return nil, err
	}

	switch v := n.(type) {
	case *Range:
		return &In{Left: &Identifier{Name: "$"}, Right: n}, nil
	case *Literal:
		return &Binary{Op: "==", Left: &Identifier{Name: "$"}, Right: n}, nil
	case *Unary:
		if v.Op == "-" {
			if _, ok := v.Operand.(*Literal); ok {
				return &Binary{Op: "==", Left: &Identifier{Name: "$"}, Right: n}, nil
			}
		}
		return n, nil
	default:
		return n, nil
	}
}

// comparisonPrefixes is checked longest-first so "<=" and ">=" are not
// mistaken for a bare "<" or ">".
var comparisonPrefixes = []string{"==", "!=", "<=", ">=", "<", ">"}

func beginsWithComparisonOperator(s string) bool {
	for _, op := range comparisonPrefixes {
		if strings.HasPrefix(s, op) {
			return true
		}
	}
	return false
}

// EvalPredicate parses and evaluates a predicate cell, pinning "$" to
// dollar for the duration of the evaluation, and coercing the result to
// a boolean via the truthiness rule.
func EvalPredicate(cell string, dollar value.Value, root value.Value) (bool, error) {
	n, err := ParsePredicate(cell)
	if err != nil {
		return false, err
	}
	env := NewEnv(root).WithDollar(dollar)
	v, err := Eval(n, env)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}
