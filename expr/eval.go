package expr

import (
	"errors"
	"fmt"

	"github.com/flowgraph/jdm/value"
)

// Env is the evaluation environment: a root object environment plus an
// optional pinned "$" value used by decision-table predicates.
type Env struct {
	Root value.Value
	Dollar *value.Value // nil if unset
}

// NewEnv builds an environment with no pinned "$".
func NewEnv(root value.Value) Env {
	return Env{Root: root}
}

// WithDollar returns a copy of the environment with "$" pinned to v.
func (e Env) WithDollar(v value.Value) Env {
	e.Dollar = &v
	return e
}

// EvalError wraps a runtime evaluation failure with the source position
// at which it occurred.
type EvalError struct {
	Position Pos
	Err      error
}

func (e *EvalError) Error() string { return e.Err.Error() }
func (e *EvalError) Unwrap() error { return e.Err }

func evalErr(pos Pos, err error) error {
	return &EvalError{Position: pos, Err: err}
}

// Eval evaluates an AST node against an environment, returning a Value.
func Eval(n Node, env Env) (value.Value, error) {
	switch t := n.(type) {
	case *Literal:
		return evalLiteral(t)
	case *Identifier:
		return evalIdentifier(t, env)
	case *Member:
		return evalMember(t, env)
	case *Index:
		return evalIndex(t, env)
	case *Unary:
		return evalUnary(t, env)
	case *Binary:
		return evalBinary(t, env)
	case *In:
		return evalIn(t, env)
	case *Range:
		return value.NullValue, evalErr(t.Pos, errors.New("range literal cannot be evaluated standalone outside 'in'"))
	default:
		return value.NullValue, fmt.Errorf("unhandled AST node type %T", n)
	}
}

func evalLiteral(n *Literal) (value.Value, error) {
	switch v := n.Val.(type) {
	case nil:
		return value.NullValue, nil
	case bool:
		return value.Of(v), nil
	case float64:
		return value.OfNumber(v), nil
	case string:
		return value.OfString(v), nil
	default:
		return value.NullValue, fmt.Errorf("unrecognized literal type %T", v)
	}
}

func evalIdentifier(n *Identifier, env Env) (value.Value, error) {
	if n.Name == "$" {
		if env.Dollar != nil {
			return *env.Dollar, nil
		}
		return value.NullValue, nil
	}
	// Soft lookup: unhandled identifiers resolve to null rather than error.
	return value.Get(env.Root, n.Name), nil
}

func evalMember(n *Member, env Env) (value.Value, error) {
	target, err := Eval(n.Target, env)
	if err != nil {
		return value.NullValue, err
	}
	return target.Field(n.Name), nil
}

func evalIndex(n *Index, env Env) (value.Value, error) {
	target, err := Eval(n.Target, env)
	if err != nil {
		return value.NullValue, err
	}
	key, err := Eval(n.Key, env)
	if err != nil {
		return value.NullValue, err
	}
	switch target.Kind() {
	case value.Array:
		if key.Kind() != value.Number {
			return value.NullValue, evalErr(n.Pos, fmt.Errorf("array index must be a number, got %s: %w", key.Kind(), value.ErrTypeMismatch))
		}
		idx := int(key.AsNumber())
		arr := target.AsArray()
		if idx < 0 || idx >= len(arr) {
			return value.NullValue, nil
		}
		return arr[idx], nil
	case value.Object:
		if key.Kind() != value.String {
			return value.NullValue, evalErr(n.Pos, fmt.Errorf("object index must be a string, got %s: %w", key.Kind(), value.ErrTypeMismatch))
		}
		return target.Field(key.AsString()), nil
	default:
		return value.NullValue, nil
	}
}

func evalUnary(n *Unary, env Env) (value.Value, error) {
	operand, err := Eval(n.Operand, env)
	if err != nil {
		return value.NullValue, err
	}
	switch n.Op {
	case "-":
		if operand.Kind() != value.Number {
			return value.NullValue, evalErr(n.Pos, fmt.Errorf("unary '-' requires a number, got %s: %w", operand.Kind(), value.ErrTypeMismatch))
		}
		return value.OfNumber(-operand.AsNumber()), nil
	case "!":
		return value.Of(!operand.Truthy()), nil
	default:
		return value.NullValue, fmt.Errorf("unknown unary operator %q", n.Op)
	}
}

func evalBinary(n *Binary, env Env) (value.Value, error) {
	switch n.Op {
	case "&&":
		left, err := Eval(n.Left, env)
		if err != nil {
			return value.NullValue, err
		}
		if !left.Truthy() {
			return left, nil
		}
		return Eval(n.Right, env)
	case "||":
		left, err := Eval(n.Left, env)
		if err != nil {
			return value.NullValue, err
		}
		if left.Truthy() {
			return left, nil
		}
		return Eval(n.Right, env)
	}

	left, err := Eval(n.Left, env)
	if err != nil {
		return value.NullValue, err
	}
	right, err := Eval(n.Right, env)
	if err != nil {
		return value.NullValue, err
	}

	var result value.Value
	switch n.Op {
	case "+":
		result, err = value.Add(left, right)
	case "-":
		result, err = value.Sub(left, right)
	case "*":
		result, err = value.Mul(left, right)
	case "/":
		result, err = value.Div(left, right)
	case "%":
		result, err = value.Mod(left, right)
	case "==":
		return value.Of(value.Equal(left, right)), nil
	case "!=":
		return value.Of(!value.Equal(left, right)), nil
	case "<", "<=", ">", ">=":
		var c int
		c, err = value.Compare(left, right)
		if err != nil {
			return value.NullValue, evalErr(n.Pos, err)
		}
		switch n.Op {
		case "<":
			return value.Of(c < 0), nil
		case "<=":
			return value.Of(c <= 0), nil
		case ">":
			return value.Of(c > 0), nil
		case ">=":
			return value.Of(c >= 0), nil
		}
	default:
		return value.NullValue, fmt.Errorf("unknown binary operator %q", n.Op)
	}
	if err != nil {
		return value.NullValue, evalErr(n.Pos, err)
	}
	return result, nil
}

func evalIn(n *In, env Env) (value.Value, error) {
	left, err := Eval(n.Left, env)
	if err != nil {
		return value.NullValue, err
	}

	if rg, ok := n.Right.(*Range); ok {
		return evalRangeMembership(rg, left, env)
	}

	right, err := Eval(n.Right, env)
	if err != nil {
		return value.NullValue, err
	}
	if right.Kind() != value.Array {
		return value.NullValue, evalErr(n.Pos, fmt.Errorf("'in' requires a range or array on the right, got %s: %w", right.Kind(), value.ErrTypeMismatch))
	}
	return value.Of(value.Contains(right.AsArray(), left)), nil
}

func evalRangeMembership(rg *Range, needle value.Value, env Env) (value.Value, error) {
	low, err := Eval(rg.Low, env)
	if err != nil {
		return value.NullValue, err
	}
	high, err := Eval(rg.High, env)
	if err != nil {
		return value.NullValue, err
	}
	if needle.Kind() != value.Number || low.Kind() != value.Number || high.Kind() != value.Number {
		return value.NullValue, evalErr(rg.Pos, fmt.Errorf("range membership requires numeric operands: %w", value.ErrTypeMismatch))
	}
	n := needle.AsNumber()
	lowOK := n > low.AsNumber() || (rg.LowInclusive && n == low.AsNumber())
	highOK := n < high.AsNumber() || (rg.HighInclusive && n == high.AsNumber())
	return value.Of(lowOK && highOK), nil
}
