package expr

import (
	"strconv"
	"strings"
)

// Print renders an AST back into expression source. Every binary/unary/
// membership operator is fully parenthesized regardless of precedence,
// so Print is the exact inverse of Parse: re-parsing its output always
// reproduces the same tree shape, never a reassociated one (spec.md §8,
// Invariant 6: "re-parsing the canonical pretty-printed AST yields an
// equal AST").
func Print(n Node) string {
	switch t := n.(type) {
	case *Literal:
		return printLiteral(t.Val)
	case *Identifier:
		return t.Name
	case *Member:
		return Print(t.Target) + "." + t.Name
	case *Index:
		return Print(t.Target) + "[" + Print(t.Key) + "]"
	case *Unary:
		return "(" + t.Op + Print(t.Operand) + ")"
	case *Binary:
		return "(" + Print(t.Left) + " " + t.Op + " " + Print(t.Right) + ")"
	case *In:
		return "(" + Print(t.Left) + " in " + Print(t.Right) + ")"
	case *Range:
		lo, hi := "(", ")"
		if t.LowInclusive {
			lo = "["
		}
		if t.HighInclusive {
			hi = "]"
		}
		return lo + Print(t.Low) + ".." + Print(t.High) + hi
	default:
		panic("expr: Print: unhandled node type")
	}
}

func printLiteral(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return quoteString(val)
	default:
		panic("expr: Print: unhandled literal type")
	}
}

// quoteString re-escapes a decoded string literal using only the escape
// sequences lexString understands, so Parse(Print(n)) never produces an
// "unsupported escape sequence" error for strings Parse itself accepted.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Equal reports whether a and b are the same AST shape, ignoring source
// positions. Used to check the round-trip property: Equal(n, reparsed)
// after n is printed and reparsed.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Val == y.Val
	case *Identifier:
		y, ok := b.(*Identifier)
		return ok && x.Name == y.Name
	case *Member:
		y, ok := b.(*Member)
		return ok && x.Name == y.Name && Equal(x.Target, y.Target)
	case *Index:
		y, ok := b.(*Index)
		return ok && Equal(x.Target, y.Target) && Equal(x.Key, y.Key)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *In:
		y, ok := b.(*In)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Range:
		y, ok := b.(*Range)
		return ok && x.LowInclusive == y.LowInclusive && x.HighInclusive == y.HighInclusive &&
			Equal(x.Low, y.Low) && Equal(x.High, y.High)
	default:
		return false
	}
}
