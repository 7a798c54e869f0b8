package expr

// parser is a recursive-descent parser over the precedence chain
// (lowest first): || < && < comparison < in < additive <
// multiplicative < unary < primary.
type parser struct {
	toks []token
	pos  int
}

// Parse parses a full expression string and returns its AST root.
func Parse(src string) (Node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, parseErr(p.cur().pos, "unexpected trailing token %q", p.cur().text)
	}
	return n, nil
}

func tokenize(src string) ([]token, error) {
	l := newLexer(src)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

func (p *parser) cur() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	return p.cur().kind == tokPunct && p.cur().text == s
}

func (p *parser) isKeyword(s string) bool {
	return p.cur().kind == tokKeyword && p.cur().text == s
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		pos := p.advance().pos
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: pos, Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isPunct("&&") {
		pos := p.advance().pos
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: pos, Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseIn()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokPunct && comparisonOps[p.cur().text] {
		t := p.advance()
		right, err := p.parseIn()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: t.pos, Op: t.text, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseIn() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("in") {
		pos := p.advance().pos
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &In{Pos: pos, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		t := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: t.pos, Op: t.text, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		t := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Pos: t.pos, Op: t.text, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.isPunct("-") || p.isPunct("!") {
		t := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Pos: t.pos, Op: t.text, Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any chain of
// member (.name) and index ([expr]) accessors.
func (p *parser) parsePostfix() (Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("."):
			pos := p.advance().pos
			if p.cur().kind != tokIdent && p.cur().kind != tokKeyword {
				return nil, parseErr(p.cur().pos, "expected field name after '.'")
			}
			name := p.advance().text
			n = &Member{Pos: pos, Target: n, Name: name}
		case p.isPunct("["):
			pos := p.advance().pos
			// A range literal can appear after '[' at the top level of a
			// predicate, but inside postfix position '[' always introduces
			// an index expression.
			key, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if !p.isPunct("]") {
				return nil, parseErr(p.cur().pos, "expected ']'")
			}
			p.advance()
			n = &Index{Pos: pos, Target: n, Key: key}
		default:
			return n, nil
		}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.cur()
	switch {
	case t.kind == tokNumber:
		p.advance()
		return &Literal{Pos: t.pos, Val: t.num}, nil
	case t.kind == tokString:
		p.advance()
		return &Literal{Pos: t.pos, Val: t.text}, nil
	case t.kind == tokKeyword && t.text == "true":
		p.advance()
		return &Literal{Pos: t.pos, Val: true}, nil
	case t.kind == tokKeyword && t.text == "false":
		p.advance()
		return &Literal{Pos: t.pos, Val: false}, nil
	case t.kind == tokKeyword && t.text == "null":
		p.advance()
		return &Literal{Pos: t.pos, Val: nil}, nil
	case t.kind == tokIdent:
		p.advance()
		return &Identifier{Pos: t.pos, Name: t.text}, nil
	case p.isPunct("("):
		return p.parseParenOrExclusiveRange()
	case p.isPunct("["):
		return p.parseBracketed(true)
	default:
		return nil, parseErr(t.pos, "unexpected token %q", t.text)
	}
}

// parseParenOrExclusiveRange handles '(' which can introduce either a
// parenthesized expression or the exclusive-low side of a range literal
// whose low endpoint follows the '('.
func (p *parser) parseParenOrExclusiveRange() (Node, error) {
	pos := p.advance().pos // consume '('
	inner, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.isPunct("..") {
		return p.finishRange(pos, inner, false)
	}
	if !p.isPunct(")") {
		return nil, parseErr(p.cur().pos, "expected ')'")
	}
	p.advance()
	return inner, nil
}

// parseBracketed handles '[' in primary position, which always begins a
// range literal [lo..hi] / [lo..hi) with an inclusive low endpoint. The
// grammar has no bracketed sub-expressions and no array literals, so
// "[a, b]" is a parse error.
func (p *parser) parseBracketed(lowInclusive bool) (Node, error) {
	pos := p.advance().pos // consume '['
	low, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !p.isPunct("..") {
		return nil, parseErr(p.cur().pos, "expected '..' in range literal")
	}
	return p.finishRange(pos, low, lowInclusive)
}

func (p *parser) finishRange(pos Pos, low Node, lowInclusive bool) (Node, error) {
	p.advance() // consume '..'
	high, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var highInclusive bool
	switch {
	case p.isPunct("]"):
		highInclusive = true
	case p.isPunct(")"):
		highInclusive = false
	default:
		return nil, parseErr(p.cur().pos, "expected ']' or ')' to close range literal")
	}
	p.advance()
	return &Range{Pos: pos, Low: low, High: high, LowInclusive: lowInclusive, HighInclusive: highInclusive}, nil
}
