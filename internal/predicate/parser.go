package predicate

import (
	"fmt"
	"regexp"
)

var comparisonWords = map[string]Op{
	"contains":   OpContains,
	"startsWith": OpStartsWith,
	"endsWith":   OpEndsWith,
	"matches":    OpMatches,
}

type parser struct {
	src    string
	tokens []token
	pos    int
}

// Parse compiles src into a type-checked expression tree.
func Parse(src string) (Node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, p.errorf(p.peek(), "empty expression")
	}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s", describe(tok))
	}
	if node.kind() != typeBool {
		return nil, &SyntaxError{Expr: src, Pos: 0, Msg: fmt.Sprintf("expression is a %s, not a condition", node.kind())}
	}
	return node, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &SyntaxError{Expr: p.src, Pos: tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) isWord(word string) bool {
	tok := p.peek()
	return tok.kind == tokIdent && tok.text == word
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr || p.isWord("or") {
		op := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if err := p.requireBool(op, left, right); err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd || p.isWord("and") {
		op := p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if err := p.requireBool(op, left, right); err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.peek().kind == tokNot || p.isWord("not") {
		op := p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if err := p.requireBool(op, x); err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	var op Op
	switch {
	case tok.kind == tokEq:
		op = OpEq
	case tok.kind == tokNeq:
		op = OpNeq
	case tok.kind == tokIdent:
		word, ok := comparisonWords[tok.text]
		if !ok {
			return left, nil
		}
		op = word
	default:
		return left, nil
	}
	p.next()

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return p.buildCompare(tok, op, left, right)
}

func (p *parser) buildCompare(tok token, op Op, left, right Node) (Node, error) {
	if op == OpEq || op == OpNeq {
		if left.kind() == typeBool && right.kind() == typeBool {
			if op == OpEq {
				return Or{Left: And{Left: left, Right: right}, Right: And{Left: Not{X: left}, Right: Not{X: right}}}, nil
			}
			return Or{Left: And{Left: left, Right: Not{X: right}}, Right: And{Left: Not{X: left}, Right: right}}, nil
		}
	}

	switch left.kind() {
	case typeString:
	case typeList:
		if op != OpContains {
			return nil, p.errorf(tok, "%s only supports contains", left)
		}
	default:
		return nil, p.errorf(tok, "%s needs a string on the left, got %s", op, left.kind())
	}
	if right.kind() != typeString {
		return nil, p.errorf(tok, "%s needs a string on the right, got %s", op, right.kind())
	}

	cmp := &Compare{Op: op, Left: left, Right: right}
	if op == OpMatches {
		lit, ok := right.(StringLit)
		if !ok {
			return nil, p.errorf(tok, "matches needs a string literal pattern")
		}
		re, err := regexp.Compile(lit.Value)
		if err != nil {
			return nil, p.errorf(tok, "invalid pattern: %v", err)
		}
		cmp.re = re
	}
	return cmp, nil
}

func (p *parser) parseOperand() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		return StringLit{Value: tok.text}, nil
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' but found %s", describe(closing))
		}
		return inner, nil
	case tokIdent:
		switch tok.text {
		case "true":
			return BoolLit{Value: true}, nil
		case "false":
			return BoolLit{Value: false}, nil
		}
		if p.peek().kind == tokLParen {
			return p.parseCall(tok)
		}
		if _, ok := fields[tok.text]; !ok {
			return nil, p.errorf(tok, "unknown field %q", tok.text)
		}
		return Field{Name: tok.text}, nil
	default:
		return nil, p.errorf(tok, "unexpected %s", describe(tok))
	}
}

func (p *parser) parseCall(name token) (Node, error) {
	p.next() // (
	switch name.text {
	case "lower":
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if arg.kind() != typeString {
			return nil, p.errorf(name, "lower needs a string, got %s", arg.kind())
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		if lit, ok := arg.(StringLit); ok {
			return StringLit{Value: lowerString(lit.Value)}, nil
		}
		return Lower{Arg: arg}, nil
	case "isChannel":
		// Accept the older isChannel(post, "id") spelling.
		if p.isWord("post") && p.tokens[p.pos+1].kind == tokComma {
			p.next()
			p.next()
		}
		id := p.next()
		if id.kind != tokString {
			return nil, p.errorf(id, "isChannel needs a channel id string")
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return IsChannel{ChannelID: id.text}, nil
	default:
		return nil, p.errorf(name, "unknown function %q", name.text)
	}
}

func (p *parser) expect(kind tokenKind) error {
	tok := p.next()
	if tok.kind != kind {
		return p.errorf(tok, "expected %s but found %s", kind, describe(tok))
	}
	return nil
}

func (p *parser) requireBool(op token, operands ...Node) error {
	for _, n := range operands {
		if n.kind() != typeBool {
			return p.errorf(op, "%s needs conditions, got %s %s", describe(op), n.kind(), n)
		}
	}
	return nil
}

func describe(tok token) string {
	switch tok.kind {
	case tokIdent:
		return fmt.Sprintf("%q", tok.text)
	case tokString:
		return "string " + fmt.Sprintf("%q", tok.text)
	default:
		return tok.kind.String()
	}
}
