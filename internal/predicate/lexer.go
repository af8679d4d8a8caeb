package predicate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokLParen
	tokRParen
	tokComma
	tokEq
	tokNeq
	tokAnd
	tokOr
	tokNot
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of expression"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokEq:
		return "'=='"
	case tokNeq:
		return "'!='"
	case tokAnd:
		return "'&&'"
	case tokOr:
		return "'||'"
	case tokNot:
		return "'!'"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

// SyntaxError reports a rule that cannot be compiled.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("predicate %q: %s at offset %d", e.Expr, e.Msg, e.Pos)
}

func lex(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		r, width := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += width
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ",", pos: i})
			i++
		case strings.HasPrefix(src[i:], "==="):
			tokens = append(tokens, token{kind: tokEq, text: "===", pos: i})
			i += 3
		case strings.HasPrefix(src[i:], "!=="):
			tokens = append(tokens, token{kind: tokNeq, text: "!==", pos: i})
			i += 3
		case strings.HasPrefix(src[i:], "=="):
			tokens = append(tokens, token{kind: tokEq, text: "==", pos: i})
			i += 2
		case strings.HasPrefix(src[i:], "!="):
			tokens = append(tokens, token{kind: tokNeq, text: "!=", pos: i})
			i += 2
		case strings.HasPrefix(src[i:], "&&"):
			tokens = append(tokens, token{kind: tokAnd, text: "&&", pos: i})
			i += 2
		case strings.HasPrefix(src[i:], "||"):
			tokens = append(tokens, token{kind: tokOr, text: "||", pos: i})
			i += 2
		case r == '!':
			tokens = append(tokens, token{kind: tokNot, text: "!", pos: i})
			i++
		case r == '"' || r == '\'':
			text, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: text, pos: i})
			i = next
		case isIdentStart(r):
			start := i
			for i < len(src) {
				r, width = utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(r) {
					break
				}
				i += width
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			return nil, &SyntaxError{Expr: src, Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

func lexString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\':
			if i+1 >= len(src) {
				return "", 0, &SyntaxError{Expr: src, Pos: i, Msg: "unterminated escape"}
			}
			switch next := src[i+1]; next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '"', '\'':
				b.WriteByte(next)
			default:
				// Keep unknown escapes verbatim so regex classes like \d survive.
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, &SyntaxError{Expr: src, Pos: start, Msg: "unterminated string"}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
