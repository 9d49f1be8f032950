// Package affparse parses the small additive predicate language accepted
// by Stage.SetCond ("i + j < 100", "k % 2 == 0", ...) into ir.Node
// boolean expressions. It is a scaled-down Pratt parser over a
// hand-rolled scanner, grounded on internal/lexer+internal/parser's
// scan-then-precedence-climb shape: a SetCond predicate only ever needs
// +, -, *, %, the six comparisons, and parenthesized grouping, so the
// keyword/statement machinery of the language frontend has no home here.
package affparse

import (
	"fmt"
	"unicode"

	"sentra/cerr"
	"sentra/internal/ir"
	"sentra/internal/types"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokPlus
	tokMinus
	tokStar
	tokPercent
	tokEQ
	tokNE
	tokLT
	tokLE
	tokGT
	tokGE
	tokLParen
	tokRParen
)

type token struct {
	kind kindOrLexeme
	text string
}

// kindOrLexeme keeps token small; re-exported alias for clarity only.
type kindOrLexeme = tokenKind

func scan(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c):
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			toks = append(toks, token{tokNumber, string(runes[start:i])})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			toks = append(toks, token{tokIdent, string(runes[start:i])})
		case c == '+':
			toks = append(toks, token{tokPlus, "+"})
			i++
		case c == '-':
			toks = append(toks, token{tokMinus, "-"})
			i++
		case c == '*':
			toks = append(toks, token{tokStar, "*"})
			i++
		case c == '%':
			toks = append(toks, token{tokPercent, "%"})
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '=' && i+1 < len(runes) && runes[i+1] == '=':
			toks = append(toks, token{tokEQ, "=="})
			i += 2
		case c == '!' && i+1 < len(runes) && runes[i+1] == '=':
			toks = append(toks, token{tokNE, "!="})
			i += 2
		case c == '<' && i+1 < len(runes) && runes[i+1] == '=':
			toks = append(toks, token{tokLE, "<="})
			i += 2
		case c == '>' && i+1 < len(runes) && runes[i+1] == '=':
			toks = append(toks, token{tokGE, ">="})
			i += 2
		case c == '<':
			toks = append(toks, token{tokLT, "<"})
			i++
		case c == '>':
			toks = append(toks, token{tokGT, ">"})
			i++
		default:
			return nil, cerr.New(cerr.LoweringError, "", "unexpected character %q in predicate %q", c, src)
		}
	}
	toks = append(toks, token{tokEOF, ""})
	return toks, nil
}

var precedence = map[tokenKind]int{
	tokEQ: 1, tokNE: 1, tokLT: 1, tokLE: 1, tokGT: 1, tokGE: 1,
	tokPlus: 2, tokMinus: 2,
	tokStar: 3, tokPercent: 3,
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

var i32Type = types.ScalarType(types.Int32)

// Parse parses a single boolean predicate string into an ir.Node whose
// Type() is types.Boolean. Identifiers become int32 ir.Var references.
func Parse(src string) (ir.Node, error) {
	toks, err := scan(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, cerr.New(cerr.LoweringError, "", "trailing input after predicate %q", src)
	}
	if !expr.Type().Valid() || expr.Type().Prim != types.Boolean {
		return nil, cerr.New(cerr.TypeError, "", "predicate %q is not boolean-typed", src)
	}
	return expr, nil
}

func (p *parser) parseBinary(minPrec int) (ir.Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		prec, ok := precedence[tok.kind]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left, err = combine(tok.kind, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func combine(kind tokenKind, left, right ir.Node) (ir.Node, error) {
	switch kind {
	case tokPlus:
		return ir.MakeArith(ir.Add, left, right)
	case tokMinus:
		return ir.MakeArith(ir.Sub, left, right)
	case tokStar:
		return ir.MakeArith(ir.Mul, left, right)
	case tokPercent:
		return ir.MakeArith(ir.Mod, left, right)
	case tokEQ:
		return ir.MakeCmp(ir.EQ, left, right)
	case tokNE:
		return ir.MakeCmp(ir.NE, left, right)
	case tokLT:
		return ir.MakeCmp(ir.LT, left, right)
	case tokLE:
		return ir.MakeCmp(ir.LE, left, right)
	case tokGT:
		return ir.MakeCmp(ir.GT, left, right)
	case tokGE:
		return ir.MakeCmp(ir.GE, left, right)
	}
	return nil, fmt.Errorf("affparse: unhandled operator kind %d", kind)
}

func (p *parser) parsePrimary() (ir.Node, error) {
	tok := p.advance()
	switch tok.kind {
	case tokMinus:
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return ir.MakeUnary(ir.Minus, inner)
	case tokNumber:
		var v int64
		fmt.Sscanf(tok.text, "%d", &v)
		return &ir.IntImm{Val: v, Typ: i32Type}, nil
	case tokIdent:
		return &ir.Var{Name: tok.text, Typ: i32Type}, nil
	case tokLParen:
		expr, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, cerr.New(cerr.LoweringError, "", "expected ')' in predicate")
		}
		p.advance()
		return expr, nil
	}
	return nil, cerr.New(cerr.LoweringError, "", "unexpected token %q in predicate", tok.text)
}
