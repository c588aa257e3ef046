package parse

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/diag"
	"github.com/slowlang/exprc/compiler/scan"
)

type (
	parser struct {
		text string
		toks []scan.Token
		i    int

		tr tlog.Span
	}

	// binRule maps an operator token to a tree node.
	// Swapped rules put the right operand first, so a > b becomes b < a.
	binRule struct {
		tok  string
		op   ast.Op
		swap bool
	}
)

var (
	equalityOps = []binRule{
		{tok: "==", op: ast.Eq},
		{tok: "!=", op: ast.Ne},
	}

	relationalOps = []binRule{
		{tok: "<", op: ast.Lt},
		{tok: "<=", op: ast.Le},
		{tok: ">", op: ast.Lt, swap: true},
		{tok: ">=", op: ast.Le, swap: true},
	}

	additiveOps = []binRule{
		{tok: "+", op: ast.Add},
		{tok: "-", op: ast.Sub},
	}

	termOps = []binRule{
		{tok: "*", op: ast.Mul},
		{tok: "/", op: ast.Div},
	}
)

// ParseString tokenizes and parses text.
func ParseString(ctx context.Context, text string) (ast.Node, error) {
	toks, err := scan.Tokenize(ctx, text)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, text, toks)
}

// Parse builds a syntax tree from the whole token sequence.
// Tokens left after the expression are a syntax error.
func Parse(ctx context.Context, text string, toks []scan.Token) (x ast.Node, err error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != scan.EOF {
		return nil, errors.New("token sequence is not terminated by EOF")
	}

	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "parse", "tokens", len(toks))
	defer tr.Finish("err", &err)

	p := &parser{
		text: text,
		toks: toks,
		tr:   tr,
	}

	x, err = p.expr()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.Kind != scan.EOF {
		return nil, p.errorf(t, "unexpected token")
	}

	return x, nil
}

func (p *parser) expr() (ast.Node, error) {
	return p.equality()
}

func (p *parser) equality() (ast.Node, error) {
	return p.leftToRight(equalityOps, p.relational)
}

func (p *parser) relational() (ast.Node, error) {
	return p.leftToRight(relationalOps, p.additive)
}

func (p *parser) additive() (ast.Node, error) {
	return p.leftToRight(additiveOps, p.term)
}

func (p *parser) term() (ast.Node, error) {
	return p.leftToRight(termOps, p.unary)
}

func (p *parser) unary() (ast.Node, error) {
	t := p.peek()

	switch {
	case t.Is(p.text, "+"):
		p.i++

		return p.unary()
	case t.Is(p.text, "-"):
		p.i++

		x, err := p.unary()
		if err != nil {
			return nil, err
		}

		zero := ast.Num{Base: ast.Base{Pos: t.Pos, End: t.Pos}}

		return &ast.BinOp{
			Base:  ast.Base{Pos: t.Pos, End: x.Span().End},
			Op:    ast.Sub,
			Left:  zero,
			Right: x,
		}, nil
	}

	return p.primary()
}

func (p *parser) primary() (ast.Node, error) {
	t := p.peek()

	if t.Is(p.text, "(") {
		p.i++

		x, err := p.expr()
		if err != nil {
			return nil, err
		}

		if t := p.peek(); !t.Is(p.text, ")") {
			return nil, p.errorf(t, "expected ')'")
		}

		p.i++

		return x, nil
	}

	if t.Kind != scan.Num {
		return nil, p.errorf(t, "expected a number")
	}

	p.i++

	return ast.Num{
		Base:  ast.Base{Pos: t.Pos, End: t.Pos + t.Len},
		Value: t.Val,
	}, nil
}

// leftToRight parses arg (op arg)* folding into the left operand.
func (p *parser) leftToRight(ops []binRule, arg func() (ast.Node, error)) (x ast.Node, err error) {
	x, err = arg()
	if err != nil {
		return nil, err
	}

	for {
		r, ok := p.match(ops)
		if !ok {
			return x, nil
		}

		var y ast.Node

		y, err = arg()
		if err != nil {
			return nil, err
		}

		l, rr := x, y
		if r.swap {
			l, rr = y, x
		}

		x = &ast.BinOp{
			Base:  ast.Base{Pos: x.Span().Pos, End: y.Span().End},
			Op:    r.op,
			Left:  l,
			Right: rr,
		}

		if p.tr.If("parse") {
			p.tr.Printw("binop", "op", r.op, "tok", r.tok, "swap", r.swap, "pos", x.Span().Pos)
		}
	}
}

func (p *parser) match(ops []binRule) (binRule, bool) {
	t := p.peek()

	for _, r := range ops {
		if t.Is(p.text, r.tok) {
			p.i++

			return r, true
		}
	}

	return binRule{}, false
}

// peek never runs past EOF, which is always the last token.
func (p *parser) peek() scan.Token {
	return p.toks[p.i]
}

func (p *parser) errorf(t scan.Token, f string, args ...any) error {
	return diag.At(diag.Syntax, p.text, t.Pos, f, args...)
}
