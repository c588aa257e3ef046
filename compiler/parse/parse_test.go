package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/slowlang/exprc/compiler/ast"
	"github.com/slowlang/exprc/compiler/diag"
	"github.com/slowlang/exprc/compiler/format"
	"github.com/slowlang/exprc/compiler/scan"
)

func TestParse(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		in   string
		want string
	}{
		{"42", "42"},
		{"1+2*3", "(1 + (2 * 3))"},
		{"(1+2)*3", "((1 + 2) * 3)"},
		{"8-4-2", "((8 - 4) - 2)"},
		{"8/4/2", "((8 / 4) / 2)"},
		{"-3+5", "((0 - 3) + 5)"},
		{"-(3+5)", "(0 - (3 + 5))"},
		{"+3", "3"},
		{"--1", "(0 - (0 - 1))"},
		{"-+-1", "(0 - (0 - 1))"},
		{"2*-3", "(2 * (0 - 3))"},
		{"((42))", "42"},
		{"1<2", "(1 < 2)"},
		{"2>1", "(1 < 2)"},
		{"1<=2", "(1 <= 2)"},
		{"2>=1", "(1 <= 2)"},
		{"3>2>1", "(1 < (2 < 3))"},
		{"1==2", "(1 == 2)"},
		{"1!=2", "(1 != 2)"},
		{"1<2==3<4", "((1 < 2) == (3 < 4))"},
		{"1+2<3*4", "((1 + 2) < (3 * 4))"},
		{"1==2!=3", "((1 == 2) != 3)"},
		{" 1 + 2 ", "(1 + 2)"},
	} {
		x, err := ParseString(ctx, tc.in)
		if !assert.NoError(t, err, "%q", tc.in) {
			continue
		}

		b, err := format.Format(ctx, nil, x)
		require.NoError(t, err)

		assert.Equal(t, tc.want, string(b), "%q", tc.in)
	}
}

func TestParseRelationalNormalization(t *testing.T) {
	ctx := context.Background()

	gt, err := ParseString(ctx, "2>1")
	require.NoError(t, err)

	lt, err := ParseString(ctx, "1<2")
	require.NoError(t, err)

	g := gt.(*ast.BinOp)
	l := lt.(*ast.BinOp)

	assert.Equal(t, ast.Lt, g.Op)
	assert.Equal(t, l.Op, g.Op)
	assert.Equal(t, int64(1), g.Left.(ast.Num).Value)
	assert.Equal(t, int64(2), g.Right.(ast.Num).Value)
}

func TestParseSpans(t *testing.T) {
	ctx := context.Background()

	x, err := ParseString(ctx, "12 + 3*4")
	require.NoError(t, err)

	root := x.(*ast.BinOp)
	assert.Equal(t, ast.Base{Pos: 0, End: 8}, root.Base)
	assert.Equal(t, ast.Base{Pos: 0, End: 2}, root.Left.Span())
	assert.Equal(t, ast.Base{Pos: 5, End: 8}, root.Right.Span())

	x, err = ParseString(ctx, "-7")
	require.NoError(t, err)

	neg := x.(*ast.BinOp)
	assert.Equal(t, ast.Sub, neg.Op)
	assert.Equal(t, ast.Base{Pos: 0, End: 2}, neg.Base)
	assert.Equal(t, int64(0), neg.Left.(ast.Num).Value)
}

func TestParseErrors(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		in   string
		kind diag.Kind
		pos  int
		msg  string
	}{
		{"", diag.Syntax, 0, "expected a number"},
		{"1+", diag.Syntax, 2, "expected a number"},
		{"(1+2", diag.Syntax, 4, "expected ')'"},
		{"1+*2", diag.Syntax, 2, "expected a number"},
		{")", diag.Syntax, 0, "expected a number"},
		{"()", diag.Syntax, 1, "expected a number"},
		{"1 2", diag.Syntax, 2, "unexpected token"},
		{"(1))", diag.Syntax, 3, "unexpected token"},
		{"1 < < 2", diag.Syntax, 4, "expected a number"},
		{"@", diag.Lexical, 0, "unexpected character"},
		{"1+2 @", diag.Lexical, 4, "unexpected character"},
	} {
		_, err := ParseString(ctx, tc.in)
		require.Error(t, err, "%q", tc.in)

		var d *diag.Error
		require.True(t, errors.As(err, &d), "%q: %v", tc.in, err)

		assert.Equal(t, tc.kind, d.Kind, "%q", tc.in)
		assert.Equal(t, tc.pos, d.Pos, "%q", tc.in)
		assert.Equal(t, tc.msg, d.Msg, "%q", tc.in)
	}
}

func TestParseUnterminated(t *testing.T) {
	ctx := context.Background()

	_, err := Parse(ctx, "1", []scan.Token{{Kind: scan.Num, Len: 1, Val: 1}})
	require.Error(t, err)

	var d *diag.Error
	assert.False(t, errors.As(err, &d))
}
