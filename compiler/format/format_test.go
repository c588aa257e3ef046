package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/exprc/compiler/ast"
)

func TestFormat(t *testing.T) {
	ctx := context.Background()

	x := &ast.BinOp{
		Op:   ast.Le,
		Left: ast.Num{Value: 1},
		Right: &ast.BinOp{
			Op:    ast.Div,
			Left:  ast.Num{Value: 7},
			Right: ast.Num{Value: 2},
		},
	}

	b, err := Format(ctx, nil, x)
	require.NoError(t, err)
	assert.Equal(t, "(1 <= (7 / 2))", string(b))

	b, err = Tree(ctx, nil, x)
	require.NoError(t, err)
	assert.Equal(t, "<=\t[0:0]\n  num 1\t[0:0]\n  /\t[0:0]\n    num 7\t[0:0]\n    num 2\t[0:0]\n", string(b))
}

func TestFormatUnsupported(t *testing.T) {
	ctx := context.Background()

	_, err := Format(ctx, nil, &ast.BinOp{Op: ast.Add, Left: ast.Num{Value: 1}})
	assert.Error(t, err)

	_, err = Tree(ctx, nil, nil)
	assert.Error(t, err)
}
