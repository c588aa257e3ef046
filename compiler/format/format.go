package format

import (
	"context"
	"fmt"
	"strconv"

	"tlog.app/go/errors"

	"github.com/slowlang/exprc/compiler/ast"
)

// Format appends x as a fully parenthesized expression.
// Parsing the result yields the same tree.
func Format(ctx context.Context, b []byte, x ast.Node) ([]byte, error) {
	return formatExpr(ctx, b, x)
}

// Tree appends an indented one-node-per-line dump of x.
func Tree(ctx context.Context, b []byte, x ast.Node) ([]byte, error) {
	return formatTree(ctx, b, x, 0)
}

func formatExpr(ctx context.Context, b []byte, x ast.Node) (_ []byte, err error) {
	switch x := x.(type) {
	case ast.Num:
		b = strconv.AppendInt(b, x.Value, 10)
	case *ast.BinOp:
		b = append(b, '(')

		b, err = formatExpr(ctx, b, x.Left)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b = append(b, ' ')
		b = append(b, x.Op.String()...)
		b = append(b, ' ')

		b, err = formatExpr(ctx, b, x.Right)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}

		b = append(b, ')')
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

func formatTree(ctx context.Context, b []byte, x ast.Node, d int) (_ []byte, err error) {
	switch x := x.(type) {
	case ast.Num:
		b = app(b, d, "num %d\t[%d:%d]\n", x.Value, x.Pos, x.End)
	case *ast.BinOp:
		b = app(b, d, "%v\t[%d:%d]\n", x.Op, x.Pos, x.End)

		b, err = formatTree(ctx, b, x.Left, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}

		b, err = formatTree(ctx, b, x.Right, d+1)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	for i := 0; i < d; i++ {
		b = append(b, "  "...)
	}

	return fmt.Appendf(b, f, args...)
}
