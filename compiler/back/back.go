package back

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/asm"
	"github.com/slowlang/exprc/compiler/ast"
)

type (
	Compiler struct {
		// Comments annotates the code with the operator and its source span.
		Comments bool
	}
)

var conds = map[ast.Op]asm.Cond{
	ast.Eq: asm.EQ,
	ast.Ne: asm.NE,
	ast.Lt: asm.LT,
	ast.Le: asm.LE,
}

func New() *Compiler {
	return &Compiler{}
}

// Func compiles x into the entry routine name.
// The routine returns the expression value in the accumulator.
func (c *Compiler) Func(ctx context.Context, name string, x ast.Node) (f *asm.Func, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile func", "name", name)
	defer tr.Finish("err", &err)

	code, err := c.Generate(ctx, x)
	if err != nil {
		return nil, err
	}

	code = append(code,
		asm.Pop{Out: [1]asm.Reg{asm.Acc}},
		asm.Ret{},
	)

	return &asm.Func{
		Name: name,
		Body: code,
	}, nil
}

// Generate emits code leaving the value of x as the only new value on the stack.
func (c *Compiler) Generate(ctx context.Context, x ast.Node) (code []asm.Instr, err error) {
	code, err = c.compileExpr(ctx, nil, x)
	if err != nil {
		return nil, err
	}

	d, err := asm.Depth(code)
	if err != nil {
		return nil, errors.Wrap(err, "stack check")
	}

	if d != 1 {
		return nil, errors.New("stack check: %d values left, want 1", d)
	}

	tlog.SpanFromContext(ctx).V("back").Printw("generated", "instrs", len(code))

	return code, nil
}

func (c *Compiler) compileExpr(ctx context.Context, code []asm.Instr, x ast.Node) (_ []asm.Instr, err error) {
	switch x := x.(type) {
	case ast.Num:
		return append(code, asm.PushImm{Value: x.Value}), nil
	case *ast.BinOp:
		return c.compileBinOp(ctx, code, x)
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}
}

func (c *Compiler) compileBinOp(ctx context.Context, code []asm.Instr, x *ast.BinOp) (_ []asm.Instr, err error) {
	if x.Left == nil || x.Right == nil {
		return nil, errors.New("%v at %d: missing operand", x.Op, x.Pos)
	}

	code, err = c.compileExpr(ctx, code, x.Left)
	if err != nil {
		return nil, errors.Wrap(err, "left")
	}

	code, err = c.compileExpr(ctx, code, x.Right)
	if err != nil {
		return nil, errors.Wrap(err, "right")
	}

	if c.Comments {
		code = append(code, asm.Comment{Text: fmt.Sprintf("%v [%d:%d]", x.Op, x.Pos, x.End)})
	}

	acc := [1]asm.Reg{asm.Acc}
	in := [2]asm.Reg{asm.Acc, asm.Sec}

	code = append(code,
		asm.Pop{Out: [1]asm.Reg{asm.Sec}},
		asm.Pop{Out: acc},
	)

	switch x.Op {
	case ast.Add:
		code = append(code, asm.Add{Out: acc, In: in})
	case ast.Sub:
		code = append(code, asm.Sub{Out: acc, In: in})
	case ast.Mul:
		code = append(code, asm.Mul{Out: acc, In: in})
	case ast.Div:
		code = append(code, asm.SignExt{}, asm.Div{Out: acc, In: in})
	case ast.Eq, ast.Ne, ast.Lt, ast.Le:
		code = append(code,
			asm.Cmp{In: in},
			asm.SetCond{Cond: conds[x.Op], Out: acc},
			asm.ZeroExt{Out: acc},
		)
	default:
		return nil, errors.New("unsupported op: %v", x.Op)
	}

	return append(code, asm.Push{In: acc}), nil
}
