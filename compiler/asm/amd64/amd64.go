package amd64

import (
	"context"
	"fmt"
	"math"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/asm"
)

const indent = "    "

var (
	regs = map[asm.Reg]string{
		asm.Acc: "rax",
		asm.Sec: "rdi",
	}

	lowRegs = map[asm.Reg]string{
		asm.Acc: "al",
		asm.Sec: "dil",
	}

	setcc = map[asm.Cond]string{
		asm.EQ: "sete",
		asm.NE: "setne",
		asm.LT: "setl",
		asm.LE: "setle",
	}
)

// Render appends f as GNU as Intel-syntax x86-64 assembly.
func Render(ctx context.Context, b []byte, f *asm.Func) (_ []byte, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "amd64: render", "name", f.Name, "instrs", len(f.Body))
	defer tr.Finish("err", &err)

	b = fmt.Appendf(b, ".intel_syntax noprefix\n.globl %s\n%[1]s:\n", f.Name)

	for i, x := range f.Body {
		b, err = instr(b, x)
		if err != nil {
			return nil, errors.Wrap(err, "instr %d", i)
		}
	}

	return b, nil
}

func instr(b []byte, x asm.Instr) (_ []byte, err error) {
	switch x := x.(type) {
	case asm.Comment:
		return fmt.Appendf(b, "%s# %s\n", indent, x.Text), nil
	case asm.PushImm:
		if x.Value >= math.MinInt32 && x.Value <= math.MaxInt32 {
			return fmt.Appendf(b, "%spush %d\n", indent, x.Value), nil
		}

		b = fmt.Appendf(b, "%smov rax, %d\n", indent, x.Value)

		return fmt.Appendf(b, "%spush rax\n", indent), nil
	case asm.Push:
		return op(b, "push", regs, x.In[0])
	case asm.Pop:
		return op(b, "pop", regs, x.Out[0])
	case asm.Add:
		return binop(b, "add", x.Out, x.In)
	case asm.Sub:
		return binop(b, "sub", x.Out, x.In)
	case asm.Mul:
		return binop(b, "imul", x.Out, x.In)
	case asm.SignExt:
		return fmt.Appendf(b, "%scqo\n", indent), nil
	case asm.Div:
		if x.Out[0] != asm.Acc || x.In[0] != asm.Acc {
			return nil, errors.New("idiv: dividend must be in %v", asm.Acc)
		}

		return op(b, "idiv", regs, x.In[1])
	case asm.Cmp:
		l, r, err := names(regs, x.In[0], x.In[1])
		if err != nil {
			return nil, err
		}

		return fmt.Appendf(b, "%scmp %s, %s\n", indent, l, r), nil
	case asm.SetCond:
		cc, ok := setcc[x.Cond]
		if !ok {
			return nil, errors.New("unsupported cond: %v", x.Cond)
		}

		return op(b, cc, lowRegs, x.Out[0])
	case asm.ZeroExt:
		full, low, err := names2(x.Out[0])
		if err != nil {
			return nil, err
		}

		return fmt.Appendf(b, "%smovzb %s, %s\n", indent, full, low), nil
	case asm.Ret:
		return fmt.Appendf(b, "%sret\n", indent), nil
	default:
		return nil, errors.New("unsupported instr: %T", x)
	}
}

func op(b []byte, name string, set map[asm.Reg]string, r asm.Reg) ([]byte, error) {
	n, ok := set[r]
	if !ok {
		return nil, errors.New("%s: unsupported reg: %v", name, r)
	}

	return fmt.Appendf(b, "%s%s %s\n", indent, name, n), nil
}

// binop renders two-operand form, so the output must be the first input.
func binop(b []byte, name string, out [1]asm.Reg, in [2]asm.Reg) ([]byte, error) {
	if out[0] != in[0] {
		return nil, errors.New("%s: out %v must be the first operand, got %v", name, out[0], in[0])
	}

	l, r, err := names(regs, in[0], in[1])
	if err != nil {
		return nil, errors.Wrap(err, "%s", name)
	}

	return fmt.Appendf(b, "%s%s %s, %s\n", indent, name, l, r), nil
}

func names(set map[asm.Reg]string, a, c asm.Reg) (string, string, error) {
	l, ok := set[a]
	if !ok {
		return "", "", errors.New("unsupported reg: %v", a)
	}

	r, ok := set[c]
	if !ok {
		return "", "", errors.New("unsupported reg: %v", c)
	}

	return l, r, nil
}

func names2(r asm.Reg) (string, string, error) {
	full, ok := regs[r]
	if !ok {
		return "", "", errors.New("unsupported reg: %v", r)
	}

	return full, lowRegs[r], nil
}
