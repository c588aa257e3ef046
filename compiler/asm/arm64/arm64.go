package arm64

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/asm"
)

// Immediates are staged in X9 so pushing a constant never touches the accumulator.
const scratch = 9

var (
	regs = map[asm.Reg]int{
		asm.Acc: 0,
		asm.Sec: 1,
	}

	conds = map[asm.Cond]string{
		asm.EQ: "EQ",
		asm.NE: "NE",
		asm.LT: "LT",
		asm.LE: "LE",
	}
)

// Render appends f as GNU as AArch64 assembly.
// The operand stack lives on SP in 16 byte slots to keep SP aligned.
func Render(ctx context.Context, b []byte, f *asm.Func) (_ []byte, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "arm64: render", "name", f.Name, "instrs", len(f.Body))
	defer tr.Finish("err", &err)

	b = fmt.Appendf(b, ".align 4\n.global %s\n%[1]s:\n", f.Name)

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
		return fmt.Appendf(b, "\t// %s\n", x.Text), nil
	case asm.PushImm:
		if x.Value >= 0 && x.Value <= 0xffff {
			b = fmt.Appendf(b, "\tMOV\tX%d, #%d\n", scratch, x.Value)
		} else {
			b = fmt.Appendf(b, "\tLDR\tX%d, =%d\n", scratch, x.Value)
		}

		return fmt.Appendf(b, "\tSTR\tX%d, [SP, #-16]!\n", scratch), nil
	case asm.Push:
		r, err := reg(x.In[0])
		if err != nil {
			return nil, err
		}

		return fmt.Appendf(b, "\tSTR\tX%d, [SP, #-16]!\n", r), nil
	case asm.Pop:
		r, err := reg(x.Out[0])
		if err != nil {
			return nil, err
		}

		return fmt.Appendf(b, "\tLDR\tX%d, [SP], #16\n", r), nil
	case asm.Add:
		return op3(b, "ADD", x.Out, x.In)
	case asm.Sub:
		return op3(b, "SUB", x.Out, x.In)
	case asm.Mul:
		return op3(b, "MUL", x.Out, x.In)
	case asm.SignExt:
		// SDIV reads signed operands directly
		return b, nil
	case asm.Div:
		return op3(b, "SDIV", x.Out, x.In)
	case asm.Cmp:
		l, err := reg(x.In[0])
		if err != nil {
			return nil, err
		}

		r, err := reg(x.In[1])
		if err != nil {
			return nil, err
		}

		return fmt.Appendf(b, "\tCMP\tX%d, X%d\n", l, r), nil
	case asm.SetCond:
		c, ok := conds[x.Cond]
		if !ok {
			return nil, errors.New("unsupported cond: %v", x.Cond)
		}

		r, err := reg(x.Out[0])
		if err != nil {
			return nil, err
		}

		return fmt.Appendf(b, "\tCSET\tW%d, %s\n", r, c), nil
	case asm.ZeroExt:
		r, err := reg(x.Out[0])
		if err != nil {
			return nil, err
		}

		return fmt.Appendf(b, "\tUXTB\tW%d, W%[1]d\n", r), nil
	case asm.Ret:
		return append(b, "\tRET\n"...), nil
	default:
		return nil, errors.New("unsupported instr: %T", x)
	}
}

func op3(b []byte, name string, out [1]asm.Reg, in [2]asm.Reg) ([]byte, error) {
	var r [3]int

	for i, x := range []asm.Reg{out[0], in[0], in[1]} {
		n, err := reg(x)
		if err != nil {
			return nil, errors.Wrap(err, "%s", name)
		}

		r[i] = n
	}

	return fmt.Appendf(b, "\t%s\tX%d, X%d, X%d\n", name, r[0], r[1], r[2]), nil
}

func reg(r asm.Reg) (int, error) {
	n, ok := regs[r]
	if !ok {
		return 0, errors.New("unsupported reg: %v", r)
	}

	return n, nil
}
