package sim

import (
	"context"
	"math"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/asm"
)

type (
	// Machine is the accumulator/secondary register pair plus the operand stack
	// that the generated code targets.
	Machine struct {
		Regs  [2]int64
		Stack []int64

		flags    [2]int64
		extended bool
	}
)

var (
	ErrDivideByZero = errors.New("division by zero")
	ErrOverflow     = errors.New("division overflow")
)

// Eval runs f on a fresh machine and returns the accumulator.
// The routine must leave the stack as it found it.
func Eval(ctx context.Context, f *asm.Func) (v int64, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "sim: eval", "name", f.Name)
	defer tr.Finish("val", &v, "err", &err)

	var m Machine

	err = m.Exec(ctx, f.Body)
	if err != nil {
		return 0, err
	}

	if len(m.Stack) != 0 {
		return 0, errors.New("%d values left on the stack", len(m.Stack))
	}

	return m.Regs[asm.Acc], nil
}

// Exec runs code until Ret or the end of code.
func (m *Machine) Exec(ctx context.Context, code []asm.Instr) (err error) {
	tr := tlog.SpanFromContext(ctx)

	for pc, x := range code {
		if tr.If("sim") {
			tr.Printw("exec", "pc", pc, "instr", tlog.NextAsType, x, "acc", m.Regs[asm.Acc], "sec", m.Regs[asm.Sec], "depth", len(m.Stack))
		}

		if _, ok := x.(asm.Ret); ok {
			return nil
		}

		err = m.step(x)
		if err != nil {
			return errors.Wrap(err, "pc %d: %T", pc, x)
		}
	}

	return nil
}

func (m *Machine) step(x asm.Instr) (err error) {
	switch x := x.(type) {
	case asm.Comment:
	case asm.PushImm:
		m.Stack = append(m.Stack, x.Value)
	case asm.Push:
		v, err := m.get(x.In[0])
		if err != nil {
			return err
		}

		m.Stack = append(m.Stack, v)
	case asm.Pop:
		if len(m.Stack) == 0 {
			return errors.New("stack underflow")
		}

		v := m.Stack[len(m.Stack)-1]
		m.Stack = m.Stack[:len(m.Stack)-1]

		return m.set(x.Out[0], v)
	case asm.Add:
		return m.arith(x.Out, x.In, func(l, r int64) (int64, error) { return l + r, nil })
	case asm.Sub:
		return m.arith(x.Out, x.In, func(l, r int64) (int64, error) { return l - r, nil })
	case asm.Mul:
		return m.arith(x.Out, x.In, func(l, r int64) (int64, error) { return l * r, nil })
	case asm.SignExt:
		m.extended = true
	case asm.Div:
		if !m.extended {
			return errors.New("dividend is not sign extended")
		}

		return m.arith(x.Out, x.In, div)
	case asm.Cmp:
		l, err := m.get(x.In[0])
		if err != nil {
			return err
		}

		r, err := m.get(x.In[1])
		if err != nil {
			return err
		}

		m.flags = [2]int64{l, r}
	case asm.SetCond:
		v, err := m.get(x.Out[0])
		if err != nil {
			return err
		}

		holds, err := m.cond(x.Cond)
		if err != nil {
			return err
		}

		var bit int64

		if holds {
			bit = 1
		}

		return m.set(x.Out[0], v&^0xff|bit)
	case asm.ZeroExt:
		v, err := m.get(x.Out[0])
		if err != nil {
			return err
		}

		return m.set(x.Out[0], v&0xff)
	default:
		return errors.New("unsupported instr")
	}

	return nil
}

func (m *Machine) arith(out [1]asm.Reg, in [2]asm.Reg, f func(l, r int64) (int64, error)) error {
	l, err := m.get(in[0])
	if err != nil {
		return err
	}

	r, err := m.get(in[1])
	if err != nil {
		return err
	}

	v, err := f(l, r)
	if err != nil {
		return err
	}

	return m.set(out[0], v)
}

// div truncates toward zero like idiv and sdiv do.
func div(l, r int64) (int64, error) {
	if r == 0 {
		return 0, ErrDivideByZero
	}

	if l == math.MinInt64 && r == -1 {
		return 0, ErrOverflow
	}

	return l / r, nil
}

func (m *Machine) cond(c asm.Cond) (bool, error) {
	l, r := m.flags[0], m.flags[1]

	switch c {
	case asm.EQ:
		return l == r, nil
	case asm.NE:
		return l != r, nil
	case asm.LT:
		return l < r, nil
	case asm.LE:
		return l <= r, nil
	}

	return false, errors.New("unsupported cond: %v", c)
}

func (m *Machine) get(r asm.Reg) (int64, error) {
	if r < 0 || int(r) >= len(m.Regs) {
		return 0, errors.New("unsupported reg: %v", r)
	}

	return m.Regs[r], nil
}

func (m *Machine) set(r asm.Reg, v int64) error {
	if r < 0 || int(r) >= len(m.Regs) {
		return errors.New("unsupported reg: %v", r)
	}

	if r == asm.Acc {
		m.extended = false
	}

	m.Regs[r] = v

	return nil
}
