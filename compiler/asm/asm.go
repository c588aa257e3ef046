package asm

import (
	"fmt"

	"tlog.app/go/errors"
)

type (
	Reg  int
	Cond int

	Func struct {
		Name string
		Body []Instr
	}

	Instr any

	PushImm struct {
		Value int64
	}

	Push struct {
		In [1]Reg
	}

	Pop struct {
		Out [1]Reg
	}

	Add struct {
		Out [1]Reg
		In  [2]Reg
	}

	Sub struct {
		Out [1]Reg
		In  [2]Reg
	}

	Mul struct {
		Out [1]Reg
		In  [2]Reg
	}

	// SignExt widens the accumulator into the double-width dividend.
	SignExt struct{}

	// Div is truncating signed division, the remainder is dropped.
	Div struct {
		Out [1]Reg
		In  [2]Reg
	}

	Cmp struct {
		In [2]Reg
	}

	// SetCond writes 0 or 1 into the low byte of Out only.
	SetCond struct {
		Cond Cond
		Out  [1]Reg
	}

	// ZeroExt clears everything above the low byte.
	ZeroExt struct {
		Out [1]Reg
	}

	Comment struct {
		Text string
	}

	Ret struct{}
)

const (
	Acc Reg = iota
	Sec
)

const (
	EQ Cond = iota
	NE
	LT
	LE
)

// Depth returns the number of values the code leaves on the stack.
// It fails if the code pops more than it pushed.
func Depth(code []Instr) (d int, err error) {
	for i, x := range code {
		switch x.(type) {
		case PushImm, Push:
			d++
		case Pop:
			if d == 0 {
				return 0, errors.New("stack underflow at instr %d", i)
			}

			d--
		case Ret:
			return d, nil
		}
	}

	return d, nil
}

func (r Reg) String() string {
	switch r {
	case Acc:
		return "acc"
	case Sec:
		return "sec"
	default:
		return fmt.Sprintf("Reg(%d)", int(r))
	}
}

func (c Cond) String() string {
	switch c {
	case EQ:
		return "eq"
	case NE:
		return "ne"
	case LT:
		return "lt"
	case LE:
		return "le"
	default:
		return fmt.Sprintf("Cond(%d)", int(c))
	}
}
