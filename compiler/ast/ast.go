package ast

import "fmt"

type (
	Node interface {
		Span() Base
	}

	Base struct {
		Pos int
		End int
	}

	Op int

	Num struct {
		Base `tlog:",embed"`

		Value int64
	}

	BinOp struct {
		Base `tlog:",embed"`

		Op    Op
		Left  Node
		Right Node
	}
)

const (
	Add Op = iota
	Sub
	Mul
	Div
	Eq
	Ne
	Lt
	Le
)

var opText = [...]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
	Eq:  "==",
	Ne:  "!=",
	Lt:  "<",
	Le:  "<=",
}

func (b Base) Span() Base { return b }

// IsCmp reports whether op yields a 0/1 truth value.
func (op Op) IsCmp() bool {
	return op >= Eq && op <= Le
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opText) {
		return fmt.Sprintf("Op(%d)", int(op))
	}

	return opText[op]
}
