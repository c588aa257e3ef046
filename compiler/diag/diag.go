package diag

import (
	"fmt"

	"github.com/fatih/color"
	"tlog.app/go/loc"
)

type (
	Kind int

	// Error points at a byte in the compiled text.
	// It is the only error the scanner and the parser return for malformed input.
	Error struct {
		Kind Kind
		Text string
		Pos  int
		Msg  string

		From loc.PC `tlog:"-"`
	}
)

const (
	Lexical Kind = iota
	Syntax
)

var (
	caretAttrs = []color.Attribute{color.FgRed, color.Bold}
	msgAttrs   = []color.Attribute{color.Bold}
)

func At(k Kind, text string, pos int, f string, args ...any) *Error {
	return &Error{
		Kind: k,
		Text: text,
		Pos:  pos,
		Msg:  fmt.Sprintf(f, args...),
		From: loc.Caller(1),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v error at pos %d: %s", e.Kind, e.Pos, e.Msg)
}

// Render appends the input line, a caret line and the message.
func Render(b []byte, e *Error, colored bool) []byte {
	pos := e.Pos
	if pos < 0 {
		pos = 0
	}

	if pos > len(e.Text) {
		pos = len(e.Text)
	}

	b = append(b, e.Text...)
	b = append(b, '\n')

	for i := 0; i < pos; i++ {
		if e.Text[i] == '\t' {
			b = append(b, '\t')
		} else {
			b = append(b, ' ')
		}
	}

	if colored {
		b = append(b, paint("^", caretAttrs...)...)
		b = append(b, '\n')
		b = append(b, paint(e.Msg, msgAttrs...)...)
	} else {
		b = append(b, '^', '\n')
		b = append(b, e.Msg...)
	}

	b = append(b, '\n')

	return b
}

// paint colors s even when stderr is not a terminal.
// The caller has already decided coloring is wanted.
func paint(s string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	c.EnableColor()

	return c.Sprint(s)
}

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
