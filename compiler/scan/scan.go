package scan

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/exprc/compiler/diag"
)

type (
	Kind int

	Token struct {
		Kind Kind
		Pos  int
		Len  int
		Val  int64 // Num only
	}

	Spaces uint64
)

const (
	Punct Kind = iota
	Num
	EOF
)

var Space = NewSpaces(' ', '\t', '\n', '\v', '\f', '\r')

// Longer operators go first: "<=" must win over "<".
var (
	punct2 = []string{"==", "!=", "<=", ">="}
	punct1 = "+-*/()<>"
)

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Skip(text string, st int) (i int) {
	i = st

	for i < len(text) && text[i] < 64 && s&(1<<text[i]) != 0 {
		i++
	}

	return
}

// Tokenize splits text into tokens terminated by a single EOF token.
func Tokenize(ctx context.Context, text string) (toks []Token, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "scan: tokenize", "size", len(text))
	defer tr.Finish("err", &err)

	i := 0

	for {
		i = Space.Skip(text, i)
		if i == len(text) {
			break
		}

		var t Token

		t, err = next(text, i)
		if err != nil {
			return nil, err
		}

		if tr.If("tokens") {
			tr.Printw("token", "tok", t, "text", t.Text(text))
		}

		toks = append(toks, t)
		i += t.Len
	}

	toks = append(toks, Token{Kind: EOF, Pos: len(text)})

	tr.V("scan").Printw("tokenized", "tokens", len(toks))

	return toks, nil
}

func next(text string, st int) (Token, error) {
	rest := text[st:]

	for _, p := range punct2 {
		if strings.HasPrefix(rest, p) {
			return Token{Kind: Punct, Pos: st, Len: len(p)}, nil
		}
	}

	if strings.IndexByte(punct1, rest[0]) >= 0 {
		return Token{Kind: Punct, Pos: st, Len: 1}, nil
	}

	if !isDigit(rest[0]) {
		return Token{}, diag.At(diag.Lexical, text, st, "unexpected character")
	}

	return number(text, st)
}

func number(text string, st int) (Token, error) {
	const max = 1<<63 - 1

	var v int64

	i := st
	for i < len(text) && isDigit(text[i]) {
		d := int64(text[i] - '0')

		if v > (max-d)/10 {
			return Token{}, diag.At(diag.Lexical, text, st, "number out of range")
		}

		v = v*10 + d
		i++
	}

	return Token{Kind: Num, Pos: st, Len: i - st, Val: v}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Text returns the token source.
func (t Token) Text(text string) string {
	return text[t.Pos : t.Pos+t.Len]
}

// Is reports whether t is the punctuation op.
func (t Token) Is(text, op string) bool {
	return t.Kind == Punct && t.Text(text) == op
}

func (t Token) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	n := 3
	if t.Kind == Num {
		n++
	}

	b = e.AppendMap(b, n)

	b = e.AppendString(b, "kind")
	b = e.AppendString(b, t.Kind.String())
	b = e.AppendKeyInt(b, "pos", t.Pos)
	b = e.AppendKeyInt(b, "len", t.Len)

	if t.Kind == Num {
		b = e.AppendKeyInt(b, "val", int(t.Val))
	}

	return b
}

func (k Kind) String() string {
	switch k {
	case Punct:
		return "punct"
	case Num:
		return "num"
	case EOF:
		return "eof"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
