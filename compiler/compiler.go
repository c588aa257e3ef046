package compiler

import (
	"context"
	"os"
	"sort"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler/asm"
	"github.com/slowlang/exprc/compiler/asm/amd64"
	"github.com/slowlang/exprc/compiler/asm/arm64"
	"github.com/slowlang/exprc/compiler/back"
	"github.com/slowlang/exprc/compiler/parse"
	"github.com/slowlang/exprc/compiler/sim"
)

type (
	Options struct {
		Target   string
		Entry    string
		Comments bool
	}

	RenderFunc func(ctx context.Context, b []byte, f *asm.Func) ([]byte, error)
)

const (
	DefaultTarget = "amd64"
	DefaultEntry  = "main"
)

var Targets = map[string]RenderFunc{
	"amd64": amd64.Render,
	"arm64": arm64.Render,
}

func CompileFile(ctx context.Context, name string, opts Options) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, strings.TrimRight(string(text), "\r\n"), opts)
}

// Compile translates the expression text into assembly for opts.Target.
// Malformed input is reported as *diag.Error.
func Compile(ctx context.Context, text string, opts Options) (obj []byte, err error) {
	opts = opts.withDefaults()

	render, ok := Targets[opts.Target]
	if !ok {
		return nil, errors.New("unsupported target: %q (supported: %s)", opts.Target, strings.Join(TargetNames(), ", "))
	}

	f, err := Build(ctx, text, opts)
	if err != nil {
		return nil, err
	}

	obj, err = render(ctx, nil, f)
	if err != nil {
		return nil, errors.Wrap(err, "render %v", opts.Target)
	}

	return obj, nil
}

// Build runs the pipeline up to target independent code.
func Build(ctx context.Context, text string, opts Options) (*asm.Func, error) {
	opts = opts.withDefaults()

	if !ValidSymbol(opts.Entry) {
		return nil, errors.New("bad entry symbol: %q", opts.Entry)
	}

	x, err := parse.ParseString(ctx, text)
	if err != nil {
		return nil, err
	}

	c := back.New()
	c.Comments = opts.Comments

	f, err := c.Func(ctx, opts.Entry, x)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	return f, nil
}

// Eval compiles text and runs it on the simulator.
func Eval(ctx context.Context, text string) (int64, error) {
	f, err := Build(ctx, text, Options{})
	if err != nil {
		return 0, err
	}

	return sim.Eval(ctx, f)
}

func TargetNames() []string {
	l := make([]string, 0, len(Targets))

	for name := range Targets {
		l = append(l, name)
	}

	sort.Strings(l)

	return l
}

// ValidSymbol reports whether s can be used as an assembler label.
func ValidSymbol(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '.', c == '$':
		case c >= '0' && c <= '9' && i != 0:
		default:
			return false
		}
	}

	return true
}

func (o Options) withDefaults() Options {
	if o.Target == "" {
		o.Target = DefaultTarget
	}

	if o.Entry == "" {
		o.Entry = DefaultEntry
	}

	return o
}
