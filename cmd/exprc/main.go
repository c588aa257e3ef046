package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/exprc/compiler"
	"github.com/slowlang/exprc/compiler/diag"
	"github.com/slowlang/exprc/compiler/format"
	"github.com/slowlang/exprc/compiler/parse"
	"github.com/slowlang/exprc/compiler/scan"
	"github.com/slowlang/exprc/config"
)

// errReported means the diagnostic is already on stderr.
var errReported = errors.New("reported")

func main() {
	os.Exit(run(os.Args, os.Environ(), os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
func run(args, env []string, stdout, stderr io.Writer) int {
	app := newApp()
	app.Stdout = stdout
	app.Stderr = stderr

	err := cli.Run(app, args, env)
	if errors.Is(err, errReported) {
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)

		return 1
	}

	return 0
}

func newApp() *cli.Command {
	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile expression into assembly",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: append(commonFlags(),
			cli.NewFlag("target", "", "target architecture: amd64 or arm64"),
			cli.NewFlag("entry", "", "entry point symbol"),
			cli.NewFlag("comments", false, "annotate assembly with source spans"),
			cli.NewFlag("file,f", "", "read expression from file"),
			cli.NewFlag("output,o", "-", "output file"),
		),
	}

	tokensCmd := &cli.Command{
		Name:        "tokens",
		Description: "print expression tokens",
		Action:      tokensAct,
		Args:        cli.Args{},
		Flags:       commonFlags(),
	}

	astCmd := &cli.Command{
		Name:        "ast",
		Description: "print expression syntax tree",
		Action:      astAct,
		Args:        cli.Args{},
		Flags:       commonFlags(),
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "evaluate expression on the stack machine simulator",
		Action:      runAct,
		Args:        cli.Args{},
		Flags:       commonFlags(),
	}

	return &cli.Command{
		Name:        "exprc",
		Description: "exprc compiles an integer expression into a program returning its value.\nUse -- before expressions starting with '-'.",
		Commands: []*cli.Command{
			compileCmd,
			tokensCmd,
			astCmd,
			runCmd,
		},
	}
}

func commonFlags() []*cli.Flag {
	return []*cli.Flag{
		cli.NewFlag("config", "", "yaml config file"),
		cli.NewFlag("env", ".env", "dotenv file"),
		cli.NewFlag("verbose,v", "", "tlog verbosity topics"),
	}
}

func compileAct(c *cli.Command) (err error) {
	ctx, cfg, err := setup(c)
	if err != nil {
		return err
	}

	if v := c.String("target"); v != "" {
		cfg.Target = v
	}

	if v := c.String("entry"); v != "" {
		cfg.Entry = v
	}

	if c.Bool("comments") {
		cfg.Comments = true
	}

	err = cfg.Validate()
	if err != nil {
		return errors.Wrap(err, "flags")
	}

	var obj []byte

	if file := c.String("file"); file != "" {
		if len(c.Args) != 0 {
			return usage(c)
		}

		obj, err = compiler.CompileFile(ctx, file, cfg.Options())
	} else {
		var text string

		text, err = expr(c)
		if err != nil {
			return err
		}

		obj, err = compiler.Compile(ctx, text, cfg.Options())
	}
	if err != nil {
		return report(ctx, c, cfg, err)
	}

	out := c.String("output")
	if out == "" || out == "-" {
		return write(c.Stdout, obj)
	}

	err = os.WriteFile(out, obj, 0o644)
	if err != nil {
		return errors.Wrap(err, "write %v", out)
	}

	return nil
}

func tokensAct(c *cli.Command) (err error) {
	ctx, cfg, err := setup(c)
	if err != nil {
		return err
	}

	text, err := expr(c)
	if err != nil {
		return err
	}

	toks, err := scan.Tokenize(ctx, text)
	if err != nil {
		return report(ctx, c, cfg, err)
	}

	var b []byte

	for _, t := range toks {
		b = fmt.Appendf(b, "%-5v %3d  %q", t.Kind, t.Pos, t.Text(text))

		if t.Kind == scan.Num {
			b = fmt.Appendf(b, "  = %d", t.Val)
		}

		b = append(b, '\n')
	}

	return write(c.Stdout, b)
}

func astAct(c *cli.Command) (err error) {
	ctx, cfg, err := setup(c)
	if err != nil {
		return err
	}

	text, err := expr(c)
	if err != nil {
		return err
	}

	x, err := parse.ParseString(ctx, text)
	if err != nil {
		return report(ctx, c, cfg, err)
	}

	b, err := format.Format(ctx, nil, x)
	if err != nil {
		return errors.Wrap(err, "format")
	}

	b = append(b, '\n')

	b, err = format.Tree(ctx, b, x)
	if err != nil {
		return errors.Wrap(err, "format tree")
	}

	return write(c.Stdout, b)
}

func runAct(c *cli.Command) (err error) {
	ctx, cfg, err := setup(c)
	if err != nil {
		return err
	}

	text, err := expr(c)
	if err != nil {
		return err
	}

	v, err := compiler.Eval(ctx, text)
	if err != nil {
		return report(ctx, c, cfg, err)
	}

	b := strconv.AppendInt(nil, v, 10)
	b = append(b, '\n')

	return write(c.Stdout, b)
}

func write(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	return nil
}

// setup loads the config and makes the logging context.
// Stage spans go to stderr only with --verbose.
func setup(c *cli.Command) (ctx context.Context, cfg *config.Config, err error) {
	ctx = context.Background()

	if v := c.String("verbose"); v != "" {
		l := tlog.New(tlog.NewConsoleWriter(c.Stderr, tlog.LdetFlags))
		l.SetVerbosity(v)

		ctx = tlog.ContextWithSpan(ctx, l.Root())
	}

	cfg, err = config.Load(c.String("config"), c.String("env"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "load config")
	}

	return ctx, cfg, nil
}

func expr(c *cli.Command) (string, error) {
	if len(c.Args) != 1 {
		return "", usage(c)
	}

	return c.Args[0], nil
}

func usage(c *cli.Command) error {
	if c.Name == "compile" {
		return errors.New("usage: exprc compile [flags] {-f <file> | [--] <expression>}")
	}

	return errors.New("usage: exprc %s [flags] [--] <expression>", c.Name)
}

// report prints diagnostics the compiler way.
// Other errors go back to cli.
func report(ctx context.Context, c *cli.Command, cfg *config.Config, err error) error {
	var d *diag.Error
	if !errors.As(err, &d) {
		return err
	}

	tlog.SpanFromContext(ctx).V("diag").Printw("diagnostic", "kind", d.Kind, "pos", d.Pos, "msg", d.Msg, "from", d.From)

	colored := cfg.Color == "always" ||
		cfg.Color == "auto" && terminal(c.Stderr)

	err = write(c.Stderr, diag.Render(nil, d, colored))
	if err != nil {
		return err
	}

	return errReported
}

func terminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}
