package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/exprc/config"
)

func exec(t *testing.T, args ...string) (status int, stdout, stderr string) {
	t.Helper()

	for _, k := range []string{config.EnvTarget, config.EnvEntry, config.EnvComments} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	t.Setenv(config.EnvColor, "never")

	var out, errb bytes.Buffer

	status = run(append([]string{"exprc"}, args...), nil, &out, &errb)

	return status, out.String(), errb.String()
}

func TestDiagnostic(t *testing.T) {
	for _, tc := range []struct {
		cmd  string
		in   string
		want string
	}{
		{"compile", "@", "@\n^\nunexpected character\n"},
		{"compile", "1 + @", "1 + @\n    ^\nunexpected character\n"},
		{"run", "(1+2", "(1+2\n    ^\nexpected ')'\n"},
		{"ast", "1 1", "1 1\n  ^\nunexpected token\n"},
		{"tokens", "2 # 3", "2 # 3\n  ^\nunexpected character\n"},
	} {
		status, stdout, stderr := exec(t, tc.cmd, tc.in)

		assert.Equal(t, 1, status, "%v %q", tc.cmd, tc.in)
		assert.Empty(t, stdout, "%v %q", tc.cmd, tc.in)
		assert.Equal(t, tc.want, stderr, "%v %q", tc.cmd, tc.in)
	}
}

func TestVerboseSpans(t *testing.T) {
	status, _, stderr := exec(t, "compile", "-v", "scan", "1 + @")
	assert.Equal(t, 1, status)

	assert.Contains(t, stderr, "scan: tokenize")
	assert.Contains(t, stderr, "1 + @\n    ^\nunexpected character\n")
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{
		{"run"},
		{"run", "1", "2"},
		{"tokens"},
		{"compile"},
	} {
		status, stdout, stderr := exec(t, args...)

		assert.NotEqual(t, 0, status, "%q", args)
		assert.Empty(t, stdout, "%q", args)
		assert.Contains(t, stderr, "usage: exprc "+args[0], "%q", args)
	}
}

func TestCompileEntry(t *testing.T) {
	status, stdout, stderr := exec(t, "compile", "--entry", "1 bad", "7")
	assert.Equal(t, 1, status)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "bad entry symbol")

	status, stdout, stderr = exec(t, "compile", "--entry", "_start", "7")
	assert.Equal(t, 0, status, stderr)
	assert.Equal(t, ".intel_syntax noprefix\n.globl _start\n_start:\n    push 7\n    pop rax\n    ret\n", stdout)
	assert.Empty(t, stderr)
}

func TestCompileTargetFlag(t *testing.T) {
	status, _, stderr := exec(t, "compile", "--target", "mips", "7")
	assert.Equal(t, 1, status)
	assert.Contains(t, stderr, "unsupported target")

	status, stdout, stderr := exec(t, "compile", "--target", "arm64", "7")
	assert.Equal(t, 0, status, stderr)
	assert.Contains(t, stdout, ".global main\n")
}

func TestCompileConfigAndFlags(t *testing.T) {
	dir := t.TempDir()

	name := filepath.Join(dir, "exprc.yaml")
	require.NoError(t, os.WriteFile(name, []byte("target: arm64\nentry: from_config\n"), 0o644))

	status, stdout, stderr := exec(t, "compile", "--config", name, "7")
	assert.Equal(t, 0, status, stderr)
	assert.Contains(t, stdout, ".global from_config\n")

	status, stdout, stderr = exec(t, "compile", "--config", name, "--target", "amd64", "7")
	assert.Equal(t, 0, status, stderr)
	assert.Contains(t, stdout, ".globl from_config\n")
}

func TestCompileFileFlag(t *testing.T) {
	dir := t.TempDir()

	name := filepath.Join(dir, "expr.txt")
	require.NoError(t, os.WriteFile(name, []byte("6/2\n"), 0o644))

	status, stdout, stderr := exec(t, "compile", "-f", name)
	assert.Equal(t, 0, status, stderr)
	assert.Contains(t, stdout, "    cqo\n    idiv rdi\n")

	out := filepath.Join(dir, "expr.s")

	status, stdout, stderr = exec(t, "compile", "-f", name, "-o", out)
	assert.Equal(t, 0, status, stderr)
	assert.Empty(t, stdout)

	obj, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(obj), "    idiv rdi\n")

	status, _, stderr = exec(t, "compile", "-f", name, "1")
	assert.NotEqual(t, 0, status)
	assert.Contains(t, stderr, "usage: exprc compile")

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("1 +\n"), 0o644))

	status, stdout, stderr = exec(t, "compile", "-f", bad)
	assert.Equal(t, 1, status)
	assert.Empty(t, stdout)
	assert.Equal(t, "1 +\n   ^\nexpected a number\n", stderr)
}

func TestRun(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"1+2*3", "7\n"},
		{"-10+20", "10\n"},
		{"2>1", "1\n"},
		{"(3+5)/2", "4\n"},
	} {
		status, stdout, stderr := exec(t, "run", "--", tc.in)

		assert.Equal(t, 0, status, "%q: %s", tc.in, stderr)
		assert.Equal(t, tc.want, stdout, "%q", tc.in)
		assert.Empty(t, stderr, "%q", tc.in)
	}
}

func TestTokensAndAST(t *testing.T) {
	status, stdout, stderr := exec(t, "tokens", "12<=3")
	assert.Equal(t, 0, status, stderr)
	assert.Equal(t, "num     0  \"12\"  = 12\npunct   2  \"<=\"\nnum     4  \"3\"  = 3\neof     5  \"\"\n", stdout)

	status, stdout, stderr = exec(t, "ast", "1+2*3")
	assert.Equal(t, 0, status, stderr)
	assert.Contains(t, stdout, "(1 + (2 * 3))\n")
}
