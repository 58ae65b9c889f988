//go:build test

package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/isseis/go-privsep-analyzer/internal/baseline"
	binfiletesting "github.com/isseis/go-privsep-analyzer/internal/binfile/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSample(t *testing.T) string {
	t.Helper()
	return binfiletesting.WriteELF(t, t.TempDir(), "sample", binfiletesting.SampleImage())
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_ReportsViolation(t *testing.T) {
	bin := writeSample(t)

	code, stdout, _ := runCLI(t, bin)

	assert.Equal(t, exitViolations, code)
	assert.Contains(t, stdout, "[ Violation 1 ]")
	assert.Contains(t, stdout, "Caller: helper")
	assert.Contains(t, stdout, "Callee: kop")
	assert.NotContains(t, stdout, "[ Warning")
	assert.Regexp(t, `Violations\s+\|\s+1`, stdout)
}

func TestRun_Warnings(t *testing.T) {
	bin := writeSample(t)

	code, stdout, _ := runCLI(t, "-warnings", bin)

	assert.Equal(t, exitViolations, code)
	assert.Contains(t, stdout, "[ Warning 1 ]")
	assert.Contains(t, stdout, "Caller: kinit")
}

func TestRun_RootFilter(t *testing.T) {
	bin := writeSample(t)

	t.Run("positional root", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, bin, "kinit")
		assert.Equal(t, exitViolations, code, "the root restricts the report, not the exit code")
		assert.Contains(t, stdout, "[No privilege violations detected]")
		assert.Contains(t, stderr, "violations outside the selected root are not reported")
	})

	t.Run("root flag", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "-root", "main", "-warnings", bin)
		assert.Equal(t, exitViolations, code)
		assert.Contains(t, stdout, "[No privilege warnings detected]")
	})
}

func TestRun_Tree(t *testing.T) {
	bin := writeSample(t)

	_, stdout, _ := runCLI(t, "-tree", bin, "main")

	assert.Contains(t, stdout, "main:\n└── main (unprivileged)\n")
	assert.Contains(t, stdout, "├── helper (unprivileged)")
	assert.Contains(t, stdout, "kop (privileged) [Elevated]")
	assert.Contains(t, stdout, "dynpriv::elevate (unprivileged) [Elevated]")
	assert.NotContains(t, stdout, "kinit:")
}

func TestRun_JSON(t *testing.T) {
	bin := writeSample(t)
	out := filepath.Join(t.TempDir(), "report.json")

	code, stdout, _ := runCLI(t, "-json", "-strategy", "exhaustive", "-output", out, bin)
	require.Equal(t, exitViolations, code)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc struct {
		RunID       string `json:"run_id"`
		Strategy    string `json:"strategy"`
		ContentHash string `json:"content_hash"`
		Violations  []struct {
			Caller struct {
				Name    string `json:"name"`
				Address string `json:"address"`
			} `json:"caller"`
		} `json:"violations"`
		Warnings []json.RawMessage `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotEmpty(t, doc.RunID)
	assert.Equal(t, "exhaustive", doc.Strategy)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, doc.ContentHash)
	require.Len(t, doc.Violations, 1)
	assert.Equal(t, "helper", doc.Violations[0].Caller.Name)
	assert.Equal(t, "0x401100", doc.Violations[0].Caller.Address)
	assert.Len(t, doc.Warnings, 1)
}

func TestRun_Baseline(t *testing.T) {
	bin := writeSample(t)
	path := filepath.Join(t.TempDir(), "baseline.json")

	code, _, _ := runCLI(t, bin, "-baseline", path)
	assert.Equal(t, exitViolations, code, "a missing baseline accepts nothing")

	code, _, _ = runCLI(t, "-baseline", path, "-update-baseline", bin)
	require.Equal(t, exitClean, code)

	record, err := baseline.NewStore().Load(path)
	require.NoError(t, err)
	assert.Len(t, record.Violations, 1)
	assert.Len(t, record.Warnings, 1)
	assert.Equal(t, bin, record.Binary)

	code, stdout, _ := runCLI(t, "-baseline", path, bin)
	assert.Equal(t, exitClean, code)
	assert.Contains(t, stdout, "[No privilege violations detected]")
	assert.Regexp(t, `Accepted\s+\|\s+2`, stdout)
}

func TestRun_UpdateBaselineWithRoot(t *testing.T) {
	bin := writeSample(t)
	path := filepath.Join(t.TempDir(), "baseline.json")

	code, _, _ := runCLI(t, "-baseline", path, "-update-baseline", bin, "kinit")
	require.Equal(t, exitClean, code)

	record, err := baseline.NewStore().Load(path)
	require.NoError(t, err)
	assert.Len(t, record.Violations, 1, "findings of other roots are recorded too")
	assert.Len(t, record.Warnings, 1)

	code, stdout, _ := runCLI(t, "-baseline", path, bin)
	assert.Equal(t, exitClean, code)
	assert.Contains(t, stdout, "[No privilege violations detected]")
}

func TestRun_ConfigFile(t *testing.T) {
	bin := writeSample(t)
	cfgPath := filepath.Join(t.TempDir(), "privcheck.toml")
	cfg := `
[sections]
privileged = [".kdata"]

[analysis]
strategy = "exhaustive"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	code, stdout, _ := runCLI(t, "-config", cfgPath, bin)

	assert.Equal(t, exitClean, code, ".ktext is no longer privileged")
	assert.Contains(t, stdout, "exhaustive")
}

func TestRun_LogDir(t *testing.T) {
	bin := writeSample(t)
	dir := t.TempDir()

	_, _, _ = runCLI(t, "-log-dir", dir, "-log-level", "debug", bin)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"analysis complete"`)
}

func TestRun_Errors(t *testing.T) {
	bin := writeSample(t)
	notELF := filepath.Join(t.TempDir(), "script.sh")
	require.NoError(t, os.WriteFile(notELF, []byte("#!/bin/sh\n"), 0o600))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no arguments", args: nil, wantErr: "an ELF file must be provided"},
		{name: "too many arguments", args: []string{bin, "main", "extra"}, wantErr: "too many positional arguments"},
		{name: "unknown strategy", args: []string{"-strategy", "random", bin}, wantErr: "unknown traversal strategy"},
		{name: "bad log level", args: []string{"-log-level", "loud", bin}, wantErr: "loud"},
		{name: "update without baseline", args: []string{"-update-baseline", bin}, wantErr: "-update-baseline requires -baseline"},
		{name: "color conflict", args: []string{"-color", "-no-color", bin}, wantErr: "mutually exclusive"},
		{name: "missing binary", args: []string{filepath.Join(t.TempDir(), "absent")}, wantErr: "Error:"},
		{name: "not an ELF file", args: []string{notELF}, wantErr: "Error:"},
		{name: "missing config", args: []string{"-config", filepath.Join(t.TempDir(), "none.toml"), bin}, wantErr: "failed to read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, exitError, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}
}

func TestRun_Help(t *testing.T) {
	code, _, stderr := runCLI(t, "-h")

	assert.Equal(t, exitClean, code)
	assert.Contains(t, stderr, "[<root_function>]")
}
