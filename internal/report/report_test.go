//go:build test

package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
	"github.com/isseis/go-privsep-analyzer/internal/color"
	"github.com/isseis/go-privsep-analyzer/internal/privilege"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mainAddr   = 0x10
	helperAddr = 0x20
	kopAddr    = 0x30
	kinitAddr  = 0x40
)

func sampleGraph() *callgraph.Graph {
	symbols := callgraph.NewSymbolTable([]callgraph.Function{
		{Name: "main", Address: mainAddr, Size: 16, Section: ".text"},
		{Name: "helper", Address: helperAddr, Size: 16, Section: ".text"},
		{Name: "kop", Address: kopAddr, Size: 16, Section: ".ktext", Privileged: true},
		{Name: "kinit", Address: kinitAddr, Size: 16, Section: ".ktext", Privileged: true},
	})
	b := callgraph.NewBuilder(symbols)
	b.AddCall(mainAddr, helperAddr, 0x11, false)
	b.AddCall(mainAddr, kopAddr, 0x12, true)
	b.AddCall(helperAddr, kopAddr, 0x21, false)
	b.AddCall(kinitAddr, kopAddr, 0x41, false)
	return b.Build()
}

func sampleViolation() privilege.Finding {
	return privilege.Finding{
		Kind:   privilege.KindViolation,
		Caller: privilege.Endpoint{Name: "helper", Address: helperAddr},
		Callee: privilege.Endpoint{Name: "kop", Address: kopAddr},
		Path: privilege.Path{
			{Name: "main", Address: mainAddr},
			{Name: "helper", Address: helperAddr},
			{Name: "kop", Privileged: true, Address: kopAddr},
		},
	}
}

func TestTextWriter_Violations(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, color.NewPalette(false))

	require.NoError(t, w.Violations([]privilege.Finding{sampleViolation()}))

	out := buf.String()
	assert.Contains(t, out, "            [ Violation 1 ]\n")
	assert.Contains(t, out, "  Caller: helper [0x20]\n")
	assert.Contains(t, out, "  Callee: kop    [0x30]\n")
	assert.Contains(t, out, "Call Stack:\n")
	assert.Contains(t, out, "  │   main   (unprivileged) [0x10]\n")
	assert.Contains(t, out, "  │   helper (unprivileged) [0x20]\n")
	assert.Contains(t, out, "  └── kop    (privileged)   [0x30]\n")
}

func TestTextWriter_HighlightsCulprit(t *testing.T) {
	var buf bytes.Buffer
	p := color.NewPalette(false)
	p.Violation = func(s string) string { return "<" + s + ">" }
	w := NewTextWriter(&buf, p)

	require.NoError(t, w.Violations([]privilege.Finding{sampleViolation()}))

	out := buf.String()
	assert.Contains(t, out, "<helper> <(unprivileged)>")
	assert.NotContains(t, out, "<main  >")
}

func TestTextWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, color.NewPalette(false))

	require.NoError(t, w.Violations(nil))
	require.NoError(t, w.Warnings(nil))

	assert.Equal(t, NoViolationsMessage+"\n"+NoWarningsMessage+"\n", buf.String())
}

func TestTextWriter_Warnings(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, color.NewPalette(false))
	warning := privilege.Finding{
		Kind:   privilege.KindWarning,
		Caller: privilege.Endpoint{Name: "kinit", Address: kinitAddr},
		Callee: privilege.Endpoint{Name: "kop", Address: kopAddr},
		Path: privilege.Path{
			{Name: "kinit", Privileged: true, Address: kinitAddr},
			{Name: "kop", Privileged: true, Address: kopAddr},
		},
	}

	require.NoError(t, w.Warnings([]privilege.Finding{warning}))

	out := buf.String()
	assert.Contains(t, out, "[ Warning 1 ]")
	assert.Contains(t, out, "  │   kinit (privileged)   [0x40]\n")
	assert.Contains(t, out, "  └── kop   (privileged)   [0x30]\n")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestTextWriter_KeepsFirstError(t *testing.T) {
	w := NewTextWriter(failingWriter{}, color.NewPalette(false))

	assert.EqualError(t, w.Violations([]privilege.Finding{sampleViolation()}), "disk full")
	assert.EqualError(t, w.Warnings(nil), "disk full")
}

func TestTextWriter_Tree(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, color.NewPalette(false))

	require.NoError(t, w.Tree(sampleGraph(), ""))

	want := "main:\n" +
		"└── main (unprivileged)\n" +
		"    ├── helper (unprivileged)\n" +
		"    │   └── kop (privileged)\n" +
		"    └── kop (privileged) [Elevated]\n" +
		"kinit:\n" +
		"└── kinit (privileged)\n" +
		"    └── kop (privileged)\n"
	assert.Equal(t, want, buf.String())
}

func TestTextWriter_TreeFilter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, color.NewPalette(false))

	require.NoError(t, w.Tree(sampleGraph(), "kin"))

	assert.Equal(t, "kinit:\n└── kinit (privileged)\n    └── kop (privileged)\n", buf.String())
}

func TestTextWriter_TreeCycle(t *testing.T) {
	symbols := callgraph.NewSymbolTable([]callgraph.Function{
		{Name: "start", Address: 0x1, Size: 1},
		{Name: "a", Address: 0x2, Size: 1},
		{Name: "b", Address: 0x3, Size: 1, Privileged: true},
	})
	b := callgraph.NewBuilder(symbols)
	b.AddCall(0x1, 0x2, 0x1, false)
	b.AddCall(0x2, 0x3, 0x2, false)
	b.AddCall(0x3, 0x2, 0x3, false)

	var buf bytes.Buffer
	w := NewTextWriter(&buf, color.NewPalette(false))
	require.NoError(t, w.Tree(b.Build(), ""))

	want := "start:\n" +
		"└── start (unprivileged)\n" +
		"    └── a (unprivileged)\n" +
		"        └── b (privileged)\n" +
		"            └── a (privileged)\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	g := sampleGraph()

	WriteSummary(&buf, Summary{
		Binary:     "/bin/sample",
		Strategy:   privilege.StrategySingleVisit,
		Graph:      g.Stats(),
		Violations: 1,
		Warnings:   1,
		Accepted:   2,
	})

	out := buf.String()
	assert.Contains(t, out, "METRIC")
	assert.Contains(t, out, "/bin/sample")
	assert.Contains(t, out, "single-visit")
	assert.Regexp(t, `Call edges\s+\|\s+4`, out)
	assert.Regexp(t, `Call sites\s+\|\s+4`, out)
	assert.Regexp(t, `Accepted\s+\|\s+2`, out)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	g := sampleGraph()
	doc := NewDocument("01HZX", "sha256:ab", Summary{
		Binary:   "/bin/sample",
		Strategy: privilege.StrategyExhaustive,
		Graph:    g.Stats(),
	}, privilege.Findings{Violations: []privilege.Finding{sampleViolation()}})

	require.NoError(t, WriteJSON(&buf, doc))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "01HZX", decoded["run_id"])
	assert.Equal(t, "exhaustive", decoded["strategy"])
	assert.Equal(t, []any{}, decoded["warnings"])

	violations := decoded["violations"].([]any)
	require.Len(t, violations, 1)
	v := violations[0].(map[string]any)
	assert.Equal(t, map[string]any{"name": "helper", "address": "0x20"}, v["caller"])
	path := v["path"].([]any)
	require.Len(t, path, 3)
	assert.Equal(t, map[string]any{"name": "kop", "address": "0x30", "privileged": true}, path[2])
}
