package audit

import (
	"context"
	"debug/elf"
	"fmt"
	"log/slog"
	"time"

	"github.com/isseis/go-privsep-analyzer/internal/binfile"
	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
	"github.com/isseis/go-privsep-analyzer/internal/config"
	"github.com/isseis/go-privsep-analyzer/internal/disasm"
	"github.com/isseis/go-privsep-analyzer/internal/elfsym"
	"github.com/isseis/go-privsep-analyzer/internal/privilege"
)

// Options configures an Auditor.
type Options struct {
	// Sections classifies sections. Nil selects the default section sets.
	Sections *elfsym.SectionClassifier

	Disasm disasm.Options
	Engine privilege.Options
}

// OptionsFromConfig derives Options from a validated configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	strategy, err := privilege.ParseStrategy(cfg.Analysis.Strategy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Sections: elfsym.NewSectionClassifier(cfg.Sections.Privileged, cfg.Sections.Executable),
		Disasm: disasm.Options{
			ElevateSymbol: cfg.Elevation.Elevate,
			LowerSymbol:   cfg.Elevation.Lower,
		},
		Engine: privilege.Options{
			Strategy: strategy,
			Detector: privilege.NewDetector(privilege.DetectorOptions{
				ExemptNames: []string{
					callgraph.SimplifyName(cfg.Elevation.Elevate),
					callgraph.SimplifyName(cfg.Elevation.Lower),
				},
				ExemptPrefixes: cfg.Elevation.ExemptPrefixes,
			}),
			SkipOrphans: !cfg.Analysis.OrphansEnabled(),
		},
	}, nil
}

// Report is the outcome of one audit.
type Report struct {
	Binary      string
	ContentHash string
	Machine     elf.Machine

	// Sections holds the classification of every named section.
	Sections map[string]elfsym.Section

	// Symbols is the number of sized symbols in .symtab.
	Symbols int

	Graph  *callgraph.Graph
	Result *privilege.Result

	Elapsed time.Duration
}

// Auditor audits binaries. It holds no per-audit state.
type Auditor struct {
	opts Options
}

// New creates an Auditor.
func New(opts Options) *Auditor {
	if opts.Sections == nil {
		opts.Sections = elfsym.NewDefaultSectionClassifier()
	}
	return &Auditor{opts: opts}
}

// Audit analyzes the binary at path.
func (a *Auditor) Audit(ctx context.Context, path string) (*Report, error) {
	start := time.Now()

	f, err := binfile.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("error closing binary", slog.String("path", path), slog.Any("error", closeErr))
		}
	}()

	digest, err := f.Digest()
	if err != nil {
		return nil, err
	}

	table, err := elfsym.Extract(f.File, a.opts.Sections)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	symbols := callgraph.NewSymbolTable(table.Functions)

	d, err := disasm.New(f.File, symbols, a.opts.Disasm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	streams, err := d.All(ctx)
	if err != nil {
		return nil, err
	}

	graph, result := Analyze(symbols, streams, a.opts.Engine)

	report := &Report{
		Binary:      path,
		ContentHash: digest,
		Machine:     f.Machine,
		Sections:    a.opts.Sections.Gather(f.File),
		Symbols:     len(table.Symbols),
		Graph:       graph,
		Result:      result,
		Elapsed:     time.Since(start),
	}

	stats := graph.Stats()
	slog.Info("analysis complete",
		slog.String("binary", path),
		slog.String("machine", f.Machine.String()),
		slog.String("strategy", string(result.Strategy)),
		slog.Int("functions", stats.Functions),
		slog.Int("edges", stats.Edges),
		slog.Int("roots", stats.Roots),
		slog.Int("violations", len(result.Findings.Violations)),
		slog.Int("warnings", len(result.Findings.Warnings)),
		slog.Duration("elapsed", report.Elapsed))
	return report, nil
}

// Analyze builds the call graph from per-function instruction streams and
// runs the privilege engine over it.
func Analyze(symbols *callgraph.SymbolTable, streams map[uint64][]callgraph.Instruction, opts privilege.Options) (*callgraph.Graph, *privilege.Result) {
	graph := callgraph.BuildGraph(symbols, streams)
	return graph, privilege.NewEngine(opts).Analyze(graph)
}
