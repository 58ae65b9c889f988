package privilege

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
)

// Strategy selects how the engine walks the call graph.
type Strategy string

const (
	// StrategySingleVisit walks breadth-first from every root and expands each
	// function once, under the privilege state of the first path that reaches it.
	// It can under-report findings only reachable through a second, differently
	// privileged path to an already visited function.
	StrategySingleVisit Strategy = "single-visit"

	// StrategyExhaustive enumerates every cycle-free path depth-first.
	// It is exact but combinatorial on graphs with high fan-in.
	StrategyExhaustive Strategy = "exhaustive"
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognized names.
var ErrUnknownStrategy = errors.New("unknown traversal strategy")

// ParseStrategy converts a strategy name into a Strategy.
// The empty string selects StrategySingleVisit.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategySingleVisit:
		return StrategySingleVisit, nil
	case StrategyExhaustive:
		return StrategyExhaustive, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Options configures an Engine.
type Options struct {
	Strategy Strategy

	// Detector classifies edges. Nil selects NewDefaultDetector.
	Detector *Detector

	// SkipOrphans disables the extra traversal seeded from every function that
	// no root traversal reached (e.g. mutually recursive functions without a root).
	SkipOrphans bool
}

// Stats describes one analysis run.
type Stats struct {
	Roots          int
	OrphanSeeds    int
	Visited        int
	EdgesEvaluated int
}

// Result is the output of Engine.Analyze.
type Result struct {
	Strategy Strategy
	Findings Findings
	Stats    Stats
}

// Engine propagates privilege state over a call graph and collects findings.
// An Engine holds no per-run state and may be reused.
type Engine struct {
	strategy    Strategy
	detector    *Detector
	skipOrphans bool
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategySingleVisit
	}
	detector := opts.Detector
	if detector == nil {
		detector = NewDefaultDetector()
	}
	return &Engine{
		strategy:    strategy,
		detector:    detector,
		skipOrphans: opts.SkipOrphans,
	}
}

// Analyze walks g from every root, then from every function left unvisited,
// and returns the de-duplicated findings. Roots are processed in symbol table
// order, so the result is deterministic for a given graph.
func (e *Engine) Analyze(g *callgraph.Graph) *Result {
	r := &run{
		graph:    g,
		symbols:  g.Symbols(),
		detector: e.detector,
		store:    newFindingStore(),
		visited:  make(map[uint64]struct{}),
	}

	walk := r.singleVisit
	if e.strategy == StrategyExhaustive {
		walk = r.exhaustive
	}

	for _, root := range g.Roots() {
		r.stats.Roots++
		walk(root)
	}

	if !e.skipOrphans {
		for _, fn := range r.symbols.Functions() {
			if _, seen := r.visited[fn.Address]; seen {
				continue
			}
			slog.Debug("seeding traversal from unreached function",
				slog.String("function", fn.ShortName()),
				slog.String("address", fmt.Sprintf("0x%x", fn.Address)))
			r.stats.OrphanSeeds++
			walk(fn)
		}
	}

	r.stats.Visited = len(r.visited)
	return &Result{
		Strategy: e.strategy,
		Findings: r.store.findings,
		Stats:    r.stats,
	}
}

// run is the state of one Analyze call.
type run struct {
	graph    *callgraph.Graph
	symbols  *callgraph.SymbolTable
	detector *Detector
	store    *findingStore
	visited  map[uint64]struct{}
	stats    Stats
}

type queueItem struct {
	fn        callgraph.Function
	path      Path
	inherited bool
}

// singleVisit is a breadth-first walk sharing the run-wide visited set.
// Each function is expanded at most once; its outgoing edges are evaluated
// with the privilege state of the first path that dequeued it.
func (r *run) singleVisit(seed callgraph.Function) {
	queue := []queueItem{{fn: seed}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if _, seen := r.visited[item.fn.Address]; seen {
			continue
		}
		r.visited[item.fn.Address] = struct{}{}

		privileged := item.inherited || item.fn.Privileged
		path := append(slices.Clip(item.path), Frame{
			Name:       item.fn.Name,
			Privileged: privileged,
			Address:    item.fn.Address,
		})

		for _, edge := range r.graph.Edges(item.fn.Address) {
			callee, ok := r.symbols.Lookup(edge.Callee)
			if !ok || path.Contains(callee.Address) {
				continue
			}
			r.evaluate(item.fn, privileged, callee, edge.Elevated, path)
			if _, seen := r.visited[callee.Address]; !seen {
				queue = append(queue, queueItem{fn: callee, path: path, inherited: privileged})
			}
		}
	}
}

type stackFrame struct {
	fn         callgraph.Function
	privileged bool
	edges      []callgraph.Edge
	next       int
}

// exhaustive enumerates every cycle-free path from seed with an explicit
// stack. Only functions on the current path block re-entry.
func (r *run) exhaustive(seed callgraph.Function) {
	var (
		stack  []stackFrame
		path   Path
		onPath = make(map[uint64]struct{})
	)
	push := func(fn callgraph.Function, inherited bool) {
		privileged := inherited || fn.Privileged
		r.visited[fn.Address] = struct{}{}
		onPath[fn.Address] = struct{}{}
		path = append(path, Frame{Name: fn.Name, Privileged: privileged, Address: fn.Address})
		stack = append(stack, stackFrame{
			fn:         fn,
			privileged: privileged,
			edges:      r.graph.Edges(fn.Address),
		})
	}

	push(seed, false)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.edges) {
			delete(onPath, top.fn.Address)
			path = path[:len(path)-1]
			stack = stack[:len(stack)-1]
			continue
		}
		edge := top.edges[top.next]
		top.next++

		callee, ok := r.symbols.Lookup(edge.Callee)
		if !ok {
			continue
		}
		if _, cyclic := onPath[callee.Address]; cyclic {
			continue
		}
		r.evaluate(top.fn, top.privileged, callee, edge.Elevated, path)
		push(callee, top.privileged)
	}
}

// evaluate runs the detector on one edge and records any finding together
// with a private copy of the path extended by the callee.
func (r *run) evaluate(caller callgraph.Function, callerPrivileged bool, callee callgraph.Function, elevated bool, path Path) {
	r.stats.EdgesEvaluated++
	kind, found := r.detector.Classify(caller, callerPrivileged, callee, elevated)
	if !found {
		return
	}
	exhibit := make(Path, len(path), len(path)+1)
	copy(exhibit, path)
	exhibit = append(exhibit, Frame{
		Name:       callee.Name,
		Privileged: callerPrivileged || callee.Privileged,
		Address:    callee.Address,
	})
	r.store.record(Finding{
		Kind:   kind,
		Caller: Endpoint{Name: caller.Name, Address: caller.Address},
		Callee: Endpoint{Name: callee.Name, Address: callee.Address},
		Path:   exhibit,
	})
}
