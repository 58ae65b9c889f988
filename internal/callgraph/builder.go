package callgraph

import (
	"log/slog"
	"strconv"
	"strings"
)

// hexPrefixLen is the length of the "0x" prefix on literal call targets.
const hexPrefixLen = 2

// callMnemonics is the set of mnemonics denoting a direct call.
// "call" covers x86-64 (both capstone and x86asm spellings), "bl" covers arm64.
var callMnemonics = map[string]struct{}{
	"call":  {},
	"callq": {},
	"bl":    {},
}

// Builder accumulates call edges and produces an immutable Graph.
// A Builder is not safe for concurrent use.
type Builder struct {
	symbols *SymbolTable
	edges   map[uint64][]*Edge
	called  map[uint64]struct{}
	sites   int
}

// NewBuilder creates a Builder over the given symbol table.
func NewBuilder(symbols *SymbolTable) *Builder {
	return &Builder{
		symbols: symbols,
		edges:   make(map[uint64][]*Edge),
		called:  make(map[uint64]struct{}),
	}
}

// AddFunction scans the instruction stream of the function starting at caller
// and records an edge for every direct call with a literal target.
// Instructions whose operand cannot be parsed as an address are skipped.
func (b *Builder) AddFunction(caller uint64, instructions []Instruction) {
	for _, inst := range instructions {
		if !IsCallMnemonic(inst.Mnemonic) {
			continue
		}
		target, ok := ParseCallTarget(inst.Operand)
		if !ok {
			slog.Debug("skipping unresolvable call",
				slog.String("caller", hexAddr(caller)),
				slog.String("site", hexAddr(inst.Address)),
				slog.String("operand", inst.Operand))
			continue
		}
		b.AddCall(caller, target, inst.Address, inst.Elevated)
	}
}

// AddCall records a single call site from caller to callee.
// Call sites between the same pair are merged; the merged edge is elevated
// if any of its sites is elevated.
func (b *Builder) AddCall(caller, callee, site uint64, elevated bool) {
	b.sites++
	b.called[callee] = struct{}{}
	for _, e := range b.edges[caller] {
		if e.Callee == callee {
			e.Elevated = e.Elevated || elevated
			e.Sites = append(e.Sites, site)
			return
		}
	}
	b.edges[caller] = append(b.edges[caller], &Edge{
		Caller:   caller,
		Callee:   callee,
		Elevated: elevated,
		Sites:    []uint64{site},
	})
}

// Build finalizes the graph. Root functions are computed here, after every
// edge is known, since a late edge can disqualify a root.
func (b *Builder) Build() *Graph {
	g := &Graph{
		symbols: b.symbols,
		edges:   make(map[uint64][]*Edge, len(b.edges)),
		called:  make(map[uint64]struct{}, len(b.called)),
		sites:   b.sites,
	}
	for caller, es := range b.edges {
		cp := make([]*Edge, len(es))
		for i, e := range es {
			dup := e.clone()
			cp[i] = &dup
		}
		g.edges[caller] = cp
	}
	for addr := range b.called {
		g.called[addr] = struct{}{}
	}
	for _, fn := range b.symbols.Functions() {
		if _, ok := g.called[fn.Address]; !ok {
			g.roots = append(g.roots, fn)
		}
	}
	return g
}

// BuildGraph builds a graph from per-function instruction streams keyed by
// function address. Functions are scanned in symbol table order; a function
// without a stream is a leaf.
func BuildGraph(symbols *SymbolTable, streams map[uint64][]Instruction) *Graph {
	b := NewBuilder(symbols)
	for _, fn := range symbols.Functions() {
		b.AddFunction(fn.Address, streams[fn.Address])
	}
	return b.Build()
}

// IsCallMnemonic reports whether mnemonic denotes a direct call.
func IsCallMnemonic(mnemonic string) bool {
	_, ok := callMnemonics[strings.ToLower(mnemonic)]
	return ok
}

// ParseCallTarget extracts the literal target address from operand text of the
// form "0x401000" or "0x401000 <name>". It returns false for register and
// memory operands.
func ParseCallTarget(operand string) (uint64, bool) {
	fields := strings.Fields(operand)
	if len(fields) == 0 {
		return 0, false
	}
	tok := fields[0]
	if len(tok) <= hexPrefixLen || (!strings.HasPrefix(tok, "0x") && !strings.HasPrefix(tok, "0X")) {
		return 0, false
	}
	addr, err := strconv.ParseUint(tok[hexPrefixLen:], 16, 64)
	if err != nil {
		return 0, false
	}
	return addr, true
}

func hexAddr(addr uint64) string {
	return "0x" + strconv.FormatUint(addr, 16)
}
