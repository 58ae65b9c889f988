package callgraph

// Edge is a merged call relation between two functions.
type Edge struct {
	Caller uint64
	Callee uint64

	// Elevated is true when at least one call site of this edge is elevated.
	Elevated bool

	// Sites lists the call instruction addresses in discovery order.
	Sites []uint64
}

func (e *Edge) clone() Edge {
	dup := *e
	dup.Sites = append([]uint64(nil), e.Sites...)
	return dup
}

// Stats summarizes the size of a graph.
type Stats struct {
	Functions int
	Edges     int
	CallSites int
	Roots     int
}

// Graph maps each caller address to its outgoing call edges.
// A Graph is immutable once returned by Builder.Build.
type Graph struct {
	symbols *SymbolTable
	edges   map[uint64][]*Edge
	called  map[uint64]struct{}
	roots   []Function
	sites   int
}

// Symbols returns the symbol table the graph was built over.
func (g *Graph) Symbols() *SymbolTable {
	return g.symbols
}

// Edges returns the outgoing edges of caller in discovery order.
func (g *Graph) Edges(caller uint64) []Edge {
	src := g.edges[caller]
	if len(src) == 0 {
		return nil
	}
	out := make([]Edge, len(src))
	for i, e := range src {
		out[i] = e.clone()
	}
	return out
}

// Edge returns the merged edge between caller and callee.
func (g *Graph) Edge(caller, callee uint64) (Edge, bool) {
	for _, e := range g.edges[caller] {
		if e.Callee == callee {
			return e.clone(), true
		}
	}
	return Edge{}, false
}

// IsCalled reports whether addr is the callee of any edge.
func (g *Graph) IsCalled(addr uint64) bool {
	_, ok := g.called[addr]
	return ok
}

// Roots returns the functions that never appear as a callee, in symbol table order.
func (g *Graph) Roots() []Function {
	out := make([]Function, len(g.roots))
	copy(out, g.roots)
	return out
}

// IsRoot reports whether the function at addr is a root.
func (g *Graph) IsRoot(addr uint64) bool {
	return g.symbols.Contains(addr) && !g.IsCalled(addr)
}

// Stats returns size information about the graph.
func (g *Graph) Stats() Stats {
	n := 0
	for _, es := range g.edges {
		n += len(es)
	}
	return Stats{
		Functions: g.symbols.Len(),
		Edges:     n,
		CallSites: g.sites,
		Roots:     len(g.roots),
	}
}
