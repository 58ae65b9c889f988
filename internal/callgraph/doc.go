// Package callgraph builds a directed call graph from decoded instruction streams.
//
// The graph is keyed by function start address. Every direct call whose target
// operand is a literal address becomes an edge from the calling function to the
// target. Calls between the same pair of functions are merged into a single edge
// that is considered elevated when any of its call sites is elevated.
//
// # Usage
//
//	symbols := callgraph.NewSymbolTable(functions)
//	builder := callgraph.NewBuilder(symbols)
//	for _, fn := range symbols.Functions() {
//	    builder.AddFunction(fn.Address, streams[fn.Address])
//	}
//	graph := builder.Build()
//
//	for _, root := range graph.Roots() {
//	    fmt.Println(root.Name)
//	}
//
// # Limitations
//
// - Indirect calls (register or memory operands) cannot be resolved and are skipped
// - Root functions include functions that are only reached through indirect calls
package callgraph
