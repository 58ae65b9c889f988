package callgraph

import (
	"fmt"
	"strings"
)

// Function is an analyzable function from the binary's symbol table.
type Function struct {
	// Name is the display name (demangled when possible).
	Name string

	// Address is the function's start address and its identity in the graph.
	Address uint64

	// Size is the function size in bytes.
	Size uint64

	// Section is the normalized name of the section containing the function (e.g. ".ktext").
	Section string

	// Privileged is true when the containing section is classified as privileged.
	Privileged bool
}

// ShortName returns the function name without its parameter list.
// "dynpriv::elevate()" becomes "dynpriv::elevate".
func (f Function) ShortName() string {
	return SimplifyName(f.Name)
}

// String implements fmt.Stringer.
func (f Function) String() string {
	return fmt.Sprintf("%s [0x%x]", f.ShortName(), f.Address)
}

// SimplifyName strips everything from the first '(' so that demangled C++
// signatures compare equal to their unqualified function name.
func SimplifyName(name string) string {
	if i := strings.IndexByte(name, '('); i >= 0 {
		return name[:i]
	}
	return name
}

// Instruction is a single decoded instruction as produced by the disassembler.
type Instruction struct {
	// Address is the virtual address of the instruction.
	Address uint64

	// Mnemonic is the lower-case instruction mnemonic (e.g. "call", "bl").
	Mnemonic string

	// Operand is the rendered operand text. Direct calls render their target
	// as "0x<hex>" optionally followed by " <name>".
	Operand string

	// Elevated reports whether the instruction lies inside a dynamically
	// elevated region of its function.
	Elevated bool
}

// SymbolTable is the immutable set of functions under analysis, keyed by address.
type SymbolTable struct {
	functions []Function
	byAddr    map[uint64]int
}

// NewSymbolTable creates a SymbolTable from the given functions.
// Input order is preserved and determines traversal order. When several
// functions share an address, the first one wins.
func NewSymbolTable(functions []Function) *SymbolTable {
	t := &SymbolTable{
		functions: make([]Function, 0, len(functions)),
		byAddr:    make(map[uint64]int, len(functions)),
	}
	for _, fn := range functions {
		if _, exists := t.byAddr[fn.Address]; exists {
			continue
		}
		t.byAddr[fn.Address] = len(t.functions)
		t.functions = append(t.functions, fn)
	}
	return t
}

// Lookup returns the function starting at addr.
func (t *SymbolTable) Lookup(addr uint64) (Function, bool) {
	i, ok := t.byAddr[addr]
	if !ok {
		return Function{}, false
	}
	return t.functions[i], true
}

// Contains reports whether a function starts at addr.
func (t *SymbolTable) Contains(addr uint64) bool {
	_, ok := t.byAddr[addr]
	return ok
}

// Functions returns a copy of all functions in table order.
func (t *SymbolTable) Functions() []Function {
	out := make([]Function, len(t.functions))
	copy(out, t.functions)
	return out
}

// Len returns the number of functions.
func (t *SymbolTable) Len() int {
	return len(t.functions)
}
