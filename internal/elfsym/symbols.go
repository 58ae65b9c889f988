package elfsym

import (
	"debug/elf"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ianlancetaylor/demangle"
	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
)

// Symbol is a sized symbol from .symtab.
type Symbol struct {
	// Name is the demangled name, or the raw name when it is not mangled.
	Name string

	// RawName is the name as stored in the string table.
	RawName string

	Address uint64
	Size    uint64

	// Section is the normalized name of the containing section.
	Section string

	Privileged bool
	Executable bool
}

// Table is the result of Extract.
type Table struct {
	// Symbols holds every sized symbol in symbol table order.
	Symbols []Symbol

	// Functions holds the symbols of executable sections, one per address.
	Functions []callgraph.Function
}

// Demangle returns the demangled form of name, or name itself when it is
// not a mangled C++ symbol.
func Demangle(name string) string {
	return demangle.Filter(name)
}

// Extract reads the symbol table of f and classifies every symbol.
// Symbols of size zero and symbols in special or unknown sections are skipped.
func Extract(f *elf.File, c *SectionClassifier) (*Table, error) {
	if c == nil {
		c = NewDefaultSectionClassifier()
	}

	syms, err := f.Symbols()
	if err != nil {
		if errors.Is(err, elf.ErrNoSymbols) {
			return nil, ErrNoSymbolTable
		}
		return nil, fmt.Errorf("failed to read symbol table: %w", err)
	}

	t := &Table{}
	seen := make(map[uint64]string)
	for _, s := range syms {
		if s.Size == 0 {
			continue
		}
		if s.Section == elf.SHN_UNDEF || s.Section >= elf.SHN_LORESERVE || int(s.Section) >= len(f.Sections) {
			continue
		}

		cls := c.Classify(f.Sections[s.Section].Name)
		sym := Symbol{
			Name:       Demangle(s.Name),
			RawName:    s.Name,
			Address:    s.Value,
			Size:       s.Size,
			Section:    cls.Name,
			Privileged: cls.Privileged,
			Executable: cls.Executable,
		}
		t.Symbols = append(t.Symbols, sym)

		if !sym.Executable {
			continue
		}
		if first, dup := seen[sym.Address]; dup {
			slog.Debug("ignoring symbol alias",
				slog.String("symbol", sym.Name),
				slog.String("kept", first),
				slog.String("address", fmt.Sprintf("0x%x", sym.Address)))
			continue
		}
		seen[sym.Address] = sym.Name
		t.Functions = append(t.Functions, callgraph.Function{
			Name:       sym.Name,
			Address:    sym.Address,
			Size:       sym.Size,
			Section:    sym.Section,
			Privileged: sym.Privileged,
		})
	}

	slog.Debug("symbols extracted",
		slog.Int("symbols", len(t.Symbols)),
		slog.Int("functions", len(t.Functions)))
	return t, nil
}
