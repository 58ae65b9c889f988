package disasm

import (
	"context"
	"debug/elf"
	"fmt"
	"log/slog"

	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
	"github.com/isseis/go-privsep-analyzer/internal/privilege"
)

// Options configures a Disassembler.
type Options struct {
	// ElevateSymbol starts an elevated region. Empty selects privilege.DefaultElevateSymbol.
	ElevateSymbol string

	// LowerSymbol ends an elevated region. Empty selects privilege.DefaultLowerSymbol.
	LowerSymbol string
}

// Disassembler turns functions into annotated instruction streams.
type Disassembler struct {
	decoder Decoder
	code    *CodeReader
	symbols *callgraph.SymbolTable
	elevate string
	lower   string
}

// New creates a Disassembler for f. Call targets are named from symbols.
func New(f *elf.File, symbols *callgraph.SymbolTable, opts Options) (*Disassembler, error) {
	decoder, err := NewDecoder(f.Machine)
	if err != nil {
		return nil, err
	}
	return NewWithDecoder(decoder, NewCodeReader(f), symbols, opts), nil
}

// NewWithDecoder creates a Disassembler from explicit collaborators.
func NewWithDecoder(decoder Decoder, code *CodeReader, symbols *callgraph.SymbolTable, opts Options) *Disassembler {
	elevate := opts.ElevateSymbol
	if elevate == "" {
		elevate = privilege.DefaultElevateSymbol
	}
	lower := opts.LowerSymbol
	if lower == "" {
		lower = privilege.DefaultLowerSymbol
	}
	return &Disassembler{
		decoder: decoder,
		code:    code,
		symbols: symbols,
		elevate: callgraph.SimplifyName(elevate),
		lower:   callgraph.SimplifyName(lower),
	}
}

// Function decodes fn. A function whose bytes are not in the file yields an
// empty stream and is treated as a leaf.
func (d *Disassembler) Function(fn callgraph.Function) []callgraph.Instruction {
	code, err := d.code.Read(fn.Address, fn.Size)
	if err != nil {
		slog.Debug("function has no code, treating as leaf",
			slog.String("function", fn.ShortName()),
			slog.String("address", fmt.Sprintf("0x%x", fn.Address)),
			slog.Any("error", err))
		return nil
	}
	return d.Decode(code, fn.Address)
}

// Decode decodes code located at base and tracks elevated regions.
func (d *Disassembler) Decode(code []byte, base uint64) []callgraph.Instruction {
	var (
		out      []callgraph.Instruction
		elevated bool
		skipped  int
	)
	for off := 0; off < len(code); {
		addr := base + uint64(off) //nolint:gosec // off is a non-negative slice index
		inst, err := d.decoder.Decode(code[off:], addr)
		if err != nil || inst.Len <= 0 {
			skipped++
			off += d.decoder.SkipSize()
			continue
		}
		off += inst.Len

		operand := inst.Operand
		if inst.HasTarget {
			operand = fmt.Sprintf("0x%x", inst.Target)
			if target, ok := d.symbols.Lookup(inst.Target); ok {
				name := target.ShortName()
				operand += " <" + name + ">"
				switch name {
				case d.elevate:
					elevated = true
				case d.lower:
					elevated = false
				}
			}
		}

		out = append(out, callgraph.Instruction{
			Address:  addr,
			Mnemonic: inst.Mnemonic,
			Operand:  operand,
			Elevated: elevated,
		})
	}
	if skipped > 0 {
		slog.Debug("skipped undecodable bytes",
			slog.String("address", fmt.Sprintf("0x%x", base)),
			slog.Int("count", skipped))
	}
	return out
}

// All decodes every function of the symbol table, keyed by address.
func (d *Disassembler) All(ctx context.Context) (map[uint64][]callgraph.Instruction, error) {
	streams := make(map[uint64][]callgraph.Instruction, d.symbols.Len())
	for _, fn := range d.symbols.Functions() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		streams[fn.Address] = d.Function(fn)
	}
	return streams, nil
}
