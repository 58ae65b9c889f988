package disasm

import (
	"debug/elf"
	"fmt"
	"io"
)

// CodeReader reads function bytes by virtual address.
//
// Loadable segments are consulted first, then allocated sections with a file
// image (relocatable objects have no segments). Reads are clipped to the bytes
// present in the file; zero-fill beyond Filesz is never returned.
type CodeReader struct {
	progs    []*elf.Prog
	sections []*elf.Section
}

// NewCodeReader creates a CodeReader over f.
func NewCodeReader(f *elf.File) *CodeReader {
	r := &CodeReader{}
	for _, p := range f.Progs {
		if p.Type == elf.PT_LOAD && p.Filesz > 0 {
			r.progs = append(r.progs, p)
		}
	}
	for _, s := range f.Sections {
		if s.Flags&elf.SHF_ALLOC != 0 && s.Type != elf.SHT_NOBITS && s.Size > 0 {
			r.sections = append(r.sections, s)
		}
	}
	return r
}

// Read returns up to size bytes starting at addr. The result is shorter than
// size when the containing segment ends first.
func (r *CodeReader) Read(addr, size uint64) ([]byte, error) {
	for _, p := range r.progs {
		if addr < p.Vaddr || addr-p.Vaddr >= p.Filesz {
			continue
		}
		return readClipped(p, addr-p.Vaddr, p.Filesz, size)
	}
	for _, s := range r.sections {
		if addr < s.Addr || addr-s.Addr >= s.Size {
			continue
		}
		return readClipped(s, addr-s.Addr, s.Size, size)
	}
	return nil, fmt.Errorf("%w: 0x%x", ErrCodeUnavailable, addr)
}

func readClipped(ra io.ReaderAt, off, limit, size uint64) ([]byte, error) {
	n := min(size, limit-off)
	buf := make([]byte, n)
	read, err := ra.ReadAt(buf, int64(off)) //nolint:gosec // off < limit, which comes from a parsed header
	if err != nil && (err != io.EOF || uint64(read) != n) { //nolint:errorlint // io.EOF is returned unwrapped by ReadAt
		return nil, fmt.Errorf("failed to read code at offset 0x%x: %w", off, err)
	}
	return buf, nil
}
