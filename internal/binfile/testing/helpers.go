//go:build test

// Package binfiletesting synthesizes small ELF64 images for tests.
package binfiletesting

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Section is a section of the synthesized image. Sections with a non-zero
// Addr are covered by their own PT_LOAD segment. Executable sections and
// sections with an address are allocated.
type Section struct {
	Name string
	Addr uint64
	Data []byte
	Exec bool
}

// Symbol is a symbol table entry. When Section is empty, Index is used as the
// raw section index (e.g. elf.SHN_ABS).
type Symbol struct {
	Name    string
	Section string
	Index   elf.SectionIndex
	Value   uint64
	Size    uint64
}

// Image describes an ELF64 little-endian executable.
type Image struct {
	Machine  elf.Machine
	Sections []Section
	Symbols  []Symbol

	// NoSymtab omits .symtab and .strtab.
	NoSymtab bool
}

const (
	ehdrSize = 64
	phdrSize = 56
	shdrSize = 64
	symSize  = 24
)

type strtab struct {
	buf bytes.Buffer
}

func newStrtab() *strtab {
	s := &strtab{}
	s.buf.WriteByte(0)
	return s
}

func (s *strtab) add(name string) uint32 {
	if name == "" {
		return 0
	}
	off := uint32(s.buf.Len()) //nolint:gosec // test images are tiny
	s.buf.WriteString(name)
	s.buf.WriteByte(0)
	return off
}

func pad(buf *bytes.Buffer, align int) {
	for buf.Len()%align != 0 {
		buf.WriteByte(0)
	}
}

// Bytes assembles the image.
func (img Image) Bytes() []byte {
	machine := img.Machine
	if machine == elf.EM_NONE {
		machine = elf.EM_X86_64
	}

	sectionIndex := make(map[string]uint16, len(img.Sections))
	for i, s := range img.Sections {
		if _, dup := sectionIndex[s.Name]; !dup {
			sectionIndex[s.Name] = uint16(i + 1) //nolint:gosec // test images are tiny
		}
	}

	var loadable []int
	for i, s := range img.Sections {
		if s.Addr != 0 {
			loadable = append(loadable, i)
		}
	}

	var body bytes.Buffer
	body.Write(make([]byte, ehdrSize+phdrSize*len(loadable)))

	offsets := make([]uint64, len(img.Sections))
	for i, s := range img.Sections {
		pad(&body, 16)
		offsets[i] = uint64(body.Len()) //nolint:gosec // test images are tiny
		body.Write(s.Data)
	}

	shstr := newStrtab()
	var headers []elf.Section64
	headers = append(headers, elf.Section64{})
	for i, s := range img.Sections {
		flags := uint64(0)
		if s.Addr != 0 || s.Exec {
			flags |= uint64(elf.SHF_ALLOC)
		}
		if s.Exec {
			flags |= uint64(elf.SHF_EXECINSTR)
		}
		headers = append(headers, elf.Section64{
			Name:      shstr.add(s.Name),
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     flags,
			Addr:      s.Addr,
			Off:       offsets[i],
			Size:      uint64(len(s.Data)),
			Addralign: 16,
		})
	}

	if !img.NoSymtab {
		str := newStrtab()
		var syms bytes.Buffer
		mustWrite(&syms, elf.Sym64{})
		for _, sym := range img.Symbols {
			shndx := uint16(sym.Index)
			if sym.Section != "" {
				shndx = sectionIndex[sym.Section]
			}
			mustWrite(&syms, elf.Sym64{
				Name:  str.add(sym.Name),
				Info:  elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC),
				Shndx: shndx,
				Value: sym.Value,
				Size:  sym.Size,
			})
		}

		pad(&body, 8)
		symOff := uint64(body.Len()) //nolint:gosec // test images are tiny
		body.Write(syms.Bytes())
		strOff := uint64(body.Len()) //nolint:gosec // test images are tiny
		body.Write(str.buf.Bytes())

		strIndex := uint32(len(headers) + 1) //nolint:gosec // test images are tiny
		headers = append(headers,
			elf.Section64{
				Name:      shstr.add(".symtab"),
				Type:      uint32(elf.SHT_SYMTAB),
				Off:       symOff,
				Size:      uint64(syms.Len()),
				Link:      strIndex,
				Info:      1,
				Addralign: 8,
				Entsize:   symSize,
			},
			elf.Section64{
				Name:      shstr.add(".strtab"),
				Type:      uint32(elf.SHT_STRTAB),
				Off:       strOff,
				Size:      uint64(str.buf.Len()),
				Addralign: 1,
			},
		)
	}

	shstrIndex := uint16(len(headers)) //nolint:gosec // test images are tiny
	shstrName := shstr.add(".shstrtab")
	shstrOff := uint64(body.Len()) //nolint:gosec // test images are tiny
	body.Write(shstr.buf.Bytes())
	headers = append(headers, elf.Section64{
		Name:      shstrName,
		Type:      uint32(elf.SHT_STRTAB),
		Off:       shstrOff,
		Size:      uint64(shstr.buf.Len()),
		Addralign: 1,
	})

	pad(&body, 8)
	shoff := uint64(body.Len()) //nolint:gosec // test images are tiny
	for _, h := range headers {
		mustWrite(&body, h)
	}

	var head bytes.Buffer
	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	mustWrite(&head, elf.Header64{
		Ident:     ident,
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Phoff:     ehdrSize,
		Shoff:     shoff,
		Ehsize:    ehdrSize,
		Phentsize: phdrSize,
		Phnum:     uint16(len(loadable)), //nolint:gosec // test images are tiny
		Shentsize: shdrSize,
		Shnum:     uint16(len(headers)), //nolint:gosec // test images are tiny
		Shstrndx:  shstrIndex,
	})
	for _, i := range loadable {
		s := img.Sections[i]
		flags := uint32(elf.PF_R)
		if s.Exec {
			flags |= uint32(elf.PF_X)
		}
		mustWrite(&head, elf.Prog64{
			Type:   uint32(elf.PT_LOAD),
			Flags:  flags,
			Off:    offsets[i],
			Vaddr:  s.Addr,
			Paddr:  s.Addr,
			Filesz: uint64(len(s.Data)),
			Memsz:  uint64(len(s.Data)),
			Align:  16,
		})
	}

	out := body.Bytes()
	copy(out, head.Bytes())
	return out
}

func mustWrite(buf *bytes.Buffer, v any) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}

// WriteELF writes img into dir under name and returns the path.
func WriteELF(t *testing.T, dir, name string, img Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.WriteFile(path, img.Bytes(), 0o644) //nolint:gosec // test helper: 0644 is intentional for test files
	require.NoError(t, err)
	return path
}

// X86Call encodes "call rel32" at pc targeting target.
func X86Call(pc, target uint64) []byte {
	rel := int32(int64(target) - int64(pc+5)) //nolint:gosec // test addresses are small
	b := []byte{0xe8, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(b[1:], uint32(rel)) //nolint:gosec // two's complement intended
	return b
}

// X86Ret encodes "ret".
func X86Ret() []byte {
	return []byte{0xc3}
}

// X86Nop encodes a one-byte "nop".
func X86Nop() []byte {
	return []byte{0x90}
}

// ARM64BL encodes "bl target" at pc.
func ARM64BL(pc, target uint64) []byte {
	imm := uint32((int64(target)-int64(pc))/4) & 0x03ffffff //nolint:gosec // test addresses are small
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, 0x94000000|imm)
	return b
}

// ARM64Ret encodes "ret".
func ARM64Ret() []byte {
	return []byte{0xc0, 0x03, 0x5f, 0xd6}
}

// Concat joins instruction encodings.
func Concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}
