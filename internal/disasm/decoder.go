package disasm

import (
	"debug/elf"
	"fmt"
	"math"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"
)

const (
	// x86_64BitMode is the bit width for 64-bit mode decoding.
	x86_64BitMode = 64

	// arm64InstructionSize is the fixed arm64 instruction width in bytes.
	arm64InstructionSize = 4
)

// DecodedInstruction is one decoded machine instruction.
type DecodedInstruction struct {
	// Address is the virtual address of the first byte of the instruction.
	Address uint64

	// Len is the instruction length in bytes.
	Len int

	// Mnemonic is the lower-case mnemonic (e.g. "call", "bl", "mov").
	Mnemonic string

	// Operand is the rendered argument list.
	Operand string

	// IsCall is true for direct and indirect call instructions.
	IsCall bool

	// Target is the absolute call target. Valid only when HasTarget is true.
	Target    uint64
	HasTarget bool
}

// Decoder decodes single instructions for one architecture.
type Decoder interface {
	// Decode decodes the instruction at the start of code, located at addr.
	Decode(code []byte, addr uint64) (DecodedInstruction, error)

	// SkipSize is the number of bytes to advance past undecodable input.
	SkipSize() int
}

// NewDecoder returns the decoder for machine.
func NewDecoder(machine elf.Machine) (Decoder, error) {
	switch machine {
	case elf.EM_X86_64:
		return NewX86Decoder(), nil
	case elf.EM_AARCH64:
		return NewARM64Decoder(), nil
	default:
		return nil, &UnsupportedArchitectureError{Machine: machine}
	}
}

// X86Decoder implements Decoder for x86-64.
type X86Decoder struct{}

// NewX86Decoder creates a new X86Decoder.
func NewX86Decoder() *X86Decoder {
	return &X86Decoder{}
}

// Decode decodes a single x86-64 instruction.
func (d *X86Decoder) Decode(code []byte, addr uint64) (DecodedInstruction, error) {
	inst, err := x86asm.Decode(code, x86_64BitMode)
	if err != nil {
		return DecodedInstruction{}, err
	}

	args := make([]string, 0, len(inst.Args))
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		args = append(args, a.String())
	}

	decoded := DecodedInstruction{
		Address:  addr,
		Len:      inst.Len,
		Mnemonic: strings.ToLower(inst.Op.String()),
		Operand:  strings.Join(args, ", "),
		IsCall:   inst.Op == x86asm.CALL,
	}

	if decoded.IsCall {
		if rel, ok := inst.Args[0].(x86asm.Rel); ok {
			decoded.Target, decoded.HasTarget = relativeTarget(addr, inst.Len, int64(rel))
		}
	}
	return decoded, nil
}

// SkipSize implements Decoder.
func (d *X86Decoder) SkipSize() int {
	return 1
}

// relativeTarget computes addr+length+rel, the target of a relative call.
// It reports false when the computation leaves the address space.
func relativeTarget(addr uint64, length int, rel int64) (uint64, bool) {
	if length < 0 || addr > math.MaxUint64-uint64(length) {
		return 0, false
	}
	nextPC := addr + uint64(length)
	if nextPC > uint64(math.MaxInt64) {
		return 0, false
	}
	target := int64(nextPC) + rel
	if target < 0 {
		return 0, false
	}
	return uint64(target), true
}

// ARM64Decoder implements Decoder for arm64.
type ARM64Decoder struct{}

// NewARM64Decoder creates a new ARM64Decoder.
func NewARM64Decoder() *ARM64Decoder {
	return &ARM64Decoder{}
}

// Decode decodes a single arm64 instruction.
func (d *ARM64Decoder) Decode(code []byte, addr uint64) (DecodedInstruction, error) {
	if len(code) < arm64InstructionSize {
		return DecodedInstruction{}, fmt.Errorf("truncated instruction: %d bytes", len(code))
	}
	inst, err := arm64asm.Decode(code[:arm64InstructionSize])
	if err != nil {
		return DecodedInstruction{}, err
	}

	args := make([]string, 0, len(inst.Args))
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		args = append(args, a.String())
	}

	decoded := DecodedInstruction{
		Address:  addr,
		Len:      arm64InstructionSize,
		Mnemonic: strings.ToLower(inst.Op.String()),
		Operand:  strings.Join(args, ", "),
		IsCall:   inst.Op == arm64asm.BL || inst.Op == arm64asm.BLR,
	}

	if inst.Op == arm64asm.BL {
		if rel, ok := inst.Args[0].(arm64asm.PCRel); ok {
			decoded.Target, decoded.HasTarget = relativeTarget(addr, 0, int64(rel))
		}
	}
	return decoded, nil
}

// SkipSize implements Decoder.
func (d *ARM64Decoder) SkipSize() int {
	return arm64InstructionSize
}
