package disasm

import (
	"debug/elf"
	"errors"
	"fmt"
)

// ErrCodeUnavailable indicates no segment or section of the file holds bytes
// for the requested address range.
var ErrCodeUnavailable = errors.New("no file-backed code at address")

// UnsupportedArchitectureError indicates the ELF machine has no decoder.
type UnsupportedArchitectureError struct {
	Machine elf.Machine
}

func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("unsupported ELF architecture: %s", e.Machine)
}
