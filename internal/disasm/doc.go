// Package disasm decodes function bodies into the instruction streams consumed
// by the call-graph builder.
//
// Supported architectures are x86-64 (golang.org/x/arch/x86/x86asm) and arm64
// (golang.org/x/arch/arm64/arm64asm). Decoding is linear from the function's
// start address over its symbol size. Bytes that cannot be decoded are skipped
// (one byte on x86-64, one instruction word on arm64) and decoding resumes.
//
// # Elevation tracking
//
// While scanning a function, a call whose target is the elevate primitive
// starts an elevated region and a call to the lower primitive ends it. The
// elevate call itself is inside the region, the lower call is not.
//
//	call dynpriv::elevate   ; elevated
//	call kernel_op          ; elevated
//	call dynpriv::lower     ; not elevated
//
// # Limitations
//
// - Only direct calls with an encoded displacement have a target
// - Regions are tracked in instruction order, not along control flow
package disasm
