package elfsym

import "errors"

// ErrNoSymbolTable indicates the binary has no .symtab section (e.g. it was stripped).
var ErrNoSymbolTable = errors.New("no symbol table found")
