// Package binfile opens binaries for analysis. Files are opened without
// following symbolic links, must be regular files below a size limit, and
// must carry the ELF magic number before they are handed to debug/elf.
package binfile

import "errors"

// Static errors
var (
	// ErrNotRegularFile indicates the path is not a regular file.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrFileTooLarge indicates the file exceeds the maximum size for analysis.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNotELF indicates the file does not start with the ELF magic number.
	ErrNotELF = errors.New("file is not an ELF binary")

	// ErrIsSymlink indicates the path refers to a symbolic link.
	ErrIsSymlink = errors.New("refusing to follow symbolic link")
)
