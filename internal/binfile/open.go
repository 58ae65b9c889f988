package binfile

import (
	"bytes"
	"crypto/sha256"
	"debug/elf"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// elfMagic is the ELF magic number.
var elfMagic = []byte("\x7fELF")

// MaxFileSize is the maximum file size accepted for analysis (1 GiB).
const MaxFileSize = 1 << 30

// File is an opened ELF binary.
type File struct {
	*elf.File

	// Path is the path the file was opened from.
	Path string

	osFile *os.File
	size   int64
}

// Open opens the ELF binary at path.
//
// The final path component must not be a symbolic link. Devices, FIFOs and
// directories are rejected with ErrNotRegularFile, files over MaxFileSize with
// ErrFileTooLarge, and files without the ELF magic with ErrNotELF.
func Open(path string) (*File, error) {
	f, err := openNoFollow(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	bf, err := newFile(path, f)
	if err != nil {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("error closing file after failed open", slog.String("path", path), slog.Any("error", closeErr))
		}
		return nil, err
	}
	return bf, nil
}

func newFile(path string, f *os.File) (*File, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotRegularFile, path, info.Mode())
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	magic := make([]byte, len(elfMagic))
	if _, err := f.ReadAt(magic, 0); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrNotELF, path)
		}
		return nil, fmt.Errorf("failed to read magic number: %w", err)
	}
	if !bytes.Equal(magic, elfMagic) {
		return nil, fmt.Errorf("%w: %s", ErrNotELF, path)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF %s: %w", path, err)
	}

	return &File{
		File:   ef,
		Path:   path,
		osFile: f,
		size:   info.Size(),
	}, nil
}

// Size returns the file size in bytes.
func (f *File) Size() int64 {
	return f.size
}

// Digest returns the SHA-256 of the file content in "sha256:<hex>" form.
func (f *File) Digest() (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(f.osFile, 0, f.size)); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", f.Path, err)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// Close closes the ELF view and the underlying file.
func (f *File) Close() error {
	return errors.Join(f.File.Close(), f.osFile.Close())
}
