//go:build test

package binfile

import (
	"crypto/sha256"
	"debug/elf"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	binfiletesting "github.com/isseis/go-privsep-analyzer/internal/binfile/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImage() binfiletesting.Image {
	return binfiletesting.Image{
		Sections: []binfiletesting.Section{
			{Name: ".text", Addr: 0x401000, Data: binfiletesting.X86Ret(), Exec: true},
		},
		Symbols: []binfiletesting.Symbol{
			{Name: "main", Section: ".text", Value: 0x401000, Size: 1},
		},
	}
}

func TestOpen_ValidELF(t *testing.T) {
	dir := t.TempDir()
	path := binfiletesting.WriteELF(t, dir, "sample", sampleImage())

	f, err := Open(path)
	require.NoError(t, err)
	defer func() { assert.NoError(t, f.Close()) }()

	assert.Equal(t, path, f.Path)
	assert.Equal(t, elf.EM_X86_64, f.Machine)
	assert.NotNil(t, f.Section(".text"))

	content, err := os.ReadFile(path) //nolint:gosec // test reads its own fixture
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), f.Size())

	sum := sha256.Sum256(content)
	digest, err := f.Digest()
	require.NoError(t, err)
	assert.Equal(t, "sha256:"+hex.EncodeToString(sum[:]), digest)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	notELF := filepath.Join(dir, "script.sh")
	require.NoError(t, os.WriteFile(notELF, []byte("#!/bin/sh\necho hi\n"), 0o600))

	short := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(short, []byte{0x7f, 'E'}, 0o600))

	corrupt := filepath.Join(dir, "corrupt")
	require.NoError(t, os.WriteFile(corrupt, []byte("\x7fELF\x09garbage-after-magic"), 0o600))

	target := binfiletesting.WriteELF(t, dir, "real", sampleImage())
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "not an ELF", path: notELF, wantErr: ErrNotELF},
		{name: "shorter than magic", path: short, wantErr: ErrNotELF},
		{name: "directory", path: dir, wantErr: ErrNotRegularFile},
		{name: "symbolic link", path: link, wantErr: ErrIsSymlink},
		{name: "missing file", path: filepath.Join(dir, "missing"), wantErr: os.ErrNotExist},
		{name: "corrupt header", path: corrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Open(tt.path)
			require.Error(t, err)
			assert.Nil(t, f)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestOpen_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge")
	f, err := os.Create(path) //nolint:gosec // test fixture path
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxFileSize+1))
	require.NoError(t, f.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
