//go:build !linux

package binfile

import (
	"fmt"
	"os"
)

// openNoFollow rejects a symbolic link in the final component, then opens
// the file and checks that it is still the file that was inspected.
func openNoFollow(path string) (*os.File, error) {
	before, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if before.Mode()&os.ModeSymlink != 0 {
		return nil, ErrIsSymlink
	}

	f, err := os.Open(path) //nolint:gosec // path is checked above and re-verified below
	if err != nil {
		return nil, err
	}
	after, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !os.SameFile(before, after) {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s changed during open", ErrIsSymlink, path)
	}
	return f, nil
}
