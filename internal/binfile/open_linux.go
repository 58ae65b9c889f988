//go:build linux

package binfile

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// openNoFollow opens path read-only with openat2(RESOLVE_NO_SYMLINKS), which
// rejects symbolic links in any component atomically. Kernels without openat2
// fall back to O_NOFOLLOW, which only covers the final component.
func openNoFollow(path string) (*os.File, error) {
	how := unix.OpenHow{
		Flags:   uint64(unix.O_RDONLY | unix.O_CLOEXEC),
		Resolve: unix.RESOLVE_NO_SYMLINKS,
	}
	fd, err := unix.Openat2(unix.AT_FDCWD, path, &how)
	if errors.Is(err, unix.ENOSYS) {
		fd, err = unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC|unix.O_NOFOLLOW, 0)
	}
	if err != nil {
		switch {
		case errors.Is(err, unix.ELOOP):
			return nil, ErrIsSymlink
		case errors.Is(err, unix.ENOENT):
			return nil, os.ErrNotExist
		case errors.Is(err, unix.EACCES):
			return nil, os.ErrPermission
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), path), nil
}
