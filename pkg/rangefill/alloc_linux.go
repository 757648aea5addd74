//go:build linux

package rangefill

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// fallocate reserves size bytes for f starting at offset 0 and extends its
// length to size.
func fallocate(f *os.File, size int64) error {
	for {
		err := unix.Fallocate(int(f.Fd()), 0, 0, size)
		if err != unix.EINTR {
			return err
		}
	}
}

func isUnsupported(err error) bool {
	return errors.Is(err, errFallocateUnsupported) ||
		errors.Is(err, unix.EOPNOTSUPP) ||
		errors.Is(err, unix.ENOSYS)
}
