//go:build !linux

package rangefill

import (
	"errors"
	"os"
)

func fallocate(f *os.File, size int64) error {
	return errFallocateUnsupported
}

func isUnsupported(err error) bool {
	return errors.Is(err, errFallocateUnsupported)
}
