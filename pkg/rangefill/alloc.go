package rangefill

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Allocation selects how the target file is extended to its final size.
type Allocation int

const (
	// AllocAuto reserves blocks with fallocate where the platform and
	// filesystem support it and falls back to truncate otherwise.
	AllocAuto Allocation = iota
	// AllocFallocate requires fallocate and fails if it is unavailable.
	AllocFallocate
	// AllocTruncate only sets the file length, leaving block allocation to
	// the filesystem.
	AllocTruncate
)

// errFallocateUnsupported is returned by fallocate on platforms without it.
var errFallocateUnsupported = errors.New("fallocate not supported")

func (a Allocation) String() string {
	switch a {
	case AllocAuto:
		return "auto"
	case AllocFallocate:
		return "fallocate"
	case AllocTruncate:
		return "truncate"
	default:
		return fmt.Sprintf("Allocation(%d)", int(a))
	}
}

// ParseAllocation parses "auto", "fallocate" or "truncate".
func ParseAllocation(s string) (Allocation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return AllocAuto, nil
	case "fallocate":
		return AllocFallocate, nil
	case "truncate":
		return AllocTruncate, nil
	default:
		return 0, fmt.Errorf("unknown allocation mode %q", s)
	}
}

// preallocate creates or truncates path and extends it to exactly size bytes.
// The returned file is open for reading and writing at any offset.
func preallocate(path string, size int64, mode Allocation) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	switch mode {
	case AllocTruncate:
		err = f.Truncate(size)
	case AllocFallocate:
		err = fallocate(f, size)
	default:
		err = fallocate(f, size)
		if isUnsupported(err) {
			err = f.Truncate(size)
		}
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("extend %s to %d bytes (%s): %w", path, size, mode, err)
	}

	return f, nil
}
