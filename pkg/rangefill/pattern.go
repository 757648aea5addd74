package rangefill

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// FillMode selects the bytes written into each extent.
type FillMode int

const (
	// FillZero writes zero bytes.
	FillZero FillMode = iota
	// FillRandom writes a fast pseudo-random pattern seeded per worker.
	FillRandom
)

// LCG parameters for FillRandom.
const (
	seedMultiplier = 123456789
	lcgMultiplier  = 1103515245
	lcgIncrement   = 12345
	patternStride  = 8
)

func (m FillMode) String() string {
	switch m {
	case FillZero:
		return "zero"
	case FillRandom:
		return "random"
	default:
		return fmt.Sprintf("FillMode(%d)", int(m))
	}
}

// ParseFillMode parses "zero" or "random" (case-insensitive).
func ParseFillMode(s string) (FillMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero", "zeros":
		return FillZero, nil
	case "random", "rand", "pseudorandom":
		return FillRandom, nil
	default:
		return 0, fmt.Errorf("unknown fill mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m FillMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FillMode) UnmarshalText(text []byte) error {
	parsed, err := ParseFillMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Fill overwrites buf with the pattern for the given worker index.
//
// The output depends only on the mode, the worker index and len(buf), and a
// shorter buffer always receives a prefix of a longer one. FillRandom advances
// a 32-bit linear congruential generator once per 8-byte stride and stores the
// state little-endian in the first four bytes of that stride; the rest of the
// stride stays zero.
func (m FillMode) Fill(buf []byte, worker int) {
	clear(buf)
	if m != FillRandom {
		return
	}

	var word [4]byte
	seed := uint32(worker) * seedMultiplier
	for i := 0; i < len(buf); i += patternStride {
		seed = seed*lcgMultiplier + lcgIncrement
		binary.LittleEndian.PutUint32(word[:], seed)
		copy(buf[i:], word[:])
	}
}

// newBuffer allocates a buffer of the given size already holding the
// worker's pattern. Workers fill it once and reuse it for every write.
func newBuffer(mode FillMode, size int, worker int) []byte {
	buf := make([]byte, size)
	if mode != FillZero {
		mode.Fill(buf, worker)
	}
	return buf
}
