package progress

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes formats bytes as a human-readable string using 1024-based
// units up to PB.
func FormatBytes(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	size := float64(b)
	idx := 0
	for size >= 1024 && idx < len(byteUnits)-1 {
		size /= 1024
		idx++
	}
	return fmt.Sprintf("%.2f %s", size, byteUnits[idx])
}

// FormatRate formats a bytes-per-second value.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 || math.IsNaN(bytesPerSec) {
		return "0 B/s"
	}
	if bytesPerSec >= math.MaxInt64 {
		bytesPerSec = math.MaxInt64
	}
	return FormatBytes(int64(bytesPerSec)) + "/s"
}

// FormatDuration formats a duration as a human-readable string.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.3fs", d.Seconds())
	case d < time.Hour:
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// ParseBytes parses a human-readable byte string such as "100 MB", "1.5GB"
// or "1073741824". A bare number is a byte count and may use an exponent
// ("1e9"). The unit is the trailing run of letters; units are 1024-based and
// case-insensitive, and the trailing "B" and an "i" (as in "GiB") are optional.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	split := strings.LastIndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) + 1
	number, unit := strings.TrimSpace(s[:split]), s[split:]

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid byte string: %q", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative byte count: %q", s)
	}

	multiplier, ok := unitMultiplier(unit)
	if !ok {
		return 0, fmt.Errorf("unknown unit %q in %q", unit, s)
	}

	bytes := value * multiplier
	if bytes >= math.MaxInt64 {
		return 0, fmt.Errorf("byte count out of range: %q", s)
	}
	return int64(bytes), nil
}

func unitMultiplier(unit string) (float64, bool) {
	switch strings.ToUpper(unit) {
	case "", "B", "BYTE", "BYTES":
		return 1, true
	case "K", "KB", "KIB":
		return 1 << 10, true
	case "M", "MB", "MIB":
		return 1 << 20, true
	case "G", "GB", "GIB":
		return 1 << 30, true
	case "T", "TB", "TIB":
		return 1 << 40, true
	case "P", "PB", "PIB":
		return 1 << 50, true
	}
	return 0, false
}
