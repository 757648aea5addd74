package progress

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{256 * 1024 * 1024, "256.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1024 * 1024 * 1024 * 1024, "1.00 TB"},
		{2.5 * 1024 * 1024 * 1024 * 1024, "2.50 TB"},
		{3 << 50, "3.00 PB"},
		{4096 << 50, "4096.00 PB"},
	}

	for _, tt := range tests {
		result := FormatBytes(tt.input)
		if result != tt.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "0 B/s"},
		{-5, "0 B/s"},
		{512, "512 B/s"},
		{1.5 * 1024 * 1024, "1.50 MB/s"},
	}

	for _, tt := range tests {
		result := FormatRate(tt.input)
		if result != tt.expected {
			t.Errorf("FormatRate(%v) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{500 * time.Microsecond, "500µs"},
		{42 * time.Millisecond, "42ms"},
		{1500 * time.Millisecond, "1.500s"},
		{59 * time.Second, "59.000s"},
		{90 * time.Second, "1m 30s"},
		{59*time.Minute + 59*time.Second, "59m 59s"},
		{2*time.Hour + 5*time.Minute + 30*time.Second, "2h 5m"},
	}

	for _, tt := range tests {
		result := FormatDuration(tt.input)
		if result != tt.expected {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"100", 100},
		{"1073741824", 1073741824},
		{"100B", 100},
		{"100 bytes", 100},
		{"1KB", 1024},
		{"1.5KB", 1536},
		{"1.5 kb", 1536},
		{"100 MB", 100 * 1024 * 1024},
		{"256MiB", 256 * 1024 * 1024},
		{"1.5GB", 1536 * 1024 * 1024},
		{"10 G", 10 * 1024 * 1024 * 1024},
		{"1TB", 1024 * 1024 * 1024 * 1024},
		{"2 PB", 2 << 50},
		{"  64 KiB  ", 64 * 1024},
		{"1e9", 1000000000},
		{"2E3", 2000},
		{"1e3 KB", 1000 * 1024},
		{"1.5e1MB", 15 * 1024 * 1024},
	}

	for _, tt := range tests {
		result, err := ParseBytes(tt.input)
		if err != nil {
			t.Errorf("ParseBytes(%q): %v", tt.input, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, result, tt.expected)
		}
	}
}

func TestParseBytesInvalid(t *testing.T) {
	for _, input := range []string{"", "invalid", "MB", "-5 MB", "10 XB", "1.2.3", "99999999 PB", "1e", "1 e9", "12XB"} {
		if _, err := ParseBytes(input); err == nil {
			t.Errorf("ParseBytes(%q): expected error", input)
		}
	}
}
