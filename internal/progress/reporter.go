package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MrTarik2112/FileCreator/pkg/rangefill"
)

const prefix = "[filecreator]"

// Options configures the progress reporter.
type Options struct {
	// Path is the file being created (for display).
	Path string

	// TotalSize is the target size in bytes.
	TotalSize int64

	// Workers is the number of parallel workers.
	Workers int

	// BufferSize is the per-worker buffer size (for display).
	BufferSize int

	// Fill names the data pattern (for display).
	Fill string

	// Turbo reports whether turbo floors were applied (for display).
	Turbo bool

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// UpdateInterval is the minimum job time between two progress lines.
	// Default: 100ms
	UpdateInterval time.Duration

	// BarWidth is the number of cells in the progress bar.
	// Default: 30
	BarWidth int
}

// Reporter renders job snapshots as human-readable progress lines.
type Reporter struct {
	opts Options

	mu       sync.Mutex
	last     time.Duration
	rendered bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 100 * time.Millisecond
	}
	if opts.BarWidth <= 0 {
		opts.BarWidth = 30
	}
	return &Reporter{opts: opts}
}

// Start prints the job header.
func (r *Reporter) Start() {
	mode := "standard"
	if r.opts.Turbo {
		mode = "turbo"
	}
	fmt.Fprintf(r.opts.Output, "%s Creating: %s\n", prefix, r.opts.Path)
	fmt.Fprintf(r.opts.Output, "%s Size: %s | Workers: %d | Buffer: %s | Fill: %s | Mode: %s\n",
		prefix,
		FormatBytes(r.opts.TotalSize),
		r.opts.Workers,
		FormatBytes(int64(r.opts.BufferSize)),
		r.opts.Fill,
		mode,
	)
}

// Update renders s unless the previous line is more recent than the update
// interval. The last snapshot of a job is always rendered.
func (r *Reporter) Update(s rangefill.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	complete := s.BytesDone >= s.Total
	if r.rendered && !complete && s.Elapsed-r.last < r.opts.UpdateInterval {
		return
	}
	r.last = s.Elapsed
	r.rendered = true

	fmt.Fprintf(r.opts.Output, "\r%s    ", Line(s, r.opts.BarWidth))
}

// Line formats one progress line without color or cursor control.
func Line(s rangefill.Snapshot, width int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %6.2f%% | %s / %s",
		prefix,
		Bar(s.Progress(), width),
		s.Percent(),
		FormatBytes(s.BytesDone),
		FormatBytes(s.Total),
	)

	if s.Elapsed > 50*time.Millisecond {
		fmt.Fprintf(&b, " | %s | %s | workers %d/%d",
			FormatRate(s.Speed),
			Indicator(s.Speed, s.AverageSpeed),
			s.ActiveWorkers,
			s.Workers,
		)
		if s.Progress() > 0.005 && s.ETA > 0 {
			fmt.Fprintf(&b, " | ETA %s", FormatDuration(s.ETA))
		}
	}
	return b.String()
}

// Bar draws a progress bar of width cells for a fraction in [0, 1].
func Bar(fraction float64, width int) string {
	fraction = min(max(fraction, 0), 1)
	filled := int(float64(width) * fraction)

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strings.Repeat("=", filled))
	if filled < width {
		b.WriteByte('>')
		b.WriteString(strings.Repeat(" ", width-filled-1))
	}
	b.WriteByte(']')
	return b.String()
}

// Finish ends the progress line and prints the summary.
func (r *Reporter) Finish(sum rangefill.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rendered {
		fmt.Fprintln(r.opts.Output)
	}
	PrintSummary(r.opts.Output, sum)
}

// PrintSummary writes the final report for a job.
func PrintSummary(w io.Writer, sum rangefill.Summary) {
	if !sum.Succeeded {
		fmt.Fprintf(w, "%s Failed: %s | %s / %s written after %s\n",
			prefix,
			sum.Path,
			FormatBytes(sum.BytesWritten),
			FormatBytes(sum.TotalBytes),
			FormatDuration(sum.Elapsed),
		)
		if sum.Err != nil {
			fmt.Fprintf(w, "%s Error: %v\n", prefix, sum.Err)
		}
		return
	}

	fmt.Fprintf(w, "%s Created: %s\n", prefix, sum.Path)
	fmt.Fprintf(w, "%s Size: %s | Elapsed: %s\n",
		prefix,
		FormatBytes(sum.TotalBytes),
		FormatDuration(sum.Elapsed),
	)
	fmt.Fprintf(w, "%s Speed: %s final | %s average | %s peak\n",
		prefix,
		FormatRate(sum.FinalSpeed),
		FormatRate(sum.AverageSpeed),
		FormatRate(sum.PeakSpeed),
	)
	fmt.Fprintf(w, "%s Workers: %d | Buffer: %s | Operations: %d\n",
		prefix,
		sum.Workers,
		FormatBytes(int64(sum.BufferSize)),
		sum.Operations,
	)

	efficiency := fmt.Sprintf("%.1f%%", sum.Efficiency)
	if grade := Grade(sum.Efficiency); grade != "" {
		efficiency += " " + grade
	}
	fmt.Fprintf(w, "%s Efficiency: %s | Performance: %s (%.0f MB/s)\n",
		prefix,
		efficiency,
		Rating(sum.FinalSpeed),
		sum.FinalSpeed/(1<<20),
	)
}
