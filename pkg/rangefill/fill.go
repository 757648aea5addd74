package rangefill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the default monitor cadence.
const DefaultInterval = 30 * time.Millisecond

// snapshotBuffer is the capacity of the snapshot channel.
const snapshotBuffer = 16

// Config describes one fill job. It is not modified once the job starts.
type Config struct {
	Path       string   `json:"path"`
	Size       int64    `json:"size"`
	Workers    int      `json:"workers"`
	BufferSize int      `json:"buffer_size"`
	Fill       FillMode `json:"fill"`
}

// Validate checks the configuration without touching the filesystem.
func (c Config) Validate() error {
	if c.Path == "" {
		return invalidf("path is required")
	}
	if c.Size < 1 {
		return invalidf("size must be positive, got %d", c.Size)
	}
	if c.Workers < 1 {
		return invalidf("workers must be at least 1, got %d", c.Workers)
	}
	if c.BufferSize < 1 {
		return invalidf("buffer size must be at least 1, got %d", c.BufferSize)
	}
	if c.Fill != FillZero && c.Fill != FillRandom {
		return invalidf("unknown fill mode %v", c.Fill)
	}
	return nil
}

// Options tunes how a job runs.
type Options struct {
	// Interval is the monitor cadence.
	// Default: 30ms
	Interval time.Duration

	// RateLimit caps the combined write rate in bytes per second.
	// Zero means unlimited.
	RateLimit int64

	// Allocation selects how the file is extended before writing.
	Allocation Allocation

	// Sync flushes the file to stable storage before the job succeeds.
	Sync bool

	// Logger receives job and worker events.
	// Default: slog.Default()
	Logger *slog.Logger

	// wrap replaces the file handle given to workers. Used by tests to
	// inject write failures.
	wrap func(*os.File) io.WriterAt
}

// Phase is a step of the job state machine.
type Phase int32

const (
	PhaseConfiguring Phase = iota
	PhasePreallocating
	PhaseWriting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseConfiguring:
		return "configuring"
	case PhasePreallocating:
		return "preallocating"
	case PhaseWriting:
		return "writing"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// Summary is the final outcome of a job.
type Summary struct {
	Succeeded    bool
	Path         string
	TotalBytes   int64
	BytesWritten int64
	Elapsed      time.Duration
	AverageSpeed float64 // rolling average at the last sample
	FinalSpeed   float64 // BytesWritten / Elapsed
	PeakSpeed    float64
	Efficiency   float64 // AverageSpeed / PeakSpeed in percent
	Operations   int64
	Workers      int
	BufferSize   int
	Err          error
}

// Job is one fill job. It starts in PhaseConfiguring and runs once.
type Job struct {
	cfg       Config
	opts      Options
	log       *slog.Logger
	extents   []Extent
	state     *State
	telemetry *Telemetry
	phase     atomic.Int32
	started   atomic.Bool

	snapshots chan Snapshot
	done      chan struct{}
	summary   Summary
	err       error
}

// ErrStarted is returned when Start is called on a job that already ran.
var ErrStarted = errors.New("rangefill: job already started")

// NewJob returns a job in PhaseConfiguring. Nothing is validated or touched
// on disk until Start.
func NewJob(cfg Config, opts Options) *Job {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Job{
		cfg:       cfg,
		opts:      opts,
		log:       log.With("path", cfg.Path),
		state:     &State{},
		snapshots: make(chan Snapshot, snapshotBuffer),
		done:      make(chan struct{}),
	}
}

// Start validates cfg, preallocates the target file and launches one
// worker per extent. Invalid configuration and allocation failures are
// returned here; later failures are reported by Wait.
func Start(ctx context.Context, cfg Config, opts Options) (*Job, error) {
	j := NewJob(cfg, opts)
	if err := j.Start(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

// Start validates the configuration, preallocates the target file and
// launches the workers. If it returns an error the job has ended in
// PhaseFailed and Wait returns the same error.
func (j *Job) Start(ctx context.Context) error {
	if !j.started.CompareAndSwap(false, true) {
		return ErrStarted
	}

	if err := j.cfg.Validate(); err != nil {
		return j.abort(err)
	}
	extents, err := Partition(j.cfg.Size, j.cfg.Workers)
	if err != nil {
		return j.abort(err)
	}
	j.extents = extents

	j.phase.Store(int32(PhasePreallocating))
	f, err := preallocate(j.cfg.Path, j.cfg.Size, j.opts.Allocation)
	if err != nil {
		j.log.Error("preallocation failed", "error", err)
		return j.abort(&Error{Kind: ErrAllocation, Err: err})
	}
	j.log.Debug("file preallocated", "size", j.cfg.Size, "allocation", j.opts.Allocation.String())

	j.phase.Store(int32(PhaseWriting))
	go j.run(ctx, f)

	return nil
}

// abort ends a job that never reached PhaseWriting.
func (j *Job) abort(err error) error {
	j.summary = Summary{
		Path:       j.cfg.Path,
		TotalBytes: j.cfg.Size,
		Workers:    j.cfg.Workers,
		BufferSize: j.cfg.BufferSize,
		Err:        err,
	}
	j.err = err
	j.phase.Store(int32(PhaseFailed))
	close(j.snapshots)
	close(j.done)
	return err
}

// Run starts a job, passes every snapshot to fn (which may be nil) and
// returns the final summary. The returned error equals Summary.Err.
func Run(ctx context.Context, cfg Config, opts Options, fn func(Snapshot)) (Summary, error) {
	job := NewJob(cfg, opts)
	if err := job.Start(ctx); err != nil {
		return job.Wait()
	}
	for snap := range job.Snapshots() {
		if fn != nil {
			fn(snap)
		}
	}
	return job.Wait()
}

// Snapshots returns the progress stream. One snapshot is produced per
// monitor tick and a final one after all workers have exited; the channel is
// closed when the job ends. A consumer that falls behind misses intermediate
// snapshots but always receives the final one.
func (j *Job) Snapshots() <-chan Snapshot {
	return j.snapshots
}

// Wait blocks until the job has ended and every worker has exited. It must
// not be called before Start.
func (j *Job) Wait() (Summary, error) {
	<-j.done
	return j.summary, j.err
}

// Done is closed when the job has ended.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Phase returns the current step of the job.
func (j *Job) Phase() Phase {
	return Phase(j.phase.Load())
}

// Extents returns the byte ranges assigned to the workers.
func (j *Job) Extents() []Extent {
	return append([]Extent(nil), j.extents...)
}

// State returns the shared progress counters.
func (j *Job) State() *State {
	return j.state
}

func (j *Job) run(ctx context.Context, f *os.File) {
	defer close(j.done)
	defer close(j.snapshots)

	var dst io.WriterAt = f
	if j.opts.wrap != nil {
		dst = j.opts.wrap(f)
	}

	var limiter *rate.Limiter
	if j.opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(j.opts.RateLimit), j.cfg.BufferSize)
	}

	// Allocate every buffer before the first worker starts.
	writers := make([]*rangeWriter, len(j.extents))
	for i, ext := range j.extents {
		size := int(min(int64(j.cfg.BufferSize), ext.Len()))
		writers[i] = &rangeWriter{
			index:   i,
			extent:  ext,
			dst:     dst,
			buf:     newBuffer(j.cfg.Fill, size, i),
			state:   j.state,
			limiter: limiter,
			log:     j.log.With("worker", i),
		}
	}

	j.telemetry = NewTelemetry(j.state, j.cfg.Size, j.cfg.Workers, time.Now())
	j.log.Info("writing", "size", j.cfg.Size, "workers", j.cfg.Workers,
		"buffer", j.cfg.BufferSize, "fill", j.cfg.Fill.String())

	var wg sync.WaitGroup
	for _, w := range writers {
		j.state.workerStarted()
		wg.Add(1)
		go func(w *rangeWriter) {
			defer wg.Done()
			w.run(ctx)
		}(w)
	}

	j.monitor(ctx)
	wg.Wait()

	final := j.telemetry.Sample(time.Now())
	j.emitFinal(final)
	j.finish(ctx, f, final)
}

// monitor samples the state once per tick until the file is complete, a
// worker has failed, or ctx is done.
func (j *Job) monitor(ctx context.Context) {
	ticker := time.NewTicker(j.opts.Interval)
	defer ticker.Stop()

	for j.state.BytesWritten() < j.cfg.Size && !j.state.Failed() {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			j.emit(j.telemetry.Sample(now))
		}
	}
}

// emit delivers s unless the consumer is behind.
func (j *Job) emit(s Snapshot) {
	select {
	case j.snapshots <- s:
	default:
	}
}

// emitFinal delivers s, evicting the oldest pending snapshot if needed.
// The job goroutine is the only sender, so a freed slot stays free.
func (j *Job) emitFinal(s Snapshot) {
	for {
		select {
		case j.snapshots <- s:
			return
		default:
		}
		select {
		case <-j.snapshots:
		default:
		}
	}
}

func (j *Job) finish(ctx context.Context, f *os.File, final Snapshot) {
	written := j.state.BytesWritten()

	var err error
	switch {
	case j.state.Failed():
		err = &Error{Kind: ErrWrite, BytesWritten: written, Err: j.state.Err()}
	case written < j.cfg.Size && ctx.Err() != nil:
		err = &Error{Kind: ErrCanceled, BytesWritten: written, Err: ctx.Err()}
	case written < j.cfg.Size:
		err = &Error{Kind: ErrWrite, BytesWritten: written,
			Err: fmt.Errorf("wrote %d of %d bytes", written, j.cfg.Size)}
	case j.opts.Sync:
		if syncErr := f.Sync(); syncErr != nil {
			err = &Error{Kind: ErrWrite, BytesWritten: written, Err: fmt.Errorf("sync: %w", syncErr)}
		}
	}

	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = &Error{Kind: ErrWrite, BytesWritten: written, Err: fmt.Errorf("close: %w", closeErr)}
	}

	var finalSpeed float64
	if final.Elapsed > 0 {
		finalSpeed = float64(written) / final.Elapsed.Seconds()
	}
	peak := j.telemetry.Peak()
	average := j.telemetry.Average()

	j.summary = Summary{
		Succeeded:    err == nil,
		Path:         j.cfg.Path,
		TotalBytes:   j.cfg.Size,
		BytesWritten: written,
		Elapsed:      final.Elapsed,
		AverageSpeed: average,
		FinalSpeed:   finalSpeed,
		PeakSpeed:    peak,
		Efficiency:   Efficiency(average, peak),
		Operations:   j.state.Operations(),
		Workers:      j.cfg.Workers,
		BufferSize:   j.cfg.BufferSize,
		Err:          err,
	}
	j.err = err

	if err != nil {
		j.phase.Store(int32(PhaseFailed))
		level := slog.LevelError
		if errors.Is(err, ErrCanceled) {
			level = slog.LevelWarn
		}
		j.log.Log(context.Background(), level, "job failed", "bytes_written", written, "error", err)
		return
	}
	j.phase.Store(int32(PhaseSucceeded))
	j.log.Info("job completed", "bytes", written, "elapsed", final.Elapsed,
		"operations", j.summary.Operations)
}
