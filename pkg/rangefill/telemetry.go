package rangefill

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultWindow is the number of recent samples averaged for the rolling
// speed.
const DefaultWindow = 50

// Sample is one throughput measurement taken by the monitor.
type Sample struct {
	At    time.Duration // time since the job started writing
	Speed float64       // bytes per second
}

// Snapshot is a point-in-time view of a running job.
type Snapshot struct {
	BytesDone     int64
	Total         int64
	Elapsed       time.Duration
	Speed         float64 // bytes/s since start
	AverageSpeed  float64 // mean of the recent window of samples
	PeakSpeed     float64
	ActiveWorkers int
	Workers       int
	Operations    int64
	ETA           time.Duration // zero until a speed is known
}

// Progress returns the completed fraction in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.BytesDone) / float64(s.Total)
}

// Percent returns the completed percentage.
func (s Snapshot) Percent() float64 {
	return s.Progress() * 100
}

// Telemetry derives throughput figures from a State.
//
// Sample is meant to be called from a single monitor goroutine; workers never
// call it. The peak is tracked lock-free, the history under one mutex that is
// held only to append and to read the recent window.
type Telemetry struct {
	state   *State
	total   int64
	workers int
	start   time.Time
	window  int

	peak atomic.Uint64 // math.Float64bits of the peak speed

	mu      sync.Mutex
	history []Sample
	average float64
}

// NewTelemetry returns an aggregator for a job of total bytes whose clock
// starts at start.
func NewTelemetry(state *State, total int64, workers int, start time.Time) *Telemetry {
	return &Telemetry{
		state:   state,
		total:   total,
		workers: workers,
		start:   start,
		window:  DefaultWindow,
	}
}

// Sample reads the shared state at now and returns the resulting snapshot.
func (t *Telemetry) Sample(now time.Time) Snapshot {
	done := t.state.BytesWritten()
	elapsed := now.Sub(t.start)

	var speed float64
	if elapsed > 0 {
		speed = float64(done) / elapsed.Seconds()
	}
	peak := t.raisePeak(speed)

	t.mu.Lock()
	t.history = append(t.history, Sample{At: elapsed, Speed: speed})
	recent := t.history[max(0, len(t.history)-t.window):]
	var sum float64
	for _, s := range recent {
		sum += s.Speed
	}
	t.average = sum / float64(len(recent))
	average := t.average
	t.mu.Unlock()

	var eta time.Duration
	if speed > 0 && done < t.total {
		eta = remaining(t.total-done, speed)
	}

	return Snapshot{
		BytesDone:     done,
		Total:         t.total,
		Elapsed:       elapsed,
		Speed:         speed,
		AverageSpeed:  average,
		PeakSpeed:     peak,
		ActiveWorkers: t.state.ActiveWorkers(),
		Workers:       t.workers,
		Operations:    t.state.Operations(),
		ETA:           eta,
	}
}

// remaining returns the time needed for left bytes at speed, saturating at
// the largest Duration.
func remaining(left int64, speed float64) time.Duration {
	ns := float64(left) / speed * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// raisePeak stores speed as the new peak if it is higher and returns the
// resulting peak.
func (t *Telemetry) raisePeak(speed float64) float64 {
	for {
		old := t.peak.Load()
		peak := math.Float64frombits(old)
		if speed <= peak {
			return peak
		}
		if t.peak.CompareAndSwap(old, math.Float64bits(speed)) {
			return speed
		}
	}
}

// Peak returns the highest speed sampled so far.
func (t *Telemetry) Peak() float64 {
	return math.Float64frombits(t.peak.Load())
}

// Average returns the rolling average of the most recent samples.
func (t *Telemetry) Average() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.average
}

// History returns a copy of all samples taken so far.
func (t *Telemetry) History() []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Sample(nil), t.history...)
}

// Efficiency returns average/peak as a percentage, or 0 without a peak.
func Efficiency(average, peak float64) float64 {
	if peak <= 0 {
		return 0
	}
	return average / peak * 100
}
