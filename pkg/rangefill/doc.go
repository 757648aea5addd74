// Package rangefill allocates a file of a fixed size and fills it by writing
// disjoint byte ranges concurrently.
//
// The target size is split into contiguous extents, one per worker. Each
// worker owns its extent and its buffer and writes with [io.WriterAt] at its
// own offsets, so the data path needs no locking. Progress is tracked in a
// [State] made of atomic counters and sampled periodically by a [Telemetry]
// aggregator, which derives throughput, a rolling average, the peak, and an
// ETA.
//
// # Usage
//
//	job, err := rangefill.Start(ctx, rangefill.Config{
//	    Path:       "disk.img",
//	    Size:       10 << 30,
//	    Workers:    8,
//	    BufferSize: 32 << 20,
//	    Fill:       rangefill.FillZero,
//	}, rangefill.Options{})
//	if err != nil {
//	    return err
//	}
//	for snap := range job.Snapshots() {
//	    fmt.Printf("%.1f%%\n", snap.Percent())
//	}
//	summary, err := job.Wait()
//
// # Lifecycle
//
// A job moves through Configuring, Preallocating and Writing before ending in
// Succeeded or Failed. [NewJob] returns a job in Configuring; invalid
// configuration and allocation failures are returned by [Job.Start] before
// any worker runs and leave the job in Failed. Write failures set a shared
// flag that every other worker checks before its next chunk; nothing is
// retried. [Job.Wait] returns only after every worker has exited.
//
// # Errors
//
// All failures are reported as [*Error] and match one of
// [ErrInvalidConfiguration], [ErrAllocation], [ErrWrite] or [ErrCanceled]
// with errors.Is.
package rangefill
