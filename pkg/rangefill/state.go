package rangefill

import "sync/atomic"

// State holds the counters shared by all workers of a job.
//
// Workers only add to it with atomic operations; the monitor reads it. The
// byte counter is never reset while a job runs, so successive reads are
// non-decreasing.
type State struct {
	bytesWritten  atomic.Int64
	operations    atomic.Int64
	activeWorkers atomic.Int32
	errorFlag     atomic.Bool
	failure       atomic.Pointer[failure]
}

type failure struct {
	err error
}

// BytesWritten returns the number of bytes committed so far.
func (s *State) BytesWritten() int64 {
	return s.bytesWritten.Load()
}

// Operations returns the number of successful chunk writes.
func (s *State) Operations() int64 {
	return s.operations.Load()
}

// ActiveWorkers returns the number of workers that have not exited yet.
func (s *State) ActiveWorkers() int {
	return int(s.activeWorkers.Load())
}

// Failed reports whether any worker has failed.
func (s *State) Failed() bool {
	return s.errorFlag.Load()
}

// Err returns the first recorded failure, or nil.
func (s *State) Err() error {
	if f := s.failure.Load(); f != nil {
		return f.err
	}
	return nil
}

// fail records err if it is the first failure and raises the error flag.
// It reports whether err was recorded.
func (s *State) fail(err error) bool {
	first := s.failure.CompareAndSwap(nil, &failure{err: err})
	s.errorFlag.Store(true)
	return first
}

// commit accounts for one successful chunk write of n bytes.
func (s *State) commit(n int64) {
	s.bytesWritten.Add(n)
	s.operations.Add(1)
}

func (s *State) workerStarted() {
	s.activeWorkers.Add(1)
}

func (s *State) workerDone() {
	s.activeWorkers.Add(-1)
}
