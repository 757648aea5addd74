package rangefill

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/time/rate"
)

// rangeWriter streams one worker's buffer into its extent.
type rangeWriter struct {
	index   int
	extent  Extent
	dst     io.WriterAt
	buf     []byte
	state   *State
	limiter *rate.Limiter
	log     *slog.Logger
}

// run writes the extent chunk by chunk. It stops at the end of the extent,
// when any worker has failed, when ctx is done, or on its own first failed
// write. The shared flag and ctx are checked before every chunk; a write in
// progress is never interrupted.
func (w *rangeWriter) run(ctx context.Context) {
	defer w.state.workerDone()

	w.log.Debug("worker started", "extent", w.extent.String(), "buffer", len(w.buf))

	pos := w.extent.Start
	for pos < w.extent.End {
		if w.state.Failed() || ctx.Err() != nil {
			w.log.Debug("worker stopped early", "offset", pos)
			return
		}

		n := min(int64(len(w.buf)), w.extent.End-pos)
		if w.limiter != nil {
			if err := w.limiter.WaitN(ctx, int(n)); err != nil {
				w.log.Debug("worker stopped while throttled", "offset", pos, "error", err)
				return
			}
		}

		written, err := w.dst.WriteAt(w.buf[:n], pos)
		if err == nil && int64(written) < n {
			err = io.ErrShortWrite
		}
		if err != nil {
			err = fmt.Errorf("worker %d: write %d bytes at offset %d: %w", w.index, n, pos, err)
			if w.state.fail(err) {
				w.log.Error("write failed", "offset", pos, "error", err)
			}
			return
		}

		pos += n
		w.state.commit(n)
	}

	w.log.Debug("worker finished", "extent", w.extent.String())
}
