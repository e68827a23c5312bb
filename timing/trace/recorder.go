package trace

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/mempoolsim/timing/tile"
)

// GrantRecord is one handshake as stored by a Writer.
type GrantRecord struct {
	ID            string
	Tick          uint64
	Lane          int
	Port          int
	FromAgeMatrix bool
	InjectTime    float64
	GrantTime     float64
}

// Writer stores batches of grant records.
type Writer interface {
	Init() error
	Write(records []GrantRecord) error
	Close() error
}

// GrantRecorder is a hook that collects grant records and hands them to a
// Writer in batches.
type GrantRecorder struct {
	writer    Writer
	batchSize int
	pending   []GrantRecord
	dropped   int
	err       error
	closed    bool
}

// NewGrantRecorder creates a recorder. The remaining records are written
// and the writer is closed when the program exits through atexit.
func NewGrantRecorder(writer Writer, batchSize int) *GrantRecorder {
	if batchSize < 1 {
		batchSize = 1
	}

	r := &GrantRecorder{
		writer:    writer,
		batchSize: batchSize,
	}

	atexit.Register(func() { _ = r.Close() })

	return r
}

// Func records grant events. Once a write has failed, further events are
// counted as dropped.
func (r *GrantRecorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != tile.HookPosGrant || r.closed {
		return
	}

	if r.err != nil {
		r.dropped++
		return
	}

	evt, ok := ctx.Item.(tile.GrantEvent)
	if !ok {
		return
	}

	r.pending = append(r.pending, GrantRecord{
		ID:            evt.Request.ID,
		Tick:          evt.Tick,
		Lane:          evt.Lane,
		Port:          evt.Port,
		FromAgeMatrix: evt.FromAgeMatrix,
		InjectTime:    float64(evt.Request.InjectTime),
		GrantTime:     float64(evt.Time),
	})

	if len(r.pending) >= r.batchSize {
		_ = r.Flush()
	}
}

// Flush writes the buffered records. A batch that fails to write is dropped
// and the recorder keeps returning the first error.
func (r *GrantRecorder) Flush() error {
	if r.err != nil {
		return r.err
	}

	if len(r.pending) == 0 {
		return nil
	}

	if err := r.writer.Write(r.pending); err != nil {
		r.err = err
		r.dropped += len(r.pending)
		r.pending = nil

		return err
	}

	r.pending = nil

	return nil
}

// Close flushes and closes the writer. Closing twice is a no-op.
func (r *GrantRecorder) Close() error {
	if r.closed {
		return r.err
	}

	r.closed = true
	flushErr := r.Flush()

	if err := r.writer.Close(); err != nil && flushErr == nil {
		r.err = err
		return err
	}

	return flushErr
}

// Pending returns the number of records not yet written.
func (r *GrantRecorder) Pending() int {
	return len(r.pending)
}

// Dropped returns the number of records lost to a failed write.
func (r *GrantRecorder) Dropped() int {
	return r.dropped
}

// Err returns the first write or close error.
func (r *GrantRecorder) Err() error {
	return r.err
}
