package vylog

import (
	"sync"

	"github.com/bobboyms/vylog/pkg/record"
)

// buffer is the append buffer: a FIFO of deep-copied records, a saved
// length as the rollback snapshot point, and a deferred-error cell, all
// guarded by one mutex. Rollback recomputes rather than incrementally
// patches because the buffer is expected to stay small (one commit's
// worth of structural records at a time).
type buffer struct {
	mu sync.Mutex

	pending []record.Record
	savedLen int

	deferredErr error

	recoveryInProgress bool
}

func newBuffer() *buffer {
	return &buffer{}
}

// SimulateWriteOOM forces the next buffer.write call to behave as if the
// deep copy failed, for exercising the deferred-error path without an
// actual allocation failure. It resets itself after firing once,
// mirroring codec.SimulateOutOfMemory.
var SimulateWriteOOM bool

// begin acquires the latch, snapshots the rollback point, and clears the
// deferred-error cell. The latch is held until commit or tryCommit calls
// end().
func (b *buffer) begin() {
	b.mu.Lock()
	b.savedLen = len(b.pending)
	b.deferredErr = nil
}

// end releases the latch. It must be called exactly once per begin, from
// commit or tryCommit.
func (b *buffer) end() {
	b.mu.Unlock()
}

// write deep-copies rec and appends it. If the copy fails (OOM injection
// only — a real allocation failure is not something recoverable code
// reasonably handles) the deferred-error cell is set and write returns
// without panicking: the copy never produces a partial record in the
// FIFO.
func (b *buffer) write(rec record.Record) {
	if b.deferredErr != nil {
		return
	}
	if SimulateWriteOOM {
		SimulateWriteOOM = false
		b.deferredErr = ErrOutOfMemory
		return
	}
	cp := rec.Clone()
	b.pending = append(b.pending, cp)
}

// rollback restores the buffer to the state captured by the most recent
// begin, discarding every record written since.
func (b *buffer) rollback() {
	b.pending = b.pending[:b.savedLen]
}

// drain returns the current batch and empties the buffer. Callers must
// hold the latch.
func (b *buffer) drain() []record.Record {
	batch := b.pending
	b.pending = nil
	return batch
}

func (b *buffer) isEmpty() bool {
	return len(b.pending) == 0
}
