package vylog

import (
	"context"
	"fmt"

	"github.com/bobboyms/vylog/pkg/codec"
	"github.com/bobboyms/vylog/pkg/record"
	"github.com/go-kit/log/level"
)

// TxBegin acquires the append latch, opening one logical transaction.
// The latch is held until TxCommit or TxTryCommit returns.
func (l *Log) TxBegin() {
	l.buf.begin()
}

// Write deep-copies rec into the buffer. A caller never sees write fail;
// any copy failure is captured in the deferred-error cell and surfaces
// at commit time.
func (l *Log) Write(rec record.Record) {
	l.buf.write(rec)
}

// TxCommit handles, in order: a deferred encode failure from Write
// (rolled back and surfaced), a commit buffered during recovery (left
// for EndRecovery to flush), an empty transaction (a no-op), and
// otherwise an encode-then-flush of the pending batch.
func (l *Log) TxCommit(ctx context.Context) error {
	defer l.buf.end()

	if l.buf.deferredErr != nil {
		err := l.buf.deferredErr
		l.buf.rollback()
		return err
	}

	if l.buf.recoveryInProgress {
		return nil // flushed at end-of-recovery instead
	}

	if l.buf.isEmpty() {
		return nil // tx_commit on an empty transaction is a no-op
	}

	batch := l.buf.pending
	payloads, err := encodeBatch(batch)
	if err != nil {
		l.buf.rollback()
		return err
	}

	if err := l.flushBatch(ctx, payloads); err != nil {
		l.buf.rollback()
		return newJournalFailure(err)
	}

	l.buf.drain()
	return nil
}

// TxTryCommit is the infallible-to-the-caller variant: a flush failure is
// logged and the batch stays buffered for the next commit to retry. A
// deferred encode error is treated as an unrecoverable internal
// inconsistency and aborts the process via panic, recovered only at
// main — discarding it silently is not an option.
func (l *Log) TxTryCommit(ctx context.Context) {
	defer l.buf.end()

	if l.buf.deferredErr != nil {
		err := l.buf.deferredErr
		l.buf.rollback()
		panic(fmt.Sprintf("vylog: unrecoverable encode failure under tx_try_commit: %v", err))
	}

	if l.buf.recoveryInProgress {
		return
	}

	if l.buf.isEmpty() {
		return
	}

	batch := l.buf.pending
	payloads, err := encodeBatch(batch)
	if err != nil {
		panic(fmt.Sprintf("vylog: unrecoverable encode failure under tx_try_commit: %v", err))
	}

	if err := l.flushBatch(ctx, payloads); err != nil {
		level.Warn(l.logger).Log("msg", "tx_try_commit flush failed, retrying on next commit", "err", err)
		return
	}

	l.buf.drain()
}

// flushBatch appends payloads to the current journal file, or fails with
// ErrInjected if SimulateFlushFailure is armed, without ever reaching the
// journal.
func (l *Log) flushBatch(ctx context.Context, payloads [][]byte) error {
	if SimulateFlushFailure {
		SimulateFlushFailure = false
		return ErrInjected
	}
	return l.journalFile.AppendBatch(ctx, payloads)
}

func encodeBatch(batch []record.Record) ([][]byte, error) {
	payloads := make([][]byte, len(batch))
	for i, rec := range batch {
		row, err := codec.Encode(rec)
		if err != nil {
			return nil, err
		}
		payloads[i] = row
	}
	return payloads, nil
}
