package vylog

import (
	"context"
	"testing"

	"github.com/bobboyms/vylog/pkg/journal"
	"github.com/bobboyms/vylog/pkg/record"
)

func TestTxCommitRollsBackOnDeferredError(t *testing.T) {
	l := openForTest(t)
	ctx := context.Background()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	l.TxBegin()
	l.Write(record.DropIndex(1))
	SimulateWriteOOM = true
	l.Write(record.DropIndex(2))

	err := l.TxCommit(ctx)
	if err == nil {
		t.Fatal("expected TxCommit to surface the deferred error")
	}
	if !l.buf.isEmpty() {
		t.Errorf("buffer should be rolled back to empty, got %v", l.buf.pending)
	}
}

func TestTxCommitKeepsBufferedDuringRecovery(t *testing.T) {
	l := openForTest(t)
	ctx := context.Background()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	l.buf.mu.Lock()
	l.buf.recoveryInProgress = true
	l.buf.mu.Unlock()

	l.TxBegin()
	l.Write(record.DropIndex(1))
	if err := l.TxCommit(ctx); err != nil {
		t.Fatalf("TxCommit during recovery: %v", err)
	}

	if l.buf.isEmpty() {
		t.Error("records written during recovery should stay buffered, not flush")
	}
}

func TestTxTryCommitRetainsBatchOnFlushFailure(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir, Options{Journal: journal.DefaultOptions()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	// Close the journal out from under the buffer so the next flush fails,
	// standing in for a real disk fault. l.Close() is not deferred here
	// since the journal handle is already closed by the time the test ends.
	l.journalFile.Close()
	defer l.io.Close()

	l.TxBegin()
	l.Write(record.DropIndex(1))
	l.TxTryCommit(ctx)

	if l.buf.isEmpty() {
		t.Error("a failed tx_try_commit flush should leave the batch buffered for retry")
	}
}

func TestTxCommitSurfacesInjectedFlushFailure(t *testing.T) {
	l := openForTest(t)
	ctx := context.Background()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	l.TxBegin()
	l.Write(record.DropIndex(1))
	SimulateFlushFailure = true
	err := l.TxCommit(ctx)
	if err == nil {
		t.Fatal("expected TxCommit to surface the injected flush failure")
	}
	if !l.buf.isEmpty() {
		t.Errorf("buffer should be rolled back to empty, got %v", l.buf.pending)
	}
}

func TestTxTryCommitPanicsOnDeferredError(t *testing.T) {
	l := openForTest(t)
	ctx := context.Background()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected tx_try_commit to panic on an unrecoverable deferred error")
		}
	}()

	l.TxBegin()
	SimulateWriteOOM = true
	l.Write(record.DropIndex(1))
	l.TxTryCommit(ctx)
}
