package vylog

import (
	"context"
	"testing"

	"github.com/bobboyms/vylog/pkg/journal"
	"github.com/bobboyms/vylog/pkg/record"
)

func openForTest(t *testing.T) *Log {
	t.Helper()
	dir := t.TempDir()
	l, err := Open(dir, Options{Journal: journal.DefaultOptions()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestBootstrapRefusesWhenFilesExist(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir, Options{Journal: journal.DefaultOptions()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	ctx := context.Background()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("first Bootstrap: %v", err)
	}

	l2, err := Open(dir, Options{Journal: journal.DefaultOptions()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l2.Close()

	if err := l2.Bootstrap(ctx); err == nil {
		t.Fatal("expected second Bootstrap on a non-empty directory to fail")
	}
}

func TestTxCommitEmptyTransactionIsNoOp(t *testing.T) {
	l := openForTest(t)
	ctx := context.Background()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	l.TxBegin()
	if err := l.TxCommit(ctx); err != nil {
		t.Errorf("TxCommit on empty transaction: %v", err)
	}
}

func TestWriteThenCommitThenRecover(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	opts := Options{Journal: journal.DefaultOptions()}

	l, err := Open(dir, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	keyParts := record.KeyDef{}
	l.TxBegin()
	l.Write(record.CreateIndex(1, 1, keyParts, 100))
	l.Write(record.PrepareRun(100, 7))
	if err := l.TxCommit(ctx); err != nil {
		t.Fatalf("TxCommit: %v", err)
	}

	l.TxBegin()
	l.Write(record.CreateRun(100, 7, 50))
	l.Write(record.InsertRange(100, 3, nil, nil))
	l.Write(record.InsertSlice(3, 7, 9, nil, nil))
	if err := l.TxCommit(ctx); err != nil {
		t.Fatalf("TxCommit 2: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l2, err := Open(dir, opts)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()

	recov, err := l2.BeginRecovery(Vclock{})
	if err != nil {
		t.Fatalf("BeginRecovery: %v", err)
	}

	var kinds []record.Kind
	if err := recov.Iterate(func(r record.Record) error {
		kinds = append(kinds, r.Kind)
		return nil
	}); err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if len(kinds) == 0 {
		t.Fatal("expected recovered graph to emit records")
	}

	if got := l2.NextID(); got <= 9 {
		t.Errorf("NextID() = %d, want > 9 (greatest id observed)", got)
	}

	if err := recov.EndRecovery(ctx); err != nil {
		t.Fatalf("EndRecovery: %v", err)
	}
}

// TestEndRecoveryFromBackupMaterializesNewCheckpoint covers the
// restored-from-backup path: the directory's newest file is signature 10,
// but the caller recovers onto vclock 20 (a checkpoint taken after that
// file, restored from a separate backup copy). EndRecovery must notice the
// mismatch and materialize 20.vylog from the replayed graph rather than
// reusing the file it actually read from.
func TestEndRecoveryFromBackupMaterializesNewCheckpoint(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	opts := Options{Journal: journal.DefaultOptions()}

	l, err := Open(dir, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	keyParts := record.KeyDef{}
	l.TxBegin()
	l.Write(record.CreateIndex(1, 1, keyParts, 100))
	if err := l.TxCommit(ctx); err != nil {
		t.Fatalf("TxCommit: %v", err)
	}
	if err := l.Rotate(ctx, Vclock{10}); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l2, err := Open(dir, opts)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()

	recov, err := l2.BeginRecovery(Vclock{20})
	if err != nil {
		t.Fatalf("BeginRecovery: %v", err)
	}
	if recov.lastFileSig != 10 {
		t.Fatalf("lastFileSig = %d, want 10 (the newest file actually on disk)", recov.lastFileSig)
	}

	if err := recov.EndRecovery(ctx); err != nil {
		t.Fatalf("EndRecovery: %v", err)
	}

	sigs := l2.Signatures()
	if len(sigs) != 3 || sigs[0] != 0 || sigs[1] != 10 || sigs[2] != 20 {
		t.Fatalf("Signatures() = %v, want [0, 10, 20]", sigs)
	}

	g, err := l2.buildGraph(20, true, false)
	if err != nil {
		t.Fatalf("buildGraph(20): %v", err)
	}
	if _, ok := g.IndexByLSN(100); !ok {
		t.Error("materialized checkpoint 20 should carry forward the index replayed from signature 10")
	}
}

func TestRotateNoOpOnUnchangedSignature(t *testing.T) {
	l := openForTest(t)
	ctx := context.Background()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	if err := l.Rotate(ctx, Vclock{}); err != nil {
		t.Errorf("Rotate onto current checkpoint: %v", err)
	}
}

func TestRotateMaterializesNewFileAndKeepsOldReadable(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	opts := Options{Journal: journal.DefaultOptions()}

	l, err := Open(dir, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()
	if err := l.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	keyParts := record.KeyDef{}
	l.TxBegin()
	l.Write(record.CreateIndex(1, 1, keyParts, 100))
	if err := l.TxCommit(ctx); err != nil {
		t.Fatalf("TxCommit: %v", err)
	}

	if err := l.Rotate(ctx, Vclock{10}); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	g, err := l.buildGraph(10, true, false)
	if err != nil {
		t.Fatalf("buildGraph(10): %v", err)
	}
	if _, ok := g.IndexByLSN(100); !ok {
		t.Error("rotated-to graph missing index lsn=100")
	}

	oldG, err := l.buildGraph(0, true, false)
	if err != nil {
		t.Fatalf("buildGraph(0) after rotation: %v", err)
	}
	if _, ok := oldG.IndexByLSN(100); !ok {
		t.Error("previous file should remain readable and unmodified after rotation")
	}
}

func TestCollectGarbageKeepsOnePriorCheckpoint(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDirectory(dir)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}
	for _, sig := range []int64{0, 10, 20, 30} {
		touchVylogFile(t, dir, sig)
		d.Record(sig)
	}

	l := &Log{dir: dir, directory: d}
	if err := l.CollectGarbage(30); err != nil {
		t.Fatalf("CollectGarbage: %v", err)
	}

	remaining := d.Signatures()
	if len(remaining) != 2 || remaining[0] != 20 || remaining[1] != 30 {
		t.Errorf("remaining signatures = %v, want [20, 30]", remaining)
	}
}

func TestBackupPathForInitialCheckpointIsNotUsed(t *testing.T) {
	dir := t.TempDir()
	d, err := OpenDirectory(dir)
	if err != nil {
		t.Fatalf("OpenDirectory: %v", err)
	}
	d.Record(0)

	l := &Log{dir: dir, directory: d}
	if _, ok := l.BackupPath(Vclock{}); ok {
		t.Error("BackupPath for the initial checkpoint should report not-used")
	}
}
