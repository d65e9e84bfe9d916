package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Journal is the external contract: atomic batch append to the current
// file, and rotation onto a new one. It is the interface pkg/vylog's
// transactional writer and rotator depend on; FileJournal is the
// concrete, disk-backed implementation this module ships so the core is
// runnable standalone.
type Journal interface {
	AppendBatch(ctx context.Context, payloads [][]byte) error
	Rotate(ctx context.Context, signature int64) error
	Close() error
}

// PathForSignature derives a log file's path from a checkpoint signature:
// "<signature>.vylog".
func PathForSignature(dir string, signature int64) string {
	return filepath.Join(dir, fmt.Sprintf("%d.vylog", signature))
}

// SnapshotRowFunc supplies the bytes of an encoded Snapshot record. It is
// injected by pkg/vylog rather than imported directly, keeping this
// package free of any dependency on pkg/record/pkg/codec — the journal
// only ever frames opaque rows, leaving everything about what a row
// actually contains to its caller.
type SnapshotRowFunc func() ([]byte, error)

// FileJournal is the single-current-file Journal implementation. Appends
// are serialized through a dedicated writer goroutine (InitVyLogWriter)
// used only for vylog batches, so that whatever else shares the
// process's disk I/O is never blocked behind a vylog fsync.
type FileJournal struct {
	dir         string
	opts        Options
	metrics     *Metrics
	snapshotRow SnapshotRowFunc

	jobs chan appendJob
	quit chan struct{}

	mu         sync.Mutex
	current    *Writer
	currentSig int64
	haveSig    bool
}

type appendJob struct {
	payloads [][]byte
	done     chan error
}

func NewFileJournal(dir string, opts Options, m *Metrics, snapshotRow SnapshotRowFunc) *FileJournal {
	return &FileJournal{
		dir:         dir,
		opts:        opts,
		metrics:     m,
		snapshotRow: snapshotRow,
		jobs:        make(chan appendJob),
		quit:        make(chan struct{}),
	}
}

// InitVyLogWriter starts the dedicated writer goroutine. It must be called
// once before the first AppendBatch.
func (j *FileJournal) InitVyLogWriter() {
	go j.writerLoop()
}

func (j *FileJournal) writerLoop() {
	for {
		select {
		case job := <-j.jobs:
			job.done <- j.appendBatchLocked(job.payloads)
		case <-j.quit:
			return
		}
	}
}

// SetSignature tells the journal which checkpoint signature subsequent
// appends target, without opening anything yet (the file is opened
// lazily on the first AppendBatch).
func (j *FileJournal) SetSignature(signature int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.currentSig = signature
	j.haveSig = true
}

func (j *FileJournal) AppendBatch(ctx context.Context, payloads [][]byte) error {
	if len(payloads) == 0 {
		return nil
	}
	job := appendJob{payloads: payloads, done: make(chan error, 1)}
	select {
	case j.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-j.quit:
		return fmt.Errorf("journal: closed")
	}
	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnsureOpen forces the current-signature file open (creating it with a
// leading Snapshot row if it doesn't exist yet) without appending any
// additional rows. Bootstrap uses this to materialize the very first
// file for a fresh install.
func (j *FileJournal) EnsureOpen(ctx context.Context) error {
	job := appendJob{done: make(chan error, 1)}
	select {
	case j.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-j.quit:
		return fmt.Errorf("journal: closed")
	}
	select {
	case err := <-job.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *FileJournal) appendBatchLocked(payloads [][]byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.current == nil {
		if err := j.openCurrentLocked(); err != nil {
			return err
		}
	}
	if err := j.current.AppendBatch(payloads); err != nil {
		return err
	}
	// A batch is durable once AppendBatch returns, whatever the Writer's
	// sync policy: the rows are flushed and fsynced here.
	return j.current.Sync()
}

// openCurrentLocked appends to the current-signature file if it exists,
// otherwise creates it with a leading Snapshot row and renames it into
// place.
func (j *FileJournal) openCurrentLocked() error {
	if !j.haveSig {
		return fmt.Errorf("journal: no active checkpoint signature set")
	}
	path := PathForSignature(j.dir, j.currentSig)

	if _, err := os.Stat(path); err == nil {
		w, err := NewWriter(path, j.opts, j.metrics)
		if err != nil {
			return err
		}
		j.current = w
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("journal: stat %s: %w", path, err)
	}

	snap, err := j.snapshotRow()
	if err != nil {
		return fmt.Errorf("journal: encode initial snapshot row: %w", err)
	}

	tmp := path + ".tmp"
	tw, err := NewWriter(tmp, j.opts, nil)
	if err != nil {
		return fmt.Errorf("journal: create %s: %w", tmp, err)
	}
	if err := tw.AppendBatch([][]byte{snap}); err != nil {
		tw.Close()
		os.Remove(tmp)
		return fmt.Errorf("journal: write initial snapshot: %w", err)
	}
	if err := tw.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("journal: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("journal: rename %s to %s: %w", tmp, path, err)
	}

	w, err := NewWriter(path, j.opts, j.metrics)
	if err != nil {
		return err
	}
	j.current = w
	return nil
}

// Rotate closes the handle on the current file (if any) and switches
// subsequent appends to target `signature`. By the time this is called,
// the rotator (pkg/vylog/rotate.go) has already materialized the new
// file's contents on the background I/O worker; Rotate never writes the
// new file's content itself.
func (j *FileJournal) Rotate(ctx context.Context, signature int64) error {
	job := appendJob{done: make(chan error, 1)}
	select {
	case j.jobs <- appendJob{done: job.done, payloads: nil}:
	case <-ctx.Done():
		return ctx.Err()
	}
	// The no-payload job above passes through the writer goroutine, so it
	// runs after any append already queued there (and, like any job, opens
	// the current-signature file if no handle is open yet). Closing the old
	// handle and adopting the new signature then happen here, under j.mu,
	// which appendBatchLocked also holds.
	select {
	case err := <-job.done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current != nil {
		if err := j.current.Close(); err != nil {
			return fmt.Errorf("journal: close rotated-out file: %w", err)
		}
		j.current = nil
	}
	j.currentSig = signature
	j.haveSig = true
	if j.metrics != nil {
		j.metrics.RotationsTotal.Inc()
	}
	return nil
}

func (j *FileJournal) Close() error {
	close(j.quit)
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.current != nil {
		err := j.current.Close()
		j.current = nil
		return err
	}
	return nil
}

// RenameFromTmp is the primitive the rotator uses once it has finished
// writing a new file's full contents to a temp path.
func RenameFromTmp(tmpPath, finalPath string) error {
	return os.Rename(tmpPath, finalPath)
}
