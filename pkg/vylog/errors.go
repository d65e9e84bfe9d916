package vylog

import (
	"fmt"

	"github.com/bobboyms/vylog/pkg/record"
	"github.com/cockroachdb/errors"
)

// The error taxonomy this package surfaces. OutOfMemory and InvalidLog
// already have their natural homes (record.ErrOutOfMemory,
// graph.InvalidLogError); the remainder live here because they are
// specific to the journal-facing operations pkg/vylog orchestrates.

var (
	// ErrOutOfMemory re-exports record.ErrOutOfMemory under the vylog
	// taxonomy's name, surfaced when Write's deep copy fails.
	ErrOutOfMemory = record.ErrOutOfMemory

	// ErrMissingSnapshot is returned by BeginRecovery when the directory's
	// greatest signature exceeds the caller's vclock: the log is newer
	// than the caller's data, meaning a stale snapshot was removed out
	// from under it.
	ErrMissingSnapshot = errors.New("vylog: missing snapshot for requested checkpoint")

	// ErrInjected is returned only when SimulateFlushFailure is armed,
	// standing in for a flush failure that would otherwise require an
	// actual disk fault.
	ErrInjected = errors.New("vylog: injected flush failure")
)

// SimulateFlushFailure forces the next journal flush (the AppendBatch
// call inside TxCommit/TxTryCommit) to fail with ErrInjected instead of
// reaching the journal, for exercising the flush-failure paths without an
// actual disk fault. It resets itself after firing once, mirroring
// SimulateWriteOOM.
var SimulateFlushFailure bool

// SystemError wraps an OS-level failure (open, rename, unlink, fsync)
// with the operation and path that failed.
type SystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("vylog: system error during %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }

func newSystemError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(&SystemError{Op: op, Path: path, Err: err}, "vylog")
}

// JournalFailure wraps an opaque failure surfaced by the underlying
// journal (framing, checksum, I/O worker errors) so callers can
// distinguish "the journal rejected this" from a graph-level InvalidLog.
type JournalFailure struct {
	Err error
}

func (e *JournalFailure) Error() string {
	return fmt.Sprintf("vylog: journal failure: %v", e.Err)
}

func (e *JournalFailure) Unwrap() error { return e.Err }

func newJournalFailure(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&JournalFailure{Err: err})
}
