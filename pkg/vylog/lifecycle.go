package vylog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobboyms/vylog/pkg/codec"
	"github.com/bobboyms/vylog/pkg/graph"
	"github.com/bobboyms/vylog/pkg/journal"
	"github.com/bobboyms/vylog/pkg/record"
	kitlog "github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures a Log. Every field is optional; the zero value
// yields a no-op logger and unregistered metrics. Journal is passed to the
// journal as given: its zero value selects SyncEveryWrite and no
// compression, not journal.DefaultOptions().
type Options struct {
	Journal    journal.Options
	Logger     kitlog.Logger
	Registerer prometheus.Registerer
}

// Log is the public-API facade: init/open/bootstrap, begin_recovery/
// end_recovery, next_id, the transactional writer, rotate, and GC/backup.
// It is the single entry point the enclosing storage engine depends on.
type Log struct {
	dir    string
	opts   Options
	logger kitlog.Logger

	buf         *buffer
	journalFile *journal.FileJournal
	io          *journal.IOWorker
	metrics     *journal.Metrics
	directory   *Directory

	mu     sync.Mutex
	vclock Vclock

	// lastRotationAt is the wall-clock time of the previous Rotate call,
	// used to feed Metrics.LastRotationAgeSecs. Zero until a first
	// rotation has happened, since there is no prior rotation to measure
	// the gap from.
	lastRotationAt time.Time

	nextID atomic.Int64

	recovery *Recovery
}

// Recovery is the handle returned by BeginRecovery: a graph replayed from
// the last durable checkpoint, consumed by the engine via Iterate/
// LoadIndex before EndRecovery discards it.
type Recovery struct {
	log              *Log
	graph            *graph.Graph
	callerVclock     Vclock
	lastFileSig      int64
	lastFileSigKnown bool
}

// Open scans dir for existing log files and wires up the journal, I/O
// worker, and metrics, but does not itself decide between Bootstrap and
// BeginRecovery — the caller (the enclosing engine's own recovery
// sequencing) does that, keeping "open" separate from "bootstrap"/
// "begin_recovery".
func Open(dir string, opts Options) (*Log, error) {
	d, err := OpenDirectory(dir)
	if err != nil {
		return nil, newSystemError("readdir", dir, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	var metrics *journal.Metrics
	if opts.Registerer != nil {
		metrics = journal.NewMetrics(opts.Registerer)
	}

	l := &Log{
		dir:       dir,
		opts:      opts,
		logger:    logger,
		buf:       newBuffer(),
		directory: d,
		metrics:   metrics,
	}

	l.journalFile = journal.NewFileJournal(dir, opts.Journal, metrics, l.encodeSnapshotRow)
	l.journalFile.InitVyLogWriter()
	l.io = journal.NewIOWorker()

	return l, nil
}

func (l *Log) encodeSnapshotRow() ([]byte, error) {
	return codec.Encode(record.Snapshot())
}

// Close releases the journal's file handle and background workers. It
// does not delete anything.
func (l *Log) Close() error {
	l.io.Close()
	return l.journalFile.Close()
}

// Bootstrap registers the empty vector-clock as the initial checkpoint
// for a fresh install. It refuses if any log file already exists.
func (l *Log) Bootstrap(ctx context.Context) error {
	if !l.directory.IsEmpty() {
		return fmt.Errorf("vylog: bootstrap refused: log files already exist in %s", l.dir)
	}

	l.mu.Lock()
	l.vclock = Vclock{}
	l.mu.Unlock()

	l.journalFile.SetSignature(0)
	if err := l.journalFile.EnsureOpen(ctx); err != nil {
		return newJournalFailure(err)
	}
	l.directory.Record(0)
	l.nextID.Store(0)
	return nil
}

// BeginRecovery replays the log file at the directory's greatest known
// signature (or an empty graph, for a genuinely file-less directory) and
// adopts vclock as the active checkpoint.
func (l *Log) BeginRecovery(vclock Vclock) (*Recovery, error) {
	sig, found := l.directory.Latest()
	if found && sig > vclock.Signature() {
		return nil, ErrMissingSnapshot
	}

	var g *graph.Graph
	err := l.io.RunOnIO(context.Background(), func() error {
		var buildErr error
		g, buildErr = l.buildGraph(sig, found, false)
		return buildErr
	})
	if err != nil {
		return nil, err
	}

	l.nextID.Store(g.MaxID() + 1)

	l.mu.Lock()
	l.vclock = vclock.Clone()
	l.mu.Unlock()

	l.buf.mu.Lock()
	l.buf.recoveryInProgress = true
	l.buf.mu.Unlock()

	rec := &Recovery{
		log:              l,
		graph:            g,
		callerVclock:     vclock.Clone(),
		lastFileSig:      sig,
		lastFileSigKnown: found,
	}
	l.recovery = rec
	return rec, nil
}

// Iterate replays the recovery graph's current state as a record stream,
// for the engine to reconstruct its live indexes from.
func (r *Recovery) Iterate(cb func(record.Record) error) error {
	return r.graph.Iterate(cb)
}

// LoadIndex implements the recovery.load_index three-branch nuance: full
// live history, a synthetic create+drop pair for a gone historical
// incarnation, or nothing at all.
func (r *Recovery) LoadIndex(spaceID, indexID uint32, indexLSN int64, isCheckpointRecovery bool, cb func(record.Record) error) error {
	return r.graph.LoadIndex(spaceID, indexID, indexLSN, isCheckpointRecovery, cb)
}

// EndRecovery flushes anything buffered during replay (statements the
// caller re-logged while walking its own WAL) and, if the active
// checkpoint disagrees with the file recovery actually read from
// (restoring from a backup), materializes a fresh log file for the
// active checkpoint by rotating through the recovered graph.
func (r *Recovery) EndRecovery(ctx context.Context) error {
	l := r.log

	l.buf.mu.Lock()
	l.buf.recoveryInProgress = false
	l.buf.mu.Unlock()

	l.mu.Lock()
	activeSig := l.vclock.Signature()
	l.mu.Unlock()

	if !r.lastFileSigKnown || r.lastFileSig != activeSig {
		if err := l.materializeCheckpoint(ctx, r.graph, activeSig); err != nil {
			return err
		}
		l.directory.Record(activeSig)
	}

	l.journalFile.SetSignature(activeSig)

	l.buf.begin()
	if err := l.TxCommit(ctx); err != nil {
		return err
	}

	l.recovery = nil
	return nil
}

// Signatures returns every checkpoint signature currently known to the
// log's directory, ascending. Exposed for inspection tooling
// (cmd/vylogdump) that wants to observe the effect of a GC run.
func (l *Log) Signatures() []int64 {
	return l.directory.Signatures()
}

// NextID returns a freshly allocated id. The first call after recovery
// returns max_id+1 (strictly greater than every id observed); each
// subsequent call returns one more than the last.
func (l *Log) NextID() int64 {
	return l.nextID.Add(1) - 1
}
