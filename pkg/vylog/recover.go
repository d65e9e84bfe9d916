package vylog

import (
	"io"
	"os"

	"github.com/bobboyms/vylog/pkg/codec"
	"github.com/bobboyms/vylog/pkg/graph"
	"github.com/bobboyms/vylog/pkg/journal"
	"github.com/bobboyms/vylog/pkg/record"
)

// buildGraph is the recovery graph builder: an absent file (exists=false)
// yields an empty graph (normal for fresh installs); otherwise every row
// is decoded and applied in order.
func (l *Log) buildGraph(sig int64, exists bool, onlyCheckpoint bool) (*graph.Graph, error) {
	if !exists {
		return graph.New(), nil
	}
	path := journal.PathForSignature(l.dir, sig)
	return ReplayFile(path, l.opts.Journal, onlyCheckpoint)
}

// ReplayFile decodes and applies every row of the log file at path,
// returning the resulting recovery graph. onlyCheckpoint stops replay at
// the first Snapshot row; otherwise Snapshot is just skipped as a
// separator and replay continues through any live records appended after
// it. A missing file yields an empty graph rather than an error, so
// callers can replay a signature that was recorded but never flushed.
// Exported for cmd/vylogdump's replay subcommand, which has no need for
// a full Log to inspect one file.
func ReplayFile(path string, opts journal.Options, onlyCheckpoint bool) (*graph.Graph, error) {
	g := graph.New()

	r, err := journal.NewReader(path)
	if os.IsNotExist(err) {
		return g, nil
	}
	if err != nil {
		return nil, newSystemError("open", path, err)
	}
	defer r.Close()

	for {
		row, err := r.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newJournalFailure(err)
		}

		payload, err := journal.DecompressPayload(opts, row.Payload)
		if err != nil {
			journal.ReleaseRow(row)
			return nil, newJournalFailure(err)
		}
		rec, decErr := codec.Decode(payload)
		journal.ReleaseRow(row)
		if decErr != nil {
			return nil, decErr
		}

		if rec.Kind == record.KindSnapshot {
			if onlyCheckpoint {
				break
			}
			continue
		}

		if err := g.Apply(rec); err != nil {
			return nil, err
		}
	}

	return g, nil
}
