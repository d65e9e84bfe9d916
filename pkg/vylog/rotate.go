package vylog

import (
	"context"
	"os"
	"time"

	"github.com/bobboyms/vylog/pkg/codec"
	"github.com/bobboyms/vylog/pkg/graph"
	"github.com/bobboyms/vylog/pkg/journal"
	"github.com/bobboyms/vylog/pkg/record"
	"github.com/google/uuid"
)

// GenerateTempSuffix produces a collision-free temp-file suffix using
// UUIDv7, used even though only one rotation runs at a time under the
// append latch, so a crash mid-rotation never leaves an ambiguous .tmp
// name behind for the next attempt to collide with.
func GenerateTempSuffix() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id.String()
}

// materializeCheckpoint writes g's full state to a fresh file for sig,
// terminated by a Snapshot row, via write-temp-then-rename, cleaning up
// the dangling temp file on any failure along the way.
func (l *Log) materializeCheckpoint(ctx context.Context, g *graph.Graph, sig int64) error {
	finalPath := journal.PathForSignature(l.dir, sig)
	tmpPath := finalPath + "." + GenerateTempSuffix() + ".tmp"

	return l.io.RunOnIO(ctx, func() error {
		w, err := journal.NewWriter(tmpPath, l.opts.Journal, l.metrics)
		if err != nil {
			return newSystemError("create", tmpPath, err)
		}

		var rows [][]byte
		iterErr := g.Iterate(func(rec record.Record) error {
			row, err := codec.Encode(rec)
			if err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
		if iterErr == nil {
			snapRow, err := codec.Encode(record.Snapshot())
			if err == nil {
				rows = append(rows, snapRow)
			} else {
				iterErr = err
			}
		}
		if iterErr != nil {
			w.Close()
			os.Remove(tmpPath)
			return iterErr
		}

		if err := w.AppendBatch(rows); err != nil {
			w.Close()
			os.Remove(tmpPath)
			return newJournalFailure(err)
		}
		if err := w.Close(); err != nil {
			os.Remove(tmpPath)
			return newSystemError("close", tmpPath, err)
		}

		if err := journal.RenameFromTmp(tmpPath, finalPath); err != nil {
			os.Remove(tmpPath)
			return newSystemError("rename", finalPath, err)
		}
		return nil
	})
}

// Rotate rolls onto a new checkpoint file whose contents are the current
// recovery graph rebuilt from the previous signature, replacing the live
// file handle only after the new file is safely on disk.
func (l *Log) Rotate(ctx context.Context, vclock Vclock) error {
	sig := vclock.Signature()

	l.mu.Lock()
	prevSig := l.vclock.Signature()
	l.mu.Unlock()

	if sig == prevSig {
		return nil // rotate onto the current checkpoint is a no-op
	}

	l.buf.begin()
	defer l.buf.end()

	g, err := l.buildGraph(prevSig, true, false)
	if err != nil {
		return err
	}

	if err := l.materializeCheckpoint(ctx, g, sig); err != nil {
		return err
	}

	if err := l.journalFile.Rotate(ctx, sig); err != nil {
		return newJournalFailure(err)
	}

	l.mu.Lock()
	l.vclock = vclock.Clone()
	l.mu.Unlock()
	l.directory.Record(sig)

	now := time.Now()
	if l.metrics != nil && !l.lastRotationAt.IsZero() {
		l.metrics.LastRotationAgeSecs.Set(now.Sub(l.lastRotationAt).Seconds())
	}
	l.lastRotationAt = now

	return nil
}
