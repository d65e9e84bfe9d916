package graph

import (
	"sort"

	"github.com/bobboyms/vylog/pkg/record"
)

// Iterate replays the graph's current state back out as the minimal
// record stream that reconstructs it byte-for-byte. It is used by the
// rotator to write a fresh checkpoint file.
func (g *Graph) Iterate(cb func(record.Record) error) error {
	indexes := make([]*Index, 0, len(g.indexByLSN))
	for _, idx := range g.indexByLSN {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i].IndexLSN < indexes[j].IndexLSN })

	for _, idx := range indexes {
		if idx.IsDropped && len(idx.Runs) == 0 {
			continue // obsolete: unreachable by future recovery or GC
		}
		if err := iterateIndex(idx, cb); err != nil {
			return err
		}
	}
	return nil
}

func iterateIndex(idx *Index, cb func(record.Record) error) error {
	if err := cb(record.CreateIndex(idx.SpaceID, idx.IndexID, idx.KeyParts, idx.IndexLSN)); err != nil {
		return err
	}
	if idx.TruncateCount > 0 {
		if err := cb(record.TruncateIndex(idx.IndexLSN, idx.TruncateCount)); err != nil {
			return err
		}
	}
	if idx.HasDumpLSN {
		if err := cb(record.DumpIndex(idx.IndexLSN, idx.DumpLSN)); err != nil {
			return err
		}
	}

	for _, run := range idx.Runs {
		if run.IsIncomplete {
			if err := cb(record.PrepareRun(idx.IndexLSN, run.RunID)); err != nil {
				return err
			}
		} else {
			if err := cb(record.CreateRun(idx.IndexLSN, run.RunID, run.DumpLSN)); err != nil {
				return err
			}
		}
		if run.IsDropped {
			if err := cb(record.DropRun(run.RunID, run.GCLSN)); err != nil {
				return err
			}
		}
	}

	ranges := make([]*Range, len(idx.Ranges))
	copy(ranges, idx.Ranges)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].RangeID < ranges[j].RangeID })

	for _, rg := range ranges {
		if err := cb(record.InsertRange(idx.IndexLSN, rg.RangeID, rg.Begin, rg.End)); err != nil {
			return err
		}
		// rg.Slices is kept newest-first; re-serialize oldest-first so
		// replay reinserts them in the same chronological order they were
		// originally committed.
		for i := len(rg.Slices) - 1; i >= 0; i-- {
			sl := rg.Slices[i]
			if err := cb(record.InsertSlice(rg.RangeID, sl.Run.RunID, sl.SliceID, sl.Begin, sl.End)); err != nil {
				return err
			}
		}
	}

	if idx.IsDropped {
		if err := cb(record.DropIndex(idx.IndexLSN)); err != nil {
			return err
		}
	}
	return nil
}
