package graph

import "github.com/bobboyms/vylog/pkg/record"

func (g *Graph) applyInsertSlice(rec record.Record) error {
	rg, ok := g.rangeByID[rec.RangeID]
	if !ok {
		return newInvalidLog("InsertSlice references unknown range_id", rec)
	}
	run, ok := g.runByID[rec.RunID]
	if !ok {
		return newInvalidLog("InsertSlice references unknown run_id", rec)
	}
	if _, dup := g.sliceByID[rec.SliceID]; dup {
		return newInvalidLog("duplicate slice_id", rec)
	}

	sl := &Slice{
		SliceID: rec.SliceID,
		Range:   rg,
		Run:     run,
		Begin:   rec.Begin.Clone(),
		End:     rec.End.Clone(),
	}
	g.sliceByID[rec.SliceID] = sl
	rg.Slices = insertByDescendingDumpLSN(rg.Slices, sl)

	g.observeID(rec.SliceID)
	return nil
}

func (g *Graph) applyDeleteSlice(rec record.Record) error {
	sl, ok := g.sliceByID[rec.SliceID]
	if !ok {
		return newInvalidLog("DeleteSlice on unknown slice_id", rec)
	}

	delete(g.sliceByID, rec.SliceID)
	sl.Range.Slices = removeSlice(sl.Range.Slices, sl)

	g.observeID(rec.SliceID)
	return nil
}

// insertByDescendingDumpLSN keeps a range's slice list ordered newest
// first by the owning run's dump_lsn. This tolerates
// compaction-creates-older-slice races: a slice whose run was
// dumped later always sorts ahead of one dumped earlier, regardless of
// the order InsertSlice records arrive in.
func insertByDescendingDumpLSN(slices []*Slice, sl *Slice) []*Slice {
	at := len(slices)
	for i, existing := range slices {
		if sl.Run.DumpLSN > existing.Run.DumpLSN {
			at = i
			break
		}
	}
	out := make([]*Slice, 0, len(slices)+1)
	out = append(out, slices[:at]...)
	out = append(out, sl)
	out = append(out, slices[at:]...)
	return out
}

func removeSlice(slices []*Slice, target *Slice) []*Slice {
	for i, s := range slices {
		if s == target {
			return append(slices[:i], slices[i+1:]...)
		}
	}
	return slices
}
