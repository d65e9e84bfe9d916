package graph

import "github.com/bobboyms/vylog/pkg/record"

func (g *Graph) applyInsertRange(rec record.Record) error {
	idx, ok := g.indexByLSN[rec.IndexLSN]
	if !ok {
		return newInvalidLog("InsertRange references unknown index_lsn", rec)
	}
	if _, dup := g.rangeByID[rec.RangeID]; dup {
		return newInvalidLog("duplicate range_id", rec)
	}

	rg := &Range{
		RangeID: rec.RangeID,
		Index:   idx,
		Begin:   rec.Begin.Clone(),
		End:     rec.End.Clone(),
	}
	g.rangeByID[rec.RangeID] = rg
	idx.Ranges = append(idx.Ranges, rg)

	g.observeID(rec.RangeID)
	return nil
}

func (g *Graph) applyDeleteRange(rec record.Record) error {
	rg, ok := g.rangeByID[rec.RangeID]
	if !ok {
		return newInvalidLog("DeleteRange on unknown range_id", rec)
	}
	if len(rg.Slices) > 0 {
		return newInvalidLog("DeleteRange with live slices", rec)
	}

	delete(g.rangeByID, rec.RangeID)
	rg.Index.Ranges = removeRange(rg.Index.Ranges, rg)

	g.observeID(rec.RangeID)
	return nil
}

func removeRange(ranges []*Range, target *Range) []*Range {
	for i, r := range ranges {
		if r == target {
			return append(ranges[:i], ranges[i+1:]...)
		}
	}
	return ranges
}
