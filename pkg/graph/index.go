package graph

import "github.com/bobboyms/vylog/pkg/record"

func (g *Graph) applyCreateIndex(rec record.Record) error {
	slot := indexSlot{spaceID: rec.SpaceID, indexID: rec.IndexID}

	if existing, ok := g.indexBySlot[slot]; ok && !existing.IsDropped {
		return newInvalidLog("CreateIndex on a slot whose current incarnation is not dropped", rec)
	}
	if _, dup := g.indexByLSN[rec.IndexLSN]; dup {
		return newInvalidLog("duplicate index_lsn", rec)
	}

	idx := &Index{
		SpaceID:  rec.SpaceID,
		IndexID:  rec.IndexID,
		IndexLSN: rec.IndexLSN,
		KeyParts: rec.KeyParts.Clone(),
	}
	g.indexBySlot[slot] = idx
	g.indexByLSN[rec.IndexLSN] = idx

	g.observeID(rec.IndexLSN)
	return nil
}

func (g *Graph) applyDropIndex(rec record.Record) error {
	idx, ok := g.indexByLSN[rec.IndexLSN]
	if !ok {
		return newInvalidLog("DropIndex on unknown index_lsn", rec)
	}
	if idx.IsDropped {
		return newInvalidLog("DropIndex on an already-dropped index", rec)
	}
	if len(idx.Ranges) > 0 {
		return newInvalidLog("DropIndex with live ranges", rec)
	}
	for _, r := range idx.Runs {
		if !r.IsDropped && !r.IsIncomplete {
			return newInvalidLog("DropIndex with an active run", rec)
		}
	}

	idx.IsDropped = true
	g.observeID(rec.IndexLSN)
	return nil
}

func (g *Graph) applyDumpIndex(rec record.Record) error {
	idx, ok := g.indexByLSN[rec.IndexLSN]
	if !ok || idx.IsDropped {
		return newInvalidLog("DumpIndex on unknown or dropped index_lsn", rec)
	}
	idx.HasDumpLSN = true
	idx.DumpLSN = rec.DumpLSN
	g.observeID(rec.IndexLSN)
	return nil
}

func (g *Graph) applyTruncateIndex(rec record.Record) error {
	idx, ok := g.indexByLSN[rec.IndexLSN]
	if !ok || idx.IsDropped {
		return newInvalidLog("TruncateIndex on unknown or dropped index_lsn", rec)
	}
	idx.TruncateCount = rec.TruncateCount
	g.observeID(rec.IndexLSN)
	return nil
}
