package graph

import "github.com/bobboyms/vylog/pkg/record"

// LoadIndex implements the recovery.load_index three-branch nuance: the
// caller asks for one (space_id, index_id) slot's state as of a
// particular index_lsn, and gets back either the full live history, a
// synthetic create+drop pair standing in for a historical incarnation
// that is gone for recovery purposes, or nothing at all.
//
// The synthetic pair uses the identity recorded against the slot's
// current incarnation (idx.SpaceID,
// idx.IndexID, idx.KeyParts), not values reconstructed solely from the
// caller's arguments — the caller only ever had index_lsn to identify a
// historical incarnation by, so the graph's own record of what existed is
// the only trustworthy source for the rest of the identity.
func (g *Graph) LoadIndex(spaceID, indexID uint32, indexLSN int64, isCheckpointRecovery bool, cb func(record.Record) error) error {
	idx, ok := g.indexBySlot[indexSlot{spaceID: spaceID, indexID: indexID}]
	if !ok {
		return nil
	}

	switch {
	case indexLSN < idx.IndexLSN:
		if err := cb(record.CreateIndex(idx.SpaceID, idx.IndexID, idx.KeyParts, indexLSN)); err != nil {
			return err
		}
		return cb(record.DropIndex(indexLSN))

	case indexLSN == idx.IndexLSN || isCheckpointRecovery:
		return iterateIndex(idx, cb)

	default: // indexLSN > idx.IndexLSN: unknown future incarnation, caller will re-log
		return nil
	}
}
