// Package graph rebuilds, holds, and re-serializes the in-memory recovery
// graph: the live set of indexes, ranges, runs, and slices a metadata log
// file encodes. It knows nothing about disk I/O — callers feed it decoded
// records (via Apply) and pull decoded records back out (via Iterate).
package graph

import "github.com/bobboyms/vylog/pkg/record"

// Index is a logical (spaceID, indexID) slot's current incarnation.
type Index struct {
	SpaceID       uint32
	IndexID       uint32
	IndexLSN      int64
	KeyParts      record.KeyDef
	IsDropped     bool
	HasDumpLSN    bool
	DumpLSN       int64
	TruncateCount int64

	Ranges []*Range
	Runs   []*Run // insertion order; CreateRun moves its run to index 0
}

// Range belongs to exactly one Index and holds an ordered slice list,
// sorted by descending run dump_lsn (newest first).
type Range struct {
	RangeID int64
	Index   *Index
	Begin   record.Key
	End     record.Key
	Slices  []*Slice
}

// Run belongs to exactly one Index.
type Run struct {
	RunID       int64
	Index       *Index
	IsIncomplete bool
	IsDropped    bool
	HasDumpLSN   bool
	DumpLSN      int64
	GCLSN        int64
}

// Slice references one Run and belongs to exactly one Range.
type Slice struct {
	SliceID int64
	Range   *Range
	Run     *Run
	Begin   record.Key
	End     record.Key
}
