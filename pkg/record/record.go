package record

import "fmt"

// Record is a tagged variant: one Kind plus a sparse set of optional
// fields. Fields absent in a record are not
// transmitted by the codec and must not be confused with zero values, so
// every optional field carries its own Has* presence flag instead of being
// read from a sentinel.
type Record struct {
	Kind Kind

	HasIndexLSN bool
	IndexLSN    int64

	HasRangeID bool
	RangeID    int64

	HasRunID bool
	RunID    int64

	HasSliceID bool
	SliceID    int64

	HasBegin bool
	Begin    Key

	HasEnd bool
	End    Key

	HasIndexID bool
	IndexID    uint32

	HasSpaceID bool
	SpaceID    uint32

	HasKeyParts bool
	KeyParts    KeyDef

	HasDumpLSN bool
	DumpLSN    int64

	HasGCLSN bool
	GCLSN    int64

	HasTruncateCount bool
	TruncateCount    int64
}

// Clone deep-copies a record, including its variable-length payloads
// (Begin, End, KeyParts). This is what the append buffer calls to decouple
// the caller's storage from the buffered copy.
func (r Record) Clone() Record {
	out := r
	out.Begin = r.Begin.Clone()
	out.End = r.End.Clone()
	out.KeyParts = r.KeyParts.Clone()
	return out
}

// MaxID returns the largest id field present on the record (index_lsn,
// range_id, run_id or slice_id), or -1 if the record carries no id field.
func (r Record) MaxID() int64 {
	max := int64(-1)
	upd := func(v int64, has bool) {
		if has && v > max {
			max = v
		}
	}
	upd(r.IndexLSN, r.HasIndexLSN)
	upd(r.RangeID, r.HasRangeID)
	upd(r.RunID, r.HasRunID)
	upd(r.SliceID, r.HasSliceID)
	return max
}

func (r Record) Equal(o Record) bool {
	if r.Kind != o.Kind {
		return false
	}
	if r.HasIndexLSN != o.HasIndexLSN || (r.HasIndexLSN && r.IndexLSN != o.IndexLSN) {
		return false
	}
	if r.HasRangeID != o.HasRangeID || (r.HasRangeID && r.RangeID != o.RangeID) {
		return false
	}
	if r.HasRunID != o.HasRunID || (r.HasRunID && r.RunID != o.RunID) {
		return false
	}
	if r.HasSliceID != o.HasSliceID || (r.HasSliceID && r.SliceID != o.SliceID) {
		return false
	}
	if r.HasBegin != o.HasBegin || (r.HasBegin && !r.Begin.Equal(o.Begin)) {
		return false
	}
	if r.HasEnd != o.HasEnd || (r.HasEnd && !r.End.Equal(o.End)) {
		return false
	}
	if r.HasIndexID != o.HasIndexID || (r.HasIndexID && r.IndexID != o.IndexID) {
		return false
	}
	if r.HasSpaceID != o.HasSpaceID || (r.HasSpaceID && r.SpaceID != o.SpaceID) {
		return false
	}
	if r.HasKeyParts != o.HasKeyParts || (r.HasKeyParts && !r.KeyParts.Equal(o.KeyParts)) {
		return false
	}
	if r.HasDumpLSN != o.HasDumpLSN || (r.HasDumpLSN && r.DumpLSN != o.DumpLSN) {
		return false
	}
	if r.HasGCLSN != o.HasGCLSN || (r.HasGCLSN && r.GCLSN != o.GCLSN) {
		return false
	}
	if r.HasTruncateCount != o.HasTruncateCount || (r.HasTruncateCount && r.TruncateCount != o.TruncateCount) {
		return false
	}
	return true
}

// Constructors for each kind. These only set the fields every record of
// that kind must carry; callers add optional extras (e.g. Begin/End on
// InsertRange) by setting the fields directly.

func CreateIndex(spaceID, indexID uint32, keyParts KeyDef, indexLSN int64) Record {
	return Record{
		Kind:        KindCreateIndex,
		HasSpaceID:  true,
		SpaceID:     spaceID,
		HasIndexID:  true,
		IndexID:     indexID,
		HasKeyParts: true,
		KeyParts:    keyParts,
		HasIndexLSN: true,
		IndexLSN:    indexLSN,
	}
}

func DropIndex(indexLSN int64) Record {
	return Record{Kind: KindDropIndex, HasIndexLSN: true, IndexLSN: indexLSN}
}

func InsertRange(indexLSN, rangeID int64, begin, end Key) Record {
	r := Record{
		Kind:        KindInsertRange,
		HasIndexLSN: true, IndexLSN: indexLSN,
		HasRangeID: true, RangeID: rangeID,
	}
	if begin != nil {
		r.HasBegin, r.Begin = true, begin
	}
	if end != nil {
		r.HasEnd, r.End = true, end
	}
	return r
}

func DeleteRange(rangeID int64) Record {
	return Record{Kind: KindDeleteRange, HasRangeID: true, RangeID: rangeID}
}

func PrepareRun(indexLSN, runID int64) Record {
	return Record{
		Kind:        KindPrepareRun,
		HasIndexLSN: true, IndexLSN: indexLSN,
		HasRunID: true, RunID: runID,
	}
}

func CreateRun(indexLSN, runID, dumpLSN int64) Record {
	return Record{
		Kind:        KindCreateRun,
		HasIndexLSN: true, IndexLSN: indexLSN,
		HasRunID: true, RunID: runID,
		HasDumpLSN: true, DumpLSN: dumpLSN,
	}
}

func DropRun(runID, gcLSN int64) Record {
	return Record{Kind: KindDropRun, HasRunID: true, RunID: runID, HasGCLSN: true, GCLSN: gcLSN}
}

func ForgetRun(runID int64) Record {
	return Record{Kind: KindForgetRun, HasRunID: true, RunID: runID}
}

func InsertSlice(rangeID, runID, sliceID int64, begin, end Key) Record {
	r := Record{
		Kind:       KindInsertSlice,
		HasRangeID: true, RangeID: rangeID,
		HasRunID: true, RunID: runID,
		HasSliceID: true, SliceID: sliceID,
	}
	if begin != nil {
		r.HasBegin, r.Begin = true, begin
	}
	if end != nil {
		r.HasEnd, r.End = true, end
	}
	return r
}

func DeleteSlice(sliceID int64) Record {
	return Record{Kind: KindDeleteSlice, HasSliceID: true, SliceID: sliceID}
}

func DumpIndex(indexLSN, dumpLSN int64) Record {
	return Record{Kind: KindDumpIndex, HasIndexLSN: true, IndexLSN: indexLSN, HasDumpLSN: true, DumpLSN: dumpLSN}
}

func TruncateIndex(indexLSN, truncateCount int64) Record {
	return Record{Kind: KindTruncateIndex, HasIndexLSN: true, IndexLSN: indexLSN, HasTruncateCount: true, TruncateCount: truncateCount}
}

func Snapshot() Record {
	return Record{Kind: KindSnapshot}
}

func (r Record) String() string {
	return fmt.Sprintf("%s%s", r.Kind, r.fieldSummary())
}

func (r Record) fieldSummary() string {
	s := ""
	add := func(name string, has bool, v any) {
		if has {
			s += fmt.Sprintf(" %s=%v", name, v)
		}
	}
	add("space_id", r.HasSpaceID, r.SpaceID)
	add("index_id", r.HasIndexID, r.IndexID)
	add("index_lsn", r.HasIndexLSN, r.IndexLSN)
	add("range_id", r.HasRangeID, r.RangeID)
	add("run_id", r.HasRunID, r.RunID)
	add("slice_id", r.HasSliceID, r.SliceID)
	add("dump_lsn", r.HasDumpLSN, r.DumpLSN)
	add("gc_lsn", r.HasGCLSN, r.GCLSN)
	add("truncate_count", r.HasTruncateCount, r.TruncateCount)
	if r.HasBegin {
		s += fmt.Sprintf(" begin=%v", r.Begin)
	}
	if r.HasEnd {
		s += fmt.Sprintf(" end=%v", r.End)
	}
	if r.HasKeyParts {
		s += fmt.Sprintf(" key_parts=%v", r.KeyParts)
	}
	return s
}
