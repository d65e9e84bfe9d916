package graph

import "github.com/bobboyms/vylog/pkg/record"

type indexSlot struct {
	spaceID uint32
	indexID uint32
}

// Graph is the in-memory recovery graph built by replaying (Apply) a log
// file's records in order, keyed by four id maps (index, range, run,
// slice) plus a slot map for an index's current (space_id, index_id)
// incarnation.
type Graph struct {
	indexBySlot map[indexSlot]*Index
	indexByLSN  map[int64]*Index
	rangeByID   map[int64]*Range
	runByID     map[int64]*Run
	sliceByID   map[int64]*Slice

	maxID int64
}

func New() *Graph {
	return &Graph{
		indexBySlot: make(map[indexSlot]*Index),
		indexByLSN:  make(map[int64]*Index),
		rangeByID:   make(map[int64]*Range),
		runByID:     make(map[int64]*Run),
		sliceByID:   make(map[int64]*Slice),
		maxID:       -1,
	}
}

// MaxID is the maximum id observed across every kind's namespace, or -1
// if the graph is empty.
func (g *Graph) MaxID() int64 { return g.maxID }

func (g *Graph) observeID(id int64) {
	if id > g.maxID {
		g.maxID = id
	}
}

// Apply replays one decoded record against the graph, enforcing the
// index/range/run/slice consistency invariants. It is the sole mutator
// of Graph state.
func (g *Graph) Apply(rec record.Record) error {
	switch rec.Kind {
	case record.KindCreateIndex:
		return g.applyCreateIndex(rec)
	case record.KindDropIndex:
		return g.applyDropIndex(rec)
	case record.KindInsertRange:
		return g.applyInsertRange(rec)
	case record.KindDeleteRange:
		return g.applyDeleteRange(rec)
	case record.KindPrepareRun:
		return g.applyPrepareRun(rec)
	case record.KindCreateRun:
		return g.applyCreateRun(rec)
	case record.KindDropRun:
		return g.applyDropRun(rec)
	case record.KindForgetRun:
		return g.applyForgetRun(rec)
	case record.KindInsertSlice:
		return g.applyInsertSlice(rec)
	case record.KindDeleteSlice:
		return g.applyDeleteSlice(rec)
	case record.KindDumpIndex:
		return g.applyDumpIndex(rec)
	case record.KindTruncateIndex:
		return g.applyTruncateIndex(rec)
	case record.KindSnapshot:
		return nil
	default:
		return newInvalidLog("unknown record kind during replay", rec)
	}
}

// IndexByLSN exposes a live (non-consumed) lookup for callers that need to
// find a specific incarnation by its index_lsn.
func (g *Graph) IndexByLSN(lsn int64) (*Index, bool) {
	idx, ok := g.indexByLSN[lsn]
	return idx, ok
}
