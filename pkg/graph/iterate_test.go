package graph

import (
	"testing"

	"github.com/bobboyms/vylog/pkg/record"
)

func collect(t *testing.T, g *Graph) []record.Record {
	t.Helper()
	var out []record.Record
	if err := g.Iterate(func(r record.Record) error {
		out = append(out, r)
		return nil
	}); err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	return out
}

func replay(t *testing.T, recs []record.Record) *Graph {
	t.Helper()
	g := New()
	for _, r := range recs {
		if err := g.Apply(r); err != nil {
			t.Fatalf("Apply(%s) during replay: %v", r, err)
		}
	}
	return g
}

func TestIterateThenReplayReconstructsGraph(t *testing.T) {
	keyParts := record.KeyDef{{FieldNo: 0, Type: record.KeyPartInt}}
	g := New()
	mustApply(t, g,
		record.CreateIndex(1, 1, keyParts, 100),
		record.InsertRange(100, 3, nil, nil),
		record.PrepareRun(100, 7),
		record.CreateRun(100, 7, 50),
		record.InsertSlice(3, 7, 9, record.Key{record.Int(5)}, record.Key{record.Int(8)}),
		record.DumpIndex(100, 50),
		record.TruncateIndex(100, 2),
	)

	recs := collect(t, g)
	g2 := replay(t, recs)

	idx1 := g.indexByLSN[100]
	idx2 := g2.indexByLSN[100]
	if idx2 == nil {
		t.Fatal("replayed graph missing index lsn=100")
	}
	if idx2.DumpLSN != idx1.DumpLSN || idx2.TruncateCount != idx1.TruncateCount {
		t.Errorf("replayed index = %+v, want dump_lsn/truncate_count matching original %+v", idx2, idx1)
	}
	if len(idx2.Ranges) != 1 || idx2.Ranges[0].RangeID != 3 {
		t.Fatalf("replayed ranges = %v, want one range id=3", idx2.Ranges)
	}
	if len(idx2.Ranges[0].Slices) != 1 || idx2.Ranges[0].Slices[0].SliceID != 9 {
		t.Fatalf("replayed slices = %v, want one slice id=9", idx2.Ranges[0].Slices)
	}
}

func TestIterateOmitsDroppedUnreferencedIndex(t *testing.T) {
	keyParts := record.KeyDef{}
	g := New()
	mustApply(t, g,
		record.CreateIndex(1, 1, keyParts, 100),
		record.DropIndex(100),
	)

	recs := collect(t, g)
	if len(recs) != 0 {
		t.Errorf("expected dropped unreferenced index to be omitted, got %d records", len(recs))
	}
}

func TestIterateKeepsDroppedIndexWithLingeringRun(t *testing.T) {
	keyParts := record.KeyDef{}
	g := New()
	mustApply(t, g,
		record.CreateIndex(1, 1, keyParts, 100),
		record.PrepareRun(100, 7),
		record.CreateRun(100, 7, 1),
		record.DropRun(7, 50),
	)
	if err := g.Apply(record.DropIndex(100)); err != nil {
		t.Fatalf("DropIndex: %v", err)
	}

	recs := collect(t, g)
	if len(recs) == 0 {
		t.Fatal("expected a dropped index with a lingering run to still be serialized")
	}

	g2 := replay(t, recs)
	idx2 := g2.indexByLSN[100]
	if idx2 == nil || !idx2.IsDropped {
		t.Fatalf("replayed index = %+v, want present and dropped", idx2)
	}
	var run *Run
	for _, r := range idx2.Runs {
		if r.RunID == 7 {
			run = r
		}
	}
	if run == nil || !run.IsDropped || run.GCLSN != 50 {
		t.Errorf("replayed run = %+v, want dropped with gc_lsn=50", run)
	}
}

func TestIterateEmitsRunInsertionOrder(t *testing.T) {
	keyParts := record.KeyDef{}
	g := New()
	mustApply(t, g,
		record.CreateIndex(1, 1, keyParts, 100),
		record.PrepareRun(100, 1),
		record.PrepareRun(100, 2),
		record.CreateRun(100, 2, 10), // moves run 2 to head
	)

	recs := collect(t, g)
	var runIDsInOrder []int64
	for _, r := range recs {
		if (r.Kind == record.KindPrepareRun || r.Kind == record.KindCreateRun) && r.HasRunID {
			runIDsInOrder = append(runIDsInOrder, r.RunID)
		}
	}
	if len(runIDsInOrder) != 2 || runIDsInOrder[0] != 2 || runIDsInOrder[1] != 1 {
		t.Errorf("run emission order = %v, want [2, 1] (run 2 moved to head by CreateRun)", runIDsInOrder)
	}
}
