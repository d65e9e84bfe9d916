package graph

import "github.com/bobboyms/vylog/pkg/record"

func (g *Graph) applyPrepareRun(rec record.Record) error {
	idx, ok := g.indexByLSN[rec.IndexLSN]
	if !ok {
		return newInvalidLog("PrepareRun references unknown index_lsn", rec)
	}
	if _, dup := g.runByID[rec.RunID]; dup {
		return newInvalidLog("duplicate run_id", rec)
	}

	run := &Run{RunID: rec.RunID, Index: idx, IsIncomplete: true}
	g.runByID[rec.RunID] = run
	idx.Runs = append(idx.Runs, run)

	g.observeID(rec.RunID)
	return nil
}

func (g *Graph) applyCreateRun(rec record.Record) error {
	idx, ok := g.indexByLSN[rec.IndexLSN]
	if !ok {
		return newInvalidLog("CreateRun references unknown index_lsn", rec)
	}

	run, exists := g.runByID[rec.RunID]
	if exists {
		if run.IsDropped {
			return newInvalidLog("CreateRun on an already-dropped run", rec)
		}
	} else {
		run = &Run{RunID: rec.RunID, Index: idx}
		g.runByID[rec.RunID] = run
		idx.Runs = append(idx.Runs, run)
	}

	run.IsIncomplete = false
	run.HasDumpLSN = true
	run.DumpLSN = rec.DumpLSN

	idx.Runs = moveRunToHead(idx.Runs, run)

	g.observeID(rec.RunID)
	return nil
}

func (g *Graph) applyDropRun(rec record.Record) error {
	run, ok := g.runByID[rec.RunID]
	if !ok {
		return newInvalidLog("DropRun on unknown run_id", rec)
	}
	if run.IsDropped {
		return newInvalidLog("DropRun on an already-dropped run", rec)
	}

	run.IsDropped = true
	run.GCLSN = rec.GCLSN

	g.observeID(rec.RunID)
	return nil
}

func (g *Graph) applyForgetRun(rec record.Record) error {
	run, ok := g.runByID[rec.RunID]
	if !ok {
		return newInvalidLog("ForgetRun on unknown run_id", rec)
	}

	delete(g.runByID, rec.RunID)
	run.Index.Runs = removeRun(run.Index.Runs, run)

	g.observeID(rec.RunID)
	return nil
}

func moveRunToHead(runs []*Run, target *Run) []*Run {
	without := removeRun(runs, target)
	return append([]*Run{target}, without...)
}

func removeRun(runs []*Run, target *Run) []*Run {
	for i, r := range runs {
		if r == target {
			return append(runs[:i], runs[i+1:]...)
		}
	}
	return runs
}
