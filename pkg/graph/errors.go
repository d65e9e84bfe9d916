package graph

import (
	"fmt"

	"github.com/bobboyms/vylog/pkg/record"
)

// InvalidLogError is returned whenever a replayed record violates one of
// the graph's structural invariants. It always carries the human-readable
// record dump alongside the reason.
type InvalidLogError struct {
	Reason string
	Record record.Record
}

func (e *InvalidLogError) Error() string {
	return fmt.Sprintf("graph: invalid log: %s: %s", e.Reason, e.Record.Dump())
}

func newInvalidLog(reason string, rec record.Record) error {
	return &InvalidLogError{Reason: reason, Record: rec}
}
