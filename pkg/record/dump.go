package record

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Dump renders a record as extended JSON by building a bson.D document
// and passing it to bson.MarshalExtJSON. Error paths that must carry a human-readable record
// dump call this instead of %+v so the output stays stable across Go
// struct-layout changes.
func (r Record) Dump() string {
	doc := bson.D{{Key: "kind", Value: r.Kind.String()}}
	addI := func(name string, has bool, v int64) {
		if has {
			doc = append(doc, bson.E{Key: name, Value: v})
		}
	}
	addU := func(name string, has bool, v uint32) {
		if has {
			doc = append(doc, bson.E{Key: name, Value: v})
		}
	}
	addU("space_id", r.HasSpaceID, r.SpaceID)
	addU("index_id", r.HasIndexID, r.IndexID)
	addI("index_lsn", r.HasIndexLSN, r.IndexLSN)
	addI("range_id", r.HasRangeID, r.RangeID)
	addI("run_id", r.HasRunID, r.RunID)
	addI("slice_id", r.HasSliceID, r.SliceID)
	addI("dump_lsn", r.HasDumpLSN, r.DumpLSN)
	addI("gc_lsn", r.HasGCLSN, r.GCLSN)
	addI("truncate_count", r.HasTruncateCount, r.TruncateCount)
	if r.HasBegin {
		doc = append(doc, bson.E{Key: "begin", Value: keyToBson(r.Begin)})
	}
	if r.HasEnd {
		doc = append(doc, bson.E{Key: "end", Value: keyToBson(r.End)})
	}
	if r.HasKeyParts {
		doc = append(doc, bson.E{Key: "key_parts", Value: keyDefToBson(r.KeyParts)})
	}

	jsonBytes, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		// Dumping must never itself fail a recovery error path; fall back
		// to the plain Go representation.
		return fmt.Sprintf("%s%s (dump marshal failed: %v)", r.Kind, r.fieldSummary(), err)
	}
	return string(jsonBytes)
}

func keyToBson(k Key) bson.A {
	out := make(bson.A, 0, len(k))
	for _, p := range k {
		switch p.Type {
		case KeyPartInt:
			out = append(out, p.Int)
		case KeyPartUint:
			out = append(out, p.Uint)
		case KeyPartFloat:
			out = append(out, p.Float)
		case KeyPartString:
			out = append(out, p.String)
		case KeyPartBool:
			out = append(out, p.Bool)
		}
	}
	return out
}

func keyDefToBson(d KeyDef) bson.A {
	out := make(bson.A, 0, len(d))
	for _, p := range d {
		out = append(out, bson.D{
			{Key: "field_no", Value: p.FieldNo},
			{Key: "type", Value: p.Type.String()},
		})
	}
	return out
}
