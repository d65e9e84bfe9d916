// Package codec implements the symmetric encode/decode between a vylog
// record and the journal row that carries it on disk. The wire shape is a
// two-element msgpack sequence [kind_tag, field_map]; field_map
// is keyed by small integer field tags (record.FieldTag) with values typed
// unambiguously enough that a decoder never has to guess a field's shape
// from its tag alone.
//
// This uses github.com/tinylib/msgp/msgp's runtime append/read helpers
// directly rather than running the msgp code generator over a struct: the
// record's sparse, presence-flagged field set does not correspond to a
// single Go struct msgp could generate a marshaler for, so the wire layout
// is hand-written directly against msgp's append/read primitives instead
// of a generated marshaler.
package codec

import (
	"fmt"

	"github.com/bobboyms/vylog/pkg/record"
	"github.com/tinylib/msgp/msgp"
)

// Row is one encoded record, ready to be framed and appended by pkg/journal.
type Row []byte

// SimulateOutOfMemory forces the next Encode call to fail with
// record.ErrOutOfMemory. It exists only for tests: encode failures are
// classified as OutOfMemory-only, and Go's allocator does not fail in a
// way a unit test can trigger on demand.
var SimulateOutOfMemory bool

// Encode serializes a record into a Row. It fails only with
// record.ErrOutOfMemory.
func Encode(r record.Record) (Row, error) {
	if SimulateOutOfMemory {
		SimulateOutOfMemory = false
		return nil, record.ErrOutOfMemory
	}

	b := make([]byte, 0, 64)
	b = msgp.AppendArrayHeader(b, 2)
	b = msgp.AppendUint32(b, uint32(r.Kind))

	fields := encodedFields(r)
	b = msgp.AppendMapHeader(b, uint32(len(fields)))
	for _, f := range fields {
		b = msgp.AppendUint32(b, uint32(f.tag))
		b = f.append(b)
	}
	return Row(b), nil
}

type fieldEncoder struct {
	tag    record.FieldTag
	append func([]byte) []byte
}

// encodedFields returns, in ascending tag order, the closures that append
// every field actually present on r. Ascending order is not required by
// the wire format (decode visits a map, not a fixed sequence) but keeps
// encoded bytes stable for tests and for log diffing.
func encodedFields(r record.Record) []fieldEncoder {
	var out []fieldEncoder
	add := func(tag record.FieldTag, has bool, fn func([]byte) []byte) {
		if has {
			out = append(out, fieldEncoder{tag, fn})
		}
	}
	add(record.TagIndexLSN, r.HasIndexLSN, func(b []byte) []byte { return msgp.AppendInt64(b, r.IndexLSN) })
	add(record.TagRangeID, r.HasRangeID, func(b []byte) []byte { return msgp.AppendInt64(b, r.RangeID) })
	add(record.TagRunID, r.HasRunID, func(b []byte) []byte { return msgp.AppendInt64(b, r.RunID) })
	add(record.TagBegin, r.HasBegin, func(b []byte) []byte { return appendKey(b, r.Begin) })
	add(record.TagEnd, r.HasEnd, func(b []byte) []byte { return appendKey(b, r.End) })
	add(record.TagIndexID, r.HasIndexID, func(b []byte) []byte { return msgp.AppendUint32(b, r.IndexID) })
	add(record.TagSpaceID, r.HasSpaceID, func(b []byte) []byte { return msgp.AppendUint32(b, r.SpaceID) })
	add(record.TagKeyParts, r.HasKeyParts, func(b []byte) []byte { return appendKeyDef(b, r.KeyParts) })
	add(record.TagSliceID, r.HasSliceID, func(b []byte) []byte { return msgp.AppendInt64(b, r.SliceID) })
	add(record.TagDumpLSN, r.HasDumpLSN, func(b []byte) []byte { return msgp.AppendInt64(b, r.DumpLSN) })
	add(record.TagGCLSN, r.HasGCLSN, func(b []byte) []byte { return msgp.AppendInt64(b, r.GCLSN) })
	add(record.TagTruncateCount, r.HasTruncateCount, func(b []byte) []byte { return msgp.AppendInt64(b, r.TruncateCount) })
	return out
}

// Decode deserializes a Row into a record. It fails with
// record.ErrInvalidRecord on unknown kind, malformed outer structure, or a
// malformed key-part definition.
func Decode(row Row) (record.Record, error) {
	b := []byte(row)

	sz, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil || sz != 2 {
		return record.Record{}, fmt.Errorf("%w: outer sequence must have 2 elements", record.ErrInvalidRecord)
	}

	kindVal, b, err := msgp.ReadUint32Bytes(b)
	if err != nil {
		return record.Record{}, fmt.Errorf("%w: missing kind tag: %v", record.ErrInvalidRecord, err)
	}
	kind := record.Kind(kindVal)
	if !kind.Valid() {
		return record.Record{}, fmt.Errorf("%w: unknown kind %d", record.ErrInvalidRecord, kindVal)
	}

	mapSz, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return record.Record{}, fmt.Errorf("%w: missing field map: %v", record.ErrInvalidRecord, err)
	}

	r := record.Record{Kind: kind}
	for i := uint32(0); i < mapSz; i++ {
		var tag uint32
		tag, b, err = msgp.ReadUint32Bytes(b)
		if err != nil {
			return record.Record{}, fmt.Errorf("%w: malformed field tag: %v", record.ErrInvalidRecord, err)
		}

		switch record.FieldTag(tag) {
		case record.TagIndexLSN:
			r.HasIndexLSN = true
			r.IndexLSN, b, err = msgp.ReadInt64Bytes(b)
		case record.TagRangeID:
			r.HasRangeID = true
			r.RangeID, b, err = msgp.ReadInt64Bytes(b)
		case record.TagRunID:
			r.HasRunID = true
			r.RunID, b, err = msgp.ReadInt64Bytes(b)
		case record.TagBegin:
			r.HasBegin = true
			r.Begin, b, err = readKey(b)
		case record.TagEnd:
			r.HasEnd = true
			r.End, b, err = readKey(b)
		case record.TagIndexID:
			r.HasIndexID = true
			var v uint32
			v, b, err = msgp.ReadUint32Bytes(b)
			r.IndexID = v
		case record.TagSpaceID:
			r.HasSpaceID = true
			var v uint32
			v, b, err = msgp.ReadUint32Bytes(b)
			r.SpaceID = v
		case record.TagKeyParts:
			r.HasKeyParts = true
			r.KeyParts, b, err = readKeyDef(b)
		case record.TagSliceID:
			r.HasSliceID = true
			r.SliceID, b, err = msgp.ReadInt64Bytes(b)
		case record.TagDumpLSN:
			r.HasDumpLSN = true
			r.DumpLSN, b, err = msgp.ReadInt64Bytes(b)
		case record.TagGCLSN:
			r.HasGCLSN = true
			r.GCLSN, b, err = msgp.ReadInt64Bytes(b)
		case record.TagTruncateCount:
			r.HasTruncateCount = true
			r.TruncateCount, b, err = msgp.ReadInt64Bytes(b)
		default:
			// Unknown field tag: skip its value and keep going. Field
			// tags are stable and append-only; a decoder older than
			// the writer tolerates fields it doesn't know.
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return record.Record{}, fmt.Errorf("%w: malformed value for field tag %d: %v", record.ErrInvalidRecord, tag, err)
		}
	}

	return r, nil
}

func appendKey(b []byte, k record.Key) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(k)))
	for _, p := range k {
		b = msgp.AppendArrayHeader(b, 2)
		b = msgp.AppendUint32(b, uint32(p.Type))
		switch p.Type {
		case record.KeyPartInt:
			b = msgp.AppendInt64(b, p.Int)
		case record.KeyPartUint:
			b = msgp.AppendUint64(b, p.Uint)
		case record.KeyPartFloat:
			b = msgp.AppendFloat64(b, p.Float)
		case record.KeyPartString:
			b = msgp.AppendString(b, p.String)
		case record.KeyPartBool:
			b = msgp.AppendBool(b, p.Bool)
		}
	}
	return b
}

func readKey(b []byte) (record.Key, []byte, error) {
	sz, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	k := make(record.Key, 0, sz)
	for i := uint32(0); i < sz; i++ {
		partSz, rest, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil || partSz != 2 {
			return nil, b, fmt.Errorf("%w: malformed key part", record.ErrInvalidRecord)
		}
		b = rest
		typeTag, rest, err := msgp.ReadUint32Bytes(b)
		if err != nil {
			return nil, b, err
		}
		b = rest

		var part record.KeyPart
		part.Type = record.KeyPartType(typeTag)
		switch part.Type {
		case record.KeyPartInt:
			part.Int, b, err = msgp.ReadInt64Bytes(b)
		case record.KeyPartUint:
			part.Uint, b, err = msgp.ReadUint64Bytes(b)
		case record.KeyPartFloat:
			part.Float, b, err = msgp.ReadFloat64Bytes(b)
		case record.KeyPartString:
			part.String, b, err = msgp.ReadStringBytes(b)
		case record.KeyPartBool:
			part.Bool, b, err = msgp.ReadBoolBytes(b)
		default:
			return nil, b, fmt.Errorf("%w: unknown key part type %d", record.ErrInvalidRecord, typeTag)
		}
		if err != nil {
			return nil, b, err
		}
		k = append(k, part)
	}
	return k, b, nil
}

func appendKeyDef(b []byte, d record.KeyDef) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(d)))
	for _, p := range d {
		b = msgp.AppendArrayHeader(b, 2)
		b = msgp.AppendUint32(b, p.FieldNo)
		b = msgp.AppendUint32(b, uint32(p.Type))
	}
	return b
}

func readKeyDef(b []byte) (record.KeyDef, []byte, error) {
	sz, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, fmt.Errorf("%w: malformed key-part definition array: %v", record.ErrInvalidRecord, err)
	}
	d := make(record.KeyDef, 0, sz)
	for i := uint32(0); i < sz; i++ {
		partSz, rest, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil || partSz != 2 {
			return nil, b, fmt.Errorf("%w: malformed key-part definition entry", record.ErrInvalidRecord)
		}
		b = rest
		var fieldNo, typeTag uint32
		fieldNo, b, err = msgp.ReadUint32Bytes(b)
		if err != nil {
			return nil, b, fmt.Errorf("%w: malformed key-part definition field_no: %v", record.ErrInvalidRecord, err)
		}
		typeTag, b, err = msgp.ReadUint32Bytes(b)
		if err != nil {
			return nil, b, fmt.Errorf("%w: malformed key-part definition type: %v", record.ErrInvalidRecord, err)
		}
		d = append(d, record.KeyPartDef{FieldNo: fieldNo, Type: record.KeyPartType(typeTag)})
	}
	return d, b, nil
}
