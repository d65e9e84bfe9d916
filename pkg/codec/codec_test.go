package codec

import (
	"testing"

	"github.com/bobboyms/vylog/pkg/record"
	"github.com/tinylib/msgp/msgp"
)

func roundTrip(t *testing.T, r record.Record) {
	t.Helper()
	row, err := Encode(r)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := Decode(row)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.Equal(r) {
		t.Fatalf("round trip mismatch:\n want %s\n got  %s", r, got)
	}
}

func sampleKey() record.Key {
	return record.Key{record.Int(5), record.String("foo"), record.Bool(true)}
}

func sampleKeyDef() record.KeyDef {
	return record.KeyDef{
		{FieldNo: 0, Type: record.KeyPartInt},
		{FieldNo: 1, Type: record.KeyPartString},
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	cases := []record.Record{
		record.CreateIndex(1, 2, sampleKeyDef(), 100),
		record.DropIndex(100),
		record.InsertRange(100, 3, sampleKey(), nil),
		record.InsertRange(100, 3, nil, sampleKey()),
		record.InsertRange(100, 3, sampleKey(), sampleKey()),
		record.InsertRange(100, 3, nil, nil),
		record.DeleteRange(3),
		record.PrepareRun(100, 7),
		record.CreateRun(100, 7, 50),
		record.DropRun(11, 200),
		record.ForgetRun(11),
		record.InsertSlice(3, 7, 9, sampleKey(), sampleKey()),
		record.DeleteSlice(9),
		record.DumpIndex(100, 50),
		record.TruncateIndex(100, 4),
		record.Snapshot(),
	}
	for _, c := range cases {
		t.Run(c.Kind.String(), func(t *testing.T) {
			roundTrip(t, c)
		})
	}
}

func TestRoundTripEmptyKeyTuple(t *testing.T) {
	r := record.InsertRange(1, 2, record.Key{}, record.Key{})
	roundTrip(t, r)
}

func TestRoundTripAllKeyPartTypes(t *testing.T) {
	k := record.Key{
		record.Int(-1),
		record.Uint(42),
		record.Float(3.5),
		record.String("s"),
		record.Bool(false),
	}
	roundTrip(t, record.InsertRange(1, 2, k, nil))
}

func TestDecodeUnknownKindFails(t *testing.T) {
	row, err := Encode(record.DropIndex(1))
	if err != nil {
		t.Fatal(err)
	}
	// Corrupt the kind tag (second byte of a fixarray[2] header is the
	// kind, encoded as a positive fixint since KindDropIndex==1).
	bad := append(Row(nil), row...)
	bad[1] = 250
	if _, err := Decode(bad); err == nil {
		t.Fatal("expected error decoding unknown kind")
	}
}

func TestDecodeTruncatedRowFails(t *testing.T) {
	row, err := Encode(record.CreateRun(1, 2, 3))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(row[:len(row)-2]); err == nil {
		t.Fatal("expected error decoding truncated row")
	}
}

func TestEncodeOutOfMemoryInjection(t *testing.T) {
	SimulateOutOfMemory = true
	_, err := Encode(record.Snapshot())
	if err == nil {
		t.Fatal("expected injected out-of-memory error")
	}
	// The flag must self-clear so later tests are unaffected.
	if SimulateOutOfMemory {
		t.Fatal("SimulateOutOfMemory should reset after firing once")
	}
}

func TestUnknownFieldTagIsSkippedForForwardCompat(t *testing.T) {
	row, err := Encode(record.DropIndex(5))
	if err != nil {
		t.Fatal(err)
	}
	// Re-encode by hand with an extra, currently-unused field tag (200)
	// carrying a string value, simulating a newer writer.
	extended := appendExtraField(t, row)
	got, err := Decode(extended)
	if err != nil {
		t.Fatalf("decode should tolerate unknown field tags, got: %v", err)
	}
	if !got.Equal(record.DropIndex(5)) {
		t.Fatalf("unexpected decode result: %s", got)
	}
}

// appendExtraField rebuilds row with one additional, unrecognized field
// tag so the decoder's forward-compatibility skip path can be exercised.
func appendExtraField(t *testing.T, row Row) Row {
	t.Helper()
	sz, body, err := msgp.ReadArrayHeaderBytes([]byte(row))
	if err != nil || sz != 2 {
		t.Fatalf("unexpected row shape: %v", err)
	}
	kind, body, err := msgp.ReadUint32Bytes(body)
	if err != nil {
		t.Fatal(err)
	}
	mapSz, body, err := msgp.ReadMapHeaderBytes(body)
	if err != nil {
		t.Fatal(err)
	}

	out := make([]byte, 0, len(row)+16)
	out = msgp.AppendArrayHeader(out, 2)
	out = msgp.AppendUint32(out, kind)
	out = msgp.AppendMapHeader(out, mapSz+1)
	out = append(out, body...)
	out = msgp.AppendUint32(out, 200)
	out = msgp.AppendString(out, "future-field")
	return Row(out)
}
