package record

import "fmt"

// KeyPartType tags the runtime type carried by one KeyPart or one
// KeyPartDef. Lexicographic key tuples (Begin/End) are typed, never
// sentinel-encoded: an absent key part is represented by the part simply
// not being present in the slice, never by a magic value.
type KeyPartType uint8

const (
	KeyPartInt KeyPartType = iota
	KeyPartUint
	KeyPartFloat
	KeyPartString
	KeyPartBool
)

func (t KeyPartType) String() string {
	switch t {
	case KeyPartInt:
		return "int"
	case KeyPartUint:
		return "uint"
	case KeyPartFloat:
		return "float"
	case KeyPartString:
		return "string"
	case KeyPartBool:
		return "bool"
	default:
		return fmt.Sprintf("keyparttype(%d)", uint8(t))
	}
}

// KeyPart is one component of a lexicographic key tuple.
type KeyPart struct {
	Type   KeyPartType
	Int    int64
	Uint   uint64
	Float  float64
	String string
	Bool   bool
}

func Int(v int64) KeyPart      { return KeyPart{Type: KeyPartInt, Int: v} }
func Uint(v uint64) KeyPart    { return KeyPart{Type: KeyPartUint, Uint: v} }
func Float(v float64) KeyPart  { return KeyPart{Type: KeyPartFloat, Float: v} }
func String(v string) KeyPart  { return KeyPart{Type: KeyPartString, String: v} }
func Bool(v bool) KeyPart      { return KeyPart{Type: KeyPartBool, Bool: v} }

func (p KeyPart) Equal(o KeyPart) bool {
	if p.Type != o.Type {
		return false
	}
	switch p.Type {
	case KeyPartInt:
		return p.Int == o.Int
	case KeyPartUint:
		return p.Uint == o.Uint
	case KeyPartFloat:
		return p.Float == o.Float
	case KeyPartString:
		return p.String == o.String
	case KeyPartBool:
		return p.Bool == o.Bool
	default:
		return false
	}
}

// Key is a typed lexicographic tuple. A nil/empty Key is a valid tuple (the
// empty prefix); "open" Begin/End endpoints are distinguished at the
// Record level by the HasBegin/HasEnd flags, never by a Key value.
type Key []KeyPart

func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	out := make(Key, len(k))
	copy(out, k)
	return out
}

func (k Key) Equal(o Key) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if !k[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// KeyPartDef describes one field of an index's key definition: which field
// ordinal it projects and what type it is declared to carry. This is the
// key-part definition array carried under wire tag 7, distinct from a Key
// value (wire tags 3/4): a KeyDef is schema, a Key is data.
type KeyPartDef struct {
	FieldNo uint32
	Type    KeyPartType
}

type KeyDef []KeyPartDef

func (d KeyDef) Clone() KeyDef {
	if d == nil {
		return nil
	}
	out := make(KeyDef, len(d))
	copy(out, d)
	return out
}

func (d KeyDef) Equal(o KeyDef) bool {
	if len(d) != len(o) {
		return false
	}
	for i := range d {
		if d[i] != o[i] {
			return false
		}
	}
	return true
}
