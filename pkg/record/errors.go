package record

import "errors"

// ErrOutOfMemory is returned by the codec's Encode, and surfaced by
// pkg/vylog's Write path, when an allocation fails. Tests inject this via
// a fault-injection hook rather than exhausting real memory.
var ErrOutOfMemory = errors.New("vylog: out of memory")

// ErrInvalidRecord is returned by the codec's Decode on an unknown kind, a
// malformed outer structure, or a malformed key-part definition.
var ErrInvalidRecord = errors.New("vylog: invalid record")
