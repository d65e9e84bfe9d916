// Package journal implements the durable, row-oriented file abstraction
// vylog appends encoded records to: a single current file per checkpoint
// signature, framed rows with a CRC-checked header, and the
// append_batch/rotate contract the transactional writer depends on.
//
// An enclosing storage engine's own WAL subsystem would normally own this
// concern, but vylog ships a concrete implementation so the core is
// runnable on its own.
package journal

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"sync"
)

const (
	// HeaderSize is the fixed size, in bytes, of a row header.
	HeaderSize = 24
	// RowVersion is the current wire format version.
	RowVersion = 1
	// RowMagic identifies a well-formed row header.
	RowMagic = 0xDEADBEEF
)

// RowKind distinguishes a data row (an encoded vylog record) from a
// control row. Only RowData is produced by this package today; the tag
// exists so a future row kind can be introduced without changing the
// header layout.
type RowKind uint8

const (
	RowData RowKind = iota + 1
)

// Header is the fixed 24-byte prefix of every row.
type Header struct {
	Magic      uint32
	Version    uint8
	Kind       uint8
	Reserved   uint16
	Seq        uint64 // monotonic row sequence number within the file
	PayloadLen uint32
	CRC32      uint32
}

func (h *Header) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Kind
	binary.LittleEndian.PutUint16(buf[6:8], h.Reserved)
	binary.LittleEndian.PutUint64(buf[8:16], h.Seq)
	binary.LittleEndian.PutUint32(buf[16:20], h.PayloadLen)
	binary.LittleEndian.PutUint32(buf[20:24], h.CRC32)
}

func (h *Header) Decode(buf []byte) {
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	h.Version = buf[4]
	h.Kind = buf[5]
	h.Reserved = binary.LittleEndian.Uint16(buf[6:8])
	h.Seq = binary.LittleEndian.Uint64(buf[8:16])
	h.PayloadLen = binary.LittleEndian.Uint32(buf[16:20])
	h.CRC32 = binary.LittleEndian.Uint32(buf[20:24])
}

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// Row is one framed entry: header plus the (possibly compressed) encoded
// record payload a codec.Row produces. A Row never interprets its
// Payload; it only ever carries, checksums, and frames the bytes the
// codec package already turned a record into.
type Row struct {
	Header  Header
	Payload []byte
}

// seal stamps the header with this row's sequence number, payload length,
// and a checksum computed over the current Payload, readying it to be
// written. It must run after any compression has already been applied to
// Payload, since the checksum guards exactly the bytes placed on disk.
func (r *Row) seal(seq uint64) {
	r.Header.Magic = RowMagic
	r.Header.Version = RowVersion
	r.Header.Kind = uint8(RowData)
	r.Header.Seq = seq
	r.Header.PayloadLen = uint32(len(r.Payload))
	r.Header.CRC32 = crc32.Checksum(r.Payload, castagnoliTable)
}

// verifyChecksum reports whether Payload still matches the checksum
// recorded in Header, the read-side counterpart of seal.
func (r *Row) verifyChecksum() bool {
	return crc32.Checksum(r.Payload, castagnoliTable) == r.Header.CRC32
}

func (r *Row) WriteTo(w io.Writer) (int64, error) {
	var headerBuf [HeaderSize]byte
	r.Header.Encode(headerBuf[:])

	n, err := w.Write(headerBuf[:])
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(r.Payload)
	return int64(n + m), err
}

// rowPool recycles Row structs (and their backing Payload arrays) across a
// Reader's scan of a file, so replaying a large log doesn't thrash the GC
// with one allocation per row.
var rowPool = sync.Pool{
	New: func() interface{} {
		return &Row{Payload: make([]byte, 0, 4096)}
	},
}

// AcquireRow takes a pool-owned Row for a Reader to decode into.
func AcquireRow() *Row {
	return rowPool.Get().(*Row)
}

// ReleaseRow returns r to the pool. Callers must not use r afterward.
func ReleaseRow(r *Row) {
	r.Header = Header{}
	r.Payload = r.Payload[:0]
	rowPool.Put(r)
}
