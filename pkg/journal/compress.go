package journal

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressPayload and DecompressPayload apply the optional per-row zstd
// framing selected by Options.Compression. Writer.AppendBatch calls
// CompressPayload on every row before Row.seal computes its checksum, so
// the checksum still guards the bytes actually stored on disk; a corrupt
// compressed frame fails Row.verifyChecksum on read exactly like a
// corrupt plain payload would. A reader must apply DecompressPayload with
// the same Options a file was written under — the compression choice is
// a property of the file, not of any individual row.
func CompressPayload(opts Options, payload []byte) ([]byte, error) {
	if opts.Compression != CompressionZstd {
		return payload, nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("journal: create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(payload, nil), nil
}

func DecompressPayload(opts Options, payload []byte) ([]byte, error) {
	if opts.Compression != CompressionZstd {
		return payload, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("journal: create zstd decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("journal: decompress payload: %w", err)
	}
	return out, nil
}
