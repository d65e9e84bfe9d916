package journal

import "time"

// SyncPolicy controls when a Writer calls fsync.
type SyncPolicy int

const (
	// SyncEveryWrite fsyncs after every AppendBatch. Safest, slowest.
	SyncEveryWrite SyncPolicy = iota
	// SyncInterval fsyncs periodically from a background goroutine.
	SyncInterval
	// SyncBatch fsyncs once accumulated bytes cross SyncBatchBytes.
	SyncBatch
)

// Compression selects an optional frame compression codec, applied by
// Writer.AppendBatch to every row written to a file. It is a property of
// the file (set once, at creation, via the Options a Writer is opened
// with), not a per-row choice — a reader must know which Options a file
// was written under to decompress it correctly.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
)

// Options configures a Writer.
type Options struct {
	BufferSize           int
	SyncPolicy           SyncPolicy
	SyncIntervalDuration time.Duration
	SyncBatchBytes       int64
	Compression          Compression
}

func DefaultOptions() Options {
	return Options{
		BufferSize:           64 * 1024,
		SyncPolicy:           SyncInterval,
		SyncIntervalDuration: 200 * time.Millisecond,
		SyncBatchBytes:       1 * 1024 * 1024,
		Compression:          CompressionNone,
	}
}
