package journal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics mirrors the shape of dreamsxin-wal's walMetrics: counters for
// throughput, a gauge for the time between the last two rotations. Passing nil
// wherever a *Metrics is accepted disables instrumentation.
type Metrics struct {
	RowsAppended        prometheus.Counter
	BatchesAppended     prometheus.Counter
	BytesWritten        prometheus.Counter
	RotationsTotal      prometheus.Counter
	LastRotationAgeSecs prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RowsAppended: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vylog_rows_appended_total",
			Help: "Number of encoded records appended to the metadata log.",
		}),
		BatchesAppended: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vylog_batches_appended_total",
			Help: "Number of append_batch calls, i.e. committed transactions.",
		}),
		BytesWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vylog_bytes_written_total",
			Help: "Bytes of framed rows written to the current log file.",
		}),
		RotationsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vylog_rotations_total",
			Help: "Number of successful checkpoint rotations.",
		}),
		LastRotationAgeSecs: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vylog_last_rotation_age_seconds",
			Help: "Seconds between the previous rotation and the most recent one.",
		}),
	}
}
