// Package metrics exposes Prometheus instrumentation for the read pipeline:
// counters for reads, rows and type promotions, plus a read-duration histogram.
// All metrics register automatically on first import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReadsTotal counts completed read runs.
	// Labels: status (success/failure).
	ReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabular_reads_total",
			Help: "Total number of read runs",
		},
		[]string{"status"},
	)

	// RowsRead counts rows materialised into tables.
	RowsRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tabular_rows_read_total",
			Help: "Total number of rows materialised",
		},
	)

	// BytesRead counts input bytes consumed by the parser.
	BytesRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tabular_bytes_read_total",
			Help: "Total input bytes parsed",
		},
	)

	// TypePromotions counts re-read passes forced by mid-pass type widening.
	TypePromotions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tabular_type_promotions_total",
			Help: "Total re-read passes caused by type promotion",
		},
	)

	// ReadDuration tracks the wall-clock distribution of whole read runs.
	ReadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "tabular_read_duration_seconds",
			Help: "Read run duration in seconds",
			Buckets: []float64{
				.001, // tiny in-memory inputs
				.01,
				.1,
				1,
				10,
				60,
				600, // multi-GB on-disk reads
			},
		},
	)

	// ColumnsOnDisk gauges how many columns of the latest read are
	// file-backed.
	ColumnsOnDisk = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tabular_columns_on_disk",
			Help: "File-backed columns in the most recent read",
		},
	)
)

// ObserveRead records the outcome of one read run.
func ObserveRead(start time.Time, rows, bytes int64, extraPasses int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	ReadsTotal.WithLabelValues(status).Inc()
	ReadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return
	}
	RowsRead.Add(float64(rows))
	BytesRead.Add(float64(bytes))
	if extraPasses > 0 {
		TypePromotions.Add(float64(extraPasses))
	}
}
