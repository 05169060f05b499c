// Package observability provides Prometheus metrics for response parsing.
package observability

import "github.com/prometheus/client_golang/prometheus"

// ParseBuckets covers parse latencies from 10µs to 100ms.
var ParseBuckets = []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}

var (
	// ParsesTotal counts registry parse calls by model and result
	// ("ok" or the error kind).
	ParsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptogen_parses_total",
			Help: "Total parse calls",
		},
		[]string{"model", "result"},
	)

	// ParseDuration records time spent in registry parse calls.
	ParseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adaptogen_parse_duration_seconds",
			Help:    "Parse duration",
			Buckets: ParseBuckets,
		},
		[]string{"model"},
	)

	// BlocksTotal counts normalized blocks emitted by the ingest pipeline.
	BlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptogen_blocks_total",
			Help: "Normalized blocks",
		},
		[]string{"model", "type"},
	)

	// DuplicatesTotal counts raw responses dropped as duplicates.
	DuplicatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adaptogen_duplicates_total",
			Help: "Dropped duplicate responses",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ParsesTotal,
		ParseDuration,
		BlocksTotal,
		DuplicatesTotal,
	)
}
