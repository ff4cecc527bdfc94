package server

import "github.com/prometheus/client_golang/prometheus"

var (
	// buckets for seconds resolutions of histograms
	buckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5}

	requestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tabular",
			Name:      "request_duration_seconds",
			Help:      "Time taken to serve an HTTP request.",
			Buckets:   buckets,
		},
	)
)

var (
	requestsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tabular",
		Name:      "requests_received",
	})
	requestsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tabular",
		Name:      "requests_rejected",
	})
	requestsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tabular",
		Name:      "requests_failed",
	})
)

var (
	tablesServed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tabular",
		Name:      "tables_served",
		Help:      "Tables currently registered.",
	})
)

func init() {
	prometheus.DefaultRegisterer.MustRegister(
		requestDuration,
		requestsReceived,
		requestsRejected,
		requestsFailed,
		tablesServed,
	)
}
