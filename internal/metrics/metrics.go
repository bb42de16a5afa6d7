// Package metrics declares the Prometheus series exported by the monitor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ratio_fetch_total", Help: "Upstream ratio requests by endpoint and outcome"},
		[]string{"symbol", "method", "outcome"},
	)
	LongPct = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "sentiment_long_pct", Help: "Latest smoothed long percentage"},
		[]string{"symbol"},
	)
	ReadingErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentiment_errors_total", Help: "Readings replaced by the neutral fallback"},
		[]string{"symbol"},
	)
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "monitor_ticks_total", Help: "Completed refresh cycles"},
	)
	TickSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "monitor_tick_seconds", Help: "Wall time of one refresh cycle", Buckets: prometheus.DefBuckets},
	)
	StreamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "dashboard_stream_clients", Help: "Connected dashboard websocket clients"},
	)
)

func init() {
	prometheus.MustRegister(FetchTotal, LongPct, ReadingErrors, TicksTotal, TickSeconds, StreamClients)
}

// Handler exposes the default registry in the text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
