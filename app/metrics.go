package app

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xirivella_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"path", "status"})

	upstreamFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xirivella_upstream_fetch_duration_seconds",
		Help:    "Duration of league API fetches in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	calendarEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xirivella_calendar_events",
		Help: "Number of events in the most recently built feed",
	})
)

func recordRequest(path string, status int) {
	httpRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

// MetricsHandler exposes the Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
