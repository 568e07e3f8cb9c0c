// Package metrics holds the Prometheus collectors for dirtar.
//
// Collectors are package level and registered with the default registry
// once, so any package can record into them without wiring.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Archive build results.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultCancelled = "cancelled"
)

var (
	once         sync.Once
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dirtar",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by request class and status code.",
		},
		[]string{"class", "code"},
	)
	archiveBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dirtar",
			Subsystem: "archive",
			Name:      "builds_total",
			Help:      "Archive builds by result.",
		},
		[]string{"result"},
	)
	archiveBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dirtar",
			Subsystem: "archive",
			Name:      "bytes",
			Help:      "Size of successfully built archives.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 12),
		},
	)
	archiveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dirtar",
			Subsystem: "archive",
			Name:      "build_seconds",
			Help:      "Time spent building archives.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	archiveInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dirtar",
			Subsystem: "archive",
			Name:      "builds_inflight",
			Help:      "Archive builds currently running.",
		},
	)
)

func init() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, archiveBuilds, archiveBytes, archiveDuration, archiveInflight)
	})
}

// ObserveRequest counts one finished HTTP request.
func ObserveRequest(class string, code int) {
	if class == "" {
		class = "other"
	}
	httpRequests.WithLabelValues(class, strconv.Itoa(code)).Inc()
}

func IncArchiveInflight() { archiveInflight.Inc() }
func DecArchiveInflight() { archiveInflight.Dec() }

// ObserveArchiveBuild records the outcome of one archive build. Size is only
// recorded for successful builds.
func ObserveArchiveBuild(result string, size int64, d time.Duration) {
	archiveBuilds.WithLabelValues(result).Inc()
	archiveDuration.Observe(d.Seconds())
	if result == ResultOK {
		archiveBytes.Observe(float64(size))
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
