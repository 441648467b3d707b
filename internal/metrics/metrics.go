// Package metrics holds the Prometheus registry and instruments shared across
// the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "web3events"

// Registry is the global Prometheus registry for all metrics.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels on a constant gauge.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always 1, version info in labels)",
	},
	[]string{"version", "commit"},
)

// SessionsSwept counts sessions the cleanup job deactivated.
var SessionsSwept = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_swept_total",
		Help:      "Total number of expired sessions deactivated by the cleanup job",
	},
)

// SessionSweepDuration records cleanup job runtime.
var SessionSweepDuration = promauto.With(Registry).NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_sweep_duration_seconds",
		Help:      "Duration of session cleanup job execution in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	},
)

// SessionSweepErrors counts cleanup job failures.
var SessionSweepErrors = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_sweep_errors_total",
		Help:      "Total number of session cleanup job failures",
	},
)

// Logins counts successful wallet logins.
var Logins = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of successful wallet logins",
	},
)

// BookmarkToggles counts bookmark state flips by resulting state.
var BookmarkToggles = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookmark_toggles_total",
		Help:      "Total number of bookmark toggles",
	},
	[]string{"state"},
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
