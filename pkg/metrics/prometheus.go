// Package metrics provides Prometheus metrics for the omiai matchmaking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the omiai service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	scoreBuckets     []float64
	enabled          bool
	registry         prometheus.Registerer

	// Core business metrics
	compatibilityChecks prometheus.Counter
	compatibilityScores prometheus.Histogram
	meetingsScheduled   prometheus.Counter
	meetingsDeclined    prometheus.Counter
	nearbyQueries       prometheus.Counter

	// Moderation metrics
	messagesScreened prometheus.Counter
	messagesBlocked  prometheus.Counter
	usersFlagged     prometheus.Counter

	// Consent metrics
	consentGranted prometheus.Counter
	consentDenied  prometheus.Counter

	// Population gauges
	registeredUsers prometheus.Gauge
	activeMeetings  prometheus.Gauge
	blockedUsers    prometheus.Gauge
	dangerousUsers  prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "omiai",
		subsystem:        "match",
		histogramBuckets: prometheus.DefBuckets,
		scoreBuckets:     []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.compatibilityChecks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compatibility_checks_total",
		Help:      "Total number of pairwise compatibility computations",
	})

	m.compatibilityScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compatibility_score",
		Help:      "Distribution of composed compatibility scores",
		Buckets:   m.scoreBuckets,
	})

	m.meetingsScheduled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "meetings_scheduled_total",
		Help:      "Total number of meetings scheduled after passing the threshold",
	})

	m.meetingsDeclined = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "meetings_declined_total",
		Help:      "Total number of pairings declined by the threshold",
	})

	m.nearbyQueries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "nearby_queries_total",
		Help:      "Total number of nearby-user radius queries",
	})

	m.messagesScreened = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "messages_screened_total",
		Help:      "Total number of text messages passed through moderation",
	})

	m.messagesBlocked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "messages_blocked_total",
		Help:      "Total number of messages rejected by the blocklist",
	})

	m.usersFlagged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "users_flagged_total",
		Help:      "Total number of user flag reports",
	})

	m.consentGranted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "consent_granted_total",
		Help:      "Total number of geolocation consent grants",
	})

	m.consentDenied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "consent_denied_total",
		Help:      "Total number of geolocation consent denials",
	})

	m.registeredUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "registered_users",
		Help:      "Current number of user records in the directory",
	})

	m.activeMeetings = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_meetings",
		Help:      "Current number of meetings in the roster",
	})

	m.blockedUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "blocked_users",
		Help:      "Current number of blocked users",
	})

	m.dangerousUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dangerous_users",
		Help:      "Current number of users at or above the danger flag threshold",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP error responses by endpoint and class",
		},
		[]string{"endpoint", "method", "error_type"},
	)
}

// Package-level helpers operating on the global manager.

// RecordCompatibilityCheck records one scoring call and its composed score.
func RecordCompatibilityCheck(score float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.compatibilityChecks.Inc()
		globalManager.compatibilityScores.Observe(score)
	}
}

// RecordMeetingScheduled increments the scheduled-meeting counter.
func RecordMeetingScheduled() {
	if globalManager != nil && globalManager.enabled {
		globalManager.meetingsScheduled.Inc()
	}
}

// RecordMeetingDeclined increments the declined-pairing counter.
func RecordMeetingDeclined() {
	if globalManager != nil && globalManager.enabled {
		globalManager.meetingsDeclined.Inc()
	}
}

// RecordNearbyQuery increments the nearby-query counter.
func RecordNearbyQuery() {
	if globalManager != nil && globalManager.enabled {
		globalManager.nearbyQueries.Inc()
	}
}

// RecordMessageScreened increments the screened-message counter.
func RecordMessageScreened() {
	if globalManager != nil && globalManager.enabled {
		globalManager.messagesScreened.Inc()
	}
}

// RecordMessageBlocked increments the blocked-message counter.
func RecordMessageBlocked() {
	if globalManager != nil && globalManager.enabled {
		globalManager.messagesBlocked.Inc()
	}
}

// RecordUserFlagged increments the flag-report counter.
func RecordUserFlagged() {
	if globalManager != nil && globalManager.enabled {
		globalManager.usersFlagged.Inc()
	}
}

// RecordConsent records a consent outcome.
func RecordConsent(granted bool) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	if granted {
		globalManager.consentGranted.Inc()
	} else {
		globalManager.consentDenied.Inc()
	}
}

// UpdateRegisteredUsers sets the directory population gauge.
func UpdateRegisteredUsers(count int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.registeredUsers.Set(float64(count))
	}
}

// UpdateActiveMeetings sets the roster population gauge.
func UpdateActiveMeetings(count int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.activeMeetings.Set(float64(count))
	}
}

// UpdateBlockedUsers sets the blocklist population gauge.
func UpdateBlockedUsers(count int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.blockedUsers.Set(float64(count))
	}
}

// UpdateDangerousUsers sets the dangerous-user gauge.
func UpdateDangerousUsers(count int) {
	if globalManager != nil && globalManager.enabled {
		globalManager.dangerousUsers.Set(float64(count))
	}
}

// RecordHTTPRequest records an HTTP request by endpoint, method and status.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager != nil && globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager != nil && globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordHTTPError records an HTTP error response by class.
func RecordHTTPError(endpoint, method, errorType string) {
	if globalManager != nil && globalManager.enabled {
		globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
