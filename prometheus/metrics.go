package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"school-service/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	LoginCounter       prometheus.Counter
	RegisterCounter    prometheus.Counter
	AuthErrorsCounter  prometheus.CounterVec
	ActiveTokensGauge  prometheus.Gauge

	// Tenant scoping metrics
	ScopeEmptyCounter           prometheus.Counter
	TenantContextMissingCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Resource metrics
	ResourceOperationsCounter prometheus.CounterVec

	// School population metrics
	StudentsPerSchoolGauge prometheus.GaugeVec
	ActiveSchoolsGauge     prometheus.Gauge

	// Fee metrics
	PaymentsRecordedCounter prometheus.Counter

	// Chat metrics
	ChatConnectionsGauge prometheus.Gauge
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	LoginCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_logins_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_registrations_total",
			Help: "Total number of registration attempts",
		},
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication and authorization errors",
		},
		[]string{"reason"},
	)

	ActiveTokensGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_active_tokens",
			Help: "Number of issued tokens not yet expired (approximate)",
		},
	)

	ScopeEmptyCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_scope_empty_total",
			Help: "Total number of reads answered with an empty set because no school resolved",
		},
	)

	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of writes refused because no school resolved",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ResourceOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_resource_operations_total",
			Help: "Total number of resource operations",
		},
		[]string{"resource", "operation"},
	)

	StudentsPerSchoolGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_students_per_school",
			Help: "Number of active students per school",
		},
		[]string{"school_id", "school_name"},
	)

	ActiveSchoolsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_active_schools",
			Help: "Number of active schools",
		},
	)

	PaymentsRecordedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_payments_recorded_total",
			Help: "Total number of fee payments recorded",
		},
	)

	ChatConnectionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_chat_connections",
			Help: "Number of open chat websocket connections",
		},
	)
}

// GetPrometheusHandler returns the /metrics handler
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAuthError increments the auth error counter for a reason
func RecordAuthError(reason string) {
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordResourceOperation increments the counter for resource operations
func RecordResourceOperation(resource, operation string) {
	ResourceOperationsCounter.WithLabelValues(resource, operation).Inc()
}

// UpdateStudentsPerSchool updates the gauge for students per school
func UpdateStudentsPerSchool(schoolID, schoolName string, count int) {
	StudentsPerSchoolGauge.WithLabelValues(schoolID, schoolName).Set(float64(count))
}

// UpdateActiveSchools updates the active schools gauge
func UpdateActiveSchools(count int) {
	ActiveSchoolsGauge.Set(float64(count))
}

// RecordHTTPRequest records one completed HTTP request
func RecordHTTPRequest(method, path string, status int, seconds float64) {
	s := strconv.Itoa(status)
	HttpRequestsTotal.WithLabelValues(method, path, s).Inc()
	HttpRequestDuration.WithLabelValues(method, path, s).Observe(seconds)
}
