package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copper_api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	// ActiveConnections tracks in-flight requests
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "copper_api_active_connections",
			Help: "Number of in-flight HTTP requests",
		},
	)

	// CacheHits tracks cache hits by operation
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copper_api_cache_hits_total",
			Help: "Number of cache hits",
		},
		[]string{"operation"},
	)

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copper_api_database_operations_total",
			Help: "Number of database operations",
		},
		[]string{"operation", "status"},
	)

	// OTPCodesSent tracks send-otp outcomes, labelled by result and region
	OTPCodesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copper_api_otp_codes_sent_total",
			Help: "Number of OTP send attempts by result",
		},
		[]string{"result", "region"},
	)

	// OTPValidations tracks validate-otp outcomes
	OTPValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copper_api_otp_validations_total",
			Help: "Number of OTP validation attempts by result",
		},
		[]string{"result"},
	)

	// OTPSweptRecords counts expired pending records removed by sweeps
	OTPSweptRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copper_api_otp_swept_records_total",
			Help: "Number of expired OTP records removed by sweeps",
		},
	)

	// AccountsCreated tracks registration outcomes
	AccountsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copper_api_accounts_created_total",
			Help: "Number of account creation attempts by result",
		},
		[]string{"result"},
	)

	// AuditEventsDropped counts audit events discarded because the buffer was full
	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copper_api_audit_events_dropped_total",
			Help: "Number of audit events dropped due to a full buffer",
		},
	)
)
