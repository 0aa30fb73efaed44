package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Vendor and purchase order metrics
	VendorOperationsCounter     *prometheus.CounterVec
	PurchaseOrderTransitions    *prometheus.CounterVec
	ActiveVendorsGauge          prometheus.Gauge
	VendorPerformanceIndicators *prometheus.GaugeVec

	// Background job metrics
	JobsEnqueuedCounter *prometheus.CounterVec
	JobRunsCounter      *prometheus.CounterVec
	JobRunDuration      *prometheus.HistogramVec

	initOnce sync.Once
)

// InitMetrics registers the service metrics with the default registry.
// Only the first call has an effect; the Record helpers are no-ops before it.
func InitMetrics(prefix string) {
	initOnce.Do(func() {
		HttpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		HttpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		AuthAttemptsCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
		)

		AuthSuccessCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_success_total",
				Help: "Total number of successful authentications",
			},
		)

		AuthErrorsCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of authentication errors",
			},
		)

		DbOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		)

		VendorOperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_operations_total",
				Help: "Total number of vendor and purchase order API operations",
			},
			[]string{"operation"},
		)

		PurchaseOrderTransitions = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_purchase_order_transitions_total",
				Help: "Purchase order lifecycle actions by outcome",
			},
			[]string{"action", "outcome"},
		)

		ActiveVendorsGauge = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_active_vendors",
				Help: "Number of vendors that are not soft-deleted",
			},
		)

		VendorPerformanceIndicators = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "_vendor_performance",
				Help: "Latest computed performance indicator per vendor",
			},
			[]string{"vendor_code", "indicator"},
		)

		JobsEnqueuedCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_jobs_enqueued_total",
				Help: "Total number of background jobs enqueued",
			},
			[]string{"task"},
		)

		JobRunsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_job_runs_total",
				Help: "Background job executions by outcome",
			},
			[]string{"task", "outcome"},
		)

		JobRunDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_job_run_duration_seconds",
				Help:    "Duration of background job executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"task"},
		)
	})
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordAuthAttempt records an authentication attempt and its result
func RecordAuthAttempt(success bool) {
	if AuthAttemptsCounter == nil {
		return
	}
	AuthAttemptsCounter.Inc()
	if success {
		AuthSuccessCounter.Inc()
	} else {
		AuthErrorsCounter.Inc()
	}
}

// RecordOperation increments the counter for API operations
func RecordOperation(operation string) {
	if VendorOperationsCounter == nil {
		return
	}
	VendorOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordTransition records a purchase order lifecycle action
func RecordTransition(action string, err error) {
	if PurchaseOrderTransitions == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	PurchaseOrderTransitions.WithLabelValues(action, outcome).Inc()
}

// UpdateActiveVendors updates the active vendors gauge
func UpdateActiveVendors(count int64) {
	if ActiveVendorsGauge == nil {
		return
	}
	ActiveVendorsGauge.Set(float64(count))
}

// UpdateVendorPerformance publishes the four indicators of a vendor
func UpdateVendorPerformance(vendorCode string, onTime, quality, responseTime, fulfillment float64) {
	if VendorPerformanceIndicators == nil {
		return
	}
	VendorPerformanceIndicators.WithLabelValues(vendorCode, "on_time_delivery_rate").Set(onTime)
	VendorPerformanceIndicators.WithLabelValues(vendorCode, "quality_rating_avg").Set(quality)
	VendorPerformanceIndicators.WithLabelValues(vendorCode, "avg_response_time").Set(responseTime)
	VendorPerformanceIndicators.WithLabelValues(vendorCode, "fulfillment_rate").Set(fulfillment)
}

// RecordJobEnqueued counts a job written to the queue
func RecordJobEnqueued(task string) {
	if JobsEnqueuedCounter == nil {
		return
	}
	JobsEnqueuedCounter.WithLabelValues(task).Inc()
}

// RecordJobRun records the outcome and duration of one job execution
func RecordJobRun(task, outcome string, duration time.Duration) {
	if JobRunsCounter == nil {
		return
	}
	JobRunsCounter.WithLabelValues(task, outcome).Inc()
	JobRunDuration.WithLabelValues(task).Observe(duration.Seconds())
}
