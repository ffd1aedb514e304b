// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 Metrics collector
// =============================================================================

// Collector records Prometheus metrics for the orchestration pipeline.
type Collector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Pipeline metrics
	pipelineRequestsTotal  *prometheus.CounterVec
	pipelineDuration       *prometheus.HistogramVec
	stageDuration          *prometheus.HistogramVec
	classificationsTotal   *prometheus.CounterVec
	classificationDuration *prometheus.HistogramVec

	// Handover metrics
	handoversTotal     *prometheus.CounterVec
	handoverDuration   *prometheus.HistogramVec
	responseConfidence *prometheus.HistogramVec

	// Catalog metrics
	catalogAgents          prometheus.Gauge
	catalogDegraded        prometheus.Gauge
	catalogRefreshesTotal  *prometheus.CounterVec
	catalogRefreshDuration prometheus.Histogram

	// Persistence metrics
	storeOperationsTotal   *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec
	dbConnectionsOpen      *prometheus.GaugeVec
	dbConnectionsIdle      *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector creates a collector with all metric families registered under namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP metrics
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// Pipeline metrics
	c.pipelineRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_requests_total",
			Help:      "Total number of orchestration requests",
		},
		[]string{"strategy", "status"},
	)

	c.pipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end orchestration duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"strategy"},
	)

	c.stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Per-stage pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	c.classificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Total number of query classifications",
		},
		[]string{"mode", "status"}, // mode: classifier, fallback
	)

	c.classificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_duration_seconds",
			Help:      "Query classification duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"mode"},
	)

	// Handover metrics
	c.handoversTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handovers_total",
			Help:      "Total number of agent handovers",
		},
		[]string{"agent_id", "capability", "status"},
	)

	c.handoverDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handover_duration_seconds",
			Help:      "Agent handover duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"agent_id", "capability"},
	)

	c.responseConfidence = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_confidence",
			Help:      "Confidence score distribution of agent responses",
			Buckets:   []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 1},
		},
		[]string{"agent_id"},
	)

	// Catalog metrics
	c.catalogAgents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_agents",
			Help:      "Number of agents currently registered in the catalog",
		},
	)

	c.catalogDegraded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_degraded",
			Help:      "Whether the catalog is serving stale data (1) or fresh data (0)",
		},
	)

	c.catalogRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refreshes_total",
			Help:      "Total number of catalog refresh attempts",
		},
		[]string{"status"},
	)

	c.catalogRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_duration_seconds",
			Help:      "Catalog refresh duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	// Persistence metrics
	c.storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of handover store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	c.storeOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Handover store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	c.dbConnectionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP metrics
// =============================================================================

// RecordHTTPRequest records one HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🔀 Pipeline metrics
// =============================================================================

// RecordPipeline records one orchestration request end to end.
func (c *Collector) RecordPipeline(strategy, status string, duration time.Duration) {
	c.pipelineRequestsTotal.WithLabelValues(strategy, status).Inc()
	c.pipelineDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordStage records a single pipeline stage (analyze, plan, execute, synthesize).
func (c *Collector) RecordStage(stage string, duration time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordClassification records a query classification attempt.
// mode is "classifier" or "fallback".
func (c *Collector) RecordClassification(mode, status string, duration time.Duration) {
	c.classificationsTotal.WithLabelValues(mode, status).Inc()
	c.classificationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// =============================================================================
// 🤝 Handover metrics
// =============================================================================

// RecordHandover records one agent handover.
func (c *Collector) RecordHandover(agentID, capability, status string, duration time.Duration) {
	c.handoversTotal.WithLabelValues(agentID, capability, status).Inc()
	c.handoverDuration.WithLabelValues(agentID, capability).Observe(duration.Seconds())
}

// RecordConfidence records the confidence score of an agent response.
func (c *Collector) RecordConfidence(agentID string, score float64) {
	c.responseConfidence.WithLabelValues(agentID).Observe(score)
}

// =============================================================================
// 📇 Catalog metrics
// =============================================================================

// SetCatalogSize records the number of registered agents.
func (c *Collector) SetCatalogSize(n int) {
	c.catalogAgents.Set(float64(n))
}

// SetCatalogDegraded records whether the catalog is serving stale data.
func (c *Collector) SetCatalogDegraded(degraded bool) {
	if degraded {
		c.catalogDegraded.Set(1)
	} else {
		c.catalogDegraded.Set(0)
	}
}

// RecordCatalogRefresh records one registry refresh attempt.
func (c *Collector) RecordCatalogRefresh(status string, duration time.Duration) {
	c.catalogRefreshesTotal.WithLabelValues(status).Inc()
	c.catalogRefreshDuration.Observe(duration.Seconds())
}

// =============================================================================
// 🗄️ Persistence metrics
// =============================================================================

// RecordStoreOperation records one handover store operation.
func (c *Collector) RecordStoreOperation(backend, operation, status string, duration time.Duration) {
	c.storeOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	c.storeOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordDBConnections records database connection pool state.
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// =============================================================================
// 🔧 Helpers
// =============================================================================

// statusCode buckets an HTTP status code for the status label.
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
