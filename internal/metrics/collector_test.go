package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector tests
// =============================================================================

func TestNewCollector(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.pipelineRequestsTotal)
	assert.NotNil(t, collector.handoversTotal)
	assert.NotNil(t, collector.catalogAgents)
	assert.NotNil(t, collector.storeOperationsTotal)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("GET", "/test", 200, 50*time.Millisecond, 512, 1024)

	newCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.GreaterOrEqual(t, newCount, count)
}

func TestCollector_RecordPipeline(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordPipeline("sequential", "success", 2*time.Second)
	collector.RecordStage("analyze", 150*time.Millisecond)
	collector.RecordStage("plan", 5*time.Millisecond)

	count := testutil.CollectAndCount(collector.pipelineRequestsTotal)
	assert.Greater(t, count, 0)

	stageCount := testutil.CollectAndCount(collector.stageDuration)
	assert.Greater(t, stageCount, 0)
}

func TestCollector_RecordClassification(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordClassification("classifier", "success", 300*time.Millisecond)
	collector.RecordClassification("fallback", "success", time.Millisecond)

	count := testutil.CollectAndCount(collector.classificationsTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordHandover(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordHandover("summarizer-1", "summarize", "completed", time.Second)
	collector.RecordConfidence("summarizer-1", 0.87)

	count := testutil.CollectAndCount(collector.handoversTotal)
	assert.Greater(t, count, 0)

	confCount := testutil.CollectAndCount(collector.responseConfidence)
	assert.Greater(t, confCount, 0)
}

func TestCollector_CatalogGauges(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.SetCatalogSize(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(collector.catalogAgents))

	collector.SetCatalogDegraded(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.catalogDegraded))

	collector.SetCatalogDegraded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.catalogDegraded))

	collector.RecordCatalogRefresh("success", 80*time.Millisecond)
	count := testutil.CollectAndCount(collector.catalogRefreshesTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordStoreOperation(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordStoreOperation("redis", "create", "success", 3*time.Millisecond)
	collector.RecordStoreOperation("redis", "finalize", "error", 5*time.Millisecond)

	count := testutil.CollectAndCount(collector.storeOperationsTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_UpdateConnectionPool(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordDBConnections("postgres", 10, 5)

	openCount := testutil.CollectAndCount(collector.dbConnectionsOpen)
	assert.Greater(t, openCount, 0)

	idleCount := testutil.CollectAndCount(collector.dbConnectionsIdle)
	assert.Greater(t, idleCount, 0)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)
			collector.RecordHandover("agent-1", "research", "completed", 500*time.Millisecond)
			collector.RecordStoreOperation("memory", "create", "success", time.Millisecond)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	httpCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, httpCount, 0)

	handoverCount := testutil.CollectAndCount(collector.handoversTotal)
	assert.Greater(t, handoverCount, 0)

	storeCount := testutil.CollectAndCount(collector.storeOperationsTotal)
	assert.Greater(t, storeCount, 0)
}

func TestCollector_MetricsRegistration(t *testing.T) {
	logger := zap.NewNop()

	registry := prometheus.NewRegistry()

	collector := NewCollector(nextTestNamespace(), logger)

	registry.MustRegister(collector.httpRequestsTotal)
	registry.MustRegister(collector.httpRequestDuration)

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 0, 0)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)
}

func TestStatusCodeBuckets(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{599, "5xx"},
		{100, "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusCode(tc.code), "code %d", tc.code)
	}
}
