package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()

	m.ObserveHTTPRequest("GET", "/api/materias/progreso", 200, 10*time.Millisecond)
	m.ObserveUpstreamRequest("materias_progreso", 200, time.Millisecond)
	m.ObserveUpstreamRequest("materias_progreso", 0, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordImportEvent(ImportEventOpened)
	m.RecordImportEvent(ImportEventUploadSucceeded)
	m.ObserveValidation(3)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 10.0, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snap.UpstreamRequests)
	assert.Equal(t, uint64(1), snap.UpstreamFailures)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snap.ImportsOpened)
	assert.Equal(t, uint64(1), snap.UploadsSucceeded)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.importEvents.WithLabelValues(ImportEventOpened)))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	m.RecordImportEvent(ImportEventOpened)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}
