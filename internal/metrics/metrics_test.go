package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMetricsRecordMutation(t *testing.T) {
	m, err := NewStoreMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordMutation("noodles", "update", StatusOK, time.Millisecond)
	m.RecordMutation("noodles", "update", StatusOK, time.Millisecond)
	m.RecordMutation("noodles", "update", StatusRejected, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("noodles", "update", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("noodles", "update", StatusRejected)))
}

func TestStoreMetricsRecordRejection(t *testing.T) {
	m, err := NewStoreMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordRejection("reviewsCount")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejectionsTotal.WithLabelValues("reviewsCount")))
}

func TestStoreMetricsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewStoreMetrics(reg)
	require.NoError(t, err)
	_, err = NewStoreMetrics(reg)
	assert.Error(t, err)
}

func TestNilStoreMetrics(t *testing.T) {
	var m *StoreMetrics
	assert.NotPanics(t, func() {
		m.RecordMutation("noodles", "create", StatusOK, time.Second)
		m.RecordRejection("name")
	})
}
