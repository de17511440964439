package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Upload("csv", OutcomeAccepted)
	m.Upload("csv", OutcomeAccepted)
	m.Upload("", OutcomeRejected)
	m.Operation("remove_duplicates", false)
	m.Export("xlsx")
	m.SetSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues("csv", OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("unknown", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("remove_duplicates", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("xlsx")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Upload("csv", OutcomeAccepted)
	m.ObserveParse("csv", time.Millisecond)
	m.Operation("fill_missing", true)
	m.Export("csv")
	m.SetSessions(1)
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	assert.NotNil(t, m.Handler())
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Export("csv")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `datasweeper_exports_total{format="csv"} 1`)
}
