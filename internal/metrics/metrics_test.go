package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hijrical/internal/model"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveRefresh(ResultSuccess, time.Second)
	m.ObserveRefresh(ResultSkipped, 0)
	m.ObserveRefresh(ResultSuccess, time.Second)
	m.ObserveFetch("example.org", FetchFresh)
	m.SetCalendar([]model.MonthDefinition{
		{Source: model.SourceCalculated},
		{Source: model.SourceManual},
		{Source: model.SourceManual},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues(ResultSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues("example.org", FetchFresh)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.months.WithLabelValues("manual")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.months.WithLabelValues("authority")))
	assert.Positive(t, testutil.ToFloat64(m.lastRefresh))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hijrical_refresh_total")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRefresh(ResultError, time.Second)
	m.ObserveFetch("h", FetchError)
	m.SetCalendar(nil)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
