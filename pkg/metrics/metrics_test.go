package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/templatemailer/pkg/metrics"
)

func TestObserveSend(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New("test")
	require.NoError(t, m.Register(reg))

	m.ObserveSend("welcome", metrics.ResultSuccess, 2, 0)
	m.ObserveSend("welcome", metrics.ResultPartial, 1, 1)

	count, err := testutil.GatherAndCount(reg, "test_emails_sent_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "test_recipients_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "status" {
					values[l.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	require.InDelta(t, 3, values["delivered"], 0)
	require.InDelta(t, 1, values["failed"], 0)
}

func TestObserveRenderAndLookup(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New("")
	require.NoError(t, m.Register(reg))

	m.ObserveRender("welcome", "html", 2*time.Millisecond, nil)
	m.ObserveRender("welcome", "txt", time.Millisecond, errors.New("boom"))
	m.ObserveLookup(true)
	m.ObserveLookup(false)
	m.ObserveLookup(false)

	count, err := testutil.GatherAndCount(reg, "templatemailer_renders_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "templatemailer_template_lookups_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestRegister_Duplicate(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.New("dup").Register(reg))
	require.Error(t, metrics.New("dup").Register(reg))
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.ObserveSend("welcome", metrics.ResultFailed, 0, 1)
		m.ObserveRender("welcome", "html", time.Millisecond, nil)
		m.ObserveLookup(true)
	})
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New("http")
	require.NoError(t, m.Register(reg))
	m.ObserveLookup(true)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_template_lookups_total")
}
