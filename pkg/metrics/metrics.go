// Package metrics exposes Prometheus collectors for email rendering and delivery.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Send results.
const (
	ResultSuccess = "success"
	ResultPartial = "partial"
	ResultFailed  = "failed"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	sends          *prometheus.CounterVec
	recipients     *prometheus.CounterVec
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	lookups        *prometheus.CounterVec
}

// New creates the collectors under namespace (default: templatemailer).
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "templatemailer"
	}

	return &Metrics{
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Total number of send attempts grouped by template and result",
		}, []string{"template", "result"}),
		recipients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipients_total",
			Help:      "Total number of recipients grouped by template and delivery status",
		}, []string{"template", "status"}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total number of template renders grouped by format and result",
		}, []string{"template", "format", "result"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Template render latency",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"format"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_lookups_total",
			Help:      "Total number of template lookups grouped by cache status",
		}, []string{"cache"}),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.sends, m.recipients, m.renders, m.renderDuration, m.lookups}
}

// ObserveSend records one send outcome.
func (m *Metrics) ObserveSend(template, result string, delivered, failed int) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(template, result).Inc()
	m.recipients.WithLabelValues(template, "delivered").Add(float64(delivered))
	m.recipients.WithLabelValues(template, "failed").Add(float64(failed))
}

// ObserveRender records one template render.
func (m *Metrics) ObserveRender(template, format string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailed
	}
	m.renders.WithLabelValues(template, format, result).Inc()
	m.renderDuration.WithLabelValues(format).Observe(d.Seconds())
}

// ObserveLookup records whether a template lookup was served from cache.
func (m *Metrics) ObserveLookup(cacheHit bool) {
	if m == nil {
		return
	}
	status := "miss"
	if cacheHit {
		status = "hit"
	}
	m.lookups.WithLabelValues(status).Inc()
}

// Handler returns an HTTP handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
