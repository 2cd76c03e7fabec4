// Package metrics holds the Prometheus collectors for tool calls and HTTP
// requests. Each Metrics owns its registry so servers and tests do not share
// global state.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fiscal_br"

// Tool call outcomes. UpstreamFail marks a failed registry consultation,
// Error any other handler failure.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidArgs  = "invalid_args"
	OutcomeUnknownTool  = "unknown_tool"
	OutcomeUpstreamFail = "upstream_fail"
	OutcomeError        = "error"
)

// Signature verification outcomes
const (
	SignatureValid    = "valid"
	SignatureInvalid  = "invalid"
	SignatureUnsigned = "unsigned"
)

// Metrics groups the collectors
type Metrics struct {
	registry     *prometheus.Registry
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	nfeValidated *prometheus.CounterVec
	nfeSigned    *prometheus.CounterVec
}

// New creates the collectors and registers them, plus the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool invocation latency.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"tool"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		nfeValidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nfe_validations_total",
			Help:      "NF-e documents validated, by result.",
		}, []string{"valid"}),
		nfeSigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nfe_signatures_total",
			Help:      "NF-e signature verifications, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.httpRequests,
		m.nfeValidated,
		m.nfeSigned,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveToolCall records one tool invocation
func (m *Metrics) ObserveToolCall(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// ObserveValidation records one NF-e validation result
func (m *Metrics) ObserveValidation(valid bool) {
	if m == nil {
		return
	}
	label := "false"
	if valid {
		label = "true"
	}
	m.nfeValidated.WithLabelValues(label).Inc()
}

// ObserveSignature records one signature verification outcome
func (m *Metrics) ObserveSignature(result string) {
	if m == nil {
		return
	}
	m.nfeSigned.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
