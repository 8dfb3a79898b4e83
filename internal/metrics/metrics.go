// Package metrics holds the Prometheus collectors of the solver service.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/costela/simplex/tableau"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Solve outcomes, used as the outcome label.
const (
	OutcomeOptimal        = "optimal"
	OutcomeUnbounded      = "unbounded"
	OutcomeIterationLimit = "iteration_limit"
	OutcomeInvalid        = "invalid"
	OutcomeCanceled       = "canceled"
)

// Metrics owns a private registry, so several instances can live in one
// process (tests, embedded servers).
type Metrics struct {
	registry *prometheus.Registry

	SolvesTotal         *prometheus.CounterVec   // outcome
	Pivots              *prometheus.HistogramVec // sense
	HTTPRequestsTotal   *prometheus.CounterVec   // method, path, status
	HTTPRequestDuration *prometheus.HistogramVec // method, path
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.SolvesTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "simplex_solves_total",
		Help: "Number of solve requests by outcome",
	}, []string{"outcome"})

	m.Pivots = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simplex_pivots",
		Help:    "Pivots performed by successful solves",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"sense"})

	m.HTTPRequestsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	return m
}

func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSolve counts a solve. pivots is only recorded for optimal ones.
func (m *Metrics) ObserveSolve(sense string, pivots int, err error) {
	outcome := Outcome(err)
	m.SolvesTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOptimal {
		m.Pivots.WithLabelValues(sense).Observe(float64(pivots))
	}
}

// Outcome classifies the error of a solve. Anything that is not a solver
// failure or a cancellation is an invalid problem.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOptimal
	case errors.Is(err, tableau.ErrUnbounded):
		return OutcomeUnbounded
	case errors.Is(err, tableau.ErrIterationLimit):
		return OutcomeIterationLimit
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeInvalid
	}
}
