// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "complaintdesk"

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	GateDecisions   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LoginAttempts   *prometheus.CounterVec

	ReaperRuns        *prometheus.CounterVec
	ReaperDeleted     *prometheus.CounterVec
	ReaperDuration    prometheus.Histogram
	ReaperLastSuccess prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Access gate decisions by outcome and reason",
		}, []string{"decision", "reason"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by method and result",
		}, []string{"method", "result"}),
		ReaperRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_runs_total",
			Help:      "Notification reaper passes by result",
		}, []string{"result", "error_class"}),
		ReaperDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaper_notifications_deleted_total",
			Help:      "Notifications removed by the reaper",
		}, []string{"operation"}),
		ReaperDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reaper_run_duration_seconds",
			Help:      "Duration of one reaper pass",
			Buckets:   prometheus.DefBuckets,
		}),
		ReaperLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reaper_last_success_timestamp_seconds",
			Help:      "Unix time of the last reaper pass without errors",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.GateDecisions, m.RequestDuration, m.LoginAttempts,
			m.ReaperRuns, m.ReaperDeleted, m.ReaperDuration, m.ReaperLastSuccess,
		)
	}
	return m
}

// Login results.
const (
	LoginSuccess   = "success"
	LoginRejected  = "rejected"
	LoginThrottled = "throttled"
	LoginError     = "error"
)

// Reaper results.
const (
	ResultSuccess = "success"
	ResultNoop    = "noop"
	ResultError   = "error"
)

// RecordGateDecision counts one gate decision.
func (m *Metrics) RecordGateDecision(decision, reason string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(decision, reason).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordLogin counts one login attempt.
func (m *Metrics) RecordLogin(method, result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(method, result).Inc()
}

// RecordReaperRun records one reaper pass. errorClass is empty on success.
func (m *Metrics) RecordReaperRun(result, errorClass string, elapsed time.Duration, now time.Time) {
	if m == nil {
		return
	}
	m.ReaperRuns.WithLabelValues(result, errorClass).Inc()
	m.ReaperDuration.Observe(elapsed.Seconds())
	if result != ResultError {
		m.ReaperLastSuccess.Set(float64(now.Unix()))
	}
}

// RecordReaperDeleted adds n to the deleted counter of operation.
func (m *Metrics) RecordReaperDeleted(operation string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ReaperDeleted.WithLabelValues(operation).Add(float64(n))
}
