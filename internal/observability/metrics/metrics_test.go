package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordGateDecision("redirect", "no_session")
	m.ObserveRequest("GET", 200, 10*time.Millisecond)
	m.RecordLogin("password", LoginSuccess)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["complaintdesk_gate_decisions_total"])
	assert.True(t, names["complaintdesk_http_request_duration_seconds"])
	assert.True(t, names["complaintdesk_login_attempts_total"])
}

func TestRecordGateDecision_Increments(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordGateDecision("allow", "public")
	m.RecordGateDecision("allow", "public")
	m.RecordGateDecision("redirect", "role_mismatch")

	assert.InDelta(t, 2, testutil.ToFloat64(m.GateDecisions.WithLabelValues("allow", "public")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GateDecisions.WithLabelValues("redirect", "role_mismatch")), 0)
}

func TestObserveRequest_LabelsStatus(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("POST", 302, time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordGateDecision("allow", "public")
		m.ObserveRequest("GET", 200, time.Second)
		m.RecordLogin("oauth", LoginError)
		m.RecordReaperRun(ResultSuccess, "", time.Second, time.Now())
		m.RecordReaperDeleted("delete_read", 3)
	})
}

func TestRecordReaperRun(t *testing.T) {
	m := New(prometheus.NewRegistry())
	now := time.Unix(1_700_000_000, 0)

	m.RecordReaperRun(ResultSuccess, "", time.Second, now)
	m.RecordReaperRun(ResultError, "pg_error", time.Second, now.Add(time.Hour))
	m.RecordReaperDeleted("delete_read", 5)
	m.RecordReaperDeleted("delete_read", 0)

	assert.InDelta(t, 1, testutil.ToFloat64(m.ReaperRuns.WithLabelValues(ResultError, "pg_error")), 0)
	assert.InDelta(t, float64(now.Unix()), testutil.ToFloat64(m.ReaperLastSuccess), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.ReaperDeleted.WithLabelValues("delete_read")), 0)
}
