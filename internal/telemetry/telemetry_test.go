package telemetry_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/markpostal/kiln-watch/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.New(reg)

	m.ReportReceived(telemetry.SourceCollector)
	m.ReportReceived(telemetry.SourceCollector)
	m.ReportReceived(telemetry.SourceSimulator)
	m.ReportDropped(telemetry.DropUntagged)
	m.ReportApplied()
	m.QueueDepth(4)
	m.Records(2)

	expected := `
# HELP kilnwatch_reports_received_total Total number of well-formed reports enqueued
# TYPE kilnwatch_reports_received_total counter
kilnwatch_reports_received_total{source="collector"} 2
kilnwatch_reports_received_total{source="simulator"} 1
# HELP kilnwatch_reports_dropped_total Total number of datagrams discarded before the queue
# TYPE kilnwatch_reports_dropped_total counter
kilnwatch_reports_dropped_total{reason="untagged"} 1
# HELP kilnwatch_reports_applied_total Total number of reports folded into sensor records
# TYPE kilnwatch_reports_applied_total counter
kilnwatch_reports_applied_total 1
# HELP kilnwatch_queue_depth Reports waiting for the organizer
# TYPE kilnwatch_queue_depth gauge
kilnwatch_queue_depth 4
# HELP kilnwatch_records Number of sensors with a record
# TYPE kilnwatch_records gauge
kilnwatch_records 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"kilnwatch_reports_received_total",
		"kilnwatch_reports_dropped_total",
		"kilnwatch_reports_applied_total",
		"kilnwatch_queue_depth",
		"kilnwatch_records",
	))
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.New(reg)

	m.ObserveRequest(http.MethodGet, "/records", http.StatusOK, 5*time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "kilnwatch_http_requests_total", "kilnwatch_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNop(t *testing.T) {
	n := telemetry.Nop()
	assert.NotPanics(t, func() {
		n.ReportReceived("x")
		n.ObserveRequest("GET", "/", 200, time.Second)
	})
}
