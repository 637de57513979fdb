package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/issues", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/issues", "GET", 200, 30*time.Millisecond)
	m.RecordError("/issues/:id/votes", "POST", "DUPLICATE_VOTE")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/issues|GET|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMsec["/issues|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/issues/:id/votes|POST|DUPLICATE_VOTE"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}
