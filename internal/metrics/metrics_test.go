package metrics_test

import (
	"testing"

	"complaintbot/backend/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.Register()
		metrics.Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(metrics.Decisions.WithLabelValues("approved"))

	metrics.Decisions.WithLabelValues("approved").Inc()

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Decisions.WithLabelValues("approved")))
}

// TestRegisterGauges verifies gauges read the store sizes at scrape time.
func TestRegisterGauges(t *testing.T) {
	// Arrange
	pending := 3
	metrics.RegisterGauges(metrics.Gauges{
		Sessions: func() int { return 2 },
		Pending:  func() int { return pending },
	})
	pending = 5

	// Act
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	// Assert
	values := map[string]float64{}
	for _, mf := range families {
		if len(mf.GetMetric()) == 1 && mf.GetMetric()[0].GetGauge() != nil {
			values[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["complaintbot_open_sessions"])
	assert.Equal(t, 5.0, values["complaintbot_pending_records"])
	assert.Equal(t, 0.0, values["complaintbot_drafts"], "unset gauge reports zero")
}
