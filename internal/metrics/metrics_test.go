package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewWithRegistry(prometheus.NewRegistry())
}

func TestRecordGeneration(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordGeneration("FEASIBLE", "cpsat", 1.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.generationsTotal.WithLabelValues("FEASIBLE", "cpsat")))
}

func TestRecordValidationUpdatesGauges(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordValidation("violations", 0.92, 3)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.validationsTotal.WithLabelValues("violations")))
	assert.Equal(t, 0.92, testutil.ToFloat64(r.lastComplianceRate))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.openViolationCount))
}

func TestRecordBatch(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordBatch("create", "ok")
	r.RecordBatch("create", "ok")
	assert.Equal(t, float64(2), testutil.ToFloat64(r.batchesTotal.WithLabelValues("create", "ok")))
}

func TestRecordSwapMatch(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordSwapMatch()
	assert.Equal(t, float64(1), testutil.ToFloat64(r.swapMatchesTotal))
}

func TestRecordResilienceRunSetsDefenseLevel(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordResilienceRun("cascade", "ORANGE")
	assert.Equal(t, float64(1), testutil.ToFloat64(r.resilienceRunsTotal.WithLabelValues("cascade")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.defenseLevel))
}

func TestRecordResilienceRunIgnoresUnknownLevel(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordResilienceRun("n1", "")
	assert.Equal(t, float64(0), testutil.ToFloat64(r.defenseLevel))
}

func TestHandlerServesMetrics(t *testing.T) {
	r := newTestRegistry(t)
	r.RecordSwapMatch()
	require.NotNil(t, r.Handler())
}
