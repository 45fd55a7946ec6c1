// Package metrics is the Prometheus instrumentation spec.md §6 requires:
// counters for generations/validations/batches, histograms for solver
// runtime and per-constraint encoding time, and gauges for last-compliance-
// rate, open-violation-count, and resilience defense level. Grounded on the
// teacher's pkg/metrics MetricsRegistry shape (a struct of pre-registered
// prometheus.*Vec fields plus Record*/Set* helper methods), generalized from
// the teacher's HTTP/DB-operation metric set to the SCCE's own operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every engine metric and the helper methods that record
// them. One Registry is constructed at process start-up and threaded through
// the API/job layer that drives the engine's operations.
type Registry struct {
	registry prometheus.Registerer

	generationsTotal  prometheus.CounterVec
	validationsTotal  prometheus.CounterVec
	batchesTotal      prometheus.CounterVec
	swapMatchesTotal  prometheus.Counter
	resilienceRunsTotal prometheus.CounterVec

	solverRuntime       prometheus.HistogramVec
	constraintEncodeTime prometheus.HistogramVec

	lastComplianceRate prometheus.Gauge
	openViolationCount prometheus.Gauge
	defenseLevel       prometheus.Gauge
}

// defenseLevelValue maps spec.md §4.11's colour-coded defense levels to the
// numeric scale a Prometheus gauge needs (GREEN=0 .. BLACK=4).
var defenseLevelValue = map[string]float64{
	"GREEN": 0, "YELLOW": 1, "ORANGE": 2, "RED": 3, "BLACK": 4,
}

// New creates and registers every engine metric against the global registry.
func New() *Registry {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers every engine metric against a custom
// registerer, mainly for tests so repeated runs don't collide on the global
// default registry.
func NewWithRegistry(registerer prometheus.Registerer) *Registry {
	r := &Registry{registry: registerer}

	r.generationsTotal = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scce_generations_total",
		Help: "Total GenerateSchedule calls by outcome status",
	}, []string{"status", "solver"})
	r.registry.MustRegister(&r.generationsTotal)

	r.validationsTotal = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scce_validations_total",
		Help: "Total ValidateSchedule calls",
	}, []string{"result"})
	r.registry.MustRegister(&r.validationsTotal)

	r.batchesTotal = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scce_batches_total",
		Help: "Total batch mutation calls by operation and outcome",
	}, []string{"operation", "result"})
	r.registry.MustRegister(&r.batchesTotal)

	r.swapMatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scce_swap_matches_total",
		Help: "Total MatchSwap calls",
	})
	r.registry.MustRegister(r.swapMatchesTotal)

	r.resilienceRunsTotal = *prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scce_resilience_runs_total",
		Help: "Total AnalyzeResilience calls by analysis kind",
	}, []string{"kind"})
	r.registry.MustRegister(&r.resilienceRunsTotal)

	r.solverRuntime = *prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scce_solver_runtime_seconds",
		Help:    "Solver adapter wall-clock runtime by adapter kind",
		Buckets: prometheus.DefBuckets,
	}, []string{"solver"})
	r.registry.MustRegister(&r.solverRuntime)

	r.constraintEncodeTime = *prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scce_constraint_encode_seconds",
		Help:    "Per-constraint model-encoding time",
		Buckets: prometheus.DefBuckets,
	}, []string{"constraint"})
	r.registry.MustRegister(&r.constraintEncodeTime)

	r.lastComplianceRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scce_last_compliance_rate",
		Help: "Compliance rate from the most recent ValidateSchedule call",
	})
	r.registry.MustRegister(r.lastComplianceRate)

	r.openViolationCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scce_open_violation_count",
		Help: "Violation count from the most recent ValidateSchedule call",
	})
	r.registry.MustRegister(r.openViolationCount)

	r.defenseLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scce_resilience_defense_level",
		Help: "Most recent resilience defense level, GREEN=0 .. BLACK=4",
	})
	r.registry.MustRegister(r.defenseLevel)

	return r
}

// RecordGeneration records one GenerateSchedule call's outcome and runtime.
func (r *Registry) RecordGeneration(status, solverKind string, seconds float64) {
	r.generationsTotal.WithLabelValues(status, solverKind).Inc()
	r.solverRuntime.WithLabelValues(solverKind).Observe(seconds)
}

// RecordValidation records one ValidateSchedule call and refreshes the
// compliance-rate/open-violation gauges from its result.
func (r *Registry) RecordValidation(result string, complianceRate float64, violationCount int) {
	r.validationsTotal.WithLabelValues(result).Inc()
	r.lastComplianceRate.Set(complianceRate)
	r.openViolationCount.Set(float64(violationCount))
}

// RecordBatch records one batch mutation call by operation (create, update,
// delete) and outcome (ok, rejected, error).
func (r *Registry) RecordBatch(operation, result string) {
	r.batchesTotal.WithLabelValues(operation, result).Inc()
}

// RecordSwapMatch records one MatchSwap call.
func (r *Registry) RecordSwapMatch() {
	r.swapMatchesTotal.Inc()
}

// RecordResilienceRun records one AnalyzeResilience call by analysis kind
// (n1, n2, cascade, spc) and, when level is non-empty, refreshes the
// defense-level gauge.
func (r *Registry) RecordResilienceRun(kind, level string) {
	r.resilienceRunsTotal.WithLabelValues(kind).Inc()
	if v, ok := defenseLevelValue[level]; ok {
		r.defenseLevel.Set(v)
	}
}

// ObserveConstraintEncode records one constraint's model-encoding duration.
func (r *Registry) ObserveConstraintEncode(constraintName string, seconds float64) {
	r.constraintEncodeTime.WithLabelValues(constraintName).Observe(seconds)
}

// Handler returns an http.Handler serving this registry's metrics in
// Prometheus exposition format, mounted by cmd/server at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry.(prometheus.Gatherer), promhttp.HandlerOpts{})
}
