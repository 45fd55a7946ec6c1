// Package linear is the linear/ILP-style solver adapter, used when the
// CP-SAT-style adapter is unavailable or a lighter-weight pass is wanted.
// No LP/ILP library (no PuLP equivalent, no lp_solve/glpk/OR-tools binding)
// appears in any example repository's go.mod, so this is a hand-rolled
// relaxation-and-round heuristic: every candidate gets a continuous score
// from the same penalty terms the CollectingModel recorded, candidates are
// rounded to 1 in descending score order (the classic LP-rounding scheme),
// and solver.Pack enforces every AtMost bound during rounding exactly as it
// does for the other two adapters, so the three stay numerically
// comparable over the same variable space.
package linear

import (
	"context"
	"sort"
	"time"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/schedcontext"
	"github.com/aapm/scce/internal/solver"
)

// Adapter implements solver.Adapter using score-and-round relaxation.
type Adapter struct{}

// New returns a ready-to-use linear adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "linear" }

// Solve scores every candidate by its marginal penalty contribution (a
// stand-in for an LP relaxation's fractional value), rounds in descending
// score order subject to solver.Pack's bound bookkeeping, then validates.
func (a *Adapter) Solve(ctx context.Context, sctx *schedcontext.Context, hard []constraint.HardConstraint, soft []constraint.SoftConstraint, opts solver.Options) solver.Result {
	start := time.Now()
	if len(sctx.Persons) == 0 || len(sctx.Blocks) == 0 {
		return solver.Result{Status: solver.StatusEmpty, Statistics: solver.Statistics{Elapsed: time.Since(start)}}
	}

	model, err := solver.Encode(sctx, hard, soft)
	if err != nil {
		return solver.Result{Status: solver.StatusError, Err: err, Statistics: solver.Statistics{Elapsed: time.Since(start)}}
	}

	candidates := solver.BuildCandidates(sctx)
	if len(candidates) == 0 {
		return solver.Result{Status: solver.StatusEmpty, Statistics: solver.Statistics{Elapsed: time.Since(start)}}
	}

	deadline := opts.Timeout
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	searchCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	scores := relaxationScores(candidates, model)
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	// Descending score, tied broken by candidate index for determinism
	// (candidates are already in the context's stable person/block/template
	// order, so an index tie-break is a stable, reproducible rule).
	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })

	timedOut := false
	select {
	case <-searchCtx.Done():
		timedOut = true
	default:
	}

	chosen := solver.Pack(candidates, model, order)
	decisions := solver.DecisionsFrom(sctx, chosen)
	violations := solver.ValidateDecisions(hard, decisions, sctx)
	status := solver.Classify(violations, timedOut)

	return solver.Result{
		Status:     status,
		Decisions:  decisions,
		Objective:  solver.Objective(model, chosen),
		Violations: violations,
		Statistics: solver.Statistics{
			CandidateCount: len(candidates),
			Elapsed:        time.Since(start),
		},
	}
}

// relaxationScores approximates each candidate's LP-relaxation value as the
// negative of the penalty it alone would contribute if turned on — the
// same objective every adapter minimizes, just evaluated marginally instead
// of jointly.
func relaxationScores(candidates []constraint.VarRef, model *solver.CollectingModel) []float64 {
	scores := make([]float64, len(candidates))
	for i, ref := range candidates {
		if v, ok := model.Fixed[ref]; ok {
			if v {
				scores[i] = 1e9
			} else {
				scores[i] = -1e9
			}
			continue
		}
		marginal := map[constraint.VarRef]bool{ref: true}
		scores[i] = -solver.Objective(model, marginal)
	}
	return scores
}

var _ solver.Adapter = (*Adapter)(nil)
