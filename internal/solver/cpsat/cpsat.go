// Package cpsat is the CP-SAT-style solver adapter: a deterministic,
// worker-parallel constraint-propagation search over the same candidate
// variable space internal/solver builds for every adapter.
//
// No OR-Tools (or any other CP-SAT binding) binding appears in any example
// repository's go.mod, so this adapter is hand-rolled: several seeded
// worker goroutines each run CollectingModel through solver.Pack with a
// different deterministic tie-break permutation (mirroring CP-SAT's
// multiple search workers), and the best-scoring incumbent across workers
// wins, with ties broken by worker index for full reproducibility.
package cpsat

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/schedcontext"
	"github.com/aapm/scce/internal/solver"
)

// Workers is the number of deterministic parallel search workers, mirroring
// CP-SAT's configurable worker-thread count.
const Workers = 4

// Adapter implements solver.Adapter using a worker-parallel deterministic
// propagation search.
type Adapter struct{}

// New returns a ready-to-use CP-SAT-style adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "cpsat" }

type trial struct {
	worker    int
	chosen    map[constraint.VarRef]bool
	objective float64
}

// Solve encodes the constraint set once, then fans out Workers deterministic
// packing trials (each with its own seeded permutation of candidate order),
// and keeps the lowest-objective trial. Empty contexts return
// StatusEmpty immediately; a context deadline reached mid-search yields
// StatusTimeout over the best incumbent found so far.
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
		return solver.Result{Status: solver.StatusEmpty, Statistics: solver.Statistics{CandidateCount: 0, Elapsed: time.Since(start)}}
	}

	deadline := time.Now().Add(opts.Timeout)
	if opts.Timeout <= 0 {
		deadline = time.Now().Add(30 * time.Second)
	}
	searchCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	results := make(chan trial, Workers)
	var wg sync.WaitGroup
	for w := 0; w < Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(opts.Seed + int64(worker)*7919))
			order := make([]int, len(candidates))
			for i := range order {
				order[i] = i
			}
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

			chosen := solver.Pack(candidates, model, order)
			chosen = localSearch(searchCtx, candidates, model, chosen, rng)
			results <- trial{worker: worker, chosen: chosen, objective: solver.Objective(model, chosen)}
		}(w)
	}
	wg.Wait()
	close(results)

	var best *trial
	for r := range results {
		r := r
		if best == nil || r.objective < best.objective || (r.objective == best.objective && r.worker < best.worker) {
			best = &r
		}
	}

	timedOut := searchCtx.Err() != nil
	decisions := solver.DecisionsFrom(sctx, best.chosen)
	violations := solver.ValidateDecisions(hard, decisions, sctx)
	status := solver.Classify(violations, timedOut)

	return solver.Result{
		Status:     status,
		Decisions:  decisions,
		Objective:  best.objective,
		Violations: violations,
		Statistics: solver.Statistics{
			CandidateCount: len(candidates),
			FixedTrueCount: countFixedTrue(model),
			Elapsed:        time.Since(start),
		},
	}
}

// localSearch tries a bounded number of single-variable flips that lower
// the objective without re-violating any AtMost group, stopping early once
// the search deadline arrives.
func localSearch(ctx context.Context, candidates []constraint.VarRef, model *solver.CollectingModel, chosen map[constraint.VarRef]bool, rng *rand.Rand) map[constraint.VarRef]bool {
	best := chosen
	bestObjective := solver.Objective(model, best)
	const maxPasses = 50
	for pass := 0; pass < maxPasses; pass++ {
		select {
		case <-ctx.Done():
			return best
		default:
		}
		order := rng.Perm(len(candidates))
		improved := false
		for _, i := range order {
			ref := candidates[i]
			if _, fixed := model.Fixed[ref]; fixed {
				continue
			}
			trialAssignment := cloneAssignment(best)
			trialAssignment[ref] = !trialAssignment[ref]
			if trialAssignment[ref] && violatesGroup(model, ref, trialAssignment) {
				continue
			}
			objective := solver.Objective(model, trialAssignment)
			if objective < bestObjective {
				best = trialAssignment
				bestObjective = objective
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return best
}

func cloneAssignment(in map[constraint.VarRef]bool) map[constraint.VarRef]bool {
	out := make(map[constraint.VarRef]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func violatesGroup(model *solver.CollectingModel, ref constraint.VarRef, assignment map[constraint.VarRef]bool) bool {
	for _, g := range model.AtMosts {
		member := false
		for _, v := range g.Vars {
			if v == ref {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		count := 0
		for _, v := range g.Vars {
			if assignment[v] {
				count++
			}
		}
		if count > g.Bound {
			return true
		}
	}
	return false
}

func countFixedTrue(model *solver.CollectingModel) int {
	n := 0
	for _, v := range model.Fixed {
		if v {
			n++
		}
	}
	return n
}

var _ solver.Adapter = (*Adapter)(nil)
