package generator

import (
	"context"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/schedcontext"
	"github.com/aapm/scce/internal/solver"
)

// minimalUnsatisfiableCore identifies a minimal subset of hard constraint
// names that, run alone (with every soft constraint deactivated), the
// adapter still reports INFEASIBLE for — per §4.7 step 6. It first confirms
// the full hard set is itself infeasible in isolation, then shrinks it with
// a delta-debugging bisection (ddmin): repeatedly try removing a chunk of
// the current set, keep the removal if the remainder is still infeasible,
// otherwise split into smaller chunks, until no chunk can be dropped.
func (g *Generator) minimalUnsatisfiableCore(
	ctx context.Context,
	sctx *schedcontext.Context,
	hard []constraint.HardConstraint,
	soft []constraint.SoftConstraint,
	opts solver.Options,
	adapter solver.Adapter,
) []string {
	byName := make(map[string]constraint.HardConstraint, len(hard))
	names := make([]string, 0, len(hard))
	for _, h := range hard {
		byName[h.Name()] = h
		names = append(names, h.Name())
	}

	isInfeasible := func(subset []string) bool {
		if len(subset) == 0 {
			return false
		}
		subsetHard := make([]constraint.HardConstraint, 0, len(subset))
		for _, n := range subset {
			subsetHard = append(subsetHard, byName[n])
		}
		res := adapter.Solve(ctx, sctx, subsetHard, nil, opts)
		return res.Status == solver.StatusInfeasible
	}

	if !isInfeasible(names) {
		return nil
	}
	return ddmin(names, isInfeasible)
}

// ddmin is Zeller's delta-debugging minimization, applied here to constraint
// names instead of program input bytes: the smallest still-failing
// ("still infeasible") subset is the minimal unsatisfiable core.
func ddmin(all []string, isInfeasible func([]string) bool) []string {
	current := append([]string(nil), all...)
	granularity := 2

	for len(current) >= 2 {
		chunkSize := (len(current) + granularity - 1) / granularity
		reduced := false

		for i := 0; i*chunkSize < len(current); i++ {
			start := i * chunkSize
			end := start + chunkSize
			if end > len(current) {
				end = len(current)
			}
			complement := make([]string, 0, len(current)-(end-start))
			complement = append(complement, current[:start]...)
			complement = append(complement, current[end:]...)

			if len(complement) > 0 && isInfeasible(complement) {
				current = complement
				if granularity > 2 {
					granularity--
				}
				reduced = true
				break
			}
		}

		if !reduced {
			if granularity >= len(current) {
				break
			}
			granularity *= 2
			if granularity > len(current) {
				granularity = len(current)
			}
		}
	}

	return current
}
