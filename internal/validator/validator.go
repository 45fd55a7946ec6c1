// Package validator is the read-only Compliance Validator (C8): it runs the
// canonical hard-constraint profile against a period's existing schedule
// and reports violations plus summary compliance metrics, without ever
// writing to the Entity Store.
package validator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/constraint/library"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/schedcontext"
	"github.com/aapm/scce/internal/solver"
)

// Metrics summarizes one validation run.
type Metrics struct {
	TotalBlocks          int
	BlocksWithViolations int
	ComplianceRate       float64
	PerConstraintCounts  map[string]int
}

// Report is the outcome of one Validate call.
type Report struct {
	Violations []constraint.Violation
	Metrics    Metrics
}

// Validator drives every registered hard constraint's Validate method over
// a loaded period, the same canonical profile the generator solves against.
type Validator struct {
	registry  *constraint.Registry
	hardNames []string
}

// New returns a Validator using the canonical DefaultHardNames profile.
func New() *Validator {
	reg := constraint.NewRegistry()
	library.Register(reg)
	return &Validator{registry: reg, hardNames: library.DefaultHardNames}
}

// NewWithNames returns a Validator scoped to a custom hard-constraint name
// set, e.g. a program with a locally-approved exception disabling one rule.
func NewWithNames(names []string) *Validator {
	reg := constraint.NewRegistry()
	library.Register(reg)
	return &Validator{registry: reg, hardNames: names}
}

// Validate loads period from db and checks it against every configured
// hard constraint, read-only.
func (v *Validator) Validate(ctx context.Context, db repository.Database, period repository.Period) (*Report, error) {
	data, err := db.LoadPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("validator: load period: %w", err)
	}
	return v.ValidateContext(schedcontext.Build(data))
}

// ValidateContext runs the configured hard constraints against an
// already-built context, without touching the Entity Store. The batch
// mutation pipeline (C9) uses this to pre-check proposed inserts: it loads
// the surrounding period, appends the synthetic rows to PeriodData, builds
// the context itself, and hands it here so the uncommitted rows are checked
// exactly like persisted ones.
func (v *Validator) ValidateContext(sctx *schedcontext.Context) (*Report, error) {
	hard := make([]constraint.HardConstraint, 0, len(v.hardNames))
	for _, name := range v.hardNames {
		built, err := v.registry.Build(name, nil)
		if err != nil {
			return nil, fmt.Errorf("validator: build constraint %q: %w", name, err)
		}
		hc, ok := built.(constraint.HardConstraint)
		if !ok {
			return nil, fmt.Errorf("validator: %q does not implement HardConstraint", name)
		}
		hard = append(hard, hc)
	}

	views := solver.ExistingViews(sctx)
	perConstraint := make(map[string]int, len(hard))
	blocksWithViolations := make(map[uuid.UUID]struct{})
	var all []constraint.Violation

	for _, c := range hard {
		res := c.Validate(views, sctx)
		perConstraint[c.Name()] = len(res.Violations)
		for _, viol := range res.Violations {
			if viol.BlockID != nil {
				blocksWithViolations[*viol.BlockID] = struct{}{}
			}
		}
		all = append(all, res.Violations...)
	}
	constraint.SortViolations(all)

	totalBlocks := len(sctx.Blocks)
	complianceRate := 1.0
	if totalBlocks > 0 {
		complianceRate = 1 - float64(len(blocksWithViolations))/float64(totalBlocks)
	}

	return &Report{
		Violations: all,
		Metrics: Metrics{
			TotalBlocks:          totalBlocks,
			BlocksWithViolations: len(blocksWithViolations),
			ComplianceRate:       complianceRate,
			PerConstraintCounts:  perConstraint,
		},
	}, nil
}
