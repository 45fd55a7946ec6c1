// Package solver defines the solver-adapter port (C6): the common
// Solve(ctx, constraints, timeout) -> Result contract shared by the CP-SAT,
// linear, and QUBO adapters in internal/solver/cpsat, internal/solver/linear,
// and internal/solver/qubo. It also carries the plumbing all three adapters
// share: candidate variable generation, the constraint.Model collector that
// runs Encode once per generation request, and the deterministic bin-packer
// that turns a collected Model into a structurally-feasible starting
// assignment before an adapter's own search heuristic takes over.
package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/schedcontext"
)

// Status is the outcome of one Solve call.
type Status string

const (
	StatusOptimal    Status = "OPTIMAL"
	StatusFeasible   Status = "FEASIBLE"
	StatusInfeasible Status = "INFEASIBLE"
	StatusTimeout    Status = "TIMEOUT"
	StatusEmpty      Status = "EMPTY"
	StatusError      Status = "ERROR"
)

// Decision is one placed (person, block, template) triple in a candidate
// solution.
type Decision struct {
	PersonID   uuid.UUID
	BlockID    uuid.UUID
	TemplateID uuid.UUID
}

// Statistics reports sizing and timing detail alongside a Result, consumed
// by the generator's histograms (internal/metrics).
type Statistics struct {
	CandidateCount int
	FixedTrueCount int
	PrunedCount    int
	Elapsed        time.Duration
}

// Result is what every adapter returns from Solve.
type Result struct {
	Status     Status
	Decisions  []Decision
	Objective  float64
	Violations []constraint.Violation
	Statistics Statistics
	Err        error
}

// Options parameterizes one Solve call.
type Options struct {
	Seed    int64
	Timeout time.Duration
}

// Adapter is the common contract every solver implementation satisfies.
type Adapter interface {
	Name() string
	Solve(ctx context.Context, sctx *schedcontext.Context, hard []constraint.HardConstraint, soft []constraint.SoftConstraint, opts Options) Result
}

// penaltyTerm is one soft-constraint contribution recorded during Encode.
type penaltyTerm struct {
	Name   string
	Weight float64
	Fn     func(assignment map[constraint.VarRef]bool) float64
}

// atMostGroup is one Sigma(vars) <= bound constraint recorded during Encode.
type atMostGroup struct {
	Vars  []constraint.VarRef
	Bound int
}

// CollectingModel implements constraint.Model by recording fixed variables,
// AtMost groups, and penalty terms rather than driving any one solver's
// native representation. Every adapter consumes the same collected Model,
// which is what keeps the x[r,b]/t[r,b,k] variable numbering in sync across
// CP-SAT, linear, and QUBO per spec.
type CollectingModel struct {
	Fixed     map[constraint.VarRef]bool
	AtMosts   []atMostGroup
	Penalties []penaltyTerm
}

// NewCollectingModel returns an empty CollectingModel.
func NewCollectingModel() *CollectingModel {
	return &CollectingModel{Fixed: make(map[constraint.VarRef]bool)}
}

// FixAssignment records a forced variable value. A false fix always wins
// over an earlier true fix for the same VarRef: forbidding an assignment
// takes precedence over any constraint that would otherwise force it.
func (m *CollectingModel) FixAssignment(personID, blockID uuid.UUID, templateID *uuid.UUID, value bool) {
	ref := constraint.VarRef{PersonID: personID, BlockID: blockID}
	if templateID != nil {
		ref.TemplateID = *templateID
	}
	if existing, ok := m.Fixed[ref]; ok && !existing {
		return
	}
	m.Fixed[ref] = value
}

// AtMost records a Sigma(vars) <= bound group.
func (m *CollectingModel) AtMost(vars []constraint.VarRef, bound int) {
	m.AtMosts = append(m.AtMosts, atMostGroup{Vars: append([]constraint.VarRef(nil), vars...), Bound: bound})
}

// AddPenalty records one weighted soft-constraint penalty term.
func (m *CollectingModel) AddPenalty(name string, weight float64, fn func(assignment map[constraint.VarRef]bool) float64) {
	m.Penalties = append(m.Penalties, penaltyTerm{Name: name, Weight: weight, Fn: fn})
}

var _ constraint.Model = (*CollectingModel)(nil)

// Encode runs Encode on every hard and soft constraint against a fresh
// CollectingModel, in the order given (hard first, so soft penalty terms
// never need to special-case a variable a hard constraint already fixed).
func Encode(sctx *schedcontext.Context, hard []constraint.HardConstraint, soft []constraint.SoftConstraint) (*CollectingModel, error) {
	model := NewCollectingModel()
	for _, c := range hard {
		if err := c.Encode(model, sctx); err != nil {
			return nil, fmt.Errorf("solver: encode hard constraint %s: %w", c.Name(), err)
		}
	}
	for _, c := range soft {
		if err := c.Encode(model, sctx); err != nil {
			return nil, fmt.Errorf("solver: encode soft constraint %s: %w", c.Name(), err)
		}
	}
	return model, nil
}

// BuildCandidates enumerates every (person, block, template) triple not
// already ruled out by eligibility (person type, PGY range, specialty,
// time-of-day) or by availability, in the deterministic order of the
// context's already-sorted Persons/Blocks/Templates arrays. This is the
// variable universe every adapter solves over.
func BuildCandidates(sctx *schedcontext.Context) []constraint.VarRef {
	var out []constraint.VarRef
	for _, person := range sctx.Persons {
		for _, block := range sctx.Blocks {
			if !sctx.IsAvailable(person.ID, block.ID) {
				continue
			}
			restrict := sctx.Availability[person.ID][block.ID].RestrictedToTemplate
			for _, tmpl := range sctx.Templates {
				if restrict != nil && *restrict != tmpl.ID {
					continue
				}
				if !tmpl.AllowsPerson(person.Kind) {
					continue
				}
				if tmpl.MinPGYLevel != nil && (person.PGYLevel == nil || *person.PGYLevel < *tmpl.MinPGYLevel) {
					continue
				}
				if tmpl.MaxPGYLevel != nil && (person.PGYLevel == nil || *person.PGYLevel > *tmpl.MaxPGYLevel) {
					continue
				}
				if tmpl.TimeOfDay != nil && *tmpl.TimeOfDay != block.TimeOfDay {
					continue
				}
				gated := false
				for _, specialty := range tmpl.RequiredSpecialties {
					if !person.HasSpecialty(specialty) {
						gated = true
						break
					}
				}
				if gated {
					continue
				}
				out = append(out, constraint.VarRef{PersonID: person.ID, BlockID: block.ID, TemplateID: tmpl.ID})
			}
		}
	}
	return out
}

// Pack greedily assigns candidates to true/false respecting every AtMost
// group's bound and every Fixed value, in candidate order (already
// deterministic). It is the structural backbone shared by all three
// adapters: whichever heuristic an adapter layers on top, it never violates
// a capacity or one-per-block group, because Pack already enforces those.
func Pack(candidates []constraint.VarRef, model *CollectingModel, order []int) map[constraint.VarRef]bool {
	chosen := make(map[constraint.VarRef]bool, len(candidates))
	usage := make(map[int]int, len(model.AtMosts))

	memberOf := make(map[constraint.VarRef][]int)
	for gi, g := range model.AtMosts {
		for _, v := range g.Vars {
			memberOf[v] = append(memberOf[v], gi)
		}
	}

	tryAdd := func(ref constraint.VarRef) bool {
		for _, gi := range memberOf[ref] {
			if usage[gi]+1 > model.AtMosts[gi].Bound {
				return false
			}
		}
		for _, gi := range memberOf[ref] {
			usage[gi]++
		}
		chosen[ref] = true
		return true
	}

	// Fixed-true variables are placed first and unconditionally (a
	// well-formed constraint set never fixes more true variables into a
	// group than its bound allows).
	for ref, val := range model.Fixed {
		if val {
			chosen[ref] = true
			for _, gi := range memberOf[ref] {
				usage[gi]++
			}
		}
	}

	idxOrder := order
	if idxOrder == nil {
		idxOrder = make([]int, len(candidates))
		for i := range candidates {
			idxOrder[i] = i
		}
	}

	for _, i := range idxOrder {
		ref := candidates[i]
		if v, ok := model.Fixed[ref]; ok {
			if !v {
				continue
			}
			continue // already placed above
		}
		if _, already := chosen[ref]; already {
			continue
		}
		tryAdd(ref)
	}
	return chosen
}

// Objective sums every penalty term's weighted contribution over the given
// assignment, the same objective every adapter tries to minimize.
func Objective(model *CollectingModel, assignment map[constraint.VarRef]bool) float64 {
	total := 0.0
	for _, p := range model.Penalties {
		total += p.Weight * p.Fn(assignment)
	}
	return total
}

// DecisionsFrom converts a chosen assignment map into the ordered Decision
// slice Result carries, in (block date/time-of-day, person, template)
// order for reproducibility.
func DecisionsFrom(sctx *schedcontext.Context, chosen map[constraint.VarRef]bool) []Decision {
	var out []Decision
	for ref, on := range chosen {
		if on {
			out = append(out, Decision{PersonID: ref.PersonID, BlockID: ref.BlockID, TemplateID: ref.TemplateID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		bi, oki := sctx.BlockIdx[out[i].BlockID]
		bj, okj := sctx.BlockIdx[out[j].BlockID]
		if oki && okj && bi != bj {
			return bi < bj
		}
		pi, pj := sctx.PersonIdx[out[i].PersonID], sctx.PersonIdx[out[j].PersonID]
		if pi != pj {
			return pi < pj
		}
		ti, tj := sctx.TemplateIdx[out[i].TemplateID], sctx.TemplateIdx[out[j].TemplateID]
		return ti < tj
	})
	return out
}

// ToAssignmentViews projects Decisions into constraint.AssignmentView for a
// post-hoc Validate pass. It converts the decisions only; the context's
// existing assignments are not included.
func ToAssignmentViews(decisions []Decision) []constraint.AssignmentView {
	out := make([]constraint.AssignmentView, 0, len(decisions))
	for _, d := range decisions {
		tmplID := d.TemplateID
		out = append(out, constraint.AssignmentView{
			PersonID:           d.PersonID,
			BlockID:            d.BlockID,
			RotationTemplateID: &tmplID,
		})
	}
	return out
}

// Classify turns the validation outcome of a candidate solution into a
// Status: TIMEOUT whenever the deadline stopped the search early, whatever
// the violations; otherwise any remaining CRITICAL violation means the
// heuristic could not find a feasible solution (INFEASIBLE), OPTIMAL when
// clean, FEASIBLE when only lower-severity violations remain.
func Classify(violations []constraint.Violation, timedOut bool) Status {
	hasCritical := false
	hasAny := len(violations) > 0
	for _, v := range violations {
		if v.Severity == constraint.SeverityCritical {
			hasCritical = true
			break
		}
	}
	switch {
	case timedOut:
		return StatusTimeout
	case hasCritical:
		return StatusInfeasible
	case hasAny:
		return StatusFeasible
	default:
		return StatusOptimal
	}
}

// ExistingViews projects the context's pre-existing assignments (preloads,
// manual entries, earlier solver runs) into AssignmentView, so a Validate
// pass sees the same full picture the rolling-window and day-off-in-seven
// constraints need, not just the candidate decisions under consideration.
func ExistingViews(sctx *schedcontext.Context) []constraint.AssignmentView {
	out := make([]constraint.AssignmentView, 0, len(sctx.ExistingAssignments))
	for _, a := range sctx.ExistingAssignments {
		out = append(out, constraint.AssignmentView{
			PersonID:           a.PersonID,
			BlockID:            a.BlockID,
			RotationTemplateID: a.RotationTemplateID,
			Role:               string(a.Role),
			IsOverride:         a.IsOverride(),
		})
	}
	return out
}

// ValidateDecisions runs every hard constraint's Validate over decisions
// (converted to AssignmentView, merged with the context's existing
// assignments) and returns the combined, sorted violation list used both for
// Result.Violations and for Classify.
func ValidateDecisions(hard []constraint.HardConstraint, decisions []Decision, sctx *schedcontext.Context) []constraint.Violation {
	views := append(ExistingViews(sctx), ToAssignmentViews(decisions)...)
	var all []constraint.Violation
	for _, c := range hard {
		res := c.Validate(views, sctx)
		all = append(all, res.Violations...)
	}
	constraint.SortViolations(all)
	return all
}
