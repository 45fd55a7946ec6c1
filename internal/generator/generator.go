// Package generator is the Schedule Generator (C7): it runs the
// load -> expand -> prune -> solve -> persist pipeline against one of the
// three solver adapters, mirroring the phase-by-phase orchestration and
// WorkflowResult shape of the teacher's ScheduleOrchestrator
// (internal_teacher_v2/service/schedule_orchestrator.go), generalized from a
// 3-phase import/coverage workflow to a 5-phase generation workflow.
package generator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/constraint/library"
	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/schedcontext"
	"github.com/aapm/scce/internal/solver"
	"github.com/aapm/scce/internal/solver/cpsat"
	"github.com/aapm/scce/internal/solver/linear"
	"github.com/aapm/scce/internal/solver/qubo"
)

// SolverKind selects which adapter backs a generation run.
type SolverKind string

const (
	SolverCPSAT  SolverKind = "cpsat"
	SolverLinear SolverKind = "linear"
	SolverQUBO   SolverKind = "qubo"
)

// Options parameterizes one GenerateSchedule call.
type Options struct {
	Solver      SolverKind
	Seed        int64
	Timeout     time.Duration
	HardNames   []string // defaults to library.DefaultHardNames
	SoftNames   []string // defaults to library.DefaultSoftNames
	SoftWeights map[string]float64
	CreatedBy   uuid.UUID
}

// Result is the outcome of one generation run, modelled after the teacher's
// WorkflowResult: a single value that always reports what happened, whether
// or not the run ultimately succeeded.
type Result struct {
	Status         solver.Status
	Assignments    []*entity.Assignment
	Objective      float64
	Violations     []constraint.Violation
	Statistics     solver.Statistics
	ReductionRatio float64
	ExpandedCount  int
	MinimalCore    []string
	Suggestions    []string
	Warning        string
	Success        bool
	Error          error
}

// Generator orchestrates schedule generation against an Entity Store and the
// canonical constraint profile.
type Generator struct {
	db       repository.Database
	registry *constraint.Registry
	adapters map[SolverKind]solver.Adapter
}

// New returns a Generator wired to db with the default adapter set and the
// canonical constraint library registered.
func New(db repository.Database) *Generator {
	reg := constraint.NewRegistry()
	library.Register(reg)
	return &Generator{
		db:       db,
		registry: reg,
		adapters: map[SolverKind]solver.Adapter{
			SolverCPSAT:  cpsat.New(),
			SolverLinear: linear.New(),
			SolverQUBO:   qubo.New(),
		},
	}
}

// GenerateSchedule runs the full pipeline over period and persists the
// outcome when a feasible or optimal solution is found.
func (g *Generator) GenerateSchedule(ctx context.Context, period repository.Period, opts Options) *Result {
	result := &Result{}

	// Phase 1: load.
	data, err := g.db.LoadPeriod(ctx, period)
	if err != nil {
		result.Error = fmt.Errorf("generator: load period: %w", err)
		return result
	}

	hardNames := opts.HardNames
	if len(hardNames) == 0 {
		hardNames = library.DefaultHardNames
	}
	softNames := opts.SoftNames
	if len(softNames) == 0 {
		softNames = library.DefaultSoftNames
	}

	hard, err := g.buildHard(hardNames)
	if err != nil {
		result.Error = fmt.Errorf("generator: build hard constraints: %w", err)
		return result
	}
	soft, err := g.buildSoft(softNames, opts.SoftWeights)
	if err != nil {
		result.Error = fmt.Errorf("generator: build soft constraints: %w", err)
		return result
	}

	// Phase 2: expand. Wednesday-PM lecture, Wednesday-AM continuity, and
	// night-float AM slots are derived deterministically from already-known
	// data rather than left for the solver to discover, per §4.7 step 2.
	sctx := schedcontext.Build(data)
	expanded := expandDerivedSlots(sctx)
	result.ExpandedCount = len(expanded)
	if len(expanded) > 0 {
		data.Assignments = append(append([]*entity.Assignment(nil), data.Assignments...), expanded...)
		sctx = schedcontext.Build(data)
	}

	// Phase 3: prune. Report the reduction ratio the eligibility/availability
	// gate achieved against the full (person, block, template) universe.
	universe := len(sctx.Persons) * len(sctx.Blocks) * len(sctx.Templates)
	candidates := solver.BuildCandidates(sctx)
	occupied := existingPairs(sctx)
	filtered := candidates[:0:0]
	for _, c := range candidates {
		if _, ok := occupied[pairKey{c.PersonID, c.BlockID}]; ok {
			continue
		}
		filtered = append(filtered, c)
	}
	if universe > 0 {
		result.ReductionRatio = 1 - float64(len(filtered))/float64(universe)
	}

	// Phase 4: solve.
	kind := opts.Solver
	if kind == "" {
		kind = SolverCPSAT
	}
	adapter, ok := g.adapters[kind]
	if !ok {
		result.Error = fmt.Errorf("generator: unknown solver adapter %q", kind)
		return result
	}
	solverOpts := solver.Options{Seed: opts.Seed, Timeout: opts.Timeout}

	solved := adapter.Solve(ctx, sctx, hard, soft, solverOpts)
	result.Status = solved.Status
	result.Objective = solved.Objective
	result.Violations = solved.Violations
	result.Statistics = solved.Statistics

	switch solved.Status {
	case solver.StatusError:
		result.Error = solved.Err
		return result
	case solver.StatusEmpty:
		result.Success = true
		return result
	case solver.StatusInfeasible:
		result.MinimalCore = g.minimalUnsatisfiableCore(ctx, sctx, hard, soft, solverOpts, adapter)
		result.Suggestions = suggestionsFrom(solved.Violations)
		return result
	case solver.StatusTimeout:
		result.Warning = "solver deadline reached before convergence; returning best incumbent found"
	}

	// Phase 5: persist.
	assignments := materializeAssignments(expanded, solved.Decisions, solved.Status, opts.CreatedBy)
	sortAssignmentsForPersist(assignments, sctx)

	tx, err := g.db.BeginTx(ctx)
	if err != nil {
		result.Error = fmt.Errorf("generator: begin transaction: %w", err)
		return result
	}
	repo := tx.AssignmentRepository()
	for _, a := range assignments {
		if err := repo.Create(ctx, a); err != nil {
			tx.Rollback()
			result.Error = fmt.Errorf("generator: persist assignment: %w", err)
			return result
		}
	}
	if err := tx.Commit(); err != nil {
		result.Error = fmt.Errorf("generator: commit transaction: %w", err)
		return result
	}

	result.Assignments = assignments
	result.Success = true
	return result
}

func (g *Generator) buildHard(names []string) ([]constraint.HardConstraint, error) {
	out := make([]constraint.HardConstraint, 0, len(names))
	for _, name := range names {
		built, err := g.registry.Build(name, nil)
		if err != nil {
			return nil, err
		}
		hc, ok := built.(constraint.HardConstraint)
		if !ok {
			return nil, fmt.Errorf("generator: %q does not implement HardConstraint", name)
		}
		out = append(out, hc)
	}
	return out, nil
}

func (g *Generator) buildSoft(names []string, weights map[string]float64) ([]constraint.SoftConstraint, error) {
	out := make([]constraint.SoftConstraint, 0, len(names))
	for _, name := range names {
		var params map[string]interface{}
		if w, ok := weights[name]; ok {
			params = map[string]interface{}{"weight": w}
		}
		built, err := g.registry.Build(name, params)
		if err != nil {
			return nil, err
		}
		sc, ok := built.(constraint.SoftConstraint)
		if !ok {
			return nil, fmt.Errorf("generator: %q does not implement SoftConstraint", name)
		}
		out = append(out, sc)
	}
	return out, nil
}

type pairKey struct {
	PersonID uuid.UUID
	BlockID  uuid.UUID
}

// existingPairs returns the set of (person, block) pairs already occupied by
// the context's existing assignments, so the solver's candidate space never
// double-books a slot the expansion phase (or a prior load) already filled.
func existingPairs(sctx *schedcontext.Context) map[pairKey]bool {
	out := make(map[pairKey]bool, len(sctx.ExistingAssignments))
	for _, a := range sctx.ExistingAssignments {
		out[pairKey{a.PersonID, a.BlockID}] = true
	}
	return out
}

// expandDerivedSlots materializes the fixed assignments a full scheduling
// system places outside the solver's search: Wednesday-PM lecture release,
// Wednesday-AM continuity clinic for PGY-1s, and the mandatory same-day AM
// slot that follows any pre-existing PM night-float assignment. See
// WednesdayPMLecConstraint/InternContinuityConstraint/NightFloatSlotConstraint
// doc comments, which note these rules validate the outcome rather than
// place it themselves.
func expandDerivedSlots(sctx *schedcontext.Context) []*entity.Assignment {
	var out []*entity.Assignment
	occupied := existingPairs(sctx)
	now := entity.Now()

	place := func(personID, blockID, templateID uuid.UUID) {
		key := pairKey{personID, blockID}
		if occupied[key] {
			return
		}
		occupied[key] = true
		tmplID := templateID
		out = append(out, &entity.Assignment{
			ID:                 uuid.New(),
			PersonID:           personID,
			BlockID:            blockID,
			RotationTemplateID: &tmplID,
			Role:               entity.RolePrimary,
			Confidence:         1.0,
			Source:             entity.SourceTemplate,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}

	lec, hasLEC := sctx.TemplateByAbbreviation("LEC-PM")
	var continuityTmpl *entity.RotationTemplate
	for _, tmpl := range sctx.Templates {
		if library.ContinuityAbbreviations[tmpl.Abbreviation] {
			continuityTmpl = tmpl
			break
		}
	}

	for _, block := range sctx.Blocks {
		switch {
		case block.IsWednesdayPM() && hasLEC:
			for _, person := range sctx.Persons {
				if person.Kind != entity.PersonKindResident {
					continue
				}
				if occupied[pairKey{person.ID, block.ID}] {
					continue
				}
				if !sctx.IsAvailable(person.ID, block.ID) {
					continue
				}
				if onExemptRotation(sctx, person.ID, block.ID) {
					continue
				}
				place(person.ID, block.ID, lec.ID)
			}
		case block.IsWednesdayAM() && continuityTmpl != nil:
			for _, person := range sctx.Persons {
				if !person.IsPGY1() {
					continue
				}
				if occupied[pairKey{person.ID, block.ID}] {
					continue
				}
				if !sctx.IsAvailable(person.ID, block.ID) {
					continue
				}
				place(person.ID, block.ID, continuityTmpl.ID)
			}
		}
	}

	// Night-float AM fill: every pre-existing PM night-float assignment
	// requires its mapped AM template the same day.
	amBlockByDay := make(map[time.Time]uuid.UUID)
	for _, b := range sctx.Blocks {
		if b.TimeOfDay == entity.AM {
			amBlockByDay[b.Date.Truncate(24*time.Hour)] = b.ID
		}
	}
	for _, a := range sctx.ExistingAssignments {
		if a.RotationTemplateID == nil {
			continue
		}
		pmTmpl, ok := sctx.TemplateByID(*a.RotationTemplateID)
		if !ok {
			continue
		}
		requiredAM, isNightFloat := library.NightFloatAMPattern[pmTmpl.Abbreviation]
		if !isNightFloat {
			continue
		}
		pmBlock, ok := sctx.BlockByID(a.BlockID)
		if !ok || pmBlock.TimeOfDay != entity.PM {
			continue
		}
		amBlockID, ok := amBlockByDay[pmBlock.Date.Truncate(24*time.Hour)]
		if !ok {
			continue
		}
		amTmpl, ok := sctx.TemplateByAbbreviation(requiredAM)
		if !ok {
			continue
		}
		if occupied[pairKey{a.PersonID, amBlockID}] {
			continue
		}
		place(a.PersonID, amBlockID, amTmpl.ID)
	}

	sort.Slice(out, func(i, j int) bool {
		bi, bj := sctx.BlockIdx[out[i].BlockID], sctx.BlockIdx[out[j].BlockID]
		if bi != bj {
			return bi < bj
		}
		return sctx.PersonIdx[out[i].PersonID] < sctx.PersonIdx[out[j].PersonID]
	})
	return out
}

// onExemptRotation reports whether person is already on a LEC-exempt
// rotation (an inpatient preload restriction) for block, which releases them
// from the Wednesday-PM lecture requirement.
func onExemptRotation(sctx *schedcontext.Context, personID, blockID uuid.UUID) bool {
	entryVal, ok := sctx.Availability[personID][blockID]
	if !ok || entryVal.RestrictedToTemplate == nil {
		return false
	}
	tmpl, ok := sctx.TemplateByID(*entryVal.RestrictedToTemplate)
	return ok && library.LECExempt[tmpl.Abbreviation]
}

// materializeAssignments converts solved decisions into persistable
// Assignments, prepending the expanded (template-sourced) placements.
func materializeAssignments(expanded []*entity.Assignment, decisions []solver.Decision, status solver.Status, createdBy uuid.UUID) []*entity.Assignment {
	now := entity.Now()
	confidence := 1.0
	if status == solver.StatusFeasible || status == solver.StatusTimeout {
		confidence = 0.75
	}
	out := make([]*entity.Assignment, 0, len(expanded)+len(decisions))
	out = append(out, expanded...)
	for _, d := range decisions {
		tmplID := d.TemplateID
		out = append(out, &entity.Assignment{
			ID:                 uuid.New(),
			PersonID:           d.PersonID,
			BlockID:            d.BlockID,
			RotationTemplateID: &tmplID,
			Role:               entity.RolePrimary,
			Confidence:         confidence,
			Source:             entity.SourceSolver,
			CreatedBy:          createdBy,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}
	return out
}

// sortAssignmentsForPersist orders assignments by (date, time-of-day,
// person name) ascending, the write order spec.md §5 requires.
func sortAssignmentsForPersist(assignments []*entity.Assignment, sctx *schedcontext.Context) {
	sort.SliceStable(assignments, func(i, j int) bool {
		bi, oki := sctx.BlockIdx[assignments[i].BlockID]
		bj, okj := sctx.BlockIdx[assignments[j].BlockID]
		if oki && okj && bi != bj {
			return bi < bj
		}
		pi, oki2 := sctx.PersonIdx[assignments[i].PersonID]
		pj, okj2 := sctx.PersonIdx[assignments[j].PersonID]
		if oki2 && okj2 {
			return pi < pj
		}
		return false
	})
}

// suggestionsFrom turns each distinct CRITICAL violation constraint into a
// plain-language remediation suggestion surfaced alongside an INFEASIBLE
// result.
func suggestionsFrom(violations []constraint.Violation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range violations {
		if v.Severity != constraint.SeverityCritical || seen[v.ConstraintName] {
			continue
		}
		seen[v.ConstraintName] = true
		switch v.ConstraintName {
		case "SupervisionRatio":
			out = append(out, "add more faculty coverage, or move residents off the affected blocks")
		case "EightyHourRollingWindow":
			out = append(out, "reduce call/clinic density for the affected residents over the flagged window")
		case "OneDayOffInSeven":
			out = append(out, "insert an off day within the flagged rolling week")
		case "Availability":
			out = append(out, "clear the conflicting absence/preload, or request an acknowledged override")
		case "SpecialtyPGYGate":
			out = append(out, "relax the rotation's PGY/specialty requirement, or free up an eligible person")
		default:
			out = append(out, fmt.Sprintf("review %s violations and relax the affected constraint or inputs", v.ConstraintName))
		}
	}
	return out
}
