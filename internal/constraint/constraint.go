// Package constraint defines the hard/soft constraint framework: the
// Violation record, the HardConstraint/SoftConstraint capabilities, and the
// registry/builder/serializer used to compose and persist constraint
// configurations (C4, C12).
package constraint

import (
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/schedcontext"
)

// Priority orders constraints for diagnostics: CRITICAL > HIGH > MEDIUM > LOW.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Less orders a before b per the CRITICAL>HIGH>MEDIUM>LOW precedence, tying
// on constraint name for determinism.
func Less(aPriority Priority, aName string, bPriority Priority, bName string) bool {
	if priorityRank[aPriority] != priorityRank[bPriority] {
		return priorityRank[aPriority] < priorityRank[bPriority]
	}
	return aName < bName
}

// Type classifies what a constraint is about.
type Type string

const (
	TypeAvailability Type = "AVAILABILITY"
	TypeCapacity     Type = "CAPACITY"
	TypeRotation     Type = "ROTATION"
	TypeEquity       Type = "EQUITY"
	TypePreference   Type = "PREFERENCE"
	TypeSupervision  Type = "SUPERVISION"
	TypeRegulatory   Type = "REGULATORY"
)

// Severity is the severity of a single Violation.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityWarning:  2,
	SeverityInfo:     3,
}

// Violation is a single instance of a constraint failing to hold.
//
// AffectedRef must be an anonymised reference (e.g. "RES-001", "FAC-PD"),
// never a real person's name, per the redaction requirement carried
// through every log and report surface.
type Violation struct {
	ConstraintName  string
	Severity        Severity
	Message         string
	AffectedRef     string
	BlockID         *uuid.UUID
	DateContext     *time.Time
	Details         map[string]interface{}
	SuggestedAction string
}

// SortViolations orders in place by (severity desc, date asc, constraint
// name asc), the ordering the validator and reporting collaborators expect.
func SortViolations(violations []Violation) {
	sortViolations(violations)
}

func sortViolations(v []Violation) {
	less := func(i, j int) bool {
		if severityRank[v[i].Severity] != severityRank[v[j].Severity] {
			return severityRank[v[i].Severity] < severityRank[v[j].Severity]
		}
		di, dj := v[i].DateContext, v[j].DateContext
		switch {
		case di == nil && dj == nil:
			// fall through to name tie-break
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.Before(*dj)
		}
		return v[i].ConstraintName < v[j].ConstraintName
	}
	insertionSort(v, less)
}

// insertionSort is a small stable sort; violation lists are short enough
// (tens to low hundreds per validation run) that O(n^2) is not a concern,
// and it keeps this package free of a sort.Interface boilerplate type.
func insertionSort(v []Violation, less func(i, j int) bool) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}

// Result is the outcome of encoding or validating a single constraint.
type Result struct {
	Satisfied  bool
	Violations []Violation
}

// Model is the solver-agnostic handle a constraint's Encode method writes
// into; concrete solver adapters implement it to capture fixed variables
// and penalty terms without the constraint library depending on any one
// solver's representation.
type Model interface {
	// FixAssignment forces x[r,b] (or t[r,b,k] when templateID != nil) to
	// the given boolean value.
	FixAssignment(personID, blockID uuid.UUID, templateID *uuid.UUID, value bool)
	// AtMost adds a Σ vars ≤ bound constraint over the given (person,
	// block, template) triples.
	AtMost(vars []VarRef, bound int)
	// AddPenalty contributes a weighted soft-constraint penalty term.
	AddPenalty(name string, weight float64, fn func(assignment map[VarRef]bool) float64)
}

// VarRef identifies one decision variable slot (person, block, optional template).
type VarRef struct {
	PersonID   uuid.UUID
	BlockID    uuid.UUID
	TemplateID uuid.UUID // uuid.Nil when referring to x[r,b] rather than t[r,b,k]
}

// HardConstraint must hold in any feasible solution.
type HardConstraint interface {
	Name() string
	ConstraintType() Type
	Priority() Priority
	Parameters() map[string]interface{}
	Encode(model Model, ctx *schedcontext.Context) error
	Validate(assignments []AssignmentView, ctx *schedcontext.Context) Result
}

// SoftConstraint contributes a penalty term to the solver objective.
type SoftConstraint interface {
	Name() string
	ConstraintType() Type
	Weight() float64
	Parameters() map[string]interface{}
	Encode(model Model, ctx *schedcontext.Context) error
}

// AssignmentView is the minimal read-only projection of entity.Assignment
// that constraint Validate implementations need; it decouples the
// constraint package from the full entity type and lets tests construct
// fixtures without pulling in repository plumbing.
type AssignmentView struct {
	PersonID           uuid.UUID
	BlockID            uuid.UUID
	RotationTemplateID *uuid.UUID
	Role               string
	IsOverride         bool
}
