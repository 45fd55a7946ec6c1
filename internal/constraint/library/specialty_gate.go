package library

import (
	"fmt"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/schedcontext"
)

// SpecialtyGateConstraint forbids a rotation template from being assigned to
// a person who lacks its required specialty tag, or whose PGY level falls
// outside the template's configured range.
type SpecialtyGateConstraint struct{}

func NewSpecialtyGateConstraint() *SpecialtyGateConstraint { return &SpecialtyGateConstraint{} }

func (c *SpecialtyGateConstraint) Name() string                  { return "SpecialtyPGYGate" }
func (c *SpecialtyGateConstraint) ConstraintType() constraint.Type { return constraint.TypeRotation }
func (c *SpecialtyGateConstraint) Priority() constraint.Priority  { return constraint.PriorityCritical }
func (c *SpecialtyGateConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{}
}

// eligible reports whether person may hold tmpl, per person-type, PGY range,
// and specialty gates.
func eligible(person *entity.Person, tmpl *entity.RotationTemplate) bool {
	if !tmpl.AllowsPerson(person.Kind) {
		return false
	}
	if tmpl.MinPGYLevel != nil {
		if person.PGYLevel == nil || *person.PGYLevel < *tmpl.MinPGYLevel {
			return false
		}
	}
	if tmpl.MaxPGYLevel != nil {
		if person.PGYLevel == nil || *person.PGYLevel > *tmpl.MaxPGYLevel {
			return false
		}
	}
	for _, specialty := range tmpl.RequiredSpecialties {
		if !person.HasSpecialty(specialty) {
			return false
		}
	}
	return true
}

// Encode forbids every (person, template) pair the person is ineligible for,
// across every block.
func (c *SpecialtyGateConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	for _, person := range ctx.Persons {
		for _, tmpl := range ctx.Templates {
			if eligible(person, tmpl) {
				continue
			}
			for _, block := range ctx.Blocks {
				model.FixAssignment(person.ID, block.ID, &tmpl.ID, false)
			}
		}
	}
	return nil
}

// Validate flags any existing assignment where the person is ineligible for
// the assigned template.
func (c *SpecialtyGateConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	result := constraint.Result{Satisfied: true}
	for _, a := range assignments {
		if a.RotationTemplateID == nil {
			continue
		}
		personIdx, ok := ctx.PersonIdx[a.PersonID]
		if !ok {
			continue
		}
		tmpl, ok := ctx.TemplateByID(*a.RotationTemplateID)
		if !ok {
			continue
		}
		person := ctx.Persons[personIdx]
		if eligible(person, tmpl) {
			continue
		}
		block, _ := ctx.BlockByID(a.BlockID)
		v := constraint.Violation{
			ConstraintName: c.Name(),
			Severity:       constraint.SeverityCritical,
			Message:        fmt.Sprintf("ineligible for %s: PGY/specialty gate failed", tmpl.Abbreviation),
			AffectedRef:    personRef(ctx, person.ID),
		}
		if block != nil {
			v.BlockID = &block.ID
			v.DateContext = &block.Date
		}
		result.Satisfied = false
		result.Violations = append(result.Violations, v)
	}
	return result
}
