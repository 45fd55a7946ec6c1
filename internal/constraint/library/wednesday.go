package library

import (
	"fmt"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/schedcontext"
)

// WednesdayAMInternOnlyConstraint reserves the Wednesday-AM continuity-clinic
// slot for PGY-1 residents: no other person may be placed against the
// continuity template in that slot.
type WednesdayAMInternOnlyConstraint struct{}

func NewWednesdayAMInternOnlyConstraint() *WednesdayAMInternOnlyConstraint {
	return &WednesdayAMInternOnlyConstraint{}
}

func (c *WednesdayAMInternOnlyConstraint) Name() string { return "WednesdayAMInternOnly" }
func (c *WednesdayAMInternOnlyConstraint) ConstraintType() constraint.Type {
	return constraint.TypeRotation
}
func (c *WednesdayAMInternOnlyConstraint) Priority() constraint.Priority {
	return constraint.PriorityHigh
}
func (c *WednesdayAMInternOnlyConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{}
}

// Encode forbids every non-PGY-1 person from holding the continuity template
// on a Wednesday-AM block.
func (c *WednesdayAMInternOnlyConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	for _, block := range ctx.Blocks {
		if !block.IsWednesdayAM() {
			continue
		}
		for _, tmpl := range ctx.Templates {
			if !ContinuityAbbreviations[tmpl.Abbreviation] {
				continue
			}
			for _, person := range ctx.Persons {
				if !person.IsPGY1() {
					model.FixAssignment(person.ID, block.ID, &tmpl.ID, false)
				}
			}
		}
	}
	return nil
}

// Validate flags any non-PGY-1 person assigned to a continuity template on a
// Wednesday-AM block.
func (c *WednesdayAMInternOnlyConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	result := constraint.Result{Satisfied: true}
	for _, a := range assignments {
		block, ok := ctx.BlockByID(a.BlockID)
		if !ok || !block.IsWednesdayAM() || a.RotationTemplateID == nil {
			continue
		}
		tmpl, ok := ctx.TemplateByID(*a.RotationTemplateID)
		if !ok || !ContinuityAbbreviations[tmpl.Abbreviation] {
			continue
		}
		idx, ok := ctx.PersonIdx[a.PersonID]
		if !ok || ctx.Persons[idx].IsPGY1() {
			continue
		}
		d := block.Date
		result.Satisfied = false
		result.Violations = append(result.Violations, constraint.Violation{
			ConstraintName: c.Name(),
			Severity:       constraint.SeverityHigh,
			Message:        "non-PGY-1 resident placed in Wednesday-AM continuity slot",
			AffectedRef:    personRef(ctx, a.PersonID),
			BlockID:        &block.ID,
			DateContext:    &d,
		})
	}
	return result
}

// InternContinuityConstraint requires every PGY-1 resident to hold a
// continuity-clinic assignment on their available Wednesday-AM blocks.
type InternContinuityConstraint struct{}

func NewInternContinuityConstraint() *InternContinuityConstraint {
	return &InternContinuityConstraint{}
}

func (c *InternContinuityConstraint) Name() string { return "InternWednesdayContinuity" }
func (c *InternContinuityConstraint) ConstraintType() constraint.Type {
	return constraint.TypeRotation
}
func (c *InternContinuityConstraint) Priority() constraint.Priority { return constraint.PriorityHigh }
func (c *InternContinuityConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{}
}

// Encode adds no hard fix (the expansion/generation stage is responsible for
// placing the continuity template); this constraint's job is to validate the
// outcome, mirroring the belt-and-suspenders structure of its source rule.
func (c *InternContinuityConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	return nil
}

// Validate flags any PGY-1 resident whose Wednesday-AM assignment, when
// present and available, is not one of the continuity abbreviations.
func (c *InternContinuityConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	result := constraint.Result{Satisfied: true}
	byPersonBlock := make(map[string]constraint.AssignmentView)
	for _, a := range assignments {
		byPersonBlock[a.PersonID.String()+"|"+a.BlockID.String()] = a
	}

	for _, person := range ctx.Persons {
		if !person.IsPGY1() {
			continue
		}
		for _, block := range ctx.Blocks {
			if !block.IsWednesdayAM() || !ctx.IsAvailable(person.ID, block.ID) {
				continue
			}
			a, ok := byPersonBlock[person.ID.String()+"|"+block.ID.String()]
			if !ok {
				continue
			}
			var abbr string
			if a.RotationTemplateID != nil {
				if tmpl, ok := ctx.TemplateByID(*a.RotationTemplateID); ok {
					abbr = tmpl.Abbreviation
				}
			}
			if ContinuityAbbreviations[abbr] {
				continue
			}
			d := block.Date
			result.Satisfied = false
			result.Violations = append(result.Violations, constraint.Violation{
				ConstraintName: c.Name(),
				Severity:       constraint.SeverityHigh,
				Message:        "PGY-1 resident's Wednesday-AM slot is not continuity clinic",
				AffectedRef:    personRef(ctx, person.ID),
				BlockID:        &block.ID,
				DateContext:    &d,
			})
		}
	}
	return result
}

// WednesdayPMLecConstraint requires non-exempt rotations to release their
// residents to the LEC-PM lecture block on Wednesday afternoons.
type WednesdayPMLecConstraint struct{}

func NewWednesdayPMLecConstraint() *WednesdayPMLecConstraint { return &WednesdayPMLecConstraint{} }

func (c *WednesdayPMLecConstraint) Name() string                  { return "WednesdayPMLecture" }
func (c *WednesdayPMLecConstraint) ConstraintType() constraint.Type { return constraint.TypeRotation }
func (c *WednesdayPMLecConstraint) Priority() constraint.Priority  { return constraint.PriorityHigh }
func (c *WednesdayPMLecConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{}
}

// Encode forbids placing any non-exempt, non-LEC-PM template on a
// Wednesday-PM block for residents.
func (c *WednesdayPMLecConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	for _, block := range ctx.Blocks {
		if !block.IsWednesdayPM() {
			continue
		}
		for _, tmpl := range ctx.Templates {
			if tmpl.Abbreviation == "LEC-PM" || LECExempt[tmpl.Abbreviation] {
				continue
			}
			for _, person := range ctx.Persons {
				if person.Kind != entity.PersonKindResident {
					continue
				}
				model.FixAssignment(person.ID, block.ID, &tmpl.ID, false)
			}
		}
	}
	return nil
}

// Validate flags any resident assignment on a Wednesday-PM block whose
// rotation is neither LEC-PM nor exempt.
func (c *WednesdayPMLecConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	result := constraint.Result{Satisfied: true}
	for _, a := range assignments {
		block, ok := ctx.BlockByID(a.BlockID)
		if !ok || !block.IsWednesdayPM() {
			continue
		}
		personIdx, ok := ctx.PersonIdx[a.PersonID]
		if !ok || ctx.Persons[personIdx].Kind != entity.PersonKindResident {
			continue
		}
		var abbr string
		if a.RotationTemplateID != nil {
			if tmpl, ok := ctx.TemplateByID(*a.RotationTemplateID); ok {
				abbr = tmpl.Abbreviation
			}
		}
		if abbr == "LEC-PM" || LECExempt[abbr] {
			continue
		}
		d := block.Date
		result.Satisfied = false
		result.Violations = append(result.Violations, constraint.Violation{
			ConstraintName: c.Name(),
			Severity:       constraint.SeverityHigh,
			Message:        fmt.Sprintf("resident on %q during Wednesday-PM lecture block", abbr),
			AffectedRef:    personRef(ctx, a.PersonID),
			BlockID:        &block.ID,
			DateContext:    &d,
		})
	}
	return result
}
