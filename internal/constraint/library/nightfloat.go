package library

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/schedcontext"
)

// NightFloatSlotConstraint enforces the fixed same-day AM pattern every
// night-float rotation requires: a person on a PM night-float block must
// carry the mapped AM template the same day (e.g. NF -> OFF-AM, LDNF -> L&D).
type NightFloatSlotConstraint struct{}

func NewNightFloatSlotConstraint() *NightFloatSlotConstraint { return &NightFloatSlotConstraint{} }

func (c *NightFloatSlotConstraint) Name() string                  { return "NightFloatAMPattern" }
func (c *NightFloatSlotConstraint) ConstraintType() constraint.Type { return constraint.TypeRotation }
func (c *NightFloatSlotConstraint) Priority() constraint.Priority  { return constraint.PriorityHigh }
func (c *NightFloatSlotConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{}
}

// blocksByDate indexes a context's blocks by calendar day for the given
// time-of-day, used to pair up a PM night-float block with its same-day AM
// counterpart.
func blocksByDate(ctx *schedcontext.Context, tod entity.TimeOfDay) map[time.Time]uuid.UUID {
	out := make(map[time.Time]uuid.UUID)
	for _, b := range ctx.Blocks {
		if b.TimeOfDay == tod {
			out[b.Date.Truncate(24*time.Hour)] = b.ID
		}
	}
	return out
}

// Encode adds an infinite-weight penalty for any (PM night-float template,
// AM template) pairing on the same day that does not match the required
// pattern, for every person who could occupy both slots.
func (c *NightFloatSlotConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	pmBlockByDay := blocksByDate(ctx, entity.PM)
	amBlockByDay := blocksByDate(ctx, entity.AM)

	for _, tmpl := range ctx.Templates {
		requiredAM, isNightFloat := NightFloatAMPattern[tmpl.Abbreviation]
		if !isNightFloat {
			continue
		}
		for day, pmBlockID := range pmBlockByDay {
			amBlockID, ok := amBlockByDay[day]
			if !ok {
				continue
			}
			for _, amTmpl := range ctx.Templates {
				if amTmpl.Abbreviation == requiredAM {
					continue
				}
				for _, person := range ctx.Persons {
					personID, pmTemplateID, amTemplateID := person.ID, tmpl.ID, amTmpl.ID
					pmKey := constraint.VarRef{PersonID: personID, BlockID: pmBlockID, TemplateID: pmTemplateID}
					amKey := constraint.VarRef{PersonID: personID, BlockID: amBlockID, TemplateID: amTemplateID}
					model.AddPenalty(
						fmt.Sprintf("nightfloat-am-%s-%s", tmpl.Abbreviation, amTmpl.Abbreviation),
						1,
						func(assignment map[constraint.VarRef]bool) float64 {
							if assignment[pmKey] && assignment[amKey] {
								return 1e9
							}
							return 0
						},
					)
				}
			}
		}
	}
	return nil
}

// Validate flags any person whose PM night-float assignment's same-day AM
// assignment does not match the required pattern.
func (c *NightFloatSlotConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	result := constraint.Result{Satisfied: true}

	byPersonDayHalf := make(map[string]constraint.AssignmentView)
	for _, a := range assignments {
		block, ok := ctx.BlockByID(a.BlockID)
		if !ok {
			continue
		}
		day := block.Date.Truncate(24 * time.Hour)
		byPersonDayHalf[a.PersonID.String()+"|"+day.Format("2006-01-02")+"|"+string(block.TimeOfDay)] = a
	}

	for _, a := range assignments {
		block, ok := ctx.BlockByID(a.BlockID)
		if !ok || block.TimeOfDay != entity.PM || a.RotationTemplateID == nil {
			continue
		}
		tmpl, ok := ctx.TemplateByID(*a.RotationTemplateID)
		if !ok {
			continue
		}
		requiredAM, isNightFloat := NightFloatAMPattern[tmpl.Abbreviation]
		if !isNightFloat {
			continue
		}
		day := block.Date.Truncate(24 * time.Hour)
		amAssignment, ok := byPersonDayHalf[a.PersonID.String()+"|"+day.Format("2006-01-02")+"|AM"]
		var amAbbr string
		if ok && amAssignment.RotationTemplateID != nil {
			if amTmpl, ok := ctx.TemplateByID(*amAssignment.RotationTemplateID); ok {
				amAbbr = amTmpl.Abbreviation
			}
		}
		if amAbbr == requiredAM {
			continue
		}
		d := block.Date
		result.Satisfied = false
		result.Violations = append(result.Violations, constraint.Violation{
			ConstraintName: c.Name(),
			Severity:       constraint.SeverityHigh,
			Message:        fmt.Sprintf("night-float %s requires AM pattern %q, found %q", tmpl.Abbreviation, requiredAM, amAbbr),
			AffectedRef:    personRef(ctx, a.PersonID),
			BlockID:        &block.ID,
			DateContext:    &d,
		})
	}
	return result
}
