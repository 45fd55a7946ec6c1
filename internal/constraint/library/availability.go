package library

import (
	"fmt"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/schedcontext"
)

// AvailabilityConstraint forbids assigning a person to a block they are
// unavailable for (blocking absence, or outside an inpatient-preload
// restriction), unless the assignment carries an override.
type AvailabilityConstraint struct {
	strict bool
}

// NewAvailabilityConstraint builds the constraint; strict controls whether
// an override assignment against an unavailable slot still raises a WARNING
// (true) or is silently accepted (false).
func NewAvailabilityConstraint(strict bool) *AvailabilityConstraint {
	return &AvailabilityConstraint{strict: strict}
}

func (c *AvailabilityConstraint) Name() string                  { return "Availability" }
func (c *AvailabilityConstraint) ConstraintType() constraint.Type { return constraint.TypeAvailability }
func (c *AvailabilityConstraint) Priority() constraint.Priority  { return constraint.PriorityCritical }

func (c *AvailabilityConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{"strict": c.strict}
}

// Encode forbids x[r,b] wherever the availability matrix says the person is
// unavailable on that block.
func (c *AvailabilityConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	for _, person := range ctx.Persons {
		perBlock, ok := ctx.Availability[person.ID]
		if !ok {
			continue
		}
		for _, block := range ctx.Blocks {
			if entryVal, ok := perBlock[block.ID]; ok && !entryVal.Available {
				model.FixAssignment(person.ID, block.ID, nil, false)
			}
		}
	}
	return nil
}

// Validate reports a CRITICAL violation for every existing assignment that
// lands on a block the person was marked unavailable for, unless the
// assignment is an acknowledged override.
func (c *AvailabilityConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	result := constraint.Result{Satisfied: true}
	for _, a := range assignments {
		if a.IsOverride {
			if !c.strict {
				continue
			}
		}
		perBlock, ok := ctx.Availability[a.PersonID]
		if !ok {
			continue
		}
		entryVal, ok := perBlock[a.BlockID]
		if !ok || entryVal.Available {
			continue
		}
		block, _ := ctx.BlockByID(a.BlockID)
		severity := constraint.SeverityCritical
		if a.IsOverride {
			severity = constraint.SeverityWarning
		}
		v := constraint.Violation{
			ConstraintName: c.Name(),
			Severity:       severity,
			Message:        fmt.Sprintf("assignment against unavailable slot: %s", entryVal.Reason),
			AffectedRef:    personRef(ctx, a.PersonID),
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
