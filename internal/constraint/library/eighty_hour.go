package library

import (
	"fmt"
	"time"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/schedcontext"
)

// EightyHourConstraint enforces the ACGME 80-hour rolling 7-day duty limit,
// summed over the 7-day window ending at each assignment date.
type EightyHourConstraint struct {
	maxHours float64
}

// NewEightyHourConstraint builds the constraint with the standard 80-hour
// ceiling; exposed as a parameter so a residency program with an approved
// exception can override it.
func NewEightyHourConstraint(maxHours float64) *EightyHourConstraint {
	if maxHours <= 0 {
		maxHours = 80.0
	}
	return &EightyHourConstraint{maxHours: maxHours}
}

func (c *EightyHourConstraint) Name() string                  { return "EightyHourRollingWindow" }
func (c *EightyHourConstraint) ConstraintType() constraint.Type { return constraint.TypeRegulatory }
func (c *EightyHourConstraint) Priority() constraint.Priority  { return constraint.PriorityCritical }

func (c *EightyHourConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{"max_hours": c.maxHours}
}

// Encode adds no AtMost group and no penalty term: the rolling-window sum
// does not reduce to one group the shared Model can express, so Validate is
// the authoritative check. Encode only prunes obviously-infeasible variables
// by fixing a person off every block in a window where their preloaded,
// non-solver-controlled assignments already reach maxHours/4 half-days.
func (c *EightyHourConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	maxHalfDays := int(c.maxHours / HoursPerHalfDay)
	for _, person := range ctx.Persons {
		existing := ctx.AssignmentsForPerson(person.ID)
		byDate := make(map[time.Time]int)
		for _, a := range existing {
			block, ok := ctx.BlockByID(a.BlockID)
			if !ok {
				continue
			}
			byDate[block.Date.Truncate(24*time.Hour)]++
		}
		for _, block := range ctx.Blocks {
			windowStart := block.Date.AddDate(0, 0, -6)
			count := 0
			for d, n := range byDate {
				if !d.Before(windowStart.Truncate(24*time.Hour)) && !d.After(block.Date.Truncate(24*time.Hour)) {
					count += n
				}
			}
			if count >= maxHalfDays {
				model.FixAssignment(person.ID, block.ID, nil, false)
			}
		}
	}
	return nil
}

// Validate walks every assignment date for each person and checks the
// trailing 7-day window ending on that date against maxHours.
func (c *EightyHourConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	result := constraint.Result{Satisfied: true}

	byPerson := make(map[string][]constraint.AssignmentView)
	for _, a := range assignments {
		ref := personRef(ctx, a.PersonID)
		byPerson[ref] = append(byPerson[ref], a)
	}

	for ref, list := range byPerson {
		dated := make(map[time.Time]float64)
		var personID = list[0].PersonID
		for _, a := range list {
			block, ok := ctx.BlockByID(a.BlockID)
			if !ok {
				continue
			}
			day := block.Date.Truncate(24 * time.Hour)
			abbrev := ""
			if tmpl, ok := blockTemplate(ctx, a); ok {
				abbrev = tmpl.Abbreviation
			}
			callType, isCall := ctx.CallTypeOn(a.PersonID, day)
			var callTypePtr *entity.CallType
			if isCall {
				callTypePtr = &callType
			}
			dated[day] += AssignmentHours(abbrev, isCall, callTypePtr)
		}
		for day := range dated {
			windowStart := day.AddDate(0, 0, -6)
			total := 0.0
			for d, h := range dated {
				if !d.Before(windowStart) && !d.After(day) {
					total += h
				}
			}
			if total > c.maxHours {
				d := day
				result.Satisfied = false
				result.Violations = append(result.Violations, constraint.Violation{
					ConstraintName: c.Name(),
					Severity:       constraint.SeverityCritical,
					Message:        fmt.Sprintf("%.0f duty hours in 7-day window ending %s exceeds %.0f", total, day.Format("2006-01-02"), c.maxHours),
					AffectedRef:    ref,
					DateContext:    &d,
					Details:        map[string]interface{}{"person_id": personID},
				})
			}
		}
	}
	return result
}
