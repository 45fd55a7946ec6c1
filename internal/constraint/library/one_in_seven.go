package library

import (
	"fmt"
	"time"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/schedcontext"
)

// OneInSevenConstraint enforces the ACGME requirement that every resident
// get at least one full day off in each rolling 7-day window (averaged over
// 4 weeks in the source regulation, applied here per-window for a tighter,
// more defensible guarantee).
type OneInSevenConstraint struct{}

func NewOneInSevenConstraint() *OneInSevenConstraint { return &OneInSevenConstraint{} }

func (c *OneInSevenConstraint) Name() string                  { return "OneDayOffInSeven" }
func (c *OneInSevenConstraint) ConstraintType() constraint.Type { return constraint.TypeRegulatory }
func (c *OneInSevenConstraint) Priority() constraint.Priority  { return constraint.PriorityCritical }
func (c *OneInSevenConstraint) Parameters() map[string]interface{} { return map[string]interface{}{} }

// Encode is a no-op: the guarantee is a whole-day property over AM+PM pairs
// that only Validate can evaluate cleanly once the half-day schedule is
// concrete. Nothing is added to the model, so the search itself does not see
// the rule; the adapters run Validate over their decisions after the search.
func (c *OneInSevenConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	return nil
}

// Validate reports a CRITICAL violation for any person whose every day in
// some 7-day window carries at least one assignment (AM or PM).
func (c *OneInSevenConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	result := constraint.Result{Satisfied: true}

	byPerson := make(map[string][]constraint.AssignmentView)
	for _, a := range assignments {
		ref := personRef(ctx, a.PersonID)
		byPerson[ref] = append(byPerson[ref], a)
	}

	for ref, list := range byPerson {
		workedDays := make(map[time.Time]bool)
		for _, a := range list {
			block, ok := ctx.BlockByID(a.BlockID)
			if !ok {
				continue
			}
			workedDays[block.Date.Truncate(24*time.Hour)] = true
		}
		if len(workedDays) == 0 {
			continue
		}
		var min, max time.Time
		for d := range workedDays {
			if min.IsZero() || d.Before(min) {
				min = d
			}
			if max.IsZero() || d.After(max) {
				max = d
			}
		}
		for windowStart := min; !windowStart.After(max); windowStart = windowStart.AddDate(0, 0, 1) {
			windowEnd := windowStart.AddDate(0, 0, 6)
			allWorked := true
			for d := windowStart; !d.After(windowEnd); d = d.AddDate(0, 0, 1) {
				if !workedDays[d] {
					allWorked = false
					break
				}
			}
			if allWorked {
				d := windowStart
				result.Satisfied = false
				result.Violations = append(result.Violations, constraint.Violation{
					ConstraintName: c.Name(),
					Severity:       constraint.SeverityCritical,
					Message:        fmt.Sprintf("no day off in window starting %s", windowStart.Format("2006-01-02")),
					AffectedRef:    ref,
					DateContext:    &d,
				})
			}
		}
	}
	return result
}
