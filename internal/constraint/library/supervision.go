package library

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/schedcontext"
)

// SupervisionRatioConstraint enforces the ACGME faculty:resident ratio per
// block: required faculty = ceil((2*pgy1_count + other_resident_count) / 4).
type SupervisionRatioConstraint struct{}

func NewSupervisionRatioConstraint() *SupervisionRatioConstraint {
	return &SupervisionRatioConstraint{}
}

func (c *SupervisionRatioConstraint) Name() string                  { return "SupervisionRatio" }
func (c *SupervisionRatioConstraint) ConstraintType() constraint.Type { return constraint.TypeSupervision }
func (c *SupervisionRatioConstraint) Priority() constraint.Priority  { return constraint.PriorityCritical }
func (c *SupervisionRatioConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{}
}

// RequiredFaculty computes the ceiling-division supervision requirement for
// a block given its PGY-1 and other-resident counts.
func RequiredFaculty(pgy1Count, otherResidentCount int) int {
	return (2*pgy1Count + otherResidentCount + 3) / 4
}

// Encode has no direct linear shape the shared Model interface can express
// (the required-faculty count depends on the solution itself, not just on
// fixed inputs), so nothing is added to the model and the search itself does
// not see it. Validate is authoritative here; the adapters run it over their
// decisions after the search.
func (c *SupervisionRatioConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	return nil
}

// Validate counts residents and faculty per clinical block and reports a
// violation wherever assigned faculty falls short of the required ratio:
// CRITICAL for a deficit of two or more faculty, HIGH for a deficit of one.
func (c *SupervisionRatioConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	result := constraint.Result{Satisfied: true}

	type counts struct {
		pgy1    int
		other   int
		faculty int
	}
	byBlock := make(map[uuid.UUID]*counts)

	for _, a := range assignments {
		personIdx, ok := ctx.PersonIdx[a.PersonID]
		if !ok {
			continue
		}
		person := ctx.Persons[personIdx]
		tmpl, ok := blockTemplate(ctx, a)
		if ok && tmpl.ActivityType != entity.ActivityClinic && tmpl.ActivityType != entity.ActivityInpatient {
			continue
		}
		entryVal, ok := byBlock[a.BlockID]
		if !ok {
			entryVal = &counts{}
			byBlock[a.BlockID] = entryVal
		}
		switch {
		case person.Kind == entity.PersonKindFaculty:
			entryVal.faculty++
		case person.IsPGY1():
			entryVal.pgy1++
		default:
			entryVal.other++
		}
	}

	for blockID, cnt := range byBlock {
		required := RequiredFaculty(cnt.pgy1, cnt.other)
		if cnt.faculty >= required {
			continue
		}
		deficit := required - cnt.faculty
		severity := constraint.SeverityHigh
		if deficit >= 2 {
			severity = constraint.SeverityCritical
		}
		block, _ := ctx.BlockByID(blockID)
		v := constraint.Violation{
			ConstraintName: c.Name(),
			Severity:       severity,
			Message:        fmt.Sprintf("supervision shortfall: %d faculty present, %d required", cnt.faculty, required),
			AffectedRef:    "BLOCK-SUPERVISION",
			Details:        map[string]interface{}{"pgy1_count": cnt.pgy1, "other_resident_count": cnt.other, "faculty_count": cnt.faculty, "required_faculty": required},
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

func blockTemplate(ctx *schedcontext.Context, a constraint.AssignmentView) (*entity.RotationTemplate, bool) {
	if a.RotationTemplateID == nil {
		return nil, false
	}
	return ctx.TemplateByID(*a.RotationTemplateID)
}
