package library

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/schedcontext"
)

// OnePerBlockConstraint forbids assigning one person to more than one
// rotation in the same half-day block.
type OnePerBlockConstraint struct{}

func NewOnePerBlockConstraint() *OnePerBlockConstraint { return &OnePerBlockConstraint{} }

func (c *OnePerBlockConstraint) Name() string                  { return "OnePerBlock" }
func (c *OnePerBlockConstraint) ConstraintType() constraint.Type { return constraint.TypeCapacity }
func (c *OnePerBlockConstraint) Priority() constraint.Priority  { return constraint.PriorityCritical }
func (c *OnePerBlockConstraint) Parameters() map[string]interface{} { return map[string]interface{}{} }

// Encode caps, for every (person, block) pair, the sum of candidate
// template variables at 1.
func (c *OnePerBlockConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	for _, person := range ctx.Persons {
		for _, block := range ctx.Blocks {
			var vars []constraint.VarRef
			for _, tmpl := range ctx.Templates {
				vars = append(vars, constraint.VarRef{PersonID: person.ID, BlockID: block.ID, TemplateID: tmpl.ID})
			}
			if len(vars) > 0 {
				model.AtMost(vars, 1)
			}
		}
	}
	return nil
}

// Validate reports a CRITICAL violation for any (person, block) pair
// carrying more than one assignment.
func (c *OnePerBlockConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	type key struct {
		person uuid.UUID
		block  uuid.UUID
	}
	seen := make(map[key]int)
	for _, a := range assignments {
		seen[key{a.PersonID, a.BlockID}]++
	}
	result := constraint.Result{Satisfied: true}
	for k, n := range seen {
		if n <= 1 {
			continue
		}
		block, _ := ctx.BlockByID(k.block)
		v := constraint.Violation{
			ConstraintName: c.Name(),
			Severity:       constraint.SeverityCritical,
			Message:        fmt.Sprintf("person holds %d assignments in one block", n),
			AffectedRef:    personRef(ctx, k.person),
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

// TemplateCapacityConstraint forbids a rotation template from carrying more
// residents in one block than its configured capacity.
type TemplateCapacityConstraint struct{}

func NewTemplateCapacityConstraint() *TemplateCapacityConstraint { return &TemplateCapacityConstraint{} }

func (c *TemplateCapacityConstraint) Name() string                  { return "TemplateCapacity" }
func (c *TemplateCapacityConstraint) ConstraintType() constraint.Type { return constraint.TypeCapacity }
func (c *TemplateCapacityConstraint) Priority() constraint.Priority  { return constraint.PriorityHigh }
func (c *TemplateCapacityConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{}
}

// Encode caps, for every (block, template) pair that counts toward physical
// capacity, the sum of resident variables at the template's capacity.
func (c *TemplateCapacityConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	for _, tmpl := range ctx.Templates {
		if !tmpl.CountsTowardPhysicalCapacity {
			continue
		}
		for _, block := range ctx.Blocks {
			var vars []constraint.VarRef
			for _, person := range ctx.Persons {
				vars = append(vars, constraint.VarRef{PersonID: person.ID, BlockID: block.ID, TemplateID: tmpl.ID})
			}
			model.AtMost(vars, tmpl.Capacity())
		}
	}
	return nil
}

// Validate reports a HIGH violation for any (block, template) combination
// whose resident count exceeds its capacity.
func (c *TemplateCapacityConstraint) Validate(assignments []constraint.AssignmentView, ctx *schedcontext.Context) constraint.Result {
	type key struct {
		block    uuid.UUID
		template uuid.UUID
	}
	counts := make(map[key]int)
	for _, a := range assignments {
		if a.RotationTemplateID == nil {
			continue
		}
		counts[key{a.BlockID, *a.RotationTemplateID}]++
	}
	result := constraint.Result{Satisfied: true}
	for k, n := range counts {
		tmpl, ok := ctx.TemplateByID(k.template)
		if !ok || !tmpl.CountsTowardPhysicalCapacity || n <= tmpl.Capacity() {
			continue
		}
		block, _ := ctx.BlockByID(k.block)
		v := constraint.Violation{
			ConstraintName: c.Name(),
			Severity:       constraint.SeverityHigh,
			Message:        fmt.Sprintf("%s over capacity: %d assigned, limit %d", tmpl.Abbreviation, n, tmpl.Capacity()),
			AffectedRef:    fmt.Sprintf("TEMPLATE-%s", tmpl.Abbreviation),
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
