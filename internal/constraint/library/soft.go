package library

import (
	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/schedcontext"
)

// EquityConstraint penalises uneven distribution of assignments across the
// people in the context, nudging the solver toward a balanced load rather
// than forbidding any particular assignment outright.
type EquityConstraint struct {
	weight float64
}

func NewEquityConstraint(weight float64) *EquityConstraint {
	if weight <= 0 {
		weight = 1.0
	}
	return &EquityConstraint{weight: weight}
}

func (c *EquityConstraint) Name() string                  { return "Equity" }
func (c *EquityConstraint) ConstraintType() constraint.Type { return constraint.TypeEquity }
func (c *EquityConstraint) Weight() float64                { return c.weight }
func (c *EquityConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{"weight": c.weight}
}

// Encode adds one penalty term equal to the spread of the final assignment:
// the most-assigned person's assignment count minus the least-assigned
// person's, over every person in the context.
func (c *EquityConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	if len(ctx.Persons) == 0 {
		return nil
	}
	personIdx, numPersons := ctx.PersonIdx, len(ctx.Persons)
	model.AddPenalty(c.Name(), c.weight, func(assignment map[constraint.VarRef]bool) float64 {
		counts := make([]int, numPersons)
		for ref, on := range assignment {
			if i, ok := personIdx[ref.PersonID]; ok && on {
				counts[i]++
			}
		}
		lo, hi := counts[0], counts[0]
		for _, n := range counts {
			lo, hi = min(lo, n), max(hi, n)
		}
		return float64(hi - lo)
	})
	return nil
}

// PreferenceTrailConstraint rewards honoring a person's soft preference for
// specific rotation templates, recorded as parameters at construction time
// (e.g. from a prior request or a swap's FacultyPreferenceTags).
type PreferenceTrailConstraint struct {
	weight      float64
	preferences map[string]map[string]bool // personID string -> template abbreviation -> preferred
}

func NewPreferenceTrailConstraint(weight float64, preferences map[string]map[string]bool) *PreferenceTrailConstraint {
	if weight <= 0 {
		weight = 0.5
	}
	if preferences == nil {
		preferences = map[string]map[string]bool{}
	}
	return &PreferenceTrailConstraint{weight: weight, preferences: preferences}
}

func (c *PreferenceTrailConstraint) Name() string                  { return "PreferenceTrail" }
func (c *PreferenceTrailConstraint) ConstraintType() constraint.Type { return constraint.TypePreference }
func (c *PreferenceTrailConstraint) Weight() float64                { return c.weight }
func (c *PreferenceTrailConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{"weight": c.weight}
}

// Encode rewards (negative-cost penalty) any assignment matching a person's
// recorded template preference.
func (c *PreferenceTrailConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	for _, person := range ctx.Persons {
		prefs, ok := c.preferences[person.ID.String()]
		if !ok {
			continue
		}
		for _, tmpl := range ctx.Templates {
			if !prefs[tmpl.Abbreviation] {
				continue
			}
			for _, block := range ctx.Blocks {
				ref := constraint.VarRef{PersonID: person.ID, BlockID: block.ID, TemplateID: tmpl.ID}
				model.AddPenalty(c.Name(), c.weight, func(assignment map[constraint.VarRef]bool) float64 {
					if assignment[ref] {
						return -1
					}
					return 0
				})
			}
		}
	}
	return nil
}

// AvoidBackToBackCallConstraint discourages (without forbidding) placing a
// person on call-type rotations on two consecutive calendar days.
type AvoidBackToBackCallConstraint struct {
	weight float64
}

func NewAvoidBackToBackCallConstraint(weight float64) *AvoidBackToBackCallConstraint {
	if weight <= 0 {
		weight = 2.0
	}
	return &AvoidBackToBackCallConstraint{weight: weight}
}

func (c *AvoidBackToBackCallConstraint) Name() string { return "AvoidBackToBackCall" }
func (c *AvoidBackToBackCallConstraint) ConstraintType() constraint.Type {
	return constraint.TypeEquity
}
func (c *AvoidBackToBackCallConstraint) Weight() float64 { return c.weight }
func (c *AvoidBackToBackCallConstraint) Parameters() map[string]interface{} {
	return map[string]interface{}{"weight": c.weight}
}

// Encode penalises any person holding call-activity templates on two blocks
// whose dates are adjacent calendar days.
func (c *AvoidBackToBackCallConstraint) Encode(model constraint.Model, ctx *schedcontext.Context) error {
	callTemplates := make(map[string]bool)
	for _, tmpl := range ctx.Templates {
		if tmpl.ActivityType == "call" {
			callTemplates[tmpl.Abbreviation] = true
		}
	}
	for _, person := range ctx.Persons {
		for i, blockA := range ctx.Blocks {
			for _, blockB := range ctx.Blocks[i+1:] {
				diff := blockB.Date.Sub(blockA.Date).Hours()
				if diff <= 0 || diff > 24 {
					continue
				}
				for _, tmplA := range ctx.Templates {
					if !callTemplates[tmplA.Abbreviation] {
						continue
					}
					for _, tmplB := range ctx.Templates {
						if !callTemplates[tmplB.Abbreviation] {
							continue
						}
						refA := constraint.VarRef{PersonID: person.ID, BlockID: blockA.ID, TemplateID: tmplA.ID}
						refB := constraint.VarRef{PersonID: person.ID, BlockID: blockB.ID, TemplateID: tmplB.ID}
						model.AddPenalty(c.Name(), c.weight, func(assignment map[constraint.VarRef]bool) float64 {
							if assignment[refA] && assignment[refB] {
								return 1
							}
							return 0
						})
					}
				}
			}
		}
	}
	return nil
}
