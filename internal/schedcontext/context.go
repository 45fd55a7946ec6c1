// Package schedcontext assembles the read-only SchedulingContext consumed
// by the constraint framework and solver adapters: ordered entity arrays,
// index maps, and a materialised availability matrix. One instance is built
// per generation or validation call and never mutated afterward.
package schedcontext

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
)

// AvailabilityEntry records whether a person may be assigned to a block,
// and if restricted, why (or to which single activity).
type AvailabilityEntry struct {
	Available          bool
	Reason             string
	RestrictedToTemplate *uuid.UUID
}

// Context is the transient, read-only view the solver and constraints
// operate over.
type Context struct {
	Persons   []*entity.Person
	Blocks    []*entity.Block
	Templates []*entity.RotationTemplate

	PersonIdx   map[uuid.UUID]int
	BlockIdx    map[uuid.UUID]int
	TemplateIdx map[uuid.UUID]int

	// Availability[personID][blockID] — not [i][j] by design: callers look
	// up by entity ID far more often than by ordinal, and the ordinal form
	// is trivially derived via PersonIdx/BlockIdx when needed.
	Availability map[uuid.UUID]map[uuid.UUID]AvailabilityEntry

	ExistingAssignments []*entity.Assignment

	Absences []*entity.Absence

	// callTypeByPersonDate indexes ResidentCallPreload.CallType by person and
	// call date (truncated to day) for duty-hour accounting: a call
	// assignment's actual shift length depends on which of ld_24hr/
	// nf_coverage/weekend it was preloaded as, not on its rotation template.
	callTypeByPersonDate map[uuid.UUID]map[time.Time]entity.CallType
}

// Build assembles a Context from a repository.PeriodData snapshot.
func Build(data *repository.PeriodData) *Context {
	ctx := &Context{
		Persons:             append([]*entity.Person(nil), data.Persons...),
		Blocks:              append([]*entity.Block(nil), data.Blocks...),
		Templates:           append([]*entity.RotationTemplate(nil), data.Templates...),
		ExistingAssignments: append([]*entity.Assignment(nil), data.Assignments...),
		Absences:            append([]*entity.Absence(nil), data.Absences...),
	}

	sort.Slice(ctx.Blocks, func(i, j int) bool {
		if !ctx.Blocks[i].Date.Equal(ctx.Blocks[j].Date) {
			return ctx.Blocks[i].Date.Before(ctx.Blocks[j].Date)
		}
		return ctx.Blocks[i].TimeOfDay == entity.AM
	})
	sort.Slice(ctx.Persons, func(i, j int) bool { return ctx.Persons[i].Name < ctx.Persons[j].Name })
	sort.Slice(ctx.Templates, func(i, j int) bool { return ctx.Templates[i].Abbreviation < ctx.Templates[j].Abbreviation })

	ctx.PersonIdx = make(map[uuid.UUID]int, len(ctx.Persons))
	for i, p := range ctx.Persons {
		ctx.PersonIdx[p.ID] = i
	}
	ctx.BlockIdx = make(map[uuid.UUID]int, len(ctx.Blocks))
	for j, b := range ctx.Blocks {
		ctx.BlockIdx[b.ID] = j
	}
	ctx.TemplateIdx = make(map[uuid.UUID]int, len(ctx.Templates))
	for k, t := range ctx.Templates {
		ctx.TemplateIdx[t.ID] = k
	}

	ctx.Availability = buildAvailability(ctx.Persons, ctx.Blocks, ctx.Templates, data.Absences, data.Preloads)

	ctx.callTypeByPersonDate = make(map[uuid.UUID]map[time.Time]entity.CallType, len(data.CallPreloads))
	for _, p := range data.CallPreloads {
		byDate, ok := ctx.callTypeByPersonDate[p.PersonID]
		if !ok {
			byDate = make(map[time.Time]entity.CallType)
			ctx.callTypeByPersonDate[p.PersonID] = byDate
		}
		byDate[p.CallDate.Truncate(24*time.Hour)] = p.CallType
	}

	return ctx
}

// buildAvailability materialises the availability matrix per §4.3:
// blocking absences make a person unavailable; inpatient preloads restrict
// a person to a single rotation (and its templates) for their span;
// everything else defaults to available.
func buildAvailability(
	persons []*entity.Person,
	blocks []*entity.Block,
	templates []*entity.RotationTemplate,
	absences []*entity.Absence,
	preloads []*entity.InpatientPreload,
) map[uuid.UUID]map[uuid.UUID]AvailabilityEntry {
	availability := make(map[uuid.UUID]map[uuid.UUID]AvailabilityEntry, len(persons))

	templateByAbbrev := make(map[string]uuid.UUID, len(templates))
	for _, t := range templates {
		templateByAbbrev[t.Abbreviation] = t.ID
	}

	absencesByPerson := make(map[uuid.UUID][]*entity.Absence)
	for _, a := range absences {
		absencesByPerson[a.PersonID] = append(absencesByPerson[a.PersonID], a)
	}
	preloadsByPerson := make(map[uuid.UUID][]*entity.InpatientPreload)
	for _, p := range preloads {
		preloadsByPerson[p.PersonID] = append(preloadsByPerson[p.PersonID], p)
	}

	for _, person := range persons {
		perBlock := make(map[uuid.UUID]AvailabilityEntry, len(blocks))
		for _, block := range blocks {
			entryVal := AvailabilityEntry{Available: true}

			for _, a := range absencesByPerson[person.ID] {
				if a.IsBlocking && a.Covers(block.Date) {
					entryVal = AvailabilityEntry{Available: false, Reason: "blocking absence: " + string(a.AbsenceType)}
					break
				}
			}

			if entryVal.Available {
				for _, p := range preloadsByPerson[person.ID] {
					if !block.Date.Before(p.StartDate) && !block.Date.After(p.EndDate) {
						reason := "inpatient preload: " + string(p.RotationType)
						if tmplID, ok := templateByAbbrev[string(p.RotationType)]; ok {
							id := tmplID
							entryVal = AvailabilityEntry{Available: true, Reason: reason, RestrictedToTemplate: &id}
						} else {
							entryVal = AvailabilityEntry{Available: true, Reason: reason}
						}
						break
					}
				}
			}

			perBlock[block.ID] = entryVal
		}
		availability[person.ID] = perBlock
	}

	return availability
}

// IsAvailable is a convenience lookup with a safe default (unavailable) for
// (person, block) pairs absent from the matrix — which should not happen
// for any person/block pair both present in the Context.
func (c *Context) IsAvailable(personID, blockID uuid.UUID) bool {
	perBlock, ok := c.Availability[personID]
	if !ok {
		return false
	}
	entryVal, ok := perBlock[blockID]
	if !ok {
		return false
	}
	return entryVal.Available
}

// AssignmentsForPerson returns the existing assignments for one person,
// useful for rolling-window constraints.
func (c *Context) AssignmentsForPerson(personID uuid.UUID) []*entity.Assignment {
	var out []*entity.Assignment
	for _, a := range c.ExistingAssignments {
		if a.PersonID == personID {
			out = append(out, a)
		}
	}
	return out
}

// BlockByID looks up a block by ID, returning (nil, false) on miss.
func (c *Context) BlockByID(id uuid.UUID) (*entity.Block, bool) {
	idx, ok := c.BlockIdx[id]
	if !ok {
		return nil, false
	}
	return c.Blocks[idx], true
}

// CallTypeOn reports the ResidentCallPreload.CallType pinned for person on
// date, if any — the source of truth for a call assignment's real duty-hour
// contribution (library.AssignmentHours), since that varies by call type and
// not by rotation template.
func (c *Context) CallTypeOn(personID uuid.UUID, date time.Time) (entity.CallType, bool) {
	byDate, ok := c.callTypeByPersonDate[personID]
	if !ok {
		return "", false
	}
	ct, ok := byDate[date.Truncate(24*time.Hour)]
	return ct, ok
}

// TemplateByID looks up a rotation template by ID, returning (nil, false) on miss.
func (c *Context) TemplateByID(id uuid.UUID) (*entity.RotationTemplate, bool) {
	idx, ok := c.TemplateIdx[id]
	if !ok {
		return nil, false
	}
	return c.Templates[idx], true
}

// TemplateByAbbreviation does a linear scan; the template list is small
// (tens of entries) so an index is not worth the bookkeeping.
func (c *Context) TemplateByAbbreviation(abbr string) (*entity.RotationTemplate, bool) {
	for _, t := range c.Templates {
		if t.Abbreviation == abbr {
			return t, true
		}
	}
	return nil, false
}
