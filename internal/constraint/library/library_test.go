package library_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/constraint/library"
	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/schedcontext"
)

func pgy1(name string) *entity.Person {
	level := 1
	return &entity.Person{ID: uuid.New(), Name: name, Kind: entity.PersonKindResident, PGYLevel: &level}
}

func pgy2(name string) *entity.Person {
	level := 2
	return &entity.Person{ID: uuid.New(), Name: name, Kind: entity.PersonKindResident, PGYLevel: &level}
}

func faculty(name string) *entity.Person {
	return &entity.Person{ID: uuid.New(), Name: name, Kind: entity.PersonKindFaculty}
}

func block(date time.Time, tod entity.TimeOfDay) *entity.Block {
	return &entity.Block{ID: uuid.New(), Date: date, TimeOfDay: tod}
}

func template(abbr string, activity entity.ActivityType) *entity.RotationTemplate {
	return &entity.RotationTemplate{ID: uuid.New(), Name: abbr, Abbreviation: abbr, ActivityType: activity}
}

func buildCtx(persons []*entity.Person, blocks []*entity.Block, templates []*entity.RotationTemplate) *schedcontext.Context {
	return schedcontext.Build(&repository.PeriodData{Persons: persons, Blocks: blocks, Templates: templates})
}

func buildCtxWithCalls(persons []*entity.Person, blocks []*entity.Block, templates []*entity.RotationTemplate, calls []*entity.ResidentCallPreload) *schedcontext.Context {
	return schedcontext.Build(&repository.PeriodData{Persons: persons, Blocks: blocks, Templates: templates, CallPreloads: calls})
}

func TestWednesdayAMInternOnlyFlagsNonPGY1(t *testing.T) {
	wednesday := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Wednesday, wednesday.Weekday())

	r2 := pgy2("senior")
	amBlock := block(wednesday, entity.AM)
	continuity := template("C", entity.ActivityClinic)

	ctx := buildCtx([]*entity.Person{r2}, []*entity.Block{amBlock}, []*entity.RotationTemplate{continuity})

	c := library.NewWednesdayAMInternOnlyConstraint()
	result := c.Validate([]constraint.AssignmentView{
		{PersonID: r2.ID, BlockID: amBlock.ID, RotationTemplateID: &continuity.ID},
	}, ctx)

	assert.False(t, result.Satisfied)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, constraint.SeverityHigh, result.Violations[0].Severity)
}

func TestInternContinuityPassesForPGY1OnContinuity(t *testing.T) {
	wednesday := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	r1 := pgy1("intern")
	amBlock := block(wednesday, entity.AM)
	continuity := template("CONT", entity.ActivityClinic)

	ctx := buildCtx([]*entity.Person{r1}, []*entity.Block{amBlock}, []*entity.RotationTemplate{continuity})

	c := library.NewInternContinuityConstraint()
	result := c.Validate([]constraint.AssignmentView{
		{PersonID: r1.ID, BlockID: amBlock.ID, RotationTemplateID: &continuity.ID},
	}, ctx)

	assert.True(t, result.Satisfied)
}

func TestNightFloatAMPatternRequiresMappedSlot(t *testing.T) {
	day := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)
	r := pgy2("nf-resident")
	amBlock := block(day, entity.AM)
	pmBlock := block(day, entity.PM)
	nf := template("NF", entity.ActivityInpatient)
	wrongAM := template("CLINIC", entity.ActivityClinic)

	ctx := buildCtx([]*entity.Person{r}, []*entity.Block{amBlock, pmBlock}, []*entity.RotationTemplate{nf, wrongAM})

	c := library.NewNightFloatSlotConstraint()
	result := c.Validate([]constraint.AssignmentView{
		{PersonID: r.ID, BlockID: pmBlock.ID, RotationTemplateID: &nf.ID},
		{PersonID: r.ID, BlockID: amBlock.ID, RotationTemplateID: &wrongAM.ID},
	}, ctx)

	assert.False(t, result.Satisfied)
	require.Len(t, result.Violations, 1)
}

func TestSupervisionRatioRequiresCeilingDivision(t *testing.T) {
	b := block(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), entity.AM)
	clinic := template("CLINIC", entity.ActivityClinic)

	var persons []*entity.Person
	var assignments []constraint.AssignmentView
	for i := 0; i < 5; i++ {
		r := pgy1("intern")
		persons = append(persons, r)
		assignments = append(assignments, constraint.AssignmentView{PersonID: r.ID, BlockID: b.ID, RotationTemplateID: &clinic.ID})
	}
	fac := faculty("attending")
	persons = append(persons, fac)
	assignments = append(assignments, constraint.AssignmentView{PersonID: fac.ID, BlockID: b.ID, RotationTemplateID: &clinic.ID})

	ctx := buildCtx(persons, []*entity.Block{b}, []*entity.RotationTemplate{clinic})

	assert.Equal(t, 3, library.RequiredFaculty(5, 0))

	c := library.NewSupervisionRatioConstraint()
	result := c.Validate(assignments, ctx)

	assert.False(t, result.Satisfied)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, 3, result.Violations[0].Details["required_faculty"])
	assert.Equal(t, constraint.SeverityCritical, result.Violations[0].Severity)
}

func TestSupervisionRatioDeficitOneIsHighSeverity(t *testing.T) {
	b := block(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), entity.AM)
	clinic := template("CLINIC", entity.ActivityClinic)

	var persons []*entity.Person
	var assignments []constraint.AssignmentView
	for i := 0; i < 5; i++ {
		r := pgy1("intern")
		persons = append(persons, r)
		assignments = append(assignments, constraint.AssignmentView{PersonID: r.ID, BlockID: b.ID, RotationTemplateID: &clinic.ID})
	}
	for i := 0; i < 2; i++ {
		fac := faculty("attending")
		persons = append(persons, fac)
		assignments = append(assignments, constraint.AssignmentView{PersonID: fac.ID, BlockID: b.ID, RotationTemplateID: &clinic.ID})
	}

	ctx := buildCtx(persons, []*entity.Block{b}, []*entity.RotationTemplate{clinic})

	c := library.NewSupervisionRatioConstraint()
	result := c.Validate(assignments, ctx)

	assert.False(t, result.Satisfied)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, 3, result.Violations[0].Details["required_faculty"])
	assert.Equal(t, 2, result.Violations[0].Details["faculty_count"])
	assert.Equal(t, constraint.SeverityHigh, result.Violations[0].Severity)
}

func TestOneInSevenFlagsUnbrokenStretch(t *testing.T) {
	r := pgy2("resident")
	var blocks []*entity.Block
	var assignments []constraint.AssignmentView
	clinic := template("CLINIC", entity.ActivityClinic)
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		day := start.AddDate(0, 0, i)
		b := block(day, entity.AM)
		blocks = append(blocks, b)
		assignments = append(assignments, constraint.AssignmentView{PersonID: r.ID, BlockID: b.ID, RotationTemplateID: &clinic.ID})
	}

	ctx := buildCtx([]*entity.Person{r}, blocks, []*entity.RotationTemplate{clinic})

	c := library.NewOneInSevenConstraint()
	result := c.Validate(assignments, ctx)

	assert.False(t, result.Satisfied)
	assert.NotEmpty(t, result.Violations)
}

func TestAvailabilityConstraintFlagsUnavailableAssignment(t *testing.T) {
	r := pgy2("resident")
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	b := block(day, entity.AM)
	clinic := template("CLINIC", entity.ActivityClinic)

	data := &repository.PeriodData{
		Persons:   []*entity.Person{r},
		Blocks:    []*entity.Block{b},
		Templates: []*entity.RotationTemplate{clinic},
		Absences: []*entity.Absence{
			{ID: uuid.New(), PersonID: r.ID, StartDate: day, EndDate: day, AbsenceType: entity.AbsenceVacation, IsBlocking: true},
		},
	}
	ctx := schedcontext.Build(data)

	c := library.NewAvailabilityConstraint(true)
	result := c.Validate([]constraint.AssignmentView{
		{PersonID: r.ID, BlockID: b.ID, RotationTemplateID: &clinic.ID},
	}, ctx)

	assert.False(t, result.Satisfied)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, constraint.SeverityCritical, result.Violations[0].Severity)
}

func TestSpecialtyGateRejectsMissingSpecialty(t *testing.T) {
	r := pgy2("resident")
	b := block(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), entity.AM)
	derm := template("DERM", entity.ActivityClinic)
	derm.RequiredSpecialties = []string{"dermatology"}

	ctx := buildCtx([]*entity.Person{r}, []*entity.Block{b}, []*entity.RotationTemplate{derm})

	c := library.NewSpecialtyGateConstraint()
	result := c.Validate([]constraint.AssignmentView{
		{PersonID: r.ID, BlockID: b.ID, RotationTemplateID: &derm.ID},
	}, ctx)

	assert.False(t, result.Satisfied)
}

func TestEightyHourCountsCallAssignmentsByShiftLength(t *testing.T) {
	r := pgy2("resident")
	ld := template("LD-CALL", entity.ActivityCall)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	var blocks []*entity.Block
	var assignments []constraint.AssignmentView
	var calls []*entity.ResidentCallPreload
	for i := 0; i < 4; i++ {
		day := start.AddDate(0, 0, i)
		b := block(day, entity.AM)
		blocks = append(blocks, b)
		assignments = append(assignments, constraint.AssignmentView{PersonID: r.ID, BlockID: b.ID, RotationTemplateID: &ld.ID})
		calls = append(calls, &entity.ResidentCallPreload{ID: uuid.New(), PersonID: r.ID, CallDate: day, CallType: entity.CallLD24Hr})
	}

	ctx := buildCtxWithCalls([]*entity.Person{r}, blocks, []*entity.RotationTemplate{ld}, calls)

	c := library.NewEightyHourConstraint(80)
	result := c.Validate(assignments, ctx)

	// four ld_24hr calls in one rolling week is 96 duty hours, not the 16
	// a flat 4h-per-assignment count would produce.
	assert.False(t, result.Satisfied)
	require.NotEmpty(t, result.Violations)
}

func TestEightyHourNonCallAssignmentsCountAsHalfDay(t *testing.T) {
	r := pgy2("resident")
	clinic := template("CLINIC", entity.ActivityClinic)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	var blocks []*entity.Block
	var assignments []constraint.AssignmentView
	for i := 0; i < 4; i++ {
		day := start.AddDate(0, 0, i)
		b := block(day, entity.AM)
		blocks = append(blocks, b)
		assignments = append(assignments, constraint.AssignmentView{PersonID: r.ID, BlockID: b.ID, RotationTemplateID: &clinic.ID})
	}

	ctx := buildCtx([]*entity.Person{r}, blocks, []*entity.RotationTemplate{clinic})

	c := library.NewEightyHourConstraint(80)
	result := c.Validate(assignments, ctx)

	assert.True(t, result.Satisfied)
}

func TestRegisterPopulatesDefaultNames(t *testing.T) {
	reg := constraint.NewRegistry()
	library.Register(reg)

	for _, name := range library.DefaultHardNames {
		_, err := reg.Build(name, map[string]interface{}{})
		require.NoError(t, err, name)
	}
	for _, name := range library.DefaultSoftNames {
		_, err := reg.Build(name, map[string]interface{}{})
		require.NoError(t, err, name)
	}
}
