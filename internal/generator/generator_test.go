package generator_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/generator"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/repository/memory"
)

func seedClinic(t *testing.T, store *memory.Store, residents, faculty int, days int) repository.Period {
	t.Helper()
	ctx := context.Background()

	clinic := &entity.RotationTemplate{
		Name:               "Clinic",
		Abbreviation:       "C",
		ActivityType:       entity.ActivityClinic,
		AllowedPersonTypes: []entity.PersonKind{entity.PersonKindResident, entity.PersonKindFaculty},
		MaxResidents:       residents + 1,
	}
	require.NoError(t, store.RotationTemplateRepository().Create(ctx, clinic))

	for i := 0; i < residents; i++ {
		pgy := 2
		p := &entity.Person{
			Name:     "Resident",
			Kind:     entity.PersonKindResident,
			PGYLevel: &pgy,
			Email:    uuid.NewString() + "@example.com",
		}
		require.NoError(t, store.PersonRepository().Create(ctx, p))
	}
	for i := 0; i < faculty; i++ {
		f := &entity.Person{
			Name:  "Faculty",
			Kind:  entity.PersonKindFaculty,
			Email: uuid.NewString() + "@example.com",
		}
		require.NoError(t, store.PersonRepository().Create(ctx, f))
	}

	start := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC) // a Monday
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		for _, tod := range []entity.TimeOfDay{entity.AM, entity.PM} {
			b := &entity.Block{Date: date, TimeOfDay: tod}
			require.NoError(t, store.BlockRepository().Create(ctx, b))
		}
	}

	return repository.Period{Start: start, End: start.AddDate(0, 0, days-1)}
}

func TestGenerateScheduleProducesAssignments(t *testing.T) {
	store := memory.New()
	period := seedClinic(t, store, 2, 1, 1)

	g := generator.New(store)
	result := g.GenerateSchedule(context.Background(), period, generator.Options{
		Solver:  generator.SolverLinear,
		Seed:    1,
		Timeout: 5 * time.Second,
	})

	require.NoError(t, result.Error)
	require.True(t, result.Success)

	data, err := store.LoadPeriod(context.Background(), period)
	require.NoError(t, err)
	require.NotEmpty(t, data.Assignments)
}

func TestGenerateScheduleInfeasibleReturnsSuggestionsAndCore(t *testing.T) {
	store := memory.New()
	// Five PGY-1 residents, zero faculty: supervision is unsatisfiable no
	// matter what the solver tries, so the run must come back INFEASIBLE
	// with a non-empty minimal core and remediation suggestions.
	period := seedClinic(t, store, 5, 0, 1)
	ctx := context.Background()
	people, err := store.PersonRepository().ListByKind(ctx, entity.PersonKindResident)
	require.NoError(t, err)
	for _, p := range people {
		pgy1 := 1
		p.PGYLevel = &pgy1
		require.NoError(t, store.PersonRepository().Update(ctx, p))
	}

	g := generator.New(store)
	result := g.GenerateSchedule(ctx, period, generator.Options{
		Solver:  generator.SolverCPSAT,
		Seed:    7,
		Timeout: 5 * time.Second,
	})

	require.NoError(t, result.Error)
	require.False(t, result.Success)
	require.Equal(t, "INFEASIBLE", string(result.Status))
	require.NotEmpty(t, result.MinimalCore)
	require.Contains(t, result.MinimalCore, "SupervisionRatio")
	require.NotEmpty(t, result.Suggestions)
}

func TestGenerateScheduleEmptyContextIsSuccess(t *testing.T) {
	store := memory.New()
	g := generator.New(store)
	result := g.GenerateSchedule(context.Background(), repository.Period{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
	}, generator.Options{Solver: generator.SolverLinear})

	require.NoError(t, result.Error)
	require.True(t, result.Success)
	require.Equal(t, "EMPTY", string(result.Status))
}
