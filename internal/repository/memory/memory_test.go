package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/repository/memory"
)

func pgy1() *int {
	v := 1
	return &v
}

func TestPersonRoundTrip(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	p := &entity.Person{Kind: entity.PersonKindResident, PGYLevel: pgy1(), Name: "RES-001", Email: "res001@example.org"}
	require.NoError(t, store.PersonRepository().Create(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := store.PersonRepository().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "RES-001", got.Name)

	_, err = store.PersonRepository().GetByID(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))
}

func TestAssignmentDuplicateRejected(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	person := &entity.Person{Kind: entity.PersonKindFaculty, Name: "FAC-PD"}
	require.NoError(t, store.PersonRepository().Create(ctx, person))
	block := &entity.Block{Date: time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC), TimeOfDay: entity.AM}
	require.NoError(t, store.BlockRepository().Create(ctx, block))

	a1 := &entity.Assignment{BlockID: block.ID, PersonID: person.ID, Role: entity.RolePrimary}
	require.NoError(t, store.AssignmentRepository().Create(ctx, a1))

	a2 := &entity.Assignment{BlockID: block.ID, PersonID: person.ID, Role: entity.RolePrimary}
	err := store.AssignmentRepository().Create(ctx, a2)
	require.Error(t, err)
}

func TestUpdateAssignmentConflict(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	person := &entity.Person{Kind: entity.PersonKindFaculty, Name: "FAC-PD"}
	require.NoError(t, store.PersonRepository().Create(ctx, person))
	block := &entity.Block{Date: time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC), TimeOfDay: entity.AM}
	require.NoError(t, store.BlockRepository().Create(ctx, block))

	a := &entity.Assignment{BlockID: block.ID, PersonID: person.ID, Role: entity.RolePrimary}
	require.NoError(t, store.AssignmentRepository().Create(ctx, a))

	staleTime := a.UpdatedAt.Add(-time.Hour)
	notes := "updated"
	_, err := store.AssignmentRepository().UpdateAssignment(ctx, a.ID, repository.AssignmentPatch{Notes: &notes}, staleTime)
	require.Error(t, err)
	assert.True(t, repository.IsConflict(err))

	updated, err := store.AssignmentRepository().UpdateAssignment(ctx, a.ID, repository.AssignmentPatch{Notes: &notes}, a.UpdatedAt)
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Notes)
}

func TestLoadPeriodScopesByBlockDate(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	inRange := &entity.Block{Date: time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC), TimeOfDay: entity.AM}
	outOfRange := &entity.Block{Date: time.Date(2025, time.August, 10, 0, 0, 0, 0, time.UTC), TimeOfDay: entity.AM}
	require.NoError(t, store.BlockRepository().Create(ctx, inRange))
	require.NoError(t, store.BlockRepository().Create(ctx, outOfRange))

	data, err := store.LoadPeriod(ctx, repository.Period{
		Start: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, data.Blocks, 1)
	assert.Equal(t, inRange.ID, data.Blocks[0].ID)
}
