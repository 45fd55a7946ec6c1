package batch_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/batch"
	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/repository/memory"
)

func seedFixture(t *testing.T, store *memory.Store) (*entity.RotationTemplate, *entity.Person, *entity.Block) {
	t.Helper()
	ctx := context.Background()

	clinic := &entity.RotationTemplate{
		Name:               "Clinic",
		Abbreviation:       "C",
		ActivityType:       entity.ActivityClinic,
		AllowedPersonTypes: []entity.PersonKind{entity.PersonKindResident, entity.PersonKindFaculty},
		MaxResidents:       5,
	}
	require.NoError(t, store.RotationTemplateRepository().Create(ctx, clinic))

	pgy := 2
	person := &entity.Person{Name: "R", Kind: entity.PersonKindResident, PGYLevel: &pgy, Email: "r@example.com"}
	require.NoError(t, store.PersonRepository().Create(ctx, person))

	block := &entity.Block{Date: time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), TimeOfDay: entity.AM}
	require.NoError(t, store.BlockRepository().Create(ctx, block))

	return clinic, person, block
}

func TestBatchCreateInsertsAndReportsNoErrors(t *testing.T) {
	store := memory.New()
	clinic, person, block := seedFixture(t, store)

	p := batch.New(store)
	result, err := p.BatchCreate(context.Background(), []batch.CreateItem{
		{BlockID: block.ID, PersonID: person.ID, RotationTemplateID: &clinic.ID, Role: entity.RolePrimary},
	}, batch.CreateOptions{SkipACGMECheck: true})

	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Empty(t, result.Errors)
	require.Len(t, result.Created, 1)

	stored, err := store.AssignmentRepository().FindByBlockPerson(context.Background(), block.ID, person.ID)
	require.NoError(t, err)
	require.Equal(t, person.ID, stored.PersonID)
}

func TestBatchCreateRejectsIntraBatchDuplicate(t *testing.T) {
	store := memory.New()
	clinic, person, block := seedFixture(t, store)

	p := batch.New(store)
	result, err := p.BatchCreate(context.Background(), []batch.CreateItem{
		{BlockID: block.ID, PersonID: person.ID, RotationTemplateID: &clinic.ID, Role: entity.RolePrimary},
		{BlockID: block.ID, PersonID: person.ID, RotationTemplateID: &clinic.ID, Role: entity.RolePrimary},
	}, batch.CreateOptions{SkipACGMECheck: true})

	require.NoError(t, err)
	require.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	require.Empty(t, result.Created)
}

func TestBatchCreateRejectsExistingAssignment(t *testing.T) {
	store := memory.New()
	clinic, person, block := seedFixture(t, store)
	ctx := context.Background()
	require.NoError(t, store.AssignmentRepository().Create(ctx, &entity.Assignment{
		BlockID: block.ID, PersonID: person.ID, RotationTemplateID: &clinic.ID, Role: entity.RolePrimary,
	}))

	p := batch.New(store)
	result, err := p.BatchCreate(ctx, []batch.CreateItem{
		{BlockID: block.ID, PersonID: person.ID, RotationTemplateID: &clinic.ID, Role: entity.RolePrimary},
	}, batch.CreateOptions{SkipACGMECheck: true})

	require.NoError(t, err)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	require.Equal(t, 0, result.Errors[0].Index)
}

func TestBatchCreateRejectsOversizeBatch(t *testing.T) {
	store := memory.New()
	p := batch.New(store)
	items := make([]batch.CreateItem, batch.MaxBatchSize+1)
	_, err := p.BatchCreate(context.Background(), items, batch.CreateOptions{})
	require.Error(t, err)
}

func TestBatchUpdateOptimisticLockConflict(t *testing.T) {
	store := memory.New()
	clinic, person, block := seedFixture(t, store)
	ctx := context.Background()
	a := &entity.Assignment{BlockID: block.ID, PersonID: person.ID, RotationTemplateID: &clinic.ID, Role: entity.RolePrimary}
	require.NoError(t, store.AssignmentRepository().Create(ctx, a))

	p := batch.New(store)
	notes := "updated"
	staleTime := a.UpdatedAt.Add(-time.Hour)
	result, err := p.BatchUpdate(ctx, []batch.UpdateItem{
		{ID: a.ID, Patch: repository.AssignmentPatch{Notes: &notes}, ExpectedUpdatedAt: staleTime},
	}, batch.UpdateOptions{})

	require.NoError(t, err)
	require.Empty(t, result.Updated)
	require.Len(t, result.Errors, 1)
}

func TestBatchUpdateAppliesPatch(t *testing.T) {
	store := memory.New()
	clinic, person, block := seedFixture(t, store)
	ctx := context.Background()
	a := &entity.Assignment{BlockID: block.ID, PersonID: person.ID, RotationTemplateID: &clinic.ID, Role: entity.RolePrimary}
	require.NoError(t, store.AssignmentRepository().Create(ctx, a))

	p := batch.New(store)
	notes := "updated"
	result, err := p.BatchUpdate(ctx, []batch.UpdateItem{
		{ID: a.ID, Patch: repository.AssignmentPatch{Notes: &notes}, ExpectedUpdatedAt: a.UpdatedAt},
	}, batch.UpdateOptions{})

	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Updated, 1)
	require.Equal(t, "updated", result.Updated[0].Notes)
}

func TestBatchDeleteRejectsUnknownID(t *testing.T) {
	store := memory.New()
	p := batch.New(store)
	result, err := p.BatchDelete(context.Background(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	require.Empty(t, result.Deleted)
	require.Len(t, result.Errors, 1)
}

func TestBatchDeleteRemovesAssignment(t *testing.T) {
	store := memory.New()
	clinic, person, block := seedFixture(t, store)
	ctx := context.Background()
	a := &entity.Assignment{BlockID: block.ID, PersonID: person.ID, RotationTemplateID: &clinic.ID, Role: entity.RolePrimary}
	require.NoError(t, store.AssignmentRepository().Create(ctx, a))

	p := batch.New(store)
	result, err := p.BatchDelete(ctx, []uuid.UUID{a.ID})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Equal(t, []uuid.UUID{a.ID}, result.Deleted)

	_, err = store.AssignmentRepository().GetByID(ctx, a.ID)
	require.Error(t, err)
}
