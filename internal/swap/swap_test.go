package swap_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository/memory"
	"github.com/aapm/scce/internal/swap"
)

func mustCreate(t *testing.T, store *memory.Store, s *entity.SwapRecord) *entity.SwapRecord {
	t.Helper()
	require.NoError(t, store.SwapRepository().Create(context.Background(), s))
	return s
}

func TestMatchRanksCloserDateHigher(t *testing.T) {
	store := memory.New()
	week := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)

	source := mustCreate(t, store, &entity.SwapRecord{
		SourcePersonID: uuid.New(), SourceWeek: week, Type: entity.SwapOneToOne, Status: entity.SwapPending,
	})
	near := mustCreate(t, store, &entity.SwapRecord{
		SourcePersonID: uuid.New(), SourceWeek: week.AddDate(0, 0, 7), Type: entity.SwapOneToOne, Status: entity.SwapPending,
	})
	far := mustCreate(t, store, &entity.SwapRecord{
		SourcePersonID: uuid.New(), SourceWeek: week.AddDate(0, 0, 56), Type: entity.SwapOneToOne, Status: entity.SwapPending,
	})

	m := swap.New(store)
	candidates, err := m.Match(context.Background(), source.ID, swap.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, near.ID, candidates[0].Record.ID)
	require.Equal(t, far.ID, candidates[1].Record.ID)
	require.Greater(t, candidates[0].Score, candidates[1].Score)
}

func TestMatchExcludesSamePersonAndNonPending(t *testing.T) {
	store := memory.New()
	week := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	samePerson := uuid.New()

	source := mustCreate(t, store, &entity.SwapRecord{
		SourcePersonID: samePerson, SourceWeek: week, Type: entity.SwapOneToOne, Status: entity.SwapPending,
	})
	mustCreate(t, store, &entity.SwapRecord{
		SourcePersonID: samePerson, SourceWeek: week, Type: entity.SwapOneToOne, Status: entity.SwapPending,
	})
	mustCreate(t, store, &entity.SwapRecord{
		SourcePersonID: uuid.New(), SourceWeek: week, Type: entity.SwapOneToOne, Status: entity.SwapApproved,
	})

	m := swap.New(store)
	candidates, err := m.Match(context.Background(), source.ID, swap.DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestMatchRejectsNonPendingSource(t *testing.T) {
	store := memory.New()
	source := mustCreate(t, store, &entity.SwapRecord{
		SourcePersonID: uuid.New(), SourceWeek: time.Now().UTC(), Type: entity.SwapOneToOne, Status: entity.SwapApproved,
	})

	m := swap.New(store)
	_, err := m.Match(context.Background(), source.ID, swap.DefaultOptions())
	require.Error(t, err)
}

func TestMatchTopKAndMinScoreCutoff(t *testing.T) {
	store := memory.New()
	week := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	source := mustCreate(t, store, &entity.SwapRecord{
		SourcePersonID: uuid.New(), SourceWeek: week, Type: entity.SwapOneToOne, Status: entity.SwapPending,
	})
	for i := 0; i < 3; i++ {
		mustCreate(t, store, &entity.SwapRecord{
			SourcePersonID: uuid.New(), SourceWeek: week.AddDate(0, 0, i*3), Type: entity.SwapOneToOne, Status: entity.SwapPending,
		})
	}
	mustCreate(t, store, &entity.SwapRecord{
		SourcePersonID: uuid.New(), SourceWeek: week.AddDate(0, 0, 59), Type: entity.SwapAbsorb, Status: entity.SwapPending,
	})

	opts := swap.DefaultOptions()
	opts.TopK = 2
	m := swap.New(store)
	candidates, err := m.Match(context.Background(), source.ID, opts)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	opts.MinPreferenceScore = 0.9
	candidates, err = m.Match(context.Background(), source.ID, opts)
	require.NoError(t, err)
	for _, c := range candidates {
		require.GreaterOrEqual(t, c.Score, 0.9)
	}
}

func TestScoreWeighsTypeAndFacultyPreference(t *testing.T) {
	week := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	source := &entity.SwapRecord{SourceWeek: week, Type: entity.SwapOneToOne, PreferenceTags: []string{"peds"}}
	matching := &entity.SwapRecord{SourceWeek: week, Type: entity.SwapOneToOne, PreferenceTags: []string{"peds"}}
	mismatched := &entity.SwapRecord{SourceWeek: week, Type: entity.SwapAbsorb, PreferenceTags: []string{"im"}}

	s1 := swap.Score(source, matching, swap.DefaultWeights, 60)
	s2 := swap.Score(source, mismatched, swap.DefaultWeights, 60)
	require.Greater(t, s1, s2)
	require.InDelta(t, 1.0, s1, 1e-9)
}
