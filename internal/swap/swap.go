// Package swap is the Swap Auto-Matcher (C10): given one PENDING SwapRecord,
// rank the other PENDING records by a weighted compatibility score. It never
// mutates a record — callers act on the ranked list — mirroring the
// read-only, pure-scoring collaborators the teacher's service layer composes
// around its repositories rather than a stateful matcher type.
package swap

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
)

// Weights are the scoring term weights, per spec.md §4.10's default
// 0.5/0.2/0.3 split.
type Weights struct {
	DateProximity   float64
	TypeCompat      float64
	FacultyPrefAlign float64
}

// DefaultWeights is the weighting spec.md names explicitly.
var DefaultWeights = Weights{DateProximity: 0.5, TypeCompat: 0.2, FacultyPrefAlign: 0.3}

// Options parameterizes one Match call.
type Options struct {
	Weights             Weights
	MaxDateDistanceDays int     // default 60, per spec.md §4.10
	MinPreferenceScore  float64 // candidates scoring below this are dropped
	TopK                int     // 0 means "no limit"
}

// DefaultOptions is the spec.md-documented default configuration.
func DefaultOptions() Options {
	return Options{Weights: DefaultWeights, MaxDateDistanceDays: 60}
}

// Candidate is one ranked match for the source SwapRecord.
type Candidate struct {
	Record *entity.SwapRecord
	Score  float64
}

// Matcher ranks candidate swaps against an Entity Store's SwapRepository.
type Matcher struct {
	db repository.Database
}

// New returns a Matcher wired to db.
func New(db repository.Database) *Matcher {
	return &Matcher{db: db}
}

// Match loads sourceID, fails if it is not PENDING, and returns every other
// PENDING record (excluding the same person) scoring at or above
// opts.MinPreferenceScore, ranked descending and truncated to opts.TopK.
func (m *Matcher) Match(ctx context.Context, sourceID uuid.UUID, opts Options) ([]Candidate, error) {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights
	}
	if opts.MaxDateDistanceDays == 0 {
		opts.MaxDateDistanceDays = 60
	}

	source, err := m.db.SwapRepository().GetByID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("swap: load source record: %w", err)
	}
	if source.Status != entity.SwapPending {
		return nil, fmt.Errorf("swap: source record %s is not PENDING (status %s)", sourceID, source.Status)
	}

	pending, err := m.db.SwapRepository().ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("swap: list pending records: %w", err)
	}

	candidates := Rank(source, pending, opts)
	return candidates, nil
}

// Rank scores every pool record against source and returns the surviving
// candidates ranked descending (ties broken by record ID for determinism),
// truncated to opts.TopK. Exported separately from Match so callers that
// already hold the pool (e.g. a batch matching pass) can skip the repository
// round-trip.
func Rank(source *entity.SwapRecord, pool []*entity.SwapRecord, opts Options) []Candidate {
	out := make([]Candidate, 0, len(pool))
	for _, candidate := range pool {
		if candidate.ID == source.ID || candidate.SourcePersonID == source.SourcePersonID {
			continue
		}
		if candidate.Status != entity.SwapPending {
			continue
		}
		score := Score(source, candidate, opts.Weights, opts.MaxDateDistanceDays)
		if score < opts.MinPreferenceScore {
			continue
		}
		out = append(out, Candidate{Record: candidate, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Record.ID.String() < out[j].Record.ID.String()
	})

	if opts.TopK > 0 && len(out) > opts.TopK {
		out = out[:opts.TopK]
	}
	return out
}

// Score computes the weighted compatibility score for one (source,
// candidate) pair per spec.md §4.10 step 3.
func Score(source, candidate *entity.SwapRecord, weights Weights, maxDateDistanceDays int) float64 {
	dp := dateProximity(source.SourceWeek, candidate.SourceWeek, maxDateDistanceDays)
	tc := typeCompat(source.Type, candidate.Type)
	fp := facultyPreferenceAlignment(source.PreferenceTags, candidate.PreferenceTags)
	return weights.DateProximity*dp + weights.TypeCompat*tc + weights.FacultyPrefAlign*fp
}

// dateProximity is max(0, 1 - |Δdays| / maxDateDistanceDays).
func dateProximity(a, b time.Time, maxDateDistanceDays int) float64 {
	deltaDays := a.Sub(b).Hours() / 24
	if deltaDays < 0 {
		deltaDays = -deltaDays
	}
	score := 1 - deltaDays/float64(maxDateDistanceDays)
	if score < 0 {
		return 0
	}
	return score
}

// typeCompat is 1 for an exact SwapType match, 0.5 otherwise.
func typeCompat(a, b entity.SwapType) float64 {
	if a == b {
		return 1
	}
	return 0.5
}

// facultyPreferenceAlignment is the fraction of source's preference tags the
// candidate also carries; 1 when source has no tags to align on (an absent
// preference imposes no penalty).
func facultyPreferenceAlignment(source, candidate []string) float64 {
	if len(source) == 0 {
		return 1
	}
	candidateTags := make(map[string]bool, len(candidate))
	for _, tag := range candidate {
		candidateTags[tag] = true
	}
	matches := 0
	for _, tag := range source {
		if candidateTags[tag] {
			matches++
		}
	}
	return float64(matches) / float64(len(source))
}
