package job

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/generator"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/swap"
)

func TestGenerateSchedulePayloadRoundTrip(t *testing.T) {
	period := repository.Period{
		Start: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.July, 29, 0, 0, 0, 0, time.UTC),
	}
	opts := generator.Options{Solver: generator.SolverCPSAT, Seed: 7, Timeout: 30 * time.Second}
	payload := GenerateSchedulePayload{Period: period, Opts: opts}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded GenerateSchedulePayload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, payload.Period.Start, decoded.Period.Start)
	assert.Equal(t, payload.Opts.Solver, decoded.Opts.Solver)
	assert.Equal(t, payload.Opts.Seed, decoded.Opts.Seed)
}

func TestMatchSwapPayloadRoundTrip(t *testing.T) {
	id := uuid.New()
	payload := MatchSwapPayload{SwapID: id, Opts: swap.DefaultOptions()}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded MatchSwapPayload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id, decoded.SwapID)
	assert.Equal(t, payload.Opts.TopK, decoded.Opts.TopK)
}

func TestAnalyzeResiliencePayloadRoundTrip(t *testing.T) {
	payload := AnalyzeResiliencePayload{Kind: "cascade"}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded AnalyzeResiliencePayload
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "cascade", decoded.Kind)
}
