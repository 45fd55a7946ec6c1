package resilience_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/resilience"
)

func TestRunCascadeSurvivesWithAmpleFaculty(t *testing.T) {
	cfg := resilience.DefaultCascadeConfig()
	cfg.InitialFaculty = 20
	cfg.TotalWorkloadUnits = 10
	cfg.MaxSimulationDays = 180
	cfg.Seed = 1

	result := resilience.RunCascade(cfg)

	require.False(t, result.Collapsed)
	require.Equal(t, -1, result.DaysToCollapse)
	require.GreaterOrEqual(t, result.FinalFacultyCount, cfg.MinimumViable)
}

func TestRunCascadeCollapsesUnderSevereUnderstaffing(t *testing.T) {
	cfg := resilience.DefaultCascadeConfig()
	cfg.InitialFaculty = 4
	cfg.MinimumViable = 3
	cfg.TotalWorkloadUnits = 10
	cfg.BaseDepartureRate = 0.2
	cfg.MaxSimulationDays = 365
	cfg.Seed = 7

	result := resilience.RunCascade(cfg)

	require.True(t, result.Collapsed)
	require.Less(t, result.FinalFacultyCount, cfg.MinimumViable)
}

func TestRunCascadeIsDeterministicForSameSeed(t *testing.T) {
	cfg := resilience.DefaultCascadeConfig()
	cfg.InitialFaculty = 6
	cfg.TotalWorkloadUnits = 10
	cfg.BaseDepartureRate = 0.05
	cfg.MaxSimulationDays = 120
	cfg.Seed = 42

	first := resilience.RunCascade(cfg)
	second := resilience.RunCascade(cfg)

	require.Equal(t, first, second)
}

func TestRunMonteCarloAggregatesAcrossRuns(t *testing.T) {
	cfg := resilience.DefaultCascadeConfig()
	cfg.InitialFaculty = 5
	cfg.TotalWorkloadUnits = 10
	cfg.BaseDepartureRate = 0.05
	cfg.MaxSimulationDays = 120
	cfg.Seed = 100

	result := resilience.RunMonteCarlo(cfg, 25)

	require.Equal(t, 25, result.Runs)
	require.GreaterOrEqual(t, result.SurvivalRate, 0.0)
	require.LessOrEqual(t, result.SurvivalRate, 1.0)
	require.Greater(t, result.PeakWorkload, 0.0)
}
