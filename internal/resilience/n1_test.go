package resilience_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/resilience"
)

func TestAnalyzePersonFailureWithViableBackup(t *testing.T) {
	n1 := resilience.NewN1Analyzer()
	scenario := n1.AnalyzePersonFailure("person-1", 8,
		[]string{"backup-1", "backup-2"},
		map[string]int{"backup-1": 4, "backup-2": 10})

	require.True(t, scenario.BackupAvailable)
	require.Equal(t, []string{"backup-2"}, scenario.BackupIDs)
	require.Less(t, scenario.CriticalityScore, 0.5)
	require.False(t, scenario.IsSPOF(resilience.SPOFThreshold))
}

func TestAnalyzePersonFailureNoBackupIsSPOF(t *testing.T) {
	n1 := resilience.NewN1Analyzer()
	scenario := n1.AnalyzePersonFailure("person-2", 12, nil, nil)

	require.False(t, scenario.BackupAvailable)
	require.GreaterOrEqual(t, scenario.CriticalityScore, resilience.SPOFThreshold)
	require.True(t, scenario.IsSPOF(resilience.SPOFThreshold))
	require.Equal(t, "activate emergency staffing protocol", scenario.MitigationStrategy)
}

func TestAnalyzePersonFailureSmallGapDistributes(t *testing.T) {
	n1 := resilience.NewN1Analyzer()
	scenario := n1.AnalyzePersonFailure("person-3", 2, nil, nil)

	require.Equal(t, "distribute shifts among existing staff", scenario.MitigationStrategy)
}

func TestFindSPOFsFiltersByThreshold(t *testing.T) {
	n1 := resilience.NewN1Analyzer()
	scenarios := []resilience.FailureScenario{
		n1.AnalyzePersonFailure("a", 12, nil, nil),
		n1.AnalyzePersonFailure("b", 1, []string{"x"}, map[string]int{"x": 5}),
	}

	spofs := resilience.FindSPOFs(scenarios, resilience.SPOFThreshold)
	require.Len(t, spofs, 1)
	require.Equal(t, "a", spofs[0].ComponentID)
}

func TestRedundancyScore(t *testing.T) {
	require.Equal(t, 1.0, resilience.RedundancyScore(0, 0))
	require.Equal(t, 1.0, resilience.RedundancyScore(10, 5))
	require.InDelta(t, 0.5, resilience.RedundancyScore(20, 1), 1e-9)
}
