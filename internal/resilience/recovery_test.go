package resilience_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/resilience"
)

func TestPlanRecoveryGreenHasNoBaseSteps(t *testing.T) {
	plan := resilience.PlanRecovery(resilience.RecoveryInput{Level: resilience.DefenseGreen})

	require.Empty(t, plan.Steps)
	require.Equal(t, 1.0, plan.SuccessProbability)
	require.Empty(t, plan.Contingencies)
}

func TestPlanRecoveryBlackIncludesEmergencyProtocol(t *testing.T) {
	plan := resilience.PlanRecovery(resilience.RecoveryInput{Level: resilience.DefenseBlack})

	require.NotEmpty(t, plan.Steps)
	require.Equal(t, resilience.ActionEmergencyProtocol, plan.Steps[0].Action)
	require.NotEmpty(t, plan.Contingencies)
}

func TestPlanRecoveryStepsSortedByPriority(t *testing.T) {
	plan := resilience.PlanRecovery(resilience.RecoveryInput{
		Level:           resilience.DefenseOrange,
		UtilizationRate: 0.95,
		CoverageGaps:    2,
	})

	for i := 1; i < len(plan.Steps); i++ {
		require.LessOrEqual(t, plan.Steps[i-1].Priority, plan.Steps[i].Priority)
	}
}

func TestPlanRecoverySuccessProbabilityDecaysWithStepCount(t *testing.T) {
	sparse := resilience.PlanRecovery(resilience.RecoveryInput{Level: resilience.DefenseYellow})
	loaded := resilience.PlanRecovery(resilience.RecoveryInput{
		Level:           resilience.DefenseYellow,
		UtilizationRate: 0.95,
		CoverageGaps:    3,
		BurnoutCases:    2,
		N2Failures:      1,
	})

	require.Greater(t, len(loaded.Steps), len(sparse.Steps))
	require.Less(t, loaded.SuccessProbability, sparse.SuccessProbability)
}

func TestPlanRecoverySuccessProbabilityFloorsAtTenPercent(t *testing.T) {
	plan := resilience.PlanRecovery(resilience.RecoveryInput{
		Level:           resilience.DefenseBlack,
		UtilizationRate: 0.99,
		CoverageGaps:    10,
		BurnoutCases:    10,
		N2Failures:      10,
	})

	require.GreaterOrEqual(t, plan.SuccessProbability, 0.1)
}

func TestPlanRecoveryConditionStepsAddedRegardlessOfLevel(t *testing.T) {
	plan := resilience.PlanRecovery(resilience.RecoveryInput{
		Level:        resilience.DefenseGreen,
		BurnoutCases: 1,
	})

	require.Len(t, plan.Steps, 1)
	require.Equal(t, resilience.ActionImplementRestrictions, plan.Steps[0].Action)
}
