// Package resilience is the Resilience Analytics engine (C11): four
// read-only sub-engines over already-computed schedule statistics — N-1 and
// N-2 contingency analysis, a Monte-Carlo burnout cascade simulator, SPC
// control charts, and a recovery planner. Grounded on
// original_source/backend/app/resilience's Python implementation (the
// N1Analyzer/RecoveryPlanner/ControlChart classes and the PCS cascade
// scenario's parameter set), carried into Go as pure functions over small
// value types rather than the original's class-per-engine layout.
package resilience

import "math"

// Criticality formula constants, per spec.md §4.11's N-1 formula and
// n1_analyzer.py's ASSIGNMENTS_PER_BACKUP/ASSIGNMENTS_PER_CRITICALITY_UNIT.
const (
	criticalityWithBackupCap    = 0.5
	criticalityNoBackupBase     = 0.5
	assignmentsPerBackupUnit    = 10.0
	assignmentsPerCriticalityUnit = 20.0

	// SPOFThreshold is the default minimum criticality to qualify as a
	// single point of failure, per n1_analyzer.py's find_single_points_of_failure.
	SPOFThreshold = 0.7
	// N2Threshold is the stricter pair-failure flagging threshold spec.md
	// §4.11 calls for ("same calculation with stricter thresholds").
	N2Threshold = 0.5
)

// FailureScenario is the impact analysis for one N-1 or N-2 failure case.
type FailureScenario struct {
	ComponentID         string
	ComponentType       string // "person" or "person_pair"
	AffectedSlots       int
	CriticalityScore    float64
	BackupAvailable     bool
	BackupIDs           []string
	MitigationStrategy  string
}

// IsSPOF reports whether this scenario qualifies as a single point of
// failure under threshold.
func (s FailureScenario) IsSPOF(threshold float64) bool {
	return s.CriticalityScore >= threshold && !s.BackupAvailable
}

// criticalityScore implements spec.md §4.11's N-1 formula:
// min(1, 0.5 + affected/10) with no backup, min(0.5, affected/20) with one.
func criticalityScore(affected int, hasBackup bool) float64 {
	if affected == 0 {
		return 0
	}
	if hasBackup {
		return math.Min(criticalityWithBackupCap, float64(affected)/assignmentsPerCriticalityUnit)
	}
	return math.Min(1.0, criticalityNoBackupBase+float64(affected)/assignmentsPerBackupUnit)
}

// N1Analyzer runs single-component ("can the schedule survive losing any one
// person") contingency analysis.
type N1Analyzer struct{}

// NewN1Analyzer returns an N1Analyzer.
func NewN1Analyzer() *N1Analyzer { return &N1Analyzer{} }

// AnalyzePersonFailure scores the impact of removing personID, who currently
// holds affectedSlots assignments, given availableBackups and their spare
// backupCapacity (backup ID -> slots they could absorb).
func (n *N1Analyzer) AnalyzePersonFailure(personID string, affectedSlots int, availableBackups []string, backupCapacity map[string]int) FailureScenario {
	viable := viableBackups(affectedSlots, availableBackups, backupCapacity)
	hasBackup := len(viable) > 0
	criticality := criticalityScore(affectedSlots, hasBackup)

	var mitigation string
	switch {
	case hasBackup:
		mitigation = "activate backup: " + viable[0]
	case affectedSlots < 5:
		mitigation = "distribute shifts among existing staff"
	default:
		mitigation = "activate emergency staffing protocol"
	}

	return FailureScenario{
		ComponentID:        personID,
		ComponentType:      "person",
		AffectedSlots:      affectedSlots,
		CriticalityScore:   criticality,
		BackupAvailable:    hasBackup,
		BackupIDs:          viable,
		MitigationStrategy: mitigation,
	}
}

// viableBackups returns every backup whose spare capacity covers the full
// affected slot count, preserving availableBackups' order for determinism.
func viableBackups(affectedSlots int, availableBackups []string, backupCapacity map[string]int) []string {
	var out []string
	for _, id := range availableBackups {
		if backupCapacity[id] >= affectedSlots {
			out = append(out, id)
		}
	}
	return out
}

// FindSPOFs filters scenarios down to those meeting the given criticality
// threshold with no backup available.
func FindSPOFs(scenarios []FailureScenario, threshold float64) []FailureScenario {
	var out []FailureScenario
	for _, s := range scenarios {
		if s.IsSPOF(threshold) {
			out = append(out, s)
		}
	}
	return out
}

// RedundancyScore is available_backups / required_backups where
// required_backups = max(1, assignments/10), per n1_analyzer.py's
// calculate_redundancy_score. A person with zero assignments has perfect
// (1.0) redundancy — there is nothing to cover.
func RedundancyScore(numAssignments, availableBackups int) float64 {
	if numAssignments == 0 {
		return 1.0
	}
	required := numAssignments / 10
	if required < 1 {
		required = 1
	}
	score := float64(availableBackups) / float64(required)
	if score > 1.0 {
		return 1.0
	}
	return score
}
