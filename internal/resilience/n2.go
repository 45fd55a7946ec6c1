package resilience

// N2Analyzer runs paired-component ("can the schedule survive losing any two
// people at once") contingency analysis, per spec.md §4.11: same criticality
// calculation as N-1 but over person pairs and a stricter flagging
// threshold, used to recommend cross-training investments rather than
// immediate mitigation.
type N2Analyzer struct{}

// NewN2Analyzer returns an N2Analyzer.
func NewN2Analyzer() *N2Analyzer { return &N2Analyzer{} }

// AnalyzePairFailure scores the impact of losing both personA and personB
// simultaneously. affectedSlots is the union of their assigned slots (the
// caller is responsible for not double-counting a slot assigned to both).
// A backup is viable only if its spare capacity covers the combined loss.
func (n *N2Analyzer) AnalyzePairFailure(personA, personB string, affectedSlots int, availableBackups []string, backupCapacity map[string]int) FailureScenario {
	viable := viableBackups(affectedSlots, availableBackups, backupCapacity)
	hasBackup := len(viable) > 0
	criticality := criticalityScore(affectedSlots, hasBackup)

	var mitigation string
	switch {
	case hasBackup:
		mitigation = "activate backup: " + viable[0]
	default:
		mitigation = "recommend cross-training additional staff across " + personA + " and " + personB + "'s rotations"
	}

	return FailureScenario{
		ComponentID:        personA + "+" + personB,
		ComponentType:      "person_pair",
		AffectedSlots:      affectedSlots,
		CriticalityScore:   criticality,
		BackupAvailable:    hasBackup,
		BackupIDs:          viable,
		MitigationStrategy: mitigation,
	}
}

// AnalyzeAllPairs scores every combination drawn from personIDs, using
// slotsByPerson to compute each pair's combined affected-slot count (simple
// sum; callers scoring overlapping assignments should pre-deduplicate).
func (n *N2Analyzer) AnalyzeAllPairs(personIDs []string, slotsByPerson map[string]int, availableBackups []string, backupCapacity map[string]int) []FailureScenario {
	var out []FailureScenario
	for i := 0; i < len(personIDs); i++ {
		for j := i + 1; j < len(personIDs); j++ {
			a, b := personIDs[i], personIDs[j]
			combined := slotsByPerson[a] + slotsByPerson[b]
			out = append(out, n.AnalyzePairFailure(a, b, combined, availableBackups, backupCapacity))
		}
	}
	return out
}
