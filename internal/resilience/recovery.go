package resilience

// DefenseLevel is an overall program-health alert level, graded from
// healthy (GREEN) to collapsing (BLACK), per recovery_planner.py's
// DefenseLevel enum.
type DefenseLevel string

const (
	DefenseGreen  DefenseLevel = "GREEN"
	DefenseYellow DefenseLevel = "YELLOW"
	DefenseOrange DefenseLevel = "ORANGE"
	DefenseRed    DefenseLevel = "RED"
	DefenseBlack  DefenseLevel = "BLACK"
)

// RecoveryAction categorizes what a RecoveryStep asks someone to do, per
// recovery_planner.py's RecoveryAction enum.
type RecoveryAction string

const (
	ActionReduceLoad            RecoveryAction = "reduce_load"
	ActionAddCapacity           RecoveryAction = "add_capacity"
	ActionActivateBackup        RecoveryAction = "activate_backup"
	ActionRedistributeWork      RecoveryAction = "redistribute_work"
	ActionImplementRestrictions RecoveryAction = "implement_restrictions"
	ActionEmergencyProtocol     RecoveryAction = "emergency_protocol"
)

// RecoveryStep is one concrete recommendation in a RecoveryPlan, ordered by
// Priority (ascending, 1 is most urgent).
type RecoveryStep struct {
	Priority    int
	Action      RecoveryAction
	Description string
	EstimatedHours float64
}

// RecoveryInput is the set of resilience signals PlanRecovery reasons over,
// the Go-side equivalent of the snapshot recovery_planner.py's plan_recovery
// is invoked with.
type RecoveryInput struct {
	Level           DefenseLevel
	UtilizationRate float64 // fraction of capacity in use, e.g. 0.92
	N1Failures      int
	N2Failures      int
	CoverageGaps    int
	BurnoutCases    int
}

// RecoveryPlan is PlanRecovery's output: an ordered set of steps, an
// estimated chance of success, and level-appropriate fallback actions.
type RecoveryPlan struct {
	Level               DefenseLevel
	Steps               []RecoveryStep
	SuccessProbability  float64
	Contingencies       []string
}

var baseSuccessProbability = map[DefenseLevel]float64{
	DefenseGreen:  1.0,
	DefenseYellow: 0.9,
	DefenseOrange: 0.7,
	DefenseRed:    0.5,
	DefenseBlack:  0.3,
}

// PlanRecovery builds a RecoveryPlan from in, combining level-keyed base
// steps with condition-triggered additions, per recovery_planner.py's
// plan_recovery. Steps are sorted by Priority ascending.
func PlanRecovery(in RecoveryInput) RecoveryPlan {
	var steps []RecoveryStep

	switch in.Level {
	case DefenseBlack:
		steps = append(steps, blackRecoverySteps()...)
	case DefenseRed:
		steps = append(steps, redRecoverySteps()...)
	case DefenseOrange:
		steps = append(steps, orangeRecoverySteps()...)
	case DefenseYellow:
		steps = append(steps, yellowRecoverySteps()...)
	}

	if in.UtilizationRate > 0.90 {
		steps = append(steps, utilizationRecoverySteps()...)
	}
	if in.CoverageGaps > 0 {
		steps = append(steps, coverageRecoverySteps(in.CoverageGaps)...)
	}
	if in.BurnoutCases > 0 {
		steps = append(steps, burnoutRecoverySteps(in.BurnoutCases)...)
	}
	if in.N2Failures > 0 {
		steps = append(steps, n2RecoverySteps(in.N2Failures)...)
	}

	sortStepsByPriority(steps)

	return RecoveryPlan{
		Level:              in.Level,
		Steps:              steps,
		SuccessProbability: estimateSuccessProbability(in.Level, len(steps)),
		Contingencies:      contingenciesFor(in.Level),
	}
}

func sortStepsByPriority(steps []RecoveryStep) {
	for i := 1; i < len(steps); i++ {
		for j := i; j > 0 && steps[j].Priority < steps[j-1].Priority; j-- {
			steps[j], steps[j-1] = steps[j-1], steps[j]
		}
	}
}

// estimateSuccessProbability implements recovery_planner.py's
// _estimate_success_probability: a level-keyed base probability, reduced by
// 0.05 per additional step beyond the first, floored at 0.1.
func estimateSuccessProbability(level DefenseLevel, numSteps int) float64 {
	base, ok := baseSuccessProbability[level]
	if !ok {
		base = 0.5
	}
	if numSteps > 1 {
		base -= 0.05 * float64(numSteps-1)
	}
	if base < 0.1 {
		return 0.1
	}
	return base
}

func blackRecoverySteps() []RecoveryStep {
	return []RecoveryStep{
		{Priority: 1, Action: ActionEmergencyProtocol, Description: "activate emergency staffing protocol across all affected rotations", EstimatedHours: 4},
		{Priority: 2, Action: ActionAddCapacity, Description: "initiate emergency hiring for all vacant critical positions", EstimatedHours: 80},
		{Priority: 3, Action: ActionImplementRestrictions, Description: "suspend elective rotations and non-essential coverage", EstimatedHours: 8},
	}
}

func redRecoverySteps() []RecoveryStep {
	return []RecoveryStep{
		{Priority: 2, Action: ActionActivateBackup, Description: "activate all available backup coverage", EstimatedHours: 6},
		{Priority: 3, Action: ActionRedistributeWork, Description: "redistribute at-risk shifts across remaining faculty", EstimatedHours: 12},
		{Priority: 4, Action: ActionAddCapacity, Description: "begin expedited recruitment for understaffed specialties", EstimatedHours: 40},
	}
}

func orangeRecoverySteps() []RecoveryStep {
	return []RecoveryStep{
		{Priority: 4, Action: ActionRedistributeWork, Description: "rebalance upcoming schedule to relieve concentrated load", EstimatedHours: 8},
		{Priority: 5, Action: ActionAddCapacity, Description: "open a standard requisition for the affected specialty", EstimatedHours: 16},
	}
}

func yellowRecoverySteps() []RecoveryStep {
	return []RecoveryStep{
		{Priority: 6, Action: ActionReduceLoad, Description: "monitor workload trend and flag if it worsens next period", EstimatedHours: 2},
	}
}

func utilizationRecoverySteps() []RecoveryStep {
	return []RecoveryStep{
		{Priority: 3, Action: ActionReduceLoad, Description: "cap discretionary assignments until utilization falls below 90%", EstimatedHours: 4},
	}
}

func coverageRecoverySteps(gaps int) []RecoveryStep {
	hours := 2.0 * float64(gaps)
	return []RecoveryStep{
		{Priority: 2, Action: ActionRedistributeWork, Description: "fill uncovered blocks from the on-call and preload pools", EstimatedHours: hours},
	}
}

func burnoutRecoverySteps(cases int) []RecoveryStep {
	hours := 3.0 * float64(cases)
	return []RecoveryStep{
		{Priority: 3, Action: ActionImplementRestrictions, Description: "apply duty-hour restrictions to flagged burnout cases", EstimatedHours: hours},
	}
}

func n2RecoverySteps(failures int) []RecoveryStep {
	hours := 4.0 * float64(failures)
	return []RecoveryStep{
		{Priority: 5, Action: ActionAddCapacity, Description: "cross-train backup staff for the identified pair-failure gaps", EstimatedHours: hours},
	}
}

// contingenciesFor returns level-appropriate fallback actions, per
// recovery_planner.py's _generate_contingencies.
func contingenciesFor(level DefenseLevel) []string {
	switch level {
	case DefenseBlack:
		return []string{
			"escalate to program director and GME office immediately",
			"prepare resident reassignment to partner institutions",
			"notify ACGME of potential compliance risk",
		}
	case DefenseRed:
		return []string{
			"escalate to program director within 24 hours",
			"prepare contingency staffing budget request",
		}
	case DefenseOrange:
		return []string{
			"notify division chief of elevated risk",
		}
	default:
		return nil
	}
}
