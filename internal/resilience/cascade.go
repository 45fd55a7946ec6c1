package resilience

import "math/rand"

// CascadeConfig parameterizes one burnout cascade run, named after the
// PCSSeasonParams/CascadeConfig fields in
// original_source/backend/run_pcs_simulation.py — the battle-testing script
// that exercised this exact scenario (an under-staffed program's faculty
// count collapsing under burnout-accelerated attrition).
type CascadeConfig struct {
	InitialFaculty      int
	MinimumViable       int     // default 3, per spec.md §4.11
	MaxSimulationDays    int
	TotalWorkloadUnits   float64
	BurnoutThreshold     float64 // default 1.5
	BurnoutMultiplier    float64 // default 5.0
	BaseDepartureRate    float64
	HiringDelayDays      int // default 45
	HiringRate           float64
	MaxHiringQueue       int
	Seed                 int64
}

// DefaultCascadeConfig fills in spec.md §4.11's named defaults, leaving the
// scenario-specific fields (InitialFaculty, TotalWorkloadUnits, Seed) zero.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		MinimumViable:     3,
		MaxSimulationDays: 365,
		BurnoutThreshold:  1.5,
		BurnoutMultiplier: 5.0,
		BaseDepartureRate: 0.001,
		HiringDelayDays:   45,
		HiringRate:        0.02,
		MaxHiringQueue:    3,
	}
}

// CascadeResult is the outcome of one deterministic simulation run.
type CascadeResult struct {
	Collapsed         bool
	DaysToCollapse    int // -1 when the program survives the full horizon
	PeakWorkload      float64
	FinalFacultyCount int
}

// RunCascade simulates, day by day, a faculty pool whose per-head workload
// (TotalWorkloadUnits / current faculty count) accelerates departures once it
// crosses BurnoutThreshold, with replacement hires arriving HiringDelayDays
// after they are triggered. Collapse is reaching a faculty count below
// MinimumViable. The run is fully deterministic for a given Seed.
func RunCascade(cfg CascadeConfig) CascadeResult {
	rng := rand.New(rand.NewSource(cfg.Seed))
	faculty := cfg.InitialFaculty
	var pendingHires []int
	peakWorkload := 0.0

	for day := 0; day < cfg.MaxSimulationDays; day++ {
		if faculty < cfg.MinimumViable {
			return CascadeResult{Collapsed: true, DaysToCollapse: day, PeakWorkload: peakWorkload, FinalFacultyCount: faculty}
		}

		workload := cfg.TotalWorkloadUnits / float64(faculty)
		if workload > peakWorkload {
			peakWorkload = workload
		}

		departureRate := cfg.BaseDepartureRate
		if workload > cfg.BurnoutThreshold {
			departureRate *= cfg.BurnoutMultiplier
		}

		remaining := pendingHires[:0]
		for _, arrivalDay := range pendingHires {
			if arrivalDay <= day {
				faculty++
			} else {
				remaining = append(remaining, arrivalDay)
			}
		}
		pendingHires = remaining

		departures := 0
		for i := 0; i < faculty; i++ {
			if rng.Float64() < departureRate {
				departures++
			}
		}
		faculty -= departures

		if len(pendingHires) < cfg.MaxHiringQueue && rng.Float64() < cfg.HiringRate {
			pendingHires = append(pendingHires, day+cfg.HiringDelayDays)
		}
	}

	if faculty < cfg.MinimumViable {
		return CascadeResult{Collapsed: true, DaysToCollapse: cfg.MaxSimulationDays, PeakWorkload: peakWorkload, FinalFacultyCount: faculty}
	}
	return CascadeResult{Collapsed: false, DaysToCollapse: -1, PeakWorkload: peakWorkload, FinalFacultyCount: faculty}
}

// MonteCarloResult summarizes N independent RunCascade calls.
type MonteCarloResult struct {
	Runs               int
	SurvivalRate       float64
	PeakWorkload       float64
	MeanDaysToCollapse float64 // 0 when no run collapsed
}

// RunMonteCarlo runs nRuns independent simulations, each offset from
// cfg.Seed by its run index so the whole batch stays deterministic, per
// spec.md §4.11's "Monte-Carlo seed deterministic."
func RunMonteCarlo(cfg CascadeConfig, nRuns int) MonteCarloResult {
	survivals := 0
	var collapseDaysSum, peak float64
	collapseCount := 0

	for i := 0; i < nRuns; i++ {
		runCfg := cfg
		runCfg.Seed = cfg.Seed + int64(i)
		res := RunCascade(runCfg)
		if !res.Collapsed {
			survivals++
		} else {
			collapseDaysSum += float64(res.DaysToCollapse)
			collapseCount++
		}
		if res.PeakWorkload > peak {
			peak = res.PeakWorkload
		}
	}

	meanCollapse := 0.0
	if collapseCount > 0 {
		meanCollapse = collapseDaysSum / float64(collapseCount)
	}

	return MonteCarloResult{
		Runs:               nRuns,
		SurvivalRate:       float64(survivals) / float64(nRuns),
		PeakWorkload:       peak,
		MeanDaysToCollapse: meanCollapse,
	}
}
