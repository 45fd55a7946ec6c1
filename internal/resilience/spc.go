package resilience

import (
	"fmt"
	"math"
)

// Zone classifies a point's distance from the center line in sigma units,
// per control_chart.py's _determine_zone.
type Zone string

const (
	ZoneA   Zone = "A"   // within 1 sigma
	ZoneB   Zone = "B"   // 1-2 sigma
	ZoneC   Zone = "C"   // 2-3 sigma
	ZoneOut Zone = "Out" // beyond 3 sigma
)

// ControlLimits is a Shewhart X-bar chart's center line and 2/3-sigma bands.
type ControlLimits struct {
	CenterLine float64
	UCL, LCL   float64
	UWL, LWL   float64
	Sigma      float64
}

// CalculateLimits computes 3-sigma control limits from baseline samples,
// per control_chart.py's calculate_limits. target overrides the center line
// (nil uses the baseline mean). Requires at least 5 baseline points.
func CalculateLimits(baseline []float64, target *float64) (ControlLimits, error) {
	if len(baseline) < 5 {
		return ControlLimits{}, fmt.Errorf("resilience: need at least 5 baseline points, got %d", len(baseline))
	}
	mean := meanOf(baseline)
	sigma := sampleStdDev(baseline, mean)
	center := mean
	if target != nil {
		center = *target
	}
	return ControlLimits{
		CenterLine: center,
		UCL:        center + 3*sigma,
		LCL:        center - 3*sigma,
		UWL:        center + 2*sigma,
		LWL:        center - 2*sigma,
		Sigma:      sigma,
	}, nil
}

// ClassifyZone reports which control-chart zone value falls into.
func ClassifyZone(limits ControlLimits, value float64) Zone {
	if limits.Sigma == 0 {
		return ZoneA
	}
	distance := math.Abs(value - limits.CenterLine)
	switch {
	case distance > 3*limits.Sigma:
		return ZoneOut
	case distance > 2*limits.Sigma:
		return ZoneC
	case distance > limits.Sigma:
		return ZoneB
	default:
		return ZoneA
	}
}

// ChartPoint is one observation plotted against an X-bar chart.
type ChartPoint struct {
	Value     float64
	Zone      Zone
	InControl bool
}

// Capability reports Cp/Cpk process capability indices.
type Capability struct {
	CP, CPK        float64
	Interpretation string
}

// Trend reports a sliding-window regression-slope trend classification.
type Trend struct {
	Direction string // "increasing", "decreasing", "stable", or "insufficient_data"
	Slope     float64
}

// ControlChart is a Shewhart X-bar chart: fixed limits computed once from a
// baseline, then points are classified against them as they arrive.
type ControlChart struct {
	limits ControlLimits
	points []float64
}

// NewControlChart returns a chart using the given pre-computed limits.
func NewControlChart(limits ControlLimits) *ControlChart {
	return &ControlChart{limits: limits}
}

// Limits returns the chart's control limits.
func (c *ControlChart) Limits() ControlLimits { return c.limits }

// AddPoint records value and classifies it.
func (c *ControlChart) AddPoint(value float64) ChartPoint {
	c.points = append(c.points, value)
	return ChartPoint{
		Value:     value,
		Zone:      ClassifyZone(c.limits, value),
		InControl: value >= c.limits.LCL && value <= c.limits.UCL,
	}
}

// Capability computes Cp/Cpk over the points recorded so far, per
// control_chart.py's get_capability_indices: the chart's UCL/LCL serve as the
// specification limits and the points' sample standard deviation as sigma.
// Fewer than two points, or points with no spread, give "insufficient_data".
func (c *ControlChart) Capability() Capability {
	mean := meanOf(c.points)
	sigma := sampleStdDev(c.points, mean)
	if sigma == 0 {
		return Capability{Interpretation: "insufficient_data"}
	}
	cp := (c.limits.UCL - c.limits.LCL) / (6.0 * sigma)
	cpu := (c.limits.UCL - mean) / (3.0 * sigma)
	cpl := (mean - c.limits.LCL) / (3.0 * sigma)
	cpk := math.Min(cpu, cpl)
	return Capability{CP: cp, CPK: cpk, Interpretation: interpretCpk(cpk)}
}

func interpretCpk(cpk float64) string {
	switch {
	case cpk >= 2.0:
		return "excellent"
	case cpk >= 1.33:
		return "good"
	case cpk >= 1.0:
		return "adequate"
	default:
		return "poor"
	}
}

// DetectTrend runs a linear regression over the last window points and
// classifies the slope, per control_chart.py's detect_trends: |slope| < 0.01
// is "stable".
func (c *ControlChart) DetectTrend(window int) Trend {
	if len(c.points) < window {
		return Trend{Direction: "insufficient_data"}
	}
	recent := c.points[len(c.points)-window:]
	slope := regressionSlope(recent)
	direction := "stable"
	switch {
	case math.Abs(slope) < 0.01:
		direction = "stable"
	case slope > 0:
		direction = "increasing"
	default:
		direction = "decreasing"
	}
	return Trend{Direction: direction, Slope: slope}
}

// CUSUMPoint is one CUSUM chart observation.
type CUSUMPoint struct {
	Value              float64
	CUSUMHigh, CUSUMLow float64
	InControl          bool
}

// CUSUMChart detects small, sustained drift more sensitively than a Shewhart
// chart, per control_chart.py's CUSUMChart.
type CUSUMChart struct {
	target, k, h   float64
	high, low      float64
}

// NewCUSUMChart returns a chart with slack k (in sigma units, default 0.5)
// and decision interval h (in sigma units, default 4.0) converted to
// absolute units against sigma.
func NewCUSUMChart(target, sigma, kSigma, hSigma float64) *CUSUMChart {
	return &CUSUMChart{target: target, k: kSigma * sigma, h: hSigma * sigma}
}

// AddPoint updates the chart's running sums and reports control status.
func (c *CUSUMChart) AddPoint(value float64) CUSUMPoint {
	c.high = math.Max(0, c.high+(value-c.target)-c.k)
	c.low = math.Max(0, c.low+(c.target-value)-c.k)
	return CUSUMPoint{
		Value:     value,
		CUSUMHigh: c.high,
		CUSUMLow:  c.low,
		InControl: c.high < c.h && c.low < c.h,
	}
}

// EWMAPoint is one EWMA chart observation.
type EWMAPoint struct {
	Value      float64
	EWMA       float64
	UCL, LCL   float64
	InControl  bool
}

// EWMAChart smooths observations with an exponentially weighted moving
// average, per control_chart.py's EWMAChart; good for autocorrelated data.
type EWMAChart struct {
	target, sigma, lambda, l, ewma float64
	n                              int
}

// NewEWMAChart returns a chart with weighting factor lambda (0 < lambda <=
// 1, default 0.2) and control-limit width l in sigma units (default 3.0).
func NewEWMAChart(target, sigma, lambda, l float64) *EWMAChart {
	return &EWMAChart{target: target, sigma: sigma, lambda: lambda, l: l, ewma: target}
}

// AddPoint updates the moving average and its widening control limits.
func (c *EWMAChart) AddPoint(value float64) EWMAPoint {
	c.n++
	c.ewma = c.lambda*value + (1-c.lambda)*c.ewma
	varianceFactor := (c.lambda / (2 - c.lambda)) * (1 - math.Pow(1-c.lambda, float64(2*c.n)))
	sigmaEWMA := c.sigma * math.Sqrt(varianceFactor)
	ucl := c.target + c.l*sigmaEWMA
	lcl := c.target - c.l*sigmaEWMA
	return EWMAPoint{
		Value:     value,
		EWMA:      c.ewma,
		UCL:       ucl,
		LCL:       lcl,
		InControl: c.ewma >= lcl && c.ewma <= ucl,
	}
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev is the n-1 (Bessel-corrected) sample standard deviation,
// matching control_chart.py's np.std(data, ddof=1).
func sampleStdDev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// regressionSlope is the least-squares slope of ys against indices 0..n-1.
func regressionSlope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
