package resilience_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/resilience"
)

func TestCalculateLimitsRequiresMinimumBaseline(t *testing.T) {
	_, err := resilience.CalculateLimits([]float64{1, 2, 3}, nil)
	require.Error(t, err)
}

func TestCalculateLimitsComputesCenterAndBands(t *testing.T) {
	baseline := []float64{10, 12, 11, 9, 10, 11}

	limits, err := resilience.CalculateLimits(baseline, nil)
	require.NoError(t, err)
	require.InDelta(t, 10.5, limits.CenterLine, 1e-9)
	require.Greater(t, limits.UCL, limits.CenterLine)
	require.Less(t, limits.LCL, limits.CenterLine)
	require.InDelta(t, limits.CenterLine+2*limits.Sigma, limits.UWL, 1e-9)
}

func TestClassifyZoneBuckets(t *testing.T) {
	limits := resilience.ControlLimits{CenterLine: 100, Sigma: 10, UCL: 130, LCL: 70, UWL: 120, LWL: 80}

	require.Equal(t, resilience.ZoneA, resilience.ClassifyZone(limits, 102))
	require.Equal(t, resilience.ZoneB, resilience.ClassifyZone(limits, 115))
	require.Equal(t, resilience.ZoneC, resilience.ClassifyZone(limits, 125))
	require.Equal(t, resilience.ZoneOut, resilience.ClassifyZone(limits, 135))
}

func TestControlChartAddPointInControl(t *testing.T) {
	limits := resilience.ControlLimits{CenterLine: 100, Sigma: 10, UCL: 130, LCL: 70, UWL: 120, LWL: 80}
	chart := resilience.NewControlChart(limits)

	point := chart.AddPoint(140)
	require.False(t, point.InControl)
	require.Equal(t, resilience.ZoneOut, point.Zone)
}

func TestControlChartCapabilityGoodWhenTight(t *testing.T) {
	limits := resilience.ControlLimits{CenterLine: 100, Sigma: 5, UCL: 115, LCL: 85, UWL: 110, LWL: 90}
	chart := resilience.NewControlChart(limits)
	for _, v := range []float64{99, 100, 101, 100, 99} {
		chart.AddPoint(v)
	}

	cap := chart.Capability()
	require.Greater(t, cap.CPK, 1.0)
}

func TestControlChartDetectTrendIncreasing(t *testing.T) {
	limits := resilience.ControlLimits{CenterLine: 100, Sigma: 10, UCL: 130, LCL: 70, UWL: 120, LWL: 80}
	chart := resilience.NewControlChart(limits)
	for _, v := range []float64{90, 95, 100, 105, 110, 115} {
		chart.AddPoint(v)
	}

	trend := chart.DetectTrend(6)
	require.Equal(t, "increasing", trend.Direction)
	require.Greater(t, trend.Slope, 0.0)
}

func TestControlChartDetectTrendInsufficientData(t *testing.T) {
	limits := resilience.ControlLimits{CenterLine: 100, Sigma: 10, UCL: 130, LCL: 70}
	chart := resilience.NewControlChart(limits)
	chart.AddPoint(100)

	trend := chart.DetectTrend(5)
	require.Equal(t, "insufficient_data", trend.Direction)
}

func TestCUSUMChartFlagsSustainedDrift(t *testing.T) {
	chart := resilience.NewCUSUMChart(100, 10, 0.5, 4.0)

	var last resilience.CUSUMPoint
	for i := 0; i < 20; i++ {
		last = chart.AddPoint(108)
	}

	require.False(t, last.InControl)
	require.Greater(t, last.CUSUMHigh, 0.0)
}

func TestEWMAChartTracksMean(t *testing.T) {
	chart := resilience.NewEWMAChart(100, 10, 0.2, 3.0)

	var last resilience.EWMAPoint
	for i := 0; i < 5; i++ {
		last = chart.AddPoint(100)
	}

	require.InDelta(t, 100, last.EWMA, 1e-6)
	require.True(t, last.InControl)
}
