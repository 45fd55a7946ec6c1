package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstThursday(t *testing.T) {
	// July 1 2025 is a Tuesday, so the first Thursday is July 3.
	got := FirstThursday(2025)
	assert.Equal(t, time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC), got)
}

func TestBlockDatesStructure(t *testing.T) {
	c := New()

	block0, err := c.BlockDates(0, 2025)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), block0.Start)
	assert.Equal(t, time.Date(2025, time.July, 2, 0, 0, 0, 0, time.UTC), block0.End)

	block1, err := c.BlockDates(1, 2025)
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, block1.Start.Weekday())
	assert.Equal(t, time.Wednesday, block1.End.Weekday())
	assert.Equal(t, 28, block1.Duration())

	block13, err := c.BlockDates(13, 2025)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC), block13.End)
}

func TestBlockDatesInvalid(t *testing.T) {
	c := New()
	_, err := c.BlockDates(14, 2025)
	require.Error(t, err)
	var invalid *InvalidBlockError
	require.ErrorAs(t, err, &invalid)
}

func TestBlockNumberForDate(t *testing.T) {
	c := New()

	bn, ay := c.BlockNumberForDate(time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 1, bn)
	assert.Equal(t, 2025, ay)

	// A date in June belongs to the previous academic year's block 13.
	bn, ay = c.BlockNumberForDate(time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 13, bn)
	assert.Equal(t, 2025, ay)

	// July 1 itself (a Tuesday in 2025) falls in block 0.
	bn, ay = c.BlockNumberForDate(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, bn)
	assert.Equal(t, 2025, ay)
}

func TestBlockHalf(t *testing.T) {
	c := New()
	block1, err := c.BlockDates(1, 2025)
	require.NoError(t, err)

	assert.Equal(t, 1, c.BlockHalf(block1.Start))
	assert.Equal(t, 1, c.BlockHalf(block1.Start.AddDate(0, 0, 13)))
	assert.Equal(t, 2, c.BlockHalf(block1.Start.AddDate(0, 0, 14)))
	assert.Equal(t, 2, c.BlockHalf(block1.End))
}

func TestValidateAlignmentAcrossYears(t *testing.T) {
	c := New()
	for _, year := range []int{2024, 2025, 2026, 2027, 2028} {
		assert.NoErrorf(t, c.ValidateAlignment(year), "AY %d should be internally consistent", year)
	}
}

func TestValidateAlignmentTotality(t *testing.T) {
	c := New()
	year := 2025

	spans := make([]BlockSpan, 0, 14)
	for n := 0; n <= 13; n++ {
		s, err := c.BlockDates(n, year)
		require.NoError(t, err)
		spans = append(spans, s)
	}

	july1 := time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC)
	june30 := time.Date(year+1, time.June, 30, 0, 0, 0, 0, time.UTC)

	assert.True(t, spans[0].Start.Equal(july1) || spans[0].End.Before(spans[0].Start))
	assert.True(t, spans[13].End.Equal(june30))
}
