// Package calendar computes the Thursday-anchored 28-day academic blocks
// that the rest of the engine uses as its scheduling unit: every block span,
// the date -> block mapping, and alignment validation for a given academic
// year.
package calendar

import (
	"fmt"
	"sync"
	"time"
)

// BlockSpan is the inclusive date range covered by one academic block.
type BlockSpan struct {
	BlockNumber int
	Start       time.Time
	End         time.Time
}

// Duration returns the number of days the span covers, inclusive.
func (s BlockSpan) Duration() int {
	return int(s.End.Sub(s.Start).Hours()/24) + 1
}

// InvalidBlockError is returned for a block number outside 0..13.
type InvalidBlockError struct {
	BlockNumber int
}

func (e *InvalidBlockError) Error() string {
	return fmt.Sprintf("calendar: invalid block number %d, must be 0..13", e.BlockNumber)
}

func dateOnly(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FirstThursday returns the first Thursday on or after July 1 of the given
// academic year.
func FirstThursday(year int) time.Time {
	d := dateOnly(year, time.July, 1)
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Calendar memoises per-year block span computations; it is safe for
// concurrent use.
type Calendar struct {
	mu    sync.Mutex
	cache map[int][]BlockSpan
}

// New returns an empty Calendar ready for use.
func New() *Calendar {
	return &Calendar{cache: make(map[int][]BlockSpan)}
}

// BlockDates returns the span of block n within the given academic year,
// computing (and caching) the full 14-block layout for that year on first use.
func (c *Calendar) BlockDates(n int, academicYear int) (BlockSpan, error) {
	if n < 0 || n > 13 {
		return BlockSpan{}, &InvalidBlockError{BlockNumber: n}
	}
	spans := c.spansForYear(academicYear)
	return spans[n], nil
}

// spansForYear returns (and caches) the 14 block spans for academicYear.
func (c *Calendar) spansForYear(academicYear int) []BlockSpan {
	c.mu.Lock()
	defer c.mu.Unlock()

	if spans, ok := c.cache[academicYear]; ok {
		return spans
	}

	spans := make([]BlockSpan, 14)

	july1 := dateOnly(academicYear, time.July, 1)
	thu := FirstThursday(academicYear)

	// Block 0: [July 1, thu-1], empty when July 1 is itself Thursday.
	block0End := thu.AddDate(0, 0, -1)
	if block0End.Before(july1) {
		block0End = july1.AddDate(0, 0, -1) // zero-length marker; End < Start
	}
	spans[0] = BlockSpan{BlockNumber: 0, Start: july1, End: block0End}

	// Blocks 1..12: 28 days each, starting at thu.
	cur := thu
	for n := 1; n <= 12; n++ {
		end := cur.AddDate(0, 0, 27)
		spans[n] = BlockSpan{BlockNumber: n, Start: cur, End: end}
		cur = end.AddDate(0, 0, 1)
	}

	// Block 13: cur .. June 30 of the following calendar year.
	june30 := dateOnly(academicYear+1, time.June, 30)
	spans[13] = BlockSpan{BlockNumber: 13, Start: cur, End: june30}

	c.cache[academicYear] = spans
	return spans
}

// BlockNumberForDate returns the block number and academic year that d falls
// within. Dates before July 1 of their calendar year belong to the previous
// academic year's block 13.
func (c *Calendar) BlockNumberForDate(d time.Time) (blockNumber int, academicYear int) {
	d = dateOnly(d.Year(), d.Month(), d.Day())

	academicYear = d.Year()
	if d.Month() < time.July {
		academicYear = d.Year() - 1
	}

	spans := c.spansForYear(academicYear)
	for _, s := range spans {
		if s.BlockNumber == 0 && s.End.Before(s.Start) {
			continue // empty block 0
		}
		if !d.Before(s.Start) && !d.After(s.End) {
			return s.BlockNumber, academicYear
		}
	}
	// Should be unreachable given ValidateAlignment guarantees totality.
	return 13, academicYear
}

// BlockHalf reports which half of its block d falls in: 1 for the first 14
// days of the block, 2 for the remainder. Block 0 and block 13 (which can be
// shorter or longer than 28 days) use the same first-14-days rule.
func (c *Calendar) BlockHalf(d time.Time) int {
	blockNumber, ay := c.BlockNumberForDate(d)
	span, err := c.BlockDates(blockNumber, ay)
	if err != nil {
		return 1
	}
	dayIndex := int(dateOnly(d.Year(), d.Month(), d.Day()).Sub(span.Start).Hours() / 24)
	if dayIndex < 14 {
		return 1
	}
	return 2
}

// ValidateAlignment checks the structural invariants of the academic year
// layout: contiguity, total day count, and the Thursday/Wednesday boundary
// rule for blocks 1..12, plus block 13 ending on June 30.
func (c *Calendar) ValidateAlignment(academicYear int) error {
	spans := c.spansForYear(academicYear)

	totalDays := 0
	for i, s := range spans {
		if i == 0 && s.End.Before(s.Start) {
			continue
		}
		totalDays += s.Duration()

		if i >= 1 && i <= 12 {
			if s.Start.Weekday() != time.Thursday {
				return fmt.Errorf("calendar: block %d for AY %d does not start on Thursday", i, academicYear)
			}
			if s.End.Weekday() != time.Wednesday {
				return fmt.Errorf("calendar: block %d for AY %d does not end on Wednesday", i, academicYear)
			}
			if s.Duration() != 28 {
				return fmt.Errorf("calendar: block %d for AY %d has duration %d, want 28", i, academicYear, s.Duration())
			}
		}

		if i > 0 {
			prev := spans[i-1]
			prevEnd := prev.End
			if i == 1 && prev.End.Before(prev.Start) {
				prevEnd = dateOnly(academicYear, time.July, 1).AddDate(0, 0, -1)
			}
			if !s.Start.Equal(prevEnd.AddDate(0, 0, 1)) {
				return fmt.Errorf("calendar: block %d for AY %d is not contiguous with block %d", i, academicYear, i-1)
			}
		}
	}

	june30 := dateOnly(academicYear+1, time.June, 30)
	if !spans[13].End.Equal(june30) {
		return fmt.Errorf("calendar: block 13 for AY %d does not end on June 30", academicYear)
	}

	isLeap := func(y int) bool {
		return (y%4 == 0 && y%100 != 0) || y%400 == 0
	}
	wantDays := 365
	if isLeap(academicYear + 1) {
		wantDays = 366
	}
	if totalDays != wantDays {
		return fmt.Errorf("calendar: AY %d totals %d days, want %d", academicYear, totalDays, wantDays)
	}

	return nil
}
