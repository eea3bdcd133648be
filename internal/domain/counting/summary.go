package counting

import (
	"math"

	"github.com/shopspring/decimal"
)

// Summary holds the rollups of a session's lines. It is derived on every
// read and never stored, so it cannot drift from the lines.
// TotalDeviations saturates at math.MaxInt64.
type Summary struct {
	TotalItems          int
	CompletedItems      int
	TotalDeviations     int64
	HasDeviations       bool
	TotalDeviationValue decimal.Decimal
}

// Summarize computes the rollups for a set of lines
func Summarize(lines []CountLine) Summary {
	s := Summary{
		TotalItems:          len(lines),
		TotalDeviationValue: decimal.Zero,
	}
	for i := range lines {
		line := &lines[i]
		if line.IsCounted() {
			s.CompletedItems++
		}
		s.TotalDeviations = addSaturating(s.TotalDeviations, abs(line.DeviationOrZero()))
		if line.HasDeviation() {
			s.HasDeviations = true
		}
		s.TotalDeviationValue = s.TotalDeviationValue.Add(line.DeviationValue())
	}
	return s
}

// Progress returns the share of counted lines as a percentage
func (s Summary) Progress() float64 {
	if s.TotalItems == 0 {
		return 0
	}
	return float64(s.CompletedItems) / float64(s.TotalItems) * 100
}

// IsFullyCounted returns true when every line has a count
func (s Summary) IsFullyCounted() bool {
	return s.CompletedItems == s.TotalItems
}

// addSaturating adds two non-negative values, clamping at math.MaxInt64
func addSaturating(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}
