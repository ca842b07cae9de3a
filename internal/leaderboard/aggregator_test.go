package leaderboard

import (
	"testing"
	"time"

	"squad-markets/internal/market"
)

// TestAggregateTotalAllTime tests that the all-time total sums realized PnL
// and open-position value, rounded to cents
func TestAggregateTotalAllTime(t *testing.T) {
	positions := []market.ClosedPosition{
		{RealizedPnl: 100.27, Timestamp: 1000},
		{RealizedPnl: -25.5, Timestamp: 2000},
	}

	total := AggregateTotal(positions, 50.01, TimeframeAll, nil)

	if total != 124.78 {
		t.Errorf("Expected total 124.78, got %f", total)
	}
}

// TestAggregateTotalShortWindowExcludesOpenValue tests that weekly and daily
// totals count realized PnL only
func TestAggregateTotalShortWindowExcludesOpenValue(t *testing.T) {
	now := time.Now()
	positions := []market.ClosedPosition{
		{RealizedPnl: 10, Timestamp: now.Unix()},
	}

	cutoff := WindowStart(TimeframeWeekly, now)
	total := AggregateTotal(positions, 999.99, TimeframeWeekly, cutoff)

	if total != 10 {
		t.Errorf("Expected weekly total 10 without open value, got %f", total)
	}

	cutoff = WindowStart(TimeframeDaily, now)
	total = AggregateTotal(positions, 999.99, TimeframeDaily, cutoff)

	if total != 10 {
		t.Errorf("Expected daily total 10 without open value, got %f", total)
	}
}

// TestAggregateTotalCutoffExcludesOldPositions tests that positions closed
// before the window start are dropped
func TestAggregateTotalCutoffExcludesOldPositions(t *testing.T) {
	now := time.Now()
	positions := []market.ClosedPosition{
		// Closed 10 days ago, outside the weekly window
		{RealizedPnl: 500, Timestamp: now.Add(-10 * 24 * time.Hour).Unix()},
		// Closed 2 days ago, inside the window
		{RealizedPnl: 30, Timestamp: now.Add(-2 * 24 * time.Hour).Unix()},
	}

	cutoff := WindowStart(TimeframeWeekly, now)
	total := AggregateTotal(positions, 0, TimeframeWeekly, cutoff)

	if total != 30 {
		t.Errorf("Expected only the recent position to count, got %f", total)
	}
}

// TestAggregateTotalMissingTimestamp tests that positions without a timestamp
// are excluded from windowed totals but kept in the all-time total
func TestAggregateTotalMissingTimestamp(t *testing.T) {
	now := time.Now()
	positions := []market.ClosedPosition{
		{RealizedPnl: 75, Timestamp: 0},
	}

	cutoff := WindowStart(TimeframeDaily, now)
	if total := AggregateTotal(positions, 0, TimeframeDaily, cutoff); total != 0 {
		t.Errorf("Expected untimestamped position to be excluded, got %f", total)
	}

	if total := AggregateTotal(positions, 0, TimeframeAll, nil); total != 75 {
		t.Errorf("Expected untimestamped position in all-time total, got %f", total)
	}
}

// TestWindowStart tests the cutoff resolution for each timeframe
func TestWindowStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	if cutoff := WindowStart(TimeframeAll, now); cutoff != nil {
		t.Errorf("Expected nil cutoff for all-time, got %d", *cutoff)
	}

	weekly := WindowStart(TimeframeWeekly, now)
	if weekly == nil || *weekly != now.Add(-7*24*time.Hour).Unix() {
		t.Errorf("Expected weekly cutoff 7 days back, got %v", weekly)
	}

	daily := WindowStart(TimeframeDaily, now)
	if daily == nil || *daily != now.Add(-24*time.Hour).Unix() {
		t.Errorf("Expected daily cutoff 24 hours back, got %v", daily)
	}
}

// TestRound2 tests cent rounding, half away from zero
func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{2.344, 2.34},
		{2.346, 2.35},
		{-2.346, -2.35},
		{10.5, 10.5},
		{0, 0},
	}

	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%f): expected %f, got %f", c.in, c.want, got)
		}
	}
}

// TestWeekNumber tests the day-of-year week scheme
func TestWeekNumber(t *testing.T) {
	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := WeekNumber(jan1); got != 1 {
		t.Errorf("Expected week 1 for Jan 1, got %d", got)
	}

	jan8 := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	if got := WeekNumber(jan8); got != 2 {
		t.Errorf("Expected week 2 for Jan 8, got %d", got)
	}

	// Dec 31 in a non-leap year is day 365
	dec31 := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	if got := WeekNumber(dec31); got != 53 {
		t.Errorf("Expected week 53 for Dec 31, got %d", got)
	}
}

// TestParseTimeframe tests timeframe validation and the empty default
func TestParseTimeframe(t *testing.T) {
	if tf, err := ParseTimeframe(""); err != nil || tf != TimeframeAll {
		t.Errorf("Expected empty string to default to all, got %q (err %v)", tf, err)
	}
	if tf, err := ParseTimeframe("weekly"); err != nil || tf != TimeframeWeekly {
		t.Errorf("Expected weekly, got %q (err %v)", tf, err)
	}
	if tf, err := ParseTimeframe("daily"); err != nil || tf != TimeframeDaily {
		t.Errorf("Expected daily, got %q (err %v)", tf, err)
	}
	if _, err := ParseTimeframe("monthly"); err != ErrInvalidTimeframe {
		t.Errorf("Expected ErrInvalidTimeframe for monthly, got %v", err)
	}
}
