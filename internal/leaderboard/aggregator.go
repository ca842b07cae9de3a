package leaderboard

import (
	"math"
	"time"

	"squad-markets/internal/market"
)

// WindowStart resolves a timeframe to an epoch-second cutoff. Nil means no
// cutoff (all-time).
func WindowStart(tf Timeframe, now time.Time) *int64 {
	var start time.Time
	switch tf {
	case TimeframeWeekly:
		start = now.Add(-7 * 24 * time.Hour)
	case TimeframeDaily:
		start = now.Add(-24 * time.Hour)
	default:
		return nil
	}

	cutoff := start.Unix()
	return &cutoff
}

// AggregateTotal combines closed (realized) and open (unrealized) values into
// one total for a timeframe.
//
// Closed-position timestamps are epoch seconds and compared directly against
// the cutoff; positions with no timestamp are excluded whenever a cutoff is
// active. The open-position value only counts toward the all-time total:
// short windows report realized PnL only, so currently-open positions cannot
// overstate performance.
func AggregateTotal(positions []market.ClosedPosition, openValue float64, tf Timeframe, cutoff *int64) float64 {
	var realized float64
	for _, pos := range positions {
		if cutoff != nil {
			if pos.Timestamp <= 0 || pos.Timestamp < *cutoff {
				continue
			}
		}
		realized += pos.RealizedPnl
	}

	total := realized
	if tf == TimeframeAll {
		total += openValue
	}

	return Round2(total)
}

// Round2 rounds to 2 decimal places, half away from zero
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WeekNumber computes the 1-based week number for a date from its day of
// year. This is a fixed epoch-relative scheme, not an ISO week: the same day
// always maps to the same week.
func WeekNumber(now time.Time) int {
	return now.YearDay()/7 + 1
}
