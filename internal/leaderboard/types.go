// Package leaderboard computes squad PnL leaderboards from external market
// data and drives the weekly winner selection and announcement pipeline.
package leaderboard

import (
	"context"
	"errors"
	"time"

	"squad-markets/internal/database"
	"squad-markets/internal/market"
)

// Timeframe selects the PnL aggregation window
type Timeframe string

const (
	TimeframeAll    Timeframe = "all"
	TimeframeWeekly Timeframe = "weekly"
	TimeframeDaily  Timeframe = "daily"
)

// ParseTimeframe validates a timeframe string, defaulting empty to "all"
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case TimeframeAll, "":
		return TimeframeAll, nil
	case TimeframeWeekly:
		return TimeframeWeekly, nil
	case TimeframeDaily:
		return TimeframeDaily, nil
	default:
		return "", ErrInvalidTimeframe
	}
}

// Entry is one member's row on a leaderboard
type Entry struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   string  `json:"avatar_url,omitempty"`
	TotalPnL    float64 `json:"total_pnl"`
}

// Leaderboard is an ordered snapshot of entries, descending by total PnL
type Leaderboard struct {
	SquadID     string    `json:"squad_id"`
	Timeframe   Timeframe `json:"timeframe"`
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}

// WinnerSummary is the result of a weekly winner calculation
type WinnerSummary struct {
	SquadID     string  `json:"squad_id"`
	WinnerID    string  `json:"winner_id"`
	DisplayName string  `json:"display_name"`
	PnL         float64 `json:"pnl"`
	Week        int     `json:"week"`
}

// Errors surfaced to callers. Per-member fetch failures are absorbed, never
// returned.
var (
	ErrAccessDenied      = errors.New("caller is not a member of the squad")
	ErrSquadNotFound     = errors.New("squad not found")
	ErrNoLeaderboardData = errors.New("squad has no leaderboard data")
	ErrInvalidTimeframe  = errors.New("invalid timeframe")
)

// MembershipStore resolves squad existence and membership
type MembershipStore interface {
	SquadExists(ctx context.Context, squadID string) (bool, error)
	ListMembers(ctx context.Context, squadID string) ([]string, error)
	IsMember(ctx context.Context, squadID, userID string) (bool, error)
}

// ProfileStore resolves member profiles
type ProfileStore interface {
	GetProfiles(ctx context.Context, userIDs []string) ([]database.Profile, error)
}

// WinnerStore persists weekly winner records
type WinnerStore interface {
	UpsertWeeklyWinner(ctx context.Context, winner *database.WeeklyWinner) error
}

// MarketDataSource fetches per-identity market data
type MarketDataSource interface {
	FetchAccountData(ctx context.Context, tradingAddress string, start *int64) (*market.AccountData, error)
}

// Announcer delivers the winner announcement to the squad's chat channel.
// Delivery is fire-and-forget; failures are invisible to the caller.
type Announcer interface {
	AnnounceWinner(squadID, message string)
}
