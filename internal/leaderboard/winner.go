package leaderboard

import (
	"context"
	"fmt"

	"squad-markets/internal/database"
)

// CalculateWinner determines the weekly top performer for a squad, persists
// the record, and announces it to the squad's chat channel.
//
// The selector reuses a fresh all-time snapshot when one is cached and
// recomputes otherwise. Persistence is a single conditional upsert keyed on
// (squad, week), so recalculating within the same week replaces the record.
// The announcement is fire-and-forget: its delivery outcome never affects the
// returned summary.
func (s *Service) CalculateWinner(ctx context.Context, squadID, callerID string) (*WinnerSummary, error) {
	if err := s.authorize(ctx, squadID, callerID); err != nil {
		return nil, err
	}

	board, ok := s.cache.Get(ctx, squadID, TimeframeAll)
	if !ok {
		var err error
		board, err = s.buildLeaderboard(ctx, squadID, TimeframeAll)
		if err != nil {
			return nil, err
		}
	}

	if len(board.Entries) == 0 {
		return nil, ErrNoLeaderboardData
	}

	top := board.Entries[0]
	week := WeekNumber(s.now())

	record := &database.WeeklyWinner{
		SquadID:    squadID,
		WeekNumber: week,
		WinnerID:   top.UserID,
		PnL:        top.TotalPnL,
	}
	if err := s.winners.UpsertWeeklyWinner(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist weekly winner: %w", err)
	}

	if s.announcer != nil {
		s.announcer.AnnounceWinner(squadID, FormatAnnouncement(top.DisplayName, week, top.TotalPnL))
	}

	s.logger.Info().
		Str("squad_id", squadID).
		Str("winner_id", top.UserID).
		Int("week", week).
		Float64("pnl", top.TotalPnL).
		Msg("weekly winner recorded")

	return &WinnerSummary{
		SquadID:     squadID,
		WinnerID:    top.UserID,
		DisplayName: top.DisplayName,
		PnL:         top.TotalPnL,
		Week:        week,
	}, nil
}

// FormatAnnouncement renders the winner chat message with an explicit sign on
// the PnL.
func FormatAnnouncement(displayName string, week int, pnl float64) string {
	return fmt.Sprintf("%s is this week's MVP (week %d) with %+.2f PnL", displayName, week, pnl)
}
