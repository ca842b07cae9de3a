package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// =====================================================
// WEEKLY WINNER OPERATIONS
// =====================================================

// UpsertWeeklyWinner records the winner for (squad, week) as a single
// conditional write. A concurrent calculation for the same week replaces the
// row instead of racing a delete against an insert.
func (r *Repository) UpsertWeeklyWinner(ctx context.Context, winner *WeeklyWinner) error {
	query := `
		INSERT INTO weekly_winners (squad_id, week_number, winner_id, pnl)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (squad_id, week_number)
		DO UPDATE SET winner_id = EXCLUDED.winner_id, pnl = EXCLUDED.pnl, updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		winner.SquadID, winner.WeekNumber, winner.WinnerID, winner.PnL,
	).Scan(&winner.CreatedAt, &winner.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert weekly winner: %w", err)
	}

	return nil
}

// GetWeeklyWinner retrieves the winner for (squad, week), returning nil when
// none has been recorded
func (r *Repository) GetWeeklyWinner(ctx context.Context, squadID string, week int) (*WeeklyWinner, error) {
	query := `
		SELECT squad_id, week_number, winner_id, pnl, created_at, updated_at
		FROM weekly_winners WHERE squad_id = $1 AND week_number = $2
	`

	winner := &WeeklyWinner{}
	err := r.db.Pool.QueryRow(ctx, query, squadID, week).Scan(
		&winner.SquadID, &winner.WeekNumber, &winner.WinnerID, &winner.PnL,
		&winner.CreatedAt, &winner.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly winner: %w", err)
	}

	return winner, nil
}
