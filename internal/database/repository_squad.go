package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrSquadFull is returned when a join would exceed the member cap
var ErrSquadFull = errors.New("squad is full")

// =====================================================
// SQUAD CRUD OPERATIONS
// =====================================================

// CreateSquad creates a squad and adds the creator as its first member
func (r *Repository) CreateSquad(ctx context.Context, squad *Squad) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO squads (id, name, invite_code, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		squad.ID, squad.Name, squad.InviteCode, squad.CreatorID,
	).Scan(&squad.CreatedAt, &squad.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create squad: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO squad_members (squad_id, user_id) VALUES ($1, $2)`,
		squad.ID, squad.CreatorID,
	)
	if err != nil {
		return fmt.Errorf("failed to add creator to squad: %w", err)
	}

	return tx.Commit(ctx)
}

// GetSquadByID retrieves a squad by ID, returning nil when not found
func (r *Repository) GetSquadByID(ctx context.Context, squadID string) (*Squad, error) {
	query := `
		SELECT s.id, s.name, s.invite_code, s.creator_id, s.created_at, s.updated_at,
			(SELECT COUNT(*) FROM squad_members m WHERE m.squad_id = s.id)
		FROM squads s WHERE s.id = $1
	`

	squad := &Squad{}
	err := r.db.Pool.QueryRow(ctx, query, squadID).Scan(
		&squad.ID, &squad.Name, &squad.InviteCode, &squad.CreatorID,
		&squad.CreatedAt, &squad.UpdatedAt, &squad.MemberCount,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get squad: %w", err)
	}

	return squad, nil
}

// GetSquadByInviteCode retrieves a squad by invite code, returning nil when not found
func (r *Repository) GetSquadByInviteCode(ctx context.Context, code string) (*Squad, error) {
	query := `
		SELECT id, name, invite_code, creator_id, created_at, updated_at
		FROM squads WHERE invite_code = $1
	`

	squad := &Squad{}
	err := r.db.Pool.QueryRow(ctx, query, code).Scan(
		&squad.ID, &squad.Name, &squad.InviteCode, &squad.CreatorID,
		&squad.CreatedAt, &squad.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get squad by invite code: %w", err)
	}

	return squad, nil
}

// ListSquadsForUser lists squads the user belongs to
func (r *Repository) ListSquadsForUser(ctx context.Context, userID string) ([]Squad, error) {
	query := `
		SELECT s.id, s.name, s.invite_code, s.creator_id, s.created_at, s.updated_at
		FROM squads s
		JOIN squad_members m ON m.squad_id = s.id
		WHERE m.user_id = $1
		ORDER BY s.created_at
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squads: %w", err)
	}
	defer rows.Close()

	var squads []Squad
	for rows.Next() {
		var s Squad
		if err := rows.Scan(&s.ID, &s.Name, &s.InviteCode, &s.CreatorID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan squad: %w", err)
		}
		squads = append(squads, s)
	}

	return squads, rows.Err()
}

// =====================================================
// MEMBERSHIP OPERATIONS
// =====================================================

// ListMembers returns the user IDs of all current members, in join order
func (r *Repository) ListMembers(ctx context.Context, squadID string) ([]string, error) {
	query := `SELECT user_id FROM squad_members WHERE squad_id = $1 ORDER BY joined_at`

	rows, err := r.db.Pool.Query(ctx, query, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, id)
	}

	return members, rows.Err()
}

// SquadExists reports whether a squad with the given ID exists
func (r *Repository) SquadExists(ctx context.Context, squadID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM squads WHERE id = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, squadID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check squad: %w", err)
	}

	return exists, nil
}

// IsMember reports whether the user is a current member of the squad
func (r *Repository) IsMember(ctx context.Context, squadID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM squad_members WHERE squad_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, squadID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

// AddMember adds a user to a squad, enforcing the member cap. The squad row
// is locked for the duration of the transaction so two concurrent joins
// cannot both pass the cap. Aggregates cannot carry a row lock, so the lock
// goes on the parent row and the count runs under it.
func (r *Repository) AddMember(ctx context.Context, squadID, userID string, maxMembers int) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM squads WHERE id = $1 FOR UPDATE`,
		squadID,
	).Scan(&lockedID)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("squad %s not found", squadID)
	}
	if err != nil {
		return fmt.Errorf("failed to lock squad: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM squad_members WHERE squad_id = $1`,
		squadID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count members: %w", err)
	}
	if count >= maxMembers {
		return ErrSquadFull
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO squad_members (squad_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		squadID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return tx.Commit(ctx)
}

// RemoveMember removes a user from a squad
func (r *Repository) RemoveMember(ctx context.Context, squadID, userID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM squad_members WHERE squad_id = $1 AND user_id = $2`,
		squadID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}
