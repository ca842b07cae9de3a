package database

import (
	"context"
	"fmt"
)

// =====================================================
// CHAT MESSAGE OPERATIONS
// =====================================================

// SaveMessage persists a chat message
func (r *Repository) SaveMessage(ctx context.Context, msg *SquadMessage) error {
	query := `
		INSERT INTO squad_messages (id, squad_id, user_id, kind, body)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		msg.ID, msg.SquadID, msg.UserID, msg.Kind, msg.Body,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// ListRecentMessages returns the most recent messages for a squad, oldest first
func (r *Repository) ListRecentMessages(ctx context.Context, squadID string, limit int) ([]SquadMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, squad_id, COALESCE(user_id::text, ''), kind, body, created_at
		FROM (
			SELECT * FROM squad_messages
			WHERE squad_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query, squadID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []SquadMessage
	for rows.Next() {
		var m SquadMessage
		if err := rows.Scan(&m.ID, &m.SquadID, &m.UserID, &m.Kind, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
