package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// =====================================================
// USER / PROFILE OPERATIONS
// =====================================================

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, display_name, avatar_url, trading_address)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.AvatarURL,
		user.TradingAddress,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by ID, returning nil when not found
func (r *Repository) GetUserByID(ctx context.Context, userID string) (*User, error) {
	query := `
		SELECT id, email, password_hash, display_name,
			COALESCE(avatar_url, ''), COALESCE(trading_address, ''),
			created_at, updated_at
		FROM users WHERE id = $1
	`

	user := &User{}
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.AvatarURL, &user.TradingAddress,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email, returning nil when not found
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password_hash, display_name,
			COALESCE(avatar_url, ''), COALESCE(trading_address, ''),
			created_at, updated_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`

	user := &User{}
	err := r.db.Pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.AvatarURL, &user.TradingAddress,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// UpdateUserProfile updates the mutable profile fields
func (r *Repository) UpdateUserProfile(ctx context.Context, userID, displayName, avatarURL, tradingAddress string) error {
	query := `
		UPDATE users
		SET display_name = $2, avatar_url = NULLIF($3, ''),
			trading_address = NULLIF($4, ''), updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, userID, displayName, avatarURL, tradingAddress)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID)
	}

	return nil
}

// GetProfiles retrieves profiles for a set of user IDs. Missing IDs are
// silently absent from the result.
func (r *Repository) GetProfiles(ctx context.Context, userIDs []string) ([]Profile, error) {
	if len(userIDs) == 0 {
		return []Profile{}, nil
	}

	query := `
		SELECT id, display_name, COALESCE(avatar_url, ''), COALESCE(trading_address, '')
		FROM users WHERE id = ANY($1)
	`

	rows, err := r.db.Pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0, len(userIDs))
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.UserID, &p.DisplayName, &p.AvatarURL, &p.TradingAddress); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}
