package database

import (
	"context"
	"fmt"
)

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	migrations := []string{
		// Users double as profiles; trading_address is the external trading
		// identity used for market data queries and may be absent.
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(100) NOT NULL,
			avatar_url TEXT,
			trading_address VARCHAR(100),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

		`CREATE TABLE IF NOT EXISTS squads (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			invite_code VARCHAR(20) UNIQUE NOT NULL,
			creator_id UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_squads_invite_code ON squads(invite_code)`,

		`CREATE TABLE IF NOT EXISTS squad_members (
			squad_id UUID NOT NULL REFERENCES squads(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joined_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (squad_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_squad_members_user ON squad_members(user_id)`,

		`CREATE TABLE IF NOT EXISTS squad_messages (
			id UUID PRIMARY KEY,
			squad_id UUID NOT NULL REFERENCES squads(id) ON DELETE CASCADE,
			user_id UUID REFERENCES users(id) ON DELETE SET NULL,
			kind VARCHAR(20) NOT NULL DEFAULT 'user',
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_squad_messages_squad ON squad_messages(squad_id, created_at)`,

		// One winner per squad per week, enforced by the primary key. Writes go
		// through a conditional upsert so concurrent calculations cannot leave
		// duplicates.
		`CREATE TABLE IF NOT EXISTS weekly_winners (
			squad_id UUID NOT NULL REFERENCES squads(id) ON DELETE CASCADE,
			week_number INT NOT NULL,
			winner_id UUID NOT NULL REFERENCES users(id),
			pnl DECIMAL(20, 2) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (squad_id, week_number)
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
