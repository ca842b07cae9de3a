package database

import "time"

// User represents a registered user. Users double as member profiles;
// TradingAddress is the external trading identity and may be empty for users
// who have not linked one.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	DisplayName    string    `json:"display_name"`
	AvatarURL      string    `json:"avatar_url"`
	TradingAddress string    `json:"trading_address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile is the subset of user data the leaderboard needs
type Profile struct {
	UserID         string `json:"user_id"`
	DisplayName    string `json:"display_name"`
	AvatarURL      string `json:"avatar_url"`
	TradingAddress string `json:"trading_address,omitempty"`
}

// Squad is a group of users sharing a chat room and leaderboard
type Squad struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	InviteCode  string    `json:"invite_code"`
	CreatorID   string    `json:"creator_id"`
	MemberCount int       `json:"member_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message kinds
const (
	MessageKindUser   = "user"
	MessageKindSystem = "system"
)

// SquadMessage is a persisted chat message
type SquadMessage struct {
	ID        string    `json:"id"`
	SquadID   string    `json:"squad_id"`
	UserID    string    `json:"user_id,omitempty"`
	Kind      string    `json:"kind"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// WeeklyWinner is the persisted MVP record for a squad and week
type WeeklyWinner struct {
	SquadID    string    `json:"squad_id"`
	WeekNumber int       `json:"week_number"`
	WinnerID   string    `json:"winner_id"`
	PnL        float64   `json:"pnl"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
