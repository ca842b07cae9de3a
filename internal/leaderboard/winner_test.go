package leaderboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"squad-markets/internal/database"
	"squad-markets/internal/market"
)

// TestCalculateWinnerSelectsTopEntry tests that the all-time leader is
// persisted and announced
func TestCalculateWinnerSelectsTopEntry(t *testing.T) {
	members := &fakeMembers{members: map[string][]string{
		"squad-1": {"u1", "u2"},
	}}
	profiles := &fakeProfiles{profiles: map[string]database.Profile{
		"u1": {UserID: "u1", DisplayName: "alice", TradingAddress: "0xaaa"},
		"u2": {UserID: "u2", DisplayName: "bob", TradingAddress: "0xbbb"},
	}}
	source := &fakeMarket{data: map[string]*market.AccountData{
		"0xaaa": {ClosedPositions: []market.ClosedPosition{{RealizedPnl: 10, Timestamp: 1000}}},
		"0xbbb": {ClosedPositions: []market.ClosedPosition{{RealizedPnl: 80.25, Timestamp: 1000}}},
	}}
	winners := &fakeWinners{}
	announcer := &fakeAnnouncer{}

	svc := newTestService(members, profiles, winners, source, announcer)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) // day 69, week 10
	svc.now = func() time.Time { return now }

	summary, err := svc.CalculateWinner(context.Background(), "squad-1", "u1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if summary.WinnerID != "u2" {
		t.Errorf("Expected winner u2, got %s", summary.WinnerID)
	}
	if summary.PnL != 80.25 {
		t.Errorf("Expected winning PnL 80.25, got %f", summary.PnL)
	}
	if summary.Week != WeekNumber(now) {
		t.Errorf("Expected week %d, got %d", WeekNumber(now), summary.Week)
	}

	if len(winners.records) != 1 {
		t.Fatalf("Expected 1 persisted record, got %d", len(winners.records))
	}
	record := winners.records[0]
	if record.SquadID != "squad-1" || record.WinnerID != "u2" || record.PnL != 80.25 {
		t.Errorf("Persisted record mismatch: %+v", record)
	}
	if record.WeekNumber != WeekNumber(now) {
		t.Errorf("Expected persisted week %d, got %d", WeekNumber(now), record.WeekNumber)
	}

	if len(announcer.announcements) != 1 {
		t.Fatalf("Expected exactly 1 announcement, got %d", len(announcer.announcements))
	}
	msg := announcer.announcements[0]
	if msg.squadID != "squad-1" {
		t.Errorf("Expected announcement for squad-1, got %s", msg.squadID)
	}
	if !strings.Contains(msg.message, "bob") || !strings.Contains(msg.message, "+80.25") {
		t.Errorf("Unexpected announcement text: %q", msg.message)
	}
}

// TestCalculateWinnerUsesCachedAllTimeSnapshot tests that a fresh all-time
// snapshot is reused instead of recomputed
func TestCalculateWinnerUsesCachedAllTimeSnapshot(t *testing.T) {
	members := &fakeMembers{members: map[string][]string{"squad-1": {"u1"}}}
	source := &fakeMarket{}
	winners := &fakeWinners{}

	svc := newTestService(members, &fakeProfiles{}, winners, source, &fakeAnnouncer{})

	svc.cache.Set(context.Background(), &Leaderboard{
		SquadID:   "squad-1",
		Timeframe: TimeframeAll,
		Entries:   []Entry{{UserID: "u1", DisplayName: "alice", TotalPnL: 12.5}},
	})

	summary, err := svc.CalculateWinner(context.Background(), "squad-1", "u1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary.WinnerID != "u1" || summary.PnL != 12.5 {
		t.Errorf("Expected cached leader u1 with 12.50, got %s with %f", summary.WinnerID, summary.PnL)
	}
	if source.callCount() != 0 {
		t.Errorf("Expected no market data calls on a cache hit, got %d", source.callCount())
	}
}

// TestCalculateWinnerEmptyBoard tests that an empty leaderboard yields
// ErrNoLeaderboardData with nothing persisted or announced
func TestCalculateWinnerEmptyBoard(t *testing.T) {
	members := &fakeMembers{members: map[string][]string{"squad-1": {"u1"}}}
	winners := &fakeWinners{}
	announcer := &fakeAnnouncer{}

	svc := newTestService(members, &fakeProfiles{}, winners, &fakeMarket{}, announcer)

	svc.cache.Set(context.Background(), &Leaderboard{
		SquadID:   "squad-1",
		Timeframe: TimeframeAll,
		Entries:   []Entry{},
	})

	_, err := svc.CalculateWinner(context.Background(), "squad-1", "u1")
	if !errors.Is(err, ErrNoLeaderboardData) {
		t.Fatalf("Expected ErrNoLeaderboardData, got %v", err)
	}
	if len(winners.records) != 0 {
		t.Errorf("Expected no persisted record, got %d", len(winners.records))
	}
	if len(announcer.announcements) != 0 {
		t.Errorf("Expected no announcement, got %d", len(announcer.announcements))
	}
}

// TestCalculateWinnerPersistFailure tests that a storage error is surfaced
// and suppresses the announcement
func TestCalculateWinnerPersistFailure(t *testing.T) {
	members := &fakeMembers{members: map[string][]string{"squad-1": {"u1"}}}
	winners := &fakeWinners{err: errors.New("db down")}
	announcer := &fakeAnnouncer{}

	svc := newTestService(members, &fakeProfiles{}, winners, &fakeMarket{}, announcer)
	svc.cache.Set(context.Background(), &Leaderboard{
		SquadID:   "squad-1",
		Timeframe: TimeframeAll,
		Entries:   []Entry{{UserID: "u1", DisplayName: "alice", TotalPnL: 1}},
	})

	_, err := svc.CalculateWinner(context.Background(), "squad-1", "u1")
	if err == nil {
		t.Fatal("Expected error when persistence fails")
	}
	if len(announcer.announcements) != 0 {
		t.Errorf("Expected no announcement after persist failure, got %d", len(announcer.announcements))
	}
}

// TestCalculateWinnerAccessDenied tests that non-members cannot trigger the
// winner calculation
func TestCalculateWinnerAccessDenied(t *testing.T) {
	members := &fakeMembers{members: map[string][]string{"squad-1": {"u1"}}}
	svc := newTestService(members, &fakeProfiles{}, &fakeWinners{}, &fakeMarket{}, &fakeAnnouncer{})

	_, err := svc.CalculateWinner(context.Background(), "squad-1", "outsider")
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied, got %v", err)
	}
}

// TestCalculateWinnerSquadNotFound tests that an unknown squad is reported as
// missing
func TestCalculateWinnerSquadNotFound(t *testing.T) {
	members := &fakeMembers{members: map[string][]string{"squad-1": {"u1"}}}
	svc := newTestService(members, &fakeProfiles{}, &fakeWinners{}, &fakeMarket{}, &fakeAnnouncer{})

	_, err := svc.CalculateWinner(context.Background(), "no-such-squad", "u1")
	if !errors.Is(err, ErrSquadNotFound) {
		t.Errorf("Expected ErrSquadNotFound, got %v", err)
	}
}

// TestFormatAnnouncement tests the winner message rendering, including the
// explicit sign on negative PnL
func TestFormatAnnouncement(t *testing.T) {
	msg := FormatAnnouncement("alice", 10, 150.5)
	if msg != "alice is this week's MVP (week 10) with +150.50 PnL" {
		t.Errorf("Unexpected message: %q", msg)
	}

	msg = FormatAnnouncement("bob", 53, -12.25)
	if msg != "bob is this week's MVP (week 53) with -12.25 PnL" {
		t.Errorf("Unexpected message: %q", msg)
	}
}
