package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"squad-markets/internal/database"
)

// Service builds leaderboards and selects weekly winners
type Service struct {
	members   MembershipStore
	profiles  ProfileStore
	winners   WinnerStore
	market    MarketDataSource
	cache     *SnapshotCache
	announcer Announcer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates the leaderboard service
func NewService(
	members MembershipStore,
	profiles ProfileStore,
	winners WinnerStore,
	marketData MarketDataSource,
	cache *SnapshotCache,
	announcer Announcer,
	logger zerolog.Logger,
) *Service {
	return &Service{
		members:   members,
		profiles:  profiles,
		winners:   winners,
		market:    marketData,
		cache:     cache,
		announcer: announcer,
		logger:    logger.With().Str("component", "leaderboard").Logger(),
		now:       time.Now,
	}
}

// GetLeaderboard returns the sorted leaderboard for a squad and timeframe.
// The caller must be a current member. A cache hit within the TTL is served
// with no upstream calls; a miss triggers one fresh computation.
func (s *Service) GetLeaderboard(ctx context.Context, squadID, callerID string, tf Timeframe) (*Leaderboard, error) {
	if err := s.authorize(ctx, squadID, callerID); err != nil {
		return nil, err
	}

	if board, ok := s.cache.Get(ctx, squadID, tf); ok {
		return board, nil
	}

	return s.buildLeaderboard(ctx, squadID, tf)
}

// buildLeaderboard recomputes a snapshot and populates the cache
func (s *Service) buildLeaderboard(ctx context.Context, squadID string, tf Timeframe) (*Leaderboard, error) {
	memberIDs, err := s.members.ListMembers(ctx, squadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	board := &Leaderboard{
		SquadID:     squadID,
		Timeframe:   tf,
		Entries:     []Entry{},
		GeneratedAt: s.now(),
	}

	// An empty squad yields an empty leaderboard, not an error
	if len(memberIDs) == 0 {
		s.cache.Set(ctx, board)
		return board, nil
	}

	profiles, err := s.profiles.GetProfiles(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profiles: %w", err)
	}
	profileByID := make(map[string]database.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.UserID] = p
	}

	cutoff := WindowStart(tf, s.now())

	// Fan out to all members at once. Squads are capped at 10 members, so the
	// fan-out is bounded by that invariant rather than a worker pool.
	entries := make([]Entry, len(memberIDs))
	var wg sync.WaitGroup
	for i, memberID := range memberIDs {
		wg.Add(1)
		go func(i int, memberID string) {
			defer wg.Done()
			entries[i] = s.memberEntry(ctx, memberID, profileByID[memberID], tf, cutoff)
		}(i, memberID)
	}
	wg.Wait()

	// Stable sort keeps member order for exact PnL ties
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].TotalPnL > entries[b].TotalPnL
	})

	board.Entries = entries
	s.cache.Set(ctx, board)

	return board, nil
}

// memberEntry computes one member's leaderboard row. Any per-member failure
// degrades the row to a PnL of zero instead of failing the batch.
func (s *Service) memberEntry(ctx context.Context, memberID string, profile database.Profile, tf Timeframe, cutoff *int64) Entry {
	entry := Entry{
		UserID:      memberID,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
	}
	if entry.DisplayName == "" {
		entry.DisplayName = shortID(memberID)
	}

	// No linked trading identity: zero PnL, no network call
	if profile.TradingAddress == "" {
		return entry
	}

	data, err := s.market.FetchAccountData(ctx, profile.TradingAddress, cutoff)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("user_id", memberID).
			Str("timeframe", string(tf)).
			Msg("market data fetch failed, counting member as zero")
		return entry
	}

	entry.TotalPnL = AggregateTotal(data.ClosedPositions, data.OpenValue, tf, cutoff)
	return entry
}

// authorize admits current members. For non-members it distinguishes a squad
// that does not exist from one the caller simply is not in.
func (s *Service) authorize(ctx context.Context, squadID, callerID string) error {
	isMember, err := s.members.IsMember(ctx, squadID, callerID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return nil
	}

	exists, err := s.members.SquadExists(ctx, squadID)
	if err != nil {
		return fmt.Errorf("failed to check squad: %w", err)
	}
	if !exists {
		return ErrSquadNotFound
	}
	return ErrAccessDenied
}

// shortID abbreviates an identity for display when no profile name exists
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
