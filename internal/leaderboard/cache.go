package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RemoteStore is an optional shared cache backing (Redis) for multi-instance
// deployments. The local in-process map stays authoritative; the remote
// mirror carries the same TTL.
type RemoteStore interface {
	IsHealthy() bool
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheEntry struct {
	board     *Leaderboard
	expiresAt time.Time
}

// SnapshotCache memoizes leaderboard snapshots per (squad, timeframe) with a
// fixed TTL applied at write time. There is no explicit invalidation and no
// single-flight: concurrent misses may recompute, which is harmless because
// recomputation is idempotent.
type SnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	remote  RemoteStore // nil unless shared caching is configured
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSnapshotCache creates a snapshot cache. remote may be nil.
func NewSnapshotCache(ttl time.Duration, remote RemoteStore, logger zerolog.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SnapshotCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		remote:  remote,
		logger:  logger,
		now:     time.Now,
	}
}

// TTL returns the configured time-to-live
func (c *SnapshotCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached snapshot for (squad, timeframe) if it has not
// expired. On a local miss the remote mirror is consulted when available.
func (c *SnapshotCache) Get(ctx context.Context, squadID string, tf Timeframe) (*Leaderboard, bool) {
	key := snapshotKey(squadID, tf)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiresAt) {
		return entry.board, true
	}

	if c.remote != nil && c.remote.IsHealthy() {
		var board Leaderboard
		if err := c.remote.GetJSON(ctx, key, &board); err == nil {
			return &board, true
		}
	}

	return nil, false
}

// Set stores a snapshot, overwriting unconditionally and resetting the TTL
// clock.
func (c *SnapshotCache) Set(ctx context.Context, board *Leaderboard) {
	key := snapshotKey(board.SquadID, board.Timeframe)

	c.mu.Lock()
	c.entries[key] = cacheEntry{board: board, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	if c.remote != nil && c.remote.IsHealthy() {
		if err := c.remote.SetJSON(ctx, key, board, c.ttl); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to mirror snapshot to remote cache")
		}
	}
}

func snapshotKey(squadID string, tf Timeframe) string {
	return fmt.Sprintf("leaderboard:%s:%s", squadID, tf)
}
