package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeRemote struct {
	healthy  bool
	store    map[string][]byte
	ttls     map[string]time.Duration
	getCalls int
	setCalls int
}

func newFakeRemote(healthy bool) *fakeRemote {
	return &fakeRemote{
		healthy: healthy,
		store:   make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (f *fakeRemote) IsHealthy() bool { return f.healthy }

func (f *fakeRemote) GetJSON(ctx context.Context, key string, dest interface{}) error {
	f.getCalls++
	data, ok := f.store[key]
	if !ok {
		return errors.New("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeRemote) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.setCalls++
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = data
	f.ttls[key] = ttl
	return nil
}

func newTestBoard(squadID string, tf Timeframe) *Leaderboard {
	return &Leaderboard{
		SquadID:   squadID,
		Timeframe: tf,
		Entries:   []Entry{{UserID: "u1", DisplayName: "alice", TotalPnL: 42.5}},
	}
}

// TestSnapshotCacheHitWithinTTL tests that a snapshot stored moments ago is
// returned unchanged
func TestSnapshotCacheHitWithinTTL(t *testing.T) {
	cache := NewSnapshotCache(30*time.Second, nil, zerolog.Nop())
	board := newTestBoard("squad-1", TimeframeAll)

	cache.Set(context.Background(), board)

	got, ok := cache.Get(context.Background(), "squad-1", TimeframeAll)
	if !ok {
		t.Fatal("Expected cache hit within TTL")
	}
	if got != board {
		t.Error("Expected the identical snapshot back on a hit")
	}
}

// TestSnapshotCacheExpiry tests that entries are not served after the TTL
func TestSnapshotCacheExpiry(t *testing.T) {
	cache := NewSnapshotCache(30*time.Second, nil, zerolog.Nop())

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	cache.Set(context.Background(), newTestBoard("squad-1", TimeframeWeekly))

	current = current.Add(29 * time.Second)
	if _, ok := cache.Get(context.Background(), "squad-1", TimeframeWeekly); !ok {
		t.Error("Expected hit at 29s")
	}

	current = current.Add(2 * time.Second)
	if _, ok := cache.Get(context.Background(), "squad-1", TimeframeWeekly); ok {
		t.Error("Expected miss after TTL elapsed")
	}
}

// TestSnapshotCacheOverwriteResetsTTL tests that writing a fresh snapshot
// restarts the expiry clock
func TestSnapshotCacheOverwriteResetsTTL(t *testing.T) {
	cache := NewSnapshotCache(30*time.Second, nil, zerolog.Nop())

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	cache.Set(context.Background(), newTestBoard("squad-1", TimeframeAll))

	current = current.Add(25 * time.Second)
	refreshed := newTestBoard("squad-1", TimeframeAll)
	cache.Set(context.Background(), refreshed)

	// 40s after the first write but only 15s after the second
	current = current.Add(15 * time.Second)
	got, ok := cache.Get(context.Background(), "squad-1", TimeframeAll)
	if !ok {
		t.Fatal("Expected hit after overwrite reset the TTL")
	}
	if got != refreshed {
		t.Error("Expected the refreshed snapshot, not the original")
	}
}

// TestSnapshotCacheMirrorsToRemote tests that Set writes the snapshot to the
// remote store under the same key and TTL
func TestSnapshotCacheMirrorsToRemote(t *testing.T) {
	remote := newFakeRemote(true)
	cache := NewSnapshotCache(30*time.Second, remote, zerolog.Nop())

	cache.Set(context.Background(), newTestBoard("squad-1", TimeframeAll))

	if remote.setCalls != 1 {
		t.Fatalf("Expected 1 remote write, got %d", remote.setCalls)
	}
	if _, ok := remote.store["leaderboard:squad-1:all"]; !ok {
		t.Error("Expected snapshot mirrored under leaderboard:squad-1:all")
	}
	if remote.ttls["leaderboard:squad-1:all"] != 30*time.Second {
		t.Errorf("Expected remote TTL 30s, got %v", remote.ttls["leaderboard:squad-1:all"])
	}
}

// TestSnapshotCacheRemoteHitOnLocalMiss tests that a local miss falls back to
// the remote store
func TestSnapshotCacheRemoteHitOnLocalMiss(t *testing.T) {
	remote := newFakeRemote(true)
	writer := NewSnapshotCache(30*time.Second, remote, zerolog.Nop())
	writer.Set(context.Background(), newTestBoard("squad-1", TimeframeWeekly))

	// A second cache instance shares the remote but has an empty local map
	reader := NewSnapshotCache(30*time.Second, remote, zerolog.Nop())

	board, ok := reader.Get(context.Background(), "squad-1", TimeframeWeekly)
	if !ok {
		t.Fatal("Expected remote hit on local miss")
	}
	if board.SquadID != "squad-1" || board.Timeframe != TimeframeWeekly {
		t.Errorf("Snapshot identity mismatch: %+v", board)
	}
	if len(board.Entries) != 1 || board.Entries[0].TotalPnL != 42.5 {
		t.Errorf("Snapshot entries mismatch: %+v", board.Entries)
	}
	if remote.getCalls != 1 {
		t.Errorf("Expected 1 remote read, got %d", remote.getCalls)
	}
}

// TestSnapshotCacheUnhealthyRemoteSkipped tests that a degraded remote is
// never consulted
func TestSnapshotCacheUnhealthyRemoteSkipped(t *testing.T) {
	remote := newFakeRemote(false)
	cache := NewSnapshotCache(30*time.Second, remote, zerolog.Nop())

	cache.Set(context.Background(), newTestBoard("squad-1", TimeframeAll))
	if remote.setCalls != 0 {
		t.Errorf("Expected no remote writes while unhealthy, got %d", remote.setCalls)
	}

	if _, ok := cache.Get(context.Background(), "squad-2", TimeframeAll); ok {
		t.Error("Expected local miss without remote fallback")
	}
	if remote.getCalls != 0 {
		t.Errorf("Expected no remote reads while unhealthy, got %d", remote.getCalls)
	}
}

// TestSnapshotCacheLocalHitSkipsRemote tests that the remote is not consulted
// when the local entry is fresh
func TestSnapshotCacheLocalHitSkipsRemote(t *testing.T) {
	remote := newFakeRemote(true)
	cache := NewSnapshotCache(30*time.Second, remote, zerolog.Nop())

	cache.Set(context.Background(), newTestBoard("squad-1", TimeframeAll))

	if _, ok := cache.Get(context.Background(), "squad-1", TimeframeAll); !ok {
		t.Fatal("Expected local hit")
	}
	if remote.getCalls != 0 {
		t.Errorf("Expected no remote reads on a local hit, got %d", remote.getCalls)
	}
}

// TestSnapshotCacheKeysAreIndependent tests that timeframes and squads do not
// collide in the cache
func TestSnapshotCacheKeysAreIndependent(t *testing.T) {
	cache := NewSnapshotCache(30*time.Second, nil, zerolog.Nop())

	cache.Set(context.Background(), newTestBoard("squad-1", TimeframeAll))

	if _, ok := cache.Get(context.Background(), "squad-1", TimeframeWeekly); ok {
		t.Error("Expected miss for a different timeframe")
	}
	if _, ok := cache.Get(context.Background(), "squad-2", TimeframeAll); ok {
		t.Error("Expected miss for a different squad")
	}
}
