package events

import (
	"sync"
	"testing"
	"time"
)

// collector gathers delivered events across goroutines
type collector struct {
	mu       sync.Mutex
	events   []Event
	expected int
	done     chan struct{}
}

func newCollector(expected int) *collector {
	return &collector{expected: expected, done: make(chan struct{})}
}

func (c *collector) handle(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	if len(c.events) == c.expected {
		close(c.done)
	}
}

func (c *collector) wait(t *testing.T) []Event {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event delivery")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// TestPublishRoutesByType tests that typed subscribers only see their type
func TestPublishRoutesByType(t *testing.T) {
	bus := NewEventBus()
	joined := newCollector(1)
	bus.Subscribe(EventMemberJoined, joined.handle)

	bus.PublishMessagePosted("squad-1", "m1", "u1", "hello")
	bus.PublishMemberJoined("squad-1", "u2", "bob")

	events := joined.wait(t)
	if len(events) != 1 || events[0].Type != EventMemberJoined {
		t.Fatalf("Expected 1 MEMBER_JOINED event, got %+v", events)
	}
	if events[0].Data["user_id"] != "u2" {
		t.Errorf("Expected user_id u2, got %v", events[0].Data["user_id"])
	}
}

// TestSubscribeAllSeesEveryEvent tests the firehose subscription
func TestSubscribeAllSeesEveryEvent(t *testing.T) {
	bus := NewEventBus()
	all := newCollector(2)
	bus.SubscribeAll(all.handle)

	bus.PublishMemberJoined("squad-1", "u1", "alice")
	bus.PublishMemberLeft("squad-1", "u1")

	events := all.wait(t)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
}

// TestAnnounceWinnerEvent tests the winner announcement event shape
func TestAnnounceWinnerEvent(t *testing.T) {
	bus := NewEventBus()
	winners := newCollector(1)
	bus.Subscribe(EventWinnerAnnounced, winners.handle)

	bus.AnnounceWinner("squad-1", "alice is this week's MVP (week 10) with +150.50 PnL")

	events := winners.wait(t)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventWinnerAnnounced {
		t.Errorf("Expected winner-announced type, got %s", e.Type)
	}
	if e.SquadID != "squad-1" {
		t.Errorf("Expected squad-1, got %s", e.SquadID)
	}
	if e.Data["message"] != "alice is this week's MVP (week 10) with +150.50 PnL" {
		t.Errorf("Unexpected message: %v", e.Data["message"])
	}
	if e.Timestamp.IsZero() {
		t.Error("Expected a timestamp to be stamped on publish")
	}
}
