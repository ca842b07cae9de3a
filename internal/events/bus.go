package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventMessagePosted   EventType = "MESSAGE_POSTED"
	EventMemberJoined    EventType = "MEMBER_JOINED"
	EventMemberLeft      EventType = "MEMBER_LEFT"
	EventSquadCreated    EventType = "SQUAD_CREATED"
	// Lowercase on purpose: clients already match "winner-announced" on the
	// wire, so this one keeps its published name.
	EventWinnerAnnounced EventType = "winner-announced"
)

// Event represents a system event. SquadID routes the event to the right
// chat room.
type Event struct {
	Type      EventType              `json:"type"`
	SquadID   string                 `json:"squad_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers. Subscribers run in goroutines so
// a slow consumer cannot block the publisher; delivery is at-most-once with no
// acknowledgment.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event)
		}
	}

	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishMessagePosted publishes a chat message event
func (eb *EventBus) PublishMessagePosted(squadID, messageID, userID, body string) {
	eb.Publish(Event{
		Type:    EventMessagePosted,
		SquadID: squadID,
		Data: map[string]interface{}{
			"message_id": messageID,
			"user_id":    userID,
			"body":       body,
		},
	})
}

// PublishMemberJoined publishes a member joined event
func (eb *EventBus) PublishMemberJoined(squadID, userID, displayName string) {
	eb.Publish(Event{
		Type:    EventMemberJoined,
		SquadID: squadID,
		Data: map[string]interface{}{
			"user_id":      userID,
			"display_name": displayName,
		},
	})
}

// PublishMemberLeft publishes a member left event
func (eb *EventBus) PublishMemberLeft(squadID, userID string) {
	eb.Publish(Event{
		Type:    EventMemberLeft,
		SquadID: squadID,
		Data: map[string]interface{}{
			"user_id": userID,
		},
	})
}

// AnnounceWinner publishes the weekly winner announcement to the squad's
// channel. Fire-and-forget: there is no delivery feedback by design, so a
// failed broadcast cannot trigger a duplicate chat message.
func (eb *EventBus) AnnounceWinner(squadID, message string) {
	eb.Publish(Event{
		Type:    EventWinnerAnnounced,
		SquadID: squadID,
		Data: map[string]interface{}{
			"message": message,
		},
	})
}
