// Package chat provides the WebSocket room layer: one room per squad, with
// best-effort fan-out to every connected member.
package chat

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"squad-markets/internal/events"
)

// MessageHandler processes an inbound chat message from a connected member
type MessageHandler func(squadID, userID, body string)

// Hub manages all WebSocket clients grouped into squad rooms
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	onMessage  MessageHandler
	logger     zerolog.Logger
	mu         sync.RWMutex
}

// NewHub creates a new chat hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With().Str("component", "chat-hub").Logger(),
	}
}

// SetMessageHandler wires the inbound message callback. Must be called before
// Run.
func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.onMessage = handler
}

// Run starts the hub loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.squadID]
			if !ok {
				room = make(map[*Client]bool)
				h.rooms[client.squadID] = room
			}
			room[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.squadID]; ok {
				if _, exists := room[client]; exists {
					delete(room, client)
					close(client.send)
				}
				if len(room) == 0 {
					delete(h.rooms, client.squadID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToSquad sends a payload to every client in a squad's room. Clients
// whose send buffers are full are dropped and unregistered.
func (h *Hub) BroadcastToSquad(squadID string, payload []byte) {
	h.mu.RLock()
	room := h.rooms[squadID]
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- payload:
		default:
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// BroadcastEvent routes an event to its squad's room
func (h *Hub) BroadcastEvent(event events.Event) {
	if event.SquadID == "" {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal event")
		return
	}

	h.BroadcastToSquad(event.SquadID, data)
}

// RoomSize returns the number of clients connected to a squad's room
func (h *Hub) RoomSize(squadID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[squadID])
}

func (h *Hub) handleMessage(client *Client, body string) {
	if h.onMessage != nil && body != "" {
		h.onMessage(client.squadID, client.userID, body)
	}
}
