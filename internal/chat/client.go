package chat

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Client represents one WebSocket connection inside a squad room
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	userID  string
	squadID string
}

// inboundMessage is the wire format clients send
type inboundMessage struct {
	Body string `json:"body"`
}

// NewClient wraps an upgraded connection and registers it with the hub
func NewClient(hub *Hub, conn *websocket.Conn, squadID, userID string) *Client {
	client := &Client{
		conn:    conn,
		send:    make(chan []byte, 256),
		hub:     hub,
		userID:  userID,
		squadID: squadID,
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

// Send queues a payload for this client, dropping it if the buffer is full
func (c *Client) Send(payload []byte) {
	select {
	case c.send <- payload:
	default:
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Str("user_id", c.userID).Msg("websocket read error")
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.hub.handleMessage(c, msg.Body)
	}
}
