// Package websocket implements the Hub that pushes live roster updates to connected clients.
// WebSockets are persistent two-way connections, so the server can push a new roster the
// moment someone joins or leaves instead of every open game page polling the API.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
)

// sendBuffer is how many unsent messages a client may fall behind before it is dropped.
const sendBuffer = 16

// Client is one connected viewer of one game.
type Client struct {
	GameID uint        // Which game this client is watching; messages are routed by it
	UserID uint        // Who is watching, for logging
	Send   chan []byte // Outgoing messages; the hub writes here and the connection's writer drains it
}

// NewClient returns a client for gameID with a buffered send channel.
func NewClient(gameID, userID uint) *Client {
	return &Client{GameID: gameID, UserID: userID, Send: make(chan []byte, sendBuffer)}
}

// Message is a payload for every client watching GameID.
type Message struct {
	GameID uint
	Data   []byte
}

// Event is the JSON envelope clients receive, e.g. {"type":"roster","game_id":4,"data":{...}}.
type Event struct {
	Type   string      `json:"type"`
	GameID uint        `json:"game_id"`
	Data   interface{} `json:"data"`
}

// Hub tracks connected clients grouped by game id.
// All changes to the client map happen on the Run goroutine, fed through channels;
// the mutex only lets Subscribers read the map from other goroutines.
type Hub struct {
	clients map[uint]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates an idle Hub. Start it with go hub.Run(ctx).
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the Hub's event loop. It returns when ctx is cancelled, closing every client's
// Send channel so the connection writers shut down too.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for gameID, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, gameID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.GameID] == nil {
				h.clients[client.GameID] = make(map[*Client]bool)
			}
			h.clients[client.GameID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.GameID] {
				select {
				case client.Send <- msg.Data:
				default:
					// Too slow to keep up; drop it rather than stall every other viewer.
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove deletes client and closes its Send channel. Callers hold h.mu.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.GameID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.GameID)
	}
}

// Register starts delivering gameID's broadcasts to client.
// It returns false if the hub has already stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister stops delivery to client and closes its Send channel. Unregistering twice is harmless.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToGame queues data for every client watching gameID.
func (h *Hub) BroadcastToGame(gameID uint, data []byte) {
	select {
	case h.broadcast <- &Message{GameID: gameID, Data: data}:
	case <-h.done:
	}
}

// Publish encodes an Event and broadcasts it to the game's viewers.
func (h *Hub) Publish(gameID uint, eventType string, data interface{}) error {
	payload, err := json.Marshal(Event{Type: eventType, GameID: gameID, Data: data})
	if err != nil {
		return err
	}
	h.BroadcastToGame(gameID, payload)
	return nil
}

// Subscribers returns how many clients are currently watching gameID.
func (h *Hub) Subscribers(gameID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[gameID])
}
