// Package websocket keeps the realtime side of the feed: one hub tracks
// every authenticated connection, the notification actor pushes through it,
// and feed-wide invalidation signals fan out to everyone connected.
package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// directMessage targets every live connection of a single user.
type directMessage struct {
	targetUserID uuid.UUID
	payload      []byte
}

// Hub maintains the set of active clients. A user can hold several
// connections at once (phone plus web); a direct push goes to all of them.
type Hub struct {
	// clients maps a user id to that user's open connections.
	clients map[uuid.UUID]map[*Client]bool

	// broadcast carries feed-wide signals delivered to every connection.
	broadcast chan []byte

	// direct carries per-user pushes from the notification actor.
	direct chan *directMessage

	Register   chan *Client
	Unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		direct:     make(chan *directMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]map[*Client]bool),
	}
}

// Run is the hub's processing loop; the server starts it once.
func (h *Hub) Run() {
	slog.Info("websocket hub started")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; !ok {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			slog.Debug("websocket client registered",
				"user", client.UserID,
				"connections", len(h.clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if userClients, ok := h.clients[client.UserID]; ok {
				if _, open := userClients[client]; open {
					delete(userClients, client)
					close(client.Send)
					if len(userClients) == 0 {
						delete(h.clients, client.UserID)
					}
					slog.Debug("websocket client unregistered",
						"user", client.UserID,
						"connections", len(userClients))
				}
			}
			h.mu.Unlock()

		case payload := <-h.broadcast:
			h.mu.RLock()
			for _, userClients := range h.clients {
				for client := range userClients {
					select {
					case client.Send <- payload:
					default:
						slog.Warn("broadcast buffer full, dropping", "user", client.UserID)
					}
				}
			}
			h.mu.RUnlock()

		case msg := <-h.direct:
			h.mu.RLock()
			for client := range h.clients[msg.targetUserID] {
				select {
				case client.Send <- msg.payload:
				default:
					slog.Warn("direct push buffer full, dropping", "user", client.UserID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// SendDirectMessage queues a payload for every live connection of one
// user. It implements the notification engine's Pusher. An offline user
// is not an error; the persisted record is waiting when they reconnect.
func (h *Hub) SendDirectMessage(targetUserID uuid.UUID, payload []byte) {
	msg := &directMessage{targetUserID: targetUserID, payload: payload}
	select {
	case h.direct <- msg:
	case <-time.After(1 * time.Second):
		slog.Warn("timeout queuing direct push", "user", targetUserID)
	}
}

// BroadcastEvent queues a payload for every connection, used for
// feed-wide invalidation signals.
func (h *Hub) BroadcastEvent(payload []byte) {
	select {
	case h.broadcast <- payload:
	case <-time.After(1 * time.Second):
		slog.Warn("timeout queuing broadcast")
	}
}

// ConnectedUsers reports how many distinct users currently hold at least
// one connection. Exposed on the health endpoint.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
