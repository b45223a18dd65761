package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"hellofeed/internal/feed"
	"hellofeed/internal/models"
	"hellofeed/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer on the REST side;
		// the upgrade itself is gated by the bearer token.
		return true
	},
}

// subscribeRequest is the control frame clients send over the socket.
type subscribeRequest struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Topic  string `json:"topic"`
	ID     string `json:"id,omitempty"` // topic-dependent subject id
}

// snapshotEnvelope wraps every pushed snapshot.
type snapshotEnvelope struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic"`
	ID    string      `json:"id,omitempty"`
	Data  interface{} `json:"data"`
}

// wsSession tracks one connection's live subscriptions.
type wsSession struct {
	server *Server
	client *websocket.Client
	userID uuid.UUID

	mu   sync.Mutex
	subs map[string]func()
}

// HandleWebSocket upgrades the connection and starts the subscription
// dispatcher. The auth middleware has already validated the token (sent
// as a query parameter on upgrades).
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requesterID(r)
		if !ok || userID == uuid.Nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "user", userID, "error", err)
			return
		}

		client := &websocket.Client{
			Hub:    s.Hub,
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}

		session := &wsSession{
			server: s,
			client: client,
			userID: userID,
			subs:   make(map[string]func()),
		}
		client.OnMessage = session.handleMessage
		client.OnClose = session.teardown

		client.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

func (sess *wsSession) handleMessage(data []byte) {
	var req subscribeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}

	key := req.Topic + "/" + req.ID

	switch req.Action {
	case "subscribe":
		sess.mu.Lock()
		_, exists := sess.subs[key]
		sess.mu.Unlock()
		if exists {
			return
		}

		cancel, err := sess.listen(req)
		if err != nil {
			slog.Warn("websocket subscribe failed", "user", sess.userID, "topic", req.Topic, "error", err)
			return
		}

		sess.mu.Lock()
		sess.subs[key] = cancel
		sess.mu.Unlock()

	case "unsubscribe":
		sess.mu.Lock()
		cancel, exists := sess.subs[key]
		delete(sess.subs, key)
		sess.mu.Unlock()
		if exists {
			cancel()
		}
	}
}

// listen attaches a service listener for the requested topic. Each
// snapshot goes out as one frame; the listener lives until unsubscribe or
// disconnect.
func (sess *wsSession) listen(req subscribeRequest) (func(), error) {
	ctx := context.Background()
	services := sess.server.Services
	push := func(data interface{}) {
		sess.push(req.Topic, req.ID, data)
	}

	// Topics about another subject carry its id; the personal topics
	// (bookmarks, notifications) are implicitly about the caller.
	subject := func() (uuid.UUID, error) {
		if req.ID == "" {
			return sess.userID, nil
		}
		return uuid.Parse(req.ID)
	}

	switch req.Topic {
	case "feed":
		return services.Posts.ListenFeed(ctx, 0, func(posts []*models.Post) { push(posts) })

	case "user_posts":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return services.Posts.ListenUserPosts(ctx, id, func(posts []*models.Post) { push(posts) })

	case "post_likes":
		postID, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, err
		}
		return services.Engagement.ListenToPostLikes(ctx, postID, sess.userID, func(count int, liked bool) {
			push(map[string]interface{}{"likeCount": count, "liked": liked})
		})

	case "post_comments":
		postID, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, err
		}
		return services.Comments.Listen(ctx, postID, func(comments []*models.Comment) { push(comments) })

	case "comment_count":
		postID, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, err
		}
		return services.Comments.ListenCount(ctx, postID, func(count int) {
			push(map[string]int{"commentCount": count})
		})

	case "bookmarks":
		return services.Bookmarks.Listen(ctx, sess.userID, func(postIDs []uuid.UUID) { push(postIDs) })

	case "followers":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return services.Follows.ListenFollowers(ctx, id, func(ids []uuid.UUID) { push(ids) })

	case "following":
		id, err := subject()
		if err != nil {
			return nil, err
		}
		return services.Follows.ListenFollowing(ctx, id, func(ids []uuid.UUID) { push(ids) })

	case "notifications":
		return services.Notifications.Listen(ctx, sess.userID, func(list []*feed.HydratedNotification) { push(list) })

	case "users":
		return services.Users.ListenUsers(ctx, func(users []*models.User) { push(users) })
	}

	return nil, fmt.Errorf("unknown topic %q", req.Topic)
}

// push marshals a snapshot envelope onto the client's send buffer,
// dropping it if the buffer is full.
func (sess *wsSession) push(topic, id string, data interface{}) {
	payload, err := json.Marshal(&snapshotEnvelope{
		Type:  "snapshot",
		Topic: topic,
		ID:    id,
		Data:  data,
	})
	if err != nil {
		return
	}
	select {
	case sess.client.Send <- payload:
	default:
		slog.Warn("snapshot buffer full, dropping", "user", sess.userID, "topic", topic)
	}
}

// teardown cancels every live subscription when the connection dies.
func (sess *wsSession) teardown() {
	sess.mu.Lock()
	cancels := make([]func(), 0, len(sess.subs))
	for _, cancel := range sess.subs {
		cancels = append(cancels, cancel)
	}
	sess.subs = make(map[string]func())
	sess.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
