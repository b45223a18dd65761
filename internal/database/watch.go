// internal/database/watch.go
package database

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// changeStreamHub bridges MongoDB change streams to the store.Watch
// contract. One stream per collection is opened lazily on the first watcher
// that needs it; every event is mapped back to the scopes it may affect and
// the registered callbacks re-read their snapshots.
type changeStreamHub struct {
	db *MongoDB

	mu       sync.Mutex
	nextID   int
	watchers map[string]map[int]func()
	started  map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

func newChangeStreamHub(db *MongoDB) *changeStreamHub {
	ctx, cancel := context.WithCancel(context.Background())
	return &changeStreamHub{
		db:       db,
		watchers: make(map[string]map[int]func()),
		started:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (h *changeStreamHub) stop() {
	h.cancel()
}

var _ store.Store = (*MongoDB)(nil)

// Watch implements store.Store for the MongoDB store.
func (m *MongoDB) Watch(ctx context.Context, scope string, fn func()) (func(), error) {
	return m.watch.register(ctx, scope, fn)
}

func (h *changeStreamHub) register(ctx context.Context, scope string, fn func()) (func(), error) {
	collection, name := h.collectionForScope(scope)
	if collection == nil {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "unknown watch scope: "+scope, nil)
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if _, ok := h.watchers[scope]; !ok {
		h.watchers[scope] = make(map[int]func())
	}
	h.watchers[scope][id] = fn
	if !h.started[name] {
		h.started[name] = true
		go h.runStream(name, collection)
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if scoped, ok := h.watchers[scope]; ok {
				delete(scoped, id)
				if len(scoped) == 0 {
					delete(h.watchers, scope)
				}
			}
			h.mu.Unlock()
		})
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return cancel, nil
}

func (h *changeStreamHub) collectionForScope(scope string) (*mongo.Collection, string) {
	switch {
	case strings.HasPrefix(scope, "notifications/"):
		return h.db.Notifications, "notifications"
	case strings.HasSuffix(scope, "/likes"):
		return h.db.Likes, "likes"
	case strings.HasSuffix(scope, "/comments"):
		return h.db.Comments, "comments"
	case strings.HasSuffix(scope, "/bookmarks"):
		return h.db.Bookmarks, "bookmarks"
	case strings.HasSuffix(scope, "/followers"), strings.HasSuffix(scope, "/following"):
		return h.db.Follows, "follows"
	case scope == "users":
		return h.db.Users, "users"
	case strings.HasPrefix(scope, "posts"):
		return h.db.Posts, "posts"
	default:
		return nil, ""
	}
}

// changeEvent is the slice of the change stream document we care about.
type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument bson.M `bson:"fullDocument"`
}

func (h *changeStreamHub) runStream(name string, collection *mongo.Collection) {
	for {
		opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
		cs, err := collection.Watch(h.ctx, mongo.Pipeline{}, opts)
		if err != nil {
			if h.ctx.Err() != nil {
				return
			}
			slog.Warn("change stream open failed, retrying", "collection", name, "error", err)
			select {
			case <-h.ctx.Done():
				return
			case <-time.After(2 * time.Second):
				continue
			}
		}

		for cs.Next(h.ctx) {
			var event changeEvent
			if err := cs.Decode(&event); err != nil {
				slog.Warn("change stream decode failed", "collection", name, "error", err)
				continue
			}
			h.dispatch(name, &event)
		}
		cs.Close(context.Background())

		if h.ctx.Err() != nil {
			return
		}
		slog.Warn("change stream ended, restarting", "collection", name, "error", cs.Err())
	}
}

func (h *changeStreamHub) dispatch(name string, event *changeEvent) {
	key := event.DocumentKey.ID

	switch name {
	case "posts":
		if postID, err := uuid.Parse(key); err == nil {
			h.notify(store.ScopePosts(), store.ScopePost(postID))
		} else {
			h.notify(store.ScopePosts())
		}
	case "likes":
		if postID, ok := splitLikeKey(key); ok {
			if id, err := uuid.Parse(postID); err == nil {
				h.notify(store.ScopePostLikes(id), store.ScopePost(id), store.ScopePosts())
				return
			}
		}
		h.notifyPrefix("posts")
	case "comments":
		if postID, ok := splitCommentKey(key); ok {
			if id, err := uuid.Parse(postID); err == nil {
				h.notify(store.ScopePostComments(id))
				return
			}
		}
		h.notifyPrefix("posts")
	case "bookmarks":
		if userID, ok := splitBookmarkKey(key); ok {
			if id, err := uuid.Parse(userID); err == nil {
				h.notify(store.ScopeBookmarks(id))
				return
			}
		}
		h.notifyPrefix("users/")
	case "follows":
		if followerID, targetID, ok := splitFollowKey(key); ok {
			fID, err1 := uuid.Parse(followerID)
			tID, err2 := uuid.Parse(targetID)
			if err1 == nil && err2 == nil {
				h.notify(store.ScopeFollowing(fID), store.ScopeFollowers(tID))
				return
			}
		}
		h.notifyPrefix("users/")
	case "users":
		h.notify(store.ScopeUsers())
	case "notifications":
		// Inserts and updates carry the full document; deletes don't, so
		// they wake every notification listener and let it re-query.
		if receiver, ok := event.FullDocument["receiverId"].(string); ok {
			if id, err := uuid.Parse(receiver); err == nil {
				h.notify(store.ScopeNotifications(id))
				return
			}
		}
		h.notifyPrefix("notifications/")
	}
}

func (h *changeStreamHub) notify(scopes ...string) {
	h.mu.Lock()
	var fns []func()
	for _, scope := range scopes {
		for _, fn := range h.watchers[scope] {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (h *changeStreamHub) notifyPrefix(prefix string) {
	h.mu.Lock()
	var fns []func()
	for scope, scoped := range h.watchers {
		if strings.HasPrefix(scope, prefix) {
			for _, fn := range scoped {
				fns = append(fns, fn)
			}
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
