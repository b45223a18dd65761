package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"hellofeed/internal/cache"
	"hellofeed/internal/models"
	"hellofeed/internal/store/memory"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordedEvent is one captured fan-out call.
type recordedEvent struct {
	ReceiverID uuid.UUID
	SenderID   uuid.UUID
	Type       models.NotificationType
	PostID     *uuid.UUID
	CommentID  *uuid.UUID
}

// recordNotifier captures fan-out calls synchronously.
type recordNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordNotifier) Notify(receiverID, senderID uuid.UUID, typ models.NotificationType, postID, commentID *uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{
		ReceiverID: receiverID,
		SenderID:   senderID,
		Type:       typ,
		PostID:     postID,
		CommentID:  commentID,
	})
}

func (r *recordNotifier) Events() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

type testEnv struct {
	store    *memory.MemoryStore
	notifier *recordNotifier
	services *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.NewMemoryStore()
	notifier := &recordNotifier{}
	services := NewServices(st, notifier, cache.NewUserCache(time.Minute), utils.NewMetricsCollector())
	return &testEnv{store: st, notifier: notifier, services: services}
}

func (e *testEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     username + "@test.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.store.SaveUser(context.Background(), user))
	return user
}

func (e *testEnv) seedPost(t *testing.T, author *models.User) *models.Post {
	t.Helper()
	post, err := e.services.Posts.Create(context.Background(), author.ID, "https://cdn.test/img.jpg", "hello")
	require.NoError(t, err)
	require.NotNil(t, post)
	return post
}
