package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"hellofeed/internal/cache"
	"hellofeed/internal/feed"
	"hellofeed/internal/models"
	"hellofeed/internal/store/memory"
	"hellofeed/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordPusher captures realtime pushes for inspection.
type recordPusher struct {
	mu       sync.Mutex
	payloads map[uuid.UUID][][]byte
}

func newRecordPusher() *recordPusher {
	return &recordPusher{payloads: make(map[uuid.UUID][][]byte)}
}

func (p *recordPusher) SendDirectMessage(targetUserID uuid.UUID, payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads[targetUserID] = append(p.payloads[targetUserID], payload)
}

func (p *recordPusher) countFor(id uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads[id])
}

type engineEnv struct {
	store  *memory.MemoryStore
	pusher *recordPusher
	engine *Engine
}

func newEngineEnv(t *testing.T) *engineEnv {
	t.Helper()
	st := memory.NewMemoryStore()
	pusher := newRecordPusher()
	notifications := feed.NewNotificationService(st, cache.NewUserCache(time.Minute), utils.NewMetricsCollector())
	system := actor.NewActorSystem()
	eng := NewEngine(system, notifications, pusher, utils.NewMetricsCollector())
	return &engineEnv{store: st, pusher: pusher, engine: eng}
}

func (e *engineEnv) seedUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New(),
		Username:  username,
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.store.SaveUser(context.Background(), user))
	return user
}

func TestNotifierPersistsAndPushes(t *testing.T) {
	env := newEngineEnv(t)
	ctx := context.Background()

	receiver := env.seedUser(t, "receiver")
	sender := env.seedUser(t, "sender")

	env.engine.Notifier().Notify(receiver.ID, sender.ID, models.NotificationFollow, nil, nil)

	require.Eventually(t, func() bool {
		records, err := env.store.ListNotifications(ctx, receiver.ID, 10)
		return err == nil && len(records) == 1
	}, 2*time.Second, 10*time.Millisecond)

	records, err := env.store.ListNotifications(ctx, receiver.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, sender.ID, records[0].SenderID)
	assert.Equal(t, models.NotificationFollow, records[0].Type)

	require.Eventually(t, func() bool {
		return env.pusher.countFor(receiver.ID) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotifierDropsInvalidEvents(t *testing.T) {
	env := newEngineEnv(t)

	sender := env.seedUser(t, "sender")

	// A record with no receiver is rejected by the service; the actor logs
	// and moves on without pushing or counting it.
	env.engine.Notifier().Notify(uuid.Nil, sender.ID, models.NotificationFollow, nil, nil)

	receiver := env.seedUser(t, "receiver")
	env.engine.Notifier().Notify(receiver.ID, sender.ID, models.NotificationFollow, nil, nil)

	require.Eventually(t, func() bool {
		count, err := env.engine.ProcessedCount(time.Second)
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, env.pusher.countFor(uuid.Nil))
}

func TestProcessedCountSerializesBursts(t *testing.T) {
	env := newEngineEnv(t)

	receiver := env.seedUser(t, "receiver")
	sender := env.seedUser(t, "sender")

	const events = 20
	notifier := env.engine.Notifier()
	for i := 0; i < events; i++ {
		notifier.Notify(receiver.ID, sender.ID, models.NotificationLike, nil, nil)
	}

	require.Eventually(t, func() bool {
		count, err := env.engine.ProcessedCount(time.Second)
		return err == nil && count == events
	}, 2*time.Second, 10*time.Millisecond)

	records, err := env.store.ListNotifications(context.Background(), receiver.ID, events+1)
	require.NoError(t, err)
	assert.Len(t, records, events)
}
