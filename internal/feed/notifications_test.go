package feed

import (
	"context"
	"sync"
	"testing"

	"hellofeed/internal/models"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNotificationRequiresParticipants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	receiver := env.seedUser(t, "receiver")
	sender := env.seedUser(t, "sender")

	_, err := env.services.Notifications.Add(ctx, uuid.Nil, sender.ID, models.NotificationFollow, nil, nil)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))

	_, err = env.services.Notifications.Add(ctx, receiver.ID, uuid.Nil, models.NotificationFollow, nil, nil)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestListNotificationsHydratesSenderAndPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	receiver := env.seedUser(t, "receiver")
	sender := env.seedUser(t, "sender")
	post := env.seedPost(t, receiver)

	_, err := env.services.Notifications.Add(ctx, receiver.ID, sender.ID, models.NotificationLike, &post.ID, nil)
	require.NoError(t, err)

	list, err := env.services.Notifications.List(ctx, receiver.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	n := list[0]
	assert.Equal(t, models.NotificationLike, n.Type)
	require.NotNil(t, n.Sender)
	assert.Equal(t, "sender", n.Sender.Username)
	require.NotNil(t, n.Post)
	assert.Equal(t, post.ID, n.Post.ID)
}

func TestListNotificationsToleratesDeletedSubjects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	receiver := env.seedUser(t, "receiver")
	sender := env.seedUser(t, "sender")
	post := env.seedPost(t, receiver)

	_, err := env.services.Notifications.Add(ctx, receiver.ID, sender.ID, models.NotificationLike, &post.ID, nil)
	require.NoError(t, err)

	// The post vanishes after the record is written; the record survives
	// with a nil Post.
	require.NoError(t, env.services.Posts.Delete(ctx, post.ID, receiver.ID))

	list, err := env.services.Notifications.List(ctx, receiver.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Post)
	require.NotNil(t, list[0].Sender)
}

func TestNotificationsNewestFirstWithLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	receiver := env.seedUser(t, "receiver")
	sender := env.seedUser(t, "sender")

	var last *models.Notification
	for i := 0; i < 3; i++ {
		n, err := env.services.Notifications.Add(ctx, receiver.ID, sender.ID, models.NotificationFollow, nil, nil)
		require.NoError(t, err)
		last = n
	}

	list, err := env.services.Notifications.List(ctx, receiver.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, last.ID, list[0].ID)
}

func TestMarkReadIsReceiverOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	receiver := env.seedUser(t, "receiver")
	sender := env.seedUser(t, "sender")
	stranger := env.seedUser(t, "stranger")

	n, err := env.services.Notifications.Add(ctx, receiver.ID, sender.ID, models.NotificationFollow, nil, nil)
	require.NoError(t, err)

	require.NoError(t, env.services.Notifications.MarkRead(ctx, n.ID, stranger.ID))
	list, err := env.services.Notifications.List(ctx, receiver.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Read)

	require.NoError(t, env.services.Notifications.MarkRead(ctx, n.ID, receiver.ID))
	list, err = env.services.Notifications.List(ctx, receiver.ID, 0)
	require.NoError(t, err)
	assert.True(t, list[0].Read)

	// Marking a vanished record is a no-op.
	require.NoError(t, env.services.Notifications.MarkRead(ctx, uuid.New(), receiver.ID))
}

func TestDeleteNotificationIsReceiverOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	receiver := env.seedUser(t, "receiver")
	sender := env.seedUser(t, "sender")
	stranger := env.seedUser(t, "stranger")

	n, err := env.services.Notifications.Add(ctx, receiver.ID, sender.ID, models.NotificationFollow, nil, nil)
	require.NoError(t, err)

	require.NoError(t, env.services.Notifications.Delete(ctx, n.ID, stranger.ID))
	list, err := env.services.Notifications.List(ctx, receiver.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, env.services.Notifications.Delete(ctx, n.ID, receiver.ID))
	list, err = env.services.Notifications.List(ctx, receiver.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListenNotificationsDeliversOnChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	receiver := env.seedUser(t, "receiver")
	sender := env.seedUser(t, "sender")

	var mu sync.Mutex
	var snapshots [][]*HydratedNotification
	cancel, err := env.services.Notifications.Listen(ctx, receiver.ID, func(list []*HydratedNotification) {
		mu.Lock()
		snapshots = append(snapshots, list)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	mu.Lock()
	require.Len(t, snapshots, 1)
	assert.Empty(t, snapshots[0])
	mu.Unlock()

	_, err = env.services.Notifications.Add(ctx, receiver.ID, sender.ID, models.NotificationFollow, nil, nil)
	require.NoError(t, err)

	mu.Lock()
	last := snapshots[len(snapshots)-1]
	mu.Unlock()
	require.Len(t, last, 1)
	assert.Equal(t, sender.ID, last[0].SenderID)
}
