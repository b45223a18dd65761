// Package engine runs the notification fan-out on an actor. Producers fire
// Notify and move on; the actor serializes persistence and the realtime
// push, so a burst of engagement on one post never blocks the hot path.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"hellofeed/internal/feed"
	"hellofeed/internal/models"
	"hellofeed/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// NotifyMsg asks the notification actor to record and push one event.
type NotifyMsg struct {
	ReceiverID uuid.UUID
	SenderID   uuid.UUID
	Type       models.NotificationType
	PostID     *uuid.UUID
	CommentID  *uuid.UUID
}

// GetCountsMsg asks the actor how many events it has processed.
type GetCountsMsg struct{}

// Pusher delivers a realtime payload to every live connection of one user.
// The websocket hub satisfies it; tests substitute a recorder.
type Pusher interface {
	SendDirectMessage(targetUserID uuid.UUID, payload []byte)
}

// pushEnvelope is the wire shape of a realtime push. Clients treat it as a
// signal and re-query their notification listener for the hydrated list.
type pushEnvelope struct {
	Type string               `json:"type"`
	Data *models.Notification `json:"data"`
}

// NotificationActor persists fan-out events and pushes them to connected
// receivers. One actor serializes all writes to the notification ledger.
type NotificationActor struct {
	notifications *feed.NotificationService
	pusher        Pusher
	metrics       *utils.MetricsCollector
	processed     int
}

func NewNotificationActor(notifications *feed.NotificationService, pusher Pusher, metrics *utils.MetricsCollector) actor.Actor {
	return &NotificationActor{
		notifications: notifications,
		pusher:        pusher,
		metrics:       metrics,
	}
}

func (a *NotificationActor) Receive(actx actor.Context) {
	switch msg := actx.Message().(type) {
	case *NotifyMsg:
		startTime := time.Now()

		n, err := a.notifications.Add(context.Background(), msg.ReceiverID, msg.SenderID, msg.Type, msg.PostID, msg.CommentID)
		if err != nil {
			// Fire-and-forget contract: the triggering operation already
			// committed, so a failed fan-out only gets logged.
			slog.Error("notification fan-out failed",
				"receiver", msg.ReceiverID,
				"type", msg.Type,
				"error", err)
			return
		}
		a.processed++

		if a.pusher != nil {
			payload, err := json.Marshal(&pushEnvelope{Type: "notification", Data: n})
			if err == nil {
				a.pusher.SendDirectMessage(msg.ReceiverID, payload)
			}
		}

		a.metrics.AddOperationLatency("notify", time.Since(startTime))

	case *GetCountsMsg:
		actx.Respond(a.processed)
	}
}

// Engine owns the actor system's notification pipeline.
type Engine struct {
	root            *actor.RootContext
	notificationPID *actor.PID
}

func NewEngine(system *actor.ActorSystem, notifications *feed.NotificationService, pusher Pusher, metrics *utils.MetricsCollector) *Engine {
	root := system.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewNotificationActor(notifications, pusher, metrics)
	})
	pid := root.Spawn(props)

	return &Engine{
		root:            root,
		notificationPID: pid,
	}
}

// GetNotificationActor returns the PID of the notification actor.
func (e *Engine) GetNotificationActor() *actor.PID {
	return e.notificationPID
}

// ProcessedCount asks the notification actor how many events it has
// fanned out, used by the health endpoint.
func (e *Engine) ProcessedCount(timeout time.Duration) (int, error) {
	future := e.root.RequestFuture(e.notificationPID, &GetCountsMsg{}, timeout)
	result, err := future.Result()
	if err != nil {
		return 0, err
	}
	count, ok := result.(int)
	if !ok {
		return 0, nil
	}
	return count, nil
}

// Notifier returns the fire-and-forget producer handle the feed services
// take as a dependency.
func (e *Engine) Notifier() feed.Notifier {
	return &actorNotifier{root: e.root, pid: e.notificationPID}
}

type actorNotifier struct {
	root *actor.RootContext
	pid  *actor.PID
}

func (n *actorNotifier) Notify(receiverID, senderID uuid.UUID, typ models.NotificationType, postID, commentID *uuid.UUID) {
	n.root.Send(n.pid, &NotifyMsg{
		ReceiverID: receiverID,
		SenderID:   senderID,
		Type:       typ,
		PostID:     postID,
		CommentID:  commentID,
	})
}
