// internal/feed/notifications.go
package feed

import (
	"context"
	"time"

	"hellofeed/internal/cache"
	"hellofeed/internal/models"
	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
)

// DefaultNotificationLimit bounds how many records a listing or listener
// snapshot returns; older records stay in the store but are not delivered.
const DefaultNotificationLimit = 50

// HydratedNotification is a notification record joined with the sender
// profile and, for post-scoped events, the post thumbnail. Sender and Post
// are nil when the referenced document has since been deleted; the record
// itself is still delivered.
type HydratedNotification struct {
	models.Notification
	Sender *models.User `json:"sender,omitempty"`
	Post   *models.Post `json:"post,omitempty"`
}

// NotificationService owns the per-receiver notification ledger. Fan-out
// producers append through Add; readers get hydrated records, newest first.
type NotificationService struct {
	store   store.Store
	users   *cache.UserCache
	metrics *utils.MetricsCollector
}

func NewNotificationService(st store.Store, users *cache.UserCache, metrics *utils.MetricsCollector) *NotificationService {
	return &NotificationService{
		store:   st,
		users:   users,
		metrics: metrics,
	}
}

// Add appends a notification record. Events about your own content are the
// producer's job to suppress; Add only rejects records missing a receiver
// or sender.
func (s *NotificationService) Add(ctx context.Context, receiverID, senderID uuid.UUID, typ models.NotificationType, postID, commentID *uuid.UUID) (*models.Notification, error) {
	if receiverID == uuid.Nil || senderID == uuid.Nil {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "notification requires a receiver and a sender", nil)
	}
	n := &models.Notification{
		ID:         uuid.New(),
		ReceiverID: receiverID,
		SenderID:   senderID,
		Type:       typ,
		PostID:     postID,
		CommentID:  commentID,
		CreatedAt:  time.Now(),
		Read:       false,
	}
	if err := s.store.SaveNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns the receiver's newest notifications, hydrated. limit <= 0
// means DefaultNotificationLimit.
func (s *NotificationService) List(ctx context.Context, receiverID uuid.UUID, limit int) ([]*HydratedNotification, error) {
	if receiverID == uuid.Nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	startTime := time.Now()

	records, err := s.store.ListNotifications(ctx, receiverID, limit)
	if err != nil {
		return nil, err
	}
	hydrated := s.hydrate(ctx, records)

	s.metrics.AddOperationLatency("list_notifications", time.Since(startTime))
	return hydrated, nil
}

// MarkRead flags a notification as seen. Only the receiver may flag their
// own records; anyone else's attempt is a silent no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id, requesterID uuid.UUID) error {
	if requesterID == uuid.Nil {
		return nil
	}
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrNotificationNotFound) {
			return nil
		}
		return err
	}
	if n.ReceiverID != requesterID {
		return nil
	}
	return s.store.MarkNotificationRead(ctx, id)
}

// Delete removes a notification. The receiver predicate is part of the
// store mutation, so a non-receiver attempt deletes nothing.
func (s *NotificationService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	if requesterID == uuid.Nil {
		return nil
	}
	_, err := s.store.DeleteNotification(ctx, id, requesterID)
	return err
}

// Listen delivers the receiver's hydrated notification list, once
// immediately and again on every change to their ledger.
func (s *NotificationService) Listen(ctx context.Context, receiverID uuid.UUID, fn func([]*HydratedNotification)) (func(), error) {
	if receiverID == uuid.Nil {
		fn(nil)
		return func() {}, nil
	}

	snapshot := func() {
		records, err := s.store.ListNotifications(ctx, receiverID, DefaultNotificationLimit)
		if err != nil {
			return
		}
		fn(s.hydrate(ctx, records))
	}

	cancel, err := s.store.Watch(ctx, store.ScopeNotifications(receiverID), snapshot)
	if err != nil {
		return nil, err
	}
	snapshot()
	return cancel, nil
}

// hydrate joins sender profiles and post thumbnails onto the raw records.
// Sender reads go through the profile cache so a page of N records from a
// handful of senders costs a handful of store reads, not N.
func (s *NotificationService) hydrate(ctx context.Context, records []*models.Notification) []*HydratedNotification {
	out := make([]*HydratedNotification, 0, len(records))
	posts := make(map[uuid.UUID]*models.Post)
	for _, n := range records {
		h := &HydratedNotification{Notification: *n}
		h.Sender = s.lookupSender(ctx, n.SenderID)
		if n.PostID != nil {
			post, seen := posts[*n.PostID]
			if !seen {
				post, _ = s.store.GetPost(ctx, *n.PostID)
				posts[*n.PostID] = post
			}
			h.Post = post
		}
		out = append(out, h)
	}
	return out
}

func (s *NotificationService) lookupSender(ctx context.Context, senderID uuid.UUID) *models.User {
	if s.users != nil {
		if user, ok := s.users.Get(senderID); ok {
			return user
		}
	}
	user, err := s.store.GetUser(ctx, senderID)
	if err != nil {
		return nil
	}
	if s.users != nil {
		s.users.Put(user)
	}
	return user
}
