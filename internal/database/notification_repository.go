// internal/database/notification_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationDocument represents one fan-out record keyed by receiver.
type NotificationDocument struct {
	ID         string    `bson:"_id"`
	ReceiverID string    `bson:"receiverId"`
	SenderID   string    `bson:"senderId"`
	Type       string    `bson:"type"`
	PostID     *string   `bson:"postId,omitempty"`
	CommentID  *string   `bson:"commentId,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
	Read       bool      `bson:"read"`
}

func notificationToModel(doc *NotificationDocument) (*models.Notification, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid notification ID: %v", err)
	}
	receiverID, err := uuid.Parse(doc.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("invalid receiver ID: %v", err)
	}
	senderID, err := uuid.Parse(doc.SenderID)
	if err != nil {
		return nil, fmt.Errorf("invalid sender ID: %v", err)
	}
	n := &models.Notification{
		ID:         id,
		ReceiverID: receiverID,
		SenderID:   senderID,
		Type:       models.NotificationType(doc.Type),
		CreatedAt:  doc.CreatedAt,
		Read:       doc.Read,
	}
	if doc.PostID != nil {
		postID, err := uuid.Parse(*doc.PostID)
		if err == nil {
			n.PostID = &postID
		}
	}
	if doc.CommentID != nil {
		commentID, err := uuid.Parse(*doc.CommentID)
		if err == nil {
			n.CommentID = &commentID
		}
	}
	return n, nil
}

// SaveNotification appends a fan-out record.
func (m *MongoDB) SaveNotification(ctx context.Context, n *models.Notification) error {
	doc := NotificationDocument{
		ID:         n.ID.String(),
		ReceiverID: n.ReceiverID.String(),
		SenderID:   n.SenderID.String(),
		Type:       string(n.Type),
		CreatedAt:  n.CreatedAt,
		Read:       n.Read,
	}
	if n.PostID != nil {
		s := n.PostID.String()
		doc.PostID = &s
	}
	if n.CommentID != nil {
		s := n.CommentID.String()
		doc.CommentID = &s
	}

	_, err := m.Notifications.InsertOne(ctx, doc)
	return err
}

// GetNotification retrieves one record by id.
func (m *MongoDB) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var doc NotificationDocument
	err := m.Notifications.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrNotificationNotFound, "Notification not found: "+id.String(), err)
	}
	if err != nil {
		return nil, err
	}
	return notificationToModel(&doc)
}

// ListNotifications returns the receiver's most recent records.
func (m *MongoDB) ListNotifications(ctx context.Context, receiverID uuid.UUID, limit int) ([]*models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := m.Notifications.Find(ctx, bson.M{"receiverId": receiverID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var list []*models.Notification
	for cursor.Next(ctx) {
		var doc NotificationDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		n, err := notificationToModel(&doc)
		if err != nil {
			continue
		}
		list = append(list, n)
	}
	return list, cursor.Err()
}

// MarkNotificationRead flips the read flag.
func (m *MongoDB) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	result, err := m.Notifications.UpdateOne(ctx, bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrNotificationNotFound, "Notification not found: "+id.String(), nil)
	}
	return nil
}

// DeleteNotification removes the record, receiver-enforced in the filter:
// a sender cannot delete what it fanned out.
func (m *MongoDB) DeleteNotification(ctx context.Context, id, requesterID uuid.UUID) (bool, error) {
	filter := bson.M{"_id": id.String(), "receiverId": requesterID.String()}
	result, err := m.Notifications.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}
