// internal/database/follow_repository.go
package database

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FollowDocument stores the follow relation as a single logical edge rather
// than two mirrored records that must be kept in sync: the "followers" and
// "following" sides are both queries over this one collection, so one write
// creates or destroys the whole edge and no half-applied state exists.
type FollowDocument struct {
	ID         string    `bson:"_id"` // "<followerID>:<targetID>"
	FollowerID string    `bson:"followerId"`
	TargetID   string    `bson:"targetId"`
	CreatedAt  time.Time `bson:"createdAt"`
}

func followKey(followerID, targetID uuid.UUID) string {
	return followerID.String() + ":" + targetID.String()
}

func splitFollowKey(key string) (followerID, targetID string, ok bool) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// SetFollow creates (follow=true) or destroys (follow=false) the edge.
// Returns whether the edge actually changed.
func (m *MongoDB) SetFollow(ctx context.Context, followerID, targetID uuid.UUID, follow bool) (bool, error) {
	key := followKey(followerID, targetID)

	if follow {
		doc := FollowDocument{
			ID:         key,
			FollowerID: followerID.String(),
			TargetID:   targetID.String(),
			CreatedAt:  time.Now(),
		}
		_, err := m.Follows.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}

	result, err := m.Follows.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

// HasFollowing is a point read of the edge.
func (m *MongoDB) HasFollowing(ctx context.Context, followerID, targetID uuid.UUID) (bool, error) {
	err := m.Follows.FindOne(ctx, bson.M{"_id": followKey(followerID, targetID)}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListFollowers returns the IDs of users following userID.
func (m *MongoDB) ListFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return m.listEdgeSide(ctx, bson.M{"targetId": userID.String()}, func(doc *FollowDocument) string {
		return doc.FollowerID
	})
}

// ListFollowing returns the IDs of users userID follows.
func (m *MongoDB) ListFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return m.listEdgeSide(ctx, bson.M{"followerId": userID.String()}, func(doc *FollowDocument) string {
		return doc.TargetID
	})
}

func (m *MongoDB) listEdgeSide(ctx context.Context, filter bson.M, pick func(*FollowDocument) string) ([]uuid.UUID, error) {
	cursor, err := m.Follows.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []uuid.UUID
	for cursor.Next(ctx) {
		var doc FollowDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		id, err := uuid.Parse(pick(&doc))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, cursor.Err()
}
