// internal/database/like_repository.go
package database

import (
	"context"
	"strings"
	"time"

	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LikeDocument is one existence record per (post, user) pair. The composite
// _id makes the at-most-one-vote invariant a primary-key property.
type LikeDocument struct {
	ID        string    `bson:"_id"` // "<postID>:<userID>"
	PostID    string    `bson:"postId"`
	UserID    string    `bson:"userId"`
	CreatedAt time.Time `bson:"createdAt"`
}

func likeKey(postID, userID uuid.UUID) string {
	return postID.String() + ":" + userID.String()
}

func splitLikeKey(key string) (postID string, ok bool) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return "", false
	}
	return parts[0], true
}

type toggleResult struct {
	liked    bool
	newCount int
}

// ToggleLike flips the caller's like record and the denormalized counter in
// one multi-document transaction. Concurrent togglers on the same post
// serialize on the transaction; a vanished post aborts with no writes.
func (m *MongoDB) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	session, err := m.Client.StartSession()
	if err != nil {
		return false, 0, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var post PostDocument
		if err := m.Posts.FindOne(sc, bson.M{"_id": postID.String()}).Decode(&post); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, utils.NewPostNotFoundError(postID.String())
			}
			return nil, err
		}

		key := likeKey(postID, userID)
		var like LikeDocument
		err := m.Likes.FindOne(sc, bson.M{"_id": key}).Decode(&like)

		switch {
		case err == mongo.ErrNoDocuments:
			doc := LikeDocument{
				ID:        key,
				PostID:    postID.String(),
				UserID:    userID.String(),
				CreatedAt: time.Now(),
			}
			if _, err := m.Likes.InsertOne(sc, doc); err != nil {
				return nil, err
			}
			if _, err := m.Posts.UpdateOne(sc, bson.M{"_id": postID.String()},
				bson.M{"$inc": bson.M{"likecount": 1}}); err != nil {
				return nil, err
			}
			return toggleResult{liked: true, newCount: post.LikeCount + 1}, nil

		case err != nil:
			return nil, err

		default:
			if _, err := m.Likes.DeleteOne(sc, bson.M{"_id": key}); err != nil {
				return nil, err
			}
			if _, err := m.Posts.UpdateOne(sc, bson.M{"_id": postID.String()},
				bson.M{"$inc": bson.M{"likecount": -1}}); err != nil {
				return nil, err
			}
			return toggleResult{liked: false, newCount: post.LikeCount - 1}, nil
		}
	})
	if err != nil {
		return false, 0, err
	}

	toggled := result.(toggleResult)
	return toggled.liked, toggled.newCount, nil
}

// HasLiked is a point read of the caller's like record.
func (m *MongoDB) HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	err := m.Likes.FindOne(ctx, bson.M{"_id": likeKey(postID, userID)}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListPostLikes returns the IDs of every user who currently likes the post.
func (m *MongoDB) ListPostLikes(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	cursor, err := m.Likes.Find(ctx, bson.M{"postId": postID.String()})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []uuid.UUID
	for cursor.Next(ctx) {
		var doc LikeDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		userID, err := uuid.Parse(doc.UserID)
		if err != nil {
			continue
		}
		ids = append(ids, userID)
	}
	return ids, cursor.Err()
}

// DeletePostLikes sweeps the like subcollection during post deletion and
// zeroes the counter so a stale post read cannot show phantom likes.
func (m *MongoDB) DeletePostLikes(ctx context.Context, postID uuid.UUID) error {
	if _, err := m.Likes.DeleteMany(ctx, bson.M{"postId": postID.String()}); err != nil {
		return err
	}
	_, err := m.Posts.UpdateOne(ctx, bson.M{"_id": postID.String()},
		bson.M{"$set": bson.M{"likecount": 0}})
	if err != nil && err != mongo.ErrNoDocuments {
		return err
	}
	return nil
}
