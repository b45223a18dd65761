// internal/database/bookmark_repository.go
package database

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookmarkDocument lives under the saving user's namespace: the composite
// _id starts with the user, not the post.
type BookmarkDocument struct {
	ID      string    `bson:"_id"` // "<userID>:<postID>"
	UserID  string    `bson:"userId"`
	PostID  string    `bson:"postId"`
	SavedAt time.Time `bson:"savedAt"`
}

func bookmarkKey(userID, postID uuid.UUID) string {
	return userID.String() + ":" + postID.String()
}

func splitBookmarkKey(key string) (userID string, ok bool) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return "", false
	}
	return parts[0], true
}

// SaveBookmark is an idempotent set keyed by (user, post).
func (m *MongoDB) SaveBookmark(ctx context.Context, userID, postID uuid.UUID) error {
	doc := BookmarkDocument{
		ID:      bookmarkKey(userID, postID),
		UserID:  userID.String(),
		PostID:  postID.String(),
		SavedAt: time.Now(),
	}

	opts := options.Update().SetUpsert(true)
	_, err := m.Bookmarks.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

// DeleteBookmark is an idempotent delete.
func (m *MongoDB) DeleteBookmark(ctx context.Context, userID, postID uuid.UUID) error {
	_, err := m.Bookmarks.DeleteOne(ctx, bson.M{"_id": bookmarkKey(userID, postID)})
	return err
}

// HasBookmark is a point read.
func (m *MongoDB) HasBookmark(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	err := m.Bookmarks.FindOne(ctx, bson.M{"_id": bookmarkKey(userID, postID)}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListBookmarks returns the user's full saved-post-id set.
func (m *MongoDB) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	cursor, err := m.Bookmarks.Find(ctx, bson.M{"userId": userID.String()})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []uuid.UUID
	for cursor.Next(ctx) {
		var doc BookmarkDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		postID, err := uuid.Parse(doc.PostID)
		if err != nil {
			continue
		}
		ids = append(ids, postID)
	}
	return ids, cursor.Err()
}
