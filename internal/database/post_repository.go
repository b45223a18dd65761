// internal/database/post_repository.go
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostDocument represents the MongoDB schema for a post.
type PostDocument struct {
	ID             string    `bson:"_id"`
	AuthorID       string    `bson:"authorid"`
	AuthorUsername string    `bson:"authorusername"`
	ImageURL       string    `bson:"imageurl"`
	Caption        string    `bson:"caption"`
	LikeCount      int       `bson:"likecount"`
	CommentCount   int       `bson:"commentcount"`
	CreatedAt      time.Time `bson:"createdat"`
	UpdatedAt      time.Time `bson:"updatedat"`
}

func postToDocument(post *models.Post) *PostDocument {
	return &PostDocument{
		ID:             post.ID.String(),
		AuthorID:       post.AuthorID.String(),
		AuthorUsername: post.AuthorUsername,
		ImageURL:       post.ImageURL,
		Caption:        post.Caption,
		LikeCount:      post.LikeCount,
		CommentCount:   post.CommentCount,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}
}

func postToModel(doc *PostDocument) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}
	return &models.Post{
		ID:             id,
		AuthorID:       authorID,
		AuthorUsername: doc.AuthorUsername,
		ImageURL:       doc.ImageURL,
		Caption:        doc.Caption,
		LikeCount:      doc.LikeCount,
		CommentCount:   doc.CommentCount,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

// SavePost creates or updates a post.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	doc := postToDocument(post)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": post.ID.String()}
	update := bson.M{"$set": doc}

	_, err := m.Posts.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var doc PostDocument

	err := m.Posts.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewPostNotFoundError(id.String())
	}
	if err != nil {
		return nil, err
	}

	return postToModel(&doc)
}

// ListPosts retrieves the feed page: newest first, optionally only posts
// created strictly before the cursor timestamp.
func (m *MongoDB) ListPosts(ctx context.Context, limit int, before time.Time) ([]*models.Post, error) {
	filter := bson.M{}
	if !before.IsZero() {
		filter["createdat"] = bson.M{"$lt": before}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cursor, err := m.Posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	return decodePosts(ctx, cursor)
}

// ListUserPosts retrieves all posts authored by one user, newest first.
func (m *MongoDB) ListUserPosts(ctx context.Context, authorID uuid.UUID) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: -1}})
	cursor, err := m.Posts.Find(ctx, bson.M{"authorid": authorID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %v", err)
	}
	defer cursor.Close(ctx)

	return decodePosts(ctx, cursor)
}

func decodePosts(ctx context.Context, cursor *mongo.Cursor) ([]*models.Post, error) {
	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			slog.Warn("error decoding post document", "error", err)
			continue
		}
		post, err := postToModel(&doc)
		if err != nil {
			slog.Warn("error converting post document", "error", err)
			continue
		}
		posts = append(posts, post)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration failed: %v", err)
	}
	return posts, nil
}

// UpdatePostCaption sets a new caption. The ownership predicate is part of
// the update filter, so a non-owner request matches nothing.
func (m *MongoDB) UpdatePostCaption(ctx context.Context, postID, ownerID uuid.UUID, caption string) (bool, error) {
	filter := bson.M{"_id": postID.String(), "authorid": ownerID.String()}
	update := bson.M{"$set": bson.M{"caption": caption, "updatedat": time.Now()}}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// AdjustPostCommentCount moves the legacy denormalized comment counter.
func (m *MongoDB) AdjustPostCommentCount(ctx context.Context, postID uuid.UUID, delta int) error {
	filter := bson.M{"_id": postID.String()}
	update := bson.M{"$inc": bson.M{"commentcount": delta}}

	result, err := m.Posts.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewPostNotFoundError(postID.String())
	}
	return nil
}

// DeletePost removes the post document itself; the caller sweeps the like
// and comment subcollections first.
func (m *MongoDB) DeletePost(ctx context.Context, postID, ownerID uuid.UUID) (bool, error) {
	filter := bson.M{"_id": postID.String(), "authorid": ownerID.String()}
	result, err := m.Posts.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}
