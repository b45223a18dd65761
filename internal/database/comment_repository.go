// internal/database/comment_repository.go
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentDocument represents comment data in MongoDB. The composite _id
// carries the parent post so a change event can be attributed to its post
// without a full-document lookup.
type CommentDocument struct {
	ID             string    `bson:"_id"` // "<postID>:<commentID>"
	CommentID      string    `bson:"commentId"`
	PostID         string    `bson:"postId"`
	AuthorID       string    `bson:"authorId"`
	AuthorUsername string    `bson:"authorUsername"`
	Text           string    `bson:"text"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func commentKey(postID, commentID uuid.UUID) string {
	return postID.String() + ":" + commentID.String()
}

func splitCommentKey(key string) (postID string, ok bool) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return "", false
	}
	return parts[0], true
}

func commentToModel(doc *CommentDocument) (*models.Comment, error) {
	id, err := uuid.Parse(doc.CommentID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID: %v", err)
	}
	postID, err := uuid.Parse(doc.PostID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %v", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %v", err)
	}
	return &models.Comment{
		ID:             id,
		PostID:         postID,
		AuthorID:       authorID,
		AuthorUsername: doc.AuthorUsername,
		Text:           doc.Text,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

// SaveComment creates or updates a comment.
func (m *MongoDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	doc := CommentDocument{
		ID:             commentKey(comment.PostID, comment.ID),
		CommentID:      comment.ID.String(),
		PostID:         comment.PostID.String(),
		AuthorID:       comment.AuthorID.String(),
		AuthorUsername: comment.AuthorUsername,
		Text:           comment.Text,
		CreatedAt:      comment.CreatedAt,
		UpdatedAt:      comment.UpdatedAt,
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": doc.ID}
	update := bson.M{"$set": doc}

	if _, err := m.Comments.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save comment: %v", err)
	}
	return nil
}

// GetComment retrieves one comment of a post.
func (m *MongoDB) GetComment(ctx context.Context, postID, commentID uuid.UUID) (*models.Comment, error) {
	var doc CommentDocument
	err := m.Comments.FindOne(ctx, bson.M{"_id": commentKey(postID, commentID)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrCommentNotFound, "Comment not found: "+commentID.String(), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %v", err)
	}
	return commentToModel(&doc)
}

// ListComments retrieves a post's comments oldest first, the order the
// comment screen renders.
func (m *MongoDB) ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.Comments.Find(ctx, bson.M{"postId": postID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get post comments: %v", err)
	}
	defer cursor.Close(ctx)

	var comments []*models.Comment
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		comment, err := commentToModel(&doc)
		if err != nil {
			continue
		}
		comments = append(comments, comment)
	}
	return comments, cursor.Err()
}

// UpdateComment edits the text. The author predicate is in the filter, so a
// non-author request is an atomic no-op rather than a read-then-act race.
func (m *MongoDB) UpdateComment(ctx context.Context, postID, commentID, requesterID uuid.UUID, text string) (bool, error) {
	filter := bson.M{"_id": commentKey(postID, commentID), "authorId": requesterID.String()}
	update := bson.M{"$set": bson.M{"text": text, "updatedAt": time.Now()}}

	result, err := m.Comments.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// DeleteComment removes the comment, author-enforced the same way.
func (m *MongoDB) DeleteComment(ctx context.Context, postID, commentID, requesterID uuid.UUID) (bool, error) {
	filter := bson.M{"_id": commentKey(postID, commentID), "authorId": requesterID.String()}
	result, err := m.Comments.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

// DeletePostComments sweeps the comment subcollection during post deletion.
func (m *MongoDB) DeletePostComments(ctx context.Context, postID uuid.UUID) error {
	if _, err := m.Comments.DeleteMany(ctx, bson.M{"postId": postID.String()}); err != nil {
		return err
	}
	_, err := m.Posts.UpdateOne(ctx, bson.M{"_id": postID.String()},
		bson.M{"$set": bson.M{"commentcount": 0}})
	if err != nil && err != mongo.ErrNoDocuments {
		return err
	}
	return nil
}
