// internal/database/user_repository.go
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

// UserDocument represents the MongoDB schema for a profile. The _id equals
// the external identity provider's user id.
type UserDocument struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	FullName  string    `bson:"fullname"`
	Email     string    `bson:"email"`
	Bio       string    `bson:"bio"`
	AvatarURL string    `bson:"image"`
	Followers int       `bson:"followers"`
	Following int       `bson:"following"`
	Posts     int       `bson:"posts"`
	CreatedAt time.Time `bson:"createdAt"`
}

func userToModel(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %v", err)
	}
	return &models.User{
		ID:        id,
		Username:  doc.Username,
		FullName:  doc.FullName,
		Email:     doc.Email,
		Bio:       doc.Bio,
		AvatarURL: doc.AvatarURL,
		Followers: doc.Followers,
		Following: doc.Following,
		Posts:     doc.Posts,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// SaveUser creates or updates a profile.
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	doc := UserDocument{
		ID:        user.ID.String(),
		Username:  user.Username,
		FullName:  user.FullName,
		Email:     user.Email,
		Bio:       user.Bio,
		AvatarURL: user.AvatarURL,
		Followers: user.Followers,
		Following: user.Following,
		Posts:     user.Posts,
		CreatedAt: user.CreatedAt,
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": user.ID.String()}
	update := bson.M{"$set": doc}

	_, err := m.Users.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetUser retrieves a profile by its identity id.
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var doc UserDocument

	err := m.Users.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	if err != nil {
		return nil, err
	}

	return userToModel(&doc)
}

// ListUsers retrieves every profile, newest first.
func (m *MongoDB) ListUsers(ctx context.Context) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		user, err := userToModel(&doc)
		if err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, cursor.Err()
}

// DeleteUser removes the profile document; cascades run at the service
// layer.
func (m *MongoDB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := m.Users.DeleteOne(ctx, bson.M{"_id": id.String()})
	return err
}

// AdjustUserPostCount moves the legacy denormalized post counter.
func (m *MongoDB) AdjustUserPostCount(ctx context.Context, id uuid.UUID, delta int) error {
	result, err := m.Users.UpdateOne(ctx, bson.M{"_id": id.String()},
		bson.M{"$inc": bson.M{"posts": delta}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return utils.NewUserNotFoundError(id.String())
	}
	return nil
}
