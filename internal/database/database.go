// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	Client        *mongo.Client
	Users         *mongo.Collection
	Posts         *mongo.Collection
	Likes         *mongo.Collection
	Comments      *mongo.Collection
	Bookmarks     *mongo.Collection
	Follows       *mongo.Collection
	Notifications *mongo.Collection

	watch *changeStreamHub
}

func NewMongoDB(uri, dbName string) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	slog.Info("connected to MongoDB", "database", dbName)

	db := client.Database(dbName)
	m := &MongoDB{
		Client:        client,
		Users:         db.Collection("users"),
		Posts:         db.Collection("posts"),
		Likes:         db.Collection("likes"),
		Comments:      db.Collection("comments"),
		Bookmarks:     db.Collection("bookmarks"),
		Follows:       db.Collection("follows"),
		Notifications: db.Collection("notifications"),
	}
	m.watch = newChangeStreamHub(m)
	return m, nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	m.watch.stop()
	return m.Client.Disconnect(ctx)
}
