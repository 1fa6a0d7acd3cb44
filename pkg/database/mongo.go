package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectToMongoDB establishes a connection to MongoDB and verifies it with a ping.
func ConnectToMongoDB(ctx context.Context, uri string, connectTimeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo URI cannot be empty")
	}
	slog.DebugContext(ctx, "Attempting to connect to MongoDB")

	clientOptions := options.Client().ApplyURI(uri)
	if connectTimeout > 0 {
		clientOptions.SetConnectTimeout(connectTimeout).SetServerSelectionTimeout(connectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.InfoContext(ctx, "Successfully established connection to MongoDB")
	return client, nil
}

// DisconnectMongo closes the client's connections.
func DisconnectMongo(ctx context.Context, client *mongo.Client) {
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to disconnect from MongoDB", slog.String("error", err.Error()))
		return
	}
	slog.InfoContext(ctx, "MongoDB connection closed.")
}
