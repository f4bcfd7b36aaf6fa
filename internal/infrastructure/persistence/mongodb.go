package persistence

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions holds the connection settings for the conversation store
type MongoOptions struct {
	URI      string
	Username string
	Password string
	AppName  string
}

// NewMongoClient creates a new MongoDB client and pings the primary
func NewMongoClient(ctx context.Context, opts MongoOptions) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(5 * time.Second)
	if opts.AppName != "" {
		clientOptions.SetAppName(opts.AppName)
	}

	if opts.Username != "" && opts.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}

	// Set connection timeout
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}
