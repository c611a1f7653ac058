// internal/infrastructure/database/mongo/connection.go
package mongo

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client wraps the document store holding cart documents
type Client struct {
	client   *mongo.Client
	database string
}

// NewConnection connects to MongoDB and verifies the primary is reachable
func NewConnection(cfg *config.Config, log *logrus.Logger) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetConnectTimeout(cfg.Mongo.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.WithField("database", cfg.Mongo.Database).Info("MongoDB connection established")

	return &Client{client: client, database: cfg.Mongo.Database}, nil
}

// Database returns the configured database handle
func (c *Client) Database() *mongo.Database {
	return c.client.Database(c.database)
}

// Health pings the primary
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
