package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Client struct {
	DB *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes every repository relies on.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		colHotels: {
			{Keys: bsonKeys("staff_ids")},
		},
		colUnits: {
			{Keys: bsonKeys("hotel_id", "kind", "number"), Options: options.Index().SetUnique(true)},
		},
		colBookings: {
			{Keys: bsonKeys("hotel_id", "check_in")},
			{Keys: bsonKeys("created_by")},
		},
		colUsers: {
			{Keys: bsonKeys("email"), Options: options.Index().SetUnique(true)},
			{Keys: bsonKeys("role")},
		},
		colSessions: {
			{Keys: bsonKeys("user_id")},
			{Keys: bsonKeys("expires_at"), Options: options.Index().SetExpireAfterSeconds(0)},
		},
		colLocks: {
			{Keys: bsonKeys("expires_at")},
		},
	}
	for name, models := range specs {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
