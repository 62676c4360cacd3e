package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const instancesCollection = "instances"

// Client wraps the Mongo collection holding denormalized submission
// projections, keyed by the _userform_id field (username_formuid).
type Client struct {
	client    *mongo.Client
	instances *mongo.Collection
}

func New(ctx context.Context, uri string, database string) (*Client, error) {
	mongoOptions := options.Client().ApplyURI(uri).SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, mongoOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	slog.Info("document store connected", "database", database)
	return &Client{
		client:    client,
		instances: client.Database(database).Collection(instancesCollection),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// DeleteByUserFormID removes all submission projections for one form.
func (c *Client) DeleteByUserFormID(ctx context.Context, userFormID string) (int64, error) {
	res, err := c.instances.DeleteMany(ctx, bson.M{"_userform_id": userFormID})
	if err != nil {
		return 0, fmt.Errorf("delete documents for %q: %w", userFormID, err)
	}
	return res.DeletedCount, nil
}

// DeleteByFormUID removes projections whose _userform_id ends with the form
// uid, regardless of owner username. This is the reconciliation path for
// forms whose relational record is already gone: pattern matching is
// re-runnable and tolerates documents the relational side never knew about.
func (c *Client) DeleteByFormUID(ctx context.Context, formUID string) (int64, error) {
	pattern := primitive.Regex{Pattern: "_" + escapeRegex(formUID) + "$", Options: ""}
	res, err := c.instances.DeleteMany(ctx, bson.M{"_userform_id": bson.M{"$regex": pattern}})
	if err != nil {
		return 0, fmt.Errorf("delete documents matching form %q: %w", formUID, err)
	}
	return res.DeletedCount, nil
}

func (c *Client) CountByUserFormID(ctx context.Context, userFormID string) (int64, error) {
	count, err := c.instances.CountDocuments(ctx, bson.M{"_userform_id": userFormID})
	if err != nil {
		return 0, fmt.Errorf("count documents for %q: %w", userFormID, err)
	}
	return count, nil
}

// escapeRegex neutralizes regex metacharacters in identifiers before they
// are embedded in a pattern match.
func escapeRegex(raw string) string {
	const special = `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		for j := 0; j < len(special); j++ {
			if raw[i] == special[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, raw[i])
	}
	return string(out)
}
