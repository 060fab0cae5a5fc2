package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectDB initializes and returns a MongoDB client and database instance.
func ConnectDB(uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the primary node
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Println("Successfully connected to MongoDB.")
	return client, client.Database(dbName), nil
}

// DisconnectDB closes the MongoDB client connection.
func DisconnectDB(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	log.Println("MongoDB connection closed.")
	return nil
}

// Identifiable is implemented by models whose _id is generated application-side.
type Identifiable interface {
	GenIDIfEmpty()
	GenID()
}

// InsertOne inserts a document, generating its ID if empty. A duplicate-key
// collision on _id (astronomically rare but possible with 6-byte IDs) gets a
// fresh ID and a retry. Duplicate-key errors on other unique indexes surface to
// the caller after the retries are exhausted, so callers that rely on unique
// indexes for business semantics must not route their inserts through here.
func InsertOne(ctx context.Context, coll *mongo.Collection, doc Identifiable) (Identifiable, error) {
	doc.GenIDIfEmpty()

	err := Try(func() error {
		_, err := coll.InsertOne(ctx, doc)
		if err != nil && IsMongoDuplicateKeyError(err) {
			doc.GenID()
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert into %s failed: %w", coll.Name(), err)
	}
	return doc, nil
}
