package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the application's correctness depends on.
// The unique index on event_ledger.event_key is the reservation primitive for
// at-most-once side effects; the unique (enquiry_id, supplier_id) pair on
// supplier_invites stops double invites. Index creation is idempotent.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		"event_ledger": {
			{
				Keys:    bson.D{{Key: "event_key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"supplier_invites": {
			{
				Keys:    bson.D{{Key: "enquiry_id", Value: 1}, {Key: "supplier_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "supplier_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"suppliers": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"enquiries": {
			{
				Keys:    bson.D{{Key: "public_token", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		"quotes": {
			{
				Keys:    bson.D{{Key: "enquiry_id", Value: 1}, {Key: "supplier_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "action_token", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"quote_messages": {
			{Keys: bson.D{{Key: "quote_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		"credit_transactions": {
			{Keys: bson.D{{Key: "supplier_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"notifications": {
			{Keys: bson.D{{Key: "recipient_type", Value: 1}, {Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for collection, models := range specs {
		if _, err := database.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
