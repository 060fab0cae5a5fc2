package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gatherly/api/internal/db"
	"gatherly/api/internal/models"
	"gatherly/api/internal/utils"
)

// ICreditService mutates supplier credit balances. A decrement that would
// cross zero is rejected by the store-side filter, never by a pre-check:
// pre-check-then-write is not race-safe.
type ICreditService interface {
	// Delta applies a credit change atomically and returns the new balance.
	// Returns ErrInsufficientCredits when a negative delta would take the
	// balance below zero, ErrNotFound for an unknown supplier.
	Delta(ctx context.Context, supplierID utils.SixID, delta int, reason string, relatedQuoteID *utils.SixID) (int, error)
	ListTransactions(ctx context.Context, supplierID utils.SixID, limit int) ([]models.CreditTransaction, error)
}

const (
	suppliersCollection          = "suppliers"
	creditTransactionsCollection = "credit_transactions"
)

type creditService struct {
	db *mongo.Database
}

// NewCreditService creates a new CreditService.
func NewCreditService(database *mongo.Database) ICreditService {
	return &creditService{db: database}
}

// Delta is a single conditional FindOneAndUpdate: the filter requires the
// current balance to cover a decrement, so two concurrent spends of the last
// credit cannot both match. Zero matched documents on a decrement means the
// balance was too low (or the supplier is gone); the two cases are told apart
// by a follow-up read, which is only diagnostic, not part of the guard.
func (s *creditService) Delta(ctx context.Context, supplierID utils.SixID, delta int, reason string, relatedQuoteID *utils.SixID) (int, error) {
	filter := bson.M{"_id": supplierID, "deleted": false}
	if delta < 0 {
		filter["credits_balance"] = bson.M{"$gte": -delta}
	}

	now := time.Now().UTC()
	update := bson.M{
		"$inc": bson.M{"credits_balance": delta},
		"$set": bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Supplier
	err := s.db.Collection(suppliersCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if delta >= 0 {
				return 0, ErrNotFound
			}
			exists, countErr := s.supplierExists(ctx, supplierID)
			if countErr != nil {
				return 0, countErr
			}
			if exists {
				return 0, ErrInsufficientCredits
			}
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("credit delta for supplier %s failed: %w", supplierID.String(), err)
	}

	tx := &models.CreditTransaction{
		SupplierID:     supplierID,
		Delta:          delta,
		Reason:         reason,
		RelatedQuoteID: relatedQuoteID,
		BalanceAfter:   updated.CreditsBalance,
		CreatedAt:      now,
	}
	if _, insErr := db.InsertOne(ctx, s.db.Collection(creditTransactionsCollection), tx); insErr != nil {
		// The balance change has been applied; a missing audit row is logged,
		// not surfaced, so a flaky insert cannot double-charge via retries.
		log.Printf("WARNING: credit transaction row for supplier %s (delta %d, reason %s) not recorded: %v",
			supplierID.String(), delta, reason, insErr)
	}

	return updated.CreditsBalance, nil
}

func (s *creditService) ListTransactions(ctx context.Context, supplierID utils.SixID, limit int) ([]models.CreditTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.db.Collection(creditTransactionsCollection).Find(ctx, bson.M{"supplier_id": supplierID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit transactions for %s: %w", supplierID.String(), err)
	}
	defer cursor.Close(ctx)

	var txs []models.CreditTransaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode credit transactions: %w", err)
	}
	return txs, nil
}

func (s *creditService) supplierExists(ctx context.Context, supplierID utils.SixID) (bool, error) {
	count, err := s.db.Collection(suppliersCollection).CountDocuments(ctx, bson.M{"_id": supplierID, "deleted": false})
	if err != nil {
		return false, fmt.Errorf("failed to check supplier %s: %w", supplierID.String(), err)
	}
	return count > 0, nil
}
