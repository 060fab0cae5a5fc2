package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"gatherly/api/internal/db"
	"gatherly/api/internal/models"
	"gatherly/api/internal/utils"
)

// IEventLedgerService is the system's sole concurrency primitive for
// at-most-once side effects. Reserve must be correct under arbitrary
// concurrent duplicate calls.
type IEventLedgerService interface {
	// Reserve attempts to claim eventKey. Returns true if this call is the
	// unique first claimant; false (and no error) if some other invocation,
	// possibly concurrent, already claimed it. Any other failure is an error.
	Reserve(ctx context.Context, eventKey string, meta map[string]interface{}) (bool, error)
	// HasFired reports whether eventKey was ever reserved.
	HasFired(ctx context.Context, eventKey string) (bool, error)
}

const eventLedgerCollection = "event_ledger"

type eventLedgerService struct {
	db *mongo.Database
}

// NewEventLedgerService creates a new EventLedgerService.
func NewEventLedgerService(database *mongo.Database) IEventLedgerService {
	return &eventLedgerService{db: database}
}

// Reserve inserts a row whose event_key carries a unique index. Insert success
// means the caller won the claim; a duplicate-key failure means someone else
// did and is deliberately not an error. The retry helper is bypassed here:
// retrying a duplicate key would defeat the reservation.
func (s *eventLedgerService) Reserve(ctx context.Context, eventKey string, meta map[string]interface{}) (bool, error) {
	entry := &models.EventLedgerEntry{
		Base:      models.Base{ID: utils.NewSixID()},
		EventKey:  eventKey,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Collection(eventLedgerCollection).InsertOne(ctx, entry)
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to reserve event %q: %w", eventKey, err)
	}
	return true, nil
}

func (s *eventLedgerService) HasFired(ctx context.Context, eventKey string) (bool, error) {
	count, err := s.db.Collection(eventLedgerCollection).CountDocuments(ctx, bson.M{"event_key": eventKey})
	if err != nil {
		return false, fmt.Errorf("failed to check event %q: %w", eventKey, err)
	}
	return count > 0, nil
}
