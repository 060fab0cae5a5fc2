package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gatherly/api/internal/config"
	"gatherly/api/internal/db"
	"gatherly/api/internal/models"
	"gatherly/api/internal/utils"
)

const (
	enquiriesCollection       = "enquiries"
	supplierInvitesCollection = "supplier_invites"
)

// ValidationError carries the scorer's verdict when a submission is rejected.
// Handlers unpack it into the response body.
type ValidationError struct {
	Result ScoreResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("enquiry validation failed: %d error(s)", len(e.Result.Errors))
}

// CreateEnquiryInput is everything needed to create an enquiry. A non-nil
// DirectedSupplierID makes this a direct request to that one supplier instead
// of a broadcast.
type CreateEnquiryInput struct {
	Submission         EnquirySubmission
	CategorySlug       string
	LocationNeedle     string
	DirectedSupplierID *utils.SixID
}

// EnquiryResult is what a successful creation returns to the customer.
type EnquiryResult struct {
	Enquiry      *models.Enquiry
	Score        ScoreResult
	InvitedCount int
}

type IEnquiryService interface {
	// CreateEnquiry scores the submission, persists the enquiry, matches and
	// invites suppliers, and dispatches invite notifications. A failed scoring
	// pass returns *ValidationError and creates no state. A directed request
	// to an ineligible supplier returns ErrNotEligible and creates no state.
	CreateEnquiry(ctx context.Context, input CreateEnquiryInput) (*EnquiryResult, error)
	FindByID(ctx context.Context, enquiryID utils.SixID) (*models.Enquiry, error)
	// FindByPublicToken resolves the token customers act through.
	FindByPublicToken(ctx context.Context, token string) (*models.Enquiry, error)
	ListInvitesForSupplier(ctx context.Context, supplierID utils.SixID, limit int) ([]models.SupplierInvite, error)
	FindInvite(ctx context.Context, enquiryID, supplierID utils.SixID) (*models.SupplierInvite, error)
	// MarkInviteViewed records the first time a supplier opens an invite.
	// Later views are no-ops.
	MarkInviteViewed(ctx context.Context, enquiryID, supplierID utils.SixID) error
	// CloseStale closes enquiries that never reached acceptance within the
	// given age. Returns how many were closed.
	CloseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type enquiryService struct {
	db                  *mongo.Database
	config              *config.Config
	supplierService     ISupplierService
	notificationService INotificationService
}

// NewEnquiryService creates a new EnquiryService.
func NewEnquiryService(database *mongo.Database, cfg *config.Config, supplierService ISupplierService, notificationService INotificationService) IEnquiryService {
	return &enquiryService{
		db:                  database,
		config:              cfg,
		supplierService:     supplierService,
		notificationService: notificationService,
	}
}

func (s *enquiryService) CreateEnquiry(ctx context.Context, input CreateEnquiryInput) (*EnquiryResult, error) {
	sub := input.Submission
	result := ScoreEnquiry(sub, time.Now().UTC())
	if !result.OK {
		return nil, &ValidationError{Result: result}
	}

	// For a directed request the target's eligibility is checked before
	// anything is persisted, so a rejection leaves no trace.
	var directed []models.Supplier
	if input.DirectedSupplierID != nil {
		candidate, err := s.supplierService.CandidateByID(ctx, *input.DirectedSupplierID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrNotEligible
			}
			return nil, err
		}
		directed = MatchSuppliers([]MatchCandidate{*candidate}, input.CategorySlug, "", 1)
		if len(directed) != 1 {
			return nil, ErrNotEligible
		}
	}

	now := time.Now().UTC()
	enquiry := &models.Enquiry{
		FullName:          sub.FullName,
		Email:             sub.Email,
		Phone:             sub.Phone,
		ContactPreference: sub.ContactPreference,
		EventType:         sub.EventType,
		EventDate:         sub.EventDate,
		GuestCount:        sub.GuestCount,
		VenueKnown:        sub.VenueKnown,
		VenueName:         sub.VenueName,
		VenuePostcode:     sub.VenuePostcode,
		Setting:           sub.Setting,
		BudgetRange:       sub.BudgetRange,
		ServingStyle:      sub.ServingStyle,
		DietaryNotes:      sub.DietaryNotes,
		CategorySlug:      NormalizeSlug(input.CategorySlug),
		Urgency:           result.Urgency,
		Message:           sub.Message,
		QualityScore:      result.Score,
		QualityFlags:      result.Flags,
		Status:            models.EnquiryStatusNew,
		PublicToken:       uuid.NewString(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := db.InsertOne(ctx, s.db.Collection(enquiriesCollection), enquiry); err != nil {
		return nil, fmt.Errorf("failed to create enquiry: %w", err)
	}

	var invited []models.Supplier
	if input.DirectedSupplierID != nil {
		invited = directed
	} else {
		candidates, err := s.supplierService.ListCandidates(ctx)
		if err != nil {
			// The enquiry is saved; matching can be retried out of band.
			log.Printf("WARNING: supplier matching failed for enquiry %s: %v", enquiry.ID.String(), err)
			candidates = nil
		}
		invited = MatchSuppliers(candidates, input.CategorySlug, input.LocationNeedle, s.config.BroadcastInviteLimit)
	}

	invitedCount := 0
	for _, supplier := range invited {
		if err := s.invite(ctx, enquiry, supplier); err != nil {
			log.Printf("WARNING: failed to invite supplier %s to enquiry %s: %v", supplier.ID.String(), enquiry.ID.String(), err)
			continue
		}
		invitedCount++
	}

	return &EnquiryResult{Enquiry: enquiry, Score: result, InvitedCount: invitedCount}, nil
}

// invite creates the invite row and dispatches the supplier's notification.
// The unique (enquiry_id, supplier_id) index makes re-invites a no-op, so the
// insert goes straight to the collection rather than through db.InsertOne.
func (s *enquiryService) invite(ctx context.Context, enquiry *models.Enquiry, supplier models.Supplier) error {
	inv := &models.SupplierInvite{
		EnquiryID:  enquiry.ID,
		SupplierID: supplier.ID,
		Status:     models.InviteStatusInvited,
		CreatedAt:  time.Now().UTC(),
	}
	inv.GenID()
	if _, err := s.db.Collection(supplierInvitesCollection).InsertOne(ctx, inv); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to create invite: %w", err)
	}

	return s.notificationService.Dispatch(ctx, NotificationRequest{
		EventKey:      fmt.Sprintf("enquiry_invite:%s:%s", enquiry.ID.String(), supplier.ID.String()),
		RecipientType: models.RecipientSupplier,
		RecipientID:   supplier.ID,
		Email:         supplier.Email,
		TemplateID:    "enquiry_invite",
		Data: map[string]interface{}{
			"supplier_name": supplier.BusinessName,
			"customer_name": enquiry.FullName,
			"event_type":    enquiry.EventType,
			"urgency":       enquiry.Urgency,
			"enquiry_id":    enquiry.ID.String(),
		},
	})
}

func (s *enquiryService) FindByID(ctx context.Context, enquiryID utils.SixID) (*models.Enquiry, error) {
	var enquiry models.Enquiry
	err := s.db.Collection(enquiriesCollection).FindOne(ctx, bson.M{"_id": enquiryID}).Decode(&enquiry)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find enquiry %s: %w", enquiryID.String(), err)
	}
	return &enquiry, nil
}

func (s *enquiryService) FindByPublicToken(ctx context.Context, token string) (*models.Enquiry, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var enquiry models.Enquiry
	err := s.db.Collection(enquiriesCollection).FindOne(ctx, bson.M{"public_token": token}).Decode(&enquiry)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find enquiry by token: %w", err)
	}
	return &enquiry, nil
}

func (s *enquiryService) ListInvitesForSupplier(ctx context.Context, supplierID utils.SixID, limit int) ([]models.SupplierInvite, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.db.Collection(supplierInvitesCollection).Find(ctx, bson.M{"supplier_id": supplierID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer cursor.Close(ctx)

	var invites []models.SupplierInvite
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, fmt.Errorf("failed to decode invites: %w", err)
	}
	return invites, nil
}

func (s *enquiryService) FindInvite(ctx context.Context, enquiryID, supplierID utils.SixID) (*models.SupplierInvite, error) {
	var invite models.SupplierInvite
	err := s.db.Collection(supplierInvitesCollection).FindOne(ctx, bson.M{"enquiry_id": enquiryID, "supplier_id": supplierID}).Decode(&invite)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}
	return &invite, nil
}

func (s *enquiryService) CloseStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	filter := bson.M{
		"status":     bson.M{"$in": []models.EnquiryStatus{models.EnquiryStatusNew, models.EnquiryStatusQuoted}},
		"created_at": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{"status": models.EnquiryStatusClosed, "updated_at": time.Now().UTC()}}
	result, err := s.db.Collection(enquiriesCollection).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to close stale enquiries: %w", err)
	}
	return result.ModifiedCount, nil
}

func (s *enquiryService) MarkInviteViewed(ctx context.Context, enquiryID, supplierID utils.SixID) error {
	now := time.Now().UTC()
	filter := bson.M{
		"enquiry_id":  enquiryID,
		"supplier_id": supplierID,
		"status":      models.InviteStatusInvited,
	}
	update := bson.M{"$set": bson.M{"status": models.InviteStatusViewed, "viewed_at": now}}
	_, err := s.db.Collection(supplierInvitesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark invite viewed: %w", err)
	}
	return nil
}
