package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gatherly/api/internal/auth"
	"gatherly/api/internal/config"
	"gatherly/api/internal/db"
	"gatherly/api/internal/models"
	"gatherly/api/internal/utils"
)

// ErrEmailExists is returned when an attempt is made to use an email that
// already belongs to another supplier account.
var ErrEmailExists = errors.New("email already in use by another account")

// ISupplierService defines the interface for supplier account operations.
type ISupplierService interface {
	CreateSupplier(ctx context.Context, businessName, email, password string, categories []string) (*models.Supplier, error)
	FindByID(ctx context.Context, supplierID utils.SixID) (*models.Supplier, error)
	FindByEmail(ctx context.Context, email string) (*models.Supplier, error)
	Authenticate(ctx context.Context, email, password string) (*models.Supplier, error)
	// ListCandidates returns all publishable-or-not suppliers with their gate
	// verdicts, ordered verified-first then newest; the matcher filters them.
	ListCandidates(ctx context.Context) ([]MatchCandidate, error)
	// CandidateByID resolves one supplier plus its gate verdict for directed requests.
	CandidateByID(ctx context.Context, supplierID utils.SixID) (*MatchCandidate, error)
	AddMedia(ctx context.Context, supplierID utils.SixID, s3Key string) (*models.SupplierMedia, error)
	MarkMediaProcessed(ctx context.Context, mediaID utils.SixID) error
	ListMedia(ctx context.Context, supplierID utils.SixID) ([]models.SupplierMedia, error)
	SetPublished(ctx context.Context, supplierID utils.SixID, published bool) error
	SetSuspended(ctx context.Context, supplierID utils.SixID, suspended bool) error
}

const supplierMediaCollection = "supplier_media"

type supplierService struct {
	db            *mongo.Database
	cfg           *config.Config
	creditService ICreditService
}

// NewSupplierService creates a new SupplierService.
func NewSupplierService(database *mongo.Database, cfg *config.Config, creditService ICreditService) ISupplierService {
	return &supplierService{db: database, cfg: cfg, creditService: creditService}
}

// CreateSupplier registers a supplier account with a hashed password and the
// configured signup credit grant.
func (s *supplierService) CreateSupplier(ctx context.Context, businessName, email, password string, categories []string) (*models.Supplier, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(categories))
	for _, c := range categories {
		if slug := NormalizeSlug(c); slug != "" {
			normalized = append(normalized, slug)
		}
	}

	now := time.Now().UTC()
	supplier := &models.Supplier{
		BusinessName:   businessName,
		Email:          email,
		PasswordHash:   hash,
		Categories:     normalized,
		CreditsBalance: 0,
		Published:      false,
		Verified:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := db.InsertOne(ctx, s.db.Collection(suppliersCollection), supplier); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	if s.cfg.SignupFreeCredits > 0 {
		if _, err := s.creditService.Delta(ctx, supplier.ID, s.cfg.SignupFreeCredits, "signup_grant", nil); err != nil {
			return nil, fmt.Errorf("failed to grant signup credits to %s: %w", supplier.ID.String(), err)
		}
		supplier.CreditsBalance = s.cfg.SignupFreeCredits
	}

	return supplier, nil
}

func (s *supplierService) FindByID(ctx context.Context, supplierID utils.SixID) (*models.Supplier, error) {
	var supplier models.Supplier
	err := s.db.Collection(suppliersCollection).FindOne(ctx, bson.M{"_id": supplierID, "deleted": false}).Decode(&supplier)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding supplier %s: %w", supplierID.String(), err)
	}
	return &supplier, nil
}

func (s *supplierService) FindByEmail(ctx context.Context, email string) (*models.Supplier, error) {
	var supplier models.Supplier
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email)), "deleted": false}
	err := s.db.Collection(suppliersCollection).FindOne(ctx, filter).Decode(&supplier)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding supplier by email: %w", err)
	}
	return &supplier, nil
}

// Authenticate verifies credentials. Suspended accounts can still log in to
// see their state; suspension is enforced by the publish gate and handlers.
func (s *supplierService) Authenticate(ctx context.Context, email, password string) (*models.Supplier, error) {
	supplier, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(password, supplier.PasswordHash) {
		return nil, ErrNotFound
	}
	return supplier, nil
}

// ListCandidates loads active suppliers ordered verified-first then newest and
// resolves each one's publish gate from its media facts. This pre-sorted order
// is what the matcher preserves.
func (s *supplierService) ListCandidates(ctx context.Context) ([]MatchCandidate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "verified", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(suppliersCollection).Find(ctx, bson.M{"deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var suppliers []models.Supplier
	if err := cursor.All(ctx, &suppliers); err != nil {
		return nil, fmt.Errorf("failed to decode supplier candidates: %w", err)
	}

	mediaBySupplier, err := s.mediaGroupedBySupplier(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]MatchCandidate, 0, len(suppliers))
	for _, supplier := range suppliers {
		media := mediaBySupplier[supplier.ID]
		candidates = append(candidates, MatchCandidate{
			Supplier: supplier,
			Gate:     PublishGate(supplier, media),
		})
	}
	return candidates, nil
}

func (s *supplierService) CandidateByID(ctx context.Context, supplierID utils.SixID) (*MatchCandidate, error) {
	supplier, err := s.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	media, err := s.ListMedia(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return &MatchCandidate{Supplier: *supplier, Gate: PublishGate(*supplier, media)}, nil
}

func (s *supplierService) AddMedia(ctx context.Context, supplierID utils.SixID, s3Key string) (*models.SupplierMedia, error) {
	media := &models.SupplierMedia{
		SupplierID: supplierID,
		S3Key:      s3Key,
		Processed:  false,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := db.InsertOne(ctx, s.db.Collection(supplierMediaCollection), media); err != nil {
		return nil, err
	}
	return media, nil
}

func (s *supplierService) MarkMediaProcessed(ctx context.Context, mediaID utils.SixID) error {
	result, err := s.db.Collection(supplierMediaCollection).UpdateByID(ctx, mediaID, bson.M{"$set": bson.M{"processed": true}})
	if err != nil {
		return fmt.Errorf("failed to mark media %s processed: %w", mediaID.String(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *supplierService) ListMedia(ctx context.Context, supplierID utils.SixID) ([]models.SupplierMedia, error) {
	cursor, err := s.db.Collection(supplierMediaCollection).Find(ctx, bson.M{"supplier_id": supplierID})
	if err != nil {
		return nil, fmt.Errorf("failed to query media for supplier %s: %w", supplierID.String(), err)
	}
	defer cursor.Close(ctx)

	var media []models.SupplierMedia
	if err := cursor.All(ctx, &media); err != nil {
		return nil, fmt.Errorf("failed to decode supplier media: %w", err)
	}
	return media, nil
}

func (s *supplierService) SetPublished(ctx context.Context, supplierID utils.SixID, published bool) error {
	return s.setFlag(ctx, supplierID, "published", published)
}

func (s *supplierService) SetSuspended(ctx context.Context, supplierID utils.SixID, suspended bool) error {
	return s.setFlag(ctx, supplierID, "suspended", suspended)
}

func (s *supplierService) setFlag(ctx context.Context, supplierID utils.SixID, field string, value bool) error {
	update := bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}}
	result, err := s.db.Collection(suppliersCollection).UpdateOne(ctx, bson.M{"_id": supplierID, "deleted": false}, update)
	if err != nil {
		return fmt.Errorf("failed to set %s on supplier %s: %w", field, supplierID.String(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *supplierService) mediaGroupedBySupplier(ctx context.Context) (map[utils.SixID][]models.SupplierMedia, error) {
	cursor, err := s.db.Collection(supplierMediaCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier media: %w", err)
	}
	defer cursor.Close(ctx)

	grouped := make(map[utils.SixID][]models.SupplierMedia)
	for cursor.Next(ctx) {
		var m models.SupplierMedia
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode supplier media: %w", err)
		}
		grouped[m.SupplierID] = append(grouped[m.SupplierID], m)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error reading supplier media: %w", err)
	}
	return grouped, nil
}
