package services

import (
	"context"
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

// EmailEnqueuer hands an email off for background delivery. Implemented by the
// tasks package; kept as an interface so services never depend on asynq
// directly and tests can observe dispatches.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

// NotificationRequest describes one business event's notification to one recipient.
type NotificationRequest struct {
	// Deterministic key identifying the business event, e.g. "quote_sent:<id>".
	EventKey      string
	RecipientType models.RecipientType
	RecipientID   utils.SixID
	Email         string
	TemplateID    string
	Data          map[string]interface{}
}

// INotificationService composes and hands off in-app + email notifications,
// gated by the event ledger so each event fires at most once.
type INotificationService interface {
	// Dispatch reserves the event key and, if this call won the reservation,
	// creates the in-app record and enqueues the email. Losing the reservation
	// is a silent no-op. Failures past the reservation are logged and
	// swallowed: they must never fail the triggering business action.
	Dispatch(ctx context.Context, req NotificationRequest) error
	ListForRecipient(ctx context.Context, recipientType models.RecipientType, recipientID utils.SixID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID, recipientID utils.SixID) error
}

const notificationsCollection = "notifications"

type notificationService struct {
	db              *mongo.Database
	ledger          IEventLedgerService
	templateService IEmailTemplateService
	emailEnqueuer   EmailEnqueuer
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(database *mongo.Database, ledger IEventLedgerService, templateService IEmailTemplateService, emailEnqueuer EmailEnqueuer) INotificationService {
	return &notificationService{
		db:              database,
		ledger:          ledger,
		templateService: templateService,
		emailEnqueuer:   emailEnqueuer,
	}
}

func (s *notificationService) Dispatch(ctx context.Context, req NotificationRequest) error {
	reserved, err := s.ledger.Reserve(ctx, req.EventKey, map[string]interface{}{
		"template_id":    req.TemplateID,
		"recipient_type": string(req.RecipientType),
		"recipient_id":   req.RecipientID.String(),
	})
	if err != nil {
		return fmt.Errorf("notification reservation for %q failed: %w", req.EventKey, err)
	}
	if !reserved {
		log.Printf("Event %q already handled, skipping notification", req.EventKey)
		return nil
	}

	// Past this point the event is claimed. Everything below is best-effort:
	// the triggering business action has already succeeded.
	subject, body, err := s.templateService.Render(ctx, req.TemplateID, "", req.Data)
	if err != nil {
		log.Printf("WARNING: failed to render notification %q for event %q: %v", req.TemplateID, req.EventKey, err)
		return nil
	}

	notification := &models.Notification{
		RecipientType: req.RecipientType,
		RecipientID:   req.RecipientID,
		EventKey:      req.EventKey,
		TemplateID:    req.TemplateID,
		Subject:       subject,
		Body:          body,
		Data:          req.Data,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := db.InsertOne(ctx, s.db.Collection(notificationsCollection), notification); err != nil {
		log.Printf("WARNING: failed to create in-app notification for event %q: %v", req.EventKey, err)
	}

	if req.Email != "" {
		if err := s.emailEnqueuer.EnqueueEmail(ctx, req.Email, subject, body); err != nil {
			log.Printf("WARNING: failed to enqueue email for event %q: %v", req.EventKey, err)
		}
	}

	return nil
}

func (s *notificationService) ListForRecipient(ctx context.Context, recipientType models.RecipientType, recipientID utils.SixID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	filter := bson.M{"recipient_type": recipientType, "recipient_id": recipientID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.db.Collection(notificationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, recipientID utils.SixID) error {
	filter := bson.M{"_id": notificationID, "recipient_id": recipientID, "read_at": nil}
	update := bson.M{"$set": bson.M{"read_at": time.Now().UTC()}}
	result, err := s.db.Collection(notificationsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", notificationID.String(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
