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
	quotesCollection        = "quotes"
	quoteEventsCollection   = "quote_events"
	quoteMessagesCollection = "quote_messages"
)

// SendResult is what a successful send returns to the supplier.
type SendResult struct {
	Quote          *models.Quote
	CreditsBalance int
}

type IQuoteService interface {
	// CreateDraft creates a draft quote for an enquiry the supplier was
	// invited to. One quote per (enquiry, supplier) pair.
	CreateDraft(ctx context.Context, supplierID, enquiryID utils.SixID, items []models.QuoteLineItem, currencyCode, notes string) (*models.Quote, error)
	// UpdateDraft replaces the line items and notes of an unsent quote.
	UpdateDraft(ctx context.Context, supplierID, quoteID utils.SixID, items []models.QuoteLineItem, notes string) (*models.Quote, error)
	// Send transitions draft -> sent, debits the send fee, and notifies the
	// customer. If the debit fails on insufficient credits the transition is
	// reverted and ErrInsufficientCredits returned; the quote stays a draft.
	Send(ctx context.Context, supplierID, quoteID utils.SixID) (*SendResult, error)
	// Accept and Decline act on the customer's action token. Repeating the
	// same action on an already-settled quote succeeds idempotently; the
	// opposite action returns ErrConflict.
	Accept(ctx context.Context, actionToken string) (*models.Quote, error)
	Decline(ctx context.Context, actionToken string) (*models.Quote, error)
	// Close withdraws an unsettled quote. Accepted or declined quotes cannot
	// be closed.
	Close(ctx context.Context, supplierID, quoteID utils.SixID) (*models.Quote, error)
	FindByID(ctx context.Context, quoteID utils.SixID) (*models.Quote, error)
	FindByActionToken(ctx context.Context, actionToken string) (*models.Quote, error)
	ListForEnquiry(ctx context.Context, enquiryID utils.SixID) ([]models.Quote, error)
	ListForSupplier(ctx context.Context, supplierID utils.SixID, limit int) ([]models.Quote, error)
	// AddMessage appends to the quote thread and notifies the other party.
	AddMessage(ctx context.Context, quoteID utils.SixID, sender, body string) (*models.QuoteMessage, error)
	ListMessages(ctx context.Context, quoteID utils.SixID) ([]models.QuoteMessage, error)
}

type quoteService struct {
	db                  *mongo.Database
	config              *config.Config
	creditService       ICreditService
	enquiryService      IEnquiryService
	supplierService     ISupplierService
	notificationService INotificationService
}

// NewQuoteService creates a new QuoteService.
func NewQuoteService(database *mongo.Database, cfg *config.Config, creditService ICreditService, enquiryService IEnquiryService, supplierService ISupplierService, notificationService INotificationService) IQuoteService {
	return &quoteService{
		db:                  database,
		config:              cfg,
		creditService:       creditService,
		enquiryService:      enquiryService,
		supplierService:     supplierService,
		notificationService: notificationService,
	}
}

func quoteTotal(items []models.QuoteLineItem) float64 {
	var total float64
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += float64(qty) * item.UnitPrice
	}
	return total
}

func (s *quoteService) CreateDraft(ctx context.Context, supplierID, enquiryID utils.SixID, items []models.QuoteLineItem, currencyCode, notes string) (*models.Quote, error) {
	if _, err := s.enquiryService.FindInvite(ctx, enquiryID, supplierID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotEligible
		}
		return nil, err
	}
	if currencyCode == "" {
		currencyCode = "GBP"
	}

	now := time.Now().UTC()
	quote := &models.Quote{
		EnquiryID:    enquiryID,
		SupplierID:   supplierID,
		Status:       models.QuoteStatusDraft,
		Items:        items,
		Total:        quoteTotal(items),
		CurrencyCode: currencyCode,
		Notes:        notes,
		ActionToken:  uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	quote.GenID()
	if _, err := s.db.Collection(quotesCollection).InsertOne(ctx, quote); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}
	s.recordEvent(ctx, quote.ID, "created", "supplier", nil)
	return quote, nil
}

func (s *quoteService) UpdateDraft(ctx context.Context, supplierID, quoteID utils.SixID, items []models.QuoteLineItem, notes string) (*models.Quote, error) {
	quote, err := s.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.SupplierID != supplierID {
		return nil, ErrNotOwner
	}
	if quote.Status != models.QuoteStatusDraft {
		return nil, ErrNotDraft
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": quoteID, "supplier_id": supplierID, "status": models.QuoteStatusDraft}
	update := bson.M{"$set": bson.M{
		"items":      items,
		"total":      quoteTotal(items),
		"notes":      notes,
		"updated_at": now,
	}}
	result, err := s.db.Collection(quotesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update quote %s: %w", quoteID.String(), err)
	}
	if result.MatchedCount == 0 {
		// Raced with a send or close between the read and the write.
		return nil, ErrConflict
	}
	return s.FindByID(ctx, quoteID)
}

func (s *quoteService) Send(ctx context.Context, supplierID, quoteID utils.SixID) (*SendResult, error) {
	quote, err := s.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.SupplierID != supplierID {
		return nil, ErrNotOwner
	}
	if quote.Status != models.QuoteStatusDraft {
		return nil, ErrNotDraft
	}
	if len(quote.Items) == 0 {
		return nil, ErrNoLineItems
	}

	// Transition first, debit second. The sent_at timestamp doubles as the
	// claim marker: the revert below matches on it exactly, so a concurrent
	// winner's transition can never be undone by a loser's compensation.
	// Pinning updated_at rejects any edit that landed after the read above,
	// so the total written here always matches the items it was computed from.
	sentAt := time.Now().UTC()
	filter := bson.M{
		"_id":         quoteID,
		"supplier_id": supplierID,
		"status":      models.QuoteStatusDraft,
		"updated_at":  quote.UpdatedAt,
	}
	update := bson.M{"$set": bson.M{
		"status":     models.QuoteStatusSent,
		"sent_at":    sentAt,
		"total":      quoteTotal(quote.Items),
		"updated_at": sentAt,
	}}
	result, err := s.db.Collection(quotesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to send quote %s: %w", quoteID.String(), err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrConflict
	}

	cost := s.config.QuoteSendCreditCost
	balance, err := s.creditService.Delta(ctx, supplierID, -cost, "quote_send", &quoteID)
	if err != nil {
		s.revertSend(ctx, quoteID, sentAt)
		if errors.Is(err, ErrInsufficientCredits) {
			return nil, ErrInsufficientCredits
		}
		return nil, fmt.Errorf("failed to debit send fee for quote %s: %w", quoteID.String(), err)
	}

	s.recordEvent(ctx, quoteID, "sent", "supplier", map[string]interface{}{
		"credits_charged": cost,
		"balance_after":   balance,
	})
	s.markQuoted(ctx, quote.EnquiryID, supplierID, sentAt)
	s.notifyQuoteSent(ctx, quote, sentAt)

	sent := *quote
	sent.Status = models.QuoteStatusSent
	sent.SentAt = &sentAt
	sent.Total = quoteTotal(quote.Items)
	sent.UpdatedAt = sentAt
	return &SendResult{Quote: &sent, CreditsBalance: balance}, nil
}

// revertSend undoes a sent transition whose debit failed. The filter pins the
// exact sent_at written by this call, so a quote re-sent successfully in the
// meantime is left alone.
func (s *quoteService) revertSend(ctx context.Context, quoteID utils.SixID, sentAt time.Time) {
	filter := bson.M{"_id": quoteID, "status": models.QuoteStatusSent, "sent_at": sentAt}
	update := bson.M{
		"$set":   bson.M{"status": models.QuoteStatusDraft, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"sent_at": ""},
	}
	if _, err := s.db.Collection(quotesCollection).UpdateOne(ctx, filter, update); err != nil {
		log.Printf("ERROR: failed to revert send of quote %s: %v", quoteID.String(), err)
		return
	}
	s.recordEvent(ctx, quoteID, "send_reverted", "system", nil)
}

func (s *quoteService) markQuoted(ctx context.Context, enquiryID, supplierID utils.SixID, at time.Time) {
	inviteFilter := bson.M{"enquiry_id": enquiryID, "supplier_id": supplierID, "quoted_at": nil}
	inviteUpdate := bson.M{"$set": bson.M{"status": models.InviteStatusQuoted, "quoted_at": at}}
	if _, err := s.db.Collection(supplierInvitesCollection).UpdateOne(ctx, inviteFilter, inviteUpdate); err != nil {
		log.Printf("WARNING: failed to mark invite quoted for enquiry %s: %v", enquiryID.String(), err)
	}

	enquiryFilter := bson.M{"_id": enquiryID, "status": models.EnquiryStatusNew}
	enquiryUpdate := bson.M{"$set": bson.M{"status": models.EnquiryStatusQuoted, "updated_at": at}}
	if _, err := s.db.Collection(enquiriesCollection).UpdateOne(ctx, enquiryFilter, enquiryUpdate); err != nil {
		log.Printf("WARNING: failed to mark enquiry %s quoted: %v", enquiryID.String(), err)
	}
}

func (s *quoteService) notifyQuoteSent(ctx context.Context, quote *models.Quote, sentAt time.Time) {
	enquiry, err := s.enquiryService.FindByID(ctx, quote.EnquiryID)
	if err != nil {
		log.Printf("WARNING: cannot notify customer for quote %s: %v", quote.ID.String(), err)
		return
	}
	supplier, err := s.supplierService.FindByID(ctx, quote.SupplierID)
	if err != nil {
		log.Printf("WARNING: cannot notify customer for quote %s: %v", quote.ID.String(), err)
		return
	}
	err = s.notificationService.Dispatch(ctx, NotificationRequest{
		EventKey:      fmt.Sprintf("quote_sent:%s", quote.ID.String()),
		RecipientType: models.RecipientCustomer,
		RecipientID:   enquiry.ID,
		Email:         enquiry.Email,
		TemplateID:    "quote_sent",
		Data: map[string]interface{}{
			"customer_name": enquiry.FullName,
			"supplier_name": supplier.BusinessName,
			"total":         fmt.Sprintf("%s %.2f", quote.CurrencyCode, quoteTotal(quote.Items)),
			"action_url":    fmt.Sprintf("%s/quotes/action?token=%s", s.config.PublicBaseURL, quote.ActionToken),
			"sent_at":       sentAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		log.Printf("WARNING: failed to dispatch quote_sent for quote %s: %v", quote.ID.String(), err)
	}
}

func (s *quoteService) Accept(ctx context.Context, actionToken string) (*models.Quote, error) {
	return s.settle(ctx, actionToken, models.QuoteStatusAccepted)
}

func (s *quoteService) Decline(ctx context.Context, actionToken string) (*models.Quote, error) {
	return s.settle(ctx, actionToken, models.QuoteStatusDeclined)
}

// settle performs the customer's accept/decline transition. The status filter
// makes it first-wins under concurrency: exactly one caller moves the quote
// out of sent, everyone else falls through to the idempotency re-read.
func (s *quoteService) settle(ctx context.Context, actionToken string, target models.QuoteStatus) (*models.Quote, error) {
	quote, err := s.FindByActionToken(ctx, actionToken)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	set := bson.M{"status": target, "updated_at": now}
	if target == models.QuoteStatusAccepted {
		set["accepted_at"] = now
	} else {
		set["declined_at"] = now
	}
	filter := bson.M{"_id": quote.ID, "status": models.QuoteStatusSent}
	result, err := s.db.Collection(quotesCollection).UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to settle quote %s: %w", quote.ID.String(), err)
	}
	if result.MatchedCount == 0 {
		current, err := s.FindByID(ctx, quote.ID)
		if err != nil {
			return nil, err
		}
		if current.Status == target {
			// Repeat of an action that already succeeded.
			return current, nil
		}
		return nil, ErrConflict
	}

	s.recordEvent(ctx, quote.ID, string(target), "customer", nil)
	s.settleSideEffects(ctx, quote, target, now)

	return s.FindByID(ctx, quote.ID)
}

func (s *quoteService) settleSideEffects(ctx context.Context, quote *models.Quote, target models.QuoteStatus, at time.Time) {
	inviteStatus := models.InviteStatusAccepted
	inviteSet := bson.M{"status": inviteStatus, "accepted_at": at}
	if target == models.QuoteStatusDeclined {
		inviteStatus = models.InviteStatusDeclined
		inviteSet = bson.M{"status": inviteStatus, "declined_at": at}
	}
	inviteFilter := bson.M{"enquiry_id": quote.EnquiryID, "supplier_id": quote.SupplierID}
	if _, err := s.db.Collection(supplierInvitesCollection).UpdateOne(ctx, inviteFilter, bson.M{"$set": inviteSet}); err != nil {
		log.Printf("WARNING: failed to update invite after settling quote %s: %v", quote.ID.String(), err)
	}

	if target == models.QuoteStatusAccepted {
		// Acceptance settles the whole enquiry. Declines leave it open for
		// the remaining quotes.
		enquiryFilter := bson.M{"_id": quote.EnquiryID, "status": bson.M{"$in": []models.EnquiryStatus{models.EnquiryStatusNew, models.EnquiryStatusQuoted}}}
		enquiryUpdate := bson.M{"$set": bson.M{"status": models.EnquiryStatusAccepted, "updated_at": at}}
		if _, err := s.db.Collection(enquiriesCollection).UpdateOne(ctx, enquiryFilter, enquiryUpdate); err != nil {
			log.Printf("WARNING: failed to update enquiry after accepting quote %s: %v", quote.ID.String(), err)
		}
	}

	s.notifySettled(ctx, quote, target)
}

// notifySettled fires the supplier and customer notifications for a settled
// quote. The two event keys are reserved independently, so a crash between
// them leaves at most one of the pair unsent rather than duplicating either.
func (s *quoteService) notifySettled(ctx context.Context, quote *models.Quote, target models.QuoteStatus) {
	verb := "accepted"
	if target == models.QuoteStatusDeclined {
		verb = "declined"
	}

	supplier, sErr := s.supplierService.FindByID(ctx, quote.SupplierID)
	enquiry, eErr := s.enquiryService.FindByID(ctx, quote.EnquiryID)

	if sErr != nil {
		log.Printf("WARNING: cannot notify supplier for quote %s: %v", quote.ID.String(), sErr)
	} else {
		data := map[string]interface{}{
			"supplier_name": supplier.BusinessName,
			"quote_id":      quote.ID.String(),
		}
		if eErr == nil {
			data["customer_name"] = enquiry.FullName
		}
		err := s.notificationService.Dispatch(ctx, NotificationRequest{
			EventKey:      fmt.Sprintf("quote_%s_supplier:%s", verb, quote.ID.String()),
			RecipientType: models.RecipientSupplier,
			RecipientID:   supplier.ID,
			Email:         supplier.Email,
			TemplateID:    fmt.Sprintf("quote_%s_supplier", verb),
			Data:          data,
		})
		if err != nil {
			log.Printf("WARNING: failed to dispatch quote_%s_supplier for quote %s: %v", verb, quote.ID.String(), err)
		}
	}

	if eErr != nil {
		log.Printf("WARNING: cannot notify customer for quote %s: %v", quote.ID.String(), eErr)
		return
	}
	data := map[string]interface{}{
		"customer_name": enquiry.FullName,
		"quote_id":      quote.ID.String(),
	}
	if sErr == nil {
		data["supplier_name"] = supplier.BusinessName
	}
	err := s.notificationService.Dispatch(ctx, NotificationRequest{
		EventKey:      fmt.Sprintf("quote_%s_customer:%s", verb, quote.ID.String()),
		RecipientType: models.RecipientCustomer,
		RecipientID:   enquiry.ID,
		Email:         enquiry.Email,
		TemplateID:    fmt.Sprintf("quote_%s_customer", verb),
		Data:          data,
	})
	if err != nil {
		log.Printf("WARNING: failed to dispatch quote_%s_customer for quote %s: %v", verb, quote.ID.String(), err)
	}
}

func (s *quoteService) Close(ctx context.Context, supplierID, quoteID utils.SixID) (*models.Quote, error) {
	quote, err := s.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.SupplierID != supplierID {
		return nil, ErrNotOwner
	}

	now := time.Now().UTC()
	filter := bson.M{
		"_id":         quoteID,
		"supplier_id": supplierID,
		"status":      bson.M{"$in": []models.QuoteStatus{models.QuoteStatusDraft, models.QuoteStatusSent}},
	}
	update := bson.M{"$set": bson.M{"status": models.QuoteStatusClosed, "closed_at": now, "updated_at": now}}
	result, err := s.db.Collection(quotesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to close quote %s: %w", quoteID.String(), err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrConflict
	}
	s.recordEvent(ctx, quoteID, "closed", "supplier", nil)
	return s.FindByID(ctx, quoteID)
}

func (s *quoteService) FindByID(ctx context.Context, quoteID utils.SixID) (*models.Quote, error) {
	var quote models.Quote
	err := s.db.Collection(quotesCollection).FindOne(ctx, bson.M{"_id": quoteID}).Decode(&quote)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find quote %s: %w", quoteID.String(), err)
	}
	return &quote, nil
}

func (s *quoteService) FindByActionToken(ctx context.Context, actionToken string) (*models.Quote, error) {
	if actionToken == "" {
		return nil, ErrNotFound
	}
	var quote models.Quote
	err := s.db.Collection(quotesCollection).FindOne(ctx, bson.M{"action_token": actionToken}).Decode(&quote)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find quote by action token: %w", err)
	}
	return &quote, nil
}

func (s *quoteService) ListForEnquiry(ctx context.Context, enquiryID utils.SixID) ([]models.Quote, error) {
	// Customers only ever see quotes that left the draft stage.
	filter := bson.M{
		"enquiry_id": enquiryID,
		"status":     bson.M{"$ne": models.QuoteStatusDraft},
	}
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}})
	cursor, err := s.db.Collection(quotesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer cursor.Close(ctx)

	var quotes []models.Quote
	if err := cursor.All(ctx, &quotes); err != nil {
		return nil, fmt.Errorf("failed to decode quotes: %w", err)
	}
	return quotes, nil
}

func (s *quoteService) ListForSupplier(ctx context.Context, supplierID utils.SixID, limit int) ([]models.Quote, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.db.Collection(quotesCollection).Find(ctx, bson.M{"supplier_id": supplierID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer cursor.Close(ctx)

	var quotes []models.Quote
	if err := cursor.All(ctx, &quotes); err != nil {
		return nil, fmt.Errorf("failed to decode quotes: %w", err)
	}
	return quotes, nil
}

func (s *quoteService) AddMessage(ctx context.Context, quoteID utils.SixID, sender, body string) (*models.QuoteMessage, error) {
	if sender != "customer" && sender != "supplier" {
		return nil, fmt.Errorf("unknown message sender %q", sender)
	}
	quote, err := s.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	// Messaging opens once the quote reaches the customer.
	if quote.Status == models.QuoteStatusDraft {
		return nil, ErrConflict
	}

	message := &models.QuoteMessage{
		QuoteID:   quoteID,
		Sender:    sender,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := db.InsertOne(ctx, s.db.Collection(quoteMessagesCollection), message); err != nil {
		return nil, fmt.Errorf("failed to create message on quote %s: %w", quoteID.String(), err)
	}

	s.notifyMessage(ctx, quote, message)
	return message, nil
}

func (s *quoteService) notifyMessage(ctx context.Context, quote *models.Quote, message *models.QuoteMessage) {
	preview := message.Body
	if runes := []rune(preview); len(runes) > 120 {
		preview = string(runes[:120]) + "…"
	}

	if message.Sender == "customer" {
		supplier, err := s.supplierService.FindByID(ctx, quote.SupplierID)
		if err != nil {
			log.Printf("WARNING: cannot notify supplier of message %s: %v", message.ID.String(), err)
			return
		}
		senderName := "The customer"
		if enquiry, err := s.enquiryService.FindByID(ctx, quote.EnquiryID); err == nil {
			senderName = enquiry.FullName
		}
		err = s.notificationService.Dispatch(ctx, NotificationRequest{
			EventKey:      fmt.Sprintf("message_received_supplier:%s", message.ID.String()),
			RecipientType: models.RecipientSupplier,
			RecipientID:   supplier.ID,
			Email:         supplier.Email,
			TemplateID:    "message_received_supplier",
			Data: map[string]interface{}{
				"sender_name": senderName,
				"quote_id":    quote.ID.String(),
				"preview":     preview,
			},
		})
		if err != nil {
			log.Printf("WARNING: failed to dispatch message notification for %s: %v", message.ID.String(), err)
		}
		return
	}

	enquiry, err := s.enquiryService.FindByID(ctx, quote.EnquiryID)
	if err != nil {
		log.Printf("WARNING: cannot notify customer of message %s: %v", message.ID.String(), err)
		return
	}
	supplierName := "The supplier"
	if supplier, err := s.supplierService.FindByID(ctx, quote.SupplierID); err == nil {
		supplierName = supplier.BusinessName
	}
	err = s.notificationService.Dispatch(ctx, NotificationRequest{
		EventKey:      fmt.Sprintf("message_received_customer:%s", message.ID.String()),
		RecipientType: models.RecipientCustomer,
		RecipientID:   enquiry.ID,
		Email:         enquiry.Email,
		TemplateID:    "message_received_customer",
		Data: map[string]interface{}{
			"supplier_name": supplierName,
			"quote_id":      quote.ID.String(),
			"preview":       preview,
		},
	})
	if err != nil {
		log.Printf("WARNING: failed to dispatch message notification for %s: %v", message.ID.String(), err)
	}
}

func (s *quoteService) ListMessages(ctx context.Context, quoteID utils.SixID) ([]models.QuoteMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.db.Collection(quoteMessagesCollection).Find(ctx, bson.M{"quote_id": quoteID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []models.QuoteMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// recordEvent appends an audit row. Best-effort: audit failures never fail the
// transition they describe.
func (s *quoteService) recordEvent(ctx context.Context, quoteID utils.SixID, kind, actor string, meta map[string]interface{}) {
	event := &models.QuoteEvent{
		QuoteID:   quoteID,
		Kind:      kind,
		Actor:     actor,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := db.InsertOne(ctx, s.db.Collection(quoteEventsCollection), event); err != nil {
		log.Printf("WARNING: failed to record quote event %s/%s: %v", quoteID.String(), kind, err)
	}
}
