package services

import (
	"context"
	"fmt"
	"log"

	"gatherly/api/internal/models"
	"gatherly/api/internal/utils"
)

// TopUpResult reports what a processor event did to a supplier's balance.
type TopUpResult struct {
	// False when the event was a replay and nothing changed.
	Applied        bool
	CreditsBalance int
}

type IPaymentService interface {
	// TopUp credits a supplier's balance for a completed checkout. The
	// processor's event ID is the idempotency key: webhook retries and
	// duplicate deliveries apply the credit exactly once.
	TopUp(ctx context.Context, processorEventID string, supplierID utils.SixID, credits int) (*TopUpResult, error)
}

type paymentService struct {
	ledger              IEventLedgerService
	creditService       ICreditService
	supplierService     ISupplierService
	notificationService INotificationService
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(ledger IEventLedgerService, creditService ICreditService, supplierService ISupplierService, notificationService INotificationService) IPaymentService {
	return &paymentService{
		ledger:              ledger,
		creditService:       creditService,
		supplierService:     supplierService,
		notificationService: notificationService,
	}
}

func (s *paymentService) TopUp(ctx context.Context, processorEventID string, supplierID utils.SixID, credits int) (*TopUpResult, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("invalid credit amount %d", credits)
	}

	reserved, err := s.ledger.Reserve(ctx, fmt.Sprintf("payment_event:%s", processorEventID), map[string]interface{}{
		"supplier_id": supplierID.String(),
		"credits":     credits,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reserve payment event %s: %w", processorEventID, err)
	}
	if !reserved {
		supplier, err := s.supplierService.FindByID(ctx, supplierID)
		if err != nil {
			return nil, err
		}
		return &TopUpResult{Applied: false, CreditsBalance: supplier.CreditsBalance}, nil
	}

	balance, err := s.creditService.Delta(ctx, supplierID, credits, "purchase", nil)
	if err != nil {
		// The reservation is spent but the credit never landed. Surface the
		// error so the processor retries with a fresh event.
		return nil, fmt.Errorf("failed to apply top-up for event %s: %w", processorEventID, err)
	}

	supplier, err := s.supplierService.FindByID(ctx, supplierID)
	if err != nil {
		log.Printf("WARNING: cannot notify supplier %s of top-up: %v", supplierID.String(), err)
		return &TopUpResult{Applied: true, CreditsBalance: balance}, nil
	}
	err = s.notificationService.Dispatch(ctx, NotificationRequest{
		EventKey:      fmt.Sprintf("credits_topped_up:%s", processorEventID),
		RecipientType: models.RecipientSupplier,
		RecipientID:   supplierID,
		Email:         supplier.Email,
		TemplateID:    "credits_topped_up",
		Data: map[string]interface{}{
			"supplier_name": supplier.BusinessName,
			"credits":       credits,
			"balance":       balance,
		},
	})
	if err != nil {
		log.Printf("WARNING: failed to dispatch top-up notification for event %s: %v", processorEventID, err)
	}

	return &TopUpResult{Applied: true, CreditsBalance: balance}, nil
}
