package models

import (
	"time"

	"gatherly/api/internal/utils"
)

// QuoteStatus is the quote state machine: draft -> sent -> {accepted, declined} -> closed.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
	QuoteStatusClosed   QuoteStatus = "closed"
)

// QuoteLineItem is one priced line within a quote.
type QuoteLineItem struct {
	Description string  `bson:"description" json:"description"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	UnitPrice   float64 `bson:"unit_price" json:"unit_price"`
}

// Quote is a supplier's structured, priced response to an enquiry. It belongs
// to exactly one (enquiry, supplier) pair. Mutable by its owning supplier
// until sent; afterwards mutations are customer/system transitions only.
type Quote struct {
	Base       `bson:",inline"`
	EnquiryID  utils.SixID `bson:"enquiry_id" json:"enquiry_id"`
	SupplierID utils.SixID `bson:"supplier_id" json:"supplier_id"`

	Status       QuoteStatus     `bson:"status" json:"status"`
	Items        []QuoteLineItem `bson:"items,omitempty" json:"items,omitempty"`
	Total        float64         `bson:"total" json:"total"`
	CurrencyCode string          `bson:"currency_code" json:"currency_code"`
	Notes        string          `bson:"notes,omitempty" json:"notes,omitempty"`

	// Token embedded in customer-facing links for accept/decline
	ActionToken string `bson:"action_token" json:"-"`

	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
	SentAt     *time.Time `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	AcceptedAt *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	DeclinedAt *time.Time `bson:"declined_at,omitempty" json:"declined_at,omitempty"`
	ClosedAt   *time.Time `bson:"closed_at,omitempty" json:"closed_at,omitempty"`
}

// QuoteEvent is an append-only audit row for a quote transition.
type QuoteEvent struct {
	Base    `bson:",inline"`
	QuoteID utils.SixID `bson:"quote_id" json:"quote_id"`
	// e.g. "sent", "send_reverted", "accepted", "declined", "closed"
	Kind      string                 `bson:"kind" json:"kind"`
	Actor     string                 `bson:"actor,omitempty" json:"actor,omitempty"` // "supplier", "customer", "system"
	Meta      map[string]interface{} `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}

// QuoteMessage is a free-text message exchanged on a quote thread.
type QuoteMessage struct {
	Base    `bson:",inline"`
	QuoteID utils.SixID `bson:"quote_id" json:"quote_id"`
	// "customer" or "supplier"
	Sender    string    `bson:"sender" json:"sender"`
	Body      string    `bson:"body" json:"body"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
