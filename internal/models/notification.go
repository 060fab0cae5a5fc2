package models

import (
	"time"

	"gatherly/api/internal/utils"
)

// RecipientType distinguishes supplier accounts from token-identified customers.
type RecipientType string

const (
	RecipientSupplier RecipientType = "supplier"
	RecipientCustomer RecipientType = "customer"
)

// Notification is a persisted in-app notification record. Creation is gated by
// the event ledger so a business event produces at most one of these.
type Notification struct {
	Base          `bson:",inline"`
	RecipientType RecipientType `bson:"recipient_type" json:"recipient_type"`
	// Supplier ID for suppliers; enquiry ID for customers
	RecipientID utils.SixID `bson:"recipient_id" json:"recipient_id"`
	EventKey    string      `bson:"event_key" json:"event_key"`
	// Template the subject/body were rendered from
	TemplateID string                 `bson:"template_id" json:"template_id"`
	Subject    string                 `bson:"subject" json:"subject"`
	Body       string                 `bson:"body" json:"body"`
	Data       map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	ReadAt     *time.Time             `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt  time.Time              `bson:"created_at" json:"created_at"`
}
