package models

import (
	"time"

	"gatherly/api/internal/utils"
)

// CreditTransaction is an immutable ledger row recording one credit mutation.
// The supplier's denormalized credits_balance column is kept consistent with
// the sum of these rows by applying both in the same conditional operation.
type CreditTransaction struct {
	Base       `bson:",inline"`
	SupplierID utils.SixID `bson:"supplier_id" json:"supplier_id"`
	Delta      int         `bson:"delta" json:"delta"`
	// e.g. "quote_send", "payment_topup", "signup_grant", "admin_adjustment"
	Reason         string       `bson:"reason" json:"reason"`
	RelatedQuoteID *utils.SixID `bson:"related_quote_id,omitempty" json:"related_quote_id,omitempty"`
	// Balance after this transaction applied, as reported by the store
	BalanceAfter int       `bson:"balance_after" json:"balance_after"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
