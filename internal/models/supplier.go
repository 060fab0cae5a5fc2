package models

import (
	"time"

	"gatherly/api/internal/utils"
)

// Supplier is a vendor account that receives enquiry invites and sends quotes.
type Supplier struct {
	Base `bson:",inline"`

	BusinessName string `bson:"business_name" json:"business_name"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	// Category slugs this supplier serves (e.g. "catering", "live-music")
	Categories []string `bson:"categories,omitempty" json:"categories,omitempty"`

	// Location facts used by the matcher's free-text needle
	LocationLabel string `bson:"location_label,omitempty" json:"location_label,omitempty"`
	City          string `bson:"city,omitempty" json:"city,omitempty"`
	Postcode      string `bson:"postcode,omitempty" json:"postcode,omitempty"`

	// CreditsBalance is debited on quote send and topped up by payments.
	// Invariant: never negative; enforced by the conditional credit mutation.
	CreditsBalance int `bson:"credits_balance" json:"credits_balance"`

	// Publish/verification flags consumed by the publish gate
	Published bool `bson:"published" json:"published"`
	Verified  bool `bson:"verified" json:"verified"`
	Suspended bool `bson:"suspended" json:"suspended"`
	Deleted   bool `bson:"deleted" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SupplierMedia is one uploaded profile image. Media presence feeds the
// publish gate; processing happens in a background task.
type SupplierMedia struct {
	Base       `bson:",inline"`
	SupplierID utils.SixID `bson:"supplier_id" json:"supplier_id"`
	S3Key      string      `bson:"s3_key" json:"s3_key"`
	Processed  bool        `bson:"processed" json:"processed"`
	CreatedAt  time.Time   `bson:"created_at" json:"created_at"`
}
