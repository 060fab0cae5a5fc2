package models

import (
	"time"

	"gatherly/api/internal/utils"
)

// EnquiryStatus tracks an enquiry through the quoting lifecycle.
type EnquiryStatus string

const (
	EnquiryStatusNew      EnquiryStatus = "new"
	EnquiryStatusQuoted   EnquiryStatus = "quoted"
	EnquiryStatusAccepted EnquiryStatus = "accepted"
	EnquiryStatusDeclined EnquiryStatus = "declined"
	EnquiryStatusClosed   EnquiryStatus = "closed"
)

// Enquiry is a customer's structured request for quotes. Created once per
// successful scoring pass; never deleted.
type Enquiry struct {
	Base `bson:",inline"`

	// Customer contact
	FullName          string `bson:"full_name" json:"full_name"`
	Email             string `bson:"email" json:"email"`
	Phone             string `bson:"phone,omitempty" json:"phone,omitempty"`
	ContactPreference string `bson:"contact_preference,omitempty" json:"contact_preference,omitempty"`

	// Event facts
	EventType     string     `bson:"event_type,omitempty" json:"event_type,omitempty"`
	EventDate     *time.Time `bson:"event_date,omitempty" json:"event_date,omitempty"`
	GuestCount    *int       `bson:"guest_count,omitempty" json:"guest_count,omitempty"`
	VenueKnown    bool       `bson:"venue_known" json:"venue_known"`
	VenueName     string     `bson:"venue_name,omitempty" json:"venue_name,omitempty"`
	VenuePostcode string     `bson:"venue_postcode,omitempty" json:"venue_postcode,omitempty"`
	Setting       string     `bson:"setting,omitempty" json:"setting,omitempty"` // indoor/outdoor
	BudgetRange   string     `bson:"budget_range,omitempty" json:"budget_range,omitempty"`
	ServingStyle  string     `bson:"serving_style,omitempty" json:"serving_style,omitempty"`
	DietaryNotes  string     `bson:"dietary_notes,omitempty" json:"dietary_notes,omitempty"`
	CategorySlug  string     `bson:"category_slug,omitempty" json:"category_slug,omitempty"`
	Urgency       string     `bson:"urgency,omitempty" json:"urgency,omitempty"`

	Message string `bson:"message" json:"message"`

	// Scoring output, frozen at creation
	QualityScore int      `bson:"quality_score" json:"quality_score"`
	QualityFlags []string `bson:"quality_flags,omitempty" json:"quality_flags,omitempty"`

	Status EnquiryStatus `bson:"status" json:"status"`

	// Token the customer uses to view and act on quotes without an account
	PublicToken string `bson:"public_token" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// InviteStatus tracks one supplier's relationship to an enquiry.
type InviteStatus string

const (
	InviteStatusInvited   InviteStatus = "invited"
	InviteStatusViewed    InviteStatus = "viewed"
	InviteStatusResponded InviteStatus = "responded"
	InviteStatusQuoted    InviteStatus = "quoted"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusDeclined  InviteStatus = "declined"
)

// SupplierInvite links an enquiry to one invited supplier. Unique on the
// (enquiry_id, supplier_id) pair.
type SupplierInvite struct {
	Base       `bson:",inline"`
	EnquiryID  utils.SixID  `bson:"enquiry_id" json:"enquiry_id"`
	SupplierID utils.SixID  `bson:"supplier_id" json:"supplier_id"`
	Status     InviteStatus `bson:"status" json:"status"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	ViewedAt    *time.Time `bson:"viewed_at,omitempty" json:"viewed_at,omitempty"`
	RespondedAt *time.Time `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
	QuotedAt    *time.Time `bson:"quoted_at,omitempty" json:"quoted_at,omitempty"`
	AcceptedAt  *time.Time `bson:"accepted_at,omitempty" json:"accepted_at,omitempty"`
	DeclinedAt  *time.Time `bson:"declined_at,omitempty" json:"declined_at,omitempty"`
}
