package services

import "errors"

// Sentinel errors used across service boundaries. Handlers map these onto
// HTTP statuses; services never panic or throw across component boundaries.
var (
	// ErrNotFound: the referenced entity does not exist or its token is unknown.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a conditional write affected zero rows, or a directed match
	// resolved to the wrong cardinality. Caller should re-fetch current state.
	ErrConflict = errors.New("conflict")

	// ErrInsufficientCredits: a credit decrement would take the balance below
	// zero. Detected by the ledger mutation itself, never by a pre-check.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrNotEligible: a directed enquiry named a supplier that fails the
	// publish gate or does not resolve to exactly one supplier.
	ErrNotEligible = errors.New("supplier is not eligible to receive direct requests")

	// ErrNotOwner: the acting supplier does not own the target entity.
	ErrNotOwner = errors.New("not owned by caller")

	// ErrNoLineItems: a quote cannot be sent without at least one line item.
	ErrNoLineItems = errors.New("quote has no line items")

	// ErrNotDraft: quote-send requires the quote to still be a draft.
	ErrNotDraft = errors.New("quote is not a draft")
)
