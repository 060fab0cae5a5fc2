package services

import (
	"gatherly/api/internal/models"
)

// GateResult is the publish gate's verdict for one supplier.
type GateResult struct {
	CanPublish bool     `json:"can_publish"`
	Reasons    []string `json:"reasons,omitempty"`
}

// PublishGate decides whether a supplier may appear in matches and receive
// direct requests. Pure function of supplier + media facts.
func PublishGate(supplier models.Supplier, media []models.SupplierMedia) GateResult {
	var reasons []string

	if supplier.Deleted {
		reasons = append(reasons, "deleted")
	}
	if supplier.Suspended {
		reasons = append(reasons, "suspended")
	}
	if !supplier.Published {
		reasons = append(reasons, "unpublished")
	}
	if len(supplier.Categories) == 0 {
		reasons = append(reasons, "no_categories")
	}
	if len(media) == 0 {
		reasons = append(reasons, "no_media")
	}

	return GateResult{
		CanPublish: len(reasons) == 0,
		Reasons:    reasons,
	}
}
