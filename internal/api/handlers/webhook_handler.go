package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gatherly/api/internal/services"
	"gatherly/api/internal/utils"
)

// WebhookHandler receives payment processor callbacks.
type WebhookHandler struct {
	paymentService services.IPaymentService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(paymentService services.IPaymentService) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService}
}

// paymentWebhookRequest is the processor's event envelope.
type paymentWebhookRequest struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	SupplierID string `json:"supplier_id"`
	Credits    int    `json:"credits"`
}

// HandlePaymentEvent handles POST /v1/payments/webhook. Only
// checkout.completed events change state; everything else is acknowledged and
// ignored so the processor stops retrying.
func (h *WebhookHandler) HandlePaymentEvent(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.EventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}

	if req.EventType != "checkout.completed" {
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	}

	supplierID, err := utils.ParseSixID(req.SupplierID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier_id"})
		return
	}

	result, err := h.paymentService.TopUp(c.Request.Context(), req.EventID, supplierID, req.Credits)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applied":         result.Applied,
		"credits_balance": result.CreditsBalance,
	})
}
