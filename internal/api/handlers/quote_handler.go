package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gatherly/api/internal/models"
	"gatherly/api/internal/services"
	"gatherly/api/internal/utils"
)

// QuoteHandler handles supplier quote management and customer quote actions.
type QuoteHandler struct {
	quoteService   services.IQuoteService
	enquiryService services.IEnquiryService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quoteService services.IQuoteService, enquiryService services.IEnquiryService) *QuoteHandler {
	return &QuoteHandler{
		quoteService:   quoteService,
		enquiryService: enquiryService,
	}
}

type quoteItemsRequest struct {
	EnquiryID    string                 `json:"enquiry_id"`
	Items        []models.QuoteLineItem `json:"items"`
	CurrencyCode string                 `json:"currency_code"`
	Notes        string                 `json:"notes"`
}

// CreateDraft handles POST /v1/quotes (supplier auth).
func (h *QuoteHandler) CreateDraft(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req quoteItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	enquiryID, err := utils.ParseSixID(req.EnquiryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enquiry_id"})
		return
	}

	quote, err := h.quoteService.CreateDraft(c.Request.Context(), supplierID, enquiryID, req.Items, req.CurrencyCode, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Opening the enquiry to quote implies having seen it
	if err := h.enquiryService.MarkInviteViewed(c.Request.Context(), enquiryID, supplierID); err != nil {
		_ = c.Error(err)
	}

	c.JSON(http.StatusCreated, gin.H{"quote": quote})
}

// UpdateDraft handles PUT /v1/quotes/:id (supplier auth).
func (h *QuoteHandler) UpdateDraft(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	quoteID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote ID"})
		return
	}

	var req quoteItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	quote, err := h.quoteService.UpdateDraft(c.Request.Context(), supplierID, quoteID, req.Items, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// Send handles POST /v1/quotes/:id/send (supplier auth).
func (h *QuoteHandler) Send(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	quoteID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote ID"})
		return
	}

	result, err := h.quoteService.Send(c.Request.Context(), supplierID, quoteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quote":           result.Quote,
		"credits_balance": result.CreditsBalance,
	})
}

// Close handles POST /v1/quotes/:id/close (supplier auth).
func (h *QuoteHandler) Close(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	quoteID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote ID"})
		return
	}

	quote, err := h.quoteService.Close(c.Request.Context(), supplierID, quoteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// List handles GET /v1/quotes (supplier auth).
func (h *QuoteHandler) List(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	quotes, err := h.quoteService.ListForSupplier(c.Request.Context(), supplierID, 50)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

type quoteActionRequest struct {
	Token  string `json:"token"`
	Action string `json:"action"`
}

// Action handles POST /v1/quotes/action, the customer's accept/decline
// endpoint. No account needed: the action token is the credential.
func (h *QuoteHandler) Action(c *gin.Context) {
	var req quoteActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var (
		quote *models.Quote
		err   error
	)
	switch req.Action {
	case "accept":
		quote, err = h.quoteService.Accept(c.Request.Context(), req.Token)
	case "decline":
		quote, err = h.quoteService.Decline(c.Request.Context(), req.Token)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be accept or decline"})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

type quoteMessageRequest struct {
	Body string `json:"body"`
}

// SupplierMessage handles POST /v1/quotes/:id/messages (supplier auth).
func (h *QuoteHandler) SupplierMessage(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	quoteID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote ID"})
		return
	}

	quote, err := h.quoteService.FindByID(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if quote.SupplierID != supplierID {
		respondServiceError(c, services.ErrNotOwner)
		return
	}

	var req quoteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body required"})
		return
	}

	message, err := h.quoteService.AddMessage(c.Request.Context(), quoteID, "supplier", req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// CustomerMessage handles POST /v1/enquiries/:token/quotes/:id/messages. The
// enquiry public token authenticates the customer; the quote must belong to
// that enquiry.
func (h *QuoteHandler) CustomerMessage(c *gin.Context) {
	enquiry, err := h.enquiryService.FindByPublicToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	quoteID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote ID"})
		return
	}

	quote, err := h.quoteService.FindByID(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if quote.EnquiryID != enquiry.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req quoteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body required"})
		return
	}

	message, err := h.quoteService.AddMessage(c.Request.Context(), quoteID, "customer", req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// Messages handles GET /v1/quotes/:id/messages (supplier auth).
func (h *QuoteHandler) Messages(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	quoteID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote ID"})
		return
	}

	quote, err := h.quoteService.FindByID(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if quote.SupplierID != supplierID {
		respondServiceError(c, services.ErrNotOwner)
		return
	}

	messages, err := h.quoteService.ListMessages(c.Request.Context(), quoteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
