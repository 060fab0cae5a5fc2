package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gatherly/api/internal/api/middleware"
	"gatherly/api/internal/config"
	"gatherly/api/internal/services"
	"gatherly/api/internal/utils"
)

// EnquiryHandler handles customer-facing enquiry endpoints.
type EnquiryHandler struct {
	cfg            *config.Config
	enquiryService services.IEnquiryService
	quoteService   services.IQuoteService
	limiter        *middleware.SubmissionLimiter
}

// NewEnquiryHandler creates a new EnquiryHandler.
func NewEnquiryHandler(cfg *config.Config, enquiryService services.IEnquiryService, quoteService services.IQuoteService) *EnquiryHandler {
	h := &EnquiryHandler{
		cfg:            cfg,
		enquiryService: enquiryService,
		quoteService:   quoteService,
		limiter:        middleware.NewSubmissionLimiter(cfg.EnquiryRateLimit, cfg.EnquiryRateWindow, nil),
	}
	go h.pruneLoop()
	return h
}

func (h *EnquiryHandler) pruneLoop() {
	for {
		time.Sleep(h.cfg.EnquiryRateWindow)
		h.limiter.Prune()
	}
}

// createEnquiryRequest is the POST /enquiries body.
type createEnquiryRequest struct {
	FullName          string     `json:"full_name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	ContactPreference string     `json:"contact_preference"`
	EventType         string     `json:"event_type"`
	EventDate         *time.Time `json:"event_date"`
	GuestCount        *int       `json:"guest_count"`
	VenueKnown        bool       `json:"venue_known"`
	VenueName         string     `json:"venue_name"`
	VenuePostcode     string     `json:"venue_postcode"`
	Setting           string     `json:"setting"`
	BudgetRange       string     `json:"budget_range"`
	ServingStyle      string     `json:"serving_style"`
	DietaryNotes      string     `json:"dietary_notes"`
	Urgency           string     `json:"urgency"`
	Message           string     `json:"message"`

	CategorySlug       string `json:"category_slug"`
	Location           string `json:"location"`
	DirectedSupplierID string `json:"directed_supplier_id"`
}

// CreateEnquiry handles POST /v1/enquiries.
func (h *EnquiryHandler) CreateEnquiry(c *gin.Context) {
	var req createEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Same identity, same budget, regardless of email casing
	key := middleware.SubmissionKey(c.ClientIP(), req.Email)
	if !h.limiter.Allow(key) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many enquiries, please wait before trying again"})
		return
	}

	input := services.CreateEnquiryInput{
		Submission: services.EnquirySubmission{
			FullName:          req.FullName,
			Email:             req.Email,
			Phone:             req.Phone,
			ContactPreference: req.ContactPreference,
			EventType:         req.EventType,
			EventDate:         req.EventDate,
			GuestCount:        req.GuestCount,
			VenueKnown:        req.VenueKnown,
			VenueName:         req.VenueName,
			VenuePostcode:     req.VenuePostcode,
			Setting:           req.Setting,
			BudgetRange:       req.BudgetRange,
			ServingStyle:      req.ServingStyle,
			DietaryNotes:      req.DietaryNotes,
			Urgency:           req.Urgency,
			Message:           req.Message,
		},
		CategorySlug:   req.CategorySlug,
		LocationNeedle: req.Location,
	}
	if req.DirectedSupplierID != "" {
		supplierID, err := utils.ParseSixID(req.DirectedSupplierID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid directed_supplier_id"})
			return
		}
		input.DirectedSupplierID = &supplierID
	}

	result, err := h.enquiryService.CreateEnquiry(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enquiry_id":    result.Enquiry.ID.String(),
		"public_token":  result.Enquiry.PublicToken,
		"invited_count": result.InvitedCount,
		"quality_score": result.Score.Score,
		"hints":         result.Score.Hints,
		"flags":         result.Score.Flags,
	})
}

// GetEnquiryByToken handles GET /v1/enquiries/:token. The public token is the
// customer's only credential, so the response includes the quotes they can
// act on.
func (h *EnquiryHandler) GetEnquiryByToken(c *gin.Context) {
	enquiry, err := h.enquiryService.FindByPublicToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	quotes, err := h.quoteService.ListForEnquiry(c.Request.Context(), enquiry.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// The model hides action tokens from JSON, but the holder of the public
	// token is exactly who the action tokens are for.
	quoteViews := make([]gin.H, 0, len(quotes))
	for _, q := range quotes {
		quoteViews = append(quoteViews, gin.H{
			"quote":        q,
			"action_token": q.ActionToken,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"enquiry": enquiry,
		"quotes":  quoteViews,
	})
}
