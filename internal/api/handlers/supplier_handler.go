package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gatherly/api/internal/auth"
	"gatherly/api/internal/config"
	"gatherly/api/internal/services"
	"gatherly/api/internal/storage"
	"gatherly/api/internal/utils"
)

// IMediaEnqueuer schedules background processing of uploaded media.
type IMediaEnqueuer interface {
	EnqueueMediaProcess(ctx context.Context, s3Key, mediaID string) error
}

// SupplierHandler handles supplier account endpoints.
type SupplierHandler struct {
	cfg             *config.Config
	supplierService services.ISupplierService
	creditService   services.ICreditService
	enquiryService  services.IEnquiryService
	storageService  storage.IS3Storage
	mediaEnqueuer   IMediaEnqueuer
}

// NewSupplierHandler creates a new SupplierHandler.
func NewSupplierHandler(cfg *config.Config, supplierService services.ISupplierService, creditService services.ICreditService, enquiryService services.IEnquiryService, storageService storage.IS3Storage, mediaEnqueuer IMediaEnqueuer) *SupplierHandler {
	return &SupplierHandler{
		cfg:             cfg,
		supplierService: supplierService,
		creditService:   creditService,
		enquiryService:  enquiryService,
		storageService:  storageService,
		mediaEnqueuer:   mediaEnqueuer,
	}
}

type signupRequest struct {
	BusinessName string   `json:"business_name"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Categories   []string `json:"categories"`
}

// Signup handles POST /v1/suppliers/signup.
func (h *SupplierHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.BusinessName == "" || req.Email == "" || len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "business_name, email and a password of at least 8 characters are required"})
		return
	}

	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), req.BusinessName, req.Email, req.Password, req.Categories)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := auth.GenerateJWT(supplier.ID, false, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"supplier": supplier,
		"token":    token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /v1/suppliers/login.
func (h *SupplierHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	supplier, err := h.supplierService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// One message for both bad email and bad password
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateJWT(supplier.ID, false, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"supplier": supplier,
		"token":    token,
	})
}

// Me handles GET /v1/suppliers/me (supplier auth).
func (h *SupplierHandler) Me(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	candidate, err := h.supplierService.CandidateByID(c.Request.Context(), supplierID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"supplier":     candidate.Supplier,
		"publish_gate": candidate.Gate,
	})
}

// Invites handles GET /v1/suppliers/me/invites (supplier auth).
func (h *SupplierHandler) Invites(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	invites, err := h.enquiryService.ListInvitesForSupplier(c.Request.Context(), supplierID, 50)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// ViewInvite handles POST /v1/suppliers/me/invites/:enquiry_id/view (supplier auth).
func (h *SupplierHandler) ViewInvite(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	enquiryID, err := utils.ParseSixID(c.Param("enquiry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enquiry ID"})
		return
	}

	if _, err := h.enquiryService.FindInvite(c.Request.Context(), enquiryID, supplierID); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := h.enquiryService.MarkInviteViewed(c.Request.Context(), enquiryID, supplierID); err != nil {
		respondServiceError(c, err)
		return
	}

	enquiry, err := h.enquiryService.FindByID(c.Request.Context(), enquiryID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enquiry": enquiry})
}

type mediaUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// RequestMediaUpload handles POST /v1/suppliers/me/media (supplier auth). It
// returns a pre-signed S3 PUT URL, records the media, and schedules its
// background normalization.
func (h *SupplierHandler) RequestMediaUpload(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req mediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename required"})
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	uploadURL, objectKey, err := h.storageService.GeneratePresignedPutURL(c.Request.Context(), supplierID.String(), req.Filename, req.ContentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	media, err := h.supplierService.AddMedia(c.Request.Context(), supplierID, objectKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.mediaEnqueuer.EnqueueMediaProcess(c.Request.Context(), objectKey, media.ID.String()); err != nil {
		_ = c.Error(err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"media":      media,
		"upload_url": uploadURL,
	})
}

// Media handles GET /v1/suppliers/me/media (supplier auth).
func (h *SupplierHandler) Media(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	media, err := h.supplierService.ListMedia(c.Request.Context(), supplierID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": media})
}

type publishRequest struct {
	Published bool `json:"published"`
}

// SetPublished handles POST /v1/suppliers/me/publish (supplier auth).
func (h *SupplierHandler) SetPublished(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.supplierService.SetPublished(c.Request.Context(), supplierID, req.Published); err != nil {
		respondServiceError(c, err)
		return
	}

	candidate, err := h.supplierService.CandidateByID(c.Request.Context(), supplierID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"supplier":     candidate.Supplier,
		"publish_gate": candidate.Gate,
	})
}

// Credits handles GET /v1/suppliers/me/credits (supplier auth).
func (h *SupplierHandler) Credits(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	supplier, err := h.supplierService.FindByID(c.Request.Context(), supplierID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	transactions, err := h.creditService.ListTransactions(c.Request.Context(), supplierID, 50)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"credits_balance": supplier.CreditsBalance,
		"transactions":    transactions,
	})
}
