package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gatherly/api/internal/models"
	"gatherly/api/internal/services"
	"gatherly/api/internal/utils"
)

// NotificationHandler serves in-app notifications.
type NotificationHandler struct {
	notificationService services.INotificationService
	enquiryService      services.IEnquiryService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService services.INotificationService, enquiryService services.IEnquiryService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		enquiryService:      enquiryService,
	}
}

// ListForSupplier handles GET /v1/notifications (supplier auth).
func (h *NotificationHandler) ListForSupplier(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	notifications, err := h.notificationService.ListForRecipient(c.Request.Context(), models.RecipientSupplier, supplierID, 50)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkRead handles POST /v1/notifications/:id/read (supplier auth).
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	supplierID, ok := supplierIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	notificationID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), notificationID, supplierID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListForCustomer handles GET /v1/enquiries/:token/notifications. The public
// token identifies the customer; their notifications are keyed by enquiry ID.
func (h *NotificationHandler) ListForCustomer(c *gin.Context) {
	enquiry, err := h.enquiryService.FindByPublicToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	notifications, err := h.notificationService.ListForRecipient(c.Request.Context(), models.RecipientCustomer, enquiry.ID, 50)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
