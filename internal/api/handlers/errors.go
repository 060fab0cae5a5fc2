package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gatherly/api/internal/api/middleware"
	"gatherly/api/internal/services"
	"gatherly/api/internal/utils"
)

// respondServiceError translates service-layer errors to HTTP responses.
// Validation failures carry the scorer's full verdict so the frontend can show
// field-level guidance.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"errors": validationErr.Result.Errors,
			"hints":  validationErr.Result.Hints,
			"flags":  validationErr.Result.Flags,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not your quote"})
	case errors.Is(err, services.ErrInsufficientCredits):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient credits"})
	case errors.Is(err, services.ErrNoLineItems):
		c.JSON(http.StatusConflict, gin.H{"error": "quote has no line items"})
	case errors.Is(err, services.ErrNotDraft):
		c.JSON(http.StatusConflict, gin.H{"error": "quote is not a draft"})
	case errors.Is(err, services.ErrNotEligible):
		c.JSON(http.StatusConflict, gin.H{"error": "supplier is not eligible to receive direct requests"})
	case errors.Is(err, services.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting update, please retry"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// supplierIDFromContext extracts the authenticated supplier's ID set by the
// auth middleware.
func supplierIDFromContext(c *gin.Context) (utils.SixID, bool) {
	raw, exists := c.Get(middleware.ContextKeySupplierID)
	if !exists {
		return utils.SixID{}, false
	}
	idStr, ok := raw.(string)
	if !ok {
		return utils.SixID{}, false
	}
	id, err := utils.ParseSixID(idStr)
	if err != nil {
		return utils.SixID{}, false
	}
	return id, true
}
