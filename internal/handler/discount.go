package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devdesignhq/enroll/internal/domain"
)

type validateDiscountRequest struct {
	Code string `json:"code" binding:"required"`
}

// handleValidateDiscount is the strict pre-payment validator: unlike the
// silent fallback during reconciliation it tells the user exactly why a
// code cannot be used.
func (h *Handler) handleValidateDiscount(c *gin.Context) {
	var req validateDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Discount code is required"})
		return
	}

	discount, err := h.pricing.Validate(c.Request.Context(), req.Code, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDiscountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrDiscountInactive),
			errors.Is(err, domain.ErrDiscountNotYetValid),
			errors.Is(err, domain.ErrDiscountExpired),
			errors.Is(err, domain.ErrDiscountExhausted):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Error("discount validation failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":           true,
		"discountPercent": discount.DiscountPercent,
		"description":     discount.Description,
	})
}
