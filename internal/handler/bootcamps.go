package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type bootcampResponse struct {
	ID          uuid.UUID       `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	PriceNGN    decimal.Decimal `json:"priceNGN"`
	PriceUSD    decimal.Decimal `json:"priceUSD"`
	StartDate   *time.Time      `json:"startDate,omitempty"`
}

func (h *Handler) handleListBootcamps(c *gin.Context) {
	bootcamps, err := h.store.ListActiveBootcamps(c.Request.Context())
	if err != nil {
		slog.Error("list bootcamps failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	out := make([]bootcampResponse, 0, len(bootcamps))
	for _, b := range bootcamps {
		out = append(out, bootcampResponse{
			ID:          b.ID,
			Slug:        b.Slug,
			Title:       b.Title,
			Description: b.Description,
			PriceNGN:    b.PriceNGN,
			PriceUSD:    b.PriceUSD,
			StartDate:   b.StartDate,
		})
	}
	c.JSON(http.StatusOK, out)
}
