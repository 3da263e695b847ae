package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/campusmarket/marketplace-service/internal/adapter/http/middleware"
	"github.com/gin-gonic/gin"
)

type activatePromotionRequest struct {
	Label     string `json:"label"`
	ExpiresAt string `json:"expiresAt"`
}

func (h *Handler) activatePromotion(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	// both fields are optional, so an absent body is a valid request
	var req activatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ad, err := h.promotions.Activate(c.Request.Context(), p, c.Param("adId"), req.Label, req.ExpiresAt)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.PromotionsActivatedTotal.Inc()
	c.JSON(http.StatusOK, toAdResponse(ad))
}

func (h *Handler) deactivatePromotion(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	ad, err := h.promotions.Deactivate(c.Request.Context(), p, c.Param("adId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.PromotionsDeactivatedTotal.Inc()
	c.JSON(http.StatusOK, toAdResponse(ad))
}
