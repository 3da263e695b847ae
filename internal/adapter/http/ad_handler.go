package http

import (
	"net/http"
	"time"

	"github.com/campusmarket/marketplace-service/internal/adapter/http/middleware"
	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

type createAdRequest struct {
	Title          string    `json:"title" binding:"required"`
	Category       string    `json:"category"`
	Description    string    `json:"description"`
	Price          string    `json:"price" binding:"required"`
	Location       string    `json:"location"`
	AvailableUntil time.Time `json:"availableUntil" binding:"required"`
}

type updateAdRequest struct {
	Title          *string    `json:"title"`
	Category       *string    `json:"category"`
	Description    *string    `json:"description"`
	Price          *string    `json:"price"`
	Location       *string    `json:"location"`
	AvailableUntil *time.Time `json:"availableUntil"`
	Status         *string    `json:"status"`
}

func (h *Handler) createAd(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	var req createAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ad, err := h.ads.CreateAd(c.Request.Context(), p, usecase.CreateAdInput{
		Title:          req.Title,
		Category:       req.Category,
		Description:    req.Description,
		Price:          req.Price,
		Location:       req.Location,
		AvailableUntil: req.AvailableUntil,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAdResponse(ad))
}

func (h *Handler) listAds(c *gin.Context) {
	ads, err := h.ads.SearchAds(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdResponses(ads))
}

func (h *Handler) getAd(c *gin.Context) {
	ad, err := h.ads.GetAd(c.Request.Context(), c.Param("adId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdResponse(ad))
}

func (h *Handler) listMyAds(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	ads, err := h.ads.ListMyAds(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdResponses(ads))
}

func (h *Handler) updateAd(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	var req updateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	upd := domain.AdUpdate{
		Title:          req.Title,
		Category:       req.Category,
		Description:    req.Description,
		Price:          req.Price,
		Location:       req.Location,
		AvailableUntil: req.AvailableUntil,
	}
	if req.Status != nil {
		status := domain.AdStatus(*req.Status)
		upd.Status = &status
	}

	ad, err := h.ads.UpdateAd(c.Request.Context(), p, c.Param("adId"), upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdResponse(ad))
}

func (h *Handler) deleteAd(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	if err := h.ads.DeleteAd(c.Request.Context(), p, c.Param("adId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ad deleted"})
}
