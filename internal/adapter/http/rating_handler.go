package http

import (
	"net/http"
	"time"

	"github.com/campusmarket/marketplace-service/internal/adapter/http/middleware"
	"github.com/gin-gonic/gin"
)

type submitRatingRequest struct {
	Rating  int32  `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

func (h *Handler) submitRating(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	var req submitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ad, err := h.ratings.SubmitRating(c.Request.Context(), p, c.Param("adId"), req.Rating, req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.RatingsSubmittedTotal.Inc()
	c.JSON(http.StatusOK, toAdResponse(ad))
}

func (h *Handler) removeRating(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	ad, err := h.ratings.RemoveRating(c.Request.Context(), p, c.Param("adId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.RatingsRemovedTotal.Inc()
	c.JSON(http.StatusOK, toAdResponse(ad))
}

func (h *Handler) listRatings(c *gin.Context) {
	summary, err := h.ratings.ListRatings(c.Request.Context(), c.Param("adId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	ratings := make([]ratingResponse, len(summary.Ratings))
	for i, r := range summary.Ratings {
		ratings[i] = ratingResponse{
			UserID:    r.UserID,
			Value:     r.Value,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"ratings":       ratings,
		"averageRating": summary.AverageRating,
		"ratingCount":   summary.RatingCount,
	})
}

func (h *Handler) listUserRatings(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	ratings, err := h.ratings.ListUserRatings(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	type userRatingResponse struct {
		AdID      string    `json:"adId"`
		AdTitle   string    `json:"adTitle"`
		Value     int32     `json:"value"`
		Comment   string    `json:"comment,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}
	out := make([]userRatingResponse, len(ratings))
	for i, r := range ratings {
		out[i] = userRatingResponse{
			AdID:      r.AdID,
			AdTitle:   r.AdTitle,
			Value:     r.Value,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}
