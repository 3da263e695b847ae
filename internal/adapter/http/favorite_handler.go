package http

import (
	"net/http"

	"github.com/campusmarket/marketplace-service/internal/adapter/http/middleware"
	"github.com/gin-gonic/gin"
)

func (h *Handler) addFavorite(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	if err := h.favorites.AddFavorite(c.Request.Context(), p, c.Param("adId")); err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.FavoriteMutationsTotal.WithLabelValues("add").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "favorite added"})
}

func (h *Handler) removeFavorite(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	if err := h.favorites.RemoveFavorite(c.Request.Context(), p, c.Param("adId")); err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.FavoriteMutationsTotal.WithLabelValues("remove").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "favorite removed"})
}

func (h *Handler) listFavorites(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	favorites, err := h.favorites.ListFavorites(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if favorites == nil {
		favorites = []string{}
	}
	c.JSON(http.StatusOK, favorites)
}
