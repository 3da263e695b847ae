package http

import (
	"net/http"

	"github.com/campusmarket/marketplace-service/internal/adapter/http/middleware"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter wires the REST routes. Public reads need no token; every
// mutation goes through RequireAuth, and the /admin surface adds
// RequireAdmin on top.
func NewRouter(h *Handler, jwtSecret, serviceName string, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.RequestLogging(log))
	if h.metrics != nil {
		router.Use(middleware.Metrics(h.metrics))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.RequireAuth(jwtSecret)
	admin := middleware.RequireAdmin()

	router.GET("/ads", h.listAds)
	router.GET("/ads/:adId", h.getAd)
	router.POST("/ads", auth, h.createAd)
	router.PATCH("/ads/:adId", auth, h.updateAd)
	router.DELETE("/ads/:adId", auth, h.deleteAd)
	router.GET("/my-ads", auth, h.listMyAds)

	router.GET("/ads/:adId/ratings", h.listRatings)
	router.POST("/ads/:adId/ratings", auth, h.submitRating)
	router.DELETE("/ads/:adId/ratings", auth, h.removeRating)
	router.GET("/user/ratings", auth, h.listUserRatings)

	router.POST("/ads/:adId/report", auth, h.submitReport)
	router.GET("/admin/reports", auth, admin, h.listReports)
	router.PATCH("/admin/reports/:reportId", auth, admin, h.moderateReport)

	router.GET("/user/favorites", auth, h.listFavorites)
	router.POST("/user/favorites/:adId", auth, h.addFavorite)
	router.DELETE("/user/favorites/:adId", auth, h.removeFavorite)

	router.POST("/ads/:adId/promotion", auth, h.activatePromotion)
	router.DELETE("/ads/:adId/promotion", auth, h.deactivatePromotion)

	router.GET("/user/profile", auth, h.getProfile)
	router.GET("/admin/users", auth, admin, h.listUsers)
	router.PATCH("/admin/users/:userId", auth, admin, h.updateUser)
	router.DELETE("/admin/users/:userId", auth, admin, h.deleteUser)

	return router
}
