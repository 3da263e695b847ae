// Package http exposes the marketplace core over a gin REST API.
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"github.com/campusmarket/marketplace-service/internal/platform/metrics"
	"github.com/campusmarket/marketplace-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler bundles the usecases behind the REST endpoints.
type Handler struct {
	ads        *usecase.AdUsecase
	ratings    *usecase.RatingUsecase
	reports    *usecase.ReportUsecase
	promotions *usecase.PromotionUsecase
	favorites  *usecase.FavoriteUsecase
	users      *usecase.UserUsecase
	metrics    *metrics.Manager
	logger     *logger.Logger
}

// NewHandler creates the REST handler.
func NewHandler(
	ads *usecase.AdUsecase,
	ratings *usecase.RatingUsecase,
	reports *usecase.ReportUsecase,
	promotions *usecase.PromotionUsecase,
	favorites *usecase.FavoriteUsecase,
	users *usecase.UserUsecase,
	m *metrics.Manager,
	log *logger.Logger,
) *Handler {
	return &Handler{
		ads:        ads,
		ratings:    ratings,
		reports:    reports,
		promotions: promotions,
		favorites:  favorites,
		users:      users,
		metrics:    m,
		logger:     log.Named("HTTPHandler"),
	}
}

// respondError maps domain errors onto HTTP statuses: invalid input is
// 400, forbidden 403, not found 404, a duplicate open report 409 and
// everything else a 500 with the detail kept out of the response body.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, domain.ErrDuplicateReport):
		c.JSON(http.StatusConflict, gin.H{"error": "you already have an open report for this ad"})
	default:
		h.logger.Error("Unhandled error in HTTP handler", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

type ratingResponse struct {
	UserID    string    `json:"userId"`
	Value     int32     `json:"value"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type adResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category,omitempty"`
	Description    string    `json:"description,omitempty"`
	Price          string    `json:"price"`
	Location       string    `json:"location,omitempty"`
	AvailableUntil time.Time `json:"availableUntil"`
	AuthorID       string    `json:"authorId"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`

	Ratings       []ratingResponse `json:"ratings"`
	AverageRating float64          `json:"averageRating"`
	RatingCount   int32            `json:"ratingCount"`

	PromotionActive    bool       `json:"promotionActive"`
	PromotionLabel     string     `json:"promotionLabel,omitempty"`
	PromotionExpiresAt *time.Time `json:"promotionExpiresAt,omitempty"`
	OriginalPrice      string     `json:"originalPrice,omitempty"`
}

func toAdResponse(ad *domain.Ad) adResponse {
	resp := adResponse{
		ID:                 ad.ID.Hex(),
		Title:              ad.Title,
		Category:           ad.Category,
		Description:        ad.Description,
		Price:              ad.Price,
		Location:           ad.Location,
		AvailableUntil:     ad.AvailableUntil,
		AuthorID:           ad.AuthorID,
		Status:             string(ad.Status),
		CreatedAt:          ad.CreatedAt,
		Ratings:            make([]ratingResponse, len(ad.Ratings)),
		AverageRating:      ad.AverageRating,
		RatingCount:        ad.RatingCount,
		PromotionActive:    ad.PromotionActive,
		PromotionLabel:     ad.PromotionLabel,
		PromotionExpiresAt: ad.PromotionExpiresAt,
		OriginalPrice:      ad.OriginalPrice,
	}
	for i, r := range ad.Ratings {
		resp.Ratings[i] = ratingResponse{
			UserID:    r.UserID,
			Value:     r.Value,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
	}
	return resp
}

func toAdResponses(ads []*domain.Ad) []adResponse {
	out := make([]adResponse, len(ads))
	for i, ad := range ads {
		out[i] = toAdResponse(ad)
	}
	return out
}

type reportResponse struct {
	ID            string    `json:"id"`
	AdID          string    `json:"adId"`
	AdTitle       string    `json:"adTitle"`
	ReporterID    string    `json:"reporterId"`
	ReporterName  string    `json:"reporterName"`
	ReporterEmail string    `json:"reporterEmail"`
	Reason        string    `json:"reason"`
	Description   string    `json:"description,omitempty"`
	Status        string    `json:"status"`
	AdminNotes    string    `json:"adminNotes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toReportResponse(report *domain.Report) reportResponse {
	return reportResponse{
		ID:            report.ID.Hex(),
		AdID:          report.AdID,
		AdTitle:       report.AdTitle,
		ReporterID:    report.ReporterID,
		ReporterName:  report.ReporterName,
		ReporterEmail: report.ReporterEmail,
		Reason:        report.Reason,
		Description:   report.Description,
		Status:        string(report.Status),
		AdminNotes:    report.AdminNotes,
		CreatedAt:     report.CreatedAt,
		UpdatedAt:     report.UpdatedAt,
	}
}

func toReportResponses(reports []*domain.Report) []reportResponse {
	out := make([]reportResponse, len(reports))
	for i, report := range reports {
		out[i] = toReportResponse(report)
	}
	return out
}
