package http

import (
	"net/http"

	"github.com/campusmarket/marketplace-service/internal/adapter/http/middleware"
	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/gin-gonic/gin"
)

type submitReportRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}

// Both fields are optional: a request carrying only adminNotes updates
// the notes without touching the status.
type moderateReportRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

func (h *Handler) submitReport(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	var req submitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	report, err := h.reports.SubmitReport(c.Request.Context(), p, c.Param("adId"), req.Reason, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.ReportsCreatedTotal.Inc()
	c.JSON(http.StatusCreated, toReportResponse(report))
}

func (h *Handler) listReports(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	var (
		reports []*domain.Report
		err     error
	)
	if adID := c.Query("adId"); adID != "" {
		reports, err = h.reports.ListReportsForAd(c.Request.Context(), p, adID)
	} else {
		reports, err = h.reports.ListReports(c.Request.Context(), p)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReportResponses(reports))
}

func (h *Handler) moderateReport(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)

	var req moderateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	report, err := h.reports.Moderate(c.Request.Context(), p, c.Param("reportId"), domain.ReportStatus(req.Status), req.AdminNotes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.metrics.ReportsModeratedTotal.Inc()
	c.JSON(http.StatusOK, toReportResponse(report))
}
