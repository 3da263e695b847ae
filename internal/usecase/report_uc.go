package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// ReportUsecase implements the moderation workflow for abuse reports.
type ReportUsecase struct {
	reports domain.ReportRepository
	ads     domain.AdRepository
	users   domain.UserRepository
	natsPub EventPublisher
	mailer  Mailer
	logger  *logger.Logger
}

// NewReportUsecase creates a new ReportUsecase.
func NewReportUsecase(reports domain.ReportRepository, ads domain.AdRepository, users domain.UserRepository, natsPub EventPublisher, mailer Mailer, log *logger.Logger) *ReportUsecase {
	return &ReportUsecase{
		reports: reports,
		ads:     ads,
		users:   users,
		natsPub: natsPub,
		mailer:  mailer,
		logger:  log.Named("ReportUsecase"),
	}
}

// SubmitReport files an abuse report against an ad, snapshotting the ad
// title and the reporter's name and email at creation time. The store's
// unique index enforces at most one open report per (ad, reporter);
// a duplicate surfaces as ErrDuplicateReport even under concurrency.
func (uc *ReportUsecase) SubmitReport(ctx context.Context, p domain.Principal, adID, reason, description string) (*domain.Report, error) {
	uc.logger.Info("Submitting report",
		zap.String("ad_id", adID),
		zap.String("reporter_id", p.UserID),
		zap.String("reason", reason))

	ad, err := uc.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	reporter, err := uc.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	report, err := domain.NewReport(ad, reporter, reason, description)
	if err != nil {
		return nil, err
	}

	if err := uc.reports.Create(ctx, report); err != nil {
		if errors.Is(err, domain.ErrDuplicateReport) {
			uc.logger.Warn("Duplicate open report rejected", zap.String("ad_id", adID), zap.String("reporter_id", p.UserID))
			return nil, err
		}
		uc.logger.Error("Failed to save report", zap.Error(err), zap.String("ad_id", adID))
		return nil, fmt.Errorf("%w: failed to create report: %v", domain.ErrRepository, err)
	}

	eventData := map[string]interface{}{
		"report_id":   report.ID.Hex(),
		"ad_id":       report.AdID,
		"reporter_id": report.ReporterID,
		"reason":      report.Reason,
		"created_at":  report.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "ad.report.created", eventData); err != nil {
		uc.logger.Warn("Failed to publish ad.report.created event to NATS", zap.Error(err), zap.String("report_id", report.ID.Hex()))
	}

	uc.logger.Info("Report submitted successfully", zap.String("report_id", report.ID.Hex()))
	return report, nil
}

// Moderate advances a report through the forward-only state machine and
// optionally records admin notes. An empty newStatus keeps the current
// one, and setting the status it already has is a no-op on the state
// (notes may still change); any other target must be a legal forward
// transition. Admin only.
func (uc *ReportUsecase) Moderate(ctx context.Context, p domain.Principal, reportID string, newStatus domain.ReportStatus, adminNotes *string) (*domain.Report, error) {
	uc.logger.Info("Moderating report",
		zap.String("report_id", reportID),
		zap.String("admin_user_id", p.UserID),
		zap.String("new_status", string(newStatus)))

	if !domain.IsAdmin(p) {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	if newStatus != "" && !newStatus.IsValid() {
		return nil, fmt.Errorf("%w: invalid report status '%s'", domain.ErrInvalidInput, newStatus)
	}

	report, err := uc.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if newStatus == "" {
		newStatus = report.Status
	}
	if report.Status != newStatus && !report.Status.CanTransitionTo(newStatus) {
		uc.logger.Warn("Illegal report status transition rejected",
			zap.String("report_id", reportID),
			zap.String("from", string(report.Status)),
			zap.String("to", string(newStatus)))
		return nil, fmt.Errorf("%w: cannot transition report from '%s' to '%s'", domain.ErrInvalidInput, report.Status, newStatus)
	}

	oldStatus := report.Status
	report.Status = newStatus
	if adminNotes != nil {
		report.AdminNotes = *adminNotes
	}
	report.UpdatedAt = time.Now().UTC()

	if err := uc.reports.Update(ctx, report); err != nil {
		uc.logger.Error("Failed to update report", zap.Error(err), zap.String("report_id", reportID))
		return nil, err
	}

	eventData := map[string]interface{}{
		"report_id":    report.ID.Hex(),
		"ad_id":        report.AdID,
		"moderator_id": p.UserID,
		"old_status":   oldStatus,
		"new_status":   newStatus,
		"moderated_at": report.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "ad.report.moderated", eventData); err != nil {
		uc.logger.Warn("Failed to publish ad.report.moderated event to NATS", zap.Error(err), zap.String("report_id", report.ID.Hex()))
	}

	if oldStatus != domain.ReportStatusResolved && newStatus == domain.ReportStatusResolved && report.ReporterEmail != "" {
		if err := uc.mailer.SendReportResolved(ctx, report.ReporterEmail, report.ReporterName, report.AdTitle, report.AdminNotes); err != nil {
			uc.logger.Warn("Failed to send report resolved email", zap.Error(err), zap.String("report_id", report.ID.Hex()))
		}
	}

	uc.logger.Info("Report moderated successfully",
		zap.String("report_id", report.ID.Hex()),
		zap.String("new_status", string(newStatus)))
	return report, nil
}

// ListReports returns all reports for the moderation queue, newest
// first. Admin only.
func (uc *ReportUsecase) ListReports(ctx context.Context, p domain.Principal) ([]*domain.Report, error) {
	if !domain.IsAdmin(p) {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return uc.reports.FindAll(ctx)
}

// ListReportsForAd returns the reports filed against one ad. Admin only.
// The ad itself may already be deleted; its reports remain listable.
func (uc *ReportUsecase) ListReportsForAd(ctx context.Context, p domain.Principal, adID string) ([]*domain.Report, error) {
	if !domain.IsAdmin(p) {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return uc.reports.FindByAd(ctx, adID)
}
