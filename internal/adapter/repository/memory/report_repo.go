package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportRepository is an in-memory domain.ReportRepository. Create
// enforces the open-report uniqueness under the same lock that inserts,
// matching the partial unique index of the Mongo adapter.
type ReportRepository struct {
	mu      sync.Mutex
	reports map[string]*domain.Report
}

// NewReportRepository creates an empty in-memory report repository.
func NewReportRepository() *ReportRepository {
	return &ReportRepository{reports: make(map[string]*domain.Report)}
}

func copyReport(report *domain.Report) *domain.Report {
	cp := *report
	return &cp
}

// Create stores a new report, rejecting a second open report for the
// same (ad, reporter) pair with domain.ErrDuplicateReport.
func (r *ReportRepository) Create(_ context.Context, report *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.reports {
		if existing.AdID == report.AdID && existing.ReporterID == report.ReporterID && existing.Status.IsOpen() {
			return domain.ErrDuplicateReport
		}
	}
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	r.reports[report.ID.Hex()] = copyReport(report)
	return nil
}

// FindByID returns a copy of the stored report.
func (r *ReportRepository) FindByID(_ context.Context, id string) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyReport(report), nil
}

// FindAll returns all reports, newest first.
func (r *ReportRepository) FindAll(_ context.Context) ([]*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Report, 0, len(r.reports))
	for _, report := range r.reports {
		out = append(out, copyReport(report))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// FindByAd returns the reports filed against one ad, newest first.
func (r *ReportRepository) FindByAd(_ context.Context, adID string) ([]*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Report
	for _, report := range r.reports {
		if report.AdID == adID {
			out = append(out, copyReport(report))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update writes the moderation fields of a report.
func (r *ReportRepository) Update(_ context.Context, report *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.reports[report.ID.Hex()]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status = report.Status
	stored.AdminNotes = report.AdminNotes
	stored.UpdatedAt = report.UpdatedAt
	return nil
}
