package domain

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportStatus represents the moderation state of an abuse report.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusInReview ReportStatus = "in_review"
	ReportStatusResolved ReportStatus = "resolved"
)

// IsValid checks if the ReportStatus is one of the defined constants.
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusInReview, ReportStatusResolved:
		return true
	}
	return false
}

// IsOpen reports whether the status counts toward the open-report
// uniqueness constraint on (ad, reporter).
func (s ReportStatus) IsOpen() bool {
	return s == ReportStatusPending || s == ReportStatusInReview
}

// CanTransitionTo encodes the forward-only moderation state machine:
// pending -> in_review, pending -> resolved, in_review -> resolved.
// resolved is terminal; regressions are never allowed.
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	switch s {
	case ReportStatusPending:
		return next == ReportStatusInReview || next == ReportStatusResolved
	case ReportStatusInReview:
		return next == ReportStatusResolved
	default:
		return false
	}
}

// Report is an abuse report against an ad. The ad title and reporter
// name/email are denormalized snapshots captured at creation time and
// never re-synced with later edits. A report outlives its ad: deleting
// the ad leaves the report as a valid, degraded moderation target.
type Report struct {
	ID            primitive.ObjectID
	AdID          string
	AdTitle       string
	ReporterID    string
	ReporterName  string
	ReporterEmail string
	Reason        string
	Description   string
	Status        ReportStatus
	AdminNotes    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewReport validates and builds a pending report, snapshotting the ad
// and reporter fields.
func NewReport(ad *Ad, reporter *User, reason, description string) (*Report, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: report reason cannot be empty", ErrInvalidInput)
	}
	now := time.Now().UTC()
	return &Report{
		ID:            primitive.NewObjectID(),
		AdID:          ad.ID.Hex(),
		AdTitle:       ad.Title,
		ReporterID:    reporter.ID,
		ReporterName:  reporter.Name,
		ReporterEmail: reporter.Email,
		Reason:        reason,
		Description:   description,
		Status:        ReportStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
