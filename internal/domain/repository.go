package domain

import (
	"context"
	"time"
)

// AdFilter holds parameters for browsing ads. Search is a
// case-insensitive substring match over title and description; no
// ranking is applied.
type AdFilter struct {
	Search   string
	AuthorID string
}

// AdUpdate carries the mutable ad fields for a partial update. Nil
// pointers leave the field untouched.
type AdUpdate struct {
	Title          *string
	Category       *string
	Description    *string
	Price          *string
	Location       *string
	AvailableUntil *time.Time
	Status         *AdStatus
}

// IsEmpty reports whether no field is set.
func (u AdUpdate) IsEmpty() bool {
	return u.Title == nil && u.Category == nil && u.Description == nil &&
		u.Price == nil && u.Location == nil && u.AvailableUntil == nil && u.Status == nil
}

// AdRepository is the store port for ads and their embedded ratings and
// promotion fields. The store offers no multi-document transactions, so
// every operation that must uphold an aggregate invariant (rating
// upsert/remove with stats recompute, the original-price snapshot) is
// required to be a single atomic single-document write.
type AdRepository interface {
	Create(ctx context.Context, ad *Ad) error
	FindByID(ctx context.Context, id string) (*Ad, error)
	FindByFilter(ctx context.Context, filter AdFilter) ([]*Ad, error)
	UpdateFields(ctx context.Context, id string, upd AdUpdate) (*Ad, error)
	Delete(ctx context.Context, id string) error

	// UpsertRating atomically replaces-or-inserts the rater's rating and
	// recomputes AverageRating/RatingCount in the same write, so a
	// concurrent duplicate submission can never leave two ratings for
	// one user or stale aggregates.
	UpsertRating(ctx context.Context, adID string, rating *Rating) error
	// RemoveRating atomically removes the user's rating (no-op when
	// absent) and recomputes the aggregates.
	RemoveRating(ctx context.Context, adID, userID string) error
	// FindRatedBy returns every rating the user has left, joined with
	// the ad title.
	FindRatedBy(ctx context.Context, userID string) ([]*UserRating, error)

	// ActivatePromotion sets the promotion fields and captures
	// OriginalPrice from the current price only when no snapshot exists
	// yet, atomically, returning the updated ad.
	ActivatePromotion(ctx context.Context, adID, label string, expiresAt *time.Time) (*Ad, error)
	// DeactivatePromotion clears the promotion display fields, leaving
	// Price and OriginalPrice untouched, returning the updated ad.
	DeactivatePromotion(ctx context.Context, adID string) (*Ad, error)
}

// ReportRepository is the store port for abuse reports. Create must
// enforce the at-most-one-open-report-per-(ad, reporter) constraint at
// the store level (unique index over the open flag), not by pre-check.
type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	FindByID(ctx context.Context, id string) (*Report, error)
	FindAll(ctx context.Context) ([]*Report, error)
	FindByAd(ctx context.Context, adID string) ([]*Report, error)
	Update(ctx context.Context, report *Report) error
}

// UserRepository is the store port for users and their favorites set.
// AddFavorite must be a set insert (duplicate add is a no-op).
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error

	AddFavorite(ctx context.Context, userID, adID string) error
	RemoveFavorite(ctx context.Context, userID, adID string) error
	ListFavorites(ctx context.Context, userID string) ([]string, error)
}
