package domain

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdStatus represents the lifecycle status of an ad. No process ever
// transitions it automatically; "expired" is either set explicitly or
// derived by readers from AvailableUntil.
type AdStatus string

const (
	AdStatusActive  AdStatus = "active"
	AdStatusSold    AdStatus = "sold"
	AdStatusExpired AdStatus = "expired"
)

// IsValid checks if the AdStatus is one of the defined constants.
func (s AdStatus) IsValid() bool {
	switch s {
	case AdStatusActive, AdStatusSold, AdStatusExpired:
		return true
	}
	return false
}

// MaxRatingCommentLength bounds the optional comment on a rating.
const MaxRatingCommentLength = 200

// Rating is a single user's rating of an ad, embedded in the ad
// document. At most one rating per (ad, user) may be observable at any
// instant, and a user never rates their own ad.
type Rating struct {
	UserID    string
	Value     int32
	Comment   string
	CreatedAt time.Time
}

// NewRating validates and builds a rating.
func NewRating(userID string, value int32, comment string) (*Rating, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userID cannot be empty", ErrInvalidInput)
	}
	if value < 1 || value > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if len(comment) > MaxRatingCommentLength {
		return nil, fmt.Errorf("%w: comment must be at most %d characters", ErrInvalidInput, MaxRatingCommentLength)
	}
	return &Rating{
		UserID:    userID,
		Value:     value,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Ad is a single time-boxed listing posted by a user.
type Ad struct {
	ID             primitive.ObjectID
	Title          string
	Category       string
	Description    string
	Price          string // display string, e.g. "R$ 25,00"
	Location       string
	AvailableUntil time.Time
	AuthorID       string
	Status         AdStatus
	CreatedAt      time.Time

	Ratings       []Rating
	AverageRating float64 // one-decimal mean of Ratings, 0 when empty
	RatingCount   int32   // always len(Ratings)

	PromotionActive    bool
	PromotionLabel     string
	PromotionExpiresAt *time.Time
	OriginalPrice      string // price snapshot, set at most once per promotion lifetime
}

// RecomputeRatingStats refreshes the derived aggregates from the
// embedded rating list: RatingCount == len(Ratings) and AverageRating
// is the one-decimal rounded mean, 0 when the list is empty.
func (a *Ad) RecomputeRatingStats() {
	a.RatingCount = int32(len(a.Ratings))
	if a.RatingCount == 0 {
		a.AverageRating = 0
		return
	}
	var sum int64
	for _, r := range a.Ratings {
		sum += int64(r.Value)
	}
	mean := float64(sum) / float64(a.RatingCount)
	a.AverageRating = math.Round(mean*10) / 10
}

// RatingBy returns the rating left by the given user, or nil.
func (a *Ad) RatingBy(userID string) *Rating {
	for i := range a.Ratings {
		if a.Ratings[i].UserID == userID {
			return &a.Ratings[i]
		}
	}
	return nil
}

// IsExpired derives the lazy expiry of the ad at read time.
func (a *Ad) IsExpired(now time.Time) bool {
	return a.Status == AdStatusExpired || now.After(a.AvailableUntil)
}

// PromotionExpired derives, at read time, whether an active promotion
// has passed its expiry. Nothing evaluates this against the clock on
// the write path.
func (a *Ad) PromotionExpired(now time.Time) bool {
	return a.PromotionActive && a.PromotionExpiresAt != nil && now.After(*a.PromotionExpiresAt)
}

// UserRating is a rating a user has left, joined with its ad title, for
// the "my ratings" listing.
type UserRating struct {
	AdID      string
	AdTitle   string
	Value     int32
	Comment   string
	CreatedAt time.Time
}
