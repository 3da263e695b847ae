// Package memory provides mutex-guarded in-memory repositories with the
// same atomicity contract as the MongoDB adapters. They back unit tests
// and local development without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdRepository is an in-memory domain.AdRepository. Each operation runs
// under one lock, mirroring the single-document atomicity of the Mongo
// pipeline updates.
type AdRepository struct {
	mu  sync.Mutex
	ads map[string]*domain.Ad
}

// NewAdRepository creates an empty in-memory ad repository.
func NewAdRepository() *AdRepository {
	return &AdRepository{ads: make(map[string]*domain.Ad)}
}

// checkAdID mirrors the Mongo adapter's id contract: a malformed id is
// ErrInvalidInput, a well-formed but unknown id is ErrNotFound.
func checkAdID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: invalid id '%s'", domain.ErrInvalidInput, id)
	}
	return nil
}

func copyAd(ad *domain.Ad) *domain.Ad {
	cp := *ad
	cp.Ratings = make([]domain.Rating, len(ad.Ratings))
	copy(cp.Ratings, ad.Ratings)
	if ad.PromotionExpiresAt != nil {
		t := *ad.PromotionExpiresAt
		cp.PromotionExpiresAt = &t
	}
	return &cp
}

// Create stores a new ad, assigning an ID when absent.
func (r *AdRepository) Create(_ context.Context, ad *domain.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ad.ID.IsZero() {
		ad.ID = primitive.NewObjectID()
	}
	r.ads[ad.ID.Hex()] = copyAd(ad)
	return nil
}

// FindByID returns a copy of the stored ad.
func (r *AdRepository) FindByID(_ context.Context, id string) (*domain.Ad, error) {
	if err := checkAdID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ad, ok := r.ads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAd(ad), nil
}

// FindByFilter returns matching ads, newest first.
func (r *AdRepository) FindByFilter(_ context.Context, filter domain.AdFilter) ([]*domain.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Ad
	search := strings.ToLower(filter.Search)
	for _, ad := range r.ads {
		if filter.AuthorID != "" && ad.AuthorID != filter.AuthorID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(ad.Title), search) &&
			!strings.Contains(strings.ToLower(ad.Description), search) {
			continue
		}
		out = append(out, copyAd(ad))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateFields applies a partial update and returns the updated ad.
func (r *AdRepository) UpdateFields(_ context.Context, id string, upd domain.AdUpdate) (*domain.Ad, error) {
	if err := checkAdID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ad, ok := r.ads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		ad.Title = *upd.Title
	}
	if upd.Category != nil {
		ad.Category = *upd.Category
	}
	if upd.Description != nil {
		ad.Description = *upd.Description
	}
	if upd.Price != nil {
		ad.Price = *upd.Price
	}
	if upd.Location != nil {
		ad.Location = *upd.Location
	}
	if upd.AvailableUntil != nil {
		ad.AvailableUntil = *upd.AvailableUntil
	}
	if upd.Status != nil {
		ad.Status = *upd.Status
	}
	return copyAd(ad), nil
}

// Delete removes the ad.
func (r *AdRepository) Delete(_ context.Context, id string) error {
	if err := checkAdID(id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ads[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.ads, id)
	return nil
}

// UpsertRating replaces-or-inserts the user's rating and recomputes the
// aggregates under one lock.
func (r *AdRepository) UpsertRating(_ context.Context, adID string, rating *domain.Rating) error {
	if err := checkAdID(adID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ad, ok := r.ads[adID]
	if !ok {
		return domain.ErrNotFound
	}

	kept := ad.Ratings[:0]
	for _, existing := range ad.Ratings {
		if existing.UserID != rating.UserID {
			kept = append(kept, existing)
		}
	}
	ad.Ratings = append(kept, *rating)
	ad.RecomputeRatingStats()
	return nil
}

// RemoveRating drops the user's rating and recomputes the aggregates.
// Removing an absent rating is a no-op.
func (r *AdRepository) RemoveRating(_ context.Context, adID, userID string) error {
	if err := checkAdID(adID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ad, ok := r.ads[adID]
	if !ok {
		return domain.ErrNotFound
	}

	kept := ad.Ratings[:0]
	for _, existing := range ad.Ratings {
		if existing.UserID != userID {
			kept = append(kept, existing)
		}
	}
	ad.Ratings = kept
	ad.RecomputeRatingStats()
	return nil
}

// FindRatedBy returns every rating the user has left, newest first.
func (r *AdRepository) FindRatedBy(_ context.Context, userID string) ([]*domain.UserRating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.UserRating
	for id, ad := range r.ads {
		for _, rating := range ad.Ratings {
			if rating.UserID == userID {
				out = append(out, &domain.UserRating{
					AdID:      id,
					AdTitle:   ad.Title,
					Value:     rating.Value,
					Comment:   rating.Comment,
					CreatedAt: rating.CreatedAt,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ActivatePromotion sets the promotion fields, snapshotting the price
// only when no snapshot exists.
func (r *AdRepository) ActivatePromotion(_ context.Context, adID, label string, expiresAt *time.Time) (*domain.Ad, error) {
	if err := checkAdID(adID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ad, ok := r.ads[adID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ad.PromotionActive = true
	ad.PromotionLabel = label
	if expiresAt != nil {
		t := *expiresAt
		ad.PromotionExpiresAt = &t
	} else {
		ad.PromotionExpiresAt = nil
	}
	if ad.OriginalPrice == "" {
		ad.OriginalPrice = ad.Price
	}
	return copyAd(ad), nil
}

// DeactivatePromotion clears the promotion display fields, leaving
// Price and OriginalPrice untouched.
func (r *AdRepository) DeactivatePromotion(_ context.Context, adID string) (*domain.Ad, error) {
	if err := checkAdID(adID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ad, ok := r.ads[adID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ad.PromotionActive = false
	ad.PromotionLabel = ""
	ad.PromotionExpiresAt = nil
	return copyAd(ad), nil
}
