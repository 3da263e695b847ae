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

// RatingUsecase implements the business logic for ratings embedded in ads.
type RatingUsecase struct {
	ads     domain.AdRepository
	cache   AdCache
	natsPub EventPublisher
	logger  *logger.Logger
}

// NewRatingUsecase creates a new RatingUsecase. cache may be nil.
func NewRatingUsecase(ads domain.AdRepository, cache AdCache, natsPub EventPublisher, log *logger.Logger) *RatingUsecase {
	return &RatingUsecase{
		ads:     ads,
		cache:   cache,
		natsPub: natsPub,
		logger:  log.Named("RatingUsecase"),
	}
}

func (uc *RatingUsecase) invalidate(ctx context.Context, adID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, adID); err != nil {
		uc.logger.Warn("Ad cache invalidation failed", zap.Error(err), zap.String("ad_id", adID))
	}
}

// RatingSummary is the read model for an ad's rating list.
type RatingSummary struct {
	Ratings       []domain.Rating
	AverageRating float64
	RatingCount   int32
}

// SubmitRating creates or replaces the caller's rating of an ad. The
// replace is an upsert: a second submission by the same user overwrites
// the first instead of adding a row, and the repository performs the
// upsert and the aggregate recompute in one atomic write.
func (uc *RatingUsecase) SubmitRating(ctx context.Context, p domain.Principal, adID string, value int32, comment string) (*domain.Ad, error) {
	uc.logger.Info("Submitting rating",
		zap.String("ad_id", adID),
		zap.String("user_id", p.UserID),
		zap.Int32("rating", value))

	rating, err := domain.NewRating(p.UserID, value, comment)
	if err != nil {
		return nil, err
	}

	ad, err := uc.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad.AuthorID == p.UserID {
		uc.logger.Warn("User attempted to rate own ad", zap.String("ad_id", adID), zap.String("user_id", p.UserID))
		return nil, fmt.Errorf("%w: cannot rate your own ad", domain.ErrInvalidInput)
	}

	if err := uc.ads.UpsertRating(ctx, adID, rating); err != nil {
		uc.logger.Error("Failed to upsert rating", zap.Error(err), zap.String("ad_id", adID))
		return nil, err
	}
	uc.invalidate(ctx, adID)

	ad, err = uc.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}

	eventData := map[string]interface{}{
		"ad_id":          adID,
		"user_id":        p.UserID,
		"rating":         value,
		"average_rating": ad.AverageRating,
		"rating_count":   ad.RatingCount,
		"created_at":     rating.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "ad.rating.submitted", eventData); err != nil {
		uc.logger.Warn("Failed to publish ad.rating.submitted event to NATS", zap.Error(err), zap.String("ad_id", adID))
	}

	uc.logger.Info("Rating submitted successfully",
		zap.String("ad_id", adID),
		zap.Float64("average_rating", ad.AverageRating),
		zap.Int32("rating_count", ad.RatingCount))
	return ad, nil
}

// RemoveRating deletes the caller's rating of an ad. Removing a rating
// that does not exist is a no-op; the ad itself must still exist.
func (uc *RatingUsecase) RemoveRating(ctx context.Context, p domain.Principal, adID string) (*domain.Ad, error) {
	uc.logger.Info("Removing rating", zap.String("ad_id", adID), zap.String("user_id", p.UserID))

	if err := uc.ads.RemoveRating(ctx, adID, p.UserID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			uc.logger.Error("Failed to remove rating", zap.Error(err), zap.String("ad_id", adID))
		}
		return nil, err
	}
	uc.invalidate(ctx, adID)

	ad, err := uc.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}

	eventData := map[string]interface{}{
		"ad_id":          adID,
		"user_id":        p.UserID,
		"average_rating": ad.AverageRating,
		"rating_count":   ad.RatingCount,
		"removed_at":     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "ad.rating.removed", eventData); err != nil {
		uc.logger.Warn("Failed to publish ad.rating.removed event to NATS", zap.Error(err), zap.String("ad_id", adID))
	}

	return ad, nil
}

// ListRatings returns the full rating list of an ad together with its
// stored aggregates.
func (uc *RatingUsecase) ListRatings(ctx context.Context, adID string) (*RatingSummary, error) {
	ad, err := uc.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	return &RatingSummary{
		Ratings:       ad.Ratings,
		AverageRating: ad.AverageRating,
		RatingCount:   ad.RatingCount,
	}, nil
}

// ListUserRatings returns every rating the caller has left across ads.
func (uc *RatingUsecase) ListUserRatings(ctx context.Context, p domain.Principal) ([]*domain.UserRating, error) {
	uc.logger.Info("Listing ratings by user", zap.String("user_id", p.UserID))
	return uc.ads.FindRatedBy(ctx, p.UserID)
}
