package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// AdCache is a read-through cache over single-ad lookups. Get returns
// (nil, nil) on a miss; a nil AdCache is valid and disables caching.
type AdCache interface {
	Get(ctx context.Context, adID string) (*domain.Ad, error)
	Set(ctx context.Context, ad *domain.Ad) error
	Invalidate(ctx context.Context, adID string) error
}

// AdUsecase implements the ad lifecycle: create, read, search, update,
// delete. Every mutation is gated by the same ownership predicate.
type AdUsecase struct {
	ads     domain.AdRepository
	cache   AdCache
	natsPub EventPublisher
	logger  *logger.Logger
}

// NewAdUsecase creates a new AdUsecase. cache may be nil.
func NewAdUsecase(ads domain.AdRepository, cache AdCache, natsPub EventPublisher, log *logger.Logger) *AdUsecase {
	return &AdUsecase{
		ads:     ads,
		cache:   cache,
		natsPub: natsPub,
		logger:  log.Named("AdUsecase"),
	}
}

// CreateAdInput holds the input parameters for creating an ad.
type CreateAdInput struct {
	Title          string
	Category       string
	Description    string
	Price          string
	Location       string
	AvailableUntil time.Time
}

// CreateAd creates a new ad authored by the caller.
func (uc *AdUsecase) CreateAd(ctx context.Context, p domain.Principal, in CreateAdInput) (*domain.Ad, error) {
	uc.logger.Info("Creating ad", zap.String("user_id", p.UserID), zap.String("title", in.Title))

	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Price) == "" {
		return nil, fmt.Errorf("%w: price cannot be empty", domain.ErrInvalidInput)
	}
	if in.AvailableUntil.IsZero() {
		return nil, fmt.Errorf("%w: availableUntil is required", domain.ErrInvalidInput)
	}

	ad := &domain.Ad{
		Title:          in.Title,
		Category:       in.Category,
		Description:    in.Description,
		Price:          in.Price,
		Location:       in.Location,
		AvailableUntil: in.AvailableUntil.UTC(),
		AuthorID:       p.UserID,
		Status:         domain.AdStatusActive,
		CreatedAt:      time.Now().UTC(),
	}

	if err := uc.ads.Create(ctx, ad); err != nil {
		uc.logger.Error("Failed to save ad", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to create ad: %v", domain.ErrRepository, err)
	}

	eventData := map[string]interface{}{
		"ad_id":      ad.ID.Hex(),
		"author_id":  ad.AuthorID,
		"title":      ad.Title,
		"created_at": ad.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "ad.created", eventData); err != nil {
		uc.logger.Warn("Failed to publish ad.created event to NATS", zap.Error(err), zap.String("ad_id", ad.ID.Hex()))
	}

	uc.logger.Info("Ad created successfully", zap.String("ad_id", ad.ID.Hex()))
	return ad, nil
}

// GetAd retrieves a single ad, serving from the cache when possible.
func (uc *AdUsecase) GetAd(ctx context.Context, adID string) (*domain.Ad, error) {
	if uc.cache != nil {
		ad, err := uc.cache.Get(ctx, adID)
		if err != nil {
			uc.logger.Warn("Ad cache read failed", zap.Error(err), zap.String("ad_id", adID))
		} else if ad != nil {
			return ad, nil
		}
	}

	ad, err := uc.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, ad); err != nil {
			uc.logger.Warn("Ad cache write failed", zap.Error(err), zap.String("ad_id", adID))
		}
	}
	return ad, nil
}

// SearchAds lists ads, optionally filtered by a search term.
func (uc *AdUsecase) SearchAds(ctx context.Context, search string) ([]*domain.Ad, error) {
	return uc.ads.FindByFilter(ctx, domain.AdFilter{Search: search})
}

// ListMyAds lists the ads authored by the caller.
func (uc *AdUsecase) ListMyAds(ctx context.Context, p domain.Principal) ([]*domain.Ad, error) {
	return uc.ads.FindByFilter(ctx, domain.AdFilter{AuthorID: p.UserID})
}

// UpdateAd partially updates an ad the caller may mutate.
func (uc *AdUsecase) UpdateAd(ctx context.Context, p domain.Principal, adID string, upd domain.AdUpdate) (*domain.Ad, error) {
	uc.logger.Info("Updating ad", zap.String("ad_id", adID), zap.String("user_id", p.UserID))

	if upd.Status != nil && !upd.Status.IsValid() {
		return nil, fmt.Errorf("%w: invalid ad status '%s'", domain.ErrInvalidInput, *upd.Status)
	}

	ad, err := uc.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutateAd(p, ad) {
		uc.logger.Warn("User forbidden to update ad", zap.String("ad_id", adID), zap.String("user_id", p.UserID))
		return nil, fmt.Errorf("%w: only the ad owner or an admin may update it", domain.ErrForbidden)
	}

	if upd.IsEmpty() {
		return ad, nil
	}

	ad, err = uc.ads.UpdateFields(ctx, adID, upd)
	if err != nil {
		uc.logger.Error("Failed to update ad", zap.Error(err), zap.String("ad_id", adID))
		return nil, err
	}

	uc.invalidate(ctx, adID)

	eventData := map[string]interface{}{
		"ad_id":      adID,
		"user_id":    p.UserID,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "ad.updated", eventData); err != nil {
		uc.logger.Warn("Failed to publish ad.updated event to NATS", zap.Error(err), zap.String("ad_id", adID))
	}
	return ad, nil
}

// DeleteAd removes an ad the caller may mutate. Reports filed against
// the ad are intentionally left in place for the moderation queue.
func (uc *AdUsecase) DeleteAd(ctx context.Context, p domain.Principal, adID string) error {
	uc.logger.Info("Deleting ad", zap.String("ad_id", adID), zap.String("user_id", p.UserID))

	ad, err := uc.ads.FindByID(ctx, adID)
	if err != nil {
		return err
	}
	if !domain.CanMutateAd(p, ad) {
		uc.logger.Warn("User forbidden to delete ad", zap.String("ad_id", adID), zap.String("user_id", p.UserID))
		return fmt.Errorf("%w: only the ad owner or an admin may delete it", domain.ErrForbidden)
	}

	if err := uc.ads.Delete(ctx, adID); err != nil {
		uc.logger.Error("Failed to delete ad", zap.Error(err), zap.String("ad_id", adID))
		return err
	}

	uc.invalidate(ctx, adID)

	eventData := map[string]interface{}{
		"ad_id":      adID,
		"user_id":    p.UserID,
		"deleted_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "ad.deleted", eventData); err != nil {
		uc.logger.Warn("Failed to publish ad.deleted event to NATS", zap.Error(err), zap.String("ad_id", adID))
	}

	uc.logger.Info("Ad deleted successfully", zap.String("ad_id", adID))
	return nil
}

func (uc *AdUsecase) invalidate(ctx context.Context, adID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, adID); err != nil {
		uc.logger.Warn("Ad cache invalidation failed", zap.Error(err), zap.String("ad_id", adID))
	}
}
