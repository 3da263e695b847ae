package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// DefaultPromotionLabel is applied when an activation request carries no
// label of its own.
const DefaultPromotionLabel = "Promoção"

// PromotionUsecase implements promotion activation and deactivation on ads.
type PromotionUsecase struct {
	ads     domain.AdRepository
	cache   AdCache
	natsPub EventPublisher
	logger  *logger.Logger
}

// NewPromotionUsecase creates a new PromotionUsecase. cache may be nil.
func NewPromotionUsecase(ads domain.AdRepository, cache AdCache, natsPub EventPublisher, log *logger.Logger) *PromotionUsecase {
	return &PromotionUsecase{
		ads:     ads,
		cache:   cache,
		natsPub: natsPub,
		logger:  log.Named("PromotionUsecase"),
	}
}

func (uc *PromotionUsecase) invalidate(ctx context.Context, adID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, adID); err != nil {
		uc.logger.Warn("Ad cache invalidation failed", zap.Error(err), zap.String("ad_id", adID))
	}
}

// Activate turns on the promotion flag for an ad the caller may mutate.
// An empty label falls back to DefaultPromotionLabel and expiresAt, when
// present, must be RFC3339. The original-price snapshot is taken only if
// none exists, so re-activating an already promoted ad never overwrites
// the pre-promotion price.
func (uc *PromotionUsecase) Activate(ctx context.Context, p domain.Principal, adID, label, expiresAt string) (*domain.Ad, error) {
	uc.logger.Info("Activating promotion",
		zap.String("ad_id", adID),
		zap.String("user_id", p.UserID),
		zap.String("label", label))

	var expiry *time.Time
	if expiresAt != "" {
		t, err := time.Parse(time.RFC3339, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("%w: expiresAt must be RFC3339: %v", domain.ErrInvalidInput, err)
		}
		t = t.UTC()
		expiry = &t
	}
	if label == "" {
		label = DefaultPromotionLabel
	}

	ad, err := uc.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutateAd(p, ad) {
		uc.logger.Warn("User forbidden to promote ad", zap.String("ad_id", adID), zap.String("user_id", p.UserID))
		return nil, fmt.Errorf("%w: only the ad owner or an admin may manage promotions", domain.ErrForbidden)
	}

	ad, err = uc.ads.ActivatePromotion(ctx, adID, label, expiry)
	if err != nil {
		uc.logger.Error("Failed to activate promotion", zap.Error(err), zap.String("ad_id", adID))
		return nil, err
	}
	uc.invalidate(ctx, adID)

	eventData := map[string]interface{}{
		"ad_id":          adID,
		"user_id":        p.UserID,
		"label":          label,
		"original_price": ad.OriginalPrice,
		"activated_at":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if expiry != nil {
		eventData["expires_at"] = expiry.Format(time.RFC3339Nano)
	}
	if err := uc.natsPub.Publish(ctx, "ad.promotion.activated", eventData); err != nil {
		uc.logger.Warn("Failed to publish ad.promotion.activated event to NATS", zap.Error(err), zap.String("ad_id", adID))
	}

	uc.logger.Info("Promotion activated successfully", zap.String("ad_id", adID))
	return ad, nil
}

// Deactivate clears the promotion display fields of an ad the caller may
// mutate. Price and the original-price snapshot are left untouched;
// price restoration is the owner's editorial decision, not an automatic
// side effect.
func (uc *PromotionUsecase) Deactivate(ctx context.Context, p domain.Principal, adID string) (*domain.Ad, error) {
	uc.logger.Info("Deactivating promotion", zap.String("ad_id", adID), zap.String("user_id", p.UserID))

	ad, err := uc.ads.FindByID(ctx, adID)
	if err != nil {
		return nil, err
	}
	if !domain.CanMutateAd(p, ad) {
		uc.logger.Warn("User forbidden to manage promotion", zap.String("ad_id", adID), zap.String("user_id", p.UserID))
		return nil, fmt.Errorf("%w: only the ad owner or an admin may manage promotions", domain.ErrForbidden)
	}

	ad, err = uc.ads.DeactivatePromotion(ctx, adID)
	if err != nil {
		uc.logger.Error("Failed to deactivate promotion", zap.Error(err), zap.String("ad_id", adID))
		return nil, err
	}
	uc.invalidate(ctx, adID)

	eventData := map[string]interface{}{
		"ad_id":          adID,
		"user_id":        p.UserID,
		"deactivated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "ad.promotion.deactivated", eventData); err != nil {
		uc.logger.Warn("Failed to publish ad.promotion.deactivated event to NATS", zap.Error(err), zap.String("ad_id", adID))
	}

	return ad, nil
}
