package usecase

import (
	"context"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// FavoriteUsecase implements the server side of favorites: the user
// document's favorites set is the authoritative copy, and both add and
// remove are set operations so repeats never corrupt it.
type FavoriteUsecase struct {
	users   domain.UserRepository
	ads     domain.AdRepository
	natsPub EventPublisher
	logger  *logger.Logger
}

// NewFavoriteUsecase creates a new FavoriteUsecase.
func NewFavoriteUsecase(users domain.UserRepository, ads domain.AdRepository, natsPub EventPublisher, log *logger.Logger) *FavoriteUsecase {
	return &FavoriteUsecase{
		users:   users,
		ads:     ads,
		natsPub: natsPub,
		logger:  log.Named("FavoriteUsecase"),
	}
}

// AddFavorite adds an ad to the caller's favorites. Adding an ad that is
// already favorited is a no-op success.
func (uc *FavoriteUsecase) AddFavorite(ctx context.Context, p domain.Principal, adID string) error {
	uc.logger.Info("Adding favorite", zap.String("user_id", p.UserID), zap.String("ad_id", adID))

	if _, err := uc.ads.FindByID(ctx, adID); err != nil {
		return err
	}

	if err := uc.users.AddFavorite(ctx, p.UserID, adID); err != nil {
		uc.logger.Error("Failed to add favorite", zap.Error(err), zap.String("user_id", p.UserID), zap.String("ad_id", adID))
		return err
	}

	eventData := map[string]interface{}{
		"user_id":  p.UserID,
		"ad_id":    adID,
		"added_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "user.favorite.added", eventData); err != nil {
		uc.logger.Warn("Failed to publish user.favorite.added event to NATS", zap.Error(err), zap.String("user_id", p.UserID))
	}
	return nil
}

// RemoveFavorite removes an ad from the caller's favorites. Removing an
// ad that is not favorited is a no-op success, and no ad existence check
// is made so favorites of deleted ads stay removable.
func (uc *FavoriteUsecase) RemoveFavorite(ctx context.Context, p domain.Principal, adID string) error {
	uc.logger.Info("Removing favorite", zap.String("user_id", p.UserID), zap.String("ad_id", adID))

	if err := uc.users.RemoveFavorite(ctx, p.UserID, adID); err != nil {
		uc.logger.Error("Failed to remove favorite", zap.Error(err), zap.String("user_id", p.UserID), zap.String("ad_id", adID))
		return err
	}

	eventData := map[string]interface{}{
		"user_id":    p.UserID,
		"ad_id":      adID,
		"removed_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "user.favorite.removed", eventData); err != nil {
		uc.logger.Warn("Failed to publish user.favorite.removed event to NATS", zap.Error(err), zap.String("user_id", p.UserID))
	}
	return nil
}

// ListFavorites returns the authoritative favorites set of the caller.
func (uc *FavoriteUsecase) ListFavorites(ctx context.Context, p domain.Principal) ([]string, error) {
	return uc.users.ListFavorites(ctx, p.UserID)
}
