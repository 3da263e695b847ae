// Package favorites implements the client side of favorite
// synchronization: an optimistic local toggle that is either confirmed
// by the server or rolled back with a compensating flip.
package favorites

import (
	"context"
	"fmt"

	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ToggleState tracks one optimistic toggle. A toggle is Applied the
// moment the local set flips, then reaches exactly one terminal state:
// Confirmed when the server accepted it, RolledBack when the
// compensating flip undid it.
type ToggleState string

const (
	ToggleApplied    ToggleState = "applied"
	ToggleConfirmed  ToggleState = "confirmed"
	ToggleRolledBack ToggleState = "rolled_back"
)

// ToggleResult reports the outcome of one toggle.
type ToggleResult struct {
	AdID  string
	Added bool
	State ToggleState
}

// Gateway is the server-side favorites API seen by the syncer.
type Gateway interface {
	AddFavorite(ctx context.Context, adID string) error
	RemoveFavorite(ctx context.Context, adID string) error
	ListFavorites(ctx context.Context) ([]string, error)
}

// Store persists the local favorites set. The syncer writes to it only
// at terminal toggle states, so a crash mid-toggle replays from the
// last consistent set.
type Store interface {
	Load() ([]string, error)
	Save(favorites []string) error
}

// Syncer keeps a local favorites set optimistically in sync with the
// server. The server copy is authoritative: Refresh overwrites whatever
// the local set says.
type Syncer struct {
	key     string
	gateway Gateway
	store   Store
	logger  *logger.Logger

	favorites map[string]struct{}
}

// NewSyncer loads the persisted set and returns a syncer. key
// identifies the local profile; pass an empty key to get a fresh guest
// identity.
func NewSyncer(key string, gateway Gateway, store Store, log *logger.Logger) (*Syncer, error) {
	if key == "" {
		key = "guest-" + uuid.NewString()
	}

	s := &Syncer{
		key:       key,
		gateway:   gateway,
		store:     store,
		logger:    log.Named("FavoriteSyncer"),
		favorites: make(map[string]struct{}),
	}

	persisted, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted favorites: %w", err)
	}
	for _, adID := range persisted {
		s.favorites[adID] = struct{}{}
	}
	return s, nil
}

// Key returns the profile key the syncer was created with.
func (s *Syncer) Key() string {
	return s.key
}

// Contains reports whether the ad is in the local set.
func (s *Syncer) Contains(adID string) bool {
	_, ok := s.favorites[adID]
	return ok
}

// Favorites returns a copy of the local set.
func (s *Syncer) Favorites() []string {
	out := make([]string, 0, len(s.favorites))
	for adID := range s.favorites {
		out = append(out, adID)
	}
	return out
}

func (s *Syncer) apply(adID string, added bool) {
	if added {
		s.favorites[adID] = struct{}{}
	} else {
		delete(s.favorites, adID)
	}
}

// Toggle flips the ad's membership locally first, then confirms it with
// the server. On a server failure the flip is compensated and the set
// is back where it started; the error is absorbed after logging because
// the local state is already consistent again. The store is written
// only once the toggle reaches a terminal state.
func (s *Syncer) Toggle(ctx context.Context, adID string) ToggleResult {
	added := !s.Contains(adID)
	s.apply(adID, added)
	result := ToggleResult{AdID: adID, Added: added, State: ToggleApplied}

	var err error
	if added {
		err = s.gateway.AddFavorite(ctx, adID)
	} else {
		err = s.gateway.RemoveFavorite(ctx, adID)
	}

	if err != nil {
		s.apply(adID, !added)
		result.State = ToggleRolledBack
		s.logger.Warn("Favorite toggle rolled back after server failure",
			zap.String("ad_id", adID), zap.Bool("added", added), zap.Error(err))
	} else {
		result.State = ToggleConfirmed
	}

	if err := s.persist(); err != nil {
		s.logger.Warn("Failed to persist favorites", zap.Error(err))
	}
	return result
}

// Refresh replaces the local set with the server's authoritative copy.
func (s *Syncer) Refresh(ctx context.Context) error {
	serverSet, err := s.gateway.ListFavorites(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch favorites from server: %w", err)
	}

	s.favorites = make(map[string]struct{}, len(serverSet))
	for _, adID := range serverSet {
		s.favorites[adID] = struct{}{}
	}

	if err := s.persist(); err != nil {
		s.logger.Warn("Failed to persist favorites after refresh", zap.Error(err))
	}
	return nil
}

func (s *Syncer) persist() error {
	return s.store.Save(s.Favorites())
}
