package favorites

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	set      map[string]struct{}
	failNext bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{set: make(map[string]struct{})}
}

func (g *fakeGateway) AddFavorite(_ context.Context, adID string) error {
	if g.failNext {
		g.failNext = false
		return errors.New("server unavailable")
	}
	g.set[adID] = struct{}{}
	return nil
}

func (g *fakeGateway) RemoveFavorite(_ context.Context, adID string) error {
	if g.failNext {
		g.failNext = false
		return errors.New("server unavailable")
	}
	delete(g.set, adID)
	return nil
}

func (g *fakeGateway) ListFavorites(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(g.set))
	for adID := range g.set {
		out = append(out, adID)
	}
	return out, nil
}

func TestToggle_Confirmed(t *testing.T) {
	gateway := newFakeGateway()
	store := NewMemoryStore()
	syncer, err := NewSyncer("user-1", gateway, store, logger.NewNop())
	require.NoError(t, err)

	result := syncer.Toggle(context.Background(), "ad-1")
	assert.Equal(t, ToggleConfirmed, result.State)
	assert.True(t, result.Added)
	assert.True(t, syncer.Contains("ad-1"))

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"ad-1"}, persisted)

	// toggling again removes
	result = syncer.Toggle(context.Background(), "ad-1")
	assert.Equal(t, ToggleConfirmed, result.State)
	assert.False(t, result.Added)
	assert.False(t, syncer.Contains("ad-1"))
}

func TestToggle_RollbackOnServerFailure(t *testing.T) {
	gateway := newFakeGateway()
	store := NewMemoryStore()
	syncer, err := NewSyncer("user-1", gateway, store, logger.NewNop())
	require.NoError(t, err)

	gateway.failNext = true
	result := syncer.Toggle(context.Background(), "ad-1")

	// the optimistic flip was compensated: local and persisted state are
	// back where they started
	assert.Equal(t, ToggleRolledBack, result.State)
	assert.False(t, syncer.Contains("ad-1"))

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, persisted)

	// and the failure leaves the server untouched
	serverSet, err := gateway.ListFavorites(context.Background())
	require.NoError(t, err)
	assert.Empty(t, serverSet)
}

func TestToggle_RollbackOfRemove(t *testing.T) {
	gateway := newFakeGateway()
	store := NewMemoryStore()
	syncer, err := NewSyncer("user-1", gateway, store, logger.NewNop())
	require.NoError(t, err)

	syncer.Toggle(context.Background(), "ad-1")
	require.True(t, syncer.Contains("ad-1"))

	gateway.failNext = true
	result := syncer.Toggle(context.Background(), "ad-1")

	assert.Equal(t, ToggleRolledBack, result.State)
	assert.False(t, result.Added)
	assert.True(t, syncer.Contains("ad-1"), "failed remove must restore membership")
}

func TestRefresh_ServerIsAuthoritative(t *testing.T) {
	gateway := newFakeGateway()
	gateway.set["ad-server"] = struct{}{}
	store := NewMemoryStore()
	require.NoError(t, store.Save([]string{"ad-stale"}))

	syncer, err := NewSyncer("user-1", gateway, store, logger.NewNop())
	require.NoError(t, err)
	assert.True(t, syncer.Contains("ad-stale"))

	require.NoError(t, syncer.Refresh(context.Background()))
	assert.False(t, syncer.Contains("ad-stale"))
	assert.True(t, syncer.Contains("ad-server"))

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"ad-server"}, persisted)
}

func TestNewSyncer_GuestKey(t *testing.T) {
	syncer, err := NewSyncer("", newFakeGateway(), NewMemoryStore(), logger.NewNop())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(syncer.Key(), "guest-"))
	assert.Greater(t, len(syncer.Key()), len("guest-"))
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := t.TempDir() + "/favorites.json"
	store := NewFileStore(path)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, store.Save([]string{"a", "b"}))
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, loaded)

	require.NoError(t, store.Save(nil))
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
