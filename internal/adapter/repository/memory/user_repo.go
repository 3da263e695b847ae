package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/campusmarket/marketplace-service/internal/domain"
)

// UserRepository is an in-memory domain.UserRepository. Favorites are
// kept as a set under the repository lock.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

// NewUserRepository creates an empty in-memory user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func copyUser(user *domain.User) *domain.User {
	cp := *user
	cp.Favorites = make([]string, len(user.Favorites))
	copy(cp.Favorites, user.Favorites)
	return &cp
}

// Seed stores a user directly, for test setup.
func (r *UserRepository) Seed(user *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = copyUser(user)
}

// FindByID returns a copy of the stored user.
func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(user), nil
}

// FindAll returns all users, newest first.
func (r *UserRepository) FindAll(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, copyUser(user))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update writes the editable profile fields of a user.
func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Name = user.Name
	stored.Course = user.Course
	stored.Role = user.Role
	stored.Status = user.Status
	return nil
}

// Delete removes the user.
func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// AddFavorite adds an ad to the user's favorites set; repeats are no-ops.
func (r *UserRepository) AddFavorite(_ context.Context, userID, adID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, existing := range user.Favorites {
		if existing == adID {
			return nil
		}
	}
	user.Favorites = append(user.Favorites, adID)
	return nil
}

// RemoveFavorite removes an ad from the favorites set; removing an
// absent member is a no-op.
func (r *UserRepository) RemoveFavorite(_ context.Context, userID, adID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	kept := user.Favorites[:0]
	for _, existing := range user.Favorites {
		if existing != adID {
			kept = append(kept, existing)
		}
	}
	user.Favorites = kept
	return nil
}

// ListFavorites returns a copy of the user's favorites set.
func (r *UserRepository) ListFavorites(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]string, len(user.Favorites))
	copy(out, user.Favorites)
	return out, nil
}
