package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// UserUsecase implements admin-side user management and profile reads.
type UserUsecase struct {
	users   domain.UserRepository
	natsPub EventPublisher
	logger  *logger.Logger
}

// NewUserUsecase creates a new UserUsecase.
func NewUserUsecase(users domain.UserRepository, natsPub EventPublisher, log *logger.Logger) *UserUsecase {
	return &UserUsecase{
		users:   users,
		natsPub: natsPub,
		logger:  log.Named("UserUsecase"),
	}
}

// GetProfile returns the caller's own profile.
func (uc *UserUsecase) GetProfile(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return uc.users.FindByID(ctx, p.UserID)
}

// ListUsers returns all users. Admin only.
func (uc *UserUsecase) ListUsers(ctx context.Context, p domain.Principal) ([]*domain.User, error) {
	if !domain.IsAdmin(p) {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return uc.users.FindAll(ctx)
}

// UserUpdateInput holds the admin-editable user fields. Nil pointers
// leave the field untouched.
type UserUpdateInput struct {
	Name   *string
	Course *string
	Role   *domain.Role
	Status *domain.UserStatus
}

// UpdateUser applies an admin edit to a user account.
func (uc *UserUsecase) UpdateUser(ctx context.Context, p domain.Principal, userID string, in UserUpdateInput) (*domain.User, error) {
	uc.logger.Info("Updating user", zap.String("admin_user_id", p.UserID), zap.String("user_id", userID))

	if !domain.IsAdmin(p) {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	if in.Role != nil && !in.Role.IsValid() {
		return nil, fmt.Errorf("%w: invalid role '%s'", domain.ErrInvalidInput, *in.Role)
	}
	if in.Status != nil && !in.Status.IsValid() {
		return nil, fmt.Errorf("%w: invalid user status '%s'", domain.ErrInvalidInput, *in.Status)
	}

	user, err := uc.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Course != nil {
		user.Course = *in.Course
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.Status != nil {
		user.Status = *in.Status
	}

	if err := uc.users.Update(ctx, user); err != nil {
		uc.logger.Error("Failed to update user", zap.Error(err), zap.String("user_id", userID))
		return nil, err
	}

	eventData := map[string]interface{}{
		"user_id":    user.ID,
		"admin_id":   p.UserID,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "user.updated", eventData); err != nil {
		uc.logger.Warn("Failed to publish user.updated event to NATS", zap.Error(err), zap.String("user_id", user.ID))
	}
	return user, nil
}

// DeleteUser removes a user account. Admin only; admins cannot delete
// themselves.
func (uc *UserUsecase) DeleteUser(ctx context.Context, p domain.Principal, userID string) error {
	uc.logger.Info("Deleting user", zap.String("admin_user_id", p.UserID), zap.String("user_id", userID))

	if !domain.IsAdmin(p) {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	if p.UserID == userID {
		return fmt.Errorf("%w: admins cannot delete their own account", domain.ErrInvalidInput)
	}

	if err := uc.users.Delete(ctx, userID); err != nil {
		uc.logger.Error("Failed to delete user", zap.Error(err), zap.String("user_id", userID))
		return err
	}

	eventData := map[string]interface{}{
		"user_id":    userID,
		"admin_id":   p.UserID,
		"deleted_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := uc.natsPub.Publish(ctx, "user.deleted", eventData); err != nil {
		uc.logger.Warn("Failed to publish user.deleted event to NATS", zap.Error(err), zap.String("user_id", userID))
	}
	return nil
}
