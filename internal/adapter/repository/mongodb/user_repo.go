package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const userCollectionName = "users"

// UserRepository implements the domain.UserRepository interface using
// MongoDB. Favorites are a set on the user document, mutated only with
// $addToSet and $pull so repeats and races cannot create duplicates.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewUserRepository creates a new MongoDB user repository.
func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{
		collection: db.Collection(userCollectionName),
		logger:     log.Named("UserRepository"),
	}
}

// FindByID retrieves a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.logger.Debug("Getting user by ID from DB", zap.String("user_id", id))

	var doc userDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get user by ID from DB", zap.Error(err), zap.String("user_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainUser(), nil
}

// FindAll retrieves all users, newest first.
func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		r.logger.Error("Failed to find users from DB", zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*userDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode users from DB", zap.Error(err))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}

	users := make([]*domain.User, len(docs))
	for i, doc := range docs {
		users[i] = doc.toDomainUser()
	}
	return users, nil
}

// Update writes the editable profile fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.logger.Info("Updating user in DB", zap.String("user_id", user.ID))

	updatePayload := bson.M{
		"$set": bson.M{
			"name":   user.Name,
			"course": user.Course,
			"role":   string(user.Role),
			"status": string(user.Status),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, updatePayload)
	if err != nil {
		r.logger.Error("Failed to update user in DB", zap.Error(err), zap.String("user_id", user.ID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a user from the database.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.logger.Info("Deleting user from DB", zap.String("user_id", id))

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete user from DB", zap.Error(err), zap.String("user_id", id))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddFavorite adds an ad to the user's favorites set. $addToSet makes a
// repeated add a no-op.
func (r *UserRepository) AddFavorite(ctx context.Context, userID, adID string) error {
	r.logger.Debug("Adding favorite in DB", zap.String("user_id", userID), zap.String("ad_id", adID))

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"favorites": adID}},
	)
	if err != nil {
		r.logger.Error("Failed to add favorite in DB", zap.Error(err), zap.String("user_id", userID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveFavorite removes an ad from the user's favorites set. $pull of
// an absent member is a no-op.
func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, adID string) error {
	r.logger.Debug("Removing favorite in DB", zap.String("user_id", userID), zap.String("ad_id", adID))

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"favorites": adID}},
	)
	if err != nil {
		r.logger.Error("Failed to remove favorite in DB", zap.Error(err), zap.String("user_id", userID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListFavorites returns the user's favorites set.
func (r *UserRepository) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Favorites, nil
}
