package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const adCollectionName = "ads"

// AdRepository implements the domain.AdRepository interface using MongoDB.
// The store has no multi-document transactions, so every invariant over
// the embedded rating list and the promotion price snapshot is enforced
// inside a single update: aggregation-pipeline updates recompute the
// rating aggregates in the same write that changes the list.
type AdRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewAdRepository creates a new MongoDB ad repository.
func NewAdRepository(db *mongo.Database, log *logger.Logger) (*AdRepository, error) {
	collection := db.Collection(adCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "ratings.user_id", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Error("Failed to create indexes for ads collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for ads collection")
	}

	return &AdRepository{
		collection: collection,
		logger:     log.Named("AdRepository"),
	}, nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id '%s'", domain.ErrInvalidInput, id)
	}
	return oid, nil
}

// ratingStatsStage recomputes the denormalized aggregates from the
// ratings array in the same pipeline that mutated it: rating_count is
// the array size, average_rating the mean rounded to one decimal, 0
// when the array is empty.
func ratingStatsStage() bson.M {
	return bson.M{"$set": bson.M{
		"rating_count": bson.M{"$size": "$ratings"},
		"average_rating": bson.M{"$round": bson.A{
			bson.M{"$ifNull": bson.A{bson.M{"$avg": "$ratings.rating"}, 0}},
			1,
		}},
	}}
}

// Create inserts a new ad into the database.
func (r *AdRepository) Create(ctx context.Context, ad *domain.Ad) error {
	r.logger.Info("Creating ad in DB", zap.String("author_id", ad.AuthorID), zap.String("title", ad.Title))

	doc := fromDomainAd(ad)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	ad.ID = doc.ID
	if doc.Ratings == nil {
		doc.Ratings = []ratingDocument{}
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert ad into DB", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}
	r.logger.Info("Ad created successfully in DB", zap.String("ad_id", doc.ID.Hex()))
	return nil
}

// FindByID retrieves an ad by its ID.
func (r *AdRepository) FindByID(ctx context.Context, id string) (*domain.Ad, error) {
	r.logger.Debug("Getting ad by ID from DB", zap.String("ad_id", id))
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc adDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get ad by ID from DB", zap.Error(err), zap.String("ad_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainAd(), nil
}

// FindByFilter retrieves ads matching the filter, newest first.
func (r *AdRepository) FindByFilter(ctx context.Context, filter domain.AdFilter) ([]*domain.Ad, error) {
	r.logger.Debug("Finding ads from DB", zap.String("search", filter.Search), zap.String("author_id", filter.AuthorID))

	mongoQuery := bson.M{}
	if filter.AuthorID != "" {
		mongoQuery["author_id"] = filter.AuthorID
	}
	if filter.Search != "" {
		regex := primitive.Regex{Pattern: filter.Search, Options: "i"}
		mongoQuery["$or"] = bson.A{
			bson.M{"title": regex},
			bson.M{"description": regex},
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, mongoQuery, findOptions)
	if err != nil {
		r.logger.Error("Failed to find ads from DB", zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*adDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode ads from DB", zap.Error(err))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}

	ads := make([]*domain.Ad, len(docs))
	for i, doc := range docs {
		ads[i] = doc.toDomainAd()
	}
	return ads, nil
}

// UpdateFields applies a partial update and returns the updated ad.
func (r *AdRepository) UpdateFields(ctx context.Context, id string, upd domain.AdUpdate) (*domain.Ad, error) {
	r.logger.Info("Updating ad in DB", zap.String("ad_id", id))
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.AvailableUntil != nil {
		set["available_until"] = *upd.AvailableUntil
	}
	if upd.Status != nil {
		set["status"] = string(*upd.Status)
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	var doc adDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to update ad in DB", zap.Error(err), zap.String("ad_id", id))
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return doc.toDomainAd(), nil
}

// Delete removes an ad from the database. Reports referencing the ad
// are left untouched.
func (r *AdRepository) Delete(ctx context.Context, id string) error {
	r.logger.Info("Deleting ad from DB", zap.String("ad_id", id))
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.Error("Failed to delete ad from DB", zap.Error(err), zap.String("ad_id", id))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpsertRating replaces-or-inserts the user's rating and recomputes the
// aggregates in one pipeline update. The filter stage drops any prior
// rating by the same user before the new one is appended, so concurrent
// submissions by one user serialize at the document level and the last
// write wins with exactly one rating left in the array.
func (r *AdRepository) UpsertRating(ctx context.Context, adID string, rating *domain.Rating) error {
	r.logger.Info("Upserting rating in DB", zap.String("ad_id", adID), zap.String("user_id", rating.UserID))
	oid, err := parseObjectID(adID)
	if err != nil {
		return err
	}

	newRating := bson.M{
		"user_id":    rating.UserID,
		"rating":     rating.Value,
		"comment":    rating.Comment,
		"created_at": rating.CreatedAt,
	}
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"ratings": bson.M{"$concatArrays": bson.A{
				bson.M{"$filter": bson.M{
					"input": bson.M{"$ifNull": bson.A{"$ratings", bson.A{}}},
					"as":    "r",
					"cond":  bson.M{"$ne": bson.A{"$$r.user_id", rating.UserID}},
				}},
				// $literal keeps user-supplied strings from being read
				// as aggregation expressions.
				bson.A{bson.M{"$literal": newRating}},
			}},
		}},
		ratingStatsStage(),
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, pipeline)
	if err != nil {
		r.logger.Error("Failed to upsert rating in DB", zap.Error(err), zap.String("ad_id", adID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveRating drops the user's rating and recomputes the aggregates in
// one pipeline update. Removing a rating that is not present leaves the
// document unchanged; only a missing ad is an error.
func (r *AdRepository) RemoveRating(ctx context.Context, adID, userID string) error {
	r.logger.Info("Removing rating in DB", zap.String("ad_id", adID), zap.String("user_id", userID))
	oid, err := parseObjectID(adID)
	if err != nil {
		return err
	}

	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"ratings": bson.M{"$filter": bson.M{
				"input": bson.M{"$ifNull": bson.A{"$ratings", bson.A{}}},
				"as":    "r",
				"cond":  bson.M{"$ne": bson.A{"$$r.user_id", userID}},
			}},
		}},
		ratingStatsStage(),
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, pipeline)
	if err != nil {
		r.logger.Error("Failed to remove rating in DB", zap.Error(err), zap.String("ad_id", adID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindRatedBy returns every rating left by the user across all ads,
// joined with the ad title, newest first.
func (r *AdRepository) FindRatedBy(ctx context.Context, userID string) ([]*domain.UserRating, error) {
	r.logger.Debug("Finding ratings by user from DB", zap.String("user_id", userID))

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "ratings.user_id", Value: userID}}}},
		{{Key: "$unwind", Value: "$ratings"}},
		{{Key: "$match", Value: bson.D{{Key: "ratings.user_id", Value: userID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "ratings.created_at", Value: -1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "ad_id", Value: bson.M{"$toString": "$_id"}},
			{Key: "ad_title", Value: "$title"},
			{Key: "rating", Value: "$ratings.rating"},
			{Key: "comment", Value: "$ratings.comment"},
			{Key: "created_at", Value: "$ratings.created_at"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate ratings by user", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("db aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		AdID      string    `bson:"ad_id"`
		AdTitle   string    `bson:"ad_title"`
		Rating    int32     `bson:"rating"`
		Comment   string    `bson:"comment"`
		CreatedAt time.Time `bson:"created_at"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		r.logger.Error("Failed to decode ratings by user", zap.Error(err))
		return nil, fmt.Errorf("db cursor all for aggregate failed: %w", err)
	}

	ratings := make([]*domain.UserRating, len(rows))
	for i, row := range rows {
		ratings[i] = &domain.UserRating{
			AdID:      row.AdID,
			AdTitle:   row.AdTitle,
			Value:     row.Rating,
			Comment:   row.Comment,
			CreatedAt: row.CreatedAt,
		}
	}
	return ratings, nil
}

// ActivatePromotion sets the promotion fields in one pipeline update.
// original_price is captured from the current price only when absent,
// so concurrent or repeated activations can never overwrite the
// pre-promotion snapshot.
func (r *AdRepository) ActivatePromotion(ctx context.Context, adID, label string, expiresAt *time.Time) (*domain.Ad, error) {
	r.logger.Info("Activating promotion in DB", zap.String("ad_id", adID), zap.String("label", label))
	oid, err := parseObjectID(adID)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"promotion_active": true,
		"promotion_label":  bson.M{"$literal": label},
		"original_price":   bson.M{"$ifNull": bson.A{"$original_price", "$price"}},
	}
	if expiresAt != nil {
		set["promotion_expires_at"] = *expiresAt
	} else {
		set["promotion_expires_at"] = nil
	}

	var doc adDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.A{bson.M{"$set": set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to activate promotion in DB", zap.Error(err), zap.String("ad_id", adID))
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return doc.toDomainAd(), nil
}

// DeactivatePromotion clears the promotion display fields. price and
// original_price are deliberately not part of the update.
func (r *AdRepository) DeactivatePromotion(ctx context.Context, adID string) (*domain.Ad, error) {
	r.logger.Info("Deactivating promotion in DB", zap.String("ad_id", adID))
	oid, err := parseObjectID(adID)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set":   bson.M{"promotion_active": false},
		"$unset": bson.M{"promotion_label": "", "promotion_expires_at": ""},
	}

	var doc adDocument
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to deactivate promotion in DB", zap.Error(err), zap.String("ad_id", adID))
		return nil, fmt.Errorf("db update failed: %w", err)
	}
	return doc.toDomainAd(), nil
}
