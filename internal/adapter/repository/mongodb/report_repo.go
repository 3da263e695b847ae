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

const reportCollectionName = "reports"

// ReportRepository implements the domain.ReportRepository interface
// using MongoDB. The at-most-one-open-report-per-(ad, reporter) rule is
// a partial unique index over the open flag, so it holds even when two
// submissions race: one insert wins, the other gets a duplicate key
// error.
type ReportRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewReportRepository creates a new MongoDB report repository.
func NewReportRepository(db *mongo.Database, log *logger.Logger) (*ReportRepository, error) {
	collection := db.Collection(reportCollectionName)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ad_id", Value: 1}, {Key: "reporter_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"open": true}),
		},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Error("Failed to create indexes for reports collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for reports collection")
	}

	return &ReportRepository{
		collection: collection,
		logger:     log.Named("ReportRepository"),
	}, nil
}

// Create inserts a new report. A duplicate open report for the same
// (ad, reporter) pair returns domain.ErrDuplicateReport.
func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	r.logger.Info("Creating report in DB", zap.String("ad_id", report.AdID), zap.String("reporter_id", report.ReporterID))

	doc := fromDomainReport(report)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	report.ID = doc.ID

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("Duplicate open report rejected by unique index",
				zap.String("ad_id", report.AdID), zap.String("reporter_id", report.ReporterID))
			return domain.ErrDuplicateReport
		}
		r.logger.Error("Failed to insert report into DB", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}
	r.logger.Info("Report created successfully in DB", zap.String("report_id", doc.ID.Hex()))
	return nil
}

// FindByID retrieves a report by its ID.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*domain.Report, error) {
	r.logger.Debug("Getting report by ID from DB", zap.String("report_id", id))
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc reportDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get report by ID from DB", zap.Error(err), zap.String("report_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainReport(), nil
}

// FindAll retrieves all reports, newest first.
func (r *ReportRepository) FindAll(ctx context.Context) ([]*domain.Report, error) {
	return r.find(ctx, bson.M{})
}

// FindByAd retrieves all reports filed against one ad, newest first.
func (r *ReportRepository) FindByAd(ctx context.Context, adID string) ([]*domain.Report, error) {
	return r.find(ctx, bson.M{"ad_id": adID})
}

func (r *ReportRepository) find(ctx context.Context, query bson.M) ([]*domain.Report, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		r.logger.Error("Failed to find reports from DB", zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*reportDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode reports from DB", zap.Error(err))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}

	reports := make([]*domain.Report, len(docs))
	for i, doc := range docs {
		reports[i] = doc.toDomainReport()
	}
	return reports, nil
}

// Update writes the moderation fields of a report. The open flag is
// recomputed from the status so the partial unique index always sees
// the current openness.
func (r *ReportRepository) Update(ctx context.Context, report *domain.Report) error {
	r.logger.Info("Updating report in DB", zap.String("report_id", report.ID.Hex()))
	if report.ID.IsZero() {
		return errors.New("cannot update report without ID")
	}

	updatePayload := bson.M{
		"$set": bson.M{
			"status":      string(report.Status),
			"open":        report.Status.IsOpen(),
			"admin_notes": report.AdminNotes,
			"updated_at":  report.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": report.ID}, updatePayload)
	if err != nil {
		r.logger.Error("Failed to update report in DB", zap.Error(err), zap.String("report_id", report.ID.Hex()))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
