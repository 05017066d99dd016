package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/domain/models"
)

const (
	latestCollection = "latest_snapshots"

	enrollmentDocumentID = "enrollment"
	summaryDocumentID    = "summary"
)

// latestDocument wraps one latest view. The run id is carried as a string since
// the UUID is not encoded in the payload.
type latestDocument struct {
	ID          string    `bson:"_id"`
	RunID       string    `bson:"run_id"`
	ExtractedAt time.Time `bson:"extraction_timestamp"`
	UpdatedAt   time.Time `bson:"updated_at"`
	Payload     any       `bson:"payload"`
}

// SnapshotRepository mirrors the latest documents into MongoDB.
type SnapshotRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
	logger   *zap.Logger
}

// NewSnapshotRepository connects to MongoDB and verifies the connection.
func NewSnapshotRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*SnapshotRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &SnapshotRepository{
		client:   client,
		dbName:   dbName,
		collName: latestCollection,
		logger:   logger,
	}, nil
}

// Name identifies the writer in logs.
func (r *SnapshotRepository) Name() string { return "mongodb" }

// WriteLatest replaces both latest documents, inserting them on the first run.
func (r *SnapshotRepository) WriteLatest(ctx context.Context, run models.ExtractionRun, summary models.Summary) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	var errs []error
	for _, doc := range latestDocuments(run, summary, time.Now().UTC()) {
		_, err := collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to upsert %s document: %w", doc.ID, err))
			continue
		}
		r.logger.Debug("latest document upserted", zap.String("id", doc.ID), zap.String("run_id", doc.RunID))
	}
	return errors.Join(errs...)
}

func latestDocuments(run models.ExtractionRun, summary models.Summary, now time.Time) []latestDocument {
	return []latestDocument{
		{
			ID:          enrollmentDocumentID,
			RunID:       run.RunID.String(),
			ExtractedAt: run.ExtractedAt,
			UpdatedAt:   now,
			Payload:     run,
		},
		{
			ID:          summaryDocumentID,
			RunID:       summary.RunID.String(),
			ExtractedAt: summary.ExtractedAt,
			UpdatedAt:   now,
			Payload:     summary,
		},
	}
}

// Close closes the MongoDB connection.
func (r *SnapshotRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
