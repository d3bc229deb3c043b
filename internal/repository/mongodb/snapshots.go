package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
)

const snapshotsCollection = "daily_snapshots"

// SnapshotRepository archives one statistics snapshot per day in MongoDB.
type SnapshotRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

var _ repository.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository connects to MongoDB and verifies the connection.
func NewSnapshotRepository(ctx context.Context, uri string, dbName string) (*SnapshotRepository, error) {
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
		collName: snapshotsCollection,
	}, nil
}

func (r *SnapshotRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveDailySnapshot upserts the snapshot keyed by its day, so a rerun of the
// nightly job replaces rather than duplicates.
func (r *SnapshotRepository) SaveDailySnapshot(ctx context.Context, snapshot models.DailySnapshot) error {
	filter := bson.M{"date": snapshot.Date}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection().ReplaceOne(ctx, filter, snapshot, opts); err != nil {
		return fmt.Errorf("failed to save daily snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, limit int) ([]models.DailySnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.DailySnapshot
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode daily snapshots: %w", err)
	}
	return out, nil
}

// Close closes the MongoDB connection.
func (r *SnapshotRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
