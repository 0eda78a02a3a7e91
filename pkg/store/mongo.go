package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
)

// Mongo defaults.
const (
	DefaultDatabase   = "pypigraph"
	DefaultCollection = "runs"

	mongoTimeout = 10 * time.Second
)

// MongoConfig configures the MongoDB-backed run archive.
type MongoConfig struct {
	// URI is the MongoDB connection string, e.g. "mongodb://localhost:27017".
	URI string

	// Database defaults to "pypigraph".
	Database string

	// Collection defaults to "runs".
	Collection string

	// Timeout bounds connection establishment. Defaults to 10s.
	Timeout time.Duration
}

func (c MongoConfig) withDefaults() MongoConfig {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Timeout <= 0 {
		c.Timeout = mongoTimeout
	}
	return c
}

// MongoStore is a MongoDB-backed run archive.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and prepares the runs collection.
// The connection is verified with a ping, and a unique index on run_id is
// ensured so the same run cannot be archived twice.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongodb URI is required")
	}
	cfg = cfg.withDefaults()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect mongodb")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure run_id index: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

// Put archives a run.
func (s *MongoStore) Put(ctx context.Context, run Run) error {
	_, err := s.coll.InsertOne(ctx, run)
	if mongo.IsDuplicateKeyError(err) {
		return errors.New(errors.ErrCodeDuplicateRecord, "run already archived: %s", run.RunID)
	}
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *MongoStore) Get(ctx context.Context, runID string) (*Run, error) {
	var run Run
	err := s.coll.FindOne(ctx, bson.M{"run_id": runID}).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("find run %s: %w", runID, err)
	}
	return &run, nil
}

// List returns runs newest first. Summary tables are projected away to
// keep listings small.
func (s *MongoStore) List(ctx context.Context, limit int) ([]Run, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "run_id", Value: 1}}).
		SetProjection(bson.M{"summaries": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []Run
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return runs, nil
}

// Delete removes a run.
func (s *MongoStore) Delete(ctx context.Context, runID string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"run_id": runID})
	if err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	if result.DeletedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "run not found: %s", runID)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
