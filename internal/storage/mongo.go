package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"martminer/internal/config"
	"martminer/internal/types"
)

// MongoSink mirrors enriched records into a MongoDB collection. It is an
// optional secondary sink; insert failures are the caller's to log, never
// fatal to a crawl.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoSink connects to MongoDB and pings it.
func NewMongoSink(cfg config.MongoConfig, logger *slog.Logger) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger.With("component", "mongo_sink"),
	}, nil
}

// Store inserts a category's records.
func (s *MongoSink) Store(ctx context.Context, records []types.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]any, len(records))
	now := time.Now()
	for i, rec := range records {
		docs[i] = map[string]any{
			"category":     rec.Category,
			"product_name": rec.ProductName,
			"product_url":  rec.ProductURL,
			"price":        rec.Price,
			"supplier":     rec.Supplier,
			"location":     rec.Location,
			"_harvested":   now,
		}
	}

	insertCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertMany(insertCtx, docs); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}

	s.logger.Debug("records mirrored to mongodb", "count", len(records))
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
