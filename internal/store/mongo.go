package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"podcast-notes-go/internal/types"
)

// MongoStore keeps one document per podcast, keyed by the record id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo URI is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(Table),
		now:        time.Now,
	}, nil
}

// Insert stores rec as uploaded. The id must be set by the caller.
func (s *MongoStore) Insert(ctx context.Context, rec types.PodcastRecord) (string, error) {
	if rec.ID == "" {
		return "", fmt.Errorf("insert podcast: id is required")
	}
	if rec.ProcessingStatus == "" {
		rec.ProcessingStatus = types.StatusPending
	}
	now := s.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("insert podcast: %w", err)
	}
	return rec.ID, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, u types.StatusUpdate) error {
	cols, vals := columns(u)
	set := bson.M{"updated_at": s.now().UTC()}
	for i, col := range cols {
		set[col] = vals[i]
	}

	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update podcast %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*types.PodcastRecord, error) {
	var rec types.PodcastRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get podcast %s: %w", id, err)
	}
	return &rec, nil
}

func (s *MongoStore) List(ctx context.Context) ([]types.PodcastRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	defer cursor.Close(ctx)

	var out []types.PodcastRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
