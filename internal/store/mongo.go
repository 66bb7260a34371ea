package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/yourkin666/community/internal/activity"
)

const activityWriteTimeout = 2 * time.Second

// MongoActivityStore appends audit events to the "activity" collection.
type MongoActivityStore struct {
	col *mongo.Collection
	log *zap.Logger
}

func NewMongoActivityStore(db *mongo.Database, log *zap.Logger) *MongoActivityStore {
	return &MongoActivityStore{col: db.Collection("activity"), log: log}
}

// EnsureIndexes creates the lookup indexes used for per-user history.
func (s *MongoActivityStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}},
	})
	return err
}

// Record inserts e. Failures are logged, never returned.
func (s *MongoActivityStore) Record(ctx context.Context, e activity.Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activityWriteTimeout)
	defer cancel()

	if _, err := s.col.InsertOne(ctx, e); err != nil {
		s.log.Warn("record activity",
			zap.String("type", e.Type),
			zap.Int64("user_id", e.UserID),
			zap.Error(err),
		)
	}
}

// ListByUser returns the most recent events of userID, newest first.
func (s *MongoActivityStore) ListByUser(ctx context.Context, userID int64, limit int64) ([]activity.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []activity.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
