package persistence

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/BaSui01/agentrelay/config"
)

// mongoDoc is the BSON mapping of a handover record. Duration is stored
// in milliseconds to keep the document numeric-friendly for aggregation.
type mongoDoc struct {
	ID              string     `bson:"_id"`
	SessionID       string     `bson:"session_id,omitempty"`
	TaskID          string     `bson:"task_id,omitempty"`
	FromAgentID     string     `bson:"from_agent_id"`
	ToAgentID       string     `bson:"to_agent_id"`
	Capability      string     `bson:"capability,omitempty"`
	Task            string     `bson:"task"`
	ContextSnapshot string     `bson:"context_snapshot,omitempty"`
	Status          string     `bson:"status"`
	Response        string     `bson:"response,omitempty"`
	Error           string     `bson:"error,omitempty"`
	Confidence      float64    `bson:"confidence"`
	DurationMS      int64      `bson:"duration_ms"`
	CreatedAt       time.Time  `bson:"created_at"`
	CompletedAt     *time.Time `bson:"completed_at,omitempty"`
}

func toDoc(r *HandoverRecord) *mongoDoc {
	return &mongoDoc{
		ID:              r.ID,
		SessionID:       r.SessionID,
		TaskID:          r.TaskID,
		FromAgentID:     r.FromAgentID,
		ToAgentID:       r.ToAgentID,
		Capability:      r.Capability,
		Task:            r.Task,
		ContextSnapshot: r.ContextSnapshot,
		Status:          string(r.Status),
		Response:        r.Response,
		Error:           r.Error,
		Confidence:      r.Confidence,
		DurationMS:      r.Duration.Milliseconds(),
		CreatedAt:       r.CreatedAt,
		CompletedAt:     r.CompletedAt,
	}
}

func (d *mongoDoc) toRecord() *HandoverRecord {
	return &HandoverRecord{
		ID:              d.ID,
		SessionID:       d.SessionID,
		TaskID:          d.TaskID,
		FromAgentID:     d.FromAgentID,
		ToAgentID:       d.ToAgentID,
		Capability:      d.Capability,
		Task:            d.Task,
		ContextSnapshot: d.ContextSnapshot,
		Status:          HandoverStatus(d.Status),
		Response:        d.Response,
		Error:           d.Error,
		Confidence:      d.Confidence,
		Duration:        time.Duration(d.DurationMS) * time.Millisecond,
		CreatedAt:       d.CreatedAt,
		CompletedAt:     d.CompletedAt,
	}
}

// MongoStore persists handover records in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(cfg config.MongoConfig) (*MongoStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	database := cfg.Database
	if database == "" {
		database = "agentrelay"
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "handovers"
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Create persists a new record in initiated state.
func (s *MongoStore) Create(ctx context.Context, record *HandoverRecord) error {
	if record == nil || record.ID == "" {
		return ErrInvalidInput
	}

	stored := *record
	if stored.Status == "" {
		stored.Status = StatusInitiated
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	_, err := s.collection.InsertOne(ctx, toDoc(&stored))
	if mongo.IsDuplicateKeyError(err) {
		return ErrInvalidInput
	}
	return err
}

// Finalize moves a record to a terminal status exactly once. The update
// filter requires the initiated status, so a second finalization cannot
// overwrite the first.
func (s *MongoStore) Finalize(ctx context.Context, id string, outcome Outcome) error {
	if !outcome.Status.IsTerminal() {
		return ErrInvalidInput
	}

	now := time.Now()
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(StatusInitiated)},
		bson.M{"$set": bson.M{
			"status":       string(outcome.Status),
			"response":     outcome.Response,
			"error":        outcome.Error,
			"confidence":   outcome.Confidence,
			"duration_ms":  outcome.Duration.Milliseconds(),
			"completed_at": now,
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		n, err := s.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrFinalized
	}
	return nil
}

// Get returns the record with the given id.
func (s *MongoStore) Get(ctx context.Context, id string) (*HandoverRecord, error) {
	var doc mongoDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toRecord(), nil
}

// List returns records matching the filter, newest first.
func (s *MongoStore) List(ctx context.Context, filter Filter) ([]*HandoverRecord, error) {
	query := bson.M{}
	if filter.SessionID != "" {
		query["session_id"] = filter.SessionID
	}
	if filter.ToAgentID != "" {
		query["to_agent_id"] = filter.ToAgentID
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, st := range filter.Status {
			statuses[i] = string(st)
		}
		query["status"] = bson.M{"$in": statuses}
	}
	created := bson.M{}
	if filter.CreatedAfter != nil {
		created["$gte"] = *filter.CreatedAfter
	}
	if filter.CreatedBefore != nil {
		created["$lt"] = *filter.CreatedBefore
	}
	if len(created) > 0 {
		query["created_at"] = created
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*HandoverRecord
	for cursor.Next(ctx) {
		var doc mongoDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, doc.toRecord())
	}
	return records, cursor.Err()
}

// Delete removes one record.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Cleanup removes finalized records older than the given age.
func (s *MongoStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := s.collection.DeleteMany(ctx, bson.M{
		"status":       bson.M{"$in": []string{string(StatusCompleted), string(StatusFailed)}},
		"completed_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return int(result.DeletedCount), nil
}

// Stats summarizes the store contents.
func (s *MongoStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		StatusCounts: make(map[HandoverStatus]int64),
		AgentCounts:  make(map[string]int64),
	}

	cursor, err := s.collection.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id": "$status",
			"n":   bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var group struct {
			ID string `bson:"_id"`
			N  int64  `bson:"n"`
		}
		if err := cursor.Decode(&group); err != nil {
			return nil, err
		}
		stats.StatusCounts[HandoverStatus(group.ID)] = group.N
		stats.Total += group.N
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	agents, err := s.collection.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"to_agent_id": bson.M{"$ne": ""}}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": "$to_agent_id",
			"n":   bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer agents.Close(ctx)
	for agents.Next(ctx) {
		var group struct {
			ID string `bson:"_id"`
			N  int64  `bson:"n"`
		}
		if err := agents.Decode(&group); err != nil {
			return nil, err
		}
		stats.AgentCounts[group.ID] = group.N
	}
	return stats, agents.Err()
}

// Ping checks the MongoDB connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ HandoverStore = (*MongoStore)(nil)
