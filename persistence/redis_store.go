package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BaSui01/agentrelay/config"
)

// RedisStore persists handover records in Redis. Record bodies live in
// plain keys; sorted sets indexed by creation time serve session and
// full listings.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(storeCfg config.StoreConfig, redisCfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         redisCfg.Addr,
		Password:     redisCfg.Password,
		DB:           redisCfg.DB,
		PoolSize:     redisCfg.PoolSize,
		MinIdleConns: redisCfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	prefix := storeCfg.KeyPrefix
	if prefix == "" {
		prefix = "agentrelay:"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: prefix + "handover:",
	}, nil
}

func (s *RedisStore) recordKey(id string) string {
	return s.keyPrefix + "data:" + id
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return s.keyPrefix + "session:" + sessionID
}

func (s *RedisStore) allKey() string {
	return s.keyPrefix + "all"
}

// Create persists a new record and its index entries in one pipeline.
func (s *RedisStore) Create(ctx context.Context, record *HandoverRecord) error {
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

	exists, err := s.client.Exists(ctx, s.recordKey(stored.ID)).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return ErrInvalidInput
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling handover record: %w", err)
	}

	score := float64(stored.CreatedAt.UnixNano())
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.recordKey(stored.ID), data, 0)
	pipe.ZAdd(ctx, s.allKey(), redis.Z{Score: score, Member: stored.ID})
	if stored.SessionID != "" {
		pipe.ZAdd(ctx, s.sessionKey(stored.SessionID), redis.Z{Score: score, Member: stored.ID})
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Finalize moves a record to a terminal status exactly once.
func (s *RedisStore) Finalize(ctx context.Context, id string, outcome Outcome) error {
	if !outcome.Status.IsTerminal() {
		return ErrInvalidInput
	}

	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if record.Status.IsTerminal() {
		return ErrFinalized
	}

	applyOutcome(record, outcome)
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling handover record: %w", err)
	}
	return s.client.Set(ctx, s.recordKey(id), data, 0).Err()
}

// Get returns the record with the given id.
func (s *RedisStore) Get(ctx context.Context, id string) (*HandoverRecord, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var record HandoverRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns records matching the filter, newest first. The session
// index narrows the scan when the filter names a session.
func (s *RedisStore) List(ctx context.Context, filter Filter) ([]*HandoverRecord, error) {
	indexKey := s.allKey()
	if filter.SessionID != "" {
		indexKey = s.sessionKey(filter.SessionID)
	}

	// ZRevRange returns newest-first since scores are creation times.
	ids, err := s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*HandoverRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.Get(ctx, id)
		if err != nil {
			// Index entries can outlive deleted records briefly.
			continue
		}
		if matchesFilter(record, filter) {
			result = append(result, record)
		}
	}
	return page(result, filter), nil
}

// Delete removes one record and its index entries.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.recordKey(id))
	pipe.ZRem(ctx, s.allKey(), id)
	if record.SessionID != "" {
		pipe.ZRem(ctx, s.sessionKey(record.SessionID), id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Cleanup removes finalized records older than the given age.
func (s *RedisStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	max := fmt.Sprintf("%d", cutoff.UnixNano())

	ids, err := s.client.ZRangeByScore(ctx, s.allKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		record, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		if !record.Status.IsTerminal() {
			continue
		}
		at := record.CreatedAt
		if record.CompletedAt != nil {
			at = *record.CompletedAt
		}
		if !at.Before(cutoff) {
			continue
		}
		if err := s.Delete(ctx, id); err == nil {
			count++
		}
	}
	return count, nil
}

// Stats summarizes the store contents.
func (s *RedisStore) Stats(ctx context.Context) (*Stats, error) {
	records, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		StatusCounts: make(map[HandoverStatus]int64),
		AgentCounts:  make(map[string]int64),
	}
	var totalDuration time.Duration
	var finalized int64
	for _, record := range records {
		stats.Total++
		stats.StatusCounts[record.Status]++
		if record.ToAgentID != "" {
			stats.AgentCounts[record.ToAgentID]++
		}
		if record.Status.IsTerminal() {
			totalDuration += record.Duration
			finalized++
		}
	}
	if finalized > 0 {
		stats.AvgDuration = totalDuration / time.Duration(finalized)
	}
	return stats, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ HandoverStore = (*RedisStore)(nil)
