package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/config"
)

// MemoryStore keeps handover records in process memory. Suitable for
// development and single-node runs; records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*HandoverRecord
	closed  bool

	cleanupDone chan struct{}
	cleanupOnce sync.Once
	logger      *zap.Logger
}

// NewMemoryStore creates a memory store. When cleanup is enabled in the
// config a background loop removes finalized records past retention.
func NewMemoryStore(cfg config.StoreConfig, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MemoryStore{
		records:     make(map[string]*HandoverRecord),
		cleanupDone: make(chan struct{}),
		logger:      logger.With(zap.String("component", "memory_handover_store")),
	}
	if cfg.CleanupEnabled && cfg.CleanupInterval > 0 {
		go s.cleanupLoop(cfg.CleanupInterval, cfg.Retention)
	}
	return s
}

// Create persists a new record in initiated state.
func (s *MemoryStore) Create(ctx context.Context, record *HandoverRecord) error {
	if record == nil || record.ID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, exists := s.records[record.ID]; exists {
		return ErrInvalidInput
	}

	stored := *record
	if stored.Status == "" {
		stored.Status = StatusInitiated
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.records[record.ID] = &stored
	return nil
}

// Finalize moves a record to a terminal status exactly once.
func (s *MemoryStore) Finalize(ctx context.Context, id string, outcome Outcome) error {
	if !outcome.Status.IsTerminal() {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	record, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if record.Status.IsTerminal() {
		return ErrFinalized
	}

	applyOutcome(record, outcome)
	return nil
}

// Get returns a copy of the record with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*HandoverRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *record
	return &cp, nil
}

// List returns records matching the filter, newest first.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]*HandoverRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	result := make([]*HandoverRecord, 0)
	for _, record := range s.records {
		if matchesFilter(record, filter) {
			cp := *record
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return page(result, filter), nil
}

// Delete removes one record.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Cleanup removes finalized records older than the given age.
func (s *MemoryStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	cutoff := time.Now().Add(-olderThan)
	count := 0
	for id, record := range s.records {
		if !record.Status.IsTerminal() {
			continue
		}
		at := record.CreatedAt
		if record.CompletedAt != nil {
			at = *record.CompletedAt
		}
		if at.Before(cutoff) {
			delete(s.records, id)
			count++
		}
	}
	return count, nil
}

// Stats summarizes the store contents.
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	stats := &Stats{
		StatusCounts: make(map[HandoverStatus]int64),
		AgentCounts:  make(map[string]int64),
	}
	var totalDuration time.Duration
	var finalized int64
	for _, record := range s.records {
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

// Ping checks store health.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close stops the cleanup loop and rejects further operations.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cleanupOnce.Do(func() { close(s.cleanupDone) })
	return nil
}

func (s *MemoryStore) cleanupLoop(interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.cleanupDone:
			return
		case <-ticker.C:
			n, err := s.Cleanup(context.Background(), retention)
			if err != nil {
				return
			}
			if n > 0 {
				s.logger.Debug("cleaned up handover records", zap.Int("removed", n))
			}
		}
	}
}

var _ HandoverStore = (*MemoryStore)(nil)
