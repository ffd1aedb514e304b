package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// handoverRow is the gorm mapping of a handover record.
type handoverRow struct {
	ID              string `gorm:"primaryKey;size:64"`
	SessionID       string `gorm:"index;size:64"`
	TaskID          string `gorm:"size:64"`
	FromAgentID     string `gorm:"size:128"`
	ToAgentID       string `gorm:"index;size:128"`
	Capability      string `gorm:"size:64"`
	Task            string `gorm:"type:text"`
	ContextSnapshot string `gorm:"type:text"`
	Status          string `gorm:"index;size:16"`
	Response        string `gorm:"type:text"`
	Error           string `gorm:"type:text"`
	Confidence      float64
	DurationMS      int64
	CreatedAt       time.Time `gorm:"index"`
	CompletedAt     *time.Time
}

func (handoverRow) TableName() string { return "handovers" }

func toRow(r *HandoverRecord) *handoverRow {
	return &handoverRow{
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

func (row *handoverRow) toRecord() *HandoverRecord {
	return &HandoverRecord{
		ID:              row.ID,
		SessionID:       row.SessionID,
		TaskID:          row.TaskID,
		FromAgentID:     row.FromAgentID,
		ToAgentID:       row.ToAgentID,
		Capability:      row.Capability,
		Task:            row.Task,
		ContextSnapshot: row.ContextSnapshot,
		Status:          HandoverStatus(row.Status),
		Response:        row.Response,
		Error:           row.Error,
		Confidence:      row.Confidence,
		Duration:        time.Duration(row.DurationMS) * time.Millisecond,
		CreatedAt:       row.CreatedAt,
		CompletedAt:     row.CompletedAt,
	}
}

// DatabaseStore persists handover records in a SQL database through
// gorm. Schema management belongs to the migration package; AutoMigrate
// here only covers ad-hoc setups like tests.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open gorm handle.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if db == nil {
		return nil, ErrInvalidInput
	}
	return &DatabaseStore{db: db}, nil
}

// AutoMigrate creates the handovers table when it does not exist.
func (s *DatabaseStore) AutoMigrate() error {
	return s.db.AutoMigrate(&handoverRow{})
}

// Create persists a new record in initiated state.
func (s *DatabaseStore) Create(ctx context.Context, record *HandoverRecord) error {
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

	err := s.db.WithContext(ctx).Create(toRow(&stored)).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrInvalidInput
	}
	return err
}

// Finalize moves a record to a terminal status exactly once. The update
// is guarded by the current status, so concurrent finalizations cannot
// both win.
func (s *DatabaseStore) Finalize(ctx context.Context, id string, outcome Outcome) error {
	if !outcome.Status.IsTerminal() {
		return ErrInvalidInput
	}

	now := time.Now()
	result := s.db.WithContext(ctx).Model(&handoverRow{}).
		Where("id = ? AND status = ?", id, string(StatusInitiated)).
		Updates(map[string]interface{}{
			"status":       string(outcome.Status),
			"response":     outcome.Response,
			"error":        outcome.Error,
			"confidence":   outcome.Confidence,
			"duration_ms":  outcome.Duration.Milliseconds(),
			"completed_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the id is unknown or the record is already terminal.
		var count int64
		if err := s.db.WithContext(ctx).Model(&handoverRow{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrFinalized
	}
	return nil
}

// Get returns the record with the given id.
func (s *DatabaseStore) Get(ctx context.Context, id string) (*HandoverRecord, error) {
	var row handoverRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toRecord(), nil
}

// List returns records matching the filter, newest first.
func (s *DatabaseStore) List(ctx context.Context, filter Filter) ([]*HandoverRecord, error) {
	q := s.db.WithContext(ctx).Model(&handoverRow{}).Order("created_at DESC")
	if filter.SessionID != "" {
		q = q.Where("session_id = ?", filter.SessionID)
	}
	if filter.ToAgentID != "" {
		q = q.Where("to_agent_id = ?", filter.ToAgentID)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, st := range filter.Status {
			statuses[i] = string(st)
		}
		q = q.Where("status IN ?", statuses)
	}
	if filter.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []handoverRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]*HandoverRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toRecord()
	}
	return records, nil
}

// Delete removes one record.
func (s *DatabaseStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&handoverRow{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Cleanup removes finalized records older than the given age.
func (s *DatabaseStore) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	result := s.db.WithContext(ctx).
		Where("status IN ? AND completed_at < ?",
			[]string{string(StatusCompleted), string(StatusFailed)}, cutoff).
		Delete(&handoverRow{})
	return int(result.RowsAffected), result.Error
}

// Stats summarizes the store contents.
func (s *DatabaseStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		StatusCounts: make(map[HandoverStatus]int64),
		AgentCounts:  make(map[string]int64),
	}

	type statusCount struct {
		Status string
		N      int64
	}
	var byStatus []statusCount
	if err := s.db.WithContext(ctx).Model(&handoverRow{}).
		Select("status, count(*) as n").Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, sc := range byStatus {
		stats.StatusCounts[HandoverStatus(sc.Status)] = sc.N
		stats.Total += sc.N
	}

	type agentCount struct {
		ToAgentID string
		N         int64
	}
	var byAgent []agentCount
	if err := s.db.WithContext(ctx).Model(&handoverRow{}).
		Where("to_agent_id <> ''").
		Select("to_agent_id, count(*) as n").Group("to_agent_id").
		Scan(&byAgent).Error; err != nil {
		return nil, err
	}
	for _, ac := range byAgent {
		stats.AgentCounts[ac.ToAgentID] = ac.N
	}

	var avgMS float64
	if err := s.db.WithContext(ctx).Model(&handoverRow{}).
		Where("status IN ?", []string{string(StatusCompleted), string(StatusFailed)}).
		Select("COALESCE(AVG(duration_ms), 0)").
		Scan(&avgMS).Error; err != nil {
		return nil, err
	}
	stats.AvgDuration = time.Duration(avgMS) * time.Millisecond

	return stats, nil
}

// Ping checks the database connection.
func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *DatabaseStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ HandoverStore = (*DatabaseStore)(nil)
