// Package storage persists finished calls with gorm over Postgres, the
// durable collaborator the controller hands each CallRecord to at teardown.
package storage

import (
	"context"
	"encoding/json"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver gorm.io/driver/postgres dials through
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lokutor-ai/lokutor-orchestrator/pkg/orchestrator"
)

// callRow is the gorm model backing persisted calls. Turns are stored as a
// JSON blob rather than a normalized child table: the history is read back
// whole (for the analysis collaborator) and never queried per-message.
type callRow struct {
	CallID     string `gorm:"primaryKey"`
	StartedAt  int64
	EndedAt    int64
	TurnsJSON  []byte
	SampleRate int
	Voice      string
	Language   string
	CreatedAt  time.Time
}

func (callRow) TableName() string { return "calls" }

type Store struct {
	db *gorm.DB
}

// Open connects to Postgres via the lib/pq driver gorm.io/driver/postgres
// wraps, and migrates the calls table.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&callRow{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// SaveCall persists one finished call. It is safe to call from the
// Controller's OnTeardown callback.
func (s *Store) SaveCall(ctx context.Context, record *orchestrator.CallRecord) error {
	turns, err := json.Marshal(record.Turns)
	if err != nil {
		return err
	}

	row := callRow{
		CallID:     record.CallID,
		StartedAt:  record.StartedAt,
		EndedAt:    record.EndedAt,
		TurnsJSON:  turns,
		SampleRate: record.SampleRate,
		Voice:      record.Voice,
		Language:   record.Language,
	}

	return s.db.WithContext(ctx).Save(&row).Error
}

// LoadCall retrieves one persisted call by ID, for the analysis collaborator.
func (s *Store) LoadCall(ctx context.Context, callID string) (*orchestrator.CallRecord, error) {
	var row callRow
	if err := s.db.WithContext(ctx).First(&row, "call_id = ?", callID).Error; err != nil {
		return nil, err
	}

	var turns []orchestrator.Message
	if err := json.Unmarshal(row.TurnsJSON, &turns); err != nil {
		return nil, err
	}

	return &orchestrator.CallRecord{
		CallID:     row.CallID,
		StartedAt:  row.StartedAt,
		EndedAt:    row.EndedAt,
		Turns:      turns,
		SampleRate: row.SampleRate,
		Voice:      row.Voice,
		Language:   row.Language,
	}, nil
}
