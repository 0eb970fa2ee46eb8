package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"aitrader/internal/decision"
	"aitrader/internal/engine"
)

// Store persists position snapshots and completed sessions in sqlite.
type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening session store failed: %w", err)
	}
	if err := db.AutoMigrate(&PositionModel{}, &SessionModel{}); err != nil {
		return nil, fmt.Errorf("migrating session store failed: %w", err)
	}
	return &Store{db: db}, nil
}

// EnsureSeed guarantees a cash-only starting snapshot exists for signature.
func (s *Store) EnsureSeed(ctx context.Context, signature string, cash float64) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&PositionModel{}).
		Where("signature = ?", signature).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.SavePositions(ctx, "1970-01-01", signature, map[string]float64{}, cash)
}

// SavePositions upserts the snapshot for (signature, date).
func (s *Store) SavePositions(ctx context.Context, date, signature string, holdings map[string]float64, cash float64) error {
	raw, err := json.Marshal(holdings)
	if err != nil {
		return err
	}
	row := PositionModel{
		Signature:     signature,
		Date:          date,
		Holdings:      raw,
		Cash:          cash,
		CreatedAtUnix: time.Now().Unix(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "signature"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"holdings", "cash", "created_at"}),
	}).Create(&row).Error
}

// InitPositions returns the latest snapshot at or before date. Satisfies
// market.PositionSource.
func (s *Store) InitPositions(ctx context.Context, date, signature string) (map[string]float64, float64, error) {
	var row PositionModel
	err := s.db.WithContext(ctx).
		Where("signature = ? AND date <= ?", signature, date).
		Order("date DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, fmt.Errorf("no position snapshot for %s at or before %s", signature, date)
	}
	if err != nil {
		return nil, 0, err
	}
	holdings := make(map[string]float64)
	if len(row.Holdings) > 0 {
		if err := json.Unmarshal(row.Holdings, &holdings); err != nil {
			return nil, 0, fmt.Errorf("corrupt holdings for %s/%s: %w", signature, row.Date, err)
		}
	}
	return holdings, row.Cash, nil
}

// SessionRecord is the storage-facing view of one finished session.
type SessionRecord struct {
	TraceID   string            `json:"trace_id"`
	Signature string            `json:"signature"`
	Date      string            `json:"date"`
	Decision  decision.Decision `json:"decision"`
	Envelope  engine.Envelope   `json:"-"`
	CreatedAt int64             `json:"created_at"`
}

func (s *Store) SaveSession(ctx context.Context, rec SessionRecord) error {
	row := SessionModel{
		TraceID:       rec.TraceID,
		Signature:     rec.Signature,
		Date:          rec.Date,
		Action:        rec.Decision.Action,
		Symbol:        rec.Decision.Symbol,
		Amount:        rec.Decision.Amount,
		Confidence:    rec.Decision.Confidence,
		Reasoning:     rec.Decision.Reasoning,
		CostUSD:       rec.Envelope.TotalCostUSD,
		DurationMS:    rec.Envelope.DurationMS,
		NumTurns:      rec.Envelope.NumTurns,
		ErrorKind:     rec.Envelope.ErrorKind,
		RawResult:     rec.Envelope.Result,
		CreatedAtUnix: time.Now().Unix(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trace_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"action", "symbol", "amount", "confidence", "reasoning", "cost_usd", "duration_ms", "num_turns", "error_kind", "raw_result"}),
	}).Create(&row).Error
}

// RecentSessions lists the newest sessions, optionally filtered by signature.
func (s *Store) RecentSessions(ctx context.Context, signature string, limit int) ([]SessionModel, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Model(&SessionModel{}).Order("created_at DESC").Limit(limit)
	if signature != "" {
		q = q.Where("signature = ?", signature)
	}
	var rows []SessionModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
