package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// sessionRecord is the gorm model backing the SQLite store
type sessionRecord struct {
	ID                  string    `gorm:"primaryKey;type:varchar(26)"`
	UserID              string    `gorm:"not null"`
	UserType            string    `gorm:"not null"`
	ForcePasswordChange bool      `gorm:"not null;default:false"`
	Token               []byte    `gorm:"not null"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	ExpiresAt           time.Time `gorm:"not null;index"`
}

func (sessionRecord) TableName() string {
	return "sessions"
}

// SQLiteStore is the default session store, a single SQLite file
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the SQLite session database
func NewSQLiteStore(path string, zlog zerolog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	// WAL keeps concurrent request handling from tripping over writes
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save inserts or replaces a record
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	row := sessionRecord{
		ID:                  rec.ID,
		UserID:              rec.UserID,
		UserType:            rec.UserType,
		ForcePasswordChange: rec.ForcePasswordChange,
		Token:               rec.Token,
		CreatedAt:           rec.CreatedAt,
		ExpiresAt:           rec.ExpiresAt,
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// Get returns the record with the given ID, or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	var row sessionRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &Record{
		ID:                  row.ID,
		UserID:              row.UserID,
		UserType:            row.UserType,
		ForcePasswordChange: row.ForcePasswordChange,
		Token:               row.Token,
		CreatedAt:           row.CreatedAt,
		ExpiresAt:           row.ExpiresAt,
	}, nil
}

// Delete removes a record; deleting a missing record is a no-op
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&sessionRecord{}).Error
}

// DeleteExpired removes every record expired at or before now
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&sessionRecord{})
	return result.RowsAffected, result.Error
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
