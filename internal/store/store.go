// Package store keeps the import history in a SQL database through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrUnsupportedDriver is returned by Connect for drivers other than sqlite and postgres.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// ImportRecord is one dataset import, live or mock.
type ImportRecord struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DatasetRef   string    `json:"datasetRef" gorm:"not null;size:255;index"`
	ProjectID    string    `json:"projectId" gorm:"not null;size:100;index"`
	Source       string    `json:"source" gorm:"not null;size:32"`
	DownloadPath string    `json:"downloadPath" gorm:"size:1024"`
	TotalRows    int       `json:"totalRows"`
	TotalColumns int       `json:"totalColumns"`
	DataQuality  string    `json:"dataQuality" gorm:"size:16"`
	CreatedAt    time.Time `json:"createdAt" gorm:"index"`
}

// BeforeCreate assigns a UUID when none is set.
func (r *ImportRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Store owns a lazily opened database handle. Connect is idempotent.
type Store struct {
	mu     sync.Mutex
	driver string
	dsn    string
	db     *gorm.DB
	logger *zap.Logger
}

// New returns an unconnected Store.
func New(driver, dsn string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{driver: driver, dsn: dsn, logger: logger.Named("store")}
}

// NewWithDB wraps an already opened handle and migrates the schema.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&ImportRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, logger: zap.NewNop()}, nil
}

// SupportedDriver reports whether name selects a known database driver.
func SupportedDriver(name string) bool {
	switch name {
	case "sqlite", "sqlite3", "postgres", "postgresql":
		return true
	}
	return false
}

func (s *Store) dialector() (gorm.Dialector, error) {
	switch s.driver {
	case "sqlite", "sqlite3":
		return sqlite.Open(s.dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(s.dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, s.driver)
	}
}

// Connect opens and migrates the database on first use and returns the
// same handle on every later call.
func (s *Store) Connect(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.WithContext(ctx), nil
	}
	dial, err := s.dialector()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.driver, err)
	}
	if dial.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// every sqlite connection to :memory: is a separate database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.WithContext(ctx).AutoMigrate(&ImportRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.logger.Info("database connected", zap.String("driver", s.driver))
	s.db = db
	return db.WithContext(ctx), nil
}

// Record inserts rec, assigning its ID and CreatedAt.
func (s *Store) Record(ctx context.Context, rec *ImportRecord) error {
	db, err := s.Connect(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(rec).Error; err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// List returns the newest imports first, optionally for one project.
func (s *Store) List(ctx context.Context, projectID string, limit int) ([]ImportRecord, error) {
	db, err := s.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := db.Model(&ImportRecord{}).Order("created_at DESC").Limit(limit)
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	var out []ImportRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return out, nil
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.Connect(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.db = nil
	return sqlDB.Close()
}
