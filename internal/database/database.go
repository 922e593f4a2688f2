package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Conceptual-Machines/magda-harmony/internal/models"
)

const (
	sqliteScheme    = "sqlite://"
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// ErrRunNotFound is returned by GetRun for unknown ids.
var ErrRunNotFound = errors.New("run not found")

// Store persists runs through gorm.
type Store struct {
	DB *gorm.DB
	db *sql.DB
}

// Open connects to the database named by url and migrates the schema.
// "postgres://" and "postgresql://" use Postgres, "sqlite://path" uses a
// SQLite file ("sqlite://:memory:" for an in-memory database).
func Open(url string) (*Store, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		dialector = postgres.Open(url)
	case strings.HasPrefix(url, sqliteScheme):
		path := strings.TrimPrefix(url, sqliteScheme)
		if path == "" {
			return nil, fmt.Errorf("sqlite url needs a path")
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", url)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	if strings.HasPrefix(url, sqliteScheme) {
		// One connection keeps an in-memory database alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.Run{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun inserts a run, assigning its id when empty.
func (s *Store) SaveRun(ctx context.Context, run *models.Run) error {
	if err := s.DB.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// GetRun loads one run with its payloads.
func (s *Store) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}
	return &run, nil
}

// RunFilter narrows ListRuns. Zero values mean no filter.
type RunFilter struct {
	Kind   string
	UserID string
	Limit  int
	Offset int
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]models.Run, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}
	limit = min(limit, maxRunLimit)

	q := s.DB.WithContext(ctx).Model(&models.Run{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}

	var runs []models.Run
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Offset(max(f.Offset, 0)).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}
