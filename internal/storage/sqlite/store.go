// Package sqlite implements the post store on a local SQLite database.
// It is the fallback backend when NocoDB is not configured, and doubles as
// an offline archive for development.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/storage"
	"github.com/grepr-agent/pkg/logger"
)

// Store persists records in a local SQLite file
type Store struct {
	db       *gorm.DB
	pageSize int
	log      *logger.Logger
}

// New opens (and migrates) the SQLite store at the given DSN
func New(dsn string, pageSize int, log *logger.Logger) (*Store, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&models.Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{
		db:       db,
		pageSize: pageSize,
		log:      log.WithComponent("sqlite"),
	}, nil
}

// Name returns the backend name
func (s *Store) Name() string {
	return "sqlite"
}

// KnownIDs pages through the records table collecting reddit IDs. Fails
// soft like the remote backend.
func (s *Store) KnownIDs(ctx context.Context) map[string]struct{} {
	known := make(map[string]struct{})

	offset := 0
	for {
		var ids []string
		err := s.db.WithContext(ctx).
			Model(&models.Record{}).
			Order("reddit_id").
			Limit(s.pageSize).
			Offset(offset).
			Pluck("reddit_id", &ids).Error
		if err != nil {
			s.log.Warn().Err(err).Int("known", len(known)).Msg("Failed to list existing records, continuing with partial set")
			return known
		}

		for _, id := range ids {
			if id != "" {
				known[id] = struct{}{}
			}
		}

		if len(ids) < s.pageSize {
			break
		}
		offset += s.pageSize
	}

	s.log.Info().Int("known", len(known)).Msg("Loaded existing record IDs")
	return known
}

// Append inserts one record
func (s *Store) Append(ctx context.Context, rec *models.Record) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Close closes the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)
