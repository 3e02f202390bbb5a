// Package checkpoint persists harvest progress between invocations
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/pkg/logger"
)

// Store reads and writes the checkpoint file. Saves are atomic: a crash
// mid-write leaves the previous checkpoint intact.
type Store struct {
	path string
	log  *logger.Logger
}

// New creates a checkpoint store at the given path
func New(path string, log *logger.Logger) *Store {
	return &Store{
		path: path,
		log:  log.WithComponent("checkpoint"),
	}
}

// Load reads the checkpoint. A missing file is not an error: the harvest
// simply starts from scratch.
func (s *Store) Load() (*models.Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Debug().Str("path", s.path).Msg("No checkpoint file, starting fresh")
			return models.NewCheckpoint(nil), nil
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	if cp.Sources == nil {
		cp.Sources = make(map[string]models.SourceProgress)
	}
	return &cp, nil
}

// Save writes the checkpoint via a temp file and rename
func (s *Store) Save(cp *models.Checkpoint) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}

	s.log.Debug().Str("path", s.path).Int("total_fetched", cp.TotalFetched).Msg("Checkpoint saved")
	return nil
}

// Reset removes the checkpoint file so the next run starts over
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove checkpoint: %w", err)
	}
	return nil
}
