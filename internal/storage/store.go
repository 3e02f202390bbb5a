// Package storage defines the append-only post store and its backends
package storage

import (
	"context"

	"github.com/grepr-agent/internal/models"
)

// Store is the persistence contract for harvested posts. The store is
// append-only: records are never updated or deleted by the harvester.
type Store interface {
	// Name returns the backend name for logging
	Name() string

	// KnownIDs returns every post ID already present in the store. Fails
	// soft: on any backend error it returns what it has (possibly empty)
	// and logs a warning, because a duplicate risk beats aborting the
	// whole run.
	KnownIDs(ctx context.Context) map[string]struct{}

	// Append inserts one enriched record
	Append(ctx context.Context, rec *models.Record) error

	// Close releases backend resources
	Close() error
}
