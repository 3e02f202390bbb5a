package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/pkg/logger"
)

func TestLoad_MissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "progress.json"), logger.Nop())

	cp, err := store.Load()

	require.NoError(t, err)
	assert.Empty(t, cp.LastRun)
	assert.Zero(t, cp.TotalFetched)
	assert.NotNil(t, cp.Sources)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "data", "progress.json"), logger.Nop())

	cp := models.NewCheckpoint(nil)
	cp.LastRun = "2025-06-01"
	cp.TotalFetched = 42
	cp.SetProgress("vosfinances", models.SourceProgress{Fetched: 42, WindowIndex: 2})

	require.NoError(t, store.Save(cp))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", loaded.LastRun)
	assert.Equal(t, 42, loaded.TotalFetched)
	assert.Equal(t, models.SourceProgress{Fetched: 42, WindowIndex: 2}, loaded.Progress("vosfinances"))
}

func TestSave_ReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	store := New(path, logger.Nop())

	first := models.NewCheckpoint(nil)
	first.LastRun = "2025-06-01"
	require.NoError(t, store.Save(first))

	second := models.NewCheckpoint(nil)
	second.LastRun = "2025-06-02"
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", loaded.LastRun)

	// No temp file left behind
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path, logger.Nop()).Load()
	require.Error(t, err)
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	store := New(path, logger.Nop())

	require.NoError(t, store.Save(models.NewCheckpoint(nil)))
	require.NoError(t, store.Reset())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Resetting twice is fine
	require.NoError(t, store.Reset())
}
