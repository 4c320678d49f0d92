package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gridscout/internal/logging"

	"go.uber.org/zap"
)

// ErrNoDataset is returned when no unified dataset exists for an event.
var ErrNoDataset = fmt.Errorf("dataset: no unified dataset for event")

// Repository reads and writes unified dataset files under a directory,
// keeping parsed datasets cached until the file changes on disk.
type Repository struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*Dataset
}

// NewRepository creates a repository rooted at dir, creating it if needed.
func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}
	return &Repository{
		dir:   dir,
		cache: make(map[string]*Dataset),
	}, nil
}

// Dir returns the dataset directory.
func (r *Repository) Dir() string { return r.dir }

// Path returns the on-disk path for an event's dataset.
func (r *Repository) Path(eventKey string) string {
	return filepath.Join(r.dir, eventKey+".json")
}

// Load returns the dataset for an event, reading from cache when warm.
func (r *Repository) Load(eventKey string) (*Dataset, error) {
	r.mu.RLock()
	if ds, ok := r.cache[eventKey]; ok {
		r.mu.RUnlock()
		return ds, nil
	}
	r.mu.RUnlock()

	data, err := os.ReadFile(r.Path(eventKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoDataset, eventKey)
		}
		return nil, fmt.Errorf("failed to read dataset %s: %w", eventKey, err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", eventKey, err)
	}

	r.mu.Lock()
	r.cache[eventKey] = &ds
	r.mu.Unlock()
	return &ds, nil
}

// Save writes a dataset atomically (temp file + rename) so concurrent
// readers never observe partial JSON, then refreshes the cache entry.
func (r *Repository) Save(ds *Dataset) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset %s: %w", ds.EventKey, err)
	}

	path := r.Path(ds.EventKey)
	tmp, err := os.CreateTemp(r.dir, ds.EventKey+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write dataset %s: %w", ds.EventKey, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp dataset file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace dataset %s: %w", ds.EventKey, err)
	}

	r.mu.Lock()
	r.cache[ds.EventKey] = ds
	r.mu.Unlock()

	logging.Get(logging.CategoryDataset).Info("dataset saved",
		zap.String("event", ds.EventKey),
		zap.Int("teams", len(ds.Teams)))
	return nil
}

// List returns the event keys with a dataset on disk.
func (r *Repository) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}

// Invalidate drops the cache entry for an event. Called by the watcher when
// the file changes underneath us (manual edits, restores).
func (r *Repository) Invalidate(eventKey string) {
	r.mu.Lock()
	delete(r.cache, eventKey)
	r.mu.Unlock()
}

// Delete removes an event's dataset file and cache entry.
func (r *Repository) Delete(eventKey string) error {
	r.Invalidate(eventKey)
	if err := os.Remove(r.Path(eventKey)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete dataset %s: %w", eventKey, err)
	}
	return nil
}
