package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
	"github.com/joshsymonds/appquality/pkg/pathutil"
)

const statsFile = "stats.json"

// FileCache stores one JSON file per cached response.
type FileCache struct {
	logger   logger.Logger
	now      func() time.Time
	stats    *Stats
	basePath string
	mu       sync.RWMutex
}

// entry is a cached payload with its expiry.
type entry struct {
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Payload   *models.Payload `json:"payload"`
}

// NewFileCache creates a file cache rooted at basePath, creating the
// directory when needed.
func NewFileCache(basePath string) (*FileCache, error) {
	return NewFileCacheWithLogger(basePath, logger.GetGlobalLogger())
}

// NewFileCacheWithLogger creates a file cache with a custom logger.
func NewFileCacheWithLogger(basePath string, log logger.Logger) (*FileCache, error) {
	validPath, err := pathutil.ValidateOutputDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid cache directory: %w", err)
	}
	if err := os.MkdirAll(validPath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	fc := &FileCache{
		basePath: validPath,
		logger:   log,
		now:      time.Now,
		stats:    &Stats{},
	}
	if err := fc.loadStats(); err != nil {
		log.Warn("Ignoring unreadable cache stats", "path", validPath, "error", err)
		fc.stats = &Stats{}
	}
	return fc, nil
}

// Get returns the cached payload for key, or nil on a miss. Expired entries
// are removed.
func (fc *FileCache) Get(_ context.Context, key string) (*models.Payload, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	filename, err := fc.filename(key)
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Err: err}
	}

	data, err := os.ReadFile(filename) //nolint:gosec // name is derived from a validated key
	if errors.Is(err, os.ErrNotExist) {
		fc.recordMiss()
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Err: err}
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, &Error{Op: "unmarshal", Key: key, Err: err}
	}

	now := fc.now()
	if now.After(e.ExpiresAt) {
		_ = os.Remove(filename)
		fc.recordMiss()
		fc.logger.Debug("Cache entry expired", "key", key)
		return nil, nil
	}

	if age := now.Sub(e.CreatedAt); age > fc.stats.OldestEntry {
		fc.stats.OldestEntry = age
	}
	fc.recordHit()
	return e.Payload, nil
}

// Set stores payload under key for ttl.
func (fc *FileCache) Set(_ context.Context, key string, payload *models.Payload, ttl time.Duration) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	filename, err := fc.filename(key)
	if err != nil {
		return &Error{Op: "set", Key: key, Err: err}
	}

	now := fc.now()
	data, err := json.Marshal(entry{CreatedAt: now, ExpiresAt: now.Add(ttl), Payload: payload})
	if err != nil {
		return &Error{Op: "marshal", Key: key, Err: err}
	}
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return &Error{Op: "write", Key: key, Err: err}
	}

	fc.updateStats()
	fc.saveStats()
	return nil
}

// Delete removes a cached entry. Deleting a missing key is not an error.
func (fc *FileCache) Delete(_ context.Context, key string) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	filename, err := fc.filename(key)
	if err != nil {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	if err := os.Remove(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &Error{Op: "delete", Key: key, Err: err}
	}

	fc.updateStats()
	fc.saveStats()
	return nil
}

// Clear removes every cached entry and resets the statistics.
func (fc *FileCache) Clear(_ context.Context) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	entries, err := os.ReadDir(fc.basePath)
	if err != nil {
		return &Error{Op: "readdir", Key: fc.basePath, Err: err}
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == statsFile {
			continue
		}
		if err := os.Remove(filepath.Join(fc.basePath, e.Name())); err != nil {
			return &Error{Op: "delete", Key: e.Name(), Err: err}
		}
	}

	fc.stats = &Stats{}
	fc.saveStats()
	return nil
}

// Stats returns a copy of the cache statistics.
func (fc *FileCache) Stats(_ context.Context) (*Stats, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.updateStats()
	s := *fc.stats
	return &s, nil
}

func (fc *FileCache) filename(key string) (string, error) {
	if key == "" || key == strings.TrimSuffix(statsFile, ".json") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return pathutil.JoinAndValidate(fc.basePath, key+".json")
}

func (fc *FileCache) recordHit() {
	fc.stats.TotalHits++
	fc.updateHitRate()
}

func (fc *FileCache) recordMiss() {
	fc.stats.TotalMisses++
	fc.updateHitRate()
}

func (fc *FileCache) updateHitRate() {
	total := fc.stats.TotalHits + fc.stats.TotalMisses
	if total > 0 {
		fc.stats.HitRate = float64(fc.stats.TotalHits) / float64(total)
	}
}

// updateStats recounts entries and their size from disk.
func (fc *FileCache) updateStats() {
	entries, err := os.ReadDir(fc.basePath)
	if err != nil {
		return
	}

	var size int64
	count := 0
	for _, e := range entries {
		if e.IsDir() || e.Name() == statsFile {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		size += info.Size()
		count++
	}
	fc.stats.TotalSize = size
	fc.stats.TotalEntries = count
}

func (fc *FileCache) loadStats() error {
	data, err := os.ReadFile(filepath.Join(fc.basePath, statsFile)) //nolint:gosec // fixed name under validated dir
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, fc.stats)
}

func (fc *FileCache) saveStats() {
	data, err := json.MarshalIndent(fc.stats, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(fc.basePath, statsFile), data, 0600)
	}
	if err != nil {
		fc.logger.Warn("Failed to save cache stats", "error", err)
	}
}
