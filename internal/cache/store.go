// Package cache implements the on-disk entity cache used by the CLI.
//
// Every organization gets its own directory under the cache root. A cache is
// either a single JSON envelope per (org, name) pair, or one envelope-free
// JSON file per entity (the per-user files). A file that fails to parse is
// deleted on the spot so the next read does not pay the parse cost again.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound reports a cache miss. Corrupted files are treated as misses.
var ErrNotFound = errors.New("cache entry not found")

// Metadata wraps every persisted blob. Version is written but never consulted;
// it exists so a future format change can detect old files.
type Metadata struct {
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

type envelope struct {
	Metadata Metadata        `json:"metadata"`
	Data     json.RawMessage `json:"data"`
}

// Store persists JSON payloads under <root>/<org>/.
type Store struct {
	root string
	log  *zap.Logger
	now  func() time.Time
}

// DefaultRoot returns the per-user cache directory for slackcli.
func DefaultRoot() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "slackcli"), nil
}

func NewStore(root string, log *zap.Logger) *Store {
	return &Store{root: root, log: log, now: time.Now}
}

// Path returns the file a given cache name maps to. Name may contain
// subdirectories ("users/U123").
func (s *Store) Path(org, name string) string {
	return filepath.Join(s.root, org, name+".json")
}

// Load reads the envelope for (org, name) and unmarshals its data into v.
// A missing, unreadable, or unparseable file is a miss; corrupted files are
// deleted before reporting the miss.
func (s *Store) Load(org, name string, v interface{}) (*Metadata, error) {
	var env envelope
	if err := s.readJSON(org, name, &env); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		s.discardCorrupt(org, name, err)
		return nil, ErrNotFound
	}
	return &env.Metadata, nil
}

// Save wraps data with fresh metadata and persists it, replacing any previous
// content. Save failures propagate: the caller has no fallback for a disk
// that cannot be written.
func (s *Store) Save(org, name string, data interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal cache %s/%s: %w", org, name, err)
	}
	env := envelope{
		Metadata: Metadata{UpdatedAt: s.now(), Version: 1},
		Data:     raw,
	}
	return s.writeJSON(org, name, env)
}

// Age returns the updated_at of the stored metadata, or false when the cache
// is absent or unreadable.
func (s *Store) Age(org, name string) (time.Time, bool) {
	var env envelope
	if err := s.readJSON(org, name, &env); err != nil {
		return time.Time{}, false
	}
	if env.Metadata.UpdatedAt.IsZero() {
		return time.Time{}, false
	}
	return env.Metadata.UpdatedAt, true
}

// ReadJSON reads an envelope-free JSON file (per-entity caches carry their
// own inline metadata). Corruption handling matches Load.
func (s *Store) ReadJSON(org, name string, v interface{}) error {
	return s.readJSON(org, name, v)
}

// WriteJSON persists v as-is, without the envelope.
func (s *Store) WriteJSON(org, name string, v interface{}) (string, error) {
	return s.writeJSON(org, name, v)
}

// Entries lists the keys of all per-entity files under <org>/<subdir>.
func (s *Store) Entries(org, subdir string) ([]string, error) {
	dir := filepath.Join(s.root, org, subdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache dir %s: %w", dir, err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	return keys, nil
}

func (s *Store) readJSON(org, name string, v interface{}) error {
	path := s.Path(org, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.discardCorrupt(org, name, err)
		}
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.discardCorrupt(org, name, err)
		return ErrNotFound
	}
	return nil
}

func (s *Store) writeJSON(org, name string, v interface{}) (string, error) {
	path := s.Path(org, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal cache %s/%s: %w", org, name, err)
	}
	// Write-then-rename so a crash mid-write leaves a temp file, not a
	// truncated cache. A truncated file would be deleted as corrupt anyway.
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString()[:8])
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", fmt.Errorf("write cache %s/%s: %w", org, name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write cache %s/%s: %w", org, name, err)
	}
	return path, nil
}

func (s *Store) discardCorrupt(org, name string, cause error) {
	path := s.Path(org, name)
	s.log.Warn("discarding corrupt cache file",
		zap.String("path", path),
		zap.Error(cause))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Debug("failed to remove corrupt cache file",
			zap.String("path", path),
			zap.Error(err))
	}
}
