package gear

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// DocumentStore persists the full profile map as a single JSON document
// on the local filesystem, keyed by user-id-as-string. The in-memory
// map is a write-through cache: every mutation is written to disk
// first and the cache is updated only after the write commits, so a
// failed write never diverges the cache from durable state. The file
// is replaced via temp-file-plus-rename, never written in place.
type DocumentStore struct {
	path  string
	mu    sync.Mutex
	cache map[int64]Profile
}

// NewDocumentStore opens (or creates) the document at path and loads
// any existing records into memory.
func NewDocumentStore(path string) (*DocumentStore, error) {
	if path == "" {
		return nil, errors.New("gear: document path is required")
	}

	store := &DocumentStore{
		path:  path,
		cache: make(map[int64]Profile),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gear: read document %s: %w", path, err)
	}

	var document map[string]Profile
	if err := json.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("gear: decode document %s: %w", path, err)
	}
	for key, profile := range document {
		userID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("gear: document %s has non-numeric key %q: %w", path, key, err)
		}
		profile.UserID = userID
		store.cache[userID] = profile
	}

	return store, nil
}

// Upsert replaces the record for profile.UserID in full.
func (s *DocumentStore) Upsert(ctx context.Context, profile Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[int64]Profile, len(s.cache)+1)
	for userID, stored := range s.cache {
		next[userID] = stored
	}
	next[profile.UserID] = profile

	if err := s.writeDocument(next); err != nil {
		return err
	}
	s.cache = next
	return nil
}

// Get returns the profile stored for userID, or ErrNotFound.
func (s *DocumentStore) Get(ctx context.Context, userID int64) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.cache[userID]
	if !ok {
		return Profile{}, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return profile, nil
}

// GetAll returns a snapshot copy of every stored profile.
func (s *DocumentStore) GetAll(ctx context.Context) (map[int64]Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[int64]Profile, len(s.cache))
	for userID, profile := range s.cache {
		snapshot[userID] = profile
	}
	return snapshot, nil
}

// writeDocument marshals the map and atomically replaces the backing
// file. Callers must hold s.mu.
func (s *DocumentStore) writeDocument(profiles map[int64]Profile) error {
	document := make(map[string]Profile, len(profiles))
	for userID, profile := range profiles {
		document[strconv.FormatInt(userID, 10)] = profile
	}

	encoded, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("gear: encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".gear-*.json")
	if err != nil {
		return fmt.Errorf("gear: create temp document: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("gear: write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("gear: close temp document: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("gear: replace document %s: %w", s.path, err)
	}
	return nil
}
