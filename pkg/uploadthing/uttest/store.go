package uttest

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrFileNotFound is returned when no stored file matches a key or custom id
	ErrFileNotFound = errors.New("file not found")

	// ErrFileExists is returned when a key or custom id is already taken
	ErrFileExists = errors.New("file already exists")
)

// StoredFile is the metadata of a file held by the fake ingest endpoint
type StoredFile struct {
	ID         string
	Key        string
	CustomID   string
	Name       string
	Type       string
	Size       int64
	ACL        string
	Status     string
	Hash       string
	UploadedAt time.Time
}

// Store is an in-memory file table keyed by file key, with a custom id index
type Store struct {
	mu       sync.RWMutex
	files    map[string]*StoredFile
	byCustom map[string]string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		files:    make(map[string]*StoredFile),
		byCustom: make(map[string]string),
	}
}

// Put adds a file. Keys and custom ids are unique.
func (s *Store) Put(f StoredFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[f.Key]; exists {
		return ErrFileExists
	}
	if f.CustomID != "" {
		if _, exists := s.byCustom[f.CustomID]; exists {
			return ErrFileExists
		}
		s.byCustom[f.CustomID] = f.Key
	}

	stored := f
	s.files[f.Key] = &stored
	return nil
}

// Get returns a copy of the file stored under key
func (s *Store) Get(key string) (StoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, exists := s.files[key]
	if !exists {
		return StoredFile{}, ErrFileNotFound
	}
	return *f, nil
}

// GetByCustomID returns a copy of the file with the given custom id
func (s *Store) GetByCustomID(customID string) (StoredFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, exists := s.byCustom[customID]
	if !exists {
		return StoredFile{}, ErrFileNotFound
	}
	return *s.files[key], nil
}

// List returns files oldest first, paginated. A limit of zero means no limit.
func (s *Store) List(offset, limit int) ([]StoredFile, bool) {
	s.mu.RLock()
	all := make([]StoredFile, 0, len(s.files))
	for _, f := range s.files {
		all = append(all, *f)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].UploadedAt.Equal(all[j].UploadedAt) {
			return all[i].Key < all[j].Key
		}
		return all[i].UploadedAt.Before(all[j].UploadedAt)
	})

	if offset >= len(all) {
		return []StoredFile{}, false
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		return all[:limit], true
	}
	return all, false
}

// Delete removes files by key and returns the keys that existed
func (s *Store) Delete(keys ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]string, 0, len(keys))
	for _, key := range keys {
		f, exists := s.files[key]
		if !exists {
			continue
		}
		if f.CustomID != "" {
			delete(s.byCustom, f.CustomID)
		}
		delete(s.files, key)
		removed = append(removed, key)
	}
	return removed
}

// DeleteByCustomID removes files by custom id and returns the file keys that existed
func (s *Store) DeleteByCustomID(customIDs ...string) []string {
	s.mu.RLock()
	keys := make([]string, 0, len(customIDs))
	for _, id := range customIDs {
		if key, exists := s.byCustom[id]; exists {
			keys = append(keys, key)
		}
	}
	s.mu.RUnlock()

	return s.Delete(keys...)
}

// Update applies fn to the file identified by key, or by customID when key is empty
func (s *Store) Update(key, customID string, fn func(*StoredFile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == "" {
		key = s.byCustom[customID]
	}
	f, exists := s.files[key]
	if !exists {
		return ErrFileNotFound
	}
	fn(f)
	return nil
}

// Usage returns the total stored bytes and file count
func (s *Store) Usage() (int64, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, f := range s.files {
		total += f.Size
	}
	return total, len(s.files)
}

// Len returns the number of stored files
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
