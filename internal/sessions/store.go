package sessions

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mrlokans/erratas/internal/library"
	"github.com/mrlokans/erratas/internal/logging"
)

// ErrNoLibrary is returned when a session has no uploaded library.
var ErrNoLibrary = errors.New("no library loaded for this session")

// Entry is the library a session is working on.
type Entry struct {
	Library  library.Library
	Filename string
	// Updated is set once a deletion has been applied, which makes the
	// library eligible for download.
	Updated  bool
	LastUsed time.Time

	mu     sync.Mutex
	closed bool
}

func (e *Entry) close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.Library.Close()
}

// Store keeps the open libraries of every session in memory. Operations on
// one entry are serialised; different sessions proceed independently.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
	logger  *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		entries: make(map[string]*Entry),
		now:     time.Now,
		logger:  logger.With(logging.FieldComponent, "sessions"),
	}
}

// Put stores lib under key. A library previously stored under the same key
// is closed.
func (s *Store) Put(key string, lib library.Library, filename string) *Entry {
	entry := &Entry{Library: lib, Filename: filename, LastUsed: s.now()}

	s.mu.Lock()
	previous := s.entries[key]
	s.entries[key] = entry
	s.mu.Unlock()

	if previous != nil {
		s.closeEntry(key, previous)
	}
	return entry
}

// Get returns the entry stored under key.
func (s *Store) Get(key string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	return entry, ok
}

// Remove closes and forgets the library stored under key.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	entry, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()

	if !ok {
		return ErrNoLibrary
	}
	return entry.close()
}

// With runs fn while holding the entry's lock. It returns ErrNoLibrary when
// key has no library, including when the library was closed while waiting.
func (s *Store) With(key string, fn func(*Entry) error) error {
	if key == "" {
		return ErrNoLibrary
	}
	entry, ok := s.Get(key)
	if !ok {
		return ErrNoLibrary
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.closed {
		return ErrNoLibrary
	}
	entry.LastUsed = s.now()
	return fn(entry)
}

// Expire closes every library idle for longer than idle and returns how many
// were dropped.
func (s *Store) Expire(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	expired := make(map[string]*Entry)
	for key, entry := range s.entries {
		if !entry.mu.TryLock() {
			continue // in use
		}
		if entry.LastUsed.Before(cutoff) {
			expired[key] = entry
			delete(s.entries, key)
		}
		entry.mu.Unlock()
	}
	s.mu.Unlock()

	for key, entry := range expired {
		s.closeEntry(key, entry)
	}
	return len(expired)
}

// CloseAll closes every stored library.
func (s *Store) CloseAll() error {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()

	var errs []error
	for _, entry := range entries {
		if err := entry.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of stored libraries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) closeEntry(key string, entry *Entry) {
	if err := entry.close(); err != nil {
		s.logger.Warn("failed to close session library",
			logging.FieldSession, key,
			"error", err,
		)
	}
}
