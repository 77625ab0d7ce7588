// Package store holds the meetings of one launcher session.
//
// A Store starts unloaded. The first EnsureLoaded (or any ForceReload) reads
// the registry source and keeps the result until Clear, which returns the
// store to its initial state. Independently of that, the store holds at most
// one temp entry built from a typed meeting id.
//
// A Store belongs to a single session and is not safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zer0-x/krunner-zoom/internal/log"
	"github.com/zer0-x/krunner-zoom/internal/meeting"
	"github.com/zer0-x/krunner-zoom/internal/registry"
)

// ErrNotFound is returned by Get for a key the store does not hold.
var ErrNotFound = errors.New("entry not found")

// Reload summarizes a ForceReload.
type Reload struct {
	Entries  int
	Problems int
	// Changed is false when the source content is identical to the
	// previously loaded one.
	Changed bool
}

type Store struct {
	source registry.Source
	logger *slog.Logger

	loaded      bool
	order       []string
	entries     map[string]meeting.Entry
	fingerprint string

	temp *meeting.Entry
}

// New creates an unloaded store reading from source.
func New(source registry.Source, logger *slog.Logger) *Store {
	if logger == nil {
		logger = log.WithComponent("store")
	}
	return &Store{source: source, logger: logger}
}

// Loaded reports whether the registry is materialized.
func (s *Store) Loaded() bool { return s.loaded }

// EnsureLoaded reads the source unless the store is already loaded.
func (s *Store) EnsureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	_, err := s.load(ctx)
	return err
}

// ForceReload reads the source unconditionally and replaces the entries.
func (s *Store) ForceReload(ctx context.Context) (Reload, error) {
	previous := s.fingerprint
	wasLoaded := s.loaded

	snap, err := s.load(ctx)
	if err != nil {
		return Reload{Changed: wasLoaded}, err
	}
	return Reload{
		Entries:  len(snap.Entries),
		Problems: len(snap.Problems),
		Changed:  !wasLoaded || previous != snap.Fingerprint,
	}, nil
}

// load replaces the entries with a fresh read. A failed read leaves the
// store loaded and empty; the error is returned once and not retried.
func (s *Store) load(ctx context.Context) (*registry.Snapshot, error) {
	s.order = nil
	s.entries = make(map[string]meeting.Entry)
	s.fingerprint = ""
	s.loaded = true

	snap, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load meetings", "error", err)
		return nil, fmt.Errorf("load meetings: %w", err)
	}

	for _, p := range snap.Problems {
		s.logger.Warn("skipped meeting section", "section", p.Section, "line", p.Line, "error", p.Err.Error())
	}
	for _, e := range snap.Entries {
		if _, dup := s.entries[e.Key]; dup {
			continue
		}
		s.entries[e.Key] = e
		s.order = append(s.order, e.Key)
	}
	s.fingerprint = snap.Fingerprint

	s.logger.Debug("meetings loaded", "count", len(s.order), "skipped", len(snap.Problems))
	return snap, nil
}

// SetTemp stores e as the temp entry, replacing any previous one.
func (s *Store) SetTemp(e meeting.Entry) {
	e.Key = meeting.TempKey
	s.temp = &e
}

// Get resolves key to an entry. Persisted keys resolve only while loaded,
// the temp key only while a temp entry is present.
func (s *Store) Get(key string) (meeting.Entry, error) {
	if key == meeting.TempKey {
		if s.temp == nil {
			return meeting.Entry{}, fmt.Errorf("%w: %q (no typed meeting id in this session)", ErrNotFound, key)
		}
		return *s.temp, nil
	}
	if !s.loaded {
		return meeting.Entry{}, fmt.Errorf("%w: %q (meetings not loaded)", ErrNotFound, key)
	}
	e, ok := s.entries[key]
	if !ok {
		return meeting.Entry{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return e, nil
}

// Entries returns the persisted entries in source order. It is empty while
// unloaded.
func (s *Store) Entries() []meeting.Entry {
	out := make([]meeting.Entry, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.entries[k])
	}
	return out
}

// Fingerprint returns the digest of the loaded source.
func (s *Store) Fingerprint() string { return s.fingerprint }

// Clear drops the entries and the temp entry.
func (s *Store) Clear() {
	s.loaded = false
	s.order = nil
	s.entries = nil
	s.fingerprint = ""
	s.temp = nil
}
