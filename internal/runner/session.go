// Package runner composes the store, matcher and dispatcher into launcher
// sessions and manages their lifecycle.
package runner

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/zer0-x/krunner-zoom/internal/dispatch"
	"github.com/zer0-x/krunner-zoom/internal/i18n"
	"github.com/zer0-x/krunner-zoom/internal/log"
	"github.com/zer0-x/krunner-zoom/internal/match"
	"github.com/zer0-x/krunner-zoom/internal/meeting"
	"github.com/zer0-x/krunner-zoom/internal/registry"
	"github.com/zer0-x/krunner-zoom/internal/store"
)

// ActionInfo describes one secondary action offered to the launcher.
type ActionInfo struct {
	ID   string
	Text string
	Icon string
}

var secondaryActions = []struct {
	id, msg, icon string
}{
	{meeting.ActionCopyID, i18n.MsgCopyID, "edit-copy"},
	{meeting.ActionCopyPasscode, i18n.MsgCopyPasscode, "password-copy"},
	{meeting.ActionCopyURI, i18n.MsgCopyURI, "gnumeric-link-url"},
}

// Actions returns the secondary actions with translated labels.
func Actions(tr i18n.Translator) []ActionInfo {
	out := make([]ActionInfo, 0, len(secondaryActions))
	for _, a := range secondaryActions {
		out = append(out, ActionInfo{ID: a.id, Text: tr.Sprintf(a.msg), Icon: a.icon})
	}
	return out
}

// Session is the state between two teardowns: one store, and the matcher
// and dispatcher that share it.
type Session struct {
	ID string

	store      *store.Store
	matcher    *match.Matcher
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// NewSession creates an unloaded session.
func NewSession(source registry.Source, opener dispatch.Opener, clip dispatch.Clipboard, tr i18n.Translator, opts match.Options) *Session {
	id := uuid.New().String()
	logger := log.WithSession(id)

	st := store.New(source, logger.With("component", "store"))
	return &Session{
		ID:         id,
		store:      st,
		matcher:    match.New(st, tr, opts, logger.With("component", "match")),
		dispatcher: dispatch.New(st, opener, clip, logger.With("component", "dispatch")),
		logger:     logger,
	}
}

// Match answers a launcher query.
func (s *Session) Match(ctx context.Context, query string) []match.Result {
	return s.matcher.Match(ctx, query)
}

// Run performs action on the result behind key.
func (s *Session) Run(ctx context.Context, key, action string) error {
	return s.dispatcher.Dispatch(ctx, key, action)
}

// Loaded reports whether the session has read the registry.
func (s *Session) Loaded() bool { return s.store.Loaded() }

// Fingerprint returns the digest of the registry the session loaded.
func (s *Session) Fingerprint() string { return s.store.Fingerprint() }

func (s *Session) close() {
	s.store.Clear()
	s.logger.Debug("session closed")
}
