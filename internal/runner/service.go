package runner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zer0-x/krunner-zoom/internal/dispatch"
	"github.com/zer0-x/krunner-zoom/internal/i18n"
	"github.com/zer0-x/krunner-zoom/internal/log"
	"github.com/zer0-x/krunner-zoom/internal/match"
	"github.com/zer0-x/krunner-zoom/internal/registry"
)

// Clipboard is a dispatch.Clipboard whose connection can be released
// between sessions.
type Clipboard interface {
	dispatch.Clipboard
	Close() error
}

// Config holds the collaborators shared by every session.
type Config struct {
	Source     registry.Source
	Opener     dispatch.Opener
	Clipboard  Clipboard
	Translator i18n.Translator
	Match      match.Options
}

// Service answers launcher calls. A session starts with the first call after
// NewService or Teardown and ends at the next Teardown.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	session *Session
	logger  *slog.Logger
}

// NewService creates a Service with no active session.
func NewService(cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = log.WithComponent("runner")
	}
	return &Service{cfg: cfg, logger: logger}
}

// current returns the active session, starting one if needed. Callers hold mu.
func (s *Service) current() *Session {
	if s.session == nil {
		s.session = NewSession(s.cfg.Source, s.cfg.Opener, s.cfg.Clipboard, s.cfg.Translator, s.cfg.Match)
		s.logger.Debug("session started", "session_id", s.session.ID)
	}
	return s.session
}

// Match answers a launcher query in the active session.
func (s *Service) Match(ctx context.Context, query string) []match.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current().Match(ctx, query)
}

// Run performs action on the result behind key in the active session.
func (s *Service) Run(ctx context.Context, key, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current().Run(ctx, key, action)
}

// Actions returns the secondary actions offered for every result.
func (s *Service) Actions() []ActionInfo {
	return Actions(s.cfg.Translator)
}

// Teardown ends the active session and releases the clipboard connection.
func (s *Service) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.close()
		s.session = nil
	}
	if s.cfg.Clipboard != nil {
		if err := s.cfg.Clipboard.Close(); err != nil {
			s.logger.Warn("failed to release clipboard", "error", err)
		}
	}
}

// Session returns the active session, or nil between Teardown and the next call.
func (s *Service) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}
