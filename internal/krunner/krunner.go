// Package krunner exposes the runner service on the session bus as an
// org.kde.krunner1 plugin.
package krunner

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/godbus/dbus/v5"

	"github.com/zer0-x/krunner-zoom/internal/clipboard"
	"github.com/zer0-x/krunner-zoom/internal/dispatch"
	"github.com/zer0-x/krunner-zoom/internal/log"
	"github.com/zer0-x/krunner-zoom/internal/match"
	"github.com/zer0-x/krunner-zoom/internal/meeting"
	"github.com/zer0-x/krunner-zoom/internal/opener"
	"github.com/zer0-x/krunner-zoom/internal/runner"
)

const (
	Interface = "org.kde.krunner1"

	DefaultBusName    = "com.github.zer0-x.krunner-zoom"
	DefaultObjectPath = dbus.ObjectPath("/krunnerZoom")

	// ErrorPrefix namespaces the errors returned from Run.
	ErrorPrefix = DefaultBusName + ".Error"
)

// Error names returned from Run.
const (
	ErrNameLookup               = ErrorPrefix + ".Lookup"
	ErrNameOpenerUnavailable    = ErrorPrefix + ".OpenerUnavailable"
	ErrNameOpenerTimeout        = ErrorPrefix + ".OpenerTimeout"
	ErrNameClipboardUnavailable = ErrorPrefix + ".ClipboardUnavailable"
	ErrNameFailed               = ErrorPrefix + ".Failed"
)

// Service is what the adapter forwards bus calls to.
type Service interface {
	Match(ctx context.Context, query string) []match.Result
	Run(ctx context.Context, key, action string) error
	Actions() []runner.ActionInfo
	Teardown()
}

// Match is one a(sssida{sv}) element.
type Match struct {
	ID         string
	Text       string
	Icon       string
	Type       int32
	Relevance  float64
	Properties map[string]dbus.Variant
}

// Action is one a(sss) element.
type Action struct {
	ID   string
	Text string
	Icon string
}

// Adapter is the object exported at the runner's path. Its exported methods
// are the org.kde.krunner1 methods; calls are handled one at a time.
type Adapter struct {
	mu      sync.Mutex
	base    context.Context
	svc     Service
	keyword string
	logger  *slog.Logger
}

// NewAdapter wraps svc. base bounds every call made through the bus.
func NewAdapter(base context.Context, svc Service, keyword string, logger *slog.Logger) *Adapter {
	if keyword == "" {
		keyword = match.DefaultKeyword
	}
	if logger == nil {
		logger = log.WithComponent("krunner")
	}
	return &Adapter{base: base, svc: svc, keyword: keyword, logger: logger}
}

// Match implements org.kde.krunner1.Match.
func (a *Adapter) Match(query string) ([]Match, *dbus.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return toMatches(a.svc.Match(a.base, query)), nil
}

// Actions implements org.kde.krunner1.Actions.
func (a *Adapter) Actions() ([]Action, *dbus.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	infos := a.svc.Actions()
	out := make([]Action, 0, len(infos))
	for _, info := range infos {
		out = append(out, Action{ID: info.ID, Text: info.Text, Icon: info.Icon})
	}
	return out, nil
}

// Run implements org.kde.krunner1.Run.
func (a *Adapter) Run(matchID, actionID string) *dbus.Error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.svc.Run(a.base, matchID, actionID); err != nil {
		a.logger.Warn("run failed", "match_id", matchID, "action_id", actionID, "error", err)
		return busError(err)
	}
	return nil
}

// Teardown implements org.kde.krunner1.Teardown.
func (a *Adapter) Teardown() *dbus.Error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.svc.Teardown()
	return nil
}

// Config implements org.kde.krunner1.Config. KRunner uses it to skip
// queries that cannot trigger this runner.
func (a *Adapter) Config() (map[string]dbus.Variant, *dbus.Error) {
	return map[string]dbus.Variant{
		"MatchRegex":     dbus.MakeVariant(MatchRegex(a.keyword)),
		"MinLetterCount": dbus.MakeVariant(int32(utf8.RuneCountInString(a.keyword))),
	}, nil
}

// MatchRegex is the pattern KRunner checks before calling Match.
func MatchRegex(keyword string) string {
	return "^" + regexp.QuoteMeta(keyword) + `(\s|$)`
}

func toMatches(results []match.Result) []Match {
	out := make([]Match, 0, len(results))
	for _, r := range results {
		props := map[string]dbus.Variant{}
		// KRunner offers every registered action when the list is absent.
		if r.Capabilities != meeting.AllCapabilities {
			props["actions"] = dbus.MakeVariant(r.Capabilities.IDs())
		}
		out = append(out, Match{
			ID:         r.Key,
			Text:       r.Text,
			Icon:       r.Icon,
			Type:       int32(r.Kind),
			Relevance:  r.Relevance,
			Properties: props,
		})
	}
	return out
}

// busError names err for the caller on the other end of the bus.
func busError(err error) *dbus.Error {
	name := ErrNameFailed
	switch {
	case errors.Is(err, dispatch.ErrLookup):
		name = ErrNameLookup
	case errors.Is(err, opener.ErrUnavailable):
		name = ErrNameOpenerUnavailable
	case errors.Is(err, opener.ErrTimeout):
		name = ErrNameOpenerTimeout
	case errors.Is(err, clipboard.ErrUnavailable):
		name = ErrNameClipboardUnavailable
	}
	return dbus.NewError(name, []interface{}{err.Error()})
}
