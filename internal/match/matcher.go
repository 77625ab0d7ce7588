// Package match turns launcher queries into ranked meeting results.
package match

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/zer0-x/krunner-zoom/internal/i18n"
	"github.com/zer0-x/krunner-zoom/internal/log"
	"github.com/zer0-x/krunner-zoom/internal/meeting"
	"github.com/zer0-x/krunner-zoom/internal/store"
)

const (
	// DefaultKeyword routes a query to this runner.
	DefaultKeyword = "zm"
	// DefaultMaxResults caps the results of one query.
	DefaultMaxResults = 13

	// UpdateTerm reloads the registry instead of searching.
	UpdateTerm = "update"

	// Relevance is the same for every result; ordering carries the ranking.
	Relevance = 1.0
)

// Kind mirrors the KRunner query match types.
type Kind int32

const (
	KindNone          Kind = 0
	KindCompletion    Kind = 10
	KindPossible      Kind = 30
	KindInformational Kind = 50
	KindHelper        Kind = 70
	KindExact         Kind = 100
)

// Result is one candidate returned to the launcher.
type Result struct {
	Key          string
	Text         string
	Icon         string
	Kind         Kind
	Relevance    float64
	Capabilities meeting.Capabilities
}

// Store is the part of store.Store the matcher needs.
type Store interface {
	EnsureLoaded(ctx context.Context) error
	ForceReload(ctx context.Context) (store.Reload, error)
	SetTemp(e meeting.Entry)
	Entries() []meeting.Entry
}

// Options configures a Matcher. Zero values take the defaults.
type Options struct {
	Keyword    string
	MaxResults int
	Icon       string
}

// Matcher answers queries for one session.
type Matcher struct {
	store      Store
	tr         i18n.Translator
	keyword    string
	maxResults int
	icon       string
	fold       cases.Caser
	logger     *slog.Logger
}

// New creates a Matcher over st.
func New(st Store, tr i18n.Translator, opts Options, logger *slog.Logger) *Matcher {
	if opts.Keyword == "" {
		opts.Keyword = DefaultKeyword
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if logger == nil {
		logger = log.WithComponent("match")
	}
	return &Matcher{
		store:      st,
		tr:         tr,
		keyword:    opts.Keyword,
		maxResults: opts.MaxResults,
		icon:       opts.Icon,
		fold:       cases.Fold(),
		logger:     logger,
	}
}

// Term extracts the search term from query. ok is false when the query is
// not addressed to this runner: it must be the keyword alone or the keyword
// followed by whitespace.
func Term(query, keyword string) (term string, ok bool) {
	rest, found := strings.CutPrefix(query, keyword)
	if !found {
		return "", false
	}
	if rest == "" {
		return "", true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if !unicode.IsSpace(r) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// Match returns the results for query, at most MaxResults of them.
func (m *Matcher) Match(ctx context.Context, query string) []Result {
	term, ok := Term(query, m.keyword)
	if !ok {
		return nil
	}

	if term == UpdateTerm {
		return []Result{m.reload(ctx)}
	}

	var results []Result

	if id, ok := meeting.NormalizeID(term); ok {
		temp := meeting.NewTemp(id)
		m.store.SetTemp(temp)
		results = append(results, Result{
			Key:          meeting.TempKey,
			Text:         m.tr.Sprintf(i18n.MsgJoinMeeting, id),
			Icon:         m.icon,
			Kind:         KindExact,
			Relevance:    Relevance,
			Capabilities: temp.Capabilities(),
		})
	}

	if err := m.store.EnsureLoaded(ctx); err != nil {
		m.logger.Warn("matching against an empty registry", "error", err)
	}

	needle := m.fold.String(term)
	for _, e := range m.store.Entries() {
		if len(results) >= m.maxResults {
			break
		}
		if !strings.Contains(m.fold.String(e.Name), needle) {
			continue
		}
		results = append(results, Result{
			Key:          e.Key,
			Text:         e.Name,
			Icon:         m.icon,
			Kind:         KindExact,
			Relevance:    Relevance,
			Capabilities: e.Capabilities(),
		})
	}

	if len(results) > m.maxResults {
		results = results[:m.maxResults]
	}
	m.logger.Debug("query matched", "term", term, "results", len(results))
	return results
}

func (m *Matcher) reload(ctx context.Context) Result {
	res := Result{
		Text:      m.tr.Sprintf(i18n.MsgConfigLoaded),
		Icon:      m.icon,
		Kind:      KindExact,
		Relevance: Relevance,
	}

	r, err := m.store.ForceReload(ctx)
	if err != nil {
		res.Text = m.tr.Sprintf(i18n.MsgConfigFailed)
		return res
	}
	m.logger.Info("meetings reloaded", "entries", r.Entries, "skipped", r.Problems, "changed", r.Changed)
	return res
}
