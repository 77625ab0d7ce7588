package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zer0-x/krunner-zoom/internal/log"
	"github.com/zer0-x/krunner-zoom/internal/meeting"
)

//go:generate mockgen -destination=mocks/mock_effects.go -package=mocks github.com/zer0-x/krunner-zoom/internal/dispatch Opener,Clipboard

// ErrLookup is returned when the key does not resolve in the session.
var ErrLookup = errors.New("unknown match key")

// Opener launches a URI with the desktop's default handler.
type Opener interface {
	Open(ctx context.Context, uri string) error
}

// Clipboard receives copied text.
type Clipboard interface {
	SetContents(ctx context.Context, text string) error
}

// Resolver looks up session entries by key.
type Resolver interface {
	Get(key string) (meeting.Entry, error)
}

// Action is the closed set of things Run can do.
type Action int

const (
	ActionOpen Action = iota
	ActionCopyID
	ActionCopyPasscode
	ActionCopyURI
	ActionUnknown
)

// ParseAction maps a launcher action id to an Action. The empty id is the
// default open action.
func ParseAction(id string) Action {
	switch id {
	case "":
		return ActionOpen
	case meeting.ActionCopyID:
		return ActionCopyID
	case meeting.ActionCopyPasscode:
		return ActionCopyPasscode
	case meeting.ActionCopyURI:
		return ActionCopyURI
	default:
		return ActionUnknown
	}
}

func (a Action) String() string {
	switch a {
	case ActionOpen:
		return "open"
	case ActionCopyID:
		return meeting.ActionCopyID
	case ActionCopyPasscode:
		return meeting.ActionCopyPasscode
	case ActionCopyURI:
		return meeting.ActionCopyURI
	default:
		return "unknown"
	}
}

// Dispatcher runs actions against one session's entries.
type Dispatcher struct {
	entries   Resolver
	opener    Opener
	clipboard Clipboard
	logger    *slog.Logger
}

// New creates a Dispatcher.
func New(entries Resolver, opener Opener, clipboard Clipboard, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = log.WithComponent("dispatch")
	}
	return &Dispatcher{
		entries:   entries,
		opener:    opener,
		clipboard: clipboard,
		logger:    logger,
	}
}

// Dispatch performs actionID on the entry behind key.
func (d *Dispatcher) Dispatch(ctx context.Context, key, actionID string) error {
	if key == "" {
		return nil
	}

	entry, err := d.entries.Get(key)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLookup, err)
	}

	action := ParseAction(actionID)
	actionLogger := d.logger.With("key", key, "action", action.String())

	uri := entry.JoinURI()

	switch action {
	case ActionOpen:
		actionLogger.Info("opening meeting", "meeting_id", entry.ID)
		if err := d.opener.Open(ctx, uri); err != nil {
			actionLogger.Error("failed to open meeting", "error", err)
			return fmt.Errorf("open meeting: %w", err)
		}
		return nil

	case ActionCopyID:
		return d.copy(ctx, actionLogger, entry.ID)

	case ActionCopyPasscode:
		if entry.Passcode == nil {
			actionLogger.Debug("entry has no passcode, nothing to copy")
			return nil
		}
		return d.copy(ctx, actionLogger, *entry.Passcode)

	case ActionCopyURI:
		return d.copy(ctx, actionLogger, uri)

	default:
		actionLogger.Debug("ignoring unknown action", "action_id", actionID)
		return nil
	}
}

func (d *Dispatcher) copy(ctx context.Context, logger *slog.Logger, text string) error {
	if err := d.clipboard.SetContents(ctx, text); err != nil {
		logger.Error("failed to set clipboard", "error", err)
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	logger.Debug("copied to clipboard")
	return nil
}
