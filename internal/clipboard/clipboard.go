// Package clipboard puts text on the desktop clipboard, either through the
// Klipper D-Bus service or the system clipboard utilities.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zer0-x/krunner-zoom/internal/log"
)

const (
	BackendKlipper = "klipper"
	BackendSystem  = "system"

	DefaultTimeout = 5 * time.Second
)

// ErrUnavailable means the clipboard service could not be reached.
var ErrUnavailable = errors.New("clipboard unavailable")

// Clipboard is a clipboard backend.
type Clipboard interface {
	SetContents(ctx context.Context, text string) error
	// Close releases any connection held by the backend. The backend
	// reconnects on the next SetContents.
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	Timeout time.Duration
}

// New returns the backend named in opts. Nothing is connected yet.
func New(opts Options, logger *slog.Logger) (Clipboard, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.WithComponent("clipboard")
	}
	switch opts.Backend {
	case "", BackendKlipper:
		return NewKlipper(nil, opts.Timeout, logger), nil
	case BackendSystem:
		return NewSystem(opts.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q (want %s or %s)", opts.Backend, BackendKlipper, BackendSystem)
	}
}

// Check reports whether backend can work on this host without touching the
// clipboard.
func Check(backend string) error {
	switch backend {
	case "", BackendKlipper:
		if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" && os.Getenv("XDG_RUNTIME_DIR") == "" {
			return fmt.Errorf("%w: no session bus address in the environment", ErrUnavailable)
		}
		return nil
	case BackendSystem:
		if systemUnsupported() {
			return fmt.Errorf("%w: none of xclip, xsel, wl-copy or termux-clipboard-set found", ErrUnavailable)
		}
		return nil
	default:
		return fmt.Errorf("unknown clipboard backend %q", backend)
	}
}
