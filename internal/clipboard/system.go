package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
)

func systemUnsupported() bool { return clipboard.Unsupported }

// System writes through xclip, xsel, wl-copy or whatever
// github.com/atotto/clipboard finds on the host.
type System struct {
	timeout time.Duration
	logger  *slog.Logger

	unsupported func() bool
	writeAll    func(string) error
}

// NewSystem creates a system clipboard backend.
func NewSystem(timeout time.Duration, logger *slog.Logger) *System {
	return &System{
		timeout:     timeout,
		logger:      logger,
		unsupported: systemUnsupported,
		writeAll:    clipboard.WriteAll,
	}
}

// SetContents replaces the clipboard contents with text.
func (s *System) SetContents(ctx context.Context, text string) error {
	if s.unsupported() {
		return fmt.Errorf("%w: no clipboard utility found", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.writeAll(text)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Warn("system clipboard did not respond", "timeout", s.timeout)
		return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
}

// Close is a no-op; the system backend holds no connection.
func (s *System) Close() error { return nil }
