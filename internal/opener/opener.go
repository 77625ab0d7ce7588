// Package opener hands URIs to the desktop's opener utility (xdg-open and
// friends) as a short-lived subprocess.
package opener

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/zer0-x/krunner-zoom/internal/log"
)

const (
	// maxStderrBytes caps the amount of stderr kept for error messages.
	maxStderrBytes = 4 * 1024

	DefaultTimeout = 10 * time.Second
	// DefaultGracePeriod is the time we wait after SIGTERM before sending SIGKILL.
	DefaultGracePeriod = 2 * time.Second

	// stderrWaitDelay bounds how long Wait keeps reading stderr after the
	// opener exits. The launched application inherits the pipe and may hold
	// it open for its whole lifetime.
	stderrWaitDelay = 500 * time.Millisecond
)

// DefaultCandidates are probed in order.
var DefaultCandidates = []string{"/usr/bin/xdg-open", "/usr/bin/open"}

var (
	// ErrUnavailable means no opener utility exists on the host.
	ErrUnavailable = errors.New("opener utility not found")
	// ErrTimeout means the opener did not exit within its timeout.
	ErrTimeout = errors.New("opener timed out")
)

// Opener runs the first available candidate with the URI as its only argument.
type Opener struct {
	candidates []string
	timeout    time.Duration
	grace      time.Duration
	logger     *slog.Logger

	mu   sync.Mutex
	path string
}

// Options configures an Opener. Zero values take the defaults.
type Options struct {
	Candidates  []string
	Timeout     time.Duration
	GracePeriod time.Duration
}

// New creates an Opener. The candidates are not probed until the first Open.
func New(opts Options, logger *slog.Logger) *Opener {
	if len(opts.Candidates) == 0 {
		opts.Candidates = DefaultCandidates
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if logger == nil {
		logger = log.WithComponent("opener")
	}
	return &Opener{
		candidates: opts.Candidates,
		timeout:    opts.Timeout,
		grace:      opts.GracePeriod,
		logger:     logger,
	}
}

// Probe returns the first candidate that is an executable regular file.
func Probe(candidates []string) (string, error) {
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Mode().Perm()&0o111 == 0 {
			continue
		}
		return c, nil
	}
	return "", fmt.Errorf("%w (checked %v)", ErrUnavailable, candidates)
}

// Path resolves the opener, probing on first use. A successful probe is
// kept for the life of the Opener; a failed one is repeated on the next call.
func (o *Opener) Path() (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.path != "" {
		return o.path, nil
	}
	path, err := Probe(o.candidates)
	if err != nil {
		return "", err
	}
	o.logger.Debug("resolved opener", "path", path)
	o.path = path
	return path, nil
}

// Open runs the opener with uri and waits for it to exit.
func (o *Opener) Open(ctx context.Context, uri string) error {
	path, err := o.Path()
	if err != nil {
		return err
	}

	timeoutTimer := time.NewTimer(o.timeout)
	defer timeoutTimer.Stop()

	// Termination is managed below so the child gets SIGTERM before SIGKILL.
	cmd := exec.Command(path, uri)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = stderrWaitDelay

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	select {
	case err := <-waitErr:
		if errors.Is(err, exec.ErrWaitDelay) {
			o.logger.Debug("opener exited, launched application still holds stderr", "path", path)
			return nil
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return fmt.Errorf("%s exited with status %d: %s", path, exitErr.ExitCode(), truncateStderr(stderr.String()))
			}
			return fmt.Errorf("wait for %s: %w", path, err)
		}
		return nil

	case <-timeoutTimer.C:
		o.logger.Warn("opener timed out, sending SIGTERM", "path", path, "timeout", o.timeout)
		o.terminate(cmd, waitErr)
		return fmt.Errorf("%w after %v", ErrTimeout, o.timeout)

	case <-ctx.Done():
		o.terminate(cmd, waitErr)
		return ctx.Err()
	}
}

func (o *Opener) terminate(cmd *exec.Cmd, waitErr <-chan error) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		o.logger.Error("failed to send SIGTERM", "error", err)
	}

	grace := time.NewTimer(o.grace)
	defer grace.Stop()

	select {
	case <-waitErr:
	case <-grace.C:
		o.logger.Warn("opener did not exit after SIGTERM, sending SIGKILL")
		if err := cmd.Process.Kill(); err != nil {
			o.logger.Error("failed to send SIGKILL", "error", err)
		}
		reaped := time.NewTimer(2 * stderrWaitDelay)
		defer reaped.Stop()
		select {
		case <-waitErr:
		case <-reaped.C:
			o.logger.Warn("opener not reaped after SIGKILL", "path", cmd.Path)
		}
	}
}

// truncateStderr truncates stderr to maxStderrBytes.
func truncateStderr(s string) string {
	if len(s) > maxStderrBytes {
		return s[:maxStderrBytes]
	}
	return s
}
