package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// Klipper bus coordinates.
const (
	KlipperService = "org.kde.klipper"
	KlipperPath    = dbus.ObjectPath("/klipper")
	KlipperMethod  = "org.kde.klipper.klipper.setClipboardContents"
)

// caller is the part of dbus.BusObject Klipper uses.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

type dialFunc func() (caller, io.Closer, error)

// Klipper talks to the Plasma clipboard manager.
type Klipper struct {
	mu      sync.Mutex
	dial    dialFunc
	obj     caller
	closer  io.Closer
	timeout time.Duration
	logger  *slog.Logger
}

// NewKlipper creates a Klipper client. When conn is nil the client opens its
// own session bus connection on first use and releases it on Close; a shared
// conn is used as is and never closed here.
func NewKlipper(conn *dbus.Conn, timeout time.Duration, logger *slog.Logger) *Klipper {
	k := &Klipper{timeout: timeout, logger: logger}
	if conn != nil {
		k.dial = func() (caller, io.Closer, error) {
			return conn.Object(KlipperService, KlipperPath), nopCloser{}, nil
		}
	} else {
		k.dial = dialSession
	}
	return k
}

func dialSession() (caller, io.Closer, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, nil, err
	}
	return conn.Object(KlipperService, KlipperPath), conn, nil
}

// SetContents replaces the clipboard contents with text.
func (k *Klipper) SetContents(ctx context.Context, text string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.obj == nil {
		obj, closer, err := k.dial()
		if err != nil {
			return fmt.Errorf("%w: connect to session bus: %w", ErrUnavailable, err)
		}
		k.obj, k.closer = obj, closer
		k.logger.Debug("connected to klipper")
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	call := k.obj.CallWithContext(ctx, KlipperMethod, 0, text)
	if call.Err != nil {
		return classify(call.Err)
	}
	return nil
}

// Close drops the bus connection.
func (k *Klipper) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closer == nil {
		return nil
	}
	err := k.closer.Close()
	k.obj, k.closer = nil, nil
	return err
}

// classify maps bus errors that mean nobody is listening to ErrUnavailable.
func classify(err error) error {
	if name := busErrorName(err); name != "" {
		switch name {
		case "org.freedesktop.DBus.Error.ServiceUnknown",
			"org.freedesktop.DBus.Error.NameHasNoOwner",
			"org.freedesktop.DBus.Error.NoReply",
			"org.freedesktop.DBus.Error.UnknownObject",
			"org.freedesktop.DBus.Error.UnknownMethod":
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return fmt.Errorf("klipper: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, dbus.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("klipper: %w", err)
}

// busErrorName returns the D-Bus error name carried by err, if any.
func busErrorName(err error) string {
	var value dbus.Error
	if errors.As(err, &value) {
		return value.Name
	}
	var ptr *dbus.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Name
	}
	return ""
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
