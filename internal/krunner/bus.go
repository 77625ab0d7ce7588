package krunner

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// Export publishes a at path with introspection data.
func Export(conn *dbus.Conn, a *Adapter, path dbus.ObjectPath) error {
	if err := conn.Export(a, path, Interface); err != nil {
		return fmt.Errorf("export %s: %w", Interface, err)
	}

	node := &introspect.Node{
		Name: string(path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: introspect.Methods(a),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}
	return nil
}

// Unexport removes everything Export published at path.
func Unexport(conn *dbus.Conn, path dbus.ObjectPath) {
	_ = conn.Export(nil, path, Interface)
	_ = conn.Export(nil, path, "org.freedesktop.DBus.Introspectable")
}

// ClaimName takes ownership of name without queueing behind another owner.
func ClaimName(conn *dbus.Conn, name string) error {
	reply, err := conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request bus name %s: %w", name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s is already taken", name)
	}
	return nil
}

// Serve exports a on conn, claims name and blocks until ctx is done.
func Serve(ctx context.Context, conn *dbus.Conn, a *Adapter, name string, path dbus.ObjectPath) error {
	if err := Export(conn, a, path); err != nil {
		return err
	}
	defer Unexport(conn, path)

	if err := ClaimName(conn, name); err != nil {
		return err
	}
	defer func() {
		if _, err := conn.ReleaseName(name); err != nil {
			a.logger.Warn("failed to release bus name", "name", name, "error", err)
		}
	}()

	a.logger.Info("runner ready", "bus_name", name, "object_path", path)
	<-ctx.Done()
	a.logger.Info("runner stopping")
	return nil
}
