package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"

	"github.com/zer0-x/krunner-zoom/internal/clipboard"
	"github.com/zer0-x/krunner-zoom/internal/config"
	"github.com/zer0-x/krunner-zoom/internal/i18n"
	"github.com/zer0-x/krunner-zoom/internal/krunner"
	"github.com/zer0-x/krunner-zoom/internal/lock"
	"github.com/zer0-x/krunner-zoom/internal/log"
	"github.com/zer0-x/krunner-zoom/internal/match"
	"github.com/zer0-x/krunner-zoom/internal/opener"
	"github.com/zer0-x/krunner-zoom/internal/registry"
	"github.com/zer0-x/krunner-zoom/internal/runner"
)

func runServe(args []string) int {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("krunner-zoom starting", "version", version, "config", cfg.Path, "meetings_file", cfg.Runner.MeetingsFile)

	if err := lock.CheckLocalFilesystem(cfg.Service.LockPath); err != nil {
		logger.Warn("single-instance lock may not hold", "error", err)
	}
	pidLock, err := lock.Acquire(cfg.Service.LockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock", "path", cfg.Service.LockPath, "error", err)
		return 1
	}
	defer pidLock.Release()

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Error("failed to connect to session bus", "error", err)
		return 1
	}
	defer conn.Close()

	svc, err := buildService(cfg, conn)
	if err != nil {
		logger.Error("failed to build runner", "error", err)
		return 1
	}
	defer svc.Teardown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter := krunner.NewAdapter(ctx, svc, cfg.Runner.Keyword, log.WithComponent("krunner"))
	if err := krunner.Serve(ctx, conn, adapter, cfg.Bus.Name, dbus.ObjectPath(cfg.Bus.ObjectPath)); err != nil {
		logger.Error("runner failed", "error", err)
		return 1
	}

	logger.Info("krunner-zoom stopped")
	return 0
}

// buildService wires the runner from cfg. A non-nil conn is shared with the
// Klipper client; otherwise the clipboard connects on first use.
func buildService(cfg *config.Config, conn *dbus.Conn) (*runner.Service, error) {
	clip, err := newClipboard(cfg, conn, log.WithComponent("clipboard"))
	if err != nil {
		return nil, err
	}

	svc := runner.NewService(runner.Config{
		Source: registry.NewFileSource(cfg.Runner.MeetingsFile),
		Opener: opener.New(opener.Options{
			Candidates: cfg.Opener.Paths,
			Timeout:    cfg.Opener.Timeout,
		}, log.WithComponent("opener")),
		Clipboard:  clip,
		Translator: i18n.New(localeTag(cfg)),
		Match: match.Options{
			Keyword:    cfg.Runner.Keyword,
			MaxResults: cfg.Runner.MaxResults,
			Icon:       cfg.Runner.Icon,
		},
	}, log.WithComponent("runner"))
	return svc, nil
}

func newClipboard(cfg *config.Config, conn *dbus.Conn, logger *slog.Logger) (clipboard.Clipboard, error) {
	if conn != nil && cfg.Clipboard.Backend == clipboard.BackendKlipper {
		return clipboard.NewKlipper(conn, cfg.Clipboard.Timeout, logger), nil
	}
	return clipboard.New(clipboard.Options{
		Backend: cfg.Clipboard.Backend,
		Timeout: cfg.Clipboard.Timeout,
	}, logger)
}

func localeTag(cfg *config.Config) language.Tag {
	if cfg.Runner.Locale != "" {
		return i18n.ParseLocale(cfg.Runner.Locale)
	}
	return i18n.FromEnv()
}
