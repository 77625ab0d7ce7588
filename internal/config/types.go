package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete krunner-zoom configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Runner    RunnerConfig    `yaml:"runner"`
	Opener    OpenerConfig    `yaml:"opener"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Bus       BusConfig       `yaml:"bus"`

	// Path is the file the config was read from; empty when only defaults apply.
	Path string `yaml:"-"`
	// source is the parsed document, kept for SetPath.
	source *yaml.Node
}

// ServiceConfig defines process-level settings.
type ServiceConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LockPath  string `yaml:"lock_path"`
}

// RunnerConfig defines how queries are recognized and answered.
type RunnerConfig struct {
	Keyword      string `yaml:"keyword"`
	MaxResults   int    `yaml:"max_results"`
	MeetingsFile string `yaml:"meetings_file"`
	Icon         string `yaml:"icon"`
	// Locale overrides LC_ALL/LC_MESSAGES/LANG for user-visible text.
	Locale string `yaml:"locale,omitempty"`
}

// OpenerConfig defines the join-URI opener.
type OpenerConfig struct {
	Paths   []string      `yaml:"paths"`
	Timeout time.Duration `yaml:"timeout"`
}

// ClipboardConfig selects the clipboard backend.
type ClipboardConfig struct {
	Backend string        `yaml:"backend"`
	Timeout time.Duration `yaml:"timeout"`
}

// BusConfig defines where the runner is published on the session bus.
type BusConfig struct {
	Name       string `yaml:"name"`
	ObjectPath string `yaml:"object_path"`
}

// Defaults returns a Config with every field set to its default. Paths are
// not yet expanded.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			LogLevel:  "info",
			LogFormat: "json",
			LockPath:  defaultLockPath(),
		},
		Runner: RunnerConfig{
			Keyword:      "zm",
			MaxResults:   13,
			MeetingsFile: "~/.zoom_meetings_runner",
			Icon:         "~/.local/share/pixmaps/com.github.zer0-x.krunner-zoom.png",
		},
		Opener: OpenerConfig{
			Paths:   []string{"/usr/bin/xdg-open", "/usr/bin/open"},
			Timeout: 10 * time.Second,
		},
		Clipboard: ClipboardConfig{
			Backend: "klipper",
			Timeout: 5 * time.Second,
		},
		Bus: BusConfig{
			Name:       "com.github.zer0-x.krunner-zoom",
			ObjectPath: "/krunnerZoom",
		},
	}
}
