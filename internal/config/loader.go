package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/godbus/dbus/v5"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load resolves and reads the configuration. An empty configPath falls back
// to discovery; when no file is found the defaults are used. A path given
// explicitly must exist.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		discovered, err := DiscoverConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}

	var cfg *Config
	if configPath == "" {
		cfg = Defaults()
	} else {
		absPath, err := filepath.Abs(expandHome(configPath))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
		}
		cfg, err = loadConfigFile(absPath)
		if err != nil {
			return nil, err
		}
	}

	cfg = applyConfigDefaults(cfg)
	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadConfigFile parses one YAML file. Unknown keys are rejected.
func loadConfigFile(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or unset $%s", path, EnvConfig)
	}
	if info.IsDir() {
		path = filepath.Join(path, "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	interpolated := []byte(interpolateEnv(string(data)))

	cfg := &Config{Path: path}

	// The raw document keeps ${VAR} references intact for SetPath.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}
	cfg.source = &root

	dec := yaml.NewDecoder(bytes.NewReader(interpolated))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}
	return cfg, nil
}

func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}
	if cfg.Service.LockPath == "" {
		cfg.Service.LockPath = defaults.Service.LockPath
	}

	if cfg.Runner.Keyword == "" {
		cfg.Runner.Keyword = defaults.Runner.Keyword
	}
	if cfg.Runner.MaxResults == 0 {
		cfg.Runner.MaxResults = defaults.Runner.MaxResults
	}
	if cfg.Runner.MeetingsFile == "" {
		cfg.Runner.MeetingsFile = defaults.Runner.MeetingsFile
	}
	if cfg.Runner.Icon == "" {
		cfg.Runner.Icon = defaults.Runner.Icon
	}

	if len(cfg.Opener.Paths) == 0 {
		cfg.Opener.Paths = defaults.Opener.Paths
	}
	if cfg.Opener.Timeout == 0 {
		cfg.Opener.Timeout = defaults.Opener.Timeout
	}

	if cfg.Clipboard.Backend == "" {
		cfg.Clipboard.Backend = defaults.Clipboard.Backend
	}
	if cfg.Clipboard.Timeout == 0 {
		cfg.Clipboard.Timeout = defaults.Clipboard.Timeout
	}

	if cfg.Bus.Name == "" {
		cfg.Bus.Name = defaults.Bus.Name
	}
	if cfg.Bus.ObjectPath == "" {
		cfg.Bus.ObjectPath = defaults.Bus.ObjectPath
	}

	return cfg
}

func expandPaths(cfg *Config) {
	cfg.Service.LockPath = expandHome(cfg.Service.LockPath)
	cfg.Runner.MeetingsFile = expandHome(cfg.Runner.MeetingsFile)
	cfg.Runner.Icon = expandHome(cfg.Runner.Icon)
	for i, p := range cfg.Opener.Paths {
		cfg.Opener.Paths[i] = expandHome(p)
	}
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Left in place so Validate reports it.
		return match
	})
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "text": true}
	validBackends   = map[string]bool{"klipper": true, "system": true}
)

// Validate reports every problem in the configuration.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !validLogLevels[strings.ToLower(c.Service.LogLevel)] {
		add("service.log_level must be one of: debug, info, warn, error (got %q)", c.Service.LogLevel)
	}
	if !validLogFormats[c.Service.LogFormat] {
		add("service.log_format must be json or text (got %q)", c.Service.LogFormat)
	}
	if c.Service.LockPath == "" {
		add("service.lock_path is required")
	}

	if c.Runner.Keyword == "" || strings.IndexFunc(c.Runner.Keyword, unicode.IsSpace) >= 0 {
		add("runner.keyword must be a single word (got %q)", c.Runner.Keyword)
	}
	if c.Runner.MaxResults <= 0 {
		add("runner.max_results must be positive (got %d)", c.Runner.MaxResults)
	}
	if c.Runner.MeetingsFile == "" {
		add("runner.meetings_file is required")
	}

	if len(c.Opener.Paths) == 0 {
		add("opener.paths must list at least one executable")
	}
	for i, p := range c.Opener.Paths {
		if !filepath.IsAbs(p) {
			add("opener.paths[%d] must be absolute (got %q)", i, p)
		}
	}
	if c.Opener.Timeout <= 0 {
		add("opener.timeout must be positive")
	}

	if !validBackends[c.Clipboard.Backend] {
		add("clipboard.backend must be klipper or system (got %q)", c.Clipboard.Backend)
	}
	if c.Clipboard.Timeout <= 0 {
		add("clipboard.timeout must be positive")
	}

	if !validBusName(c.Bus.Name) {
		add("bus.name is not a valid well-known bus name (got %q)", c.Bus.Name)
	}
	if !dbus.ObjectPath(c.Bus.ObjectPath).IsValid() {
		add("bus.object_path is not a valid object path (got %q)", c.Bus.ObjectPath)
	}

	for _, f := range []struct{ name, value string }{
		{"service.lock_path", c.Service.LockPath},
		{"runner.meetings_file", c.Runner.MeetingsFile},
		{"runner.icon", c.Runner.Icon},
	} {
		if m := envVarPattern.FindString(f.value); m != "" {
			add("%s references unset environment variable %s", f.name, m)
		}
	}

	return errors.Join(errs...)
}

// validBusName checks the well-known name rules: two or more dot-separated
// elements of [A-Za-z0-9_-], none starting with a digit, at most 255 bytes.
func validBusName(name string) bool {
	if len(name) == 0 || len(name) > 255 {
		return false
	}
	elems := strings.Split(name, ".")
	if len(elems) < 2 {
		return false
	}
	for _, e := range elems {
		if e == "" || (e[0] >= '0' && e[0] <= '9') {
			return false
		}
		for _, r := range e {
			if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
				return false
			}
		}
	}
	return true
}
