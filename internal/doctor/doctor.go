// Package doctor checks a krunner-zoom installation: configuration, the
// meetings registry and the host programs the runner depends on.
package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/zer0-x/krunner-zoom/internal/clipboard"
	"github.com/zer0-x/krunner-zoom/internal/config"
	"github.com/zer0-x/krunner-zoom/internal/lock"
	"github.com/zer0-x/krunner-zoom/internal/meeting"
	"github.com/zer0-x/krunner-zoom/internal/opener"
	"github.com/zer0-x/krunner-zoom/internal/registry"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool          `json:"valid"`
	Registry *RegistryInfo `json:"registry,omitempty"`
	Opener   string        `json:"opener,omitempty"`
	Errors   []Issue       `json:"errors,omitempty"`
	Warnings []Issue       `json:"warnings,omitempty"`
}

// RegistryInfo summarizes the meetings file.
type RegistryInfo struct {
	Path        string `json:"path"`
	Entries     int    `json:"entries"`
	Skipped     int    `json:"skipped"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor runs the checks for one configuration.
type Doctor struct {
	cfg    *config.Config
	source registry.Source

	probeOpener    func([]string) (string, error)
	checkClipboard func(string) error
	checkLockFS    func(string) error
}

// New creates a Doctor. source reads the meetings registry named in cfg.
func New(cfg *config.Config, source registry.Source) *Doctor {
	return &Doctor{
		cfg:            cfg,
		source:         source,
		probeOpener:    opener.Probe,
		checkClipboard: clipboard.Check,
		checkLockFS:    lock.CheckLocalFilesystem,
	}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate(ctx context.Context) *Result {
	r := &Result{Valid: true}

	d.validateConfig(r)
	d.validateRegistry(ctx, r)
	d.validateOpener(r)
	d.validateClipboard(r)
	d.validateLock(r)
	d.warnMissingIcon(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateConfig reports each configuration problem separately.
func (d *Doctor) validateConfig(r *Result) {
	err := d.cfg.Validate()
	if err == nil {
		return
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			d.addError(r, "config", "", e.Error())
		}
		return
	}
	d.addError(r, "config", "", err.Error())
}

// validateRegistry loads the meetings file the way a session would and
// reports what a session would skip.
func (d *Doctor) validateRegistry(ctx context.Context, r *Result) {
	path := d.cfg.Runner.MeetingsFile
	field := "runner.meetings_file"

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		d.addWarning(r, "registry", field, fmt.Sprintf("%s does not exist; only typed meeting ids will match", path))
	}

	snap, err := d.source.Load(ctx)
	if err != nil {
		d.addError(r, "registry", field, err.Error())
		return
	}

	r.Registry = &RegistryInfo{
		Path:        path,
		Entries:     len(snap.Entries),
		Skipped:     len(snap.Problems),
		Fingerprint: snap.Fingerprint,
	}

	for _, p := range snap.Problems {
		d.addWarning(r, "registry", sectionField(p.Section, p.Line), fmt.Sprintf("section skipped: %v", p.Err))
	}

	seen := make(map[string]string)
	for _, e := range snap.Entries {
		if _, ok := meeting.NormalizeID(e.ID); !ok {
			d.addWarning(r, "registry", e.Key+".id",
				fmt.Sprintf("id %q is not a plain number; the join link will likely fail", e.ID))
		}
		if first, dup := seen[e.ID]; dup {
			d.addWarning(r, "registry", e.Key+".id",
				fmt.Sprintf("meeting id %s is also used by [%s]", e.ID, first))
			continue
		}
		seen[e.ID] = e.Key
	}
}

func sectionField(section string, line int) string {
	if section == "" {
		return fmt.Sprintf("line %d", line)
	}
	return fmt.Sprintf("[%s] (line %d)", section, line)
}

func (d *Doctor) validateOpener(r *Result) {
	path, err := d.probeOpener(d.cfg.Opener.Paths)
	if err != nil {
		d.addError(r, "opener", "opener.paths", err.Error())
		return
	}
	r.Opener = path
}

func (d *Doctor) validateClipboard(r *Result) {
	if err := d.checkClipboard(d.cfg.Clipboard.Backend); err != nil {
		d.addWarning(r, "clipboard", "clipboard.backend", err.Error()+"; copy actions will fail")
	}
}

func (d *Doctor) validateLock(r *Result) {
	if err := d.checkLockFS(d.cfg.Service.LockPath); err != nil {
		d.addWarning(r, "lock", "service.lock_path", err.Error())
	}
}

// warnMissingIcon flags an icon configured as a file that is not there.
// Theme icon names are not checked.
func (d *Doctor) warnMissingIcon(r *Result) {
	icon := d.cfg.Runner.Icon
	if !filepath.IsAbs(icon) {
		return
	}
	if _, err := os.Stat(icon); err != nil {
		d.addWarning(r, "runner", "runner.icon", fmt.Sprintf("icon file %s not found; KRunner shows a blank icon", icon))
	}
}

var (
	errorLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	warnLabel  = color.New(color.FgYellow, color.Bold).SprintFunc()
	okLabel    = color.New(color.FgGreen).SprintFunc()
)

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	switch {
	case r.Valid && len(r.Warnings) == 0:
		b.WriteString(okLabel("Installation healthy.") + "\n")
	case r.Valid:
		fmt.Fprintf(&b, "%s (%d warning(s))\n", okLabel("Installation usable"), len(r.Warnings))
	default:
		fmt.Fprintf(&b, "Installation broken (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	if r.Registry != nil {
		fmt.Fprintf(&b, "  meetings: %s (%d loaded, %d skipped)\n", r.Registry.Path, r.Registry.Entries, r.Registry.Skipped)
		if r.Registry.Fingerprint != "" {
			fmt.Fprintf(&b, "  blake3:   %s\n", r.Registry.Fingerprint)
		}
	}
	if r.Opener != "" {
		fmt.Fprintf(&b, "  opener:   %s\n", r.Opener)
	}

	for _, e := range r.Errors {
		writeIssue(&b, errorLabel("ERROR"), e)
	}
	for _, w := range r.Warnings {
		writeIssue(&b, warnLabel("WARN "), w)
	}

	return b.String()
}

func writeIssue(b *strings.Builder, label string, issue Issue) {
	if issue.Field != "" {
		fmt.Fprintf(b, "  %s [%s] %s: %s\n", label, issue.Category, issue.Field, issue.Message)
	} else {
		fmt.Fprintf(b, "  %s [%s] %s\n", label, issue.Category, issue.Message)
	}
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
