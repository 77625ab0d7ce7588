package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zer0-x/krunner-zoom/internal/config"
	"github.com/zer0-x/krunner-zoom/internal/lock"
	"github.com/zer0-x/krunner-zoom/internal/meeting"
	"github.com/zer0-x/krunner-zoom/internal/opener"
	"github.com/zer0-x/krunner-zoom/internal/registry"
	"github.com/zer0-x/krunner-zoom/internal/registry/mocks"
)

func init() {
	color.NoColor = true
}

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Service.LockPath = filepath.Join(t.TempDir(), "zm.lock")
	cfg.Runner.MeetingsFile = filepath.Join(t.TempDir(), ".zoom_meetings_runner")
	cfg.Runner.Icon = "zoom"
	return cfg
}

// newDoctor wires a doctor whose host checks pass unless overridden.
func newDoctor(cfg *config.Config, source registry.Source) *Doctor {
	d := New(cfg, source)
	d.probeOpener = func([]string) (string, error) { return "/usr/bin/xdg-open", nil }
	d.checkClipboard = func(string) error { return nil }
	d.checkLockFS = func(string) error { return nil }
	return d
}

func writeMeetings(t *testing.T, cfg *config.Config, content string) {
	t.Helper()
	if err := os.WriteFile(cfg.Runner.MeetingsFile, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(meetings): %v", err)
	}
}

func TestValidateHealthy(t *testing.T) {
	cfg := validConfig(t)
	writeMeetings(t, cfg, "[meeting_a]\nname = Alpha\nid = 111\n[meeting_b]\nname = Beta\nid = 222\npasscode = x\n")

	r := newDoctor(cfg, registry.NewFileSource(cfg.Runner.MeetingsFile)).Validate(context.Background())

	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	require.NotNil(t, r.Registry)
	assert.Equal(t, 2, r.Registry.Entries)
	assert.Len(t, r.Registry.Fingerprint, 64)
	assert.Equal(t, "/usr/bin/xdg-open", r.Opener)
}

func TestValidateRegistryWarnings(t *testing.T) {
	cfg := validConfig(t)
	writeMeetings(t, cfg, `stray = line
[meeting_a]
name = Alpha
id = 111
[meeting_dup]
name = Same id
id = 111
[meeting_words]
name = Words
id = 12 34
[meeting_noid]
name = Broken
`)

	r := newDoctor(cfg, registry.NewFileSource(cfg.Runner.MeetingsFile)).Validate(context.Background())

	assert.True(t, r.Valid, "registry problems are warnings")
	require.NotNil(t, r.Registry)
	assert.Equal(t, 3, r.Registry.Entries)
	assert.Equal(t, 2, r.Registry.Skipped)

	messages := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		assert.Equal(t, "registry", w.Category)
		messages = append(messages, w.Field+": "+w.Message)
	}
	joined := strings.Join(messages, "\n")
	assert.Contains(t, joined, "meeting id 111 is also used by [meeting_a]")
	assert.Contains(t, joined, `id "12 34" is not a plain number`)
	assert.Contains(t, joined, "[meeting_noid]")
	assert.Contains(t, joined, "line 1")
}

func TestValidateMissingRegistry(t *testing.T) {
	cfg := validConfig(t)

	r := newDoctor(cfg, registry.NewFileSource(cfg.Runner.MeetingsFile)).Validate(context.Background())

	assert.True(t, r.Valid)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "runner.meetings_file", r.Warnings[0].Field)
	assert.Contains(t, r.Warnings[0].Message, "does not exist")
	assert.Equal(t, 0, r.Registry.Entries)
}

func TestValidateRegistryLoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Load(gomock.Any()).Return(nil, errors.New("permission denied"))

	cfg := validConfig(t)
	writeMeetings(t, cfg, "")

	r := newDoctor(cfg, src).Validate(context.Background())

	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "registry", r.Errors[0].Category)
	assert.Nil(t, r.Registry)
}

func TestValidateHostChecks(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Load(gomock.Any()).Return(&registry.Snapshot{Entries: []meeting.Entry{{Key: "meeting_a", Name: "A", ID: "1"}}}, nil)

	cfg := validConfig(t)
	writeMeetings(t, cfg, "")

	d := New(cfg, src)
	d.probeOpener = func([]string) (string, error) { return "", opener.ErrUnavailable }
	d.checkClipboard = func(string) error { return errors.New("clipboard unavailable: no session bus") }
	d.checkLockFS = func(string) error { return nil }

	r := d.Validate(context.Background())
	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "opener", r.Errors[0].Category)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "clipboard", r.Warnings[0].Category)
}

func TestValidateConfigErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Runner.MaxResults = 0
	cfg.Clipboard.Backend = "pbcopy"
	writeMeetings(t, cfg, "")

	r := newDoctor(cfg, registry.NewFileSource(cfg.Runner.MeetingsFile)).Validate(context.Background())

	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 2)
	for _, e := range r.Errors {
		assert.Equal(t, "config", e.Category)
	}
}

func TestWarnMissingIcon(t *testing.T) {
	cfg := validConfig(t)
	cfg.Runner.Icon = filepath.Join(t.TempDir(), "zoom.png")
	writeMeetings(t, cfg, "")

	r := newDoctor(cfg, registry.NewFileSource(cfg.Runner.MeetingsFile)).Validate(context.Background())
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "runner.icon", r.Warnings[0].Field)
}

func TestWarnLockOnNetworkFilesystem(t *testing.T) {
	cfg := validConfig(t)
	writeMeetings(t, cfg, "")

	d := newDoctor(cfg, registry.NewFileSource(cfg.Runner.MeetingsFile))
	d.checkLockFS = func(path string) error {
		return fmt.Errorf("%w: %s is on nfs", lock.ErrNetworkFilesystem, path)
	}

	r := d.Validate(context.Background())
	assert.True(t, r.Valid)
	require.Len(t, r.Warnings, 1)
	assert.Equal(t, "lock", r.Warnings[0].Category)
	assert.Equal(t, "service.lock_path", r.Warnings[0].Field)
}

func TestFormatHuman(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "healthy",
			result: &Result{Valid: true},
			want:   []string{"Installation healthy."},
		},
		{
			name: "warnings only",
			result: &Result{
				Valid:    true,
				Registry: &RegistryInfo{Path: "/home/u/.zoom_meetings_runner", Entries: 2, Skipped: 1, Fingerprint: "abc"},
				Opener:   "/usr/bin/xdg-open",
				Warnings: []Issue{{Category: "registry", Field: "[meeting_x] (line 4)", Message: "section skipped"}},
			},
			want: []string{
				"Installation usable (1 warning(s))",
				"meetings: /home/u/.zoom_meetings_runner (2 loaded, 1 skipped)",
				"blake3:   abc",
				"opener:   /usr/bin/xdg-open",
				"WARN  [registry] [meeting_x] (line 4): section skipped",
			},
		},
		{
			name: "errors",
			result: &Result{
				Errors: []Issue{{Category: "opener", Message: "opener utility not found"}},
			},
			want: []string{
				"Installation broken (1 error(s), 0 warning(s))",
				"ERROR [opener] opener utility not found",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatHuman(tt.result)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(&Result{Valid: false, Errors: []Issue{{Category: "config", Message: "bad"}}})
	require.NoError(t, err)

	var decoded Result
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.False(t, decoded.Valid)
	assert.Equal(t, "bad", decoded.Errors[0].Message)
}
