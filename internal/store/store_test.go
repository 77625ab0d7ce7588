package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zer0-x/krunner-zoom/internal/meeting"
	"github.com/zer0-x/krunner-zoom/internal/registry"
	"github.com/zer0-x/krunner-zoom/internal/registry/mocks"
)

func snapshot(fp string, entries ...meeting.Entry) *registry.Snapshot {
	return &registry.Snapshot{Entries: entries, Fingerprint: fp}
}

func entry(key, id string) meeting.Entry {
	return meeting.Entry{Key: key, Name: key, ID: id}
}

func TestEnsureLoadedIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	ctx := context.Background()

	src.EXPECT().Load(gomock.Any()).Return(snapshot("fp", entry("meeting_a", "1")), nil).Times(1)

	s := New(src, nil)
	assert.False(t, s.Loaded())

	require.NoError(t, s.EnsureLoaded(ctx))
	require.NoError(t, s.EnsureLoaded(ctx))
	assert.True(t, s.Loaded())
	assert.Len(t, s.Entries(), 1)
}

func TestForceReloadReplacesEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	ctx := context.Background()

	gomock.InOrder(
		src.EXPECT().Load(gomock.Any()).Return(snapshot("one", entry("meeting_old", "1")), nil),
		src.EXPECT().Load(gomock.Any()).Return(snapshot("two", entry("meeting_new", "2")), nil),
		src.EXPECT().Load(gomock.Any()).Return(snapshot("two", entry("meeting_new", "2")), nil),
	)

	s := New(src, nil)
	require.NoError(t, s.EnsureLoaded(ctx))

	r, err := s.ForceReload(ctx)
	require.NoError(t, err)
	assert.True(t, r.Changed)
	assert.Equal(t, 1, r.Entries)

	_, err = s.Get("meeting_old")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := s.Get("meeting_new")
	require.NoError(t, err)
	assert.Equal(t, "2", got.ID)

	r, err = s.ForceReload(ctx)
	require.NoError(t, err)
	assert.False(t, r.Changed)

	// Already loaded: no further reads.
	require.NoError(t, s.EnsureLoaded(ctx))
}

func TestForceReloadWhenUnloaded(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Load(gomock.Any()).Return(snapshot(""), nil).Times(1)

	s := New(src, nil)
	r, err := s.ForceReload(context.Background())
	require.NoError(t, err)
	assert.True(t, r.Changed)
	assert.True(t, s.Loaded())

	require.NoError(t, s.EnsureLoaded(context.Background()))
}

func TestLoadErrorIsReportedOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	ctx := context.Background()

	boom := errors.New("permission denied")
	src.EXPECT().Load(gomock.Any()).Return(nil, boom).Times(1)

	s := New(src, nil)
	err := s.EnsureLoaded(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// No retry: the store is loaded and empty.
	assert.NoError(t, s.EnsureLoaded(ctx))
	assert.True(t, s.Loaded())
	assert.Empty(t, s.Entries())
}

func TestDuplicateKeysFromSourceKeepFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Load(gomock.Any()).Return(snapshot("", entry("meeting_a", "1"), entry("meeting_a", "2")), nil)

	s := New(src, nil)
	require.NoError(t, s.EnsureLoaded(context.Background()))
	require.Len(t, s.Entries(), 1)
	assert.Equal(t, "1", s.Entries()[0].ID)
}

func TestEntriesKeepSourceOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	src.EXPECT().Load(gomock.Any()).Return(snapshot("",
		entry("meeting_c", "3"), entry("meeting_a", "1"), entry("meeting_b", "2")), nil)

	s := New(src, nil)
	require.NoError(t, s.EnsureLoaded(context.Background()))

	var got []string
	for _, e := range s.Entries() {
		got = append(got, e.Key)
	}
	assert.Equal(t, []string{"meeting_c", "meeting_a", "meeting_b"}, got)
}

func TestGetBeforeLoad(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := New(mocks.NewMockSource(ctrl), nil)

	_, err := s.Get("meeting_a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.Entries())
}

func TestTempEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := New(mocks.NewMockSource(ctrl), nil)

	_, err := s.Get(meeting.TempKey)
	assert.ErrorIs(t, err, ErrNotFound)

	s.SetTemp(meeting.NewTemp("123"))
	got, err := s.Get(meeting.TempKey)
	require.NoError(t, err)
	assert.Equal(t, "123", got.ID)

	s.SetTemp(meeting.Entry{Key: "ignored", Name: "456", ID: "456"})
	got, err = s.Get(meeting.TempKey)
	require.NoError(t, err)
	assert.Equal(t, "456", got.ID)
	assert.Equal(t, meeting.TempKey, got.Key)

	// The temp entry does not require the registry.
	assert.False(t, s.Loaded())
}

func TestClearReturnsToUnloaded(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	ctx := context.Background()
	src.EXPECT().Load(gomock.Any()).Return(snapshot("fp", entry("meeting_a", "1")), nil).Times(2)

	s := New(src, nil)
	require.NoError(t, s.EnsureLoaded(ctx))
	s.SetTemp(meeting.NewTemp("9"))

	s.Clear()
	assert.False(t, s.Loaded())
	assert.Empty(t, s.Entries())
	assert.Empty(t, s.Fingerprint())
	_, err := s.Get(meeting.TempKey)
	assert.ErrorIs(t, err, ErrNotFound)

	// Next use reads the source again.
	require.NoError(t, s.EnsureLoaded(ctx))
	assert.Equal(t, "fp", s.Fingerprint())
}

func TestWithFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meetings")
	require.NoError(t, os.WriteFile(path, []byte("[meeting_a]\nid=1\n[meeting_b]\nname=B\n"), 0o600))

	s := New(registry.NewFileSource(path), nil)
	require.NoError(t, s.EnsureLoaded(context.Background()))
	require.Len(t, s.Entries(), 1)
	assert.Equal(t, "meeting_a", s.Entries()[0].Key)
	assert.NotEmpty(t, s.Fingerprint())
}
