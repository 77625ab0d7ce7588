package dispatch

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zer0-x/krunner-zoom/internal/dispatch/mocks"
	"github.com/zer0-x/krunner-zoom/internal/log"
	"github.com/zer0-x/krunner-zoom/internal/meeting"
	"github.com/zer0-x/krunner-zoom/internal/store"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR", "json") // Suppress logs in tests
	os.Exit(m.Run())
}

func ptr(s string) *string { return &s }

type fakeEntries map[string]meeting.Entry

func (f fakeEntries) Get(key string) (meeting.Entry, error) {
	e, ok := f[key]
	if !ok {
		return meeting.Entry{}, store.ErrNotFound
	}
	return e, nil
}

var testEntries = fakeEntries{
	"meeting_pw":    {Key: "meeting_pw", Name: "With passcode", ID: "111", Passcode: ptr("abc")},
	"meeting_none":  {Key: "meeting_none", Name: "No passcode", ID: "222"},
	"meeting_empty": {Key: "meeting_empty", Name: "Empty passcode", ID: "333", Passcode: ptr("")},
	meeting.TempKey: meeting.NewTemp("123"),
}

func setupTestDispatcher(t *testing.T) (*Dispatcher, *mocks.MockOpener, *mocks.MockClipboard) {
	t.Helper()
	ctrl := gomock.NewController(t)
	op := mocks.NewMockOpener(ctrl)
	cb := mocks.NewMockClipboard(ctrl)
	return New(testEntries, op, cb, nil), op, cb
}

func TestParseAction(t *testing.T) {
	tests := map[string]Action{
		"":              ActionOpen,
		"copy-id":       ActionCopyID,
		"copy-passcode": ActionCopyPasscode,
		"copy-uri":      ActionCopyURI,
		"0":             ActionUnknown,
		"share":         ActionUnknown,
		"COPY-ID":       ActionUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseAction(in), in)
	}
}

func TestDispatchEffects(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		action string
		setup  func(op *mocks.MockOpener, cb *mocks.MockClipboard)
	}{
		{
			name:   "default action opens the join uri",
			key:    "meeting_pw",
			action: "",
			setup: func(op *mocks.MockOpener, cb *mocks.MockClipboard) {
				op.EXPECT().Open(gomock.Any(), "zoommtg://zoom.us/join?action=join&confno=111&pwd=abc").Return(nil)
			},
		},
		{
			name:   "open without passcode",
			key:    "meeting_none",
			action: "",
			setup: func(op *mocks.MockOpener, cb *mocks.MockClipboard) {
				op.EXPECT().Open(gomock.Any(), "zoommtg://zoom.us/join?action=join&confno=222").Return(nil)
			},
		},
		{
			name:   "copy id",
			key:    "meeting_pw",
			action: "copy-id",
			setup: func(op *mocks.MockOpener, cb *mocks.MockClipboard) {
				cb.EXPECT().SetContents(gomock.Any(), "111").Return(nil)
			},
		},
		{
			name:   "copy passcode",
			key:    "meeting_pw",
			action: "copy-passcode",
			setup: func(op *mocks.MockOpener, cb *mocks.MockClipboard) {
				cb.EXPECT().SetContents(gomock.Any(), "abc").Return(nil)
			},
		},
		{
			name:   "copy passcode without one is a no-op",
			key:    "meeting_none",
			action: "copy-passcode",
			setup:  func(op *mocks.MockOpener, cb *mocks.MockClipboard) {},
		},
		{
			name:   "copy empty passcode copies the empty string",
			key:    "meeting_empty",
			action: "copy-passcode",
			setup: func(op *mocks.MockOpener, cb *mocks.MockClipboard) {
				cb.EXPECT().SetContents(gomock.Any(), "").Return(nil)
			},
		},
		{
			name:   "copy uri",
			key:    "meeting_empty",
			action: "copy-uri",
			setup: func(op *mocks.MockOpener, cb *mocks.MockClipboard) {
				cb.EXPECT().SetContents(gomock.Any(), "zoommtg://zoom.us/join?action=join&confno=333").Return(nil)
			},
		},
		{
			name:   "temp entry copy uri",
			key:    meeting.TempKey,
			action: "copy-uri",
			setup: func(op *mocks.MockOpener, cb *mocks.MockClipboard) {
				cb.EXPECT().SetContents(gomock.Any(), "zoommtg://zoom.us/join?action=join&confno=123").Return(nil)
			},
		},
		{
			name:   "temp entry copy passcode is a no-op",
			key:    meeting.TempKey,
			action: "copy-passcode",
			setup:  func(op *mocks.MockOpener, cb *mocks.MockClipboard) {},
		},
		{
			name:   "unknown action is a no-op",
			key:    "meeting_pw",
			action: "share-to-calendar",
			setup:  func(op *mocks.MockOpener, cb *mocks.MockClipboard) {},
		},
		{
			name:   "empty key is a no-op",
			key:    "",
			action: "copy-id",
			setup:  func(op *mocks.MockOpener, cb *mocks.MockClipboard) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, op, cb := setupTestDispatcher(t)
			tt.setup(op, cb)
			assert.NoError(t, d.Dispatch(context.Background(), tt.key, tt.action))
		})
	}
}

func TestDispatchUnknownKey(t *testing.T) {
	d, _, _ := setupTestDispatcher(t)

	err := d.Dispatch(context.Background(), "meeting_gone", "copy-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLookup)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDispatchSurfacesErrors(t *testing.T) {
	openerDown := errors.New("no opener")
	clipboardDown := errors.New("klipper not running")

	t.Run("opener", func(t *testing.T) {
		d, op, _ := setupTestDispatcher(t)
		op.EXPECT().Open(gomock.Any(), gomock.Any()).Return(openerDown).Times(1)

		err := d.Dispatch(context.Background(), "meeting_pw", "")
		assert.ErrorIs(t, err, openerDown)
	})

	for _, action := range []string{"copy-id", "copy-passcode", "copy-uri"} {
		t.Run(action, func(t *testing.T) {
			d, _, cb := setupTestDispatcher(t)
			// Exactly one attempt: no retries.
			cb.EXPECT().SetContents(gomock.Any(), gomock.Any()).Return(clipboardDown).Times(1)

			err := d.Dispatch(context.Background(), "meeting_pw", action)
			assert.ErrorIs(t, err, clipboardDown)
		})
	}
}
