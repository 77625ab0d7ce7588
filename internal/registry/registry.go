// Package registry reads saved meetings from an INI-style file.
//
// The file is a list of named sections. Only sections whose name starts with
// "meeting_" describe meetings; anything else is left alone so the same file
// can hold unrelated settings:
//
//	[meeting_standup]
//	name = Daily standup
//	id = 1234567890
//	passcode = s3cret
//
// Parsing is section-local. A malformed section, a section without an id or
// a duplicated section name is recorded as a ParseError and skipped; every
// other section still loads. Reading a registry never fails because of its
// content, only because the file could not be read.
package registry

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/zeebo/blake3"

	"github.com/zer0-x/krunner-zoom/internal/meeting"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks github.com/zer0-x/krunner-zoom/internal/registry Source

// Source produces a registry snapshot.
type Source interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Snapshot is the result of one registry read.
type Snapshot struct {
	// Entries holds the valid meetings in file order.
	Entries []meeting.Entry
	// Problems lists the sections that were skipped.
	Problems []*ParseError
	// Fingerprint is the BLAKE3 digest of the raw file, empty when the file
	// does not exist.
	Fingerprint string
}

var (
	ErrMissingID        = errors.New("missing id")
	ErrDuplicateSection = errors.New("duplicate section")
	ErrNoSectionHeader  = errors.New("content before the first section header")
)

// ParseError describes a skipped section.
type ParseError struct {
	Section string
	Line    int
	Err     error
}

func (e *ParseError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("section %q (line %d): %v", e.Section, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FileSource reads the registry from a file on every Load.
type FileSource struct {
	Path string
}

// NewFileSource returns a Source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and parses the file. A missing file is an empty registry.
func (s *FileSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("read registry %s: %w", s.Path, err)
	}

	snap := Parse(data)
	snap.Fingerprint = Fingerprint(data)
	return snap, nil
}

// Fingerprint returns the hex BLAKE3 digest of data.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
