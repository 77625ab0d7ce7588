package registry

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/zer0-x/krunner-zoom/internal/meeting"
)

const (
	keyName     = "name"
	keyID       = "id"
	keyPasscode = "passcode"
)

// Keys are case-insensitive and values are taken verbatim: a passcode may
// contain '#' or ';', end in '\' or be quoted on purpose. A value opening
// with """ is still read as a multi-line string by ini.v1.
var loadOptions = ini.LoadOptions{
	InsensitiveKeys:            true,
	IgnoreInlineComment:        true,
	IgnoreContinuation:         true,
	AllowPythonMultilineValues: true,
	PreserveSurroundedQuote:    true,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// chunk is one section header plus the lines up to the next header.
type chunk struct {
	line   int
	header bool
	text   []byte
}

type section struct {
	name string
	line int
	keys map[string]string
}

// Parse turns registry content into a snapshot. It never fails as a whole.
func Parse(data []byte) *Snapshot {
	snap := &Snapshot{}
	defaults := map[string]string{}
	var sections []section
	seen := map[string]bool{}

	for _, c := range splitChunks(data) {
		if !c.header {
			if line, ok := firstContentLine(c.text); ok {
				snap.Problems = append(snap.Problems, &ParseError{Line: c.line + line, Err: ErrNoSectionHeader})
			}
			continue
		}

		sec, err := parseChunk(c)
		if err != nil {
			snap.Problems = append(snap.Problems, &ParseError{Section: headerName(c.text), Line: c.line, Err: err})
			continue
		}

		if sec.name == ini.DefaultSection {
			for k, v := range sec.keys {
				defaults[k] = v
			}
			continue
		}
		if seen[sec.name] {
			snap.Problems = append(snap.Problems, &ParseError{Section: sec.name, Line: sec.line, Err: ErrDuplicateSection})
			continue
		}
		seen[sec.name] = true
		sections = append(sections, sec)
	}

	for _, sec := range sections {
		if !strings.HasPrefix(sec.name, meeting.SectionPrefix) {
			continue
		}
		entry, err := buildEntry(sec, defaults)
		if err != nil {
			snap.Problems = append(snap.Problems, &ParseError{Section: sec.name, Line: sec.line, Err: err})
			continue
		}
		snap.Entries = append(snap.Entries, entry)
	}

	return snap
}

func buildEntry(sec section, defaults map[string]string) (meeting.Entry, error) {
	lookup := func(key string) (string, bool) {
		if v, ok := sec.keys[key]; ok {
			return v, true
		}
		v, ok := defaults[key]
		return v, ok
	}

	id, ok := lookup(keyID)
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return meeting.Entry{}, ErrMissingID
	}

	entry := meeting.Entry{Key: sec.name, Name: sec.name, ID: id}
	if name, ok := lookup(keyName); ok && name != "" {
		entry.Name = name
	}
	if pass, ok := lookup(keyPasscode); ok {
		entry.Passcode = &pass
	}
	return entry, nil
}

func parseChunk(c chunk) (section, error) {
	f, err := ini.LoadSources(loadOptions, c.text)
	if err != nil {
		return section{}, err
	}

	secs := f.Sections()
	// The implicit DEFAULT section always comes first, the header's own
	// section last.
	sec := secs[len(secs)-1]
	name := strings.TrimSpace(sec.Name())
	if name == "" {
		return section{}, errors.New("empty section name")
	}
	return section{name: name, line: c.line, keys: sec.KeysHash()}, nil
}

// splitChunks cuts data at every unindented line that opens a section
// header. The first chunk holds whatever precedes the first header. Lines
// have no length limit.
func splitChunks(data []byte) []chunk {
	data = bytes.TrimPrefix(data, utf8BOM)
	lines := bytes.Split(data, []byte("\n"))
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}

	var chunks []chunk
	cur := chunk{line: 1}
	var buf bytes.Buffer

	flush := func() {
		cur.text = append([]byte(nil), buf.Bytes()...)
		chunks = append(chunks, cur)
		buf.Reset()
	}

	for i, line := range lines {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if bytes.HasPrefix(line, []byte("[")) {
			flush()
			cur = chunk{line: i + 1, header: true}
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	flush()

	return chunks
}

// firstContentLine returns the 0-based offset of the first line that is
// neither blank nor a comment.
func firstContentLine(text []byte) (int, bool) {
	for i, line := range strings.Split(string(text), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}
		return i, true
	}
	return 0, false
}

func headerName(text []byte) string {
	line, _, _ := strings.Cut(string(text), "\n")
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "[")
	if i := strings.LastIndex(line, "]"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
