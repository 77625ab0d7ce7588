// Package meeting defines the saved meeting entry and the values derived from it.
package meeting

import (
	"math/big"
	"strings"
	"unicode"
)

const (
	// SectionPrefix marks registry sections that describe a meeting.
	SectionPrefix = "meeting_"

	// TempKey identifies the entry synthesized from a typed meeting id.
	// It never carries SectionPrefix, so it cannot shadow a saved entry.
	TempKey = "temp_meeting"

	joinURIBase = "zoommtg://zoom.us/join?action=join&confno="
)

// Entry is a saved or typed meeting.
type Entry struct {
	Key      string
	Name     string
	ID       string
	Passcode *string
}

// HasPasscode reports whether the entry carries a passcode, even an empty one.
func (e Entry) HasPasscode() bool {
	return e.Passcode != nil
}

// JoinURI builds the zoommtg join link. The pwd parameter is only added for a
// non-empty passcode.
func (e Entry) JoinURI() string {
	uri := joinURIBase + e.ID
	if e.Passcode != nil && *e.Passcode != "" {
		uri += "&pwd=" + *e.Passcode
	}
	return uri
}

// Capabilities returns the follow-up actions valid for the entry.
func (e Entry) Capabilities() Capabilities {
	caps := CopyID | CopyURI
	if e.HasPasscode() {
		caps |= CopyPasscode
	}
	return caps
}

// NewTemp builds the temp entry for an already normalized id.
func NewTemp(id string) Entry {
	return Entry{Key: TempKey, Name: id, ID: id}
}

// NormalizeID reports whether s is made only of decimal digits (any script)
// and returns its canonical ASCII rendering. Zero is not a meeting id.
func NormalizeID(s string) (string, bool) {
	if s == "" {
		return "", false
	}

	var ascii strings.Builder
	ascii.Grow(len(s))
	for _, r := range s {
		d, ok := digitValue(r)
		if !ok {
			return "", false
		}
		ascii.WriteByte(byte('0' + d))
	}

	n, ok := new(big.Int).SetString(ascii.String(), 10)
	if !ok || n.Sign() == 0 {
		return "", false
	}
	return n.String(), true
}

// digitValue returns the decimal value of a Unicode Nd rune. Every Nd range
// in the Unicode tables starts at a zero and runs in blocks of ten.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	if !unicode.IsDigit(r) {
		return 0, false
	}
	for _, rng := range unicode.Nd.R16 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return int(r-lo) % 10, true
		}
	}
	for _, rng := range unicode.Nd.R32 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return int(r-lo) % 10, true
		}
	}
	return 0, false
}
