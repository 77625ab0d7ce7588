// Package dispatch executes the action chosen for a match result.
//
// The dispatcher resolves the result key against the session store, builds the
// zoommtg join URI and performs exactly one effect:
//
//   - no action: open the URI with the desktop opener
//   - copy-id: put the meeting id on the clipboard
//   - copy-passcode: put the passcode on the clipboard (no-op without one)
//   - copy-uri: put the join URI on the clipboard
//
// Unknown action ids are ignored so older builds tolerate newer launchers.
//
// Error handling:
//   - empty key → no-op
//   - unknown key → ErrLookup
//   - opener missing or too slow → the opener's error, unchanged
//   - clipboard unreachable → the clipboard's error, unchanged
//
// Nothing is retried.
package dispatch
