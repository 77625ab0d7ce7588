package meeting

// Capabilities is the set of follow-up actions a match supports.
type Capabilities uint8

const (
	CopyID Capabilities = 1 << iota
	CopyPasscode
	CopyURI

	// AllCapabilities is what KRunner offers when a match lists no actions.
	AllCapabilities = CopyID | CopyPasscode | CopyURI
)

// Action ids as exposed to the launcher.
const (
	ActionCopyID       = "copy-id"
	ActionCopyPasscode = "copy-passcode"
	ActionCopyURI      = "copy-uri"
)

var capabilityOrder = []struct {
	cap Capabilities
	id  string
}{
	{CopyID, ActionCopyID},
	{CopyPasscode, ActionCopyPasscode},
	{CopyURI, ActionCopyURI},
}

// Has reports whether c contains every capability in other.
func (c Capabilities) Has(other Capabilities) bool {
	return c&other == other
}

// IDs lists the action ids in c in their canonical order.
func (c Capabilities) IDs() []string {
	ids := make([]string, 0, len(capabilityOrder))
	for _, co := range capabilityOrder {
		if c.Has(co.cap) {
			ids = append(ids, co.id)
		}
	}
	return ids
}
