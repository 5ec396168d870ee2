package topic

import "fmt"

// Constants defining the standard topic segments. These are the protocol
// contract between the hub and the socket firmware; changing them breaks
// deployed devices.
const (
	// SuffixReport is the upstream status topic (Device -> Hub).
	// Structure: {root}/report
	SuffixReport = "report"

	// SuffixCommand is the downstream command topic (Hub -> Device).
	// Structure: {root}/command
	SuffixCommand = "command"
)

// Builder constructs the MQTT topic strings for a socket namespace.
type Builder struct {
	// root is the base namespace for all topics (e.g. "plughub/laundry").
	root string
}

// NewBuilder creates a Builder rooted at the given namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Report returns the topic the socket publishes status frames on.
// Direction: Device -> Hub
func (b *Builder) Report() string {
	return b.build(SuffixReport)
}

// Command returns the topic the hub publishes command frames on.
// Direction: Hub -> Device
func (b *Builder) Command() string {
	return b.build(SuffixCommand)
}

func (b *Builder) build(suffix string) string {
	return fmt.Sprintf("%s/%s", b.root, suffix)
}
