// Package device tracks the socket's last known state and its liveness,
// derived from the recency of inbound frames.
package device

import "time"

// Power states as reported by the socket.
const (
	PowerOn      = "on"
	PowerOff     = "off"
	PowerUnknown = "unknown"
)

// Sentinel values for status and signal when the socket is unreachable or has
// never reported.
const (
	ValueUnknown = "unknown"
	ValueOffline = "offline"
)

// Snapshot is the current best-known socket state. It is a value type; the
// Tracker hands out copies, never the shared instance.
type Snapshot struct {
	// Status is the power state: on, off, unknown, or offline.
	Status string `json:"status"`

	// Signal is the last reported signal payload, or unknown/offline.
	Signal string `json:"signal"`

	// Online reflects whether a frame arrived within the liveness window.
	Online bool `json:"online"`

	// LastUpdate is when any snapshot field last changed; nil before the
	// first mutation.
	LastUpdate *time.Time `json:"last_update"`
}

// Report is the decoded effect of one inbound frame on the snapshot. The zero
// value means "frame recognized nothing": liveness still advances, fields stay.
type Report struct {
	// Power is the new power state, or empty if the frame did not carry one.
	Power string

	// Signal is the new signal payload; nil if the frame did not carry one.
	// An empty payload is a valid (empty) signal.
	Signal *string

	// RestartAck marks a restart acknowledgement frame; informational only.
	RestartAck bool
}

// Observer receives a snapshot copy after every mutation. Duplicate pushes of
// identical state must be tolerated.
type Observer interface {
	OnSnapshotChanged(snap Snapshot)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnSnapshotChanged(snap Snapshot) { f(snap) }
