// Package protocol maps the socket's opaque text frames to snapshot updates
// and control intents to command frames. The frame vocabulary is fixed by the
// deployed firmware.
package protocol

import (
	"fmt"
	"strings"

	"github.com/plughub-io/plughub/internal/hub/core/device"
)

// Intent is a human-facing control intent.
type Intent string

const (
	IntentOn  Intent = "on"
	IntentOff Intent = "off"
)

// Valid reports whether the intent is one the socket understands.
func (i Intent) Valid() bool {
	return i == IntentOn || i == IntentOff
}

// Inbound frames.
const (
	framePowerOn      = "n1"
	framePowerOff     = "f1"
	frameRestartAck   = "rest_ok"
	signalFramePrefix = "s-"
)

// Outbound frames.
const (
	FrameCommandOn   = "a1"
	FrameCommandOff  = "b1"
	FrameQueryStatus = "q1"
	FrameQuerySignal = "qs"
)

// DecodeFrame parses one inbound frame into its snapshot effect. known is
// false for unrecognized frames, which are ignored rather than treated as
// errors; the caller still records the arrival for liveness either way.
func DecodeFrame(frame string) (rep device.Report, known bool) {
	switch {
	case frame == framePowerOn:
		rep.Power = device.PowerOn
		return rep, true
	case frame == framePowerOff:
		rep.Power = device.PowerOff
		return rep, true
	case strings.HasPrefix(frame, signalFramePrefix):
		payload := frame[len(signalFramePrefix):]
		rep.Signal = &payload
		return rep, true
	case frame == frameRestartAck:
		rep.RestartAck = true
		return rep, true
	default:
		return rep, false
	}
}

// EncodeCommand maps a control intent to its command frame. The mapping is
// pure; no acknowledgement is awaited, outcomes arrive later as inbound
// frames.
func EncodeCommand(intent Intent) (string, error) {
	switch intent {
	case IntentOn:
		return FrameCommandOn, nil
	case IntentOff:
		return FrameCommandOff, nil
	default:
		return "", fmt.Errorf("unknown intent %q", intent)
	}
}
