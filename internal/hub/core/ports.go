package core

import (
	"context"
)

// FramePublisher sends command frames to the socket. Implemented by the MQTT
// outbound adapter. Publishing is best-effort; a returned error means the
// transport could not take the frame at all.
type FramePublisher interface {
	PublishFrame(ctx context.Context, frame string) error
}

// Notifier delivers a human-readable message out-of-band (DingTalk robot).
// Both outcomes are non-fatal to the caller.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NoopNotifier discards every message. Used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(_ context.Context, _ string) error { return nil }
