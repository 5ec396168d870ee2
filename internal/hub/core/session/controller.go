// Package session orchestrates control requests against code validity and
// device liveness.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/plughub-io/plughub/internal/hub/core"
	"github.com/plughub-io/plughub/internal/hub/core/code"
	"github.com/plughub-io/plughub/internal/hub/core/device"
	"github.com/plughub-io/plughub/internal/hub/core/protocol"
	"github.com/plughub-io/plughub/internal/pkg/metrics"
	"github.com/plughub-io/plughub/pkg/log"
)

// Controller is the use-case layer: it consults the code registry and the
// liveness tracker before emitting command frames through the publisher.
type Controller struct {
	codes     *code.Registry
	tracker   *device.Tracker
	publisher core.FramePublisher
	notifier  core.Notifier
}

// NewController wires the session controller. publisher may be nil when the
// transport never came up; operations then degrade to TransportUnavailable
// instead of crashing.
func NewController(codes *code.Registry, tracker *device.Tracker, publisher core.FramePublisher, notifier core.Notifier) *Controller {
	if notifier == nil {
		notifier = core.NoopNotifier{}
	}
	return &Controller{
		codes:     codes,
		tracker:   tracker,
		publisher: publisher,
		notifier:  notifier,
	}
}

// Status returns the current snapshot without re-evaluating liveness.
func (c *Controller) Status() device.Snapshot {
	return c.tracker.Snapshot()
}

// RequestVerification issues a one-time code for the given intent and hands a
// human-readable notice to the notifier. Delivery failure is logged and
// counted but never fails the request: the code stays valid either way.
func (c *Controller) RequestVerification(ctx context.Context, intent protocol.Intent) core.Result {
	if !intent.Valid() {
		return c.fail(core.ReasonInvalidAction, "invalid action")
	}

	verificationCode := c.codes.Issue()
	metrics.CodesIssuedTotal.Inc()

	verb := "on"
	if intent == protocol.IntentOff {
		verb = "off"
	}
	notice := fmt.Sprintf("[plughub]\nSomeone requested to turn the socket %s\nVerification code: %s\nValid for 5 minutes", verb, verificationCode)

	if err := c.notifier.Notify(ctx, notice); err != nil {
		log.Warn("Notification delivery failed, code remains valid", "error", err)
		metrics.NotifyFailuresTotal.Inc()
	}

	c.codes.SweepExpired()

	return core.Succeed("verification code sent, check your DingTalk messages")
}

// Control validates the code and the device state, then publishes the command
// frame. Steps short-circuit on first failure; whatever already happened
// (notably code consumption) is not rolled back.
func (c *Controller) Control(ctx context.Context, intent protocol.Intent, verificationCode string) core.Result {
	if verificationCode == "" {
		return c.fail(core.ReasonMissingCode, "verification code is required")
	}

	// Liveness first: an offline device must not consume the code, so the
	// caller can retry once the socket comes back.
	if !c.tracker.IsOnline() {
		return c.fail(core.ReasonDeviceOffline, "device is offline, cannot control the socket")
	}

	if err := c.codes.Validate(verificationCode); err != nil {
		if errors.Is(err, code.ErrExpired) {
			return c.fail(core.ReasonExpiredCode, "verification code expired")
		}
		return c.fail(core.ReasonInvalidCode, "invalid verification code")
	}

	// The code is consumed from here on, even if the steps below fail.
	frame, err := protocol.EncodeCommand(intent)
	if err != nil {
		return c.fail(core.ReasonInvalidAction, "invalid action")
	}

	if c.publisher == nil {
		return c.fail(core.ReasonTransportUnavailable, "transport unavailable")
	}
	if err := c.publisher.PublishFrame(ctx, frame); err != nil {
		log.Error(err, "Failed to publish command frame", "frame", frame)
		return c.fail(core.ReasonTransportUnavailable, "failed to send command")
	}
	metrics.CommandsPublishedTotal.WithLabelValues(frame).Inc()

	return core.Succeed(fmt.Sprintf("socket power-%s command sent", intent))
}

// Refresh sweeps expired codes, publishes both query frames unconditionally
// and reports liveness. An offline device is an advisory, not a failure:
// querying it is merely unlikely to produce a response.
func (c *Controller) Refresh(ctx context.Context) core.Result {
	c.codes.SweepExpired()

	if c.publisher == nil {
		return c.fail(core.ReasonTransportUnavailable, "transport unavailable")
	}

	var errs []error
	for _, frame := range []string{protocol.FrameQueryStatus, protocol.FrameQuerySignal} {
		if err := c.publisher.PublishFrame(ctx, frame); err != nil {
			errs = append(errs, err)
			continue
		}
		metrics.CommandsPublishedTotal.WithLabelValues(frame).Inc()
	}
	if err := errors.Join(errs...); err != nil {
		log.Error(err, "Failed to publish query frames")
		return c.fail(core.ReasonTransportUnavailable, "failed to send refresh commands")
	}

	if !c.tracker.IsOnline() {
		return core.Result{
			OK:            true,
			Message:       "query commands sent, but the device appears offline",
			DeviceOffline: true,
		}
	}

	return core.Succeed("status refresh commands sent")
}

func (c *Controller) fail(reason core.Reason, message string) core.Result {
	metrics.ControlFailuresTotal.WithLabelValues(string(reason)).Inc()
	return core.Fail(reason, message)
}
