package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plughub-io/plughub/internal/hub/core"
	"github.com/plughub-io/plughub/internal/hub/core/code"
	"github.com/plughub-io/plughub/internal/hub/core/device"
	"github.com/plughub-io/plughub/internal/hub/core/protocol"
)

type mockPublisher struct {
	frames []string
	err    error
}

func (m *mockPublisher) PublishFrame(_ context.Context, frame string) error {
	if m.err != nil {
		return m.err
	}
	m.frames = append(m.frames, frame)
	return nil
}

type mockNotifier struct {
	messages []string
	err      error
}

func (m *mockNotifier) Notify(_ context.Context, message string) error {
	m.messages = append(m.messages, message)
	return m.err
}

type fixture struct {
	codes     *code.Registry
	tracker   *device.Tracker
	publisher *mockPublisher
	notifier  *mockNotifier
	ctrl      *Controller
}

func newFixture() *fixture {
	f := &fixture{
		codes:     code.NewRegistry(code.DefaultTTL),
		tracker:   device.NewTracker(device.DefaultTimeout),
		publisher: &mockPublisher{},
		notifier:  &mockNotifier{},
	}
	f.ctrl = NewController(f.codes, f.tracker, f.publisher, f.notifier)
	return f
}

// markOnline feeds one frame so the tracker considers the socket reachable.
func (f *fixture) markOnline() {
	f.tracker.ApplyReport(device.Report{Power: device.PowerOn})
}

// issueCode pulls a code out of the registry the way a user would receive it.
func (f *fixture) issueCode(t *testing.T) string {
	t.Helper()
	res := f.ctrl.RequestVerification(context.Background(), protocol.IntentOn)
	if !res.OK {
		t.Fatalf("RequestVerification failed: %+v", res)
	}
	if len(f.notifier.messages) == 0 {
		t.Fatal("no notification sent")
	}
	msg := f.notifier.messages[len(f.notifier.messages)-1]
	return extractCode(t, msg)
}

// extractCode digs the 6-digit code out of the notification text.
func extractCode(t *testing.T, msg string) string {
	t.Helper()
	for i := 0; i+6 <= len(msg); i++ {
		candidate := msg[i : i+6]
		digits := true
		for _, ch := range candidate {
			if ch < '0' || ch > '9' {
				digits = false
				break
			}
		}
		if digits {
			return candidate
		}
	}
	t.Fatalf("no code found in notification %q", msg)
	return ""
}

func TestRequestVerificationInvalidAction(t *testing.T) {
	f := newFixture()

	res := f.ctrl.RequestVerification(context.Background(), protocol.Intent("reboot"))
	if res.OK || res.Reason != core.ReasonInvalidAction {
		t.Fatalf("got %+v, want InvalidAction failure", res)
	}
	if len(f.notifier.messages) != 0 {
		t.Fatal("notification sent for invalid action")
	}
}

func TestRequestVerificationSucceedsWhenNotifierFails(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("webhook down")

	res := f.ctrl.RequestVerification(context.Background(), protocol.IntentOn)
	if !res.OK {
		t.Fatalf("got %+v, want success despite notifier failure", res)
	}

	// The issued code must still be usable.
	codeStr := extractCode(t, f.notifier.messages[0])
	f.markOnline()
	if res := f.ctrl.Control(context.Background(), protocol.IntentOn, codeStr); !res.OK {
		t.Fatalf("Control with code from failed notification: %+v", res)
	}
}

func TestControlMissingCode(t *testing.T) {
	f := newFixture()
	f.markOnline()

	res := f.ctrl.Control(context.Background(), protocol.IntentOn, "")
	if res.OK || res.Reason != core.ReasonMissingCode {
		t.Fatalf("got %+v, want MissingCode failure", res)
	}
}

func TestControlOfflineKeepsCodeValid(t *testing.T) {
	f := newFixture()
	codeStr := f.issueCode(t)

	// No frame ever arrived: offline.
	res := f.ctrl.Control(context.Background(), protocol.IntentOn, codeStr)
	if res.OK || res.Reason != core.ReasonDeviceOffline {
		t.Fatalf("got %+v, want DeviceOffline failure", res)
	}
	if len(f.publisher.frames) != 0 {
		t.Fatalf("frames published while offline: %v", f.publisher.frames)
	}

	// The code was not consumed and works once the socket shows up.
	f.markOnline()
	if res := f.ctrl.Control(context.Background(), protocol.IntentOn, codeStr); !res.OK {
		t.Fatalf("retry after coming online: %+v", res)
	}
}

func TestControlInvalidCode(t *testing.T) {
	f := newFixture()
	f.markOnline()

	res := f.ctrl.Control(context.Background(), protocol.IntentOn, "000000")
	if res.OK || res.Reason != core.ReasonInvalidCode {
		t.Fatalf("got %+v, want InvalidCode failure", res)
	}
}

func TestControlExpiredCode(t *testing.T) {
	f := newFixture()
	// A nanosecond TTL expires every code before it can be used.
	f.codes = code.NewRegistry(time.Nanosecond)
	f.ctrl = NewController(f.codes, f.tracker, f.publisher, f.notifier)
	f.markOnline()

	codeStr := f.codes.Issue()
	time.Sleep(time.Millisecond)

	res := f.ctrl.Control(context.Background(), protocol.IntentOn, codeStr)
	if res.OK || res.Reason != core.ReasonExpiredCode {
		t.Fatalf("got %+v, want ExpiredCode failure", res)
	}

	// Expiry detection evicted the entry.
	res = f.ctrl.Control(context.Background(), protocol.IntentOn, codeStr)
	if res.OK || res.Reason != core.ReasonInvalidCode {
		t.Fatalf("got %+v, want InvalidCode after eviction", res)
	}
}

func TestControlPublishesCommandAndConsumesCode(t *testing.T) {
	f := newFixture()
	f.markOnline()
	codeStr := f.issueCode(t)

	res := f.ctrl.Control(context.Background(), protocol.IntentOff, codeStr)
	if !res.OK {
		t.Fatalf("Control failed: %+v", res)
	}
	if len(f.publisher.frames) != 1 || f.publisher.frames[0] != protocol.FrameCommandOff {
		t.Fatalf("published frames = %v, want [b1]", f.publisher.frames)
	}

	// One-time use: replay must fail as not-found.
	res = f.ctrl.Control(context.Background(), protocol.IntentOff, codeStr)
	if res.OK || res.Reason != core.ReasonInvalidCode {
		t.Fatalf("replay got %+v, want InvalidCode", res)
	}
}

func TestControlDoesNotMutateSnapshot(t *testing.T) {
	f := newFixture()
	f.markOnline()
	before := f.tracker.Snapshot()
	codeStr := f.issueCode(t)

	if res := f.ctrl.Control(context.Background(), protocol.IntentOff, codeStr); !res.OK {
		t.Fatalf("Control failed: %+v", res)
	}

	after := f.tracker.Snapshot()
	if before != after {
		t.Fatalf("snapshot changed by control: before %+v, after %+v", before, after)
	}
}

func TestControlUnknownIntentConsumesCode(t *testing.T) {
	f := newFixture()
	f.markOnline()
	codeStr := f.issueCode(t)

	res := f.ctrl.Control(context.Background(), protocol.Intent("reboot"), codeStr)
	if res.OK || res.Reason != core.ReasonInvalidAction {
		t.Fatalf("got %+v, want InvalidAction failure", res)
	}

	// Intent is validated after code consumption; the code is gone.
	res = f.ctrl.Control(context.Background(), protocol.IntentOn, codeStr)
	if res.OK || res.Reason != core.ReasonInvalidCode {
		t.Fatalf("got %+v, want InvalidCode after consumption", res)
	}
}

func TestControlWithoutPublisher(t *testing.T) {
	f := newFixture()
	f.ctrl = NewController(f.codes, f.tracker, nil, f.notifier)
	f.markOnline()
	codeStr := f.issueCode(t)

	res := f.ctrl.Control(context.Background(), protocol.IntentOn, codeStr)
	if res.OK || res.Reason != core.ReasonTransportUnavailable {
		t.Fatalf("got %+v, want TransportUnavailable failure", res)
	}
}

func TestControlPublishErrorSurfacesTransport(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker gone")
	f.markOnline()
	codeStr := f.issueCode(t)

	res := f.ctrl.Control(context.Background(), protocol.IntentOn, codeStr)
	if res.OK || res.Reason != core.ReasonTransportUnavailable {
		t.Fatalf("got %+v, want TransportUnavailable failure", res)
	}
}

func TestRefreshPublishesBothQueries(t *testing.T) {
	f := newFixture()
	f.markOnline()

	res := f.ctrl.Refresh(context.Background())
	if !res.OK || res.DeviceOffline {
		t.Fatalf("Refresh = %+v, want plain success", res)
	}
	want := []string{protocol.FrameQueryStatus, protocol.FrameQuerySignal}
	if len(f.publisher.frames) != 2 || f.publisher.frames[0] != want[0] || f.publisher.frames[1] != want[1] {
		t.Fatalf("published frames = %v, want %v", f.publisher.frames, want)
	}
}

func TestRefreshOfflineIsAdvisory(t *testing.T) {
	f := newFixture()
	// Never-seen socket: offline, but refresh still succeeds and still
	// publishes both query frames.
	res := f.ctrl.Refresh(context.Background())
	if !res.OK {
		t.Fatalf("Refresh = %+v, want success", res)
	}
	if !res.DeviceOffline {
		t.Fatal("DeviceOffline flag not set")
	}
	if len(f.publisher.frames) != 2 {
		t.Fatalf("published frames = %v, want both queries", f.publisher.frames)
	}
}

func TestRefreshSweepsExpiredCodes(t *testing.T) {
	f := newFixture()
	f.codes = code.NewRegistry(time.Nanosecond)
	f.ctrl = NewController(f.codes, f.tracker, f.publisher, f.notifier)

	f.codes.Issue()
	time.Sleep(time.Millisecond)

	f.ctrl.Refresh(context.Background())
	if f.codes.Len() != 0 {
		t.Fatalf("registry has %d entries after refresh, want 0", f.codes.Len())
	}
}

func TestRefreshWithoutPublisher(t *testing.T) {
	f := newFixture()
	f.ctrl = NewController(f.codes, f.tracker, nil, f.notifier)

	res := f.ctrl.Refresh(context.Background())
	if res.OK || res.Reason != core.ReasonTransportUnavailable {
		t.Fatalf("got %+v, want TransportUnavailable failure", res)
	}
}
