package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// DefaultTimeout is how long after the last inbound frame the socket is still
// considered online. Intentionally much shorter than the verification code
// TTL: device liveness is judged on seconds, code entry on minutes.
const DefaultTimeout = 30 * time.Second

// Liveness states and the events moving between them.
const (
	StateOnline  = "online"
	StateOffline = "offline"

	// EventFrame fires on every inbound frame, whatever its content.
	EventFrame = "event_frame"
	// EventTimeout fires when a staleness check finds the window exceeded.
	// Only legal from online, which makes the offline transition
	// edge-triggered.
	EventTimeout = "event_timeout"
)

// Tracker owns the snapshot and the liveness witness. It is the single
// mutation point for both: the MQTT ingress calls ApplyReport, control paths
// call IsOnline, and every mutation is applied atomically under one lock
// before observers see a copy.
type Tracker struct {
	mu      sync.Mutex
	machine *fsm.FSM

	// lastResponse is the liveness witness, set only by frame arrival.
	// nil means the socket has never been heard from.
	lastResponse *time.Time

	snap    Snapshot
	timeout time.Duration

	observers []Observer

	now func() time.Time
}

// NewTracker creates a Tracker with the given liveness window. A non-positive
// timeout uses DefaultTimeout.
func NewTracker(timeout time.Duration, observers ...Observer) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	t := &Tracker{
		snap: Snapshot{
			Status: ValueUnknown,
			Signal: ValueUnknown,
		},
		timeout:   timeout,
		observers: observers,
		now:       time.Now,
	}

	t.machine = fsm.NewFSM(
		StateOffline,
		fsm.Events{
			{Name: EventFrame, Src: []string{StateOffline, StateOnline}, Dst: StateOnline},
			{Name: EventTimeout, Src: []string{StateOnline}, Dst: StateOffline},
		},
		fsm.Callbacks{},
	)

	return t
}

// AddObserver registers an observer. Not safe to call once frames flow.
func (t *Tracker) AddObserver(o Observer) {
	t.observers = append(t.observers, o)
}

// ApplyReport records the arrival of one inbound frame and applies its decoded
// effect. Any frame, recognized or not, refreshes the liveness witness and
// flips the state to online; observers are notified after every frame.
func (t *Tracker) ApplyReport(rep Report) {
	t.mu.Lock()

	now := t.now()
	t.lastResponse = &now

	if err := t.machine.Event(context.Background(), EventFrame); err != nil {
		// Already online; looplab reports the self-transition as
		// NoTransitionError, which is exactly what we expect here.
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			t.mu.Unlock()
			return
		}
	}

	if rep.Power != "" {
		t.snap.Status = rep.Power
	}
	if rep.Signal != nil {
		t.snap.Signal = *rep.Signal
	}
	t.snap.Online = true
	ts := now
	t.snap.LastUpdate = &ts

	snap := t.snap
	t.mu.Unlock()

	t.notify(snap)
}

// IsOnline evaluates liveness at call time. If the window has been exceeded
// it performs the edge-triggered transition to offline: snapshot fields are
// set to offline values and observers are notified exactly once per
// transition. Re-checks while already offline mutate nothing.
func (t *Tracker) IsOnline() bool {
	t.mu.Lock()

	if t.lastResponse == nil {
		t.mu.Unlock()
		return false
	}

	now := t.now()
	if now.Sub(*t.lastResponse) <= t.timeout {
		t.mu.Unlock()
		return true
	}

	if err := t.machine.Event(context.Background(), EventTimeout); err != nil {
		// InvalidEventError: already offline, nothing to do.
		t.mu.Unlock()
		return false
	}

	t.snap.Online = false
	t.snap.Status = ValueOffline
	t.snap.Signal = ValueOffline
	ts := now
	t.snap.LastUpdate = &ts

	snap := t.snap
	t.mu.Unlock()

	t.notify(snap)
	return false
}

// Snapshot returns a copy of the current state. It does not re-evaluate
// liveness; callers wanting a fresh verdict call IsOnline first.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// LastResponse returns the liveness witness, nil if nothing ever arrived.
func (t *Tracker) LastResponse() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastResponse
}

func (t *Tracker) notify(snap Snapshot) {
	for _, o := range t.observers {
		o.OnSnapshotChanged(snap)
	}
}
