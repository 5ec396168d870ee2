package code

import (
	"errors"
	"testing"
	"time"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time               { return c.t }
func (c *fakeClock) Advance(d time.Duration)      { c.t = c.t.Add(d) }
func newFakeClock() *fakeClock                    { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }
func newTestRegistry(c *fakeClock) *Registry {
	r := NewRegistry(DefaultTTL)
	r.now = c.Now
	return r
}

func TestIssueFormat(t *testing.T) {
	r := NewRegistry(DefaultTTL)

	for i := 0; i < 50; i++ {
		code := r.Issue()
		if len(code) != 6 {
			t.Fatalf("code %q: want 6 digits", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '9' {
				t.Fatalf("code %q contains non-digit %q", code, ch)
			}
		}
	}
}

func TestValidateExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		age     time.Duration
		wantErr error
	}{
		{"fresh", 0, nil},
		{"just inside", 299 * time.Second, nil},
		{"exactly at ttl", 300 * time.Second, nil},
		{"just past ttl", 301 * time.Second, ErrExpired},
		{"long past ttl", time.Hour, ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			r := newTestRegistry(clock)

			code := r.Issue()
			clock.Advance(tt.age)

			if err := r.Validate(code); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate after %v = %v, want %v", tt.age, err, tt.wantErr)
			}
		})
	}
}

func TestValidateConsumes(t *testing.T) {
	clock := newFakeClock()
	r := newTestRegistry(clock)

	code := r.Issue()
	if err := r.Validate(code); err != nil {
		t.Fatalf("first Validate: %v", err)
	}
	if err := r.Validate(code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Validate = %v, want ErrNotFound", err)
	}
}

func TestExpiredDetectionEvicts(t *testing.T) {
	clock := newFakeClock()
	r := newTestRegistry(clock)

	code := r.Issue()
	clock.Advance(301 * time.Second)

	if err := r.Validate(code); !errors.Is(err, ErrExpired) {
		t.Fatalf("Validate = %v, want ErrExpired", err)
	}
	// The entry must be gone after expiry detection.
	if err := r.Validate(code); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Validate after eviction = %v, want ErrNotFound", err)
	}
}

func TestValidateUnknownCode(t *testing.T) {
	r := NewRegistry(DefaultTTL)

	if err := r.Validate("000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Validate = %v, want ErrNotFound", err)
	}
}

func TestSweepExpired(t *testing.T) {
	clock := newFakeClock()
	r := newTestRegistry(clock)

	stale := r.Issue()
	clock.Advance(301 * time.Second)
	fresh := r.Issue()

	if removed := r.SweepExpired(); removed != 1 {
		t.Fatalf("SweepExpired removed %d, want 1", removed)
	}
	if err := r.Validate(stale); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale code after sweep = %v, want ErrNotFound", err)
	}
	if err := r.Validate(fresh); err != nil {
		t.Errorf("fresh code after sweep = %v, want nil", err)
	}
}

func TestSweepNoopOnValidEntries(t *testing.T) {
	clock := newFakeClock()
	r := newTestRegistry(clock)

	r.Issue()
	r.Issue()
	clock.Advance(100 * time.Second)

	if removed := r.SweepExpired(); removed != 0 {
		t.Fatalf("SweepExpired removed %d, want 0", removed)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
}
