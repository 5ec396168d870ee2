// Package code implements the one-time verification code registry gating
// socket control.
package code

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 5 * time.Minute

var (
	// ErrNotFound means the code was never issued, already used, or swept.
	ErrNotFound = errors.New("verification code not found")

	// ErrExpired means the code was found but is older than the TTL. The
	// entry is evicted as a side effect of detection.
	ErrExpired = errors.New("verification code expired")
)

var codeSpace = big.NewInt(1_000_000)

// Registry issues and validates one-time 6-digit codes. All methods are safe
// for concurrent use.
type Registry struct {
	mu    sync.Mutex
	codes map[string]time.Time // code -> issuedAt
	ttl   time.Duration

	now func() time.Time
}

// NewRegistry creates a Registry with the given TTL. A non-positive ttl uses
// DefaultTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		codes: make(map[string]time.Time),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Issue generates a 6-digit code, records its issuance time and returns it.
// A colliding code silently overwrites the older entry; at human request
// rates this only shortens the older code's life.
func (r *Registry) Issue() string {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("code generation: %v", err))
	}
	code := fmt.Sprintf("%06d", n.Int64())

	r.mu.Lock()
	r.codes[code] = r.now()
	r.mu.Unlock()

	return code
}

// Validate checks a code and consumes it. Validation and consumption are
// atomic: a successful call removes the entry, so a second call with the same
// code returns ErrNotFound. An expired entry is evicted on detection.
func (r *Registry) Validate(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	issuedAt, ok := r.codes[code]
	if !ok {
		return ErrNotFound
	}

	delete(r.codes, code)

	if r.now().Sub(issuedAt) > r.ttl {
		return ErrExpired
	}

	return nil
}

// SweepExpired removes all entries older than the TTL and reports how many
// were dropped. Valid entries are untouched. Expiry is independently enforced
// by Validate, so sweeping is hygiene, not correctness.
func (r *Registry) SweepExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for code, issuedAt := range r.codes {
		if now.Sub(issuedAt) > r.ttl {
			delete(r.codes, code)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries. Intended for tests and metrics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}
