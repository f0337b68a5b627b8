package verify

import (
	"errors"
	mathrand "math/rand/v2"
	"strconv"
	"sync"
	"time"
)

const CodeTTL = 5 * time.Minute

var (
	ErrAlreadyOwner     = errors.New("phone is already the owner")
	ErrOwnerSlotTaken   = errors.New("another owner already exists")
	ErrNoPendingRequest = errors.New("no pending verification for phone")
	ErrExpired          = errors.New("verification code expired")
	ErrMismatch         = errors.New("verification code mismatch")
)

// OwnerRegistry is the slice of the identity store the flow consults
// before issuing a challenge.
type OwnerRegistry interface {
	IsOwner(phone string) bool
	HasOwner() bool
}

type pendingCode struct {
	code      string
	expiresAt time.Time
}

// Flow is the time-boxed owner-claim state machine. Entries are keyed
// per phone and independent across phones; they are only cleared by
// success, expiry on the next attempt, or an overwriting re-request.
type Flow struct {
	mu      sync.Mutex
	pending map[string]pendingCode
	owners  OwnerRegistry
	ttl     time.Duration
	now     func() time.Time
}

func NewFlow(owners OwnerRegistry, ttl time.Duration) *Flow {
	if ttl <= 0 {
		ttl = CodeTTL
	}
	return &Flow{
		pending: make(map[string]pendingCode),
		owners:  owners,
		ttl:     ttl,
		now:     time.Now,
	}
}

// RequestOwnership issues a fresh 6-digit challenge for phone. The code
// is returned for out-of-band display on the operator console and must
// never be sent back over the chat channel.
func (f *Flow) RequestOwnership(phone string) (string, time.Time, error) {
	if f.owners.IsOwner(phone) {
		return "", time.Time{}, ErrAlreadyOwner
	}
	if f.owners.HasOwner() {
		return "", time.Time{}, ErrOwnerSlotTaken
	}

	code := strconv.Itoa(100000 + mathrand.IntN(900000))
	expiresAt := f.now().Add(f.ttl)

	f.mu.Lock()
	f.pending[phone] = pendingCode{code: code, expiresAt: expiresAt}
	f.mu.Unlock()

	return code, expiresAt, nil
}

// SubmitCode checks a code against the pending entry for phone. The
// entry is consumed on success and on expiry; a mismatch keeps it so
// the sender may retry within the window.
func (f *Flow) SubmitCode(phone string, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pending, ok := f.pending[phone]
	if !ok {
		return ErrNoPendingRequest
	}

	if f.now().After(pending.expiresAt) {
		delete(f.pending, phone)
		return ErrExpired
	}

	if code != pending.code {
		return ErrMismatch
	}

	delete(f.pending, phone)
	return nil
}

// SweepExpired drops entries past their deadline and reports how many
// were removed. Run periodically so abandoned requests do not linger.
func (f *Flow) SweepExpired() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	removed := 0
	for phone, pending := range f.pending {
		if now.After(pending.expiresAt) {
			delete(f.pending, phone)
			removed++
		}
	}
	return removed
}

func (f *Flow) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}
