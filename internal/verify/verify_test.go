package verify

import (
	"errors"
	"testing"
	"time"
)

type fakeOwners struct {
	owner string
}

func (f *fakeOwners) IsOwner(phone string) bool {
	return f.owner != "" && f.owner == phone
}

func (f *fakeOwners) HasOwner() bool {
	return f.owner != ""
}

func newTestFlow(owners *fakeOwners) (*Flow, *time.Time) {
	flow := NewFlow(owners, CodeTTL)
	current := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	flow.now = func() time.Time { return current }
	return flow, &current
}

func TestRequestOwnershipCodeShape(t *testing.T) {
	t.Parallel()
	flow, _ := newTestFlow(&fakeOwners{})

	code, expiresAt, err := flow.RequestOwnership("628111")
	if err != nil {
		t.Fatalf("RequestOwnership: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code %q: want 6 digits", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("code %q contains non-digit", code)
		}
	}
	if want := flow.now().Add(CodeTTL); !expiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, want)
	}
}

func TestRequestOwnershipGuards(t *testing.T) {
	t.Parallel()
	flow, _ := newTestFlow(&fakeOwners{owner: "628111"})

	if _, _, err := flow.RequestOwnership("628111"); !errors.Is(err, ErrAlreadyOwner) {
		t.Errorf("owner requesting again: got %v, want ErrAlreadyOwner", err)
	}
	if _, _, err := flow.RequestOwnership("628222"); !errors.Is(err, ErrOwnerSlotTaken) {
		t.Errorf("second phone requesting: got %v, want ErrOwnerSlotTaken", err)
	}
}

func TestSubmitCodeSuccess(t *testing.T) {
	t.Parallel()
	flow, _ := newTestFlow(&fakeOwners{})

	code, _, err := flow.RequestOwnership("628111")
	if err != nil {
		t.Fatalf("RequestOwnership: %v", err)
	}
	if err := flow.SubmitCode("628111", code); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}
	// The entry is consumed; resubmitting the same code fails.
	if err := flow.SubmitCode("628111", code); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("resubmit: got %v, want ErrNoPendingRequest", err)
	}
}

func TestSubmitCodeNoPending(t *testing.T) {
	t.Parallel()
	flow, _ := newTestFlow(&fakeOwners{})

	if err := flow.SubmitCode("628111", "123456"); !errors.Is(err, ErrNoPendingRequest) {
		t.Fatalf("SubmitCode: got %v, want ErrNoPendingRequest", err)
	}
}

func TestSubmitCodeMismatchKeepsEntry(t *testing.T) {
	t.Parallel()
	flow, _ := newTestFlow(&fakeOwners{})

	code, _, err := flow.RequestOwnership("628111")
	if err != nil {
		t.Fatalf("RequestOwnership: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := flow.SubmitCode("628111", wrong); !errors.Is(err, ErrMismatch) {
		t.Fatalf("wrong code: got %v, want ErrMismatch", err)
	}
	// A retry with the right code inside the window still succeeds.
	if err := flow.SubmitCode("628111", code); err != nil {
		t.Fatalf("retry with correct code: %v", err)
	}
}

func TestSubmitCodeExpiredConsumesEntry(t *testing.T) {
	t.Parallel()
	flow, now := newTestFlow(&fakeOwners{})

	code, _, err := flow.RequestOwnership("628111")
	if err != nil {
		t.Fatalf("RequestOwnership: %v", err)
	}

	*now = now.Add(CodeTTL + time.Second)

	if err := flow.SubmitCode("628111", code); !errors.Is(err, ErrExpired) {
		t.Fatalf("expired code: got %v, want ErrExpired", err)
	}
	// Expiry already cleared the entry, the next attempt sees nothing.
	if err := flow.SubmitCode("628111", code); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("after expiry: got %v, want ErrNoPendingRequest", err)
	}
}

func TestRerequestOverwritesCode(t *testing.T) {
	t.Parallel()
	flow, _ := newTestFlow(&fakeOwners{})

	first, _, err := flow.RequestOwnership("628111")
	if err != nil {
		t.Fatalf("RequestOwnership first: %v", err)
	}
	second, _, err := flow.RequestOwnership("628111")
	if err != nil {
		t.Fatalf("RequestOwnership second: %v", err)
	}

	if first != second {
		if err := flow.SubmitCode("628111", first); !errors.Is(err, ErrMismatch) {
			t.Errorf("stale code: got %v, want ErrMismatch", err)
		}
	}
	if err := flow.SubmitCode("628111", second); err != nil {
		t.Errorf("fresh code: %v", err)
	}
}

func TestPendingEntriesIndependentPerPhone(t *testing.T) {
	t.Parallel()
	flow, _ := newTestFlow(&fakeOwners{})

	codeA, _, err := flow.RequestOwnership("628111")
	if err != nil {
		t.Fatalf("RequestOwnership A: %v", err)
	}
	if _, _, err := flow.RequestOwnership("628222"); err != nil {
		t.Fatalf("RequestOwnership B: %v", err)
	}

	if flow.PendingCount() != 2 {
		t.Fatalf("PendingCount = %d, want 2", flow.PendingCount())
	}
	if err := flow.SubmitCode("628111", codeA); err != nil {
		t.Fatalf("SubmitCode A: %v", err)
	}
	if flow.PendingCount() != 1 {
		t.Errorf("PendingCount after A = %d, want 1", flow.PendingCount())
	}
}

func TestSweepExpired(t *testing.T) {
	t.Parallel()
	flow, now := newTestFlow(&fakeOwners{})

	if _, _, err := flow.RequestOwnership("628111"); err != nil {
		t.Fatalf("RequestOwnership: %v", err)
	}
	if _, _, err := flow.RequestOwnership("628222"); err != nil {
		t.Fatalf("RequestOwnership: %v", err)
	}

	if removed := flow.SweepExpired(); removed != 0 {
		t.Fatalf("SweepExpired before deadline = %d, want 0", removed)
	}

	*now = now.Add(CodeTTL + time.Minute)

	if removed := flow.SweepExpired(); removed != 2 {
		t.Fatalf("SweepExpired = %d, want 2", removed)
	}
	if flow.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", flow.PendingCount())
	}
}
