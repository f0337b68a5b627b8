package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RasyaGtps/siaku-whatsapp-service/internal/siakad"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/store"
)

type fakeDirectory struct {
	authResult *siakad.AuthResult
	authErr    error
	authCalls  int

	bindErr   error
	bindCalls int
	boundNIM  string
	boundTo   string

	unbindErr   error
	unbindCalls int
}

func (f *fakeDirectory) Authenticate(ctx context.Context, identifier string, password string) (*siakad.AuthResult, error) {
	f.authCalls++
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.authResult, nil
}

func (f *fakeDirectory) BindPhone(ctx context.Context, nim string, phone string) error {
	f.bindCalls++
	f.boundNIM = nim
	f.boundTo = phone
	return f.bindErr
}

func (f *fakeDirectory) UnbindPhone(ctx context.Context, nim string) error {
	f.unbindCalls++
	return f.unbindErr
}

type fakeMessenger struct {
	sent []struct {
		phone string
		text  string
	}
	sendErr error
}

func (f *fakeMessenger) SendText(ctx context.Context, phone string, text string) error {
	f.sent = append(f.sent, struct {
		phone string
		text  string
	}{phone, text})
	return f.sendErr
}

type nopPersister struct{}

func (nopPersister) Save(store.Snapshot) error     { return nil }
func (nopPersister) Load() (store.Snapshot, error) { return store.Snapshot{}, nil }

func mahasiswaResult(phone string) *siakad.AuthResult {
	return &siakad.AuthResult{
		Token: "jwt-token",
		Account: siakad.Account{
			Username: "budi123",
			Role:     "mahasiswa",
			Nama:     "Budi Santoso",
			NIM:      "2211104444",
			Phone:    phone,
		},
	}
}

func newTestManager(directory *fakeDirectory, messenger *fakeMessenger) (*Manager, *store.Store) {
	st := store.New(nopPersister{})
	m := NewManager(st, directory, messenger)
	m.countryCode = "62"
	m.now = func() time.Time {
		return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	}
	return m, st
}

func TestLoginMahasiswaBindsPhone(t *testing.T) {
	t.Parallel()
	directory := &fakeDirectory{authResult: mahasiswaResult("")}
	messenger := &fakeMessenger{}
	m, st := newTestManager(directory, messenger)

	got, reused, err := m.Login(context.Background(), "628444", "budi123", "rahasia")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if reused {
		t.Error("reused = true on first login")
	}
	if got.Identifier != "2211104444" || got.Role != store.RoleMahasiswa {
		t.Errorf("session = %+v", got)
	}
	if directory.bindCalls != 1 || directory.boundNIM != "2211104444" || directory.boundTo != "628444" {
		t.Errorf("bind calls = %d, nim = %s, phone = %s", directory.bindCalls, directory.boundNIM, directory.boundTo)
	}
	if _, ok := st.GetSession("628444"); !ok {
		t.Error("session not stored")
	}
}

func TestLoginIdempotent(t *testing.T) {
	t.Parallel()
	directory := &fakeDirectory{authResult: mahasiswaResult("")}
	m, _ := newTestManager(directory, &fakeMessenger{})

	if _, _, err := m.Login(context.Background(), "628444", "budi123", "rahasia"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	got, reused, err := m.Login(context.Background(), "628444", "ignored", "ignored")
	if err != nil {
		t.Fatalf("Login repeat: %v", err)
	}
	if !reused {
		t.Error("reused = false on repeat login")
	}
	if got.Username != "budi123" {
		t.Errorf("session = %+v", got)
	}
	// Re-login never hits the backend again.
	if directory.authCalls != 1 {
		t.Errorf("auth calls = %d, want 1", directory.authCalls)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()
	directory := &fakeDirectory{authErr: siakad.ErrUnauthorized}
	m, st := newTestManager(directory, &fakeMessenger{})

	_, _, err := m.Login(context.Background(), "628444", "budi123", "salah")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login: got %v, want ErrInvalidCredentials", err)
	}
	if st.SessionCount() != 0 {
		t.Error("session created on failed login")
	}
}

func TestLoginPhoneConflictSendsOneAlert(t *testing.T) {
	t.Parallel()
	// Registered phone "0812999" normalizes to "62812999", which does
	// not match the attempting phone.
	directory := &fakeDirectory{authResult: mahasiswaResult("0812999")}
	messenger := &fakeMessenger{}
	m, st := newTestManager(directory, messenger)

	_, _, err := m.Login(context.Background(), "628444", "budi123", "rahasia")
	if !errors.Is(err, ErrPhoneConflict) {
		t.Fatalf("Login: got %v, want ErrPhoneConflict", err)
	}
	if len(messenger.sent) != 1 {
		t.Fatalf("alerts sent = %d, want 1", len(messenger.sent))
	}
	if messenger.sent[0].phone != "62812999" {
		t.Errorf("alert sent to %s, want 62812999", messenger.sent[0].phone)
	}
	if directory.bindCalls != 0 {
		t.Error("bind attempted despite conflict")
	}
	if st.SessionCount() != 0 {
		t.Error("session created despite conflict")
	}
}

func TestLoginConflictAlertFailureStillRefuses(t *testing.T) {
	t.Parallel()
	directory := &fakeDirectory{authResult: mahasiswaResult("0812999")}
	messenger := &fakeMessenger{sendErr: errors.New("not connected")}
	m, _ := newTestManager(directory, messenger)

	_, _, err := m.Login(context.Background(), "628444", "budi123", "rahasia")
	if !errors.Is(err, ErrPhoneConflict) {
		t.Fatalf("Login: got %v, want ErrPhoneConflict", err)
	}
}

func TestLoginMatchingRegisteredPhone(t *testing.T) {
	t.Parallel()
	// Registered "0812444" normalizes to the attempting phone itself.
	directory := &fakeDirectory{authResult: mahasiswaResult("0812444")}
	messenger := &fakeMessenger{}
	m, _ := newTestManager(directory, messenger)

	_, _, err := m.Login(context.Background(), "62812444", "budi123", "rahasia")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(messenger.sent) != 0 {
		t.Errorf("alerts sent = %d, want 0", len(messenger.sent))
	}
}

func TestLoginBindRejected(t *testing.T) {
	t.Parallel()
	directory := &fakeDirectory{
		authResult: mahasiswaResult(""),
		bindErr:    siakad.ErrConflict,
	}
	m, st := newTestManager(directory, &fakeMessenger{})

	_, _, err := m.Login(context.Background(), "628444", "budi123", "rahasia")
	if !errors.Is(err, ErrBindRejected) {
		t.Fatalf("Login: got %v, want ErrBindRejected", err)
	}
	if st.SessionCount() != 0 {
		t.Error("session created despite rejected bind")
	}
}

func TestLoginStaffSkipsBind(t *testing.T) {
	t.Parallel()
	directory := &fakeDirectory{authResult: &siakad.AuthResult{
		Token: "jwt-token",
		Account: siakad.Account{
			Username: "dosen1",
			Role:     "dosen",
			Nama:     "Dr. Siti",
			NIDN:     "0011223344",
		},
	}}
	m, _ := newTestManager(directory, &fakeMessenger{})

	got, _, err := m.Login(context.Background(), "628555", "dosen1", "rahasia")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if directory.bindCalls != 0 {
		t.Error("staff login attempted a phone bind")
	}
	if got.Identifier != "0011223344" || got.Role != store.RoleDosen {
		t.Errorf("session = %+v", got)
	}
}

func TestLogoutUnbindsMahasiswa(t *testing.T) {
	t.Parallel()
	directory := &fakeDirectory{authResult: mahasiswaResult("")}
	m, st := newTestManager(directory, &fakeMessenger{})

	if _, _, err := m.Login(context.Background(), "628444", "budi123", "rahasia"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := m.Logout(context.Background(), "628444"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if directory.unbindCalls != 1 {
		t.Errorf("unbind calls = %d, want 1", directory.unbindCalls)
	}
	if st.SessionCount() != 0 {
		t.Error("session still present after logout")
	}
}

func TestLogoutUnbindFailureStillRemovesSession(t *testing.T) {
	t.Parallel()
	directory := &fakeDirectory{
		authResult: mahasiswaResult(""),
		unbindErr:  errors.New("backend down"),
	}
	m, st := newTestManager(directory, &fakeMessenger{})

	if _, _, err := m.Login(context.Background(), "628444", "budi123", "rahasia"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := m.Logout(context.Background(), "628444"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if st.SessionCount() != 0 {
		t.Error("session kept after best-effort unbind failure")
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(&fakeDirectory{}, &fakeMessenger{})

	if _, err := m.Logout(context.Background(), "628444"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("Logout: got %v, want ErrNotLoggedIn", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()
	m, _ := newTestManager(&fakeDirectory{}, &fakeMessenger{})

	cases := []struct {
		in   string
		want string
	}{
		{"081234567", "6281234567"},
		{"0812-3456-7", "6281234567"},
		{"+62 812 34567", "6281234567"},
		{"6281234567", "6281234567"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := m.NormalizePhone(tc.in); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
