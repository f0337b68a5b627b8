// Package session manages the login lifecycle that binds a WhatsApp
// phone number to a SIAku account, including the single-phone-per-account
// security check and its alerting.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RasyaGtps/siaku-whatsapp-service/internal/siakad"
	"github.com/RasyaGtps/siaku-whatsapp-service/internal/store"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/env"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/log"
)

var (
	ErrNotLoggedIn          = errors.New("phone has no active session")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPhoneConflict        = errors.New("account is registered to a different phone")
	ErrBindRejected         = errors.New("siakad rejected the phone binding")
	ErrDirectoryUnavailable = errors.New("siakad backend unavailable")
)

// Directory is the slice of the SIAku backend the manager needs.
type Directory interface {
	Authenticate(ctx context.Context, identifier string, password string) (*siakad.AuthResult, error)
	BindPhone(ctx context.Context, nim string, phone string) error
	UnbindPhone(ctx context.Context, nim string) error
}

// Messenger delivers security alerts over the chat transport.
type Messenger interface {
	SendText(ctx context.Context, phone string, text string) error
}

type Manager struct {
	store       *store.Store
	directory   Directory
	messenger   Messenger
	countryCode string
	now         func() time.Time
}

func NewManager(st *store.Store, directory Directory, messenger Messenger) *Manager {
	return &Manager{
		store:       st,
		directory:   directory,
		messenger:   messenger,
		countryCode: env.GetEnvStringOrDefault("SECURITY_ALERT_COUNTRY_CODE", "62"),
		now:         time.Now,
	}
}

// Login authenticates against the backend and binds the phone. The
// returned bool is true when an existing session was reused; re-login
// with an active session never hits the backend.
//
// Mahasiswa accounts get the single-phone check: when the backend
// already has a different phone on file, login is refused, a warning is
// sent to the registered phone, and neither session nor binding is
// created.
func (m *Manager) Login(ctx context.Context, phone string, username string, password string) (store.Session, bool, error) {
	if existing, ok := m.store.GetSession(phone); ok {
		return existing, true, nil
	}

	result, err := m.directory.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, siakad.ErrUnauthorized) {
			return store.Session{}, false, ErrInvalidCredentials
		}
		return store.Session{}, false, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	account := result.Account
	role := store.Role(account.Role)
	identifier := resolveIdentifier(role, account)

	if role.IsMahasiswa() {
		registered := m.NormalizePhone(account.Phone)
		if registered != "" && registered != phone {
			m.sendSecurityAlert(ctx, registered, account.Nama, identifier, phone)
			return store.Session{}, false, ErrPhoneConflict
		}

		if err := m.directory.BindPhone(ctx, identifier, phone); err != nil {
			if errors.Is(err, siakad.ErrConflict) {
				return store.Session{}, false, fmt.Errorf("%w: %v", ErrBindRejected, err)
			}
			return store.Session{}, false, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
		}
	}

	newSession := store.Session{
		Phone:      phone,
		Username:   account.Username,
		Identifier: identifier,
		Nama:       account.Nama,
		Role:       role,
		Token:      result.Token,
		LoginAt:    m.now(),
	}

	if err := m.store.PutSession(newSession); err != nil {
		log.Bot(phone).WithError(err).Error("Failed to persist session after login")
	}

	return newSession, false, nil
}

// Logout removes the session. For mahasiswa the backend unbind is
// best-effort: a failure is logged and logout still completes.
func (m *Manager) Logout(ctx context.Context, phone string) (store.Session, error) {
	current, ok := m.store.GetSession(phone)
	if !ok {
		return store.Session{}, ErrNotLoggedIn
	}

	if current.Role.IsMahasiswa() {
		if err := m.directory.UnbindPhone(ctx, current.Identifier); err != nil {
			log.Bot(phone).WithError(err).Warn("Failed to unbind phone on logout, continuing")
		}
	}

	if err := m.store.RemoveSession(phone); err != nil {
		log.Bot(phone).WithError(err).Error("Failed to persist session removal")
	}

	return current, nil
}

// Profile returns the active session for phone.
func (m *Manager) Profile(phone string) (store.Session, error) {
	current, ok := m.store.GetSession(phone)
	if !ok {
		return store.Session{}, ErrNotLoggedIn
	}
	return current, nil
}

// NormalizePhone rewrites a local leading-zero number to international
// form using the configured country code. Non-digit separators are
// stripped first.
func (m *Manager) NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if strings.HasPrefix(digits, "0") {
		return m.countryCode + digits[1:]
	}
	return digits
}

func (m *Manager) sendSecurityAlert(ctx context.Context, registeredPhone string, nama string, identifier string, attemptFrom string) {
	text := "🚨 *PERINGATAN KEAMANAN*\n\n" +
		"Seseorang mencoba login dengan akun SIAku kamu!\n\n" +
		"👤 Nama: " + nama + "\n" +
		"📌 NIM: " + identifier + "\n" +
		"📱 Dari nomor: " + attemptFrom + "\n" +
		"🕐 Waktu: " + m.now().Format("2006-01-02 15:04:05") + "\n\n" +
		"Login telah diblokir. Jika ini bukan kamu, segera ganti password akun SIAku kamu!"

	if err := m.messenger.SendText(ctx, registeredPhone, text); err != nil {
		log.Bot(registeredPhone).WithError(err).Warn("Failed to deliver security alert")
	}
}

func resolveIdentifier(role store.Role, account siakad.Account) string {
	switch role {
	case store.RoleMahasiswa:
		if account.NIM != "" {
			return account.NIM
		}
	case store.RoleDosen, store.RoleKajur, store.RoleRektor:
		if account.NIDN != "" {
			return account.NIDN
		}
	}
	return account.Username
}
