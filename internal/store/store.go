package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Role is the SIAku account role attached to a login session.
type Role string

const (
	RoleMahasiswa Role = "mahasiswa"
	RoleDosen     Role = "dosen"
	RoleKajur     Role = "kajur"
	RoleRektor    Role = "rektor"
)

// IsMahasiswa reports whether the role is phone-bound at the backend.
// Staff roles are identified by NIDN and never bind a phone number.
func (r Role) IsMahasiswa() bool {
	return r == RoleMahasiswa
}

// Session is a logged-in SIAku account bound to a WhatsApp phone number.
type Session struct {
	Phone      string    `json:"phone"`
	Username   string    `json:"username"`
	Identifier string    `json:"identifier"`
	Nama       string    `json:"nama"`
	Role       Role      `json:"role"`
	Token      string    `json:"token"`
	LoginAt    time.Time `json:"login_at"`
}

// Snapshot is the full durable state, rewritten wholesale on every mutation.
type Snapshot struct {
	Owners   []string  `json:"owners"`
	Blocked  []string  `json:"blocked"`
	Sessions []Session `json:"sessions"`
}

// Persister writes and reads the identity snapshot. Load must return an
// empty snapshot, not an error, when no snapshot exists yet.
type Persister interface {
	Save(snapshot Snapshot) error
	Load() (Snapshot, error)
}

var (
	ErrAlreadyOwned = errors.New("bot already has an owner")
	ErrNotOwner     = errors.New("phone is not the current owner")
	ErrNotBlocked   = errors.New("phone is not blocked")
	ErrPersist      = errors.New("failed to persist identity snapshot")
)

// Store owns the owner set, blocklist and login sessions. All mutation
// goes through its methods so the snapshot write is never skipped.
// Persistence is at-least-once: a failed write is reported as ErrPersist
// but the in-memory change is kept.
type Store struct {
	mu        sync.Mutex
	owners    map[string]struct{}
	blocked   map[string]struct{}
	sessions  map[string]Session
	persister Persister
}

func New(persister Persister) *Store {
	return &Store{
		owners:    make(map[string]struct{}),
		blocked:   make(map[string]struct{}),
		sessions:  make(map[string]Session),
		persister: persister,
	}
}

// LoadSnapshot replaces in-memory state with the persisted snapshot.
// Called once at startup before the message loop starts.
func (s *Store) LoadSnapshot() error {
	snapshot, err := s.persister.Load()
	if err != nil {
		return fmt.Errorf("load identity snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.owners = make(map[string]struct{}, len(snapshot.Owners))
	for _, phone := range snapshot.Owners {
		s.owners[phone] = struct{}{}
	}
	s.blocked = make(map[string]struct{}, len(snapshot.Blocked))
	for _, phone := range snapshot.Blocked {
		s.blocked[phone] = struct{}{}
	}
	s.sessions = make(map[string]Session, len(snapshot.Sessions))
	for _, session := range snapshot.Sessions {
		s.sessions[session.Phone] = session
	}

	return nil
}

func (s *Store) IsOwner(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.owners[phone]
	return ok
}

func (s *Store) HasOwner() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owners) > 0
}

// Owner returns the current owner phone, if any.
func (s *Store) Owner() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for phone := range s.owners {
		return phone, true
	}
	return "", false
}

// AddOwner registers phone as the sole owner. The owner set never
// exceeds one entry.
func (s *Store) AddOwner(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.owners) > 0 {
		return ErrAlreadyOwned
	}
	s.owners[phone] = struct{}{}
	return s.persist()
}

func (s *Store) RemoveOwner(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owners[phone]; !ok {
		return ErrNotOwner
	}
	delete(s.owners, phone)
	return s.persist()
}

// Block adds phone to the blocklist. Idempotent.
func (s *Store) Block(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocked[phone] = struct{}{}
	return s.persist()
}

func (s *Store) Unblock(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocked[phone]; !ok {
		return ErrNotBlocked
	}
	delete(s.blocked, phone)
	return s.persist()
}

func (s *Store) IsBlocked(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocked[phone]
	return ok
}

func (s *Store) BlockedList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]string, 0, len(s.blocked))
	for phone := range s.blocked {
		list = append(list, phone)
	}
	sort.Strings(list)
	return list
}

func (s *Store) BlockedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocked)
}

func (s *Store) GetSession(phone string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[phone]
	return session, ok
}

func (s *Store) PutSession(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Phone] = session
	return s.persist()
}

func (s *Store) RemoveSession(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, phone)
	return s.persist()
}

func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// persist writes the full snapshot. Caller must hold s.mu.
func (s *Store) persist() error {
	if err := s.persister.Save(s.snapshotLocked()); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Owners:   make([]string, 0, len(s.owners)),
		Blocked:  make([]string, 0, len(s.blocked)),
		Sessions: make([]Session, 0, len(s.sessions)),
	}
	for phone := range s.owners {
		snapshot.Owners = append(snapshot.Owners, phone)
	}
	for phone := range s.blocked {
		snapshot.Blocked = append(snapshot.Blocked, phone)
	}
	sort.Strings(snapshot.Owners)
	sort.Strings(snapshot.Blocked)
	for _, session := range s.sessions {
		snapshot.Sessions = append(snapshot.Sessions, session)
	}
	sort.Slice(snapshot.Sessions, func(i, j int) bool {
		return snapshot.Sessions[i].Phone < snapshot.Sessions[j].Phone
	})
	return snapshot
}
