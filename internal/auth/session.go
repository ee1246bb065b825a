// Package auth tracks the optional signed-in identity. MediTrack never
// exchanges credentials itself; it records the identity a collaborator
// hands it and notifies listeners so the store can rebind its collection.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

// Identity is a signed-in user. A nil identity means guest mode.
type Identity struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
	SignedIn time.Time `json:"signed_in"`
}

// ChangeFunc is called after every identity transition with the new
// identity, nil on sign-out.
type ChangeFunc func(*Identity)

// Session persists the identity across runs and fans out transitions.
type Session struct {
	path string

	mu        sync.Mutex
	current   *Identity
	listeners []ChangeFunc
}

// DefaultSessionPath returns the identity file location.
func DefaultSessionPath() string {
	return filepath.Join(xdg.StateHome, "meditrack", "session.json")
}

// Open loads the session from the given path, or the default location when
// empty. A missing file simply means guest mode.
func Open(path string) (*Session, error) {
	if path == "" {
		path = DefaultSessionPath()
	}
	s := &Session{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		// A corrupt session file degrades to guest mode rather than
		// blocking startup.
		return s, nil
	}
	if id.UserID != "" {
		s.current = &id
	}
	return s, nil
}

// Current returns the signed-in identity, nil for guest.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnChange registers a listener for identity transitions.
func (s *Session) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SignIn records the identity, persists it, and notifies listeners.
func (s *Session) SignIn(id Identity) error {
	if id.SignedIn.IsZero() {
		id.SignedIn = time.Now()
	}

	s.mu.Lock()
	s.current = &id
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.Unlock()

	if err := s.persist(&id); err != nil {
		return err
	}
	for _, fn := range listeners {
		fn(&id)
	}
	return nil
}

// SignOut clears the identity and notifies listeners.
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.current = nil
	listeners := append([]ChangeFunc(nil), s.listeners...)
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, fn := range listeners {
		fn(nil)
	}
	return nil
}

func (s *Session) persist(id *Identity) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
