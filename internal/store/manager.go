package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robibiruk/meditrack/internal/errors"
	"github.com/robibiruk/meditrack/internal/logging"
	"github.com/robibiruk/meditrack/internal/model"
)

// AuthState is the binding state of the manager.
type AuthState int

const (
	// StateUnbound means no backend is attached yet.
	StateUnbound AuthState = iota
	// StateGuest means the shared guest collection is active.
	StateGuest
	// StateAuthenticated means a private per-user collection is active.
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateGuest:
		return "guest"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unbound"
	}
}

// BootstrapConfig is the payload of the sync service's config endpoint.
type BootstrapConfig struct {
	BackendConfig  BackendConfig `json:"backend_config"`
	OwnerNamespace string        `json:"owner_namespace"`
}

// BackendConfig carries the connection parameters the service hands out.
type BackendConfig struct {
	BaseURL string `json:"base_url,omitempty"`
	AppID   string `json:"app_id"`
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// BaseURL is the sync service root. Empty means local-only from the
	// start.
	BaseURL string
	// AppID scopes the remote collections.
	AppID string
	// LocalPath is the badger directory for the fallback backend.
	LocalPath string
	// Timeout bounds remote writes and one-shot reads.
	Timeout time.Duration
}

// Manager presents the Store contract while selecting between the remote
// and local backends. It starts against the shared guest collection,
// rebinds to a private collection on sign-in and back on sign-out, and
// falls back to the local backend when the remote bootstrap or a live
// subscription fails. The UI binds its callbacks once; rebinding and
// fallback re-attach them without the caller's involvement.
type Manager struct {
	opts ManagerOptions

	mu        sync.Mutex
	state     AuthState
	userID    string
	guestNS   string
	localOnly bool
	active    Store
	sub       *Subscription
	gen       int

	onChange OnChange
	onError  OnError
}

// NewManager creates an unbound manager.
func NewManager(opts ManagerOptions) *Manager {
	return &Manager{opts: opts, state: StateUnbound}
}

// Bind registers the caller's callbacks. onChange keeps receiving
// deliveries across every backend switch; onError receives informational
// notices (a fallback happened), never a fatal condition.
func (m *Manager) Bind(onChange OnChange, onError OnError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = onChange
	m.onError = onError
}

// Start fetches the bootstrap configuration and attaches the initial
// backend: guest-remote on success, local when the bootstrap fails or no
// service is configured.
func (m *Manager) Start(ctx context.Context) error {
	if m.opts.BaseURL == "" {
		m.mu.Lock()
		m.localOnly = true
		m.mu.Unlock()
		return m.transition(StateGuest, "")
	}

	boot, err := fetchBootstrap(ctx, m.opts.BaseURL, m.opts.Timeout)
	if err != nil {
		logging.Warn("bootstrap failed, using local storage",
			logging.KeyError, err)
		m.mu.Lock()
		m.localOnly = true
		m.mu.Unlock()
		m.notifyError(fmt.Errorf("working offline: %w", err))
		return m.transition(StateGuest, "")
	}

	m.mu.Lock()
	m.guestNS = boot.OwnerNamespace
	if boot.BackendConfig.BaseURL != "" {
		m.opts.BaseURL = boot.BackendConfig.BaseURL
	}
	if boot.BackendConfig.AppID != "" {
		m.opts.AppID = boot.BackendConfig.AppID
	}
	m.mu.Unlock()
	return m.transition(StateGuest, "")
}

func fetchBootstrap(ctx context.Context, baseURL string, timeout time.Duration) (*BootstrapConfig, error) {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/config", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("config endpoint returned %d", resp.StatusCode)
	}
	var boot BootstrapConfig
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		return nil, err
	}
	return &boot, nil
}

// SetIdentity rebinds the manager after an auth transition. An empty user
// ID means sign-out back to guest. A transition retries the remote backend
// even after an earlier fallback.
func (m *Manager) SetIdentity(userID string) error {
	if userID == "" {
		return m.transition(StateGuest, "")
	}
	return m.transition(StateAuthenticated, userID)
}

// State returns the current binding state.
func (m *Manager) State() AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Backend describes the active backend for display ("remote" or "local").
func (m *Manager) Backend() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active.(*Local); ok {
		return "local"
	}
	if m.active == nil {
		return "none"
	}
	return "remote"
}

// transition tears down the current backend and attaches the one for the
// target state. The old subscription is fully cancelled before the new one
// is created, so a delivery can never arrive from a stale backend.
func (m *Manager) transition(state AuthState, userID string) error {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	oldSub, oldStore := m.sub, m.active
	m.sub, m.active = nil, nil
	m.state, m.userID = state, userID
	localOnly := m.localOnly
	m.mu.Unlock()

	if oldSub != nil {
		oldSub.Cancel()
	}
	if oldStore != nil {
		if err := oldStore.Close(); err != nil {
			logging.Debug("closing previous backend", logging.KeyError, err)
		}
	}

	if localOnly {
		return m.attachLocal(gen)
	}
	if err := m.attachRemote(gen, state, userID); err != nil {
		logging.Warn("remote backend unavailable, falling back to local",
			logging.KeyError, err)
		m.notifyError(fmt.Errorf("working offline: %w", err))
		return m.attachLocal(gen)
	}
	return nil
}

func (m *Manager) attachRemote(gen int, state AuthState, userID string) error {
	m.mu.Lock()
	ns := m.guestNS
	if ns == "" {
		ns = "guest"
	}
	if state == StateAuthenticated {
		ns = "user-" + userID
	}
	remote := NewRemote(RemoteOptions{
		BaseURL:   m.opts.BaseURL,
		AppID:     m.opts.AppID,
		Namespace: ns,
		Timeout:   m.opts.Timeout,
	})
	m.mu.Unlock()

	sub, err := remote.Subscribe(
		func(reminders []*model.Reminder) {
			m.deliver(gen, reminders)
		},
		func(err error) {
			// Terminal stream failure: permission revoked or connection
			// lost. Degrade to the local backend under the same callbacks.
			m.handleStreamError(gen, err)
		},
	)
	if err != nil {
		remote.Close()
		return err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		sub.Cancel()
		remote.Close()
		return nil
	}
	m.active, m.sub = remote, sub
	m.mu.Unlock()
	logging.Info("reminder store attached",
		logging.KeyBackend, "remote", logging.KeyNamespace, ns)
	return nil
}

func (m *Manager) attachLocal(gen int) error {
	local, err := OpenLocal(m.opts.LocalPath)
	if err != nil {
		return errors.NewSystemError("open local store", err)
	}

	sub, err := local.Subscribe(
		func(reminders []*model.Reminder) {
			m.deliver(gen, reminders)
		},
		func(err error) {
			logging.Warn("local subscription error", logging.KeyError, err)
		},
	)
	if err != nil {
		local.Close()
		return err
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		sub.Cancel()
		local.Close()
		return nil
	}
	m.active, m.sub = local, sub
	m.mu.Unlock()
	logging.Info("reminder store attached", logging.KeyBackend, "local")
	return nil
}

// handleStreamError reacts to a terminal remote subscription failure by
// swapping in the local backend, provided no newer transition superseded
// this binding in the meantime.
func (m *Manager) handleStreamError(gen int, cause error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.gen++
	newGen := m.gen
	oldSub, oldStore := m.sub, m.active
	m.sub, m.active = nil, nil
	m.mu.Unlock()

	logging.Warn("live subscription failed, falling back to local storage",
		logging.KeyError, cause)
	m.notifyError(fmt.Errorf("working offline: %w", cause))

	if oldSub != nil {
		oldSub.Cancel()
	}
	if oldStore != nil {
		_ = oldStore.Close()
	}
	if err := m.attachLocal(newGen); err != nil {
		logging.Error("local fallback failed", logging.KeyError, err)
	}
}

// deliver hands a snapshot to the bound callback unless a newer transition
// superseded the generation it came from. The callback is read at delivery
// time, so Bind works before or after Start.
func (m *Manager) deliver(gen int, reminders []*model.Reminder) {
	m.mu.Lock()
	onChange := m.onChange
	current := m.gen
	m.mu.Unlock()
	if onChange != nil && current == gen {
		onChange(reminders)
	}
}

func (m *Manager) notifyError(err error) {
	m.mu.Lock()
	onError := m.onError
	m.mu.Unlock()
	if onError != nil {
		onError(err)
	}
}

func (m *Manager) store() (Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, errors.ErrStoreClosed
	}
	return m.active, nil
}

// Add persists a new reminder through the active backend.
func (m *Manager) Add(ctx context.Context, r *model.Reminder) error {
	s, err := m.store()
	if err != nil {
		return err
	}
	return s.Add(ctx, r)
}

// Update applies a partial update through the active backend.
func (m *Manager) Update(ctx context.Context, id string, fields model.Fields) error {
	s, err := m.store()
	if err != nil {
		return err
	}
	return s.Update(ctx, id, fields)
}

// Remove deletes a reminder through the active backend.
func (m *Manager) Remove(ctx context.Context, id string) error {
	s, err := m.store()
	if err != nil {
		return err
	}
	return s.Remove(ctx, id)
}

// ListOnce reads the current list from the active backend.
func (m *Manager) ListOnce(ctx context.Context) ([]*model.Reminder, error) {
	s, err := m.store()
	if err != nil {
		return nil, err
	}
	return s.ListOnce(ctx)
}

// Subscribe is served by the bound callbacks; direct subscriptions attach
// to the active backend and do not survive a backend switch. The manager's
// Bind/Start path is the supported way to observe the store.
func (m *Manager) Subscribe(onChange OnChange, onError OnError) (*Subscription, error) {
	s, err := m.store()
	if err != nil {
		return nil, err
	}
	return s.Subscribe(onChange, onError)
}

// Close detaches the active backend and cancels its subscription.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.gen++
	oldSub, oldStore := m.sub, m.active
	m.sub, m.active = nil, nil
	m.state = StateUnbound
	m.mu.Unlock()

	if oldSub != nil {
		oldSub.Cancel()
	}
	if oldStore != nil {
		return oldStore.Close()
	}
	return nil
}
