// Package session centralizes authentication state behind one process-wide
// manager with explicit subscribe/notify semantics, replacing scattered
// direct reads of the token store.
package session

import (
	"sync"
	"time"

	"campus/internal/models"
	"campus/internal/observability"

	"github.com/golang-jwt/jwt/v5"
)

// State is the tri-state authentication status.
type State int

const (
	// StateUnknown means the startup session check has not run yet.
	StateUnknown State = iota
	// StateAnonymous means no token is present.
	StateAnonymous
	// StateAuthenticated means a token is present.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// ErrLoginRequired is returned by RequireAuth when no session is present.
// Callers surface a notification and redirect to login; the gated action is
// never queued or retried.
var ErrLoginRequired = models.NewUnauthorizedError("Log in to continue")

// Manager owns the session token and its lifecycle. All authenticated calls
// read the token through it, and every mutation notifies subscribers.
type Manager struct {
	mu     sync.RWMutex
	state  State
	token  string
	user   *models.User
	store  Store
	subs   map[int]func(State)
	nextID int
	logger *observability.Logger
	now    func() time.Time
}

// NewManager returns a manager in StateUnknown. Call Load to resolve it.
func NewManager(store Store, logger *observability.Logger) *Manager {
	if logger == nil {
		logger = observability.GlobalLogger
	}
	return &Manager{
		state:  StateUnknown,
		store:  store,
		subs:   make(map[int]func(State)),
		logger: logger.Component("session"),
		now:    time.Now,
	}
}

// Load reads the persisted token and resolves the unknown state. A token
// whose exp claim has already passed is discarded up front instead of
// leaving the client in an apparently logged-in state whose every call
// fails.
func (m *Manager) Load() State {
	token, err := m.store.Read()
	if err != nil {
		m.logger.Warn("failed to read stored token", "error", err)
		token = ""
	}

	if token != "" && tokenExpired(token, m.now()) {
		m.logger.Info("stored token is expired, discarding")
		if err := m.store.Clear(); err != nil {
			m.logger.Warn("failed to clear expired token", "error", err)
		}
		token = ""
	}

	m.mu.Lock()
	m.token = token
	if token == "" {
		m.state = StateAnonymous
	} else {
		m.state = StateAuthenticated
	}
	state := m.state
	subs := m.snapshotSubs()
	m.mu.Unlock()

	notify(subs, state)
	return state
}

// State returns the current tri-state value.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsLoggedIn reports whether a session is present. Unknown counts as not
// logged in; callers wanting the distinction use State.
func (m *Manager) IsLoggedIn() bool {
	return m.State() == StateAuthenticated
}

// Token returns the bearer token, or "" when anonymous.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// CurrentUser returns the user captured at login, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// RequireAuth runs action immediately iff a session is present at call
// time. Otherwise it returns ErrLoginRequired without queuing the action.
func (m *Manager) RequireAuth(action func() error) error {
	if !m.IsLoggedIn() {
		return ErrLoginRequired
	}
	return action()
}

// Login persists the token, flips state to authenticated and notifies
// subscribers. Subscribers are notified at most once per state change.
func (m *Manager) Login(token string, user *models.User) error {
	if err := m.store.Write(token); err != nil {
		return models.NewInternalError(err)
	}

	m.mu.Lock()
	changed := m.state != StateAuthenticated
	m.state = StateAuthenticated
	m.token = token
	m.user = user
	subs := m.snapshotSubs()
	m.mu.Unlock()

	m.logger.Info("session established")
	if changed {
		notify(subs, StateAuthenticated)
	}
	return nil
}

// Logout clears the token and flips state to anonymous. No forced
// navigation happens here; views react through Subscribe.
func (m *Manager) Logout() error {
	if err := m.store.Clear(); err != nil {
		return models.NewInternalError(err)
	}
	m.clear("session closed")
	return nil
}

// Invalidate drops the session after the server rejected the token. Wired
// as the API client's unauthorized hook so a 401 anywhere logs the whole
// client out instead of surfacing as a generic request error forever.
func (m *Manager) Invalidate() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear rejected token", "error", err)
	}
	m.clear("session invalidated by server")
}

func (m *Manager) clear(reason string) {
	m.mu.Lock()
	changed := m.state != StateAnonymous
	m.state = StateAnonymous
	m.token = ""
	m.user = nil
	subs := m.snapshotSubs()
	m.mu.Unlock()

	m.logger.Info(reason)
	if changed {
		notify(subs, StateAnonymous)
	}
}

// Subscribe registers fn to run on every state change and returns an
// unsubscribe function.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) snapshotSubs() []func(State) {
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(State), state State) {
	for _, fn := range subs {
		fn(state)
	}
}

// tokenExpired inspects the exp claim without verifying the signature. The
// client holds no key and never trusts the claim for authorization; it only
// uses it to avoid presenting a token the server is guaranteed to reject.
func tokenExpired(token string, now time.Time) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque tokens are passed through untouched.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
