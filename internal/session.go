package internal

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// SessionState is where the session is in its lifecycle
type SessionState int

const (
	// StateRestoring means a persisted token is waiting to be checked.
	StateRestoring SessionState = iota
	// StateAnonymous means nobody is signed in.
	StateAnonymous
	// StateAuthenticated means the token was accepted and a profile is loaded.
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

const (
	loginFallback    = "invalid credentials"
	registerFallback = "could not register user"

	subscriberBuffer = 8
)

// Session is a snapshot of the authentication state. User is set exactly
// when State is StateAuthenticated.
type Session struct {
	State SessionState `json:"state"`
	Token string       `json:"-"`
	User  *User        `json:"user,omitempty"`
}

// Authenticator is the part of the API the session needs
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Me(ctx context.Context, token string) (*User, error)
}

// SessionManager owns the session state machine and the persisted token.
// State changes happen under one lock; network calls run outside it.
type SessionManager struct {
	store Store
	auth  Authenticator

	mu          sync.Mutex
	session     Session
	subscribers map[chan Session]struct{}
}

// NewSessionManager starts in StateRestoring when a token is persisted and
// in StateAnonymous otherwise.
func NewSessionManager(store Store, auth Authenticator) *SessionManager {
	m := &SessionManager{
		store:       store,
		auth:        auth,
		session:     Session{State: StateAnonymous},
		subscribers: make(map[chan Session]struct{}),
	}

	token, ok, err := store.Get(TokenKey)
	if err != nil {
		LogWarn("could not read saved token: %v", err)
	}
	if ok && token != "" {
		m.session = Session{State: StateRestoring, Token: token}
	}
	return m
}

// Restore validates the persisted token. It only acts in StateRestoring.
// A 401 discards the token; any other failure leaves it persisted but the
// session is anonymous for this process, and the failure is returned.
func (m *SessionManager) Restore(ctx context.Context) error {
	m.mu.Lock()
	if m.session.State != StateRestoring {
		m.mu.Unlock()
		return nil
	}
	token := m.session.Token
	m.mu.Unlock()

	user, err := m.auth.Me(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.State != StateRestoring || m.session.Token != token {
		// Login or logout won the race; their outcome stands.
		return nil
	}

	switch {
	case err == nil:
		m.transitionLocked(Session{State: StateAuthenticated, Token: token, User: user})
		return nil
	case StatusCode(err) == http.StatusUnauthorized:
		LogDebug("saved token rejected, signing out")
		if derr := m.store.Delete(TokenKey); derr != nil {
			LogWarn("could not remove saved token: %v", derr)
		}
		m.transitionLocked(Session{State: StateAnonymous})
		return nil
	default:
		m.transitionLocked(Session{State: StateAnonymous})
		return err
	}
}

// Login signs in. On failure the state is unchanged.
func (m *SessionManager) Login(ctx context.Context, username, password string) (*User, error) {
	resp, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return nil, &AuthError{Message: serverDetailOr(err, loginFallback), Err: err}
	}
	return m.establish(resp, username, loginFallback)
}

// Register creates an account and signs in. On failure the state is unchanged.
func (m *SessionManager) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	resp, err := m.auth.Register(ctx, req)
	if err != nil {
		return nil, &AuthError{Message: serverDetailOr(err, registerFallback), Err: err}
	}
	return m.establish(resp, req.Username, registerFallback)
}

func (m *SessionManager) establish(resp *AuthResponse, username, fallback string) (*User, error) {
	if resp == nil || resp.AccessToken == "" {
		return nil, &AuthError{Message: fallback, Err: errors.New("response carried no access token")}
	}
	user := resp.User
	if user == nil {
		user = &User{Username: username}
	}

	if err := m.store.Set(TokenKey, resp.AccessToken); err != nil {
		LogWarn("signed in, but the token could not be saved: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionLocked(Session{State: StateAuthenticated, Token: resp.AccessToken, User: user})
	return cloneUser(user), nil
}

// Logout removes the persisted token. It is valid from any state.
func (m *SessionManager) Logout() {
	if err := m.store.Delete(TokenKey); err != nil {
		LogWarn("could not remove saved token: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionLocked(Session{State: StateAnonymous})
}

// Token returns the bearer token while restoring or authenticated.
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.State == StateAnonymous {
		return ""
	}
	return m.session.Token
}

// Snapshot returns a copy of the current session
func (m *SessionManager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// State returns the current state
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.State
}

// IsAuthenticated reports whether a user is signed in
func (m *SessionManager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// User returns the signed-in user, or nil
func (m *SessionManager) User() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneUser(m.session.User)
}

// Subscribe returns a channel that receives a snapshot after every state
// change, and a function that stops delivery. Snapshots are dropped when
// the subscriber falls behind.
func (m *SessionManager) Subscribe() (<-chan Session, func()) {
	ch := make(chan Session, subscriberBuffer)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, ch)
			m.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (m *SessionManager) transitionLocked(next Session) {
	prev := m.session.State
	m.session = next
	LogDebug("session %s -> %s", prev, next.State)

	snap := m.snapshotLocked()
	for ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (m *SessionManager) snapshotLocked() Session {
	s := m.session
	s.User = cloneUser(s.User)
	if s.State == StateAnonymous {
		s.Token = ""
	}
	return s
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func serverDetailOr(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindServerDetail && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
