package internal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/demystify/testutil"
)

// stubAuth answers with canned results and counts calls.
type stubAuth struct {
	mu       sync.Mutex
	me       func(token string) (*User, error)
	login    func(username, password string) (*AuthResponse, error)
	register func(req RegisterRequest) (*AuthResponse, error)
	calls    int
}

func (s *stubAuth) Me(ctx context.Context, token string) (*User, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.me(token)
}

func (s *stubAuth) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.login(username, password)
}

func (s *stubAuth) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.register(req)
}

func storedToken(t *testing.T, store Store) (string, bool) {
	t.Helper()
	v, ok, err := store.Get(TokenKey)
	require.NoError(t, err)
	return v, ok
}

func TestNewSessionManager_InitialState(t *testing.T) {
	empty := NewMemoryStore()
	m := NewSessionManager(empty, &stubAuth{})
	assert.Equal(t, StateAnonymous, m.State())
	assert.Empty(t, m.Token())

	withToken := NewMemoryStore()
	require.NoError(t, withToken.Set(TokenKey, "abc"))
	m = NewSessionManager(withToken, &stubAuth{})
	assert.Equal(t, StateRestoring, m.State())
	assert.Equal(t, "abc", m.Token())
	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.User())
}

func TestSessionManager_RestoreSuccess(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(TokenKey, "abc"))
	auth := &stubAuth{me: func(token string) (*User, error) {
		assert.Equal(t, "abc", token)
		return &User{ID: 1, Username: "alice"}, nil
	}}

	m := NewSessionManager(store, auth)
	require.NoError(t, m.Restore(context.Background()))

	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "alice", m.User().Username)
	assert.Equal(t, "abc", m.Token())
}

func TestSessionManager_RestoreUnauthorizedClearsToken(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(TokenKey, "expired"))
	auth := &stubAuth{me: func(string) (*User, error) {
		return nil, &Error{Kind: KindServerDetail, Status: http.StatusUnauthorized, Detail: "Token inválido"}
	}}

	m := NewSessionManager(store, auth)
	require.NoError(t, m.Restore(context.Background()))

	assert.Equal(t, StateAnonymous, m.State())
	assert.Nil(t, m.User())
	assert.Empty(t, m.Token())
	_, ok := storedToken(t, store)
	assert.False(t, ok, "token should be removed after 401")
}

func TestSessionManager_RestoreOtherFailureKeepsToken(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(TokenKey, "abc"))
	transport := &Error{Kind: KindTransport}
	auth := &stubAuth{me: func(string) (*User, error) { return nil, transport }}

	m := NewSessionManager(store, auth)
	err := m.Restore(context.Background())

	assert.Same(t, transport, err)
	assert.Equal(t, StateAnonymous, m.State())
	token, ok := storedToken(t, store)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}

func TestSessionManager_RestoreIsNoOpOutsideRestoring(t *testing.T) {
	auth := &stubAuth{}
	m := NewSessionManager(NewMemoryStore(), auth)
	require.NoError(t, m.Restore(context.Background()))
	assert.Equal(t, 0, auth.calls)
}

func TestSessionManager_Login(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser("u", "p-secret", "u@example.com")
	store := NewMemoryStore()
	m := NewSessionManager(store, NewClient(api.URL()))

	user, err := m.Login(context.Background(), "u", "p-secret")
	require.NoError(t, err)
	assert.Equal(t, "u", user.Username)
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, StateAuthenticated, m.State())

	token, ok := storedToken(t, store)
	require.True(t, ok)
	assert.Equal(t, "token-u", token)
	assert.Equal(t, token, m.Token())
}

func TestSessionManager_LoginFailureKeepsState(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server detail", &Error{Kind: KindServerDetail, Status: 401, Detail: "Usuario o contraseña incorrectos"}, "Usuario o contraseña incorrectos"},
		{"status only", &Error{Kind: KindServerStatus, Status: 500}, "invalid credentials"},
		{"transport", &Error{Kind: KindTransport}, "invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			auth := &stubAuth{login: func(string, string) (*AuthResponse, error) { return nil, tt.err }}
			m := NewSessionManager(store, auth)

			_, err := m.Login(context.Background(), "u", "p")
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.True(t, errors.Is(err, tt.err))
			assert.Equal(t, StateAnonymous, m.State())
			_, ok := storedToken(t, store)
			assert.False(t, ok)
		})
	}
}

func TestSessionManager_Register(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	store := NewMemoryStore()
	m := NewSessionManager(store, NewClient(api.URL()))
	req := RegisterRequest{Username: "newbie", Email: "newbie@example.com", Password: "hunter22", FullName: "New Bie"}

	user, err := m.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "New Bie", user.DisplayName())
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, []string{"newbie"}, api.Usernames())

	m.Logout()
	_, err = m.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "El nombre de usuario ya está registrado", err.Error())
	assert.Equal(t, StateAnonymous, m.State())
}

func TestSessionManager_RegisterFallbackMessage(t *testing.T) {
	auth := &stubAuth{register: func(RegisterRequest) (*AuthResponse, error) {
		return nil, &Error{Kind: KindServerStatus, Status: 502}
	}}
	m := NewSessionManager(NewMemoryStore(), auth)

	_, err := m.Register(context.Background(), RegisterRequest{Username: "x"})
	require.Error(t, err)
	assert.Equal(t, "could not register user", err.Error())
	assert.Equal(t, KindServerStatus, KindOf(err))
}

func TestSessionManager_Logout(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(TokenKey, "abc"))
	m := NewSessionManager(store, &stubAuth{})

	m.Logout()
	assert.Equal(t, StateAnonymous, m.State())
	assert.Empty(t, m.Token())
	_, ok := storedToken(t, store)
	assert.False(t, ok)

	// Logout from anonymous is harmless.
	m.Logout()
	assert.Equal(t, StateAnonymous, m.State())
}

func TestSessionManager_Subscribe(t *testing.T) {
	auth := &stubAuth{login: func(u, p string) (*AuthResponse, error) {
		return &AuthResponse{AccessToken: "t1", User: &User{Username: u}}, nil
	}}
	m := NewSessionManager(NewMemoryStore(), auth)
	events, cancel := m.Subscribe()
	defer cancel()

	_, err := m.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	m.Logout()

	first := <-events
	assert.Equal(t, StateAuthenticated, first.State)
	assert.Equal(t, "alice", first.User.Username)
	second := <-events
	assert.Equal(t, StateAnonymous, second.State)
	assert.Nil(t, second.User)
	assert.Empty(t, second.Token)
}

func TestSessionManager_SnapshotInvariant(t *testing.T) {
	auth := &stubAuth{login: func(u, p string) (*AuthResponse, error) {
		return &AuthResponse{AccessToken: "t1"}, nil
	}}
	m := NewSessionManager(NewMemoryStore(), auth)

	snap := m.Snapshot()
	assert.Nil(t, snap.User)

	_, err := m.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	snap = m.Snapshot()
	require.NotNil(t, snap.User, "authenticated session must carry a user")
	assert.Equal(t, "alice", snap.User.Username)

	snap.User.Username = "mallory"
	assert.Equal(t, "alice", m.User().Username)
}

func TestSessionState_String(t *testing.T) {
	assert.Equal(t, "restoring", StateRestoring.String())
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unknown", SessionState(9).String())
}
