// Package session exposes the current authentication state as a small
// observable. A Manager starts out "resolving", settles exactly once into
// signed-in or signed-out after checking the stored token, and from then on
// updates immediately on every sign-in and sign-out. Consumers must treat
// "resolving" as distinct from "signed out" - the access gate holds rather
// than redirects while resolving.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stintapp/stint/internal/auth"
)

// State is the authentication state at one instant: either still resolving,
// or a concrete signed-in-user-or-none result.
type State struct {
	Resolving bool
	User      *auth.User
}

// SignedIn reports whether the state is a settled, signed-in session.
func (s State) SignedIn() bool {
	return !s.Resolving && s.User != nil
}

// Manager wraps the auth service plus a token store and publishes the
// session state to watchers. Safe for concurrent use.
type Manager struct {
	svc    *auth.Service
	tokens TokenStore

	mu       sync.Mutex
	state    State
	settled  bool
	token    string
	watchers map[int]chan State
	nextID   int
}

// NewManager creates a manager in the resolving state. Call Start to settle it.
func NewManager(svc *auth.Service, tokens TokenStore) *Manager {
	return &Manager{
		svc:      svc,
		tokens:   tokens,
		state:    State{Resolving: true},
		watchers: make(map[int]chan State),
	}
}

// Start resolves the stored token and settles the state exactly once.
// A missing or expired token settles as signed-out and is not an error;
// an infrastructure failure also settles as signed-out (so consumers are
// never stuck resolving) but is returned for logging. Subsequent calls are
// no-ops.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.settled {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	token, err := m.tokens.Load()
	if err != nil {
		m.setState("", State{})
		return fmt.Errorf("failed to load session token: %w", err)
	}

	sess, err := m.svc.Resolve(ctx, token)
	if err != nil {
		m.setState("", State{})
		if errors.Is(err, auth.ErrNoSession) {
			return nil
		}
		return fmt.Errorf("failed to resolve session: %w", err)
	}

	m.setState(token, State{User: &sess.User})
	return nil
}

// Current returns the state at this instant.
func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the active session token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Watch registers a watcher and returns its delivery channel plus a cancel
// function. The current state is delivered immediately; afterwards the
// channel always carries the latest state, replacing any undelivered one -
// a slow consumer sees fresh state, never a backlog.
func (m *Manager) Watch() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	ch := make(chan State, 1)
	ch <- m.state
	m.watchers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if w, ok := m.watchers[id]; ok {
			delete(m.watchers, id)
			close(w)
		}
	}

	return ch, cancel
}

// SignIn authenticates and persists the session token. On failure the state
// is left untouched and the error is surfaced to the caller - invalid
// credentials are a user-visible condition, not a silent one.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	sess, err := m.svc.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	return m.adopt(ctx, sess)
}

// SignUp registers a new account and signs it in. Same error contract as SignIn.
func (m *Manager) SignUp(ctx context.Context, email, password string) error {
	sess, err := m.svc.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	return m.adopt(ctx, sess)
}

// SignOut destroys the session. Local state and the stored token are
// cleared even when the backend call fails - the user asked to be signed
// out, and an orphaned server-side session expires on its own.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	var svcErr error
	if token != "" {
		svcErr = m.svc.SignOut(ctx, token)
	}

	if err := m.tokens.Clear(); err != nil && svcErr == nil {
		svcErr = fmt.Errorf("failed to clear session token: %w", err)
	}

	m.setState("", State{})
	return svcErr
}

// adopt persists and publishes a freshly created session. If the token
// cannot be persisted the session is revoked again, so a successful return
// always means "signed in now and on the next run".
func (m *Manager) adopt(ctx context.Context, sess *auth.Session) error {
	if err := m.tokens.Save(sess.Token); err != nil {
		_ = m.svc.SignOut(ctx, sess.Token)
		return fmt.Errorf("failed to store session token: %w", err)
	}

	m.setState(sess.Token, State{User: &sess.User})
	return nil
}

// setState records a settled state and notifies all watchers.
func (m *Manager) setState(token string, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	m.state = st
	m.settled = true

	for _, ch := range m.watchers {
		// Replace any undelivered state with the latest
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}
