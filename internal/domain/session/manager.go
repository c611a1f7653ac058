// internal/domain/session/manager.go

// Package session tracks signed-in identities and broadcasts their transitions.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/errs"
)

// Authenticator creates and checks accounts
type Authenticator interface {
	Register(ctx context.Context, req *user.RegisterRequest) (*user.Identity, error)
	Authenticate(ctx context.Context, email, password string) (*user.Identity, error)
}

// Transition describes an identity change for one session. Current is nil
// after logout.
type Transition struct {
	SessionID string
	Previous  *user.Identity
	Current   *user.Identity
}

// Listener is notified synchronously after every successful transition
type Listener func(ctx context.Context, t Transition)

// Subscriber is the subscription half of the Manager
type Subscriber interface {
	Subscribe(l Listener) (unsubscribe func())
}

// Result is returned to a client that just signed in
type Result struct {
	Session   *Session `json:"session"`
	Token     string   `json:"access_token"`
	ExpiresIn int64    `json:"expires_in"`
}

type subscription struct {
	id       uint64
	listener Listener
}

// Manager is the auth session store
type Manager struct {
	accounts Authenticator
	store    Store
	tokens   *auth.JWTManager
	log      logrus.FieldLogger
	now      func() time.Time

	mu        sync.RWMutex
	listeners []subscription
	nextID    uint64
}

// NewManager creates a session manager
func NewManager(accounts Authenticator, store Store, tokens *auth.JWTManager, log logrus.FieldLogger) *Manager {
	return &Manager{
		accounts: accounts,
		store:    store,
		tokens:   tokens,
		log:      log,
		now:      time.Now,
	}
}

// Register creates an account and signs it in
func (m *Manager) Register(ctx context.Context, req *user.RegisterRequest) (*Result, error) {
	identity, err := m.accounts.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, identity)
}

// Login checks credentials and opens a new session
func (m *Manager) Login(ctx context.Context, email, password string) (*Result, error) {
	identity, err := m.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.open(ctx, identity)
}

func (m *Manager) open(ctx context.Context, identity *user.Identity) (*Result, error) {
	now := m.now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(m.tokens.Expiry()),
	}

	token, err := m.tokens.GenerateToken(s.ID, identity.ID, identity.Email, string(identity.Role))
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, s, m.tokens.Expiry()); err != nil {
		return nil, err
	}

	m.log.WithFields(logrus.Fields{
		"user_id":    identity.ID,
		"session_id": s.ID,
	}).Info("session opened")

	m.publish(ctx, Transition{SessionID: s.ID, Current: identity})

	return &Result{
		Session:   s,
		Token:     token,
		ExpiresIn: int64(m.tokens.Expiry().Seconds()),
	}, nil
}

// Resolve maps a bearer token to its live session
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		return nil, errs.Wrap(errs.ErrAuthRequired, "invalid or expired token", nil)
	}

	s, err := m.store.Get(ctx, claims.SessionID())
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Wrap(errs.ErrAuthRequired, "session expired or revoked", nil)
		}
		return nil, err
	}
	return s, nil
}

// Refresh stores a changed identity on an existing session
func (m *Manager) Refresh(ctx context.Context, s *Session, identity *user.Identity) error {
	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return errs.Wrap(errs.ErrAuthRequired, "session expired", nil)
	}
	updated := *s
	updated.Identity = identity
	if err := m.store.Save(ctx, &updated, ttl); err != nil {
		return err
	}
	*s = updated
	return nil
}

// Logout ends the session. It never fails: a revocation error is logged and
// the identity is still reported as signed out.
func (m *Manager) Logout(ctx context.Context, s *Session) {
	if s == nil {
		return
	}

	entry := m.log.WithField("session_id", s.ID)
	if s.Identity != nil {
		entry = entry.WithField("user_id", s.Identity.ID)
	}

	if err := m.store.Delete(ctx, s.ID); err != nil {
		entry.WithError(err).Warn("session revocation failed; signing out locally")
	} else {
		entry.Info("session closed")
	}

	m.publish(ctx, Transition{SessionID: s.ID, Previous: s.Identity})
}

// Subscribe registers l for identity transitions. The returned function
// removes it and is safe to call more than once.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, subscription{id: id, listener: l})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, sub := range m.listeners {
				if sub.id == id {
					m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (m *Manager) publish(ctx context.Context, t Transition) {
	m.mu.RLock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, sub := range m.listeners {
		listeners = append(listeners, sub.listener)
	}
	m.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, t)
	}
}
