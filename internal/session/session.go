// Package session keeps the bearer token a dashboard user obtained at login.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"metricsdash/internal/apiclient"
)

var ErrEmptyCredentials = errors.New("session: email and password are required")

type Authenticator interface {
	Login(ctx context.Context, cred apiclient.Credential) (apiclient.LoginResponse, error)
}

type Session struct {
	Token string
	Role  string
}

// DisplayRole is the role as shown in the UI, e.g. "ADMIN".
func (s Session) DisplayRole() string {
	return strings.ToUpper(s.Role)
}

// Manager holds at most one session. It is safe for concurrent use.
type Manager struct {
	auth   Authenticator
	logger *slog.Logger

	mu      sync.RWMutex
	current Session
}

func NewManager(auth Authenticator, logger *slog.Logger) *Manager {
	return &Manager{auth: auth, logger: logger}
}

// Login performs a single login attempt. Empty fields fail with
// ErrEmptyCredentials before any request is made and leave the current
// session untouched. Any other failure clears the session.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrEmptyCredentials
	}

	resp, err := m.auth.Login(ctx, apiclient.Credential{Email: email, Password: password})
	if err != nil {
		m.Logout()
		m.logger.Info("login failed", "email", email, "err", err)
		return Session{}, err
	}

	s := Session{Token: resp.AccessToken, Role: resp.Role}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	m.logger.Info("login succeeded", "email", email, "role", s.Role)
	return s, nil
}

func (m *Manager) Logout() {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()
}

// Session returns the current session and whether one is present.
func (m *Manager) Session() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.Token != ""
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

// Authenticated reports whether metrics can be loaded.
func (m *Manager) Authenticated() bool {
	return m.Token() != ""
}
