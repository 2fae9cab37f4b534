// Package session holds the auth gate: the bearer token, the login and
// registration async state, and the token's durable persistence across
// restarts. It is the only writer of the token; every outgoing request reads
// it through the api.TokenSource interface.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sopdash/internal/api"
)

// State of the auth gate.
type State string

const (
	Anonymous     State = "anonymous"
	Authenticated State = "authenticated"
)

// Authenticator is the slice of the remote accessor the session needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, reg api.Registration) (string, error)
}

// Store owns the token and the independent login/registration error
// channels.
type Store struct {
	mu        sync.RWMutex
	tokenFile string

	token       string
	loading     bool
	loginErr    string
	registerErr string
}

// New creates a session store persisting the token at tokenFile and hydrates
// any token a previous run left there.
func New(tokenFile string) *Store {
	s := &Store{tokenFile: tokenFile}
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	if s.tokenFile == "" {
		return
	}
	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed reading persisted token", "path", s.tokenFile, "error", err)
		}
		return
	}
	s.token = strings.TrimSpace(string(data))
	if s.token != "" {
		slog.Info("Session hydrated from persisted token", "path", s.tokenFile)
	}
}

// Token implements api.TokenSource. Empty while anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State reports the auth gate state.
func (s *Store) State() State {
	if s.Token() == "" {
		return Anonymous
	}
	return Authenticated
}

// Loading reports whether a login/registration round-trip is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LoginError returns the last login failure message, empty when none.
func (s *Store) LoginError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loginErr
}

// RegisterError returns the last registration failure message, empty when
// none.
func (s *Store) RegisterError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registerErr
}

// Login performs the credential exchange. On success the token is stored in
// memory and persisted before the call returns.
func (s *Store) Login(ctx context.Context, auth Authenticator, username, password string) error {
	s.begin()
	token, err := auth.Login(ctx, username, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.loginErr = errMessage(err, "Erro ao fazer login")
		return err
	}
	s.setTokenLocked(token)
	return nil
}

// Register creates an account and, on success, transitions straight to
// Authenticated with the issued token. No separate login step.
func (s *Store) Register(ctx context.Context, auth Authenticator, reg api.Registration) error {
	s.begin()
	token, err := auth.Register(ctx, reg)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.registerErr = errMessage(err, "Erro ao registrar usuário")
		return err
	}
	s.setTokenLocked(token)
	return nil
}

// Logout clears the in-memory and persisted token synchronously. No network
// round-trip is involved.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.loginErr = ""
	s.registerErr = ""
	if s.tokenFile != "" {
		if err := os.Remove(s.tokenFile); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed removing persisted token", "path", s.tokenFile, "error", err)
		}
	}
}

// begin marks a new auth request: loading on, both error channels of the
// operation cleared at dispatch.
func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.loginErr = ""
	s.registerErr = ""
	s.mu.Unlock()
}

func (s *Store) setTokenLocked(token string) {
	s.token = token
	if s.tokenFile == "" {
		return
	}
	if err := persist(s.tokenFile, token); err != nil {
		slog.Error("Failed persisting token", "path", s.tokenFile, "error", err)
	}
}

func persist(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func errMessage(err error, fallback string) string {
	if apiErr, ok := err.(*api.Error); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
