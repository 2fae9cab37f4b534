package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sopdash/internal/api"
)

type fakeAuth struct {
	token    string
	loginErr error
	regErr   error
}

func (f fakeAuth) Login(ctx context.Context, username, password string) (string, error) {
	return f.token, f.loginErr
}

func (f fakeAuth) Register(ctx context.Context, reg api.Registration) (string, error) {
	return f.token, f.regErr
}

func TestLoginPersistsToken(t *testing.T) {
	file := filepath.Join(t.TempDir(), "session", "token")
	s := New(file)
	require.Equal(t, Anonymous, s.State())

	err := s.Login(context.Background(), fakeAuth{token: "abc123"}, "ana", "x")
	require.NoError(t, err)

	assert.Equal(t, "abc123", s.Token())
	assert.Equal(t, Authenticated, s.State())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "abc123", string(data))

	// A fresh store hydrates the persisted token, surviving restarts.
	s2 := New(file)
	assert.Equal(t, "abc123", s2.Token())
	assert.Equal(t, Authenticated, s2.State())
}

func TestLoginFailureKeepsAnonymous(t *testing.T) {
	file := filepath.Join(t.TempDir(), "token")
	s := New(file)

	err := s.Login(context.Background(), fakeAuth{loginErr: &api.Error{Status: 401, Message: "Credenciais inválidas"}}, "ana", "bad")
	require.Error(t, err)

	assert.Equal(t, Anonymous, s.State())
	assert.Equal(t, "Credenciais inválidas", s.LoginError())
	assert.Empty(t, s.RegisterError(), "login and registration errors are independent channels")
	_, statErr := os.Stat(file)
	assert.True(t, os.IsNotExist(statErr), "no token file may be written on failure")
}

func TestRegisterAuthenticatesImmediately(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "token"))

	err := s.Register(context.Background(), fakeAuth{token: "fresh"}, api.Registration{Name: "Ana", Email: "a@b.c", Password: "x", Roles: "USER"})
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, "fresh", s.Token())
}

func TestRegisterFailureChannel(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "token"))

	err := s.Register(context.Background(), fakeAuth{regErr: &api.Error{Status: 409, Message: "Email já cadastrado"}}, api.Registration{})
	require.Error(t, err)
	assert.Equal(t, "Email já cadastrado", s.RegisterError())
	assert.Empty(t, s.LoginError())
}

func TestLogoutClearsMemoryAndDisk(t *testing.T) {
	file := filepath.Join(t.TempDir(), "token")
	s := New(file)
	require.NoError(t, s.Login(context.Background(), fakeAuth{token: "abc123"}, "ana", "x"))

	s.Logout()

	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, s.Token())
	_, statErr := os.Stat(file)
	assert.True(t, os.IsNotExist(statErr))
}
