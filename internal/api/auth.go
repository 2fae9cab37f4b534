package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Registration is the payload for /auth/register.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Roles    string `json:"roles"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. The endpoint answers with
// the token itself, either as a bare string body or JSON-quoted.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	raw, err := c.request(ctx, http.MethodPost, "/auth/generateToken", credentials{Username: username, Password: password}, "Erro ao fazer login")
	if err != nil {
		return "", err
	}
	var quoted string
	if json.Unmarshal(raw, &quoted) == nil && quoted != "" {
		return quoted, nil
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", &Error{Status: http.StatusOK, Message: "Erro ao fazer login"}
	}
	return token, nil
}

// Register creates an account. Success carries a token, so registration
// authenticates immediately without a separate login round-trip.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	var resp registerResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", reg, &resp, "Erro ao registrar usuário"); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &Error{Status: http.StatusOK, Message: "Erro ao registrar usuário"}
	}
	return resp.Token, nil
}
