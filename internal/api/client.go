// Package api is the accessor for the remote SOP expense API: every request
// the dashboard makes goes through Client, which owns the base endpoint,
// bearer-token injection and error-message extraction. The server is the
// source of truth; nothing here derives domain state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// TokenSource yields the current bearer token. An empty string means
// anonymous: the Authorization header is omitted entirely, never sent blank.
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
}

// NewClient builds an accessor for the given origin, e.g.
// "https://sop.example.org". The token source is attached later with
// UseTokens because the session store needs the client to log in.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// UseTokens attaches the bearer-token source for authenticated calls.
func (c *Client) UseTokens(src TokenSource) {
	c.tokens = src
}

// do performs one request/response cycle and decodes the JSON response into
// out. Any failure comes back as *Error carrying the message resolved via
// extractMessage, so stores and forms can surface it verbatim.
func (c *Client) do(ctx context.Context, method, path string, in, out any, fallback string) error {
	data, err := c.request(ctx, method, path, in, fallback)
	if err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// request is the transport cycle behind do; it hands back the raw response
// body for endpoints that do not answer JSON (the login token).
func (c *Client) request(ctx context.Context, method, path string, in any, fallback string) ([]byte, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "Request transport failure",
			"method", method,
			"path", path,
			"error", err)
		// Transport failure: no server message, fall back to the exception.
		return nil, &Error{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := extractMessage(data, fallback)
		slog.DebugContext(ctx, "Request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", msg)
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	return data, nil
}

// stream performs a GET and hands the raw body to the caller, for binary
// downloads. The caller owns closing the body.
func (c *Client) stream(ctx context.Context, path, fallback string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &Error{Status: 0, Message: err.Error()}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &Error{Status: resp.StatusCode, Message: extractMessage(data, fallback)}
	}
	return resp.Body, nil
}

// PaymentsReportPDF streams the server-generated payments report. Generation
// is fully delegated to the server; this is a pass-through download.
func (c *Client) PaymentsReportPDF(ctx context.Context) (io.ReadCloser, error) {
	return c.stream(ctx, "/api/reports/payments/pdf", "Erro ao gerar relatório")
}

// authorize attaches the bearer header when a token is available.
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}
