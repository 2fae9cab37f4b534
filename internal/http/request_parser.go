package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"sopdash/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *ResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *ResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
// htmx forms post; hx-delete sends DELETE.
func RequireDeleteOrPOST(r *http.Request) *ResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on
// failure. Returns nil on success.
func ParseFormOrFail(r *http.Request) *ResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Formato de requisição inválido")
	}
	return nil
}

// parseID extracts a server-issued identifier from a form or query field.
func parseID(value string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseAmountField parses a monetary form field, tolerating a comma decimal
// separator.
func parseAmountField(value string) (core.Amount, bool) {
	amount, err := core.ParseAmount(value)
	if err != nil {
		return core.Amount{}, false
	}
	if err := amount.Validate(); err != nil {
		return core.Amount{}, false
	}
	return amount, true
}

// parseDateField parses an optional yyyy-mm-dd form field. Empty is fine;
// the payload's Normalize fills the default.
func parseDateField(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
