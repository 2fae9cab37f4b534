package api

import "encoding/json"

// Generic fallback shown when neither the server nor the transport explain
// the failure.
const genericFailure = "Erro ao comunicar com o servidor"

// Error is the surfaced form of any failed remote call. Status is the HTTP
// status code, or 0 for transport failures that produced no response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// errorBody is the server's structured error envelope. Validation failures
// use "message"; some fault paths use "error".
type errorBody struct {
	Message string `json:"message"`
	Err     string `json:"error"`
}

// extractMessage resolves the display message with the three-level fallback:
// server "message" field, server "error" field, then the caller's localized
// fallback (or the package generic when that is empty too).
func extractMessage(body []byte, fallback string) string {
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Err != "" {
			return envelope.Err
		}
	}
	// Some endpoints return a bare string body.
	var plain string
	if err := json.Unmarshal(body, &plain); err == nil && plain != "" {
		return plain
	}
	if fallback != "" {
		return fallback
	}
	return genericFailure
}
