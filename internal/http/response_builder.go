package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// ResponseBuilder provides a fluent API for building htmx responses. It
// encapsulates the construction of HX-Trigger headers and response bodies.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerMutation adds the entity's mutation trigger, e.g. "expenses:changed".
// Every list container listens for its own entity trigger and refetches.
func (b *ResponseBuilder) TriggerMutation(entity string, id int64) *ResponseBuilder {
	return b.Trigger(entity+":changed", map[string]int64{"id": id})
}

// TriggerSessionChanged signals login/logout so the shell swaps the nav.
func (b *ResponseBuilder) TriggerSessionChanged() *ResponseBuilder {
	return b.Trigger("session:changed", struct{}{})
}

// TriggerFormReset adds the form:reset trigger.
func (b *ResponseBuilder) TriggerFormReset() *ResponseBuilder {
	return b.Trigger("form:reset", struct{}{})
}

// TriggerModalClose closes the open detail modal.
func (b *ResponseBuilder) TriggerModalClose() *ResponseBuilder {
	return b.Trigger("modal:close", struct{}{})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// TriggerNotification adds a show-notification trigger.
func (b *ResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *ResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

// TriggerSuccessNotification is a convenience method for success notifications.
func (b *ResponseBuilder) TriggerSuccessNotification(message string) *ResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

// TriggerErrorNotification is a convenience method for error notifications.
func (b *ResponseBuilder) TriggerErrorNotification(message string) *ResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// BodyString sets the response body as a string.
func (b *ResponseBuilder) BodyString(content string) *ResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *ResponseBuilder) BodyHTML(html string) *ResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
