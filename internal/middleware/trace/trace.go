package trace

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "sopdash/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
)

// Middleware handles request tracing and logging
type Middleware struct {
	extractIP func(*http.Request) string
	metrics   *Metrics
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64
	AverageResponseTime int64 // in microseconds
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		metrics:   &Metrics{},
	}
}

// Middleware returns HTTP middleware for request tracing
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := GenerateRequestID()
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "HTTP request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		// Capture the status code for the completion record.
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		durationMs := duration.Milliseconds()
		atomic.StoreInt64(&m.metrics.AverageResponseTime, durationMs*1000)

		logLevel := slog.LevelInfo
		if rw.statusCode >= 400 && rw.statusCode < 500 {
			logLevel = slog.LevelWarn
		} else if rw.statusCode >= 500 {
			logLevel = slog.LevelError
		}

		slog.Log(ctx, logLevel, "HTTP request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, durationMs,
			applog.FieldClientIP, clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:       atomic.LoadInt64(&m.metrics.TotalRequests),
		AverageResponseTime: atomic.LoadInt64(&m.metrics.AverageResponseTime),
	}
}
