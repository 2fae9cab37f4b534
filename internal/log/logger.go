package log

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger and stamps every record with the emitting
// component, so dashboard, accessor and worker logs stay distinguishable.
type Logger struct {
	*slog.Logger
	handler   slog.Handler
	component string
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// DefaultConfig reads LOG_LEVEL (debug|info|warn|error) and LOG_FORMAT
// (text|json) from the environment, defaulting to info-level text.
func DefaultConfig() Config {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return Config{
		Level:     level,
		Component: ComponentApp,
		Handler:   handler,
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger from the configuration. The component is attached as
// a persistent attribute, not repeated per call site.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}

	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		handler:   handler,
		component: component,
	}
}

// With returns a logger carrying the extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		handler:   l.handler,
		component: l.component,
	}
}

// WithComponent returns a logger re-attributed to another component. It
// rebuilds from the base handler, so the previous component attribute is
// replaced instead of stacked.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    slog.New(l.handler).With(FieldComponent, component),
		handler:   l.handler,
		component: component,
	}
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault routes the package-level slog helpers through this logger, so
// callers without an injected logger still emit attributed records.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
