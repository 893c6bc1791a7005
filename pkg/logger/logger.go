// Package logger provides the structured logger shared by every component.
// It wraps logrus and carries request trace IDs through context.Context.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type traceIDKey struct{}

// Config configures a Logger.
type Config struct {
	Component string
	Level     string // debug, info, warn, error
	Format    string // json or text
	Output    io.Writer
}

// Logger is a component-scoped logrus logger.
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a logger from the given configuration.
func New(cfg Config) *Logger {
	l := logrus.New()

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(strings.TrimSpace(cfg.Format), "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	component := strings.TrimSpace(cfg.Component)
	if component == "" {
		component = "integrales"
	}
	return &Logger{Logger: l, component: component}
}

// NewDefault creates an info-level JSON logger for the named component.
func NewDefault(component string) *Logger {
	return New(Config{Component: component})
}

// Component returns the component name attached to every entry.
func (l *Logger) Component() string {
	return l.component
}

// Named returns a logger sharing the same sink but tagged with another component.
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component}
}

// WithContext returns an entry tagged with the component and the trace ID, if any.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("component", l.component)
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry.WithContext(ctx)
}

// WithField returns an entry tagged with the component and one extra field.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField("component", l.component).WithField(key, value)
}

// WithFields returns an entry tagged with the component and the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithField("component", l.component).WithFields(fields)
}

// WithError returns an entry tagged with the component and the error.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithField("component", l.component).WithError(err)
}

// LogRequest logs one served HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	switch {
	case status >= 500:
		entry.Error("request failed")
	case status >= 400:
		entry.Warn("request rejected")
	default:
		entry.Info("request served")
	}
}

// NewTraceID returns a fresh trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores the trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace ID stored in ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceIDKey{}).(string); ok {
		return v
	}
	return ""
}
