package observability

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a JSON logger at the given level writing to output.
// A nil output means stdout.
func NewLogger(level logrus.Level, output io.Writer) *logrus.Logger {
	if output == nil {
		output = os.Stdout
	}
	log := logrus.New()
	log.SetOutput(output)
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}

// ParseLevel parses a level name, accepting "warning" and "warn" alike.
// An empty name means info.
func ParseLevel(name string) (logrus.Level, error) {
	if strings.TrimSpace(name) == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
}

type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, log *logrus.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, log)
}

// GetLogger retrieves the logger from context, falling back to the
// standard logger
func GetLogger(ctx context.Context) *logrus.Logger {
	if log, ok := ctx.Value(LoggerKey).(*logrus.Logger); ok && log != nil {
		return log
	}
	return logrus.StandardLogger()
}

// FromContext returns an entry carrying the request ID from context
func FromContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(GetLogger(ctx)).WithContext(ctx)
	if requestID := GetRequestID(ctx); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	return entry
}
