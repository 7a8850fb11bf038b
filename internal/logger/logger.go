package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
	"runtime/debug"
	"time"
)

// Logger wraps slog with the structured fields every service emits
type Logger struct {
	service  string
	hostname string
	handler  *slog.Logger
}

// New creates a logger for the given service name
func New(service string) *Logger {
	hostname, _ := os.Hostname()

	handler := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	return &Logger{
		service:  service,
		hostname: hostname,
		handler:  handler,
	}
}

// GenerateRequestID returns a short random identifier for request correlation
func GenerateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "req_unknown"
	}
	return "req_" + hex.EncodeToString(buf)
}

// Info logs an informational message
func (l *Logger) Info(action, message, requestID string, data map[string]interface{}) {
	l.log(slog.LevelInfo, action, message, requestID, nil, data)
}

// Debug logs a debug message
func (l *Logger) Debug(action, message, requestID string, data map[string]interface{}) {
	l.log(slog.LevelDebug, action, message, requestID, nil, data)
}

// Error logs an error message with the error and a stack trace
func (l *Logger) Error(action, message, requestID string, err error, data map[string]interface{}) {
	l.log(slog.LevelError, action, message, requestID, err, data)
}

func (l *Logger) log(level slog.Level, action, message, requestID string, err error, data map[string]interface{}) {
	attrs := []slog.Attr{
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		slog.String("service", l.service),
		slog.String("hostname", l.hostname),
		slog.String("action", action),
		slog.String("request_id", requestID),
	}

	if err != nil {
		attrs = append(attrs, slog.Group("error",
			slog.String("msg", err.Error()),
			slog.String("stack", string(debug.Stack())),
		))
	}

	if len(data) > 0 {
		attrs = append(attrs, slog.Any("data", data))
	}

	l.handler.LogAttrs(context.TODO(), level, message, attrs...)
}
