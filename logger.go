package brokerkit

import (
	"log"
	"os"

	"go.uber.org/zap"
)

// Logger is the minimal structured logging surface the client emits to.
// Keys and values alternate in kv.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// SimpleLogger writes key-value pairs to the standard logger. Meant for
// examples and local debugging.
type SimpleLogger struct {
	l *log.Logger
}

// NewSimpleLogger returns a logger writing to stderr.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{l: log.New(os.Stderr, "brokerkit ", log.LstdFlags|log.Lmsgprefix)}
}

func (s *SimpleLogger) Debug(msg string, kv ...any) { s.print("DEBUG", msg, kv) }
func (s *SimpleLogger) Info(msg string, kv ...any)  { s.print("INFO", msg, kv) }
func (s *SimpleLogger) Warn(msg string, kv ...any)  { s.print("WARN", msg, kv) }
func (s *SimpleLogger) Error(msg string, kv ...any) { s.print("ERROR", msg, kv) }

func (s *SimpleLogger) print(level, msg string, kv []any) {
	args := make([]any, 0, 2+len(kv))
	args = append(args, level, msg)
	args = append(args, kv...)
	s.l.Println(args...)
}

// zapLogger adapts a zap.Logger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps a zap logger for use with WithLogger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{s: l.Sugar()}
}

func (z *zapLogger) Debug(msg string, kv ...any) { z.s.Debugw(msg, kv...) }
func (z *zapLogger) Info(msg string, kv ...any)  { z.s.Infow(msg, kv...) }
func (z *zapLogger) Warn(msg string, kv ...any)  { z.s.Warnw(msg, kv...) }
func (z *zapLogger) Error(msg string, kv ...any) { z.s.Errorw(msg, kv...) }

// DebugConfig selects which client stages emit debug logs.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRetries   bool
	LogRateLimit bool
	LogCircuit   bool
	LogCache     bool
}

// DefaultDebugConfig enables all stages once debugging is switched on.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		LogRequests:  true,
		LogRetries:   true,
		LogRateLimit: true,
		LogCircuit:   true,
		LogCache:     true,
	}
}
