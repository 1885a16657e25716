package bitbuffer

import (
	"sync"

	"go.uber.org/zap"
)

// EnableTrace controls whether Writer and Reader primitives emit debug traces.
var EnableTrace = false

var (
	tracer     *zap.Logger
	tracerOnce sync.Once
)

// TraceLogger returns the logger used for primitive traces.
// It uses a no-op logger by default.
func TraceLogger() *zap.Logger {
	tracerOnce.Do(func() {
		if tracer == nil {
			tracer = zap.NewNop()
		}
	})
	return tracer
}

// SetTraceLogger configures the logger used when EnableTrace is set. A nil
// logger disables tracing output.
// This must be called before any encode or decode pass.
func SetTraceLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	tracer = l
}

// trace logs one primitive call with the cursor position.
func trace(function string, position, length uint64, fields ...zap.Field) {
	if !EnableTrace {
		return
	}
	fields = append(fields, zap.Uint64("position", position), zap.Uint64("length", length))
	TraceLogger().Debug(function, fields...)
}
