package per

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once

	// decodeLevel is the level at which decode failures are reported.
	// Untrusted input failing to decode is not an error of this process, so it
	// defaults to Info.
	decodeLevel = zapcore.InfoLevel
)

// Logger returns the codec's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the codec's logger. A nil logger disables logging.
// This must be called before any encode or decode pass.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// SetDecodeLogLevel sets the level at which decode failures are logged.
// This must be called before any decode pass.
func SetDecodeLogLevel(level zapcore.Level) {
	decodeLevel = level
}

// logFailure reports a codec error with its structured fields.
func logFailure(level zapcore.Level, operation string, err *Error) {
	ce := Logger().Check(level, "per: "+operation+" failed")
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.String("phase", string(err.Phase)),
		zap.String("kind", string(err.Kind)),
		zap.Uint64("bits", err.Bits),
	}
	if err.Detail != "" {
		fields = append(fields, zap.String("detail", err.Detail))
	}
	if err.Value != nil {
		fields = append(fields, zap.Any("value", err.Value))
	}
	if err.Cause != nil {
		fields = append(fields, zap.NamedError("cause", err.Cause))
	}
	ce.Write(fields...)
}
