package per

import (
	"go.uber.org/zap/zapcore"

	"github.com/thebagchi/aper/lib/bitbuffer"
)

// Encoder writes Aligned PER fields, in schema order, into one message.
type Encoder struct {
	codec *bitbuffer.Writer
}

// NewEncoder creates a new APER encoder over a fresh Writer.
func NewEncoder() *Encoder {
	return &Encoder{
		codec: bitbuffer.CreateWriter(),
	}
}

// Bytes returns the encoded bytes, the last one padded with zero bits.
// Returns nil if nothing was written.
func (e *Encoder) Bytes() []byte {
	return e.codec.Bytes()
}

// NumWritten returns the number of bits written so far.
func (e *Encoder) NumWritten() uint64 {
	return e.codec.NumWritten()
}

// Writer returns the underlying bit sink.
func (e *Encoder) Writer() *bitbuffer.Writer {
	return e.codec
}

// Reset discards the encoded data so the Encoder can start a new message.
func (e *Encoder) Reset() {
	e.codec.Reset()
}

// Message returns the complete encoding of the message.
// ITU-T X.691 Section 11.1: an empty encoding is replaced by a single zero
// octet.
func (e *Encoder) Message() []byte {
	if e.codec.NumWritten() == 0 {
		return []byte{0x00}
	}
	return e.codec.Bytes()
}

// field runs one field encoder. On failure the Writer is rewound to where the
// field started, so everything written before it stays valid.
func (e *Encoder) field(operation string, fn func() error) error {
	mark := e.codec.Mark()
	err := fn()
	if err == nil {
		return nil
	}
	if rerr := e.codec.Rewind(mark); rerr != nil {
		return rerr
	}

	failure, ok := wrap(PhaseEncode, err, operation).(*Error)
	if !ok {
		return err
	}
	// an open type hands back the inner field's error, which keeps its own
	// position
	copied := *failure
	failure = &copied
	if failure.Phase == "" {
		failure.Phase = PhaseEncode
	}
	failure.Bits = mark
	logFailure(zapcore.ErrorLevel, operation, failure)
	return failure
}

// encodeError builds an encode-side error.
func encodeError(kind Kind, value any, format string, args ...any) *Error {
	err := newError(PhaseEncode, kind, format, args...)
	err.Value = value
	return err
}
