package per

import (
	"github.com/thebagchi/aper/lib/bitbuffer"
)

// Decoder reads Aligned PER fields, in schema order, from one message.
// Decoded borrowed values alias the data given to NewDecoder.
type Decoder struct {
	codec *bitbuffer.Reader
}

// NewDecoder creates a new APER decoder from encoded data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		codec: bitbuffer.CreateReader(data),
	}
}

// NumRead returns the number of bits consumed so far.
func (d *Decoder) NumRead() uint64 {
	return d.codec.NumRead()
}

// Remaining returns the number of bits left in the message.
func (d *Decoder) Remaining() uint64 {
	return d.codec.Remaining()
}

// Reader returns the underlying bit cursor.
func (d *Decoder) Reader() *bitbuffer.Reader {
	return d.codec
}

// field runs one field decoder and reports its failure. The cursor position
// after a failure is unspecified.
func (d *Decoder) field(operation string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}

	failure, ok := wrap(PhaseDecode, err, operation).(*Error)
	if !ok {
		return err
	}
	copied := *failure
	failure = &copied
	if failure.Phase == "" {
		failure.Phase = PhaseDecode
	}
	failure.Bits = d.codec.NumRead()
	logFailure(decodeLevel, operation, failure)
	return failure
}

// decodeError builds a decode-side error.
func decodeError(kind Kind, value any, format string, args ...any) *Error {
	err := newError(PhaseDecode, kind, format, args...)
	err.Value = value
	return err
}

// truncated turns a bitbuffer failure into a codec error naming what was
// being read.
func truncated(err error, what string) error {
	return wrap(PhaseDecode, err, "reading "+what)
}
