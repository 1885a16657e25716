package per

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thebagchi/aper/lib/bitbuffer"
)

// Phase indicates whether the error happened while encoding or decoding.
type Phase string

const (
	PhaseEncode Phase = "encode"
	PhaseDecode Phase = "decode"
)

// Kind categorizes the error
type Kind string

const (
	KindTruncatedInput      Kind = "truncated_input"
	KindConstraintViolation Kind = "constraint_violation"
	KindInvalidEnumIndex    Kind = "invalid_enum_index"
	KindMalformedLength     Kind = "malformed_length_determinant"
	KindOverflow            Kind = "overflow"
	KindInvalidArgument     Kind = "invalid_argument"
)

// Error is the error type returned by every Encoder and Decoder method.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	// Bits is the writer or reader bit position when the error was raised.
	Bits uint64
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrTruncatedInput             = &Error{Kind: KindTruncatedInput}
	ErrConstraintViolation        = &Error{Kind: KindConstraintViolation}
	ErrInvalidEnumIndex           = &Error{Kind: KindInvalidEnumIndex}
	ErrMalformedLengthDeterminant = &Error{Kind: KindMalformedLength}
	ErrOverflow                   = &Error{Kind: KindOverflow}
	ErrInvalidArgument            = &Error{Kind: KindInvalidArgument}
)

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("per: ")
	if e.Phase != "" {
		b.WriteString(string(e.Phase))
		b.WriteByte(' ')
	}
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Value != nil {
		fmt.Fprintf(&b, " (value %v)", e.Value)
	}
	if e.Phase != "" {
		fmt.Fprintf(&b, " at bit %d", e.Bits)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same kind, and the same phase when the
// target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of a codec error, or "" for any other error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(phase Phase, kind Kind, format string, args ...any) *Error {
	e := &Error{
		Phase: phase,
		Kind:  kind,
	}
	if len(args) > 0 {
		e.Detail = fmt.Sprintf(format, args...)
	} else {
		e.Detail = format
	}
	return e
}

// wrap turns a bitbuffer failure into a codec error. Codec errors pass
// through unchanged.
func wrap(phase Phase, err error, detail string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := KindInvalidArgument
	if errors.Is(err, bitbuffer.ErrInsufficientData) {
		kind = KindTruncatedInput
	}
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  err,
	}
}
