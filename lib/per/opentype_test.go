package per

import (
	"bytes"
	"errors"
	"testing"
)

func TestOpenType(t *testing.T) {
	c := Constrained(0, 7)
	tests := []struct {
		name     string
		fn       func(*Encoder) error
		expected []byte
	}{
		{"EMPTY", nil, []byte{0x01, 0x00}},
		{"NOTHING_WRITTEN", func(*Encoder) error { return nil }, []byte{0x01, 0x00}},
		{"NUMBER", func(e *Encoder) error { return e.EncodeNumber(5, &c) }, []byte{0x01, 0xA0}},
		{"OCTET_STRING", func(e *Encoder) error { return e.EncodeOctetString([]byte("hi"), nil) }, []byte{0x03, 0x02, 0x68, 0x69}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoder := NewEncoder()
			if err := encoder.EncodeOpenType(tc.fn); err != nil {
				t.Fatalf("EncodeOpenType() error = %v", err)
			}
			if !bytes.Equal(encoder.Bytes(), tc.expected) {
				t.Errorf("EncodeOpenType() = %x, expected %x", encoder.Bytes(), tc.expected)
			}

			value, err := NewDecoder(tc.expected).DecodeOpenTypeBytes()
			if err != nil {
				t.Fatalf("DecodeOpenTypeBytes() error = %v", err)
			}
			if !bytes.Equal(value.Data, tc.expected[1:]) || value.Ownership != Borrowed {
				t.Errorf("DecodeOpenTypeBytes() = %x (%s)", value.Data, value.Ownership)
			}
		})
	}
}

func TestOpenTypeNested(t *testing.T) {
	c := Constrained(0, 7)
	encoder := NewEncoder()
	if err := encoder.EncodeOpenType(func(e *Encoder) error { return e.EncodeNumber(5, &c) }); err != nil {
		t.Fatalf("EncodeOpenType() error = %v", err)
	}
	if err := encoder.EncodeBoolean(true); err != nil {
		t.Fatalf("EncodeBoolean() error = %v", err)
	}
	encoded := encoder.Bytes()
	if !bytes.Equal(encoded, []byte{0x01, 0xA0, 0x80}) {
		t.Fatalf("encoded %x, expected 01a080", encoded)
	}

	decoder := NewDecoder(encoded)
	var inner int64
	err := decoder.DecodeOpenType(func(d *Decoder) error {
		var err error
		inner, err = d.DecodeNumber(&c)
		return err
	})
	if err != nil || inner != 5 {
		t.Errorf("DecodeOpenType() = %d, %v", inner, err)
	}
	if v, err := decoder.DecodeBoolean(); err != nil || !v {
		t.Errorf("DecodeBoolean() after open type = %v, %v", v, err)
	}

	// an unknown extension is skipped whole
	decoder = NewDecoder(encoded)
	if err := decoder.DecodeOpenType(nil); err != nil {
		t.Fatalf("DecodeOpenType(nil) error = %v", err)
	}
	if v, err := decoder.DecodeBoolean(); err != nil || !v {
		t.Errorf("DecodeBoolean() after skipped open type = %v, %v", v, err)
	}
}

func TestOpenTypeBytes(t *testing.T) {
	encoder := NewEncoder()
	if err := encoder.EncodeOpenTypeBytes(nil); err != nil {
		t.Fatalf("EncodeOpenTypeBytes(nil) error = %v", err)
	}
	if err := encoder.EncodeOpenTypeBytes([]byte{0xA0}); err != nil {
		t.Fatalf("EncodeOpenTypeBytes() error = %v", err)
	}
	if expected := []byte{0x01, 0x00, 0x01, 0xA0}; !bytes.Equal(encoder.Bytes(), expected) {
		t.Errorf("EncodeOpenTypeBytes() = %x, expected %x", encoder.Bytes(), expected)
	}

	large := make([]byte, 20000)
	encoder = NewEncoder()
	if err := encoder.EncodeOpenTypeBytes(large); err != nil {
		t.Fatalf("EncodeOpenTypeBytes(20000 octets) error = %v", err)
	}
	value, err := NewDecoder(encoder.Bytes()).DecodeOpenTypeBytes()
	if err != nil {
		t.Fatalf("DecodeOpenTypeBytes() error = %v", err)
	}
	if len(value.Data) != 20000 || value.Ownership != Owned {
		t.Errorf("DecodeOpenTypeBytes() = %d octets (%s)", len(value.Data), value.Ownership)
	}
}

func TestOpenTypeInvalid(t *testing.T) {
	c := Constrained(0, 7)
	encoder := NewEncoder()
	if err := encoder.EncodeBoolean(true); err != nil {
		t.Fatal(err)
	}
	err := encoder.EncodeOpenType(func(e *Encoder) error {
		if err := e.EncodeNumber(1, &c); err != nil {
			return err
		}
		return e.EncodeNumber(9, &c)
	})
	if !errors.Is(err, ErrConstraintViolation) {
		t.Errorf("EncodeOpenType() = %v, want constraint violation", err)
	}
	if !bytes.Equal(encoder.Bytes(), []byte{0x80}) {
		t.Errorf("failed open type left %x, expected 80", encoder.Bytes())
	}

	// inner content shorter than the field expects
	err = NewDecoder([]byte{0x01, 0xA0}).DecodeOpenType(func(d *Decoder) error {
		_, err := d.DecodeOctetString(nil, false)
		return err
	})
	if !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("DecodeOpenType() = %v, want truncated input", err)
	}
	if _, err := NewDecoder([]byte{0x02, 0xA0}).DecodeOpenTypeBytes(); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("DecodeOpenTypeBytes() = %v, want truncated input", err)
	}
}

func TestOpenTypeUnusedOctets(t *testing.T) {
	c := Constrained(0, 7)
	number := func(d *Decoder) error {
		_, err := d.DecodeNumber(&c)
		return err
	}
	nothing := func(*Decoder) error { return nil }

	tests := []struct {
		name  string
		input []byte
		fn    func(*Decoder) error
		err   error
	}{
		{"PADDING_ONLY", []byte{0x01, 0xA0}, number, nil},
		{"EMPTY_ENCODING", []byte{0x01, 0x00}, nothing, nil},
		{"SKIPPED", []byte{0x02, 0xA0, 0x80}, nil, nil},
		{"TRAILING_OCTET", []byte{0x02, 0xA0, 0x80}, number, ErrMalformedLengthDeterminant},
		{"NOTHING_READ", []byte{0x01, 0xA0}, nothing, ErrMalformedLengthDeterminant},
		{"ZEROS_NOTHING_READ", []byte{0x02, 0x00, 0x00}, nothing, ErrMalformedLengthDeterminant},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := NewDecoder(tc.input).DecodeOpenType(tc.fn)
			if tc.err == nil && err != nil {
				t.Errorf("DecodeOpenType() of %x error = %v", tc.input, err)
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Errorf("DecodeOpenType() of %x = %v, want %v", tc.input, err, tc.err)
			}
		})
	}
}
