package per

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestWriteInteger(t *testing.T) {
	for _, tc := range load[INT](t, "integer.json") {
		t.Run(tc.name(), func(t *testing.T) {
			var (
				expected = unhex(t, tc.Output)
				encoder  = NewEncoder()
				c        = tc.constraint(t)
				value    = tc.parse(t, tc.Input.Value)
				err      error
			)
			if tc.Input.Unsigned {
				err = encoder.EncodeUnsigned(uint64(value), c)
			} else {
				err = encoder.EncodeNumber(value, c)
			}
			if err != nil {
				t.Fatalf("encode %s under %s error = %v", tc.Input.Value, c, err)
			}
			if result := encoder.Bytes(); !bytes.Equal(result, expected) {
				t.Errorf("encode %s under %s = %x, expected %x", tc.Input.Value, c, result, expected)
			}
		})
	}
}

func TestReadInteger(t *testing.T) {
	for _, tc := range load[INT](t, "integer.json") {
		t.Run(tc.name(), func(t *testing.T) {
			var (
				decoder  = NewDecoder(unhex(t, tc.Output))
				c        = tc.constraint(t)
				expected = tc.parse(t, tc.Input.Value)
				result   int64
				err      error
			)
			if tc.Input.Unsigned {
				var u uint64
				u, err = decoder.DecodeUnsigned(c)
				result = int64(u)
			} else {
				result, err = decoder.DecodeNumber(c)
			}
			if err != nil {
				t.Fatalf("decode %s under %s error = %v", tc.Output, c, err)
			}
			if result != expected {
				t.Errorf("decode %s under %s = %d, expected %d", tc.Output, c, result, expected)
			}
			if decoder.Remaining() >= 8 {
				t.Errorf("decode %s left %d bits", tc.Output, decoder.Remaining())
			}
		})
	}
}

func TestReadIntegerInvalid(t *testing.T) {
	for _, tc := range load[INT](t, "integer_invalid.json") {
		t.Run(tc.name(), func(t *testing.T) {
			var (
				decoder = NewDecoder(unhex(t, tc.Output))
				c       = tc.constraint(t)
				err     error
			)
			if tc.Input.Unsigned {
				_, err = decoder.DecodeUnsigned(c)
			} else {
				_, err = decoder.DecodeNumber(c)
			}
			if err == nil {
				t.Fatalf("decode %s under %s should fail with %s", tc.Output, c, tc.Kind)
			}
			if kind := KindOf(err); kind != tc.Kind {
				t.Errorf("decode %s under %s failed with %s, expected %s (%v)", tc.Output, c, kind, tc.Kind, err)
			}
			if !errors.Is(err, &Error{Phase: PhaseDecode, Kind: tc.Kind}) {
				t.Errorf("error %v should match decode phase", err)
			}
		})
	}
}

func TestIntegerRoundTrip(t *testing.T) {
	shapes := []struct {
		name   string
		c      IntegerConstraint
		values []int64
	}{
		{"FIXED", Constrained(42, 42), []int64{42}},
		{"BIT_FIELD", Constrained(-10, 10), []int64{-10, -9, 0, 9, 10}},
		{"ONE_OCTET", Constrained(1000, 1255), []int64{1000, 1001, 1254, 1255}},
		{"TWO_OCTET", Constrained(-32768, 32767), []int64{-32768, -32767, 0, 32766, 32767}},
		{"INDEFINITE", Constrained(-1, 1<<40), []int64{-1, 0, 255, 65536, 1<<40 - 1, 1 << 40}},
		{"FULL_RANGE", Constrained(math.MinInt64, math.MaxInt64), []int64{math.MinInt64, -1, 0, math.MaxInt64}},
		{"SEMI_CONSTRAINED", SemiConstrained(-100), []int64{-100, -99, 0, 1 << 20, math.MaxInt64}},
		{"UNCONSTRAINED", Unconstrained(), []int64{math.MinInt64, -129, -128, -1, 0, 127, 128, math.MaxInt64}},
		{"UPPER_ONLY", IntegerConstraint{Upper: Some[int64](10), Signed: true}, []int64{math.MinInt64, 9, 10}},
		{"EXTENSIBLE", Constrained(0, 15).Extend(Some[int64](-100), Some[int64](100)), []int64{-100, -1, 0, 15, 16, 100}},
	}

	for _, shape := range shapes {
		t.Run(shape.name, func(t *testing.T) {
			for _, v := range shape.values {
				encoder := NewEncoder()
				if err := encoder.EncodeNumber(v, &shape.c); err != nil {
					t.Fatalf("EncodeNumber(%d, %s) error = %v", v, &shape.c, err)
				}
				result, err := NewDecoder(encoder.Bytes()).DecodeNumber(&shape.c)
				if err != nil {
					t.Fatalf("DecodeNumber(%s) of %x error = %v", &shape.c, encoder.Bytes(), err)
				}
				if result != v {
					t.Errorf("round trip of %d under %s = %d", v, &shape.c, result)
				}
			}
		})
	}
}

func TestIntegerOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		c     IntegerConstraint
		value int64
	}{
		{"BELOW_LOWER", Constrained(0, 255), -1},
		{"ABOVE_UPPER", Constrained(0, 255), 256},
		{"FIXED", Constrained(7, 7), 8},
		{"SEMI_CONSTRAINED", SemiConstrained(10), 9},
		{"UPPER_ONLY", IntegerConstraint{Upper: Some[int64](10), Signed: true}, 11},
		{"OUTSIDE_EXTENSION", Constrained(0, 7).Extend(Some[int64](8), Some[int64](15)), 16},
		{"UNSIGNED_NEGATIVE", ConstrainedUnsigned(0, 10), -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoder := NewEncoder()
			err := encoder.EncodeNumber(tc.value, &tc.c)
			if !errors.Is(err, ErrConstraintViolation) {
				t.Fatalf("EncodeNumber(%d, %s) = %v, want constraint violation", tc.value, &tc.c, err)
			}
			if encoder.NumWritten() != 0 {
				t.Errorf("failed encode left %d bits", encoder.NumWritten())
			}
		})
	}

	encoder := NewEncoder()
	c := Constrained(0, 10)
	if err := encoder.EncodeUnsigned(math.MaxUint64, &c); !errors.Is(err, ErrOverflow) {
		t.Errorf("EncodeUnsigned(MaxUint64) under signed %s = %v, want overflow", &c, err)
	}
	if _, err := NewDecoder([]byte{0x09, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}).DecodeNumber(&IntegerConstraint{}); !errors.Is(err, ErrOverflow) {
		t.Errorf("DecodeNumber of UINT64_MAX into int64 = %v, want overflow", err)
	}
}

func TestNumberSequence(t *testing.T) {
	var (
		encoder = NewEncoder()
		small   = Constrained(0, 7)
		octet   = Constrained(0, 255)
		wide    = Constrained(0, 65535)
	)
	steps := []func() error{
		func() error { return encoder.EncodeNumber(5, &small) },
		func() error { return encoder.EncodeBoolean(true) },
		func() error { return encoder.EncodeNumber(200, &octet) },
		func() error { return encoder.EncodeNumber(1000, &wide) },
		func() error { return encoder.EncodeNumber(-1, nil) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d error = %v", i, err)
		}
	}
	// 101 1 pad | c8 | 03 e8 | 01 ff
	expected := []byte{0xB0, 0xC8, 0x03, 0xE8, 0x01, 0xFF}
	if !bytes.Equal(encoder.Bytes(), expected) {
		t.Fatalf("encoded %x, expected %x", encoder.Bytes(), expected)
	}

	decoder := NewDecoder(expected)
	if v, err := decoder.DecodeNumber(&small); err != nil || v != 5 {
		t.Errorf("DecodeNumber(small) = %d, %v", v, err)
	}
	if v, err := decoder.DecodeBoolean(); err != nil || !v {
		t.Errorf("DecodeBoolean() = %v, %v", v, err)
	}
	if v, err := decoder.DecodeNumber(&octet); err != nil || v != 200 {
		t.Errorf("DecodeNumber(octet) = %d, %v", v, err)
	}
	if v, err := decoder.DecodeNumber(&wide); err != nil || v != 1000 {
		t.Errorf("DecodeNumber(wide) = %d, %v", v, err)
	}
	if v, err := decoder.DecodeNumber(nil); err != nil || v != -1 {
		t.Errorf("DecodeNumber(nil) = %d, %v", v, err)
	}
	if decoder.Remaining() != 0 {
		t.Errorf("%d bits left", decoder.Remaining())
	}
}

// BOOL represents a single test case from the JSON file
type BOOL struct {
	Input  bool   `json:"input"`
	Output string `json:"output"`
}

func TestBoolean(t *testing.T) {
	for _, tc := range load[BOOL](t, "boolean.json") {
		expected := unhex(t, tc.Output)

		encoder := NewEncoder()
		if err := encoder.EncodeBoolean(tc.Input); err != nil {
			t.Fatalf("EncodeBoolean(%v) error = %v", tc.Input, err)
		}
		if !bytes.Equal(encoder.Bytes(), expected) {
			t.Errorf("EncodeBoolean(%v) = %x, expected %x", tc.Input, encoder.Bytes(), expected)
		}

		result, err := NewDecoder(expected).DecodeBoolean()
		if err != nil {
			t.Fatalf("DecodeBoolean() error = %v", err)
		}
		if result != tc.Input {
			t.Errorf("DecodeBoolean() = %v, expected %v", result, tc.Input)
		}
	}

	if _, err := NewDecoder(nil).DecodeBoolean(); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("DecodeBoolean() on empty input = %v, want truncated input", err)
	}
}
