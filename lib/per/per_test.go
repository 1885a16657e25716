package per

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// dref dereferences a pointer and returns its string representation.
// If the pointer is nil, returns "NIL".
func dref[T any](ptr *T) string {
	if ptr == nil {
		return "NIL"
	}
	return fmt.Sprintf("%v", *ptr)
}

// load reads the test vectors of testing/<name>.
func load[T any](t *testing.T, name string) []T {
	t.Helper()
	path := filepath.Join("testing", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read test data file: %v", err)
	}
	var tests []T
	if err := json.Unmarshal(data, &tests); err != nil {
		t.Fatalf("Failed to parse test data: %v", err)
	}
	return tests
}

// unhex decodes a hex string, failing the test on error.
func unhex(t *testing.T, s string) []byte {
	t.Helper()
	data, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("Failed to decode hex string %q: %v", s, err)
	}
	return data
}

// INT represents a single integer test case from the JSON file. Values are
// strings so the whole uint64 range fits.
type INT struct {
	Title string `json:"title"`
	Input struct {
		Value      string  `json:"value"`
		Lb         *string `json:"lb"`
		Ub         *string `json:"ub"`
		ExtLb      *string `json:"ext_lb"`
		ExtUb      *string `json:"ext_ub"`
		Unsigned   bool    `json:"unsigned"`
		Extensible *bool   `json:"extensible"`
	} `json:"input"`
	Output string `json:"output"`
	Kind   Kind   `json:"kind"`
}

// parse reads a bound or value, as uint64 bits when unsigned.
func (tc *INT) parse(t *testing.T, s string) int64 {
	t.Helper()
	if tc.Input.Unsigned {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			t.Fatalf("invalid unsigned %q: %v", s, err)
		}
		return int64(v)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		t.Fatalf("invalid signed %q: %v", s, err)
	}
	return v
}

func (tc *INT) opt(t *testing.T, s *string) Opt[int64] {
	if s == nil {
		return None[int64]()
	}
	return Some(tc.parse(t, *s))
}

func (tc *INT) constraint(t *testing.T) *IntegerConstraint {
	t.Helper()
	c := &IntegerConstraint{
		Lower:  tc.opt(t, tc.Input.Lb),
		Upper:  tc.opt(t, tc.Input.Ub),
		Signed: !tc.Input.Unsigned,
	}
	if tc.Input.Extensible != nil && *tc.Input.Extensible {
		*c = c.Extend(tc.opt(t, tc.Input.ExtLb), tc.opt(t, tc.Input.ExtUb))
	}
	return c
}

func (tc *INT) name() string {
	if tc.Title != "" {
		return strings.ToUpper(strings.NewReplacer(" ", "_", ":", "").Replace(tc.Title))
	}
	return strings.ToUpper(fmt.Sprintf("INTEGER_VALUE_%s_LB_%s_UB_%s_UNSIGNED_%v_EXTENSIBLE_%s",
		tc.Input.Value, dref(tc.Input.Lb), dref(tc.Input.Ub), tc.Input.Unsigned, dref(tc.Input.Extensible)))
}

// SIZED represents a single bit or octet string test case from the JSON
// file. Values are hex for octet strings and '0'/'1' text for bit strings.
type SIZED struct {
	Input struct {
		Value      string  `json:"value"`
		Lb         *uint64 `json:"lb"`
		Ub         *uint64 `json:"ub"`
		ExtLb      *uint64 `json:"ext_lb"`
		ExtUb      *uint64 `json:"ext_ub"`
		Extensible *bool   `json:"extensible"`
	} `json:"input"`
	Output string `json:"output"`
}

func (tc *SIZED) constraint() *CountConstraint {
	c := &CountConstraint{}
	if tc.Input.Lb != nil {
		c.Min = *tc.Input.Lb
	}
	if tc.Input.Ub != nil {
		c.Max = Some(*tc.Input.Ub)
	}
	if tc.Input.Extensible != nil && *tc.Input.Extensible {
		var (
			lower uint64
			upper = None[uint64]()
		)
		if tc.Input.ExtLb != nil {
			lower = *tc.Input.ExtLb
		}
		if tc.Input.ExtUb != nil {
			upper = Some(*tc.Input.ExtUb)
		}
		*c = c.Extend(lower, upper)
	}
	return c
}

func (tc *SIZED) name(kind string) string {
	return strings.ToUpper(fmt.Sprintf("%s_VALUE_%s_LB_%s_UB_%s_EXTENSIBLE_%s",
		kind, tc.Input.Value, dref(tc.Input.Lb), dref(tc.Input.Ub), dref(tc.Input.Extensible)))
}

func TestOctetsNonNegativeBinaryIntegerLength(t *testing.T) {
	tests := []struct {
		value    uint64
		expected int
	}{
		{0, 1},
		{1, 1},
		{0x7F, 1},
		{0x80, 1},
		{0xFF, 1},
		{0x100, 2},
		{0x01FF, 2},
		{0xFFFF, 2},
		{0x10000, 3},
		{0xFFFFFF, 3},
		{0x1000000, 4},
		{0xFFFFFFFF, 4},
		{0x100000000, 5},
		{0x8000000000000000, 8},
		{0xFFFFFFFFFFFFFFFF, 8},
	}
	for _, tc := range tests {
		if result := OctetsNonNegativeBinaryIntegerLength(tc.value); result != tc.expected {
			t.Errorf("OctetsNonNegativeBinaryIntegerLength(%#x) = %d, want %d", tc.value, result, tc.expected)
		}
	}
}

func TestBitsNonNegativeBinaryInteger(t *testing.T) {
	tests := []struct {
		value    uint64
		expected int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{7, 3},
		{8, 4},
		{255, 8},
		{256, 9},
		{0xFFFFFFFFFFFFFFFF, 64},
	}
	for _, tc := range tests {
		if result := BitsNonNegativeBinaryInteger(tc.value); result != tc.expected {
			t.Errorf("BitsNonNegativeBinaryInteger(%d) = %d, want %d", tc.value, result, tc.expected)
		}
	}
}

func TestTwosComplementBinaryInteger(t *testing.T) {
	tests := []struct {
		value  int64
		bits   int
		octets int
	}{
		{0, 1, 1},
		{1, 2, 1},
		{7, 4, 1},
		{8, 5, 1},
		{127, 8, 1},
		{128, 9, 2},
		{32767, 16, 2},
		{32768, 17, 3},
		{2147483648, 33, 5},
		{9223372036854775807, 64, 8},
		{-1, 1, 1},
		{-2, 2, 1},
		{-5, 4, 1},
		{-128, 8, 1},
		{-129, 9, 2},
		{-32768, 16, 2},
		{-32769, 17, 3},
		{-9223372036854775808, 64, 8},
	}
	for _, tc := range tests {
		t.Run(strconv.FormatInt(tc.value, 10), func(t *testing.T) {
			if result := BitsTwosComplementBinaryInteger(tc.value); result != tc.bits {
				t.Errorf("BitsTwosComplementBinaryInteger(%d) = %d, want %d", tc.value, result, tc.bits)
			}
			if result := OctetsTwosComplementBinaryInteger(tc.value); result != tc.octets {
				t.Errorf("OctetsTwosComplementBinaryInteger(%d) = %d, want %d", tc.value, result, tc.octets)
			}
		})
	}
}

func TestConstraints(t *testing.T) {
	c := ConstrainedUnsigned(1, 0xFFFFFFFFFFFFFFFF)
	if !c.InRoot(-1) {
		t.Errorf("%s should contain UINT64_MAX", &c)
	}
	if c.InRoot(0) {
		t.Errorf("%s should not contain 0", &c)
	}
	if c.Range() != 0xFFFFFFFFFFFFFFFE {
		t.Errorf("Range() = %d", c.Range())
	}

	s := Constrained(5, -5)
	if err := s.Validate(); KindOf(err) != KindInvalidArgument {
		t.Errorf("Validate() of %s = %v, want invalid_argument", &s, err)
	}
	if got := s.String(); got != "(5..-5)" {
		t.Errorf("String() = %q", got)
	}
	semi := SemiConstrained(-3).Extend(None[int64](), Some[int64](100))
	if got := semi.String(); got != "(-3..MAX, ...)" {
		t.Errorf("String() = %q", got)
	}
	if !semi.InExtension(-1000) || semi.InExtension(101) {
		t.Errorf("extension range of %s", &semi)
	}

	size := Size(3, 1)
	if err := size.Validate(); KindOf(err) != KindInvalidArgument {
		t.Errorf("Validate() of %s = %v, want invalid_argument", &size, err)
	}
	fixed := FixedSize(4)
	if !fixed.Fixed() || !fixed.InRoot(4) || fixed.InRoot(5) {
		t.Errorf("fixed size %s", &fixed)
	}
	open := SizeAtLeast(2)
	if open.Fixed() || !open.InRoot(1<<40) || open.InRoot(1) {
		t.Errorf("size %s", &open)
	}
	if got := Unbounded().Extend(0, Some[uint64](8)); got.String() != "SIZE (0..MAX, ...)" {
		t.Errorf("String() = %q", got.String())
	}

	var unset Opt[uint64]
	if unset.IsSet() || unset.String() != "NIL" {
		t.Errorf("zero Opt should be unset")
	}
	if v, ok := Some[uint64](0).Get(); !ok || v != 0 {
		t.Errorf("Some(0).Get() = %d, %v", v, ok)
	}

	en := NewEnumeration(10, 20, 30)
	if i, ok := en.Index(30); !ok || i != 2 {
		t.Errorf("Index(30) = %d, %v", i, ok)
	}
	if _, ok := en.Index(15); ok {
		t.Errorf("Index(15) should not be found")
	}
}
