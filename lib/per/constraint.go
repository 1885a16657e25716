package per

import (
	"fmt"
	"math/bits"
	"slices"
)

// Opt is an optional bound. The zero value is unset, which is distinct from
// a bound of 0.
type Opt[T int64 | uint64] struct {
	value T
	set   bool
}

// Some returns a set bound.
func Some[T int64 | uint64](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// None returns an unset bound.
func None[T int64 | uint64]() Opt[T] {
	return Opt[T]{}
}

// Get returns the bound and whether it is set.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the bound is present.
func (o Opt[T]) IsSet() bool {
	return o.set
}

func (o Opt[T]) String() string {
	if !o.set {
		return "NIL"
	}
	return fmt.Sprintf("%v", o.value)
}

// IntegerConstraint is the PER-visible range of an INTEGER field.
//
// When Signed is false, Lower and Upper (and the extension bounds) carry the
// uint64 bit pattern of the bound, so the full unsigned 64-bit range is
// expressible; use ConstrainedUnsigned and SemiConstrainedUnsigned to build
// them.
type IntegerConstraint struct {
	Lower  Opt[int64]
	Upper  Opt[int64]
	Signed bool

	// Extensible marks a constraint with an extension marker. Values outside
	// [Lower, Upper] but inside [ExtLower, ExtUpper] are encoded after an
	// extension bit set to 1.
	Extensible bool
	ExtLower   Opt[int64]
	ExtUpper   Opt[int64]
}

// Constrained returns a signed constraint with both bounds, (lb..ub).
func Constrained(lb, ub int64) IntegerConstraint {
	return IntegerConstraint{Lower: Some(lb), Upper: Some(ub), Signed: true}
}

// SemiConstrained returns a signed constraint with a lower bound only, (lb..MAX).
func SemiConstrained(lb int64) IntegerConstraint {
	return IntegerConstraint{Lower: Some(lb), Signed: true}
}

// Unconstrained returns a signed constraint with no bounds.
func Unconstrained() IntegerConstraint {
	return IntegerConstraint{Signed: true}
}

// ConstrainedUnsigned returns an unsigned constraint with both bounds.
func ConstrainedUnsigned(lb, ub uint64) IntegerConstraint {
	return IntegerConstraint{Lower: Some(int64(lb)), Upper: Some(int64(ub))}
}

// SemiConstrainedUnsigned returns an unsigned constraint with a lower bound only.
func SemiConstrainedUnsigned(lb uint64) IntegerConstraint {
	return IntegerConstraint{Lower: Some(int64(lb))}
}

// Extend returns a copy of c with an extension marker and the given
// extension range. Unset bounds leave that side of the extension open.
func (c IntegerConstraint) Extend(lower, upper Opt[int64]) IntegerConstraint {
	c.Extensible = true
	c.ExtLower = lower
	c.ExtUpper = upper
	return c
}

// Bounded reports whether both bounds are set.
func (c *IntegerConstraint) Bounded() bool {
	return c.Lower.set && c.Upper.set
}

// Validate checks that the bounds are ordered.
func (c *IntegerConstraint) Validate() error {
	if c.Bounded() && c.less(c.Upper.value, c.Lower.value) {
		return newError("", KindInvalidArgument, "lower bound %s above upper bound %s", c.format(c.Lower.value), c.format(c.Upper.value))
	}
	return nil
}

// less compares two values under the constraint's signedness.
func (c *IntegerConstraint) less(a, b int64) bool {
	if c.Signed {
		return a < b
	}
	return uint64(a) < uint64(b)
}

// within reports whether n lies inside the given bounds.
func (c *IntegerConstraint) within(n int64, lower, upper Opt[int64]) bool {
	if lower.set && c.less(n, lower.value) {
		return false
	}
	if upper.set && c.less(upper.value, n) {
		return false
	}
	return true
}

// InRoot reports whether n satisfies the root constraint.
func (c *IntegerConstraint) InRoot(n int64) bool {
	return c.within(n, c.Lower, c.Upper)
}

// InExtension reports whether n satisfies the extension constraint.
func (c *IntegerConstraint) InExtension(n int64) bool {
	return c.within(n, c.ExtLower, c.ExtUpper)
}

// Range returns upper - lower as an unsigned distance. Only meaningful when
// Bounded.
func (c *IntegerConstraint) Range() uint64 {
	return uint64(c.Upper.value) - uint64(c.Lower.value)
}

// format renders a value under the constraint's signedness.
func (c *IntegerConstraint) format(n int64) string {
	if c.Signed {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d", uint64(n))
}

func (c *IntegerConstraint) String() string {
	var (
		lower = "MIN"
		upper = "MAX"
	)
	if c.Lower.set {
		lower = c.format(c.Lower.value)
	}
	if c.Upper.set {
		upper = c.format(c.Upper.value)
	}
	if c.Extensible {
		return fmt.Sprintf("(%s..%s, ...)", lower, upper)
	}
	return fmt.Sprintf("(%s..%s)", lower, upper)
}

// Enumeration lists the root enumerants of an ENUMERATED field, in
// declaration order. Values are the underlying codes; the wire carries the
// position.
type Enumeration struct {
	Values []int64
}

// NewEnumeration returns an Enumeration over the given codes.
func NewEnumeration(values ...int64) Enumeration {
	return Enumeration{Values: slices.Clone(values)}
}

// Count returns the number of root enumerants.
func (e *Enumeration) Count() uint64 {
	return uint64(len(e.Values))
}

// Index returns the position of code, or false if it is not declared.
func (e *Enumeration) Index(code int64) (uint64, bool) {
	i := slices.Index(e.Values, code)
	if i < 0 {
		return 0, false
	}
	return uint64(i), true
}

// CountConstraint is the SIZE constraint of a string or repeated field.
// An unset Max means unbounded.
type CountConstraint struct {
	Min uint64
	Max Opt[uint64]

	// Extensible marks a SIZE constraint with an extension marker; sizes
	// outside [Min, Max] but inside [ExtMin, ExtMax] are encoded after an
	// extension bit set to 1.
	Extensible bool
	ExtMin     uint64
	ExtMax     Opt[uint64]
}

// Size returns a count constraint (SIZE (lb..ub)).
func Size(lb, ub uint64) CountConstraint {
	return CountConstraint{Min: lb, Max: Some(ub)}
}

// FixedSize returns a count constraint (SIZE (n)).
func FixedSize(n uint64) CountConstraint {
	return Size(n, n)
}

// SizeAtLeast returns a count constraint (SIZE (lb..MAX)).
func SizeAtLeast(lb uint64) CountConstraint {
	return CountConstraint{Min: lb}
}

// Unbounded returns a count constraint with no limit.
func Unbounded() CountConstraint {
	return CountConstraint{}
}

// Extend returns a copy of c with an extension marker and the given
// extension range.
func (c CountConstraint) Extend(lb uint64, ub Opt[uint64]) CountConstraint {
	c.Extensible = true
	c.ExtMin = lb
	c.ExtMax = ub
	return c
}

// Fixed reports whether the count is implied by the constraint.
func (c *CountConstraint) Fixed() bool {
	return c.Max.set && c.Max.value == c.Min
}

// Validate checks that the bounds are ordered.
func (c *CountConstraint) Validate() error {
	if c.Max.set && c.Max.value < c.Min {
		return newError("", KindInvalidArgument, "minimum size %d above maximum size %d", c.Min, c.Max.value)
	}
	return nil
}

// InRoot reports whether n satisfies the root constraint.
func (c *CountConstraint) InRoot(n uint64) bool {
	return n >= c.Min && (!c.Max.set || n <= c.Max.value)
}

// InExtension reports whether n satisfies the extension constraint.
func (c *CountConstraint) InExtension(n uint64) bool {
	return n >= c.ExtMin && (!c.ExtMax.set || n <= c.ExtMax.value)
}

// constrained reports whether the length determinant is a constrained whole
// number over [Min, Max].
func (c *CountConstraint) constrained() bool {
	return c.Max.set && c.Max.value-c.Min < MAX_CONSTRAINED_LENGTH
}

func (c *CountConstraint) String() string {
	upper := "MAX"
	if c.Max.set {
		upper = fmt.Sprintf("%d", c.Max.value)
	}
	if c.Extensible {
		return fmt.Sprintf("SIZE (%d..%s, ...)", c.Min, upper)
	}
	return fmt.Sprintf("SIZE (%d..%s)", c.Min, upper)
}

// BitsNonNegativeBinaryInteger returns the number of bits needed for value,
// at least 1. ITU-T X.691 Section 11.3
func BitsNonNegativeBinaryInteger(value uint64) int {
	if value == 0 {
		return 1
	}
	return bits.Len64(value)
}

// OctetsNonNegativeBinaryIntegerLength returns the minimum number of octets
// holding value, at least 1.
func OctetsNonNegativeBinaryIntegerLength(value uint64) int {
	bits := BitsNonNegativeBinaryInteger(value)
	return (bits + 7) >> 3
}

// BitsTwosComplementBinaryInteger returns the number of bits of the minimal
// 2's-complement form of value, sign bit included. ITU-T X.691 Section 11.4
func BitsTwosComplementBinaryInteger(value int64) int {
	if value == 0 {
		return 1
	}
	if value > 0 {
		return bits.Len64(uint64(value)) + 1
	}
	return bits.Len64(uint64(^value)) + 1
}

// OctetsTwosComplementBinaryInteger returns the minimum number of octets of
// the 2's-complement form of value.
func OctetsTwosComplementBinaryInteger(value int64) int {
	bits := BitsTwosComplementBinaryInteger(value)
	return (bits + 7) >> 3
}
