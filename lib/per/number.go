package per

import (
	"math"
	"math/bits"
)

// 11.5 Encoding of a constrained whole number
// |- 11.5.7.1 (The bit-field case.) range <= 255: minimum bit-field, not aligned.
// |- 11.5.7.2 (The one-octet case.) range == 256: one octet, octet-aligned.
// |- 11.5.7.3 (The two-octet case.) 257 <= range <= 64K: two octets, octet-aligned.
// |- 11.5.7.4 (The indefinite length case.) Otherwise the minimum number of
// |  |  octets, octet-aligned, preceded by the octet count as a constrained
// |  |  whole number over [1, octets needed for the range] (13.2.6 a).
//
// d is the offset from the lower bound and dmax the offset of the upper
// bound (range - 1). The width depends only on dmax; no sign bit is reserved.

func (e *Encoder) writeConstrainedWhole(d, dmax uint64) error {
	switch {
	case dmax == 0:
		return nil
	case dmax == ONE_OCTET_RANGE:
		if err := e.codec.Align(); err != nil {
			return err
		}
		return e.codec.Write(8, d)
	case dmax < ONE_OCTET_RANGE:
		return e.codec.Write(uint8(bits.Len64(dmax)), d)
	case bits.Len64(dmax) <= TWO_OCTET_BITS:
		if err := e.codec.Align(); err != nil {
			return err
		}
		return e.codec.Write(TWO_OCTET_BITS, d)
	}

	var (
		olen = OctetsNonNegativeBinaryIntegerLength(d)
		omax = OctetsNonNegativeBinaryIntegerLength(dmax)
	)
	if err := e.codec.Write(uint8(bits.Len64(uint64(omax-1))), uint64(olen-1)); err != nil {
		return err
	}
	if err := e.codec.Align(); err != nil {
		return err
	}
	return e.codec.Write(uint8(olen*8), d)
}

func (d *Decoder) readConstrainedWhole(dmax uint64) (uint64, error) {
	value, err := d.readConstrainedField(dmax)
	if err != nil {
		return 0, err
	}
	if value > dmax {
		return 0, decodeError(KindConstraintViolation, value, "constrained whole number above range %d", dmax)
	}
	return value, nil
}

// readConstrainedField reads the field sized for dmax without checking the
// value against it.
func (d *Decoder) readConstrainedField(dmax uint64) (uint64, error) {
	var (
		value uint64
		err   error
	)
	switch {
	case dmax == 0:
		return 0, nil
	case dmax == ONE_OCTET_RANGE:
		if err = d.codec.Advance(); err == nil {
			value, err = d.codec.Read(8)
		}
	case dmax < ONE_OCTET_RANGE:
		value, err = d.codec.Read(uint8(bits.Len64(dmax)))
	case bits.Len64(dmax) <= TWO_OCTET_BITS:
		if err = d.codec.Advance(); err == nil {
			value, err = d.codec.Read(TWO_OCTET_BITS)
		}
	default:
		omax := OctetsNonNegativeBinaryIntegerLength(dmax)
		var olen uint64
		olen, err = d.codec.Read(uint8(bits.Len64(uint64(omax - 1))))
		if err != nil {
			break
		}
		olen = olen + 1
		if olen > uint64(omax) {
			return 0, decodeError(KindConstraintViolation, olen, "constrained whole number needs at most %d octets", omax)
		}
		if err = d.codec.Advance(); err == nil {
			value, err = d.codec.Read(uint8(olen * 8))
		}
	}
	if err != nil {
		return 0, truncated(err, "constrained whole number")
	}
	return value, nil
}

// 11.7 Encoding of a semi-constrained whole number
// |- 11.7.4 The value ("n" - "lb") shall be encoded as a non-negative-binary-integer in
// |  |  the minimum number of octets, octet-aligned, preceded by an unconstrained length.

func (e *Encoder) writeSemiConstrained(d uint64) error {
	olen := OctetsNonNegativeBinaryIntegerLength(d)
	if _, _, err := e.writeUnconstrainedLength(uint64(olen)); err != nil {
		return err
	}
	return e.codec.Write(uint8(olen*8), d)
}

func (d *Decoder) readSemiConstrained() (uint64, error) {
	olen, err := d.readNumberLength()
	if err != nil {
		return 0, err
	}
	if olen > MAX_NUMBER_OCTETS {
		return 0, decodeError(KindOverflow, olen, "semi-constrained whole number of %d octets", olen)
	}
	value, err := d.codec.Read(uint8(olen * 8))
	if err != nil {
		return 0, truncated(err, "semi-constrained whole number")
	}
	return value, nil
}

// 11.8 Encoding of an unconstrained whole number
// |- 11.8.3 The value "n" shall be encoded as a 2's-complement-binary-integer in the
// |  |  minimum number of octets, octet-aligned, preceded by an unconstrained length.
//
// Unsigned values in [2^63, 2^64) need a ninth, leading zero octet.

func (e *Encoder) writeUnconstrained(v int64, signed bool) error {
	if !signed && v < 0 {
		if _, _, err := e.writeUnconstrainedLength(UNSIGNED_64_OCTETS); err != nil {
			return err
		}
		if err := e.codec.Write(8, 0); err != nil {
			return err
		}
		return e.codec.Write(64, uint64(v))
	}

	olen := OctetsTwosComplementBinaryInteger(v)
	if _, _, err := e.writeUnconstrainedLength(uint64(olen)); err != nil {
		return err
	}
	return e.codec.Write(uint8(olen*8), uint64(v))
}

func (d *Decoder) readUnconstrained(signed bool) (int64, error) {
	olen, err := d.readNumberLength()
	if err != nil {
		return 0, err
	}

	switch {
	case olen > UNSIGNED_64_OCTETS, olen == UNSIGNED_64_OCTETS && signed:
		return 0, decodeError(KindOverflow, olen, "unconstrained whole number of %d octets", olen)
	case olen == UNSIGNED_64_OCTETS:
		lead, err := d.codec.Read(8)
		if err != nil {
			return 0, truncated(err, "unconstrained whole number")
		}
		if lead != 0 {
			return 0, decodeError(KindOverflow, lead, "unsigned whole number above 64 bits")
		}
		value, err := d.codec.Read(64)
		if err != nil {
			return 0, truncated(err, "unconstrained whole number")
		}
		return int64(value), nil
	}

	raw, err := d.codec.Read(uint8(olen * 8))
	if err != nil {
		return 0, truncated(err, "unconstrained whole number")
	}
	shift := 64 - olen*8
	value := int64(raw<<shift) >> shift
	if !signed && value < 0 {
		return 0, decodeError(KindConstraintViolation, value, "negative value for an unsigned number")
	}
	return value, nil
}

// readNumberLength reads the octet count preceding a semi-constrained or
// unconstrained whole number.
func (d *Decoder) readNumberLength() (uint64, error) {
	olen, fragmented, err := d.readUnconstrainedLength()
	if err != nil {
		return 0, err
	}
	if fragmented || olen == 0 {
		return 0, decodeError(KindMalformedLength, olen, "invalid octet count for a whole number")
	}
	return olen, nil
}

// 13 Encoding the integer type
// |- 13.1 If an extension marker is present in the constraint specification of the integer type,
// |  |  then a single bit shall be added to the field-list in a bit-field of length one.
// |  |  The bit shall be set to 1 if the value to be encoded is not within the range of the
// |  |  extension root, and zero otherwise.
// |  |  In the former case, the value shall be added to the field-list as an unconstrained
// |  |  integer value, completing this procedure.
// |- 13.2.1 A single value constraint adds nothing to the field-list.
// |- 13.2.2 Both bounds: constrained whole number (11.5).
// |- 13.2.3 Lower bound only: semi-constrained whole number (11.7).
// |- 13.2.4 Otherwise: unconstrained whole number (11.8).

// EncodeNumber encodes n under constraint c. A nil constraint is
// unconstrained and signed. When c is unsigned, n must not be negative; use
// EncodeUnsigned for values above math.MaxInt64.
func (e *Encoder) EncodeNumber(n int64, c *IntegerConstraint) error {
	if c == nil {
		c = &IntegerConstraint{Signed: true}
	}
	return e.field("EncodeNumber", func() error {
		if !c.Signed && n < 0 {
			return encodeError(KindConstraintViolation, n, "negative value for an unsigned number")
		}
		return e.encodeNumber(n, c)
	})
}

// EncodeUnsigned encodes n under constraint c. A nil constraint is
// unconstrained and unsigned.
func (e *Encoder) EncodeUnsigned(n uint64, c *IntegerConstraint) error {
	if c == nil {
		c = &IntegerConstraint{}
	}
	return e.field("EncodeUnsigned", func() error {
		if c.Signed && n > math.MaxInt64 {
			return encodeError(KindOverflow, n, "value above the signed range")
		}
		return e.encodeNumber(int64(n), c)
	})
}

func (e *Encoder) encodeNumber(v int64, c *IntegerConstraint) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Extensible {
		switch {
		case c.InRoot(v):
			if err := e.codec.WriteBit(false); err != nil {
				return err
			}
		case c.InExtension(v):
			if err := e.codec.WriteBit(true); err != nil {
				return err
			}
			return e.writeUnconstrained(v, c.Signed)
		default:
			return encodeError(KindConstraintViolation, c.value(v), "outside %s and its extension", c)
		}
	} else if !c.InRoot(v) {
		return encodeError(KindConstraintViolation, c.value(v), "outside %s", c)
	}

	switch {
	case c.Bounded():
		return e.writeConstrainedWhole(uint64(v)-uint64(c.Lower.value), c.Range())
	case c.Lower.set:
		return e.writeSemiConstrained(uint64(v) - uint64(c.Lower.value))
	default:
		return e.writeUnconstrained(v, c.Signed)
	}
}

// DecodeNumber decodes a number under constraint c. A nil constraint is
// unconstrained and signed.
func (d *Decoder) DecodeNumber(c *IntegerConstraint) (int64, error) {
	if c == nil {
		c = &IntegerConstraint{Signed: true}
	}
	var value int64
	err := d.field("DecodeNumber", func() error {
		v, err := d.decodeNumber(c)
		if err != nil {
			return err
		}
		if !c.Signed && v < 0 {
			return decodeError(KindOverflow, uint64(v), "unsigned value above math.MaxInt64")
		}
		value = v
		return nil
	})
	return value, err
}

// DecodeUnsigned decodes an unsigned number under constraint c. A nil
// constraint is unconstrained and unsigned.
func (d *Decoder) DecodeUnsigned(c *IntegerConstraint) (uint64, error) {
	if c == nil {
		c = &IntegerConstraint{}
	}
	var value uint64
	err := d.field("DecodeUnsigned", func() error {
		v, err := d.decodeNumber(c)
		if err != nil {
			return err
		}
		if c.Signed && v < 0 {
			return decodeError(KindConstraintViolation, v, "negative value for an unsigned number")
		}
		value = uint64(v)
		return nil
	})
	return value, err
}

func (d *Decoder) decodeNumber(c *IntegerConstraint) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	if c.Extensible {
		extended, err := d.codec.ReadBit()
		if err != nil {
			return 0, truncated(err, "integer extension bit")
		}
		if extended {
			v, err := d.readUnconstrained(c.Signed)
			if err != nil {
				return 0, err
			}
			if !c.InExtension(v) {
				return 0, decodeError(KindConstraintViolation, c.value(v), "outside extension of %s", c)
			}
			return v, nil
		}
	}

	var v int64
	switch {
	case c.Bounded():
		offset, err := d.readConstrainedWhole(c.Range())
		if err != nil {
			return 0, err
		}
		v = int64(uint64(c.Lower.value) + offset)
	case c.Lower.set:
		offset, err := d.readSemiConstrained()
		if err != nil {
			return 0, err
		}
		if offset > c.maxOffset() {
			return 0, decodeError(KindOverflow, offset, "offset from lower bound %s overflows 64 bits", c.format(c.Lower.value))
		}
		v = int64(uint64(c.Lower.value) + offset)
	default:
		var err error
		if v, err = d.readUnconstrained(c.Signed); err != nil {
			return 0, err
		}
	}

	if !c.InRoot(v) {
		return 0, decodeError(KindConstraintViolation, c.value(v), "outside %s", c)
	}
	return v, nil
}

// maxOffset returns the largest offset from the lower bound that stays
// representable.
func (c *IntegerConstraint) maxOffset() uint64 {
	if c.Signed {
		return uint64(math.MaxInt64) - uint64(c.Lower.value)
	}
	return math.MaxUint64 - uint64(c.Lower.value)
}

// value returns v typed by the constraint's signedness, for error reports.
func (c *IntegerConstraint) value(v int64) any {
	if c.Signed {
		return v
	}
	return uint64(v)
}

// 12 Encoding the boolean type
// |- 12.1 The bit shall be set to 1 for TRUE and 0 for FALSE.
// |- 12.2 The bit-field shall be appended to the field-list with no length determinant.

// EncodeBoolean encodes a BOOLEAN as a single bit.
func (e *Encoder) EncodeBoolean(value bool) error {
	return e.field("EncodeBoolean", func() error {
		return e.codec.WriteBit(value)
	})
}

// DecodeBoolean decodes a single-bit BOOLEAN.
func (d *Decoder) DecodeBoolean() (bool, error) {
	var value bool
	err := d.field("DecodeBoolean", func() error {
		bit, err := d.codec.ReadBit()
		if err != nil {
			return truncated(err, "boolean")
		}
		value = bit
		return nil
	})
	return value, err
}
