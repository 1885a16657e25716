package per

import (
	"encoding/asn1"

	"github.com/thebagchi/aper/lib/bitbuffer"
)

// BitString is a decoded BIT STRING. Bits of the last byte past BitLength are
// zero.
type BitString struct {
	asn1.BitString
	Ownership Ownership
}

// 16 Encoding the bitstring type
// |- 16.6 If the type is extensible for PER encodings, a single bit is added: 1 if the
// |  |  length is not within the extension root, in which case the length is encoded as a
// |  |  semi-constrained whole number (16.11); 0 otherwise.
// |- 16.8 "ub" equals zero: no addition to the field-list.
// |- 16.9 "ub" equals "lb" and at most 16 bits: a bit-field with no length determinant,
// |  |  not octet-aligned.
// |- 16.10 "ub" equals "lb" and less than 64K: octet-aligned, no length determinant.
// |- 16.11 Otherwise octet-aligned and preceded by a length determinant in bits (11.9),
// |  |  with fragmentation after 16K, 32K, 48K or 64K bits.

// EncodeBitString encodes value under the size constraint c, counted in
// bits. A nil constraint is unbounded.
func (e *Encoder) EncodeBitString(value asn1.BitString, c *CountConstraint) error {
	if c == nil {
		c = &CountConstraint{}
	}
	return e.field("EncodeBitString", func() error {
		return e.encodeBitString(value, c)
	})
}

func (e *Encoder) encodeBitString(value asn1.BitString, c *CountConstraint) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if value.BitLength < 0 || len(value.Bytes)*bitbuffer.BITS_PER_BYTE < value.BitLength {
		return encodeError(KindInvalidArgument, value.BitLength, "bit length does not match %d bytes", len(value.Bytes))
	}
	n := uint64(value.BitLength)
	root, err := e.writeSizeExtension(n, c)
	if err != nil {
		return err
	}
	if !root {
		return e.writeBitFragments(value, &CountConstraint{})
	}

	if c.Fixed() {
		switch {
		case n == 0:
			return nil
		case n <= MAX_FIXED_BITSTRING:
			return e.codec.WriteBits(value.Bytes, n)
		case n < MAX_CONSTRAINED_LENGTH:
			if err := e.codec.Align(); err != nil {
				return err
			}
			return e.codec.WriteBits(value.Bytes, n)
		}
		return e.writeBitFragments(value, &CountConstraint{Min: c.Min})
	}
	return e.writeBitFragments(value, c)
}

// writeBitFragments writes the bits of value behind their length. Every
// fragment but the last is a whole number of octets, so fragments start on
// a byte of value.Bytes.
func (e *Encoder) writeBitFragments(value asn1.BitString, c *CountConstraint) error {
	return e.writeFragments(uint64(value.BitLength), c, func(offset, count uint64) error {
		if count == 0 {
			return nil
		}
		if err := e.codec.Align(); err != nil {
			return err
		}
		return e.codec.WriteBits(value.Bytes[offset/bitbuffer.BITS_PER_BYTE:], count)
	})
}

// DecodeBitString decodes a BIT STRING under the size constraint c.
// The result is Borrowed only when copyData is false and the payload is
// octet-aligned, unfragmented and a whole number of octets; otherwise it is
// Owned.
func (d *Decoder) DecodeBitString(c *CountConstraint, copyData bool) (BitString, error) {
	if c == nil {
		c = &CountConstraint{}
	}
	var value BitString
	err := d.field("DecodeBitString", func() error {
		var err error
		value, err = d.decodeBitString(c, copyData)
		return err
	})
	return value, err
}

func (d *Decoder) decodeBitString(c *CountConstraint, copyData bool) (BitString, error) {
	if err := c.Validate(); err != nil {
		return BitString{}, err
	}
	root, err := d.readSizeExtension(c)
	if err != nil {
		return BitString{}, err
	}
	if !root {
		value, err := d.readBitFragments(&CountConstraint{}, copyData)
		if err != nil {
			return BitString{}, err
		}
		if n := uint64(value.BitLength); !c.InExtension(n) {
			return BitString{}, decodeError(KindConstraintViolation, n, "length outside extension of %s", c)
		}
		return value, nil
	}

	if c.Fixed() {
		n := c.Min
		switch {
		case n == 0:
			return BitString{BitString: asn1.BitString{Bytes: []byte{}}, Ownership: Owned}, nil
		case n <= MAX_FIXED_BITSTRING:
			data, err := d.codec.ReadBits(n)
			if err != nil {
				return BitString{}, truncated(err, "bit string")
			}
			return BitString{BitString: asn1.BitString{Bytes: data, BitLength: int(n)}, Ownership: Owned}, nil
		case n < MAX_CONSTRAINED_LENGTH:
			if err := d.codec.Advance(); err != nil {
				return BitString{}, truncated(err, "bit string")
			}
			return d.readBits(n, copyData)
		}
	}

	lc := c
	if c.Fixed() {
		lc = &CountConstraint{Min: c.Min}
	}
	value, err := d.readBitFragments(lc, copyData)
	if err != nil {
		return BitString{}, err
	}
	if n := uint64(value.BitLength); !c.InRoot(n) {
		return BitString{}, decodeError(KindConstraintViolation, n, "length outside %s", c)
	}
	return value, nil
}

func (d *Decoder) readBitFragments(c *CountConstraint, copyData bool) (BitString, error) {
	value := BitString{Ownership: Owned}
	total, err := d.readFragments(c, func(count uint64, whole bool) error {
		if count == 0 {
			return nil
		}
		if err := d.codec.Advance(); err != nil {
			return truncated(err, "bit string")
		}
		chunk, err := d.readBits(count, copyData || !whole)
		if err != nil {
			return err
		}
		if whole {
			value = chunk
		} else {
			value.Bytes = append(value.Bytes, chunk.Bytes...)
		}
		return nil
	})
	if err != nil {
		return BitString{}, err
	}
	if value.Bytes == nil {
		value.Bytes = []byte{}
	}
	value.BitLength = int(total)
	return value, nil
}

// readBits reads n bits from an aligned cursor. Only whole octets are
// borrowed; a partial last octet would carry bits of the next field.
func (d *Decoder) readBits(n uint64, copyData bool) (BitString, error) {
	if n > d.codec.Remaining() {
		return BitString{}, decodeError(KindTruncatedInput, n, "bit string longer than the input")
	}
	if copyData || n%bitbuffer.BITS_PER_BYTE != 0 {
		data, err := d.codec.ReadBits(n)
		if err != nil {
			return BitString{}, truncated(err, "bit string")
		}
		return BitString{BitString: asn1.BitString{Bytes: data, BitLength: int(n)}, Ownership: Owned}, nil
	}
	data, err := d.codec.View(n)
	if err != nil {
		return BitString{}, truncated(err, "bit string")
	}
	return BitString{BitString: asn1.BitString{Bytes: data, BitLength: int(n)}, Ownership: Borrowed}, nil
}
