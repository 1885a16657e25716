package per

import (
	"github.com/thebagchi/aper/lib/bitbuffer"
)

// Ownership tells whether decoded bytes may outlive the decoder input.
type Ownership int

const (
	// Owned data was copied into fresh storage.
	Owned Ownership = iota
	// Borrowed data aliases the buffer given to NewDecoder and is only valid
	// while that buffer is neither freed nor modified.
	Borrowed
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	}
	return "unknown"
}

// OctetString is a decoded OCTET STRING.
type OctetString struct {
	Data      []byte
	Ownership Ownership
}

// 17 Encoding the octetstring type
// |- 17.3 If the type is extensible for PER encodings, a single bit is added: 1 if the
// |  |  length is not within the extension root, in which case the length is encoded as a
// |  |  semi-constrained whole number (17.8); 0 otherwise.
// |- 17.5 "ub" equals zero: no addition to the field-list.
// |- 17.6 "ub" equals "lb" and at most two octets: a bit-field with no length determinant,
// |  |  not octet-aligned.
// |- 17.7 "ub" equals "lb" and less than 64K: octet-aligned, no length determinant.
// |- 17.8 Otherwise octet-aligned and preceded by a length determinant (11.9), with
// |  |  fragmentation after 16K, 32K, 48K or 64K octets.

// EncodeOctetString encodes value under the size constraint c. A nil
// constraint is unbounded.
func (e *Encoder) EncodeOctetString(value []byte, c *CountConstraint) error {
	if c == nil {
		c = &CountConstraint{}
	}
	return e.field("EncodeOctetString", func() error {
		return e.encodeOctetString(value, c)
	})
}

func (e *Encoder) encodeOctetString(value []byte, c *CountConstraint) error {
	if err := c.Validate(); err != nil {
		return err
	}
	n := uint64(len(value))
	root, err := e.writeSizeExtension(n, c)
	if err != nil {
		return err
	}
	if !root {
		return e.writeOctetFragments(value, &CountConstraint{})
	}

	if c.Fixed() {
		switch {
		case n == 0:
			return nil
		case n <= MAX_FIXED_OCTETSTRING:
			return e.codec.WriteBytes(value)
		case n < MAX_CONSTRAINED_LENGTH:
			return e.codec.WriteBytesAligned(value)
		}
		return e.writeOctetFragments(value, &CountConstraint{Min: c.Min})
	}
	return e.writeOctetFragments(value, c)
}

func (e *Encoder) writeOctetFragments(value []byte, c *CountConstraint) error {
	return e.writeFragments(uint64(len(value)), c, func(offset, count uint64) error {
		if count == 0 {
			return nil
		}
		return e.codec.WriteBytesAligned(value[offset : offset+count])
	})
}

// DecodeOctetString decodes an OCTET STRING under the size constraint c.
// With copyData set, or when the payload is not octet-aligned or is fragmented,
// the result is Owned. Otherwise it is Borrowed from the decoder input.
func (d *Decoder) DecodeOctetString(c *CountConstraint, copyData bool) (OctetString, error) {
	if c == nil {
		c = &CountConstraint{}
	}
	var value OctetString
	err := d.field("DecodeOctetString", func() error {
		var err error
		value, err = d.decodeOctetString(c, copyData)
		return err
	})
	return value, err
}

func (d *Decoder) decodeOctetString(c *CountConstraint, copyData bool) (OctetString, error) {
	if err := c.Validate(); err != nil {
		return OctetString{}, err
	}
	root, err := d.readSizeExtension(c)
	if err != nil {
		return OctetString{}, err
	}
	if !root {
		value, err := d.readOctetFragments(&CountConstraint{}, copyData)
		if err != nil {
			return OctetString{}, err
		}
		if n := uint64(len(value.Data)); !c.InExtension(n) {
			return OctetString{}, decodeError(KindConstraintViolation, n, "length outside extension of %s", c)
		}
		return value, nil
	}

	if c.Fixed() {
		n := c.Min
		switch {
		case n == 0:
			return OctetString{Data: []byte{}, Ownership: Owned}, nil
		case n <= MAX_FIXED_OCTETSTRING:
			data, err := d.codec.ReadBytes(int(n))
			if err != nil {
				return OctetString{}, truncated(err, "octet string")
			}
			return OctetString{Data: data, Ownership: Owned}, nil
		case n < MAX_CONSTRAINED_LENGTH:
			if err := d.codec.Advance(); err != nil {
				return OctetString{}, truncated(err, "octet string")
			}
			return d.readOctets(n, copyData)
		}
	}

	lc := c
	if c.Fixed() {
		lc = &CountConstraint{Min: c.Min}
	}
	value, err := d.readOctetFragments(lc, copyData)
	if err != nil {
		return OctetString{}, err
	}
	if n := uint64(len(value.Data)); !c.InRoot(n) {
		return OctetString{}, decodeError(KindConstraintViolation, n, "length outside %s", c)
	}
	return value, nil
}

func (d *Decoder) readOctetFragments(c *CountConstraint, copyData bool) (OctetString, error) {
	value := OctetString{Ownership: Owned}
	_, err := d.readFragments(c, func(count uint64, whole bool) error {
		if count == 0 {
			return nil
		}
		if err := d.codec.Advance(); err != nil {
			return truncated(err, "octet string")
		}
		chunk, err := d.readOctets(count, copyData || !whole)
		if err != nil {
			return err
		}
		if whole {
			value = chunk
		} else {
			value.Data = append(value.Data, chunk.Data...)
		}
		return nil
	})
	if err != nil {
		return OctetString{}, err
	}
	if value.Data == nil {
		value.Data = []byte{}
	}
	return value, nil
}

// readOctets reads n aligned octets, borrowing them unless copyData is set.
func (d *Decoder) readOctets(n uint64, copyData bool) (OctetString, error) {
	if n > d.codec.Remaining()/bitbuffer.BITS_PER_BYTE {
		return OctetString{}, decodeError(KindTruncatedInput, n, "octet string longer than the input")
	}
	if copyData {
		data, err := d.codec.ReadBytes(int(n))
		if err != nil {
			return OctetString{}, truncated(err, "octet string")
		}
		return OctetString{Data: data, Ownership: Owned}, nil
	}
	data, err := d.codec.View(n * bitbuffer.BITS_PER_BYTE)
	if err != nil {
		return OctetString{}, truncated(err, "octet string")
	}
	return OctetString{Data: data, Ownership: Borrowed}, nil
}

// writeSizeExtension writes the extension bit of an extensible size
// constraint and reports whether n is encoded as a root size.
func (e *Encoder) writeSizeExtension(n uint64, c *CountConstraint) (bool, error) {
	if !c.Extensible {
		if !c.InRoot(n) {
			return false, encodeError(KindConstraintViolation, n, "length outside %s", c)
		}
		return true, nil
	}
	switch {
	case c.InRoot(n):
		return true, e.codec.WriteBit(false)
	case c.InExtension(n):
		return false, e.codec.WriteBit(true)
	}
	return false, encodeError(KindConstraintViolation, n, "length outside %s and its extension", c)
}

func (d *Decoder) readSizeExtension(c *CountConstraint) (bool, error) {
	if !c.Extensible {
		return true, nil
	}
	extended, err := d.codec.ReadBit()
	if err != nil {
		return false, truncated(err, "size extension bit")
	}
	return !extended, nil
}
