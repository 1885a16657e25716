package per

// 11.9 General rules for encoding a length determinant
// |- 11.9.3.3 Where "n" is constrained with "ub" - "lb" below 64K, the length is a
// |  |  constrained whole number over ["lb", "ub"] (11.5); nothing at all when "lb" == "ub".
// |- 11.9.3.5 Otherwise the length is octet-aligned and takes one of three forms:
// |  |  a) 0xxxxxxx                  "n" <= 127
// |  |  b) 10xxxxxx xxxxxxxx         "n" < 16K
// |  |  c) 11xxxxxx                  a fragment of "m" * 16K items, 1 <= "m" <= 4,
// |  |                               followed by another length for the remainder.
// |- 11.9.3.8 The last fragment is followed by a length of the remainder, which may be
// |  |  zero, in form a) or b).

// fragmentQuanta returns how many 16K quanta the next fragment of n items
// carries.
func fragmentQuanta(n uint64) uint64 {
	return min(n/FRAGMENT_SIZE, MAX_FRAGMENT_QUANTA)
}

// writeUnconstrainedLength writes the octet-aligned length of n items. It
// returns the number of items the caller must write next and whether a
// further length follows them.
func (e *Encoder) writeUnconstrainedLength(n uint64) (uint64, bool, error) {
	if err := e.codec.Align(); err != nil {
		return 0, false, err
	}

	if n <= SHORT_LENGTH_MAX {
		if err := e.codec.Write(8, n); err != nil {
			return 0, false, err
		}
		return n, false, nil
	}

	if n <= LONG_LENGTH_MAX {
		if err := e.codec.Write(16, LONG_LENGTH_FLAG|n); err != nil {
			return 0, false, err
		}
		return n, false, nil
	}

	m := fragmentQuanta(n)
	if err := e.codec.Write(8, FRAGMENT_INDICATOR|m); err != nil {
		return 0, false, err
	}
	return m * FRAGMENT_SIZE, true, nil
}

func (d *Decoder) readUnconstrainedLength() (uint64, bool, error) {
	if err := d.codec.Advance(); err != nil {
		return 0, false, truncated(err, "length determinant")
	}
	first, err := d.codec.Read(8)
	if err != nil {
		return 0, false, truncated(err, "length determinant")
	}

	switch {
	case first&0x80 == 0:
		return first, false, nil
	case first&FRAGMENT_INDICATOR == 0x80:
		second, err := d.codec.Read(8)
		if err != nil {
			return 0, false, truncated(err, "length determinant")
		}
		return (first&0x3F)<<8 | second, false, nil
	case first < FRAGMENT_INDICATOR_MIN || first > FRAGMENT_INDICATOR_MAX:
		return 0, false, decodeError(KindMalformedLength, first, "fragment indicator outside 0x%02X..0x%02X", FRAGMENT_INDICATOR_MIN, FRAGMENT_INDICATOR_MAX)
	}
	return (first &^ FRAGMENT_INDICATOR) * FRAGMENT_SIZE, true, nil
}

// writeLength writes the length determinant of n items under c.
func (e *Encoder) writeLength(n uint64, c *CountConstraint) (uint64, bool, error) {
	switch {
	case c.Fixed():
		return n, false, nil
	case c.constrained():
		if err := e.writeConstrainedWhole(n-c.Min, c.Max.value-c.Min); err != nil {
			return 0, false, err
		}
		return n, false, nil
	}
	return e.writeUnconstrainedLength(n)
}

func (d *Decoder) readLength(c *CountConstraint) (uint64, bool, error) {
	switch {
	case c.Fixed():
		return c.Min, false, nil
	case c.constrained():
		offset, err := d.readConstrainedWhole(c.Max.value - c.Min)
		if err != nil {
			return 0, false, err
		}
		return c.Min + offset, false, nil
	}
	return d.readUnconstrainedLength()
}

// EncodeLengthDeterminant writes the length determinant of n items under c.
// It returns the number of items to write next. When fragmented is true,
// the caller writes those items and continues with EncodeFragmentLength for
// the rest, until a call returns fragmented == false.
func (e *Encoder) EncodeLengthDeterminant(n uint64, c *CountConstraint) (chunk uint64, fragmented bool, err error) {
	if c == nil {
		c = &CountConstraint{}
	}
	err = e.field("EncodeLengthDeterminant", func() error {
		if err := c.Validate(); err != nil {
			return err
		}
		if !c.InRoot(n) {
			return encodeError(KindConstraintViolation, n, "length outside %s", c)
		}
		var err error
		chunk, fragmented, err = e.writeLength(n, c)
		return err
	})
	return chunk, fragmented, err
}

// EncodeFragmentLength writes the length determinant following a fragment,
// for the n items still to be written.
func (e *Encoder) EncodeFragmentLength(n uint64) (chunk uint64, fragmented bool, err error) {
	err = e.field("EncodeFragmentLength", func() error {
		var err error
		chunk, fragmented, err = e.writeUnconstrainedLength(n)
		return err
	})
	return chunk, fragmented, err
}

// DecodeLengthDeterminant reads a length determinant under c. When
// fragmented is true, n items of a fragment follow and the caller continues
// with DecodeFragmentLength; the total must then be checked against c by the
// caller.
func (d *Decoder) DecodeLengthDeterminant(c *CountConstraint) (n uint64, fragmented bool, err error) {
	if c == nil {
		c = &CountConstraint{}
	}
	err = d.field("DecodeLengthDeterminant", func() error {
		if err := c.Validate(); err != nil {
			return err
		}
		var err error
		if n, fragmented, err = d.readLength(c); err != nil {
			return err
		}
		if !fragmented && !c.InRoot(n) {
			return decodeError(KindConstraintViolation, n, "length outside %s", c)
		}
		return nil
	})
	return n, fragmented, err
}

// DecodeFragmentLength reads the length determinant following a fragment.
func (d *Decoder) DecodeFragmentLength() (n uint64, fragmented bool, err error) {
	err = d.field("DecodeFragmentLength", func() error {
		var err error
		n, fragmented, err = d.readUnconstrainedLength()
		return err
	})
	return n, fragmented, err
}

// writeFragments writes the length determinant of n items under c followed
// by the items, fragment by fragment. emit writes count items starting at
// offset.
func (e *Encoder) writeFragments(n uint64, c *CountConstraint, emit func(offset, count uint64) error) error {
	chunk, fragmented, err := e.writeLength(n, c)
	if err != nil {
		return err
	}
	offset := uint64(0)
	for {
		if err := emit(offset, chunk); err != nil {
			return err
		}
		offset = offset + chunk
		if !fragmented {
			return nil
		}
		if chunk, fragmented, err = e.writeUnconstrainedLength(n - offset); err != nil {
			return err
		}
	}
}

// readFragments reads a length determinant under c and the items it
// announces, fragment by fragment. take reads count items; whole is set when
// those are all the items of the field. It returns the total count.
func (d *Decoder) readFragments(c *CountConstraint, take func(count uint64, whole bool) error) (uint64, error) {
	n, fragmented, err := d.readLength(c)
	if err != nil {
		return 0, err
	}
	var (
		total uint64
		first = true
	)
	for {
		if err := take(n, first && !fragmented); err != nil {
			return 0, err
		}
		total = total + n
		if !fragmented {
			return total, nil
		}
		first = false
		if n, fragmented, err = d.readUnconstrainedLength(); err != nil {
			return 0, err
		}
	}
}

// 11.6 Encoding of a normally small non-negative whole number
// |- 11.6.1 If "n" <= 63, a single bit set to 0 followed by "n" in a 6-bit bit-field.
// |- 11.6.2 Otherwise a single bit set to 1 followed by "n" as a semi-constrained whole
// |  |  number with "lb" equal to 0 (11.7), preceded by a length determinant.

func (e *Encoder) writeNSNNWN(n uint64) error {
	if n <= NSNNWN_SHORT_MAX {
		return e.codec.Write(NSNNWN_SHORT_BITS, n)
	}
	if err := e.codec.WriteBit(true); err != nil {
		return err
	}
	return e.writeSemiConstrained(n)
}

func (d *Decoder) readNSNNWN() (uint64, error) {
	long, err := d.codec.ReadBit()
	if err != nil {
		return 0, truncated(err, "normally small number")
	}
	if long {
		return d.readSemiConstrained()
	}
	n, err := d.codec.Read(NSNNWN_SHORT_BITS - 1)
	if err != nil {
		return 0, truncated(err, "normally small number")
	}
	return n, nil
}

// EncodeNSNNWN encodes n as a normally small non-negative whole number.
func (e *Encoder) EncodeNSNNWN(n uint64) error {
	return e.field("EncodeNSNNWN", func() error {
		return e.writeNSNNWN(n)
	})
}

// DecodeNSNNWN decodes a normally small non-negative whole number.
func (d *Decoder) DecodeNSNNWN() (uint64, error) {
	var n uint64
	err := d.field("DecodeNSNNWN", func() error {
		var err error
		n, err = d.readNSNNWN()
		return err
	})
	return n, err
}

// EncodeExtensionBitmap writes the presence bitmap of the extension
// additions of a SEQUENCE: its length less one as a normally small number,
// then one bit per addition.
func (e *Encoder) EncodeExtensionBitmap(present []bool) error {
	return e.field("EncodeExtensionBitmap", func() error {
		if len(present) == 0 {
			return encodeError(KindInvalidArgument, nil, "empty extension bitmap")
		}
		if err := e.writeNSNNWN(uint64(len(present) - 1)); err != nil {
			return err
		}
		for _, bit := range present {
			if err := e.codec.WriteBit(bit); err != nil {
				return err
			}
		}
		return nil
	})
}

// DecodeExtensionBitmap reads an extension presence bitmap.
func (d *Decoder) DecodeExtensionBitmap() ([]bool, error) {
	var present []bool
	err := d.field("DecodeExtensionBitmap", func() error {
		n, err := d.readNSNNWN()
		if err != nil {
			return err
		}
		if n >= d.codec.Remaining() {
			return decodeError(KindTruncatedInput, n+1, "extension bitmap longer than the input")
		}
		present = make([]bool, n+1)
		for i := range present {
			if present[i], err = d.codec.ReadBit(); err != nil {
				return truncated(err, "extension bitmap")
			}
		}
		return nil
	})
	return present, err
}
