package per

// 14 Encoding the enumerated type
// |- 14.1 The enumerations in the enumeration root are assigned an enumeration index
// |  |  starting with zero, in the order of the enumeration.
// |- 14.2 If the extension marker is absent in the definition of the enumerated type, then
// |  |  the enumeration index shall be encoded.
// |  |  Its encoding shall be as though it were a value of a constrained integer type for
// |  |  which there is no extension marker present, where the lower bound is 0 and the
// |  |  upper bound is the largest enumeration index associated with the type, completing
// |  |  this procedure.

// EncodeEnumerated encodes the enumerant with underlying code under e.
// A code e does not declare is a ConstraintViolation.
func (e *Encoder) EncodeEnumerated(code int64, en *Enumeration) error {
	return e.field("EncodeEnumerated", func() error {
		if en == nil || en.Count() == 0 {
			return encodeError(KindInvalidArgument, nil, "empty enumeration")
		}
		index, ok := en.Index(code)
		if !ok {
			return encodeError(KindConstraintViolation, code, "not an enumerant")
		}
		return e.writeConstrainedWhole(index, en.Count()-1)
	})
}

// EncodeEnumIndex encodes an enumeration index in [0, count-1].
func (e *Encoder) EncodeEnumIndex(index, count uint64) error {
	return e.field("EncodeEnumIndex", func() error {
		if count == 0 {
			return encodeError(KindInvalidArgument, nil, "empty enumeration")
		}
		if index >= count {
			return encodeError(KindConstraintViolation, index, "enumeration index above %d", count-1)
		}
		return e.writeConstrainedWhole(index, count-1)
	})
}

// DecodeEnumerated decodes an enumeration index and returns the underlying
// code it designates in en.
func (d *Decoder) DecodeEnumerated(en *Enumeration) (int64, error) {
	var code int64
	err := d.field("DecodeEnumerated", func() error {
		if en == nil || en.Count() == 0 {
			return decodeError(KindInvalidArgument, nil, "empty enumeration")
		}
		index, err := d.readEnumIndex(en.Count())
		if err != nil {
			return err
		}
		code = en.Values[index]
		return nil
	})
	return code, err
}

// DecodeEnumIndex decodes an enumeration index in [0, count-1].
func (d *Decoder) DecodeEnumIndex(count uint64) (uint64, error) {
	var index uint64
	err := d.field("DecodeEnumIndex", func() error {
		if count == 0 {
			return decodeError(KindInvalidArgument, nil, "empty enumeration")
		}
		var err error
		index, err = d.readEnumIndex(count)
		return err
	})
	return index, err
}

func (d *Decoder) readEnumIndex(count uint64) (uint64, error) {
	index, err := d.readConstrainedField(count - 1)
	if err != nil {
		return 0, err
	}
	if index >= count {
		return 0, decodeError(KindInvalidEnumIndex, index, "enumeration of %d values", count)
	}
	return index, nil
}
