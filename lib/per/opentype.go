package per

import "github.com/thebagchi/aper/lib/bitbuffer"

// 11.2 Open type fields
// |- 11.2.1 The value is encoded on its own as a complete encoding (11.1, an empty
// |  |  encoding becomes a single zero octet), and those octets are added to the
// |  |  field-list as an unconstrained octet string with a length determinant,
// |  |  fragmenting if needed.

// EncodeOpenType encodes the value written by fn into a separate Encoder and
// adds the resulting octets as an open type field.
func (e *Encoder) EncodeOpenType(fn func(*Encoder) error) error {
	return e.field("EncodeOpenType", func() error {
		inner := NewEncoder()
		if fn != nil {
			if err := fn(inner); err != nil {
				return err
			}
		}
		return e.writeOctetFragments(inner.Message(), &CountConstraint{})
	})
}

// EncodeOpenTypeBytes adds an already complete encoding as an open type
// field. An empty encoding is replaced by a single zero octet.
func (e *Encoder) EncodeOpenTypeBytes(data []byte) error {
	return e.field("EncodeOpenTypeBytes", func() error {
		if len(data) == 0 {
			data = []byte{0x00}
		}
		return e.writeOctetFragments(data, &CountConstraint{})
	})
}

// DecodeOpenType reads an open type field and hands a Decoder over its
// octets to fn. A nil fn skips the field, as done for unknown extensions.
// Whole octets left unread by fn are a malformed length.
func (d *Decoder) DecodeOpenType(fn func(*Decoder) error) error {
	return d.field("DecodeOpenType", func() error {
		value, err := d.readOctetFragments(&CountConstraint{}, false)
		if err != nil {
			return err
		}
		if fn == nil {
			return nil
		}
		inner := NewDecoder(value.Data)
		if err := fn(inner); err != nil {
			return err
		}
		// only the padding of the last octet may be left, or the single zero
		// octet standing for an empty encoding
		empty := inner.NumRead() == 0 && len(value.Data) == 1 && value.Data[0] == 0x00
		if left := inner.Remaining(); left >= bitbuffer.BITS_PER_BYTE && !empty {
			return decodeError(KindMalformedLength, len(value.Data), "open type has %d unused octets", left/bitbuffer.BITS_PER_BYTE)
		}
		return nil
	})
}

// DecodeOpenTypeBytes reads an open type field and returns its octets,
// borrowed from the decoder input when unfragmented.
func (d *Decoder) DecodeOpenTypeBytes() (OctetString, error) {
	var value OctetString
	err := d.field("DecodeOpenTypeBytes", func() error {
		var err error
		value, err = d.readOctetFragments(&CountConstraint{}, false)
		return err
	})
	return value, err
}
