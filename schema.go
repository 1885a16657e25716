// Package aper describes a message as an ordered list of PER fields loaded
// from a TOML file, and encodes or decodes it with the lib/per codec.
package aper

import (
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/thebagchi/aper/lib/per"
)

// FieldType names the codec used for a field.
type FieldType string

const (
	TypeBoolean     FieldType = "boolean"
	TypeInteger     FieldType = "integer"
	TypeEnumerated  FieldType = "enumerated"
	TypeBitString   FieldType = "bitstring"
	TypeOctetString FieldType = "octetstring"
)

var ErrInvalidSchema = errors.New("aper: invalid schema")

// Field is one [[field]] table of a schema file. Integer fields use Lower,
// Upper and Unsigned; string fields use Min and Max, counted in bits for bit
// strings and octets for octet strings. Unset bounds are open.
type Field struct {
	Name       string    `toml:"name"`
	Type       FieldType `toml:"type"`
	Lower      *int64    `toml:"lower"`
	Upper      *int64    `toml:"upper"`
	Unsigned   bool      `toml:"unsigned"`
	Values     []int64   `toml:"values"`
	Min        *uint64   `toml:"min"`
	Max        *uint64   `toml:"max"`
	Extensible bool      `toml:"extensible"`
	ExtLower   *int64    `toml:"ext_lower"`
	ExtUpper   *int64    `toml:"ext_upper"`
	ExtMin     *uint64   `toml:"ext_min"`
	ExtMax     *uint64   `toml:"ext_max"`

	number      per.IntegerConstraint
	size        per.CountConstraint
	enumeration per.Enumeration
}

// Schema is an ordered list of mandatory fields.
type Schema struct {
	Name   string  `toml:"name"`
	Fields []Field `toml:"field"`
}

// Value is one decoded field.
type Value struct {
	Name  string
	Value any
}

// Parse loads a schema file.
func Parse(filename string) (*Schema, error) {
	var raw Schema
	meta, err := toml.DecodeFile(filename, &raw)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", filename, err)
	}
	if !meta.IsDefined("field") {
		return nil, fmt.Errorf("load schema %s: %w: no [[field]] tables", filename, ErrInvalidSchema)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load schema %s: %w: unknown key %s", filename, ErrInvalidSchema, undecoded[0])
	}
	schema, err := NewSchema(raw.Name, raw.Fields...)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", filename, err)
	}
	per.Logger().Debug("aper: schema loaded",
		zap.String("file", filename),
		zap.String("name", schema.Name),
		zap.Int("fields", len(schema.Fields)),
	)
	return schema, nil
}

// NewSchema checks the fields and builds their constraints.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	schema := &Schema{
		Name:   name,
		Fields: make([]Field, len(fields)),
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field %d has no name", ErrInvalidSchema, i)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name)
		}
		seen[f.Name] = true
		if err := f.compile(); err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrInvalidSchema, f.Name, err)
		}
		schema.Fields[i] = f
	}
	return schema, nil
}

func (f *Field) compile() error {
	switch f.Type {
	case TypeBoolean:
		return nil
	case TypeInteger:
		return f.compileNumber()
	case TypeEnumerated:
		if len(f.Values) == 0 {
			return errors.New("enumerated needs values")
		}
		f.enumeration = per.NewEnumeration(f.Values...)
		return nil
	case TypeBitString, TypeOctetString:
		f.size = per.CountConstraint{}
		if f.Min != nil {
			f.size.Min = *f.Min
		}
		if f.Max != nil {
			f.size.Max = per.Some(*f.Max)
		}
		if f.Extensible {
			var lb uint64
			ub := per.None[uint64]()
			if f.ExtMin != nil {
				lb = *f.ExtMin
			}
			if f.ExtMax != nil {
				ub = per.Some(*f.ExtMax)
			}
			f.size = f.size.Extend(lb, ub)
		}
		return f.size.Validate()
	}
	return fmt.Errorf("unknown type %q", f.Type)
}

func (f *Field) compileNumber() error {
	bound := func(v *int64) (per.Opt[int64], error) {
		if v == nil {
			return per.None[int64](), nil
		}
		if f.Unsigned && *v < 0 {
			return per.Opt[int64]{}, fmt.Errorf("negative bound %d for an unsigned integer", *v)
		}
		return per.Some(*v), nil
	}
	var err error
	f.number = per.IntegerConstraint{Signed: !f.Unsigned}
	if f.number.Lower, err = bound(f.Lower); err != nil {
		return err
	}
	if f.number.Upper, err = bound(f.Upper); err != nil {
		return err
	}
	if f.Extensible {
		lower, err := bound(f.ExtLower)
		if err != nil {
			return err
		}
		upper, err := bound(f.ExtUpper)
		if err != nil {
			return err
		}
		f.number = f.number.Extend(lower, upper)
	}
	return f.number.Validate()
}

// Encode writes values, keyed by field name, in schema order and returns the
// complete message.
func (s *Schema) Encode(values map[string]any) ([]byte, error) {
	for name := range values {
		if s.field(name) == nil {
			return nil, fmt.Errorf("encode %s: no field %q", s.Name, name)
		}
	}
	encoder := per.NewEncoder()
	for i := range s.Fields {
		f := &s.Fields[i]
		v, ok := values[f.Name]
		if !ok {
			return nil, fmt.Errorf("encode %s: missing field %q", s.Name, f.Name)
		}
		if err := f.encode(encoder, v); err != nil {
			return nil, fmt.Errorf("encode %s: field %q: %w", s.Name, f.Name, err)
		}
	}
	return encoder.Message(), nil
}

// Decode reads the fields of a message in schema order.
func (s *Schema) Decode(data []byte) ([]Value, error) {
	decoder := per.NewDecoder(data)
	values := make([]Value, 0, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		v, err := f.decode(decoder)
		if err != nil {
			return nil, fmt.Errorf("decode %s: field %q: %w", s.Name, f.Name, err)
		}
		values = append(values, Value{Name: f.Name, Value: v})
	}
	return values, nil
}

func (s *Schema) field(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

func (f *Field) encode(e *per.Encoder, v any) error {
	switch f.Type {
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected a boolean, got %T", v)
		}
		return e.EncodeBoolean(b)
	case TypeInteger:
		if f.Unsigned {
			n, err := unsignedOf(v)
			if err != nil {
				return err
			}
			return e.EncodeUnsigned(n, &f.number)
		}
		n, err := signedOf(v)
		if err != nil {
			return err
		}
		return e.EncodeNumber(n, &f.number)
	case TypeEnumerated:
		code, err := signedOf(v)
		if err != nil {
			return err
		}
		return e.EncodeEnumerated(code, &f.enumeration)
	case TypeOctetString:
		data, err := octetsOf(v)
		if err != nil {
			return err
		}
		return e.EncodeOctetString(data, &f.size)
	case TypeBitString:
		bits, err := bitsOf(v)
		if err != nil {
			return err
		}
		return e.EncodeBitString(bits, &f.size)
	}
	return fmt.Errorf("unknown type %q", f.Type)
}

// decode returns bool, int64, uint64 (unsigned integers), the enumerant
// code, hex text for octet strings and '0'/'1' text for bit strings.
func (f *Field) decode(d *per.Decoder) (any, error) {
	switch f.Type {
	case TypeBoolean:
		return d.DecodeBoolean()
	case TypeInteger:
		if f.Unsigned {
			return d.DecodeUnsigned(&f.number)
		}
		return d.DecodeNumber(&f.number)
	case TypeEnumerated:
		return d.DecodeEnumerated(&f.enumeration)
	case TypeOctetString:
		value, err := d.DecodeOctetString(&f.size, false)
		if err != nil {
			return nil, err
		}
		return hex.EncodeToString(value.Data), nil
	case TypeBitString:
		value, err := d.DecodeBitString(&f.size, false)
		if err != nil {
			return nil, err
		}
		return FormatBits(value.BitString), nil
	}
	return nil, fmt.Errorf("unknown type %q", f.Type)
}

func signedOf(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d does not fit a signed integer", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

// unsignedOf also takes decimal text, as TOML integers stop at math.MaxInt64.
func unsignedOf(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d for an unsigned integer", n)
		}
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative value %d for an unsigned integer", n)
		}
		return uint64(n), nil
	case string:
		return strconv.ParseUint(n, 10, 64)
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func octetsOf(v any) ([]byte, error) {
	switch data := v.(type) {
	case []byte:
		return data, nil
	case string:
		return hex.DecodeString(data)
	}
	return nil, fmt.Errorf("expected hex text, got %T", v)
}

func bitsOf(v any) (asn1.BitString, error) {
	switch bits := v.(type) {
	case asn1.BitString:
		return bits, nil
	case string:
		return ParseBits(bits)
	}
	return asn1.BitString{}, fmt.Errorf("expected bit text, got %T", v)
}

// ParseBits reads a bit string written as '0' and '1' characters.
func ParseBits(s string) (asn1.BitString, error) {
	bits := asn1.BitString{
		Bytes:     make([]byte, (len(s)+7)/8),
		BitLength: len(s),
	}
	for i, c := range s {
		switch c {
		case '1':
			bits.Bytes[i/8] |= 0x80 >> (i % 8)
		case '0':
		default:
			return asn1.BitString{}, fmt.Errorf("invalid bit %q at %d", c, i)
		}
	}
	return bits, nil
}

// FormatBits writes a bit string as '0' and '1' characters.
func FormatBits(bits asn1.BitString) string {
	var b strings.Builder
	b.Grow(bits.BitLength)
	for i := 0; i < bits.BitLength; i++ {
		b.WriteByte('0' + byte(bits.At(i)))
	}
	return b.String()
}
