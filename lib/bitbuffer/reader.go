package bitbuffer

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"
)

// Reader is a read-only cursor over a byte buffer with bit granularity.
// Fields:
//
//	buff: externally owned bytes, never modified
//	offset: bits consumed so far
//	length: bits available, 0 <= offset <= length <= 8*len(buff)
//
// Every read checks length before touching buff; that check is the only
// protection against truncated or malformed input.
type Reader struct {
	buff   []byte
	offset uint64
	length uint64
}

// CreateReader creates a new Reader over all bits of data.
func CreateReader(data []byte) *Reader {
	return &Reader{
		buff:   data,
		length: uint64(len(data)) * BITS_PER_BYTE,
	}
}

// NewReader creates a Reader over length bits of data, starting at bit
// offset. Returns ErrInsufficientData if the window exceeds data.
func NewReader(data []byte, offset, length uint64) (*Reader, error) {
	if offset > length || length > uint64(len(data))*BITS_PER_BYTE {
		return nil, ErrInsufficientData
	}
	return &Reader{
		buff:   data,
		offset: offset,
		length: length,
	}, nil
}

// NumRead returns the current bit offset.
func (r *Reader) NumRead() uint64 {
	return r.offset
}

// Len returns the total number of bits in the window.
func (r *Reader) Len() uint64 {
	return r.length
}

// Remaining returns the number of bits left to read.
func (r *Reader) Remaining() uint64 {
	return r.length - r.offset
}

// Done reports whether all bits were consumed.
func (r *Reader) Done() bool {
	return r.offset == r.length
}

// Aligned reports whether the cursor sits on an octet boundary.
func (r *Reader) Aligned() bool {
	return r.offset&7 == 0
}

// String implements the fmt.Stringer interface for Reader.
func (r *Reader) String() string {
	return fmt.Sprintf("Reader{Buff: len=%d, offset: %d, length: %d}", len(r.buff), r.offset, r.length)
}

// has reports whether n more bits are available.
func (r *Reader) has(n uint64) bool {
	return n <= r.length-r.offset
}

// Read reads the next num bits from the bit stream, returning them as a uint64.
// num=0 returns 0 without error. num > 64 returns error.
// MSB-first bit ordering: most significant bits read first.
// Returns ErrInsufficientData if fewer than num bits remain; the cursor does
// not move in that case.
func (r *Reader) Read(num uint8) (uint64, error) {
	if EnableTrace {
		trace("Read", r.offset, r.length, zap.Uint8("bits", num))
	}
	if num > MAX_BITS {
		return 0, ErrInvalidBitCount
	}
	if num == 0 {
		return 0, nil
	}
	if !r.has(uint64(num)) {
		return 0, ErrInsufficientData
	}

	pos := r.offset >> 3

	// Fast path: whole bytes starting on a byte boundary.
	if r.offset&7 == 0 && num&7 == 0 {
		var (
			nbytes = uint64(num >> 3)
			tmp    = [TMP_ARRAY_SIZE]byte{}
		)
		copy(tmp[TMP_ARRAY_SIZE-nbytes:], r.buff[pos:pos+nbytes])
		r.offset = r.offset + uint64(num)
		return binary.BigEndian.Uint64(tmp[:]), nil
	}

	var (
		result  uint64
		pending = num
		bit     = uint8(r.offset & 7)
	)
	for pending > 0 {
		var (
			remaining = BITS_PER_BYTE - bit
			reading   = min(pending, remaining)
			shift     = remaining - reading
			mask      = uint8((1 << reading) - 1)
			chunk     = uint64((r.buff[pos] >> shift) & mask)
		)
		result = (result << reading) | chunk
		pending = pending - reading
		bit = 0
		pos++
	}

	r.offset = r.offset + uint64(num)
	return result, nil
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, error) {
	bit, err := r.Read(1)
	if err != nil {
		return false, err
	}
	return bit != 0, nil
}

// ReadBits reads count bits and returns them packed MSB-first, with the
// unused low bits of the last byte set to zero. The result is a copy.
func (r *Reader) ReadBits(count uint64) ([]byte, error) {
	if EnableTrace {
		trace("ReadBits", r.offset, r.length, zap.Uint64("count", count))
	}
	if !r.has(count) {
		return nil, ErrInsufficientData
	}
	if count == 0 {
		return []byte{}, nil
	}

	var (
		num    = count / BITS_PER_BYTE
		result = make([]byte, octets(count))
	)
	if r.Aligned() {
		pos := r.offset >> 3
		copy(result, r.buff[pos:pos+num])
		r.offset = r.offset + num*BITS_PER_BYTE
	} else {
		for i := uint64(0); i < num; i++ {
			value, err := r.Read(8)
			if err != nil {
				return nil, err
			}
			result[i] = byte(value)
		}
	}

	remaining := uint8(count % BITS_PER_BYTE)
	if remaining > 0 {
		value, err := r.Read(remaining)
		if err != nil {
			return nil, err
		}
		result[num] = byte(value << (BITS_PER_BYTE - remaining))
	}
	return result, nil
}

// ReadBytes reads exactly n full octets from the current bit offset.
// The result is a copy owned by the caller.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalidBitCount
	}
	return r.ReadBits(uint64(n) * BITS_PER_BYTE)
}

// View returns the bytes covering the next count bits without copying and
// advances past them. The cursor must be octet aligned. When count is not a
// multiple of 8, the low bits of the last byte belong to whatever follows in
// the stream. The returned slice aliases the buffer given to the Reader.
func (r *Reader) View(count uint64) ([]byte, error) {
	if EnableTrace {
		trace("View", r.offset, r.length, zap.Uint64("count", count))
	}
	if !r.Aligned() {
		return nil, ErrNotAligned
	}
	if !r.has(count) {
		return nil, ErrInsufficientData
	}
	var (
		pos = r.offset >> 3
		end = pos + octets(count)
	)
	r.offset = r.offset + count
	return r.buff[pos:end:end], nil
}

// Advance skips the remaining bits of the current byte (for reading).
// This is the read counterpart to Writer.Align. Padding past the end of the
// window is an error.
func (r *Reader) Advance() error {
	if EnableTrace {
		trace("Advance", r.offset, r.length)
	}
	if used := r.offset & 7; used != 0 {
		skip := BITS_PER_BYTE - used
		if !r.has(skip) {
			return ErrInsufficientData
		}
		r.offset = r.offset + skip
	}
	return nil
}

// Skip advances the cursor by n bits.
func (r *Reader) Skip(n uint64) error {
	if !r.has(n) {
		return ErrInsufficientData
	}
	r.offset = r.offset + n
	return nil
}
