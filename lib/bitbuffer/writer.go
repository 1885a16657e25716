package bitbuffer

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"
)

// Writer is an append-only bit sink.
// Fields:
//
//	Buff: byte slice holding the encoded bit stream, len(Buff) == ceil(written/8)
//	written: total number of bits written, including alignment padding
//
// Bits of the last byte beyond written are always zero, so Align only has to
// move the counter.
type Writer struct {
	Buff    []byte
	written uint64
}

// CreateWriter creates a new Writer.
// Initializes with an empty buffer and pre-allocates capacity (InitialBufferSize)
// to reduce early allocations.
func CreateWriter() *Writer {
	return &Writer{
		Buff: make([]byte, 0, InitialBufferSize),
	}
}

// Len returns the number of bytes currently in the buffer, including a
// partially filled last byte.
func (w *Writer) Len() int {
	return len(w.Buff)
}

// Cap returns the capacity of the underlying buffer.
func (w *Writer) Cap() int {
	return cap(w.Buff)
}

// NumWritten returns the total number of bits written.
// Includes partial bytes. For example, writing 3 bits then 5 bits returns 8.
func (w *Writer) NumWritten() uint64 {
	return w.written
}

// Aligned reports whether the next bit starts a new octet.
func (w *Writer) Aligned() bool {
	return w.written&7 == 0
}

// Bytes returns the encoded data. A partially written final byte is padded
// with zero bits. Returns nil if nothing was written.
func (w *Writer) Bytes() []byte {
	if w.written == 0 {
		return nil
	}
	return w.Buff
}

// String implements the fmt.Stringer interface for Writer.
func (w *Writer) String() string {
	return fmt.Sprintf("Writer{Buff: len=%d, written: %d}", len(w.Buff), w.written)
}

// Write writes the least significant 'num' bits of value (0 ≤ num ≤ 64).
// num=0 writes nothing. Returns error if num > 64.
// MSB-first bit ordering: most significant bits written first.
//
// When the stream is mid-byte, the free bits of the last byte are filled
// first; the remaining bits then start on a byte boundary and take the
// aligned path.
func (w *Writer) Write(num uint8, value uint64) error {
	if EnableTrace {
		trace("Write", w.written, uint64(len(w.Buff)), zap.Uint8("bits", num), zap.Uint64("value", value))
	}
	if num > MAX_BITS {
		return ErrInvalidBitCount
	}
	if num == 0 {
		return nil
	}
	if num < MAX_BITS {
		value = value & ((1 << num) - 1)
	}

	pending := num
	if used := uint8(w.written & 7); used != 0 {
		var (
			free = BITS_PER_BYTE - used
			pos  = len(w.Buff) - 1
		)
		if pending <= free {
			w.Buff[pos] = w.Buff[pos] | byte(value<<(free-pending))
			w.written = w.written + uint64(num)
			return nil
		}
		w.Buff[pos] = w.Buff[pos] | byte(value>>(pending-free))
		pending = pending - free
	}

	// Aligned: pending bits start a new byte.
	var (
		nbytes = (int(pending) + 7) >> 3
		tmp    = [TMP_ARRAY_SIZE]byte{}
	)
	binary.BigEndian.PutUint64(tmp[:], value<<(MAX_BITS-uint(pending)))
	w.Buff = append(w.Buff, tmp[:nbytes]...)
	w.written = w.written + uint64(num)
	return nil
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(bit bool) error {
	if bit {
		return w.Write(1, 1)
	}
	return w.Write(1, 0)
}

// WriteBytes writes full octets continuing from the current bit offset.
// Does NOT force alignment, see WriteBytesAligned.
func (w *Writer) WriteBytes(data []byte) error {
	if EnableTrace {
		trace("WriteBytes", w.written, uint64(len(w.Buff)), zap.Int("bytes", len(data)))
	}
	if len(data) == 0 {
		return nil
	}

	if w.Aligned() {
		w.Buff = append(w.Buff, data...)
		w.written = w.written + uint64(len(data))*BITS_PER_BYTE
		return nil
	}

	for _, b := range data {
		if err := w.Write(8, uint64(b)); err != nil {
			return err
		}
	}
	return nil
}

// WriteBytesAligned pads to the next byte boundary, then appends data.
func (w *Writer) WriteBytesAligned(data []byte) error {
	if err := w.Align(); err != nil {
		return err
	}
	return w.WriteBytes(data)
}

// WriteBits writes the first count bits of data, MSB-first.
// data must hold at least ceil(count/8) bytes; bits of the last byte past
// count are ignored.
func (w *Writer) WriteBits(data []byte, count uint64) error {
	if EnableTrace {
		trace("WriteBits", w.written, uint64(len(w.Buff)), zap.Uint64("count", count))
	}
	if count == 0 {
		return nil
	}
	if uint64(len(data)) < octets(count) {
		return ErrInsufficientData
	}

	num := count / BITS_PER_BYTE
	if num > 0 {
		if err := w.WriteBytes(data[:num]); err != nil {
			return err
		}
	}

	remaining := uint8(count % BITS_PER_BYTE)
	if remaining > 0 {
		value := uint64(data[num] >> (BITS_PER_BYTE - remaining))
		return w.Write(remaining, value)
	}
	return nil
}

// Align pads with zero bits up to the next byte boundary.
// If already aligned, does nothing.
func (w *Writer) Align() error {
	if EnableTrace {
		trace("Align", w.written, uint64(len(w.Buff)))
	}
	if used := w.written & 7; used != 0 {
		w.written = w.written + (BITS_PER_BYTE - used)
	}
	return nil
}

// Mark returns the current bit position, for use with Rewind.
func (w *Writer) Mark() uint64 {
	return w.written
}

// Rewind truncates the stream back to a position returned by Mark.
// Bits after the mark are discarded and the last byte is re-zeroed past it.
func (w *Writer) Rewind(mark uint64) error {
	if mark > w.written {
		return ErrInvalidMark
	}
	w.Buff = w.Buff[:octets(mark)]
	if used := mark & 7; used != 0 {
		pos := len(w.Buff) - 1
		w.Buff[pos] = w.Buff[pos] &^ (0xFF >> used)
	}
	w.written = mark
	return nil
}

// Reset discards all written data, keeping the allocated capacity.
func (w *Writer) Reset() {
	w.Buff = w.Buff[:0]
	w.written = 0
}
