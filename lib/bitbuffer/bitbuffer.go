// Package bitbuffer provides bit-level I/O for ASN.1 PER (Packed Encoding Rules).
//
// # Overview
//
// Writer is an append-only, growable bit sink and Reader is a bounded,
// read-only cursor over caller-owned bytes. Both use MSB-first bit ordering,
// support arbitrary field widths (0-64 bits), byte-aligned bulk operations
// and byte boundary alignment.
//
// # Key Features
//
//   - Fast paths for byte-aligned operations using encoding/binary.BigEndian
//   - Dynamic buffer growth with exponential allocation strategy
//   - Bit counters as the single source of truth for position (uint64)
//   - Mark/Rewind on the writer so a failing field leaves the prefix intact
//   - Zero-copy views on the reader for octet-aligned payloads
//
// # Scope
//
// This package focuses on bit-level manipulation. Callers are responsible for
// higher-level ASN.1 semantics, type encoding, and constraint validation.
//
// # Thread Safety
//
// Writer and Reader are NOT thread-safe. Each encode or decode pass owns its
// own instance; unrelated passes may run in parallel without locking.
package bitbuffer

import "errors"

const (
	// BITS_PER_BYTE is the number of bits in a byte
	BITS_PER_BYTE = 8

	// MAX_BITS is the widest field Read and Write accept
	MAX_BITS = 64

	// TMP_ARRAY_SIZE is the size of temporary arrays used for binary operations
	TMP_ARRAY_SIZE = 8
)

// InitialBufferSize is the initial capacity for the buffer in CreateWriter.
var InitialBufferSize = 64

var (
	// ErrInsufficientData is returned when a read needs more bits than remain.
	ErrInsufficientData = errors.New("bitbuffer: insufficient data")

	// ErrInvalidBitCount is returned for field widths above MAX_BITS.
	ErrInvalidBitCount = errors.New("bitbuffer: bit count must be between 0 and 64")

	// ErrInvalidMark is returned when rewinding past the written length.
	ErrInvalidMark = errors.New("bitbuffer: mark beyond written data")

	// ErrNotAligned is returned by operations that need an octet boundary.
	ErrNotAligned = errors.New("bitbuffer: cursor not octet aligned")
)

// octets returns the number of bytes needed to hold n bits.
func octets(n uint64) uint64 {
	return (n + 7) >> 3
}
