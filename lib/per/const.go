package per

const (
	// MAX_CONSTRAINED_LENGTH bounds the range (ub - lb) of a length determinant
	// encoded as a constrained whole number. At or beyond it the unconstrained
	// form with fragmentation is used.
	// ITU-T X.691 Section 11.9.3.3 / 11.9.4.1
	MAX_CONSTRAINED_LENGTH = 65536 // 64K

	// FRAGMENT_SIZE is the quantum of a fragment for fragmented encodings.
	// ITU-T X.691 Section 11.9.3.8
	FRAGMENT_SIZE = 16384 // 16K = 16 * 1024

	// MAX_FRAGMENT_QUANTA is the largest number of quanta one fragment carries.
	MAX_FRAGMENT_QUANTA = 4 // 64K

	// FRAGMENT_INDICATOR marks a fragment-size octet (top bits 11).
	FRAGMENT_INDICATOR = 0xC0

	// FRAGMENT_INDICATOR_MIN and FRAGMENT_INDICATOR_MAX are the only legal
	// fragment-size octets: 0xC1 (16K) to 0xC4 (64K).
	FRAGMENT_INDICATOR_MIN = FRAGMENT_INDICATOR | 1
	FRAGMENT_INDICATOR_MAX = FRAGMENT_INDICATOR | MAX_FRAGMENT_QUANTA

	// SHORT_LENGTH_MAX is the largest length in the one-octet form (0xxxxxxx).
	SHORT_LENGTH_MAX = 127

	// LONG_LENGTH_FLAG prefixes the two-octet form (10xxxxxx xxxxxxxx).
	LONG_LENGTH_FLAG = 0x8000

	// LONG_LENGTH_MAX is the largest length in the two-octet form.
	LONG_LENGTH_MAX = FRAGMENT_SIZE - 1

	// NSNNWN_SHORT_MAX is the largest normally small number in the 6-bit form.
	// ITU-T X.691 Section 11.6.1
	NSNNWN_SHORT_MAX = 63

	// NSNNWN_SHORT_BITS is the width of the short form, flag bit included.
	NSNNWN_SHORT_BITS = 7

	// ONE_OCTET_RANGE is the dmax (ub - lb) of the one-octet aligned case.
	// ITU-T X.691 Section 11.5.7.2
	ONE_OCTET_RANGE = 255

	// TWO_OCTET_BITS is the widest range encoded in the two-octet case.
	// ITU-T X.691 Section 11.5.7.3
	TWO_OCTET_BITS = 16

	// MAX_FIXED_BITSTRING is the largest fixed-size bit string written
	// without alignment. ITU-T X.691 Section 16.9
	MAX_FIXED_BITSTRING = 16

	// MAX_FIXED_OCTETSTRING is the largest fixed-size octet string written
	// without alignment. ITU-T X.691 Section 17.6
	MAX_FIXED_OCTETSTRING = 2

	// MAX_NUMBER_OCTETS is the widest integer content the codec handles.
	MAX_NUMBER_OCTETS = 8

	// UNSIGNED_64_OCTETS is the 2's-complement width of unsigned values >= 2^63.
	UNSIGNED_64_OCTETS = MAX_NUMBER_OCTETS + 1
)
