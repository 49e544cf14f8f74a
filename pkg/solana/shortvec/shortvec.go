// Package shortvec implements the compact length prefix used by the transaction
// wire format: little-endian groups of 7 bits, where the top bit of each byte
// signals that another byte follows.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// maxEncodedLen is the number of bytes needed to encode math.MaxUint32.
const maxEncodedLen = 5

var (
	// ErrValueTooLarge is returned when a length cannot be represented.
	ErrValueTooLarge = errors.New("shortvec: value too large")

	// ErrInvalidLength is returned when an encoded length is truncated or
	// uses more bytes than allowed.
	ErrInvalidLength = errors.New("shortvec: invalid encoded length")
)

// EncodeLength returns the minimal encoding of n.
//
// Lengths up to math.MaxUint32 are supported. The transaction wire format
// itself is further restricted to math.MaxUint16 (see EncodeLen).
func EncodeLength(n int) ([]byte, error) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return nil, errors.Wrapf(ErrValueTooLarge, "%d", n)
	}

	encoded := make([]byte, 0, maxEncodedLen)
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n == 0 {
			return append(encoded, b), nil
		}

		encoded = append(encoded, b|0x80)
	}
}

// DecodeLength decodes a length from the start of b, returning the value and
// the number of bytes consumed.
func DecodeLength(b []byte) (val int, consumed int, err error) {
	for {
		if consumed >= len(b) {
			return 0, 0, errors.Wrap(ErrInvalidLength, "unexpected end of buffer")
		}
		if consumed >= maxEncodedLen {
			return 0, 0, errors.Wrapf(ErrInvalidLength, "more than %d bytes", maxEncodedLen)
		}

		elem := b[consumed]
		val |= int(elem&0x7f) << (consumed * 7)
		consumed++

		if elem&0x80 == 0 {
			return val, consumed, nil
		}
	}
}

// EncodeLen encodes the specified len into the writer.
//
// If len > math.MaxUint16, an error is returned.
func EncodeLen(w io.Writer, len int) (n int, err error) {
	if len > math.MaxUint16 {
		return 0, errors.Wrapf(ErrValueTooLarge, "len exceeds %d", math.MaxUint16)
	}

	encoded, err := EncodeLength(len)
	if err != nil {
		return 0, err
	}

	return w.Write(encoded)
}

// DecodeLen decodes a shortvec encoded len from the reader.
func DecodeLen(r io.Reader) (val int, err error) {
	var offset int
	valBuf := make([]byte, 1)

	for {
		if _, err := io.ReadFull(r, valBuf); err != nil {
			return 0, errors.Wrap(ErrInvalidLength, err.Error())
		}

		val |= int(valBuf[0]&0x7f) << (offset * 7)
		offset++

		if valBuf[0]&0x80 == 0 {
			break
		}
		if offset == 3 {
			return 0, errors.Wrapf(ErrInvalidLength, "invalid size: %d (max 3)", offset+1)
		}
	}

	return val, nil
}
