package borsh

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

// Reader consumes Borsh encoded primitives from a buffer.
type Reader struct {
	buf    *binary.Buffer
	offset int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: binary.New(b)}
}

// Offset returns the number of bytes consumed.
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return r.buf.Len() - r.offset
}

func (r *Reader) ReadU8() (uint8, error) {
	v, err := r.buf.Uint8(r.offset)
	return v, r.advance(err, 1, "u8")
}

func (r *Reader) ReadU16() (uint16, error) {
	v, err := r.buf.Uint16(r.offset)
	return v, r.advance(err, 2, "u16")
}

func (r *Reader) ReadU32() (uint32, error) {
	v, err := r.buf.Uint32(r.offset)
	return v, r.advance(err, 4, "u32")
}

func (r *Reader) ReadU64() (uint64, error) {
	v, err := r.buf.Uint64(r.offset)
	return v, r.advance(err, 8, "u64")
}

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.buf.Int8(r.offset)
	return v, r.advance(err, 1, "i8")
}

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.buf.Int16(r.offset)
	return v, r.advance(err, 2, "i16")
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.buf.Int32(r.offset)
	return v, r.advance(err, 4, "i32")
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.buf.Int64(r.offset)
	return v, r.advance(err, 8, "i64")
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.buf.Float32(r.offset)
	return v, r.advance(err, 4, "f32")
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.buf.Float64(r.offset)
	return v, r.advance(err, 8, "f64")
}

// ReadBig reads an integer of width bytes, such as a u128 or i256.
func (r *Reader) ReadBig(width int, signed bool) (*big.Int, error) {
	var v *big.Int
	var err error
	if signed {
		v, err = r.buf.BigInt(r.offset, width)
	} else {
		v, err = r.buf.BigUint(r.offset, width)
	}
	return v, r.advance(err, width, "integer")
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	if err != nil {
		return false, err
	}

	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrapf(ErrSchema, "invalid bool value %d", v)
	}
}

// ReadLength reads a u32 vector length.
func (r *Reader) ReadLength() (int, error) {
	v, err := r.ReadU32()
	return int(v), err
}

// ReadBytes reads a u32 length prefixed byte vector.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	return r.ReadFixed(n)
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadFixed reads exactly n bytes.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	s, err := r.buf.Slice(r.offset, n)
	if err := r.advance(err, n, "bytes"); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func (r *Reader) advance(err error, n int, what string) error {
	if err != nil {
		if errors.Is(err, binary.ErrOutOfBounds) {
			return errors.Wrapf(ErrTruncatedBuffer, "%s at offset %d: need %d bytes, have %d", what, r.offset, n, r.Remaining())
		}
		return err
	}

	r.offset += n
	return nil
}
