// Package binary provides Buffer, the little-endian byte container used by the
// codec and the wire format.
package binary

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/pkg/errors"
)

var (
	// ErrOutOfBounds is returned when a read or slice runs past the end of a buffer.
	ErrOutOfBounds = errors.New("buffer: out of bounds")

	// ErrUnsupportedSource is returned when a value cannot be coerced into bytes.
	ErrUnsupportedSource = errors.New("buffer: unsupported source")

	// ErrValueOutOfRange is returned when a number does not fit its declared width.
	ErrValueOutOfRange = errors.New("buffer: value out of range")
)

// Number is a numeric source with an explicit width (in bytes) and signedness.
type Number struct {
	Value  *big.Int
	Width  int
	Signed bool
}

// Uint returns an unsigned Number of the given width.
func Uint(v uint64, width int) Number {
	return Number{Value: new(big.Int).SetUint64(v), Width: width}
}

// Int returns a signed Number of the given width.
func Int(v int64, width int) Number {
	return Number{Value: big.NewInt(v), Width: width, Signed: true}
}

// BigUint returns an unsigned Number backed by an arbitrary precision value,
// used for the 128, 256 and 512 bit integer tags.
func BigUint(v *big.Int, width int) Number {
	return Number{Value: v, Width: width}
}

// BigInt returns a signed Number backed by an arbitrary precision value.
func BigInt(v *big.Int, width int) Number {
	return Number{Value: v, Width: width, Signed: true}
}

// Bytes encodes the number as Width little-endian bytes, using two's
// complement for negative signed values.
func (n Number) Bytes() ([]byte, error) {
	if n.Width <= 0 || n.Value == nil {
		return nil, errors.Wrapf(ErrUnsupportedSource, "invalid number width %d", n.Width)
	}

	bits := uint(n.Width * 8)
	v := new(big.Int).Set(n.Value)
	if n.Signed {
		limit := new(big.Int).Lsh(big.NewInt(1), bits-1)
		if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, errors.Wrapf(ErrValueOutOfRange, "%s does not fit in i%d", n.Value, bits)
		}
		if v.Sign() < 0 {
			v.Add(v, new(big.Int).Lsh(big.NewInt(1), bits))
		}
	} else if v.Sign() < 0 || v.BitLen() > int(bits) {
		return nil, errors.Wrapf(ErrValueOutOfRange, "%s does not fit in u%d", n.Value, bits)
	}

	be := v.FillBytes(make([]byte, n.Width))
	reverse(be)
	return be, nil
}

// Buffer is a growable byte container. Buffers never share storage with the
// byte slices they are created from or handed out by Bytes and Slice.
type Buffer struct {
	data []byte
}

// New returns a Buffer holding a copy of b.
func New(b []byte) *Buffer {
	return &Buffer{data: append([]byte(nil), b...)}
}

// From coerces source into a new Buffer. Supported sources are raw bytes,
// strings (as raw bytes), Number, float32, float64, other buffers, fixed-size
// byte arrays and anything exposing its bytes via Bytes() []byte.
func From(source interface{}) (*Buffer, error) {
	b, err := toBytes(source)
	if err != nil {
		return nil, err
	}
	return &Buffer{data: b}, nil
}

// Push appends source, coerced as in From.
func (b *Buffer) Push(source interface{}) error {
	raw, err := toBytes(source)
	if err != nil {
		return err
	}

	b.data = append(b.data, raw...)
	return nil
}

// PushByte appends a single byte.
func (b *Buffer) PushByte(v byte) {
	b.data = append(b.data, v)
}

// PushBytes appends raw bytes.
func (b *Buffer) PushBytes(v []byte) {
	b.data = append(b.data, v...)
}

// PushUint16 appends v in little-endian order.
func (b *Buffer) PushUint16(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

// PushUint32 appends v in little-endian order.
func (b *Buffer) PushUint32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

// PushUint64 appends v in little-endian order.
func (b *Buffer) PushUint64(v uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, v)
}

func (b *Buffer) PushFloat32(v float32) {
	b.PushUint32(math.Float32bits(v))
}

func (b *Buffer) PushFloat64(v float64) {
	b.PushUint64(math.Float64bits(v))
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	return append([]byte(nil), b.data...)
}

// Slice returns a new buffer holding a copy of length bytes starting at offset.
func (b *Buffer) Slice(offset, length int) (*Buffer, error) {
	raw, err := b.view(offset, length)
	if err != nil {
		return nil, err
	}
	return New(raw), nil
}

// Pad right-pads the buffer with value until it is at least length bytes long.
func (b *Buffer) Pad(length int, value byte) *Buffer {
	for len(b.data) < length {
		b.data = append(b.data, value)
	}
	return b
}

// Fixed truncates or zero-extends the buffer to exactly size bytes.
func (b *Buffer) Fixed(size int) *Buffer {
	if len(b.data) > size {
		b.data = b.data[:size]
		return b
	}
	return b.Pad(size, 0)
}

func (b *Buffer) Uint8(offset int) (uint8, error) {
	raw, err := b.view(offset, 1)
	if err != nil {
		return 0, err
	}
	return raw[0], nil
}

func (b *Buffer) Uint16(offset int) (uint16, error) {
	raw, err := b.view(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(raw), nil
}

func (b *Buffer) Uint32(offset int) (uint32, error) {
	raw, err := b.view(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

func (b *Buffer) Uint64(offset int) (uint64, error) {
	raw, err := b.view(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(raw), nil
}

func (b *Buffer) Int8(offset int) (int8, error) {
	v, err := b.Uint8(offset)
	return int8(v), err
}

func (b *Buffer) Int16(offset int) (int16, error) {
	v, err := b.Uint16(offset)
	return int16(v), err
}

func (b *Buffer) Int32(offset int) (int32, error) {
	v, err := b.Uint32(offset)
	return int32(v), err
}

func (b *Buffer) Int64(offset int) (int64, error) {
	v, err := b.Uint64(offset)
	return int64(v), err
}

func (b *Buffer) Float32(offset int) (float32, error) {
	v, err := b.Uint32(offset)
	return math.Float32frombits(v), err
}

func (b *Buffer) Float64(offset int) (float64, error) {
	v, err := b.Uint64(offset)
	return math.Float64frombits(v), err
}

// BigUint reads an unsigned little-endian integer of width bytes.
func (b *Buffer) BigUint(offset, width int) (*big.Int, error) {
	raw, err := b.view(offset, width)
	if err != nil {
		return nil, err
	}

	be := append([]byte(nil), raw...)
	reverse(be)
	return new(big.Int).SetBytes(be), nil
}

// BigInt reads a two's complement little-endian integer of width bytes.
func (b *Buffer) BigInt(offset, width int) (*big.Int, error) {
	v, err := b.BigUint(offset, width)
	if err != nil {
		return nil, err
	}

	bits := uint(width * 8)
	if v.Bit(int(bits)-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), bits))
	}
	return v, nil
}

// view returns the underlying bytes in [offset, offset+length) without copying.
func (b *Buffer) view(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		return nil, errors.Wrapf(ErrOutOfBounds, "offset %d, length %d, size %d", offset, length, len(b.data))
	}
	return b.data[offset : offset+length], nil
}

func toBytes(source interface{}) ([]byte, error) {
	switch v := source.(type) {
	case []byte:
		return append([]byte(nil), v...), nil
	case string:
		return []byte(v), nil
	case byte:
		return []byte{v}, nil
	case Number:
		return v.Bytes()
	case float32:
		return binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)), nil
	case float64:
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)), nil
	case *Buffer:
		return v.Bytes(), nil
	case Buffer:
		return v.Bytes(), nil
	case [32]byte:
		return v[:], nil
	case [64]byte:
		return v[:], nil
	case interface{ Bytes() []byte }:
		return append([]byte(nil), v.Bytes()...), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedSource, "%T", source)
	}
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
