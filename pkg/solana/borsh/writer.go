package borsh

import (
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

// Writer appends Borsh encoded primitives to a buffer.
type Writer struct {
	buf *binary.Buffer
}

func NewWriter() *Writer {
	return &Writer{buf: binary.New(nil)}
}

func (w *Writer) WriteU8(v uint8) {
	w.buf.PushByte(v)
}

func (w *Writer) WriteU16(v uint16) {
	w.buf.PushUint16(v)
}

func (w *Writer) WriteU32(v uint32) {
	w.buf.PushUint32(v)
}

func (w *Writer) WriteU64(v uint64) {
	w.buf.PushUint64(v)
}

func (w *Writer) WriteF32(v float32) {
	w.buf.PushFloat32(v)
}

func (w *Writer) WriteF64(v float64) {
	w.buf.PushFloat64(v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.PushByte(1)
	} else {
		w.buf.PushByte(0)
	}
}

// WriteNumber writes an integer of any width, such as a u128.
func (w *Writer) WriteNumber(n binary.Number) error {
	return w.buf.Push(n)
}

// WriteString writes the u32 byte length of s, followed by its bytes.
func (w *Writer) WriteString(s string) error {
	return w.WriteBytes([]byte(s))
}

// WriteBytes writes the u32 length of b, followed by b.
func (w *Writer) WriteBytes(b []byte) error {
	if err := w.WriteLength(len(b)); err != nil {
		return err
	}
	w.buf.PushBytes(b)
	return nil
}

// WriteFixed writes b without a length prefix.
func (w *Writer) WriteFixed(b []byte) {
	w.buf.PushBytes(b)
}

// WriteLength writes a u32 vector length.
func (w *Writer) WriteLength(n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return errors.Wrapf(ErrLengthMismatch, "length %d does not fit in u32", n)
	}
	w.buf.PushUint32(uint32(n))
	return nil
}

func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns a copy of everything written so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}
