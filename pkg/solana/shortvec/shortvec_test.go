package shortvec

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortVec_Valid(t *testing.T) {
	for i := 0; i < math.MaxUint16; i++ {
		buf := &bytes.Buffer{}
		_, err := EncodeLen(buf, i)
		require.NoError(t, err)

		actual, err := DecodeLen(buf)
		require.NoError(t, err)
		require.Equal(t, i, actual)
	}
}

func TestShortVec_CrossImpl(t *testing.T) {
	for _, tc := range []struct {
		val     int
		encoded []byte
	}{
		{0x0, []byte{0x0}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x80, 0x01}},
		{0xff, []byte{0xff, 0x01}},
		{0x100, []byte{0x80, 0x02}},
		{0x7fff, []byte{0xff, 0xff, 0x01}},
		{0xffff, []byte{0xff, 0xff, 0x03}},
	} {
		buf := &bytes.Buffer{}
		n, err := EncodeLen(buf, tc.val)
		require.NoError(t, err)
		assert.Equal(t, len(tc.encoded), n)
		assert.Equal(t, tc.encoded, buf.Bytes())

		encoded, err := EncodeLength(tc.val)
		require.NoError(t, err)
		assert.Equal(t, tc.encoded, encoded)
	}
}

func TestShortVec_Length(t *testing.T) {
	for _, tc := range []struct {
		val      int
		consumed int
	}{
		{0, 1},
		{5, 1},
		{127, 1},
		{128, 2},
		{255, 2},
		{256, 2},
		{16383, 2},
		{16384, 3},
		{32767, 3},
		{2097152, 4},
		{math.MaxUint32, 5},
	} {
		encoded, err := EncodeLength(tc.val)
		require.NoError(t, err)
		assert.Len(t, encoded, tc.consumed)

		// Trailing bytes must not be consumed.
		val, consumed, err := DecodeLength(append(encoded, 0xaa, 0xbb))
		require.NoError(t, err)
		assert.Equal(t, tc.val, val)
		assert.Equal(t, tc.consumed, consumed)
	}
}

func TestShortVec_Invalid(t *testing.T) {
	_, err := EncodeLen(&bytes.Buffer{}, math.MaxUint16+1)
	assert.ErrorIs(t, err, ErrValueTooLarge)

	_, err = EncodeLength(-1)
	assert.ErrorIs(t, err, ErrValueTooLarge)

	_, err = EncodeLength(math.MaxUint32 + 1)
	assert.ErrorIs(t, err, ErrValueTooLarge)

	_, _, err = DecodeLength(nil)
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, _, err = DecodeLength([]byte{0x80, 0x80})
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, _, err = DecodeLength([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = DecodeLen(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x01}))
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = DecodeLen(bytes.NewReader([]byte{0x80}))
	assert.ErrorIs(t, err, ErrInvalidLength)
}
