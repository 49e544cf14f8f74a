package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"hash"
	"strings"
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProgramAddress(t *testing.T) {
	exceededSeed := make([]byte, maxSeedLength+1)
	maxSeed := make([]byte, maxSeedLength)

	// The typo here was taken directly from the Solana test case,
	// which was used to derive the expected outputs.
	publicKey := MustPublicKeyFromBase58("SeedPubey1111111111111111111111111111111111")
	programID := MustPublicKeyFromBase58("BPFLoader1111111111111111111111111111111111")

	_, err := CreateProgramAddress(programID, exceededSeed)
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)
	_, err = CreateProgramAddress(programID, []byte("short seed"), exceededSeed)
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)

	_, err = CreateProgramAddress(programID, maxSeed)
	assert.NoError(t, err)

	cases := []struct {
		expected string
		input    [][]byte
	}{
		{
			expected: "3gF2KMe9KiC6FNVBmfg9i267aMPvK37FewCip4eGBFcT",
			input:    [][]byte{{}, {1}},
		},
		{
			expected: "7ytmC1nT1xY4RfxCV2ZgyA7UakC93do5ZdyhdF3EtPj7",
			input:    [][]byte{[]byte("☉")},
		},
		{
			expected: "HwRVBufQ4haG5XSgpspwKtNd3PC9GM9m1196uJW36vds",
			input:    [][]byte{[]byte("Talking"), []byte("Squirrels")},
		},
		{
			expected: "GUs5qLUfsEHkcMB9T38vjr18ypEhRuNWiePW2LoK4E3K",
			input:    [][]byte{publicKey[:]},
		},
	}

	for _, tc := range cases {
		key, err := CreateProgramAddress(programID, tc.input...)
		assert.NoError(t, err)
		assert.Equal(t, tc.expected, key.ToBase58())
		assert.False(t, IsOnCurve(key[:]))
	}

	a, err := CreateProgramAddress(programID, []byte("Talking"))
	assert.NoError(t, err)
	b, err := CreateProgramAddress(programID, []byte("Talking"), []byte("Squirrels"))
	assert.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCreateProgramAddress_TooManySeeds(t *testing.T) {
	programID := MustPublicKeyFromBase58("BPFLoader1111111111111111111111111111111111")

	seeds := make([][]byte, maxSeeds)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}

	_, _, err := FindProgramAddressAndBump(programID, seeds[:maxSeeds-1]...)
	assert.NoError(t, err)

	_, err = CreateProgramAddress(programID, append(seeds, []byte{1})...)
	assert.Equal(t, ErrTooManySeeds, err)

	// The bump seed counts towards the limit.
	_, err = FindProgramAddress(programID, seeds...)
	assert.Equal(t, ErrTooManySeeds, err)
}

type testCtor struct {
	sumResult []byte
}

func (t *testCtor) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func (t *testCtor) Sum(b []byte) []byte {
	return t.sumResult
}

func (t *testCtor) Reset() {
}

func (t *testCtor) Size() int {
	return sha256.New().Size()
}

func (t *testCtor) BlockSize() int {
	return sha256.New().BlockSize()
}

func TestCreateProgramAddress_Invalid(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	deriver := NewAddressDeriver(func() hash.Hash {
		return &testCtor{
			sumResult: pub,
		}
	})

	programID := generateKeypairs(t, 1)[0].PublicKey()

	_, err = deriver.CreateProgramAddress(programID, []byte("Lil'"), []byte("Bits"))
	assert.Equal(t, ErrInvalidSeeds, err)

	_, _, err = deriver.FindProgramAddressAndBump(programID, []byte("Lil'"), []byte("Bits"))
	assert.Equal(t, ErrNoViableAddress, err)
}

func TestFindProgramAddress(t *testing.T) {
	for i := 0; i < 1000; i++ {
		programID := generateKeypairs(t, 1)[0].PublicKey()

		addr, bump, err := FindProgramAddressAndBump(programID, []byte("Lil'"), []byte("Bits"))
		require.NoError(t, err)

		// The bump reproduces the address.
		actual, err := CreateProgramAddress(programID, []byte("Lil'"), []byte("Bits"), []byte{bump})
		require.NoError(t, err)
		assert.Equal(t, addr, actual)

		// Every higher bump lands on the curve.
		for higher := int(bump) + 1; higher <= 255; higher++ {
			_, err = CreateProgramAddress(programID, []byte("Lil'"), []byte("Bits"), []byte{byte(higher)})
			assert.Equal(t, ErrInvalidSeeds, err)
		}
	}
}

func TestFindProgramAddress_Ref(t *testing.T) {
	references := []struct {
		programID string
		expected  string
	}{
		{
			programID: "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM",
			expected:  "Bn9pAWUXWc5Kd849xTkQcHqiCbHUEizLFn4r5Cf8XYnd",
		},
		{
			programID: "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh",
			expected:  "oDvUHiiGdMo31xYzjefAzUekWH8EbCKrxgs2FkyTs1S",
		},
		{
			programID: "CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3",
			expected:  "B2vBn2bmF9GuaGkebrm8oUqDC34pE6m4bagjNcVE6msv",
		},
		{
			programID: "GcdayuLaLyrdmUu324nahyv33G5poQdLUEZ1nEytDeP",
			expected:  "2mN5Nfq9v1EwTV9FPTHPESZ3XiZce9wi5PQoULFuxvev",
		},
		{
			programID: "LX3EUdRUBUa3TbsYXLEUdj9J3prXkWXvLYSWyYyc2Jj",
			expected:  "9CqF6oTZtW5zSeoLnZRoQmj3s2tXGPqifM1W8Z8LVE1z",
		},
		{
			programID: "QRSsyMWN1yHT9ir42bgNZUNZ4PdEhcSWCrL2AryKpy5",
			expected:  "FwBDYafabYZLDC8FwaDCsLxWkKnaQxKuQv3afDAGiXJ8",
		},
		{
			programID: "UKrXU5bFrTzrqqpZXs8GVDbp4xPweiM65ADXNAy3ddR",
			expected:  "2Y1miPDc3BkHVdNFeFTtRkiw8nbptrBqboJkbqxk5SFt",
		},
		{
			programID: "YEGAxog9gxiGXxo538aAQxq55XAebpFfwU72ZUxmSHm",
			expected:  "5jeaj2d8T2hjU63h2chjtSnuUmjti6qZK7oi6jwTspoo",
		},
		{
			programID: "c8fpTXm3XTRgE5maYQ24Li4L65wMYvAFomzXknxVEx7",
			expected:  "6brHYNpseuh39WW3Md5WxTyw12kqumR4tTyZqzkyPWZP",
		},
		{
			programID: "g35TxFqwMx95vCk63fTxGTHb6ei4W24qg5t2x6xD3cT",
			expected:  "ESVKwnyn9DEkNcR5ZnHFbMK66nCArc9dChFCULstzLy5",
		},
		{
			programID: "jwV7SyvqCSrVcKibYvurCCWr7DUmT7yRYPmY9QwvrGo",
			expected:  "69BytoSYkhMovVk8gfGUwhf9P8HSnrcYhaoWY2dgmrPE",
		},
		{
			programID: "oqtkwi1j2wZuJSh74CMk7wk77nFUQDt1Qhf3Liweew9",
			expected:  "EfwG5mLknsUXPLHkUp1doxgN1W4Azr3gkZ1Zu6w6AxdF",
		},
		{
			programID: "skJQSS6csSHJzZfcZToe3gyN8M2BMKnbH1YYY2wNTbV",
			expected:  "Cw2qpvCaoPGxEJypW7rW5obTKSTLpCDRN7TgrrVugkfC",
		},
		{
			programID: "wei3wABWhvzigge84jFXySCd8untJRhB9KS3jLw6GFq",
			expected:  "8jztcAvddJNqK1ZjwcRkfWYAkfJW7dBbwoxZt7HSNg1G",
		},
		{
			programID: "21Z7hRtGQYRi8NocdZzhRuBRt9UZbFXbm1dKYvevp4vB",
			expected:  "9PPbRbNP3rqwzk16r7NDBzk1YDfo9EpWDWSqCYLn5eaF",
		},
		{
			programID: "25TXLvcMJNvRY4vb95G9Kpvf9A3LJCdWLswD47xvXsaX",
			expected:  "2rXxCqDNwia2f245koA11w7NoyNhNH4PwhSVLwpeBVRf",
		},
		{
			programID: "29MvzRLSCDR8wm3ZeaXbDkftQAc719jQvkF6ZKGvFgEs",
			expected:  "8habU8xKFCDeJNg9No6prtCY1Lq2px5bqWEyudy1SScW",
		},
		{
			programID: "2DGLdv4X63urMTAYA5o37gR7fBAsi6qKWcYz4WauyUuD",
			expected:  "7CPuXK4rdxhNqPUtTjvJ2peNEgVbBCzPV89SVK8boWai",
		},
		{
			programID: "2HAkHQnbytQZm9HWfb4V1cALvBjeR3wE6UrsZhtuhHZZ",
			expected:  "5U8dYpWb2W1s3ptdNhJJAkyf2JaRUxFAzVEnZmSP2t8X",
		},
		{
			programID: "2M59vuWgsiuHAqQVB6KvuXuaBCJR8138gMAm4uCuR6Du",
			expected:  "E5dLtHAM353EPnHyuZ32sKREn26VW4Y8bzb2KQJTBHQh",
		},
	}

	for _, r := range references {
		programID := MustPublicKeyFromBase58(r.programID)
		expected := MustPublicKeyFromBase58(r.expected)

		actual, err := FindProgramAddress(programID, []byte("Lil'"), []byte("Bits"))
		assert.NoError(t, err)
		assert.Equal(t, expected, actual)
	}
}

func TestCreateWithSeed(t *testing.T) {
	actual, err := CreateWithSeed(PublicKey{}, "limber chicken: 4/45", PublicKey{})
	require.NoError(t, err)
	assert.Equal(t, "9h1HyLCW5dZnBVap8C5egQ9Z6pHyjsh5MNy83iPqqRuq", actual.ToBase58())

	_, err = CreateWithSeed(PublicKey{}, strings.Repeat("x", maxSeedLength), PublicKey{})
	assert.NoError(t, err)

	_, err = CreateWithSeed(PublicKey{}, strings.Repeat("x", maxSeedLength+1), PublicKey{})
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)
}

func TestIsOnCurve(t *testing.T) {
	programID := MustPublicKeyFromBase58("BPFLoader1111111111111111111111111111111111")

	for i := 0; i < 256; i++ {
		kp := generateKeypairs(t, 1)[0]
		pub := kp.PublicKey()
		assert.True(t, IsOnCurve(pub[:]))

		derived, err := CreateWithSeed(pub, "seed", programID)
		require.NoError(t, err)

		_, err = new(edwards25519.Point).SetBytes(derived[:])
		assert.Equal(t, err == nil, IsOnCurve(derived[:]), derived.ToBase58())
	}

	assert.False(t, IsOnCurve(make([]byte, 31)))
}

func TestPublicKey(t *testing.T) {
	expected := PublicKey{23, 26, 218, 1, 26, 7, 253, 202, 19, 162, 251, 121, 172, 0, 65, 219, 142, 20, 252, 217, 6, 150, 142, 0, 54, 146, 245, 140, 155, 194, 42, 131}

	pub, err := PublicKeyFromBase58("2ZC8EZduQGavJB9duMUgpdjNj7TQUiMawb52CLXBH5yc")
	require.NoError(t, err)
	assert.Equal(t, expected, pub)
	assert.Equal(t, "2ZC8EZduQGavJB9duMUgpdjNj7TQUiMawb52CLXBH5yc", pub.String())
	assert.True(t, pub.Equals(expected))
	assert.Equal(t, pub, pub.PublicKey())

	fromBytes, err := PublicKeyFromBytes(pub.Bytes())
	require.NoError(t, err)
	assert.Equal(t, pub, fromBytes)

	// Bytes is a copy.
	b := pub.Bytes()
	b[0] = 0
	assert.Equal(t, byte(23), pub[0])

	_, err = PublicKeyFromBytes(make([]byte, 31))
	assert.ErrorIs(t, err, ErrInvalidPublicKeyLength)
	_, err = PublicKeyFromBase58("0OIl")
	assert.ErrorIs(t, err, ErrInvalidBase58)
	_, err = PublicKeyFromBase58("2ZC8EZduQGavJB9duMUgpdjNj7TQ")
	assert.ErrorIs(t, err, ErrInvalidPublicKeyLength)

	assert.Panics(t, func() { MustPublicKeyFromBase58("invalid!") })
}

func TestKeypair(t *testing.T) {
	kp := generateKeypairs(t, 1)[0]

	fromSeed, err := KeypairFromSeed(kp.SecretKey().Seed())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), fromSeed.PublicKey())

	fromSecret, err := KeypairFromSecretKey(kp.SecretKey())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), fromSecret.PublicKey())

	other := generateKeypairs(t, 1)[0]
	mismatched := append(append([]byte{}, kp.SecretKey().Seed()...), other.PublicKey().Bytes()...)
	_, err = KeypairFromSecretKey(mismatched)
	assert.Error(t, err)

	_, err = KeypairFromSeed(make([]byte, 31))
	assert.Error(t, err)
	_, err = KeypairFromSecretKey(make([]byte, 32))
	assert.Error(t, err)

	sig := kp.Sign([]byte("hello"))
	assert.True(t, ed25519.Verify(kp.PublicKey().ToEd25519(), []byte("hello"), sig[:]))
}
