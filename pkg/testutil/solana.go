package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) *solana.Keypair {
	kp, err := solana.NewRandomKeypair()
	require.NoError(t, err)
	return kp
}

func GenerateSolanaKeys(t *testing.T, n int) []solana.PublicKey {
	keys := make([]solana.PublicKey, n)
	for i := 0; i < n; i++ {
		keys[i] = GenerateSolanaKeypair(t).PublicKey()
	}
	return keys
}

// DeterministicKeypair returns the keypair of a 32 byte seed filled with b, so
// fixtures can be reproduced across runs.
func DeterministicKeypair(t *testing.T, b byte) *solana.Keypair {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}

	kp, err := solana.KeypairFromSeed(seed)
	require.NoError(t, err)
	return kp
}
