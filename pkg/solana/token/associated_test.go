package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
	"github.com/code-payments/code-solana-sdk/pkg/testutil"
)

func TestGetAssociatedAccount(t *testing.T) {
	// Values generated from taken from spl code.
	wallet := solana.MustPublicKeyFromBase58("4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM")
	mint := solana.MustPublicKeyFromBase58("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")
	addr := solana.MustPublicKeyFromBase58("H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ")

	actual, err := GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)
	assert.Equal(t, addr, actual)
}

func TestGetAssociatedAccount_OffCurveOwner(t *testing.T) {
	// The associated account of the previous test is itself a PDA.
	owner := solana.MustPublicKeyFromBase58("H7MQwEzt97tUJryocn3qaEoy2ymWstwyEk1i9Yv3EmuZ")
	mint := solana.MustPublicKeyFromBase58("8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh")

	_, err := GetAssociatedAccount(owner, mint)
	assert.ErrorIs(t, err, ErrOwnerOffCurve)

	_, _, err = CreateAssociatedTokenAccount(owner, owner, mint)
	assert.ErrorIs(t, err, ErrOwnerOffCurve)

	actual, err := GetAssociatedAccountAllowOffCurve(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, solana.MustPublicKeyFromBase58("3N32ARqeV22wmbY83hrDTiK343WnvsW2gcsdJzLfSg2q"), actual)
}

func TestCreateAssociatedAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	expectedAddr, err := GetAssociatedAccount(keys[1], keys[2])
	require.NoError(t, err)

	instruction, addr, err := CreateAssociatedTokenAccount(keys[0], keys[1], keys[2])
	require.NoError(t, err)
	assert.Equal(t, expectedAddr, addr)

	assert.Empty(t, instruction.Data)
	assert.Equal(t, 7, len(instruction.Accounts))
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)
	for i := 2; i < len(instruction.Accounts); i++ {
		assert.False(t, instruction.Accounts[i].IsSigner)
		assert.False(t, instruction.Accounts[i].IsWritable)
	}

	assert.Equal(t, system.ProgramKey, instruction.Accounts[4].PublicKey)
	assert.Equal(t, ProgramKey, instruction.Accounts[5].PublicKey)
	assert.Equal(t, system.RentSysVar, instruction.Accounts[6].PublicKey)

	decompiled, err := DecompileCreateAssociatedAccount(compile(t, keys[0], instruction), 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Subsidizer)
	assert.Equal(t, addr, decompiled.Address)
	assert.Equal(t, keys[1], decompiled.Owner)
	assert.Equal(t, keys[2], decompiled.Mint)

	instruction.Accounts[6].PublicKey = keys[0]
	_, err = DecompileCreateAssociatedAccount(compile(t, keys[0], instruction), 0)
	assert.Error(t, err)

	instruction.Program = ProgramKey
	_, err = DecompileCreateAssociatedAccount(compile(t, keys[0], instruction), 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}
