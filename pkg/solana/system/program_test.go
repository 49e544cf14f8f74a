package system

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/testutil"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "11111111111111111111111111111111", ProgramKey.ToBase58())
}

func TestCreateAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	command := make([]byte, 4)
	lamports := make([]byte, 8)
	binary.LittleEndian.PutUint64(lamports, 12345)
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, 67890)

	assert.Equal(t, command, instruction.Data[0:4])
	assert.Equal(t, lamports, instruction.Data[4:12])
	assert.Equal(t, size, instruction.Data[12:20])
	assert.Equal(t, keys[2].Bytes(), instruction.Data[20:52])

	decompiled, err := DecompileCreateAccount(compile(t, keys[0], instruction), 0)
	require.NoError(t, err)
	assert.Equal(t, decompiled.Funder, keys[0])
	assert.Equal(t, decompiled.Address, keys[1])
	assert.Equal(t, decompiled.Owner, keys[2])
	assert.EqualValues(t, decompiled.Lamports, 12345)
	assert.EqualValues(t, decompiled.Size, 67890)
}

func TestDecompileNonCreate(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	instruction.Accounts = instruction.Accounts[:1]
	_, err := DecompileCreateAccount(compile(t, keys[0], instruction), 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	binary.BigEndian.PutUint32(instruction.Data, commandAllocate)
	_, err = DecompileCreateAccount(compile(t, keys[0], instruction), 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = make([]byte, 3)
	_, err = DecompileCreateAccount(compile(t, keys[0], instruction), 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecompileCreateAccount(compile(t, keys[0], instruction), 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	_, err = DecompileCreateAccount(compile(t, keys[0], instruction), 1)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "instruction doesn't exist"))
}

func TestTransfer(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	instruction := Transfer(keys[0], keys[1], 49)
	assert.Equal(t, ProgramKey, instruction.Program)
	assert.Equal(t, []byte{2, 0, 0, 0, 49, 0, 0, 0, 0, 0, 0, 0}, instruction.Data)

	require.Len(t, instruction.Accounts, 2)
	assert.Equal(t, solana.NewAccountMeta(keys[0], true), instruction.Accounts[0])
	assert.Equal(t, solana.NewAccountMeta(keys[1], false), instruction.Accounts[1])

	decompiled, err := DecompileTransfer(compile(t, keys[0], instruction), 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.From)
	assert.Equal(t, keys[1], decompiled.To)
	assert.EqualValues(t, 49, decompiled.Lamports)

	_, err = DecompileTransfer(compile(t, keys[0], AdvanceNonce(keys[0], keys[1])), 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestCreateAccountWithSeed(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	funder, base, owner := keys[0], keys[1], keys[2]

	address, err := solana.CreateWithSeed(base, "seed", owner)
	require.NoError(t, err)

	instruction := CreateAccountWithSeed(funder, address, base, "seed", 10, 165, owner)
	assert.Equal(t, ProgramKey, instruction.Program)

	data := instruction.Data
	require.Len(t, data, 4+32+8+4+8+8+32)
	assert.EqualValues(t, commandCreateAccountWithSeed, binary.LittleEndian.Uint32(data))
	assert.Equal(t, base.Bytes(), data[4:36])
	assert.EqualValues(t, 4, binary.LittleEndian.Uint64(data[36:]))
	assert.Equal(t, "seed", string(data[44:48]))
	assert.EqualValues(t, 10, binary.LittleEndian.Uint64(data[48:]))
	assert.EqualValues(t, 165, binary.LittleEndian.Uint64(data[56:]))
	assert.Equal(t, owner.Bytes(), data[64:96])

	require.Len(t, instruction.Accounts, 3)
	assert.Equal(t, solana.NewAccountMeta(funder, true), instruction.Accounts[0])
	assert.Equal(t, solana.NewAccountMeta(address, false), instruction.Accounts[1])
	assert.Equal(t, solana.NewReadonlyAccountMeta(base, true), instruction.Accounts[2])
}

func TestAdvanceNonceAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	instruction := AdvanceNonce(keys[0], keys[1])

	command := make([]byte, 4)
	binary.LittleEndian.PutUint32(command, commandAdvanceNonceAccount)
	assert.EqualValues(t, command, instruction.Data)
	assert.EqualValues(t, ProgramKey, instruction.Program)

	require.Len(t, instruction.Accounts, 3)

	assert.EqualValues(t, keys[0], instruction.Accounts[0].PublicKey)
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)

	assert.EqualValues(t, RecentBlockhashesSysVar, instruction.Accounts[1].PublicKey)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[1].IsWritable)

	assert.EqualValues(t, keys[1], instruction.Accounts[2].PublicKey)
	assert.True(t, instruction.Accounts[2].IsSigner)

	decompiled, err := DecompileAdvanceNonce(compile(t, keys[0], instruction), 0)
	assert.NoError(t, err)
	assert.EqualValues(t, keys[0], decompiled.Nonce)
	assert.EqualValues(t, keys[1], decompiled.Authority)

	instruction.Accounts[1].PublicKey = keys[2]
	_, err = DecompileAdvanceNonce(compile(t, keys[0], instruction), 0)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid RecentBlockhashesSysVar"))

	instruction.Accounts = instruction.Accounts[:1]
	_, err = DecompileAdvanceNonce(compile(t, keys[0], instruction), 0)
	assert.NotNil(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid number of accounts"))

	binary.LittleEndian.PutUint32(instruction.Data, commandCreateAccount)
	_, err = DecompileAdvanceNonce(compile(t, keys[0], instruction), 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = nil
	_, err = DecompileAdvanceNonce(compile(t, keys[0], instruction), 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[2]
	_, err = DecompileAdvanceNonce(compile(t, keys[0], instruction), 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestDurableNonceTransaction(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	payer, nonce, recipient := keys[0], keys[1], keys[2]

	tx := &solana.Transaction{
		FeePayer: &payer,
		NonceInfo: &solana.NonceInformation{
			Nonce:            solana.Blockhash{1, 2, 3},
			NonceInstruction: AdvanceNonce(nonce, payer),
		},
	}
	tx.Add(Transfer(payer, recipient, 1))

	m, err := tx.CompileMessage()
	require.NoError(t, err)
	assert.Equal(t, solana.Blockhash{1, 2, 3}, m.RecentBlockhash)

	advance, err := DecompileAdvanceNonce(m, 0)
	require.NoError(t, err)
	assert.Equal(t, nonce, advance.Nonce)
	assert.Equal(t, payer, advance.Authority)

	transfer, err := DecompileTransfer(m, 1)
	require.NoError(t, err)
	assert.Equal(t, recipient, transfer.To)
}

func TestNonceInstructions(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)
	nonce, auth, other := keys[0], keys[1], keys[2]

	withdraw := WithdrawNonce(nonce, auth, other, 7)
	assert.Equal(t, []byte{5, 0, 0, 0, 7, 0, 0, 0, 0, 0, 0, 0}, withdraw.Data)
	require.Len(t, withdraw.Accounts, 5)
	assert.Equal(t, RentSysVar, withdraw.Accounts[3].PublicKey)
	assert.Equal(t, solana.NewReadonlyAccountMeta(auth, true), withdraw.Accounts[4])

	initialize := InitializeNonce(nonce, auth)
	assert.Equal(t, append([]byte{6, 0, 0, 0}, auth.Bytes()...), initialize.Data)
	require.Len(t, initialize.Accounts, 3)

	authorize := AuthorizeNonce(nonce, auth, other)
	assert.Equal(t, append([]byte{7, 0, 0, 0}, other.Bytes()...), authorize.Data)
	assert.Equal(t, []solana.AccountMeta{
		solana.NewAccountMeta(nonce, false),
		solana.NewReadonlyAccountMeta(auth, true),
	}, authorize.Accounts)
}

func TestGetNonceValue(t *testing.T) {
	authority := testutil.GenerateSolanaKeys(t, 1)[0]

	var val solana.Blockhash
	for i := 0; i < 32; i++ {
		val[i] = byte(i)
	}

	account := NonceAccount{
		Version:   uint32(NonceVersion1),
		State:     1,
		Authority: authority,
		Blockhash: val,
		FeeCalculator: FeeCalculator{
			LamportsPerSignature: 5000,
		},
	}
	data := account.Marshal()
	require.Len(t, data, NonceAccountSize)
	assert.Equal(t, val[:], data[4+4+32:4+4+32+32])

	actual, err := GetNonceValueFromAccount(ProgramKey, data)
	assert.NoError(t, err)
	assert.EqualValues(t, val, actual)

	var decoded NonceAccount
	require.NoError(t, decoded.Unmarshal(data))
	assert.Equal(t, account, decoded)

	_, err = GetNonceValueFromAccount(authority, data)
	assert.Equal(t, ErrInvalidAccountOwner, err)

	_, err = GetNonceValueFromAccount(ProgramKey, data[:79])
	assert.Equal(t, ErrInvalidAccountSize, err)

	account.Version = uint32(NonceVersion0)
	_, err = GetNonceValueFromAccount(ProgramKey, account.Marshal())
	assert.Equal(t, ErrInvalidAccountVersion, err)
}

func compile(t *testing.T, payer solana.PublicKey, instructions ...solana.Instruction) solana.Message {
	m, err := solana.NewTransaction(payer, solana.Blockhash{}, instructions...).CompileMessage()
	require.NoError(t, err)
	return m
}
