package system

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	solbin "github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

const (
	commandCreateAccount uint32 = iota
	// nolint:varcheck,deadcode,unused
	commandAssign
	commandTransfer
	commandCreateAccountWithSeed
	commandAdvanceNonceAccount
	commandWithdrawNonceAccount
	commandInitializeNonceAccount
	commandAuthorizeNonceAccount
	// nolint:varcheck,deadcode,unused
	commandAllocate
	// nolint:varcheck,deadcode,unused
	commandAllocateWithSeed
	// nolint:varcheck,deadcode,unused
	commandAssignWithSeed
	// nolint:varcheck,deadcode,unused
	commandTransferWithSeed
)

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner solana.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   // Number of lamports to transfer to the new account
	//   lamports: u64,
	//   // Number of bytes of memory to allocate
	//   space: u64,
	//
	//   //Address of program that will own the new account
	//   owner: Pubkey,
	// }
	//
	data := solbin.New(nil)
	data.PushUint32(commandCreateAccount)
	data.PushUint64(lamports)
	data.PushUint64(size)
	data.PushBytes(owner[:])

	return solana.NewInstruction(
		ProgramKey,
		data.Bytes(),
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  solana.PublicKey
	Address solana.PublicKey

	Lamports uint64
	Size     uint64
	Owner    solana.PublicKey
}

func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	i, err := instructionAt(m, index, commandCreateAccount)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 52 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledCreateAccount{
		Funder:  m.Accounts[i.Accounts[0]],
		Address: m.Accounts[i.Accounts[1]],
	}
	v.Lamports = binary.LittleEndian.Uint64(i.Data[4:])
	v.Size = binary.LittleEndian.Uint64(i.Data[4+8:])
	copy(v.Owner[:], i.Data[4+2*8:])

	return v, nil
}

// Transfer returns an instruction moving lamports between two system accounts.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L84-L90
func Transfer(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data := solbin.New(nil)
	data.PushUint32(commandTransfer)
	data.PushUint64(lamports)

	return solana.NewInstruction(
		ProgramKey,
		data.Bytes(),
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledTransfer struct {
	From     solana.PublicKey
	To       solana.PublicKey
	Lamports uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := instructionAt(m, index, commandTransfer)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 12 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledTransfer{
		From:     m.Accounts[i.Accounts[0]],
		To:       m.Accounts[i.Accounts[1]],
		Lamports: binary.LittleEndian.Uint64(i.Data[4:]),
	}, nil
}

// CreateAccountWithSeed returns an instruction creating the account at
// address, which must equal solana.CreateWithSeed(base, seed, owner).
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L74-L82
func CreateAccountWithSeed(funder, address, base solana.PublicKey, seed string, lamports, size uint64, owner solana.PublicKey) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Created account
	//   2. [SIGNER] Base account
	//
	// The seed is a bincode string, prefixed by its u64 length.
	data := solbin.New(nil)
	data.PushUint32(commandCreateAccountWithSeed)
	data.PushBytes(base[:])
	data.PushUint64(uint64(len(seed)))
	data.PushBytes([]byte(seed))
	data.PushUint64(lamports)
	data.PushUint64(size)
	data.PushBytes(owner[:])

	return solana.NewInstruction(
		ProgramKey,
		data.Bytes(),
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, false),
		solana.NewReadonlyAccountMeta(base, true),
	)
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L113-L119
func AdvanceNonce(nonce, authority solana.PublicKey) solana.Instruction {
	/// # Account references
	///   0. [WRITE, SIGNER] Nonce account
	///   1. [] RecentBlockhashes sysvar
	///   2. [SIGNER] Nonce authority
	data := solbin.New(nil)
	data.PushUint32(commandAdvanceNonceAccount)

	return solana.NewInstruction(
		ProgramKey,
		data.Bytes(),
		solana.NewAccountMeta(nonce, false),
		solana.NewReadonlyAccountMeta(RecentBlockhashesSysVar, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledAdvanceNonce struct {
	Nonce     solana.PublicKey
	Authority solana.PublicKey
}

func DecompileAdvanceNonce(m solana.Message, index int) (*DecompiledAdvanceNonce, error) {
	i, err := instructionAt(m, index, commandAdvanceNonceAccount)
	if err != nil {
		return nil, err
	}

	if len(i.Data) != 4 {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if m.Accounts[i.Accounts[1]] != RecentBlockhashesSysVar {
		return nil, errors.Errorf("invalid RecentBlockhashesSysVar")
	}

	return &DecompiledAdvanceNonce{
		Nonce:     m.Accounts[i.Accounts[0]],
		Authority: m.Accounts[i.Accounts[2]],
	}, nil
}

// WithdrawNonce returns an instruction to withdraw funds from a nonce account
//
// The `uint64` parameter is the lamports to withdraw, which must leave the
// account balance above the rent exempt reserve or at zero.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L131
func WithdrawNonce(nonce, auth, recipient solana.PublicKey, lamports uint64) solana.Instruction {
	/// # Account references
	///   0. [WRITE] Nonce account
	///   1. [WRITE] Recipient account
	///   2. [] RecentBlockhashes sysvar
	///   3. [] Rent sysvar
	///   4. [SIGNER] Nonce authority
	data := solbin.New(nil)
	data.PushUint32(commandWithdrawNonceAccount)
	data.PushUint64(lamports)

	return solana.NewInstruction(
		ProgramKey,
		data.Bytes(),
		solana.NewAccountMeta(nonce, false),
		solana.NewAccountMeta(recipient, false),
		solana.NewReadonlyAccountMeta(RecentBlockhashesSysVar, false),
		solana.NewReadonlyAccountMeta(RentSysVar, false),
		solana.NewReadonlyAccountMeta(auth, true),
	)
}

// InitializeNonce returns an instruction to change the state of an Uninitalized nonce account to Initialized, setting the nonce value
//
// No signatures are required to execute this instruction, enabling derived
// nonce account addresses
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L146
func InitializeNonce(nonce, auth solana.PublicKey) solana.Instruction {
	/// # Account references
	///   0. [WRITE] Nonce account
	///   1. [] RecentBlockhashes sysvar
	///   2. [] Rent sysvar
	data := solbin.New(nil)
	data.PushUint32(commandInitializeNonceAccount)
	data.PushBytes(auth[:])

	return solana.NewInstruction(
		ProgramKey,
		data.Bytes(),
		solana.NewAccountMeta(nonce, false),
		solana.NewReadonlyAccountMeta(RecentBlockhashesSysVar, false),
		solana.NewReadonlyAccountMeta(RentSysVar, false),
	)
}

// AuthorizeNonce returns an instruction to change the entity authorized to
// execute nonce instructions on the account.
func AuthorizeNonce(nonce, auth, newAuth solana.PublicKey) solana.Instruction {
	/// # Account references
	///   0. [WRITE] Nonce account
	///   1. [SIGNER] Nonce authority
	data := solbin.New(nil)
	data.PushUint32(commandAuthorizeNonceAccount)
	data.PushBytes(newAuth[:])

	return solana.NewInstruction(
		ProgramKey,
		data.Bytes(),
		solana.NewAccountMeta(nonce, false),
		solana.NewReadonlyAccountMeta(auth, true),
	)
}

func instructionAt(m solana.Message, index int, command uint32) (solana.CompiledInstruction, error) {
	if index < 0 || index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], command)
	i := m.Instructions[index]

	if m.Accounts[i.ProgramIndex] != ProgramKey {
		return i, solana.ErrIncorrectProgram
	}
	if !bytes.HasPrefix(i.Data, prefix[:]) {
		return i, solana.ErrIncorrectInstruction
	}

	return i, nil
}
