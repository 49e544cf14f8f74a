package token

import (
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	solbin "github.com/code-payments/code-solana-sdk/pkg/solana/binary"
	"github.com/code-payments/code-solana-sdk/pkg/solana/rpc"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
)

// ProgramKey is the address of the token program that should be used.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

type Command byte

const (
	// nolint:varcheck,deadcode,unused
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	// nolint:varcheck,deadcode,unused
	CommandInitializeMultisig
	CommandTransfer
	CommandApprove
	// nolint:varcheck,deadcode,unused
	CommandRevoke
	CommandSetAuthority
	// nolint:varcheck,deadcode,unused
	CommandMintTo
	// nolint:varcheck,deadcode,unused
	CommandBurn
	CommandCloseAccount
	// nolint:varcheck,deadcode,unused
	CommandFreezeAccount
	// nolint:varcheck,deadcode,unused
	CommandThawAccount
	CommandTransferChecked

	CommandUnknown = Command(math.MaxUint8)
)

// Custom program errors, as reported in rpc.InstructionError.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/error.rs
const (
	ErrorNotRentExempt rpc.CustomError = iota
	ErrorInsufficientFunds
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	ErrorFixedSupply
	ErrorAlreadyInUse
	ErrorInvalidNumberOfProvidedSigners
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	ErrorInvalidState
	ErrorOverflow
	ErrorAuthorityTypeNotSupported
	ErrorMintCannotFreeze
	ErrorAccountFrozen
	ErrorMintDecimalsMismatch
)

func GetCommand(m solana.Message, index int) (Command, error) {
	if index < 0 || index >= len(m.Instructions) {
		return CommandUnknown, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if m.Accounts[i.ProgramIndex] != ProgramKey {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L41-L55
func InitializeAccount(account, mint, owner solana.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]`  The account to initialize.
	//   1. `[]` The mint this account will be associated with.
	//   2. `[]` The new account's owner/multisignature.
	//   3. `[]` Rent sysvar
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandInitializeAccount)},
		solana.NewAccountMeta(account, true),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeAccount struct {
	Account solana.PublicKey
	Mint    solana.PublicKey
	Owner   solana.PublicKey
}

func DecompileInitializeAccount(m solana.Message, index int) (*DecompiledInitializeAccount, error) {
	i, err := instructionAt(m, index, CommandInitializeAccount)
	if err != nil {
		return nil, err
	}

	if len(i.Data) != 1 {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if m.Accounts[i.Accounts[3]] != system.RentSysVar {
		return nil, errors.Errorf("invalid rent program")
	}

	return &DecompiledInitializeAccount{
		Account: m.Accounts[i.Accounts[0]],
		Mint:    m.Accounts[i.Accounts[1]],
		Owner:   m.Accounts[i.Accounts[2]],
	}, nil
}

type AuthorityType byte

const (
	AuthorityTypeMintTokens AuthorityType = iota
	AuthorityTypeFreezeAccount
	AuthorityTypeAccountHolder
	AuthorityTypeCloseAccount
)

// SetAuthority sets or, when newAuthority is nil, clears an authority of a
// mint or account.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L128-L139
func SetAuthority(account, currentAuthority solana.PublicKey, newAuthority *solana.PublicKey, authorityType AuthorityType) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint or account to change the authority of.
	//   1. `[signer]` The current authority of the mint or account.
	return solana.NewInstruction(
		ProgramKey,
		setAuthorityData(newAuthority, authorityType),
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(currentAuthority, true),
	)
}

// SetAuthorityMultisig is SetAuthority for an authority held by a multisig
// account, where signers are the M signing members.
func SetAuthorityMultisig(account, multisigOwner solana.PublicKey, newAuthority *solana.PublicKey, authorityType AuthorityType, signers ...solana.PublicKey) solana.Instruction {
	//   * Multisignature authority
	//   0. `[writable]` The mint or account to change the authority of.
	//   1. `[]` The mint's or account's multisignature authority.
	//   2. ..2+M `[signer]` M signer accounts
	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(multisigOwner, false),
	}
	for _, s := range signers {
		accounts = append(accounts, solana.NewReadonlyAccountMeta(s, true))
	}

	return solana.NewInstruction(
		ProgramKey,
		setAuthorityData(newAuthority, authorityType),
		accounts...,
	)
}

func setAuthorityData(newAuthority *solana.PublicKey, authorityType AuthorityType) []byte {
	data := solbin.New(nil)
	data.PushByte(byte(CommandSetAuthority))
	data.PushByte(byte(authorityType))
	if newAuthority == nil {
		data.PushByte(0)
	} else {
		data.PushByte(1)
		data.PushBytes(newAuthority.Bytes())
	}
	return data.Bytes()
}

type DecompiledSetAuthority struct {
	Account          solana.PublicKey
	CurrentAuthority solana.PublicKey
	NewAuthority     *solana.PublicKey
	Type             AuthorityType
}

func DecompileSetAuthority(m solana.Message, index int) (*DecompiledSetAuthority, error) {
	i, err := instructionAt(m, index, CommandSetAuthority)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) < 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) < 3 {
		return nil, errors.Errorf("invalid data size: %d (expect at least 3)", len(i.Data))
	}
	if i.Data[2] == 0 && len(i.Data) != 3 {
		return nil, errors.Errorf("invalid data size: %d (expect 3)", len(i.Data))
	}
	if i.Data[2] == 1 && len(i.Data) != 3+len(solana.PublicKey{}) {
		return nil, errors.Errorf("invalid data size: %d (expect %d)", len(i.Data), 3+len(solana.PublicKey{}))
	}
	if i.Data[2] > 1 {
		return nil, errors.Errorf("invalid option tag: %d", i.Data[2])
	}

	decompiled := &DecompiledSetAuthority{
		Account:          m.Accounts[i.Accounts[0]],
		CurrentAuthority: m.Accounts[i.Accounts[1]],
		Type:             AuthorityType(i.Data[1]),
	}

	if i.Data[2] == 1 {
		newAuthority, err := solana.PublicKeyFromBytes(i.Data[3:])
		if err != nil {
			return nil, err
		}
		decompiled.NewAuthority = &newAuthority
	}

	return decompiled, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L76-L91
func Transfer(source, dest, owner solana.PublicKey, amount uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[writable]` The destination account.
	//   2. `[signer]` The source account's owner/delegate.
	return TransferMultisig(source, dest, owner, amount)
}

// TransferMultisig is Transfer from an account owned by a multisig. With no
// signers, owner itself signs.
func TransferMultisig(source, dest, owner solana.PublicKey, amount uint64, signers ...solana.PublicKey) solana.Instruction {
	//   * Multisignature owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[writable]` The destination account.
	//   2. `[]` The source account's multisignature owner/delegate.
	//   3. ..3+M `[signer]` M signer accounts.
	data := solbin.New(nil)
	data.PushByte(byte(CommandTransfer))
	data.PushUint64(amount)

	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(source, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, len(signers) == 0),
	}
	for _, s := range signers {
		accounts = append(accounts, solana.NewReadonlyAccountMeta(s, true))
	}

	return solana.NewInstruction(ProgramKey, data.Bytes(), accounts...)
}

type DecompiledTransfer struct {
	Source      solana.PublicKey
	Destination solana.PublicKey
	Owner       solana.PublicKey
	Amount      uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := instructionAt(m, index, CommandTransfer)
	if err != nil {
		return nil, err
	}

	// note: we do < 3 instead of != 3 in order to support multisig cases.
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 9 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	amount, _ := solbin.New(i.Data).Uint64(1)
	return &DecompiledTransfer{
		Source:      m.Accounts[i.Accounts[0]],
		Destination: m.Accounts[i.Accounts[1]],
		Owner:       m.Accounts[i.Accounts[2]],
		Amount:      amount,
	}, nil
}

// TransferChecked is Transfer with the mint and its decimals asserted by the
// program.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L230-L252
func TransferChecked(source, mint, dest, owner solana.PublicKey, amount uint64, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single owner/delegate
	//   0. `[writable]` The source account.
	//   1. `[]` The token mint.
	//   2. `[writable]` The destination account.
	//   3. `[signer]` The source account's owner/delegate.
	data := solbin.New(nil)
	data.PushByte(byte(CommandTransferChecked))
	data.PushUint64(amount)
	data.PushByte(decimals)

	return solana.NewInstruction(
		ProgramKey,
		data.Bytes(),
		solana.NewAccountMeta(source, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecompiledTransferChecked struct {
	Source      solana.PublicKey
	Mint        solana.PublicKey
	Destination solana.PublicKey
	Owner       solana.PublicKey
	Amount      uint64
	Decimals    byte
}

func DecompileTransferChecked(m solana.Message, index int) (*DecompiledTransferChecked, error) {
	i, err := instructionAt(m, index, CommandTransferChecked)
	if err != nil {
		return nil, err
	}

	// note: we do < 4 instead of != 4 in order to support multisig cases.
	if len(i.Accounts) < 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 10 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	amount, _ := solbin.New(i.Data).Uint64(1)
	return &DecompiledTransferChecked{
		Source:      m.Accounts[i.Accounts[0]],
		Mint:        m.Accounts[i.Accounts[1]],
		Destination: m.Accounts[i.Accounts[2]],
		Owner:       m.Accounts[i.Accounts[3]],
		Amount:      amount,
		Decimals:    i.Data[9],
	}, nil
}

// CloseAccount closes an account by transferring all its SOL to the
// destination account. Non-native accounts may only be closed if their token
// amount is zero.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L183-L197
func CloseAccount(account, dest, owner solana.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single owner
	//   0. `[writable]` The account to close.
	//   1. `[writable]` The destination account.
	//   2. `[signer]` The account's owner.
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandCloseAccount)},
		solana.NewAccountMeta(account, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(owner, true),
	)
}

type DecompiledCloseAccount struct {
	Account     solana.PublicKey
	Destination solana.PublicKey
	Owner       solana.PublicKey
}

func DecompileCloseAccount(m solana.Message, index int) (*DecompiledCloseAccount, error) {
	i, err := instructionAt(m, index, CommandCloseAccount)
	if err != nil {
		return nil, err
	}

	if len(i.Data) != 1 {
		return nil, solana.ErrIncorrectInstruction
	}
	// note: we do < 3 instead of != 3 in order to support multisig cases.
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	return &DecompiledCloseAccount{
		Account:     m.Accounts[i.Accounts[0]],
		Destination: m.Accounts[i.Accounts[1]],
		Owner:       m.Accounts[i.Accounts[2]],
	}, nil
}

func instructionAt(m solana.Message, index int, command Command) (solana.CompiledInstruction, error) {
	if index < 0 || index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if m.Accounts[i.ProgramIndex] != ProgramKey {
		return i, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 || Command(i.Data[0]) != command {
		return i, solana.ErrIncorrectInstruction
	}

	return i, nil
}
