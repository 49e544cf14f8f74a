package token

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
)

// AssociatedTokenAccountProgramKey  is the address of the associated token account program that should be used.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

// ErrOwnerOffCurve is returned when an associated account is requested for an
// owner that cannot sign, without explicitly allowing it.
var ErrOwnerOffCurve = errors.New("owner cannot sign: public key is off curve")

// GetAssociatedAccount returns the associated account address for an SPL token.
// The wallet must be a point on the ed25519 curve.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetAssociatedAccount(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	return getAssociatedAccount(wallet, mint, false)
}

// GetAssociatedAccountAllowOffCurve is GetAssociatedAccount for owners that are
// program derived addresses.
func GetAssociatedAccountAllowOffCurve(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	return getAssociatedAccount(owner, mint, true)
}

func getAssociatedAccount(owner, mint solana.PublicKey, allowOwnerOffCurve bool) (solana.PublicKey, error) {
	if !allowOwnerOffCurve && !solana.IsOnCurve(owner[:]) {
		return solana.PublicKey{}, errors.Wrap(ErrOwnerOffCurve, owner.ToBase58())
	}

	return solana.FindProgramAddress(
		AssociatedTokenAccountProgramKey,
		owner[:],
		ProgramKey[:],
		mint[:],
	)
}

// CreateAssociatedTokenAccount returns the instruction that creates the
// associated account of wallet for mint, funded by subsidizer, along with the
// address of the account.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/0639953c7dd0f5228c3ceda3ba68fece3b46ff1d/associated-token-account/program/src/lib.rs#L54
func CreateAssociatedTokenAccount(subsidizer, wallet, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	addr, err := GetAssociatedAccount(wallet, mint)
	if err != nil {
		return solana.Instruction{}, solana.PublicKey{}, err
	}

	return solana.NewInstruction(
		AssociatedTokenAccountProgramKey,
		[]byte{},
		solana.NewAccountMeta(subsidizer, true),
		solana.NewAccountMeta(addr, false),
		solana.NewReadonlyAccountMeta(wallet, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey, false),
		solana.NewReadonlyAccountMeta(ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	), addr, nil
}

type DecompiledCreateAssociatedAccount struct {
	Subsidizer solana.PublicKey
	Address    solana.PublicKey
	Owner      solana.PublicKey
	Mint       solana.PublicKey
}

func DecompileCreateAssociatedAccount(m solana.Message, index int) (*DecompiledCreateAssociatedAccount, error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if m.Accounts[i.ProgramIndex] != AssociatedTokenAccountProgramKey {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) != 0 {
		return nil, errors.Errorf("unexpected data")
	}
	if len(i.Accounts) != 7 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), 7)
	}

	if m.Accounts[i.Accounts[4]] != system.ProgramKey {
		return nil, errors.Errorf("system program key mismatch")
	}
	if m.Accounts[i.Accounts[5]] != ProgramKey {
		return nil, errors.Errorf("token program key mismatch")
	}
	if m.Accounts[i.Accounts[6]] != system.RentSysVar {
		return nil, errors.Errorf("rent sysvar mismatch")
	}

	return &DecompiledCreateAssociatedAccount{
		Subsidizer: m.Accounts[i.Accounts[0]],
		Address:    m.Accounts[i.Accounts[1]],
		Owner:      m.Accounts[i.Accounts[2]],
		Mint:       m.Accounts[i.Accounts[3]],
	}, nil
}
