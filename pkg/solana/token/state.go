package token

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/borsh"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

var ErrInvalidAccountSize = errors.New("invalid token account size")

type Account struct {
	// The mint associated with this account
	Mint solana.PublicKey
	// The owner of this account.
	Owner solana.PublicKey
	// The amount of tokens this account holds.
	Amount uint64
	// If set, then the 'DelegatedAmount' represents the amount
	// authorized by the delegate.
	Delegate *solana.PublicKey
	/// The account's state
	State AccountState
	// If set, this is a native token, and the value logs the rent-exempt reserve. An Account
	// is required to be rent-exempt, so the value is used by the Processor to ensure that wrapped
	// SOL accounts do not drop below this threshold.
	IsNative *uint64
	// The amount delegated
	DelegatedAmount uint64
	// Optional authority to close the account.
	CloseAuthority *solana.PublicKey
}

// Marshal returns the program's packed account layout. Unlike Borsh options,
// a COption has a four byte tag and always reserves space for its value.
func (a *Account) Marshal() []byte {
	w := borsh.NewWriter()
	w.WriteFixed(a.Mint[:])
	w.WriteFixed(a.Owner[:])
	w.WriteU64(a.Amount)
	writeOptionalKey(w, a.Delegate)
	w.WriteU8(uint8(a.State))
	if a.IsNative != nil {
		w.WriteU32(1)
		w.WriteU64(*a.IsNative)
	} else {
		w.WriteU32(0)
		w.WriteU64(0)
	}
	w.WriteU64(a.DelegatedAmount)
	writeOptionalKey(w, a.CloseAuthority)
	return w.Bytes()
}

func (a *Account) Unmarshal(b []byte) error {
	if len(b) != AccountSize {
		return errors.Wrapf(ErrInvalidAccountSize, "%d bytes", len(b))
	}

	// The size check guarantees every fixed width read succeeds.
	r := borsh.NewReader(b)
	readKey(r, &a.Mint)
	readKey(r, &a.Owner)
	a.Amount, _ = r.ReadU64()

	var err error
	if a.Delegate, err = readOptionalKey(r); err != nil {
		return errors.Wrap(err, "invalid delegate")
	}

	state, _ := r.ReadU8()
	a.State = AccountState(state)

	tag, _ := r.ReadU32()
	isNative, _ := r.ReadU64()
	switch tag {
	case 0:
		a.IsNative = nil
	case 1:
		a.IsNative = &isNative
	default:
		return errors.Errorf("invalid is_native option tag: %d", tag)
	}

	a.DelegatedAmount, _ = r.ReadU64()

	if a.CloseAuthority, err = readOptionalKey(r); err != nil {
		return errors.Wrap(err, "invalid close authority")
	}

	return nil
}

func writeOptionalKey(w *borsh.Writer, key *solana.PublicKey) {
	if key == nil {
		w.WriteU32(0)
		w.WriteFixed(make([]byte, len(solana.PublicKey{})))
		return
	}

	w.WriteU32(1)
	w.WriteFixed(key[:])
}

func readKey(r *borsh.Reader, key *solana.PublicKey) {
	b, _ := r.ReadFixed(len(key))
	copy(key[:], b)
}

func readOptionalKey(r *borsh.Reader) (*solana.PublicKey, error) {
	tag, _ := r.ReadU32()

	var key solana.PublicKey
	readKey(r, &key)

	switch tag {
	case 0:
		return nil, nil
	case 1:
		return &key, nil
	default:
		return nil, errors.Errorf("invalid option tag: %d", tag)
	}
}
