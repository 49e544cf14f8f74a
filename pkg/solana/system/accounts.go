package system

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/borsh"
)

type NonceVersion uint32

const (
	NonceAccountSize = 80
)

const (
	NonceVersion0 NonceVersion = iota
	NonceVersion1
)

var (
	ErrInvalidAccountSize    = errors.New("invalid nonce account size")
	ErrInvalidAccountVersion = errors.New("invalid nonce account version")
	ErrInvalidAccountOwner   = errors.New("invalid nonce account owner")
)

// https://github.com/solana-labs/solana/blob/da00b39f4f92fb16417bd2d8bd218a04a34527b8/sdk/program/src/nonce/state/current.rs#L8
type NonceAccount struct {
	Version       uint32
	State         uint32
	Authority     solana.PublicKey
	Blockhash     solana.Blockhash
	FeeCalculator FeeCalculator
}

type FeeCalculator struct {
	LamportsPerSignature uint64
}

func (obj NonceAccount) Marshal() []byte {
	w := borsh.NewWriter()
	w.WriteU32(obj.Version)
	w.WriteU32(obj.State)
	w.WriteFixed(obj.Authority[:])
	w.WriteFixed(obj.Blockhash[:])
	w.WriteU64(obj.FeeCalculator.LamportsPerSignature)
	return w.Bytes()
}

func (obj *NonceAccount) Unmarshal(data []byte) error {
	if len(data) != NonceAccountSize {
		return ErrInvalidAccountSize
	}

	r := borsh.NewReader(data)

	// The size check above guarantees every read succeeds.
	obj.Version, _ = r.ReadU32()
	obj.State, _ = r.ReadU32()
	authority, _ := r.ReadFixed(32)
	blockhash, _ := r.ReadFixed(32)
	obj.FeeCalculator.LamportsPerSignature, _ = r.ReadU64()

	copy(obj.Authority[:], authority)
	copy(obj.Blockhash[:], blockhash)

	if NonceVersion(obj.Version) != NonceVersion1 {
		return ErrInvalidAccountVersion
	}

	return nil
}

// GetNonceValueFromAccount returns the nonce value of a nonce account owned by
// the system program.
//
// Layout references:
// https://github.com/solana-labs/solana/blob/d7b9aca87b0327266cde4f0116113a4203642130/web3.js/src/nonce-account.js#L16-L22
// https://github.com/solana-labs/solana/blob/a4956844bdd081e7b90508066c579f29be306ce7/sdk/program/src/nonce/state/current.rs#L26
func GetNonceValueFromAccount(owner solana.PublicKey, data []byte) (solana.Blockhash, error) {
	if owner != ProgramKey {
		return solana.Blockhash{}, ErrInvalidAccountOwner
	}

	var account NonceAccount
	if err := account.Unmarshal(data); err != nil {
		return solana.Blockhash{}, err
	}

	return account.Blockhash, nil
}
