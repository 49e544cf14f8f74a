package solana

import (
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

var (
	ErrInvalidPublicKeyLength = errors.New("invalid public key length")
	ErrInvalidBase58          = errors.New("invalid base58 encoding")
)

// PublicKey is a 32 byte account address.
type PublicKey [ed25519.PublicKeySize]byte

// Signature is a detached ed25519 signature.
type Signature [ed25519.SignatureSize]byte

// Blockhash is the hash of a recent block, used to bound the lifetime of a
// transaction.
type Blockhash [sha256.Size]byte

// PublicKeyFromBytes returns a PublicKey from raw bytes, which must be exactly
// 32 bytes long.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pub PublicKey
	if len(b) != len(pub) {
		return pub, errors.Wrapf(ErrInvalidPublicKeyLength, "got %d bytes", len(b))
	}

	copy(pub[:], b)
	return pub, nil
}

// PublicKeyFromBase58 parses the base58 text form of a PublicKey.
func PublicKeyFromBase58(s string) (PublicKey, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, errors.Wrapf(ErrInvalidBase58, "%s: %v", s, err)
	}

	return PublicKeyFromBytes(decoded)
}

// MustPublicKeyFromBase58 is like PublicKeyFromBase58, but panics on error. It
// is intended for well known program addresses.
func MustPublicKeyFromBase58(s string) PublicKey {
	pub, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pub
}

// PublicKey implements HasPublicKey.
func (k PublicKey) PublicKey() PublicKey {
	return k
}

// Bytes returns a copy of the raw key bytes.
func (k PublicKey) Bytes() []byte {
	b := make([]byte, len(k))
	copy(b, k[:])
	return b
}

// ToBase58 returns the canonical text form of the key.
func (k PublicKey) ToBase58() string {
	return base58.Encode(k[:])
}

func (k PublicKey) String() string {
	return k.ToBase58()
}

func (k PublicKey) Equals(other PublicKey) bool {
	return k == other
}

// ToEd25519 returns the key in the form used by crypto/ed25519.
func (k PublicKey) ToEd25519() ed25519.PublicKey {
	return ed25519.PublicKey(k.Bytes())
}

// SignatureFromBytes returns a Signature from raw bytes, which must be exactly
// 64 bytes long.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != len(sig) {
		return sig, errors.Wrapf(ErrInvalidSignatureLength, "got %d bytes", len(b))
	}

	copy(sig[:], b)
	return sig, nil
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// BlockhashFromBase58 parses the base58 text form of a Blockhash.
func BlockhashFromBase58(s string) (Blockhash, error) {
	var hash Blockhash

	decoded, err := base58.Decode(s)
	if err != nil {
		return hash, errors.Wrapf(ErrInvalidBase58, "%s: %v", s, err)
	}
	if len(decoded) != len(hash) {
		return hash, errors.Errorf("invalid blockhash length: %d", len(decoded))
	}

	copy(hash[:], decoded)
	return hash, nil
}

func (h Blockhash) String() string {
	return base58.Encode(h[:])
}
