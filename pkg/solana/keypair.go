package solana

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/pkg/errors"
)

// HasPublicKey is implemented by anything that can name an account.
type HasPublicKey interface {
	PublicKey() PublicKey
}

// HasSecretKey is implemented by anything that can produce signatures.
type HasSecretKey interface {
	SecretKey() ed25519.PrivateKey
}

// Keypair is an ed25519 key pair. It implements both HasPublicKey and
// HasSecretKey.
type Keypair struct {
	pub  PublicKey
	priv ed25519.PrivateKey
}

// NewRandomKeypair generates a new Keypair from crypto/rand.
func NewRandomKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key")
	}

	return newKeypair(priv), nil
}

// KeypairFromSeed derives a Keypair from a 32 byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("invalid seed length: %d", len(seed))
	}

	return newKeypair(ed25519.NewKeyFromSeed(seed)), nil
}

// KeypairFromSecretKey loads a Keypair from a 64 byte secret key (seed followed
// by the public key). The embedded public key must match the seed.
func KeypairFromSecretKey(secret []byte) (*Keypair, error) {
	if len(secret) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid secret key length: %d", len(secret))
	}

	kp, err := KeypairFromSeed(secret[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}

	if string(kp.priv[ed25519.SeedSize:]) != string(secret[ed25519.SeedSize:]) {
		return nil, errors.New("secret key does not match its public key")
	}

	return kp, nil
}

func newKeypair(priv ed25519.PrivateKey) *Keypair {
	kp := &Keypair{priv: priv}
	copy(kp.pub[:], priv.Public().(ed25519.PublicKey))
	return kp
}

func (kp *Keypair) PublicKey() PublicKey {
	return kp.pub
}

func (kp *Keypair) SecretKey() ed25519.PrivateKey {
	return kp.priv
}

// Sign returns the detached signature of message.
func (kp *Keypair) Sign(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(kp.priv, message))
	return sig
}

// Signer can both name and sign for an account.
type Signer interface {
	HasPublicKey
	HasSecretKey
}
