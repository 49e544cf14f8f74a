package solana

import (
	"crypto/sha256"
	"hash"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	programDerivedAddressMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrInvalidSeeds is returned when the derived address lies on the ed25519
	// curve, and therefore could have a private key.
	ErrInvalidSeeds = errors.New("invalid seeds, address must fall off the curve")

	ErrNoViableAddress = errors.New("unable to find a viable program address nonce")
)

// AddressDeriver derives program and seeded addresses using a configurable
// hash constructor. The zero value is not usable; use NewAddressDeriver.
type AddressDeriver struct {
	hashCtor func() hash.Hash
}

// NewAddressDeriver returns an AddressDeriver hashing with hashCtor. A nil
// hashCtor selects SHA-256, which is what the network uses.
func NewAddressDeriver(hashCtor func() hash.Hash) *AddressDeriver {
	if hashCtor == nil {
		hashCtor = sha256.New
	}
	return &AddressDeriver{hashCtor: hashCtor}
}

var defaultDeriver = NewAddressDeriver(sha256.New)

// CreateWithSeed derives an address from a base key, a seed string and an
// owning program. No curve check is applied.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L141
func CreateWithSeed(base PublicKey, seed string, owner PublicKey) (PublicKey, error) {
	return defaultDeriver.CreateWithSeed(base, seed, owner)
}

// CreateProgramAddress mirrors the implementation of the Solana SDK's CreateProgramAddress.
//
// ProgramAddresses are public keys that _do not_ lie on the ed25519 curve to ensure that
// there is no associated private key. In the event that the program and seed parameters
// result in a valid public key, ErrInvalidSeeds is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program PublicKey, seeds ...[]byte) (PublicKey, error) {
	return defaultDeriver.CreateProgramAddress(program, seeds...)
}

// FindProgramAddressAndBump mirrors the implementation of the Solana SDK's
// FindProgramAddress. It returns the address and bump seed.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program PublicKey, seeds ...[]byte) (PublicKey, uint8, error) {
	return defaultDeriver.FindProgramAddressAndBump(program, seeds...)
}

// FindProgramAddress is like FindProgramAddressAndBump, but only returns the address.
func FindProgramAddress(program PublicKey, seeds ...[]byte) (PublicKey, error) {
	pub, _, err := defaultDeriver.FindProgramAddressAndBump(program, seeds...)
	return pub, err
}

func (d *AddressDeriver) CreateWithSeed(base PublicKey, seed string, owner PublicKey) (PublicKey, error) {
	if len(seed) > maxSeedLength {
		return PublicKey{}, ErrMaxSeedLengthExceeded
	}

	return d.hash(base[:], []byte(seed), owner[:])
}

func (d *AddressDeriver) CreateProgramAddress(program PublicKey, seeds ...[]byte) (PublicKey, error) {
	if len(seeds) > maxSeeds {
		return PublicKey{}, ErrTooManySeeds
	}

	parts := make([][]byte, 0, len(seeds)+2)
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return PublicKey{}, ErrMaxSeedLengthExceeded
		}
		parts = append(parts, s)
	}
	parts = append(parts, program[:], []byte(programDerivedAddressMarker))

	pub, err := d.hash(parts...)
	if err != nil {
		return PublicKey{}, err
	}

	// Following the Solana SDK, we want to _reject_ the generated public key
	// if it's a valid compressed EdwardsPoint.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	if IsOnCurve(pub[:]) {
		return PublicKey{}, ErrInvalidSeeds
	}

	return pub, nil
}

func (d *AddressDeriver) FindProgramAddressAndBump(program PublicKey, seeds ...[]byte) (PublicKey, uint8, error) {
	bumpSeed := []byte{math.MaxUint8}
	withBump := append(append(make([][]byte, 0, len(seeds)+1), seeds...), bumpSeed)

	for i := 0; i < math.MaxUint8; i++ {
		pub, err := d.CreateProgramAddress(program, withBump...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidSeeds {
			return PublicKey{}, 0, err
		}

		bumpSeed[0]--
	}

	return PublicKey{}, 0, ErrNoViableAddress
}

func (d *AddressDeriver) hash(parts ...[]byte) (PublicKey, error) {
	h := d.hashCtor()
	for _, p := range parts {
		if _, err := h.Write(p); err != nil {
			return PublicKey{}, errors.Wrap(err, "failed to hash seed")
		}
	}

	var pub PublicKey
	copy(pub[:], h.Sum(nil))
	return pub, nil
}

// IsOnCurve reports whether b is a valid compressed ed25519 point.
//
// The edwards25519.ExtendedGroupElement (the EdwardsPoint) is internal to the
// golang.org/x/crypto library, so we rely on an open source alternative that
// performs the same decompression as ed25519.Verify().
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}

	var compressed [32]byte
	copy(compressed[:], b)

	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&compressed)
}
