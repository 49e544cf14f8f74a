// Package ed25519 builds instructions for the native signature verification
// program, which checks signatures over arbitrary messages as part of a
// transaction.
package ed25519

import (
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	solbin "github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

// ProgramKey is the address of the signature verification program.
//
// Current key: Ed25519SigVerify111111111111111111111111111
var ProgramKey = solana.MustPublicKeyFromBase58("Ed25519SigVerify111111111111111111111111111")

const (
	headerSize     = 16
	publicKeyStart = headerSize
	signatureStart = publicKeyStart + ed25519.PublicKeySize
	messageStart   = signatureStart + ed25519.SignatureSize

	// currentInstruction marks offsets that refer to the instruction itself.
	currentInstruction = math.MaxUint16
)

// Instruction returns an instruction that verifies the signature of signer
// over message.
//
// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/src/ed25519_instruction.rs#L32
func Instruction(signer solana.Signer, message []byte) (solana.Instruction, error) {
	if messageStart+len(message) > math.MaxUint16 {
		return solana.Instruction{}, errors.Errorf("message too large: %d bytes", len(message))
	}

	signature := ed25519.Sign(signer.SecretKey(), message)
	publicKey := signer.PublicKey()

	b := solbin.New(nil)
	b.PushByte(1) // num_signatures
	b.PushByte(0) // padding
	b.PushUint16(signatureStart)
	b.PushUint16(currentInstruction)
	b.PushUint16(publicKeyStart)
	b.PushUint16(currentInstruction)
	b.PushUint16(messageStart)
	b.PushUint16(uint16(len(message)))
	b.PushUint16(currentInstruction)
	b.PushBytes(publicKey[:])
	b.PushBytes(signature)
	b.PushBytes(message)

	return solana.NewInstruction(ProgramKey, b.Bytes()), nil
}

type DecompiledInstruction struct {
	PublicKey solana.PublicKey
	Signature solana.Signature
	Message   []byte
}

// DecompileInstruction parses a single signature instruction whose offsets
// all refer to its own data, as built by Instruction.
func DecompileInstruction(data []byte) (*DecompiledInstruction, error) {
	if len(data) < messageStart {
		return nil, errors.Errorf("invalid length: %d", len(data))
	}

	b := solbin.New(data)
	if data[0] != 1 {
		return nil, errors.Errorf("unsupported number of signatures: %d", data[0])
	}

	var offsets [7]uint16
	for i := range offsets {
		v, err := b.Uint16(2 + 2*i)
		if err != nil {
			return nil, err
		}
		offsets[i] = v
	}

	if offsets[0] != signatureStart || offsets[2] != publicKeyStart || offsets[4] != messageStart {
		return nil, errors.New("unsupported data offsets")
	}
	if offsets[1] != currentInstruction || offsets[3] != currentInstruction || offsets[6] != currentInstruction {
		return nil, errors.New("unsupported instruction index")
	}
	if int(offsets[5]) != len(data)-messageStart {
		return nil, errors.Errorf("message size mismatch: %d", offsets[5])
	}

	var d DecompiledInstruction
	copy(d.PublicKey[:], data[publicKeyStart:signatureStart])
	copy(d.Signature[:], data[signatureStart:messageStart])
	d.Message = append([]byte(nil), data[messageStart:]...)
	return &d, nil
}

// Verify reports whether the signature of the instruction is valid.
func (d *DecompiledInstruction) Verify() bool {
	return ed25519.Verify(d.PublicKey.ToEd25519(), d.Message, d.Signature[:])
}
