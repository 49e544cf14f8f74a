package computebudget

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	solbin "github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

// ProgramKey is the address of the compute budget program.
//
// Current key: ComputeBudget111111111111111111111111111111
var ProgramKey = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")

type Command byte

const (
	// nolint:varcheck,deadcode,unused
	CommandRequestUnits Command = iota
	CommandRequestHeapFrame
	CommandSetComputeUnitLimit
	CommandSetComputeUnitPrice
)

// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/src/compute_budget.rs
func RequestHeapFrame(bytes uint32) solana.Instruction {
	return solana.NewInstruction(ProgramKey, encodeU32(CommandRequestHeapFrame, bytes))
}

func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	return solana.NewInstruction(ProgramKey, encodeU32(CommandSetComputeUnitLimit, computeUnitLimit))
}

// SetComputeUnitPrice sets the prioritization fee, in micro-lamports per
// compute unit.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	b := solbin.New(nil)
	b.PushByte(byte(CommandSetComputeUnitPrice))
	b.PushUint64(microLamports)
	return solana.NewInstruction(ProgramKey, b.Bytes())
}

func encodeU32(command Command, v uint32) []byte {
	b := solbin.New(nil)
	b.PushByte(byte(command))
	b.PushUint32(v)
	return b.Bytes()
}

func ParseRequestHeapFrameIxnData(data []byte) (uint32, error) {
	if err := checkData(data, CommandRequestHeapFrame, 5); err != nil {
		return 0, err
	}
	return solbin.New(data).Uint32(1)
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if err := checkData(data, CommandSetComputeUnitLimit, 5); err != nil {
		return 0, err
	}
	return solbin.New(data).Uint32(1)
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if err := checkData(data, CommandSetComputeUnitPrice, 9); err != nil {
		return 0, err
	}
	return solbin.New(data).Uint64(1)
}

func checkData(data []byte, command Command, size int) error {
	if len(data) != size {
		return errors.Errorf("invalid length: %d (expected %d)", len(data), size)
	}
	if Command(data[0]) != command {
		return solana.ErrIncorrectInstruction
	}
	return nil
}

// GetComputeBudget returns the compute unit limit and price requested by the
// message. Unset values are zero.
func GetComputeBudget(m solana.Message) (limit uint32, microLamports uint64, err error) {
	for i, ixn := range m.Instructions {
		if m.Accounts[ixn.ProgramIndex] != ProgramKey || len(ixn.Data) == 0 {
			continue
		}

		switch Command(ixn.Data[0]) {
		case CommandSetComputeUnitLimit:
			if limit, err = ParseSetComputeUnitLimitIxnData(ixn.Data); err != nil {
				return 0, 0, errors.Wrapf(err, "instruction %d", i)
			}
		case CommandSetComputeUnitPrice:
			if microLamports, err = ParseSetComputeUnitPriceIxnData(ixn.Data); err != nil {
				return 0, 0, errors.Wrapf(err, "instruction %d", i)
			}
		}
	}

	return limit, microLamports, nil
}
