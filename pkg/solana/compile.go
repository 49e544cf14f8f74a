package solana

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/shortvec"
)

// maxAccounts is the number of accounts addressable by a one byte index.
const maxAccounts = 256

var (
	ErrMissingBlockhash = errors.New("transaction recent blockhash required")
	ErrMissingFeePayer  = errors.New("transaction fee payer required")
	ErrNoInstructions   = errors.New("no instructions provided")
	ErrUnknownSigner    = errors.New("unknown signer")
	ErrTooManyAccounts  = errors.New("too many accounts")
)

// CompileMessage compiles the transaction's instructions into the canonical
// message. It does not modify the transaction.
//
// Accounts are ordered as:
//  1. The fee payer.
//  2. Signers before non-signers.
//  3. Writable accounts before readonly accounts.
//
// Ties keep the order in which accounts were first referenced, with each
// instruction's program appended after all instruction accounts.
func (t *Transaction) CompileMessage() (Message, error) {
	blockhash := t.RecentBlockhash
	instructions := t.Instructions
	if t.NonceInfo != nil {
		nonce := t.NonceInfo.Nonce
		blockhash = &nonce

		if len(instructions) == 0 || !instructions[0].Equals(t.NonceInfo.NonceInstruction) {
			instructions = append([]Instruction{t.NonceInfo.NonceInstruction}, instructions...)
		}
	}

	if blockhash == nil {
		return Message{}, ErrMissingBlockhash
	}
	if len(instructions) == 0 {
		return Message{}, ErrNoInstructions
	}
	if err := checkLengths(instructions); err != nil {
		return Message{}, err
	}

	var feePayer PublicKey
	switch {
	case t.FeePayer != nil:
		feePayer = *t.FeePayer
	case len(t.Signatures) > 0:
		feePayer = t.Signatures[0].PublicKey
	default:
		return Message{}, ErrMissingFeePayer
	}

	// Instruction accounts first, followed by each distinct program.
	var metas []AccountMeta
	var programs []PublicKey
	for _, i := range instructions {
		metas = append(metas, i.Accounts...)
		if indexOfKey(programs, i.Program) < 0 {
			programs = append(programs, i.Program)
		}
	}
	for _, p := range programs {
		metas = append(metas, NewReadonlyAccountMeta(p, false))
	}

	sort.Stable(SortableAccountMeta(metas))
	unique := filterUnique(metas)

	if i := indexOfMeta(unique, feePayer); i >= 0 {
		unique = append(unique[:i], unique[i+1:]...)
	}
	unique = append([]AccountMeta{NewAccountMeta(feePayer, true)}, unique...)

	// Keys that already have a signature slot must sign, even if no
	// instruction requires it.
	for _, s := range t.Signatures {
		i := indexOfMeta(unique, s.PublicKey)
		if i < 0 {
			return Message{}, errors.Wrap(ErrUnknownSigner, s.PublicKey.ToBase58())
		}
		unique[i].IsSigner = true
	}

	// Merged writable flags and promoted signers may leave accounts outside
	// of their header partition. The fee payer is a writable signer, so it
	// stays first.
	sort.Stable(SortableAccountMeta(unique))

	if len(unique) > maxAccounts {
		return Message{}, errors.Wrapf(ErrTooManyAccounts, "%d (max %d)", len(unique), maxAccounts)
	}

	// The header counts are single bytes.
	var signers int
	for _, a := range unique {
		if a.IsSigner {
			signers++
		}
	}
	if signers >= maxSignatures {
		return Message{}, errors.Wrapf(ErrTooManySignatures, "%d signers", signers)
	}

	m := Message{
		RecentBlockhash: *blockhash,
	}
	for _, a := range unique {
		m.Accounts = append(m.Accounts, a.PublicKey)

		if a.IsSigner {
			m.Header.NumSignatures++

			if !a.IsWritable {
				m.Header.NumReadonlySigned++
			}
		} else if !a.IsWritable {
			m.Header.NumReadonlyUnsigned++
		}
	}

	// Generate the compiled instruction, which uses indices instead
	// of raw account keys.
	for _, i := range instructions {
		c := CompiledInstruction{
			ProgramIndex: byte(m.indexOf(i.Program)),
			Data:         i.Data,
		}

		for _, a := range i.Accounts {
			c.Accounts = append(c.Accounts, byte(m.indexOf(a.PublicKey)))
		}

		m.Instructions = append(m.Instructions, c)
	}

	return m, nil
}

// compile compiles the message and aligns the signature slots with the
// message's signer keys. Signatures that were already collected are kept.
func (t *Transaction) compile() (Message, error) {
	m, err := t.CompileMessage()
	if err != nil {
		return m, err
	}

	signers := m.SignerKeys()
	if len(t.Signatures) == len(signers) {
		aligned := true
		for i := range signers {
			if t.Signatures[i].PublicKey != signers[i] {
				aligned = false
				break
			}
		}
		if aligned {
			return m, nil
		}
	}

	existing := make(map[PublicKey]*Signature, len(t.Signatures))
	for _, s := range t.Signatures {
		existing[s.PublicKey] = s.Signature
	}

	t.Signatures = make([]SignaturePubkeyPair, len(signers))
	for i, pub := range signers {
		t.Signatures[i] = SignaturePubkeyPair{
			PublicKey: pub,
			Signature: existing[pub],
		}
	}

	return m, nil
}

// checkLengths rejects instructions whose compact length prefixes cannot be
// encoded.
func checkLengths(instructions []Instruction) error {
	if len(instructions) > math.MaxUint16 {
		return errors.Wrapf(shortvec.ErrValueTooLarge, "%d instructions", len(instructions))
	}

	for n, i := range instructions {
		if len(i.Accounts) > math.MaxUint16 {
			return errors.Wrapf(shortvec.ErrValueTooLarge, "instruction %d: %d accounts", n, len(i.Accounts))
		}
		if len(i.Data) > math.MaxUint16 {
			return errors.Wrapf(shortvec.ErrValueTooLarge, "instruction %d: %d data bytes", n, len(i.Data))
		}
	}

	return nil
}

// filterUnique removes duplicate accounts, keeping the first occurrence. An
// account is writable if any of its occurrences is.
func filterUnique(accounts []AccountMeta) []AccountMeta {
	filtered := make([]AccountMeta, 0, len(accounts))

	for i := range accounts {
		if j := indexOfMeta(filtered, accounts[i].PublicKey); j >= 0 {
			if accounts[i].IsWritable {
				filtered[j].IsWritable = true
			}
			continue
		}

		filtered = append(filtered, accounts[i])
	}

	return filtered
}

func indexOfMeta(metas []AccountMeta, pub PublicKey) int {
	for i, m := range metas {
		if m.PublicKey == pub {
			return i
		}
	}

	return -1
}

func indexOfKey(keys []PublicKey, pub PublicKey) int {
	for i, k := range keys {
		if k == pub {
			return i
		}
	}

	return -1
}
