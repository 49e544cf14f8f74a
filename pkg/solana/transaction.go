package solana

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232

	// maxSignatures is the first signature count that no longer fits the
	// wire format's signature budget.
	maxSignatures = 256
)

var (
	ErrNoSigners                   = errors.New("no signers")
	ErrInvalidSignatureLength      = errors.New("signature has invalid length")
	ErrSignatureVerificationFailed = errors.New("signature verification failed")
	ErrTransactionTooLarge         = errors.New("transaction too large")
	ErrTooManySignatures           = errors.New("too many signatures to encode")
)

// SignaturePubkeyPair is a signature slot. Signature is nil until PublicKey
// has signed.
type SignaturePubkeyPair struct {
	PublicKey PublicKey
	Signature *Signature
}

// NonceInformation enables a durable nonce to be used in place of a recent
// blockhash. NonceInstruction must advance the nonce account.
type NonceInformation struct {
	Nonce            Blockhash
	NonceInstruction Instruction
}

// Transaction builds, signs and serializes a legacy transaction.
//
// A Transaction is not safe for concurrent use. In particular, signing
// compiles the message and fills the signature slots as a single unit.
type Transaction struct {
	Signatures      []SignaturePubkeyPair
	RecentBlockhash *Blockhash
	FeePayer        *PublicKey
	NonceInfo       *NonceInformation
	Instructions    []Instruction
}

// SignedTransaction is the wire level view of a transaction: the compiled
// message and one signature per required signer.
type SignedTransaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction returns a transaction paid for by payer.
func NewTransaction(payer PublicKey, blockhash Blockhash, instructions ...Instruction) *Transaction {
	return &Transaction{
		FeePayer:        &payer,
		RecentBlockhash: &blockhash,
		Instructions:    instructions,
	}
}

// ParseTransaction parses the wire form of a transaction.
func ParseTransaction(b []byte) (*Transaction, error) {
	var t Transaction
	if err := t.Unmarshal(b); err != nil {
		return nil, err
	}
	return &t, nil
}

// Add appends instructions to the transaction. Any existing signatures are
// invalidated by the change in message content.
func (t *Transaction) Add(instructions ...Instruction) *Transaction {
	t.Instructions = append(t.Instructions, instructions...)
	return t
}

// SetBlockhash sets the recent blockhash.
func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.RecentBlockhash = &bh
}

// Signature returns the first signature, which identifies the transaction,
// or nil if it has not been signed by the fee payer.
func (t *Transaction) Signature() *Signature {
	if len(t.Signatures) == 0 {
		return nil
	}
	return t.Signatures[0].Signature
}

// SerializeMessage returns the bytes that signers sign.
func (t *Transaction) SerializeMessage() ([]byte, error) {
	m, err := t.CompileMessage()
	if err != nil {
		return nil, err
	}
	return m.Marshal(), nil
}

// SetSigners resets the signature slots to one empty slot per distinct key.
// The first key pays the fee unless FeePayer is set.
func (t *Transaction) SetSigners(signers ...PublicKey) error {
	if len(signers) == 0 {
		return ErrNoSigners
	}

	t.Signatures = nil
	for _, pub := range signers {
		if t.slotIndex(pub) >= 0 {
			continue
		}
		t.Signatures = append(t.Signatures, SignaturePubkeyPair{PublicKey: pub})
	}

	return nil
}

// Sign resets the signature slots to the provided signers and signs the
// message with each of them that holds a secret key.
func (t *Transaction) Sign(signers ...HasPublicKey) error {
	return t.sign(signers)
}

// PartialSign is like Sign, but signers without a secret key only reserve a
// slot, so their signature can be supplied later via AddSignature or AddSigner.
func (t *Transaction) PartialSign(signers ...HasPublicKey) error {
	return t.sign(signers)
}

func (t *Transaction) sign(signers []HasPublicKey) error {
	if len(signers) == 0 {
		return ErrNoSigners
	}

	var unique []HasPublicKey
	var keys []PublicKey
	for _, s := range signers {
		pub := s.PublicKey()
		if indexOfKey(keys, pub) >= 0 {
			continue
		}
		unique = append(unique, s)
		keys = append(keys, pub)
	}

	previous := t.Signatures
	if err := t.SetSigners(keys...); err != nil {
		return err
	}

	m, err := t.compile()
	if err != nil {
		t.Signatures = previous
		return err
	}
	message := m.Marshal()

	for _, s := range unique {
		sk, ok := s.(HasSecretKey)
		if !ok {
			continue
		}

		if err := t.addSignature(s.PublicKey(), ed25519.Sign(sk.SecretKey(), message)); err != nil {
			return err
		}
	}

	return nil
}

// AddSigner signs the message with signer, filling its existing slot without
// resetting other signatures.
func (t *Transaction) AddSigner(signer Signer) error {
	m, err := t.compile()
	if err != nil {
		return err
	}

	return t.addSignature(signer.PublicKey(), ed25519.Sign(signer.SecretKey(), m.Marshal()))
}

// AddSignature inserts an externally produced signature into the slot of pub.
func (t *Transaction) AddSignature(pub PublicKey, sig []byte) error {
	if len(sig) != ed25519.SignatureSize {
		return errors.Wrapf(ErrInvalidSignatureLength, "got %d bytes", len(sig))
	}

	if _, err := t.compile(); err != nil {
		return err
	}

	return t.addSignature(pub, sig)
}

func (t *Transaction) addSignature(pub PublicKey, sig []byte) error {
	signature, err := SignatureFromBytes(sig)
	if err != nil {
		return err
	}

	i := t.slotIndex(pub)
	if i < 0 {
		return errors.Wrap(ErrUnknownSigner, pub.ToBase58())
	}

	t.Signatures[i].Signature = &signature
	return nil
}

// VerifySignatures verifies every signature slot against the message. Empty
// slots only fail verification if requireAllSignatures is set.
func (t *Transaction) VerifySignatures(requireAllSignatures bool) (bool, error) {
	message, err := t.SerializeMessage()
	if err != nil {
		return false, err
	}

	return t.verifySignatures(message, requireAllSignatures), nil
}

func (t *Transaction) verifySignatures(message []byte, requireAllSignatures bool) bool {
	for _, s := range t.Signatures {
		if s.Signature == nil {
			if requireAllSignatures {
				return false
			}
			continue
		}

		if !ed25519.Verify(s.PublicKey.ToEd25519(), message, s.Signature[:]) {
			return false
		}
	}

	return true
}

// Serialize returns the wire form of the transaction. Empty signature slots
// are encoded as 64 zero bytes.
func (t *Transaction) Serialize(requireAllSignatures, verifySignatures bool) ([]byte, error) {
	m, err := t.compile()
	if err != nil {
		return nil, err
	}

	if verifySignatures && !t.verifySignatures(m.Marshal(), requireAllSignatures) {
		return nil, ErrSignatureVerificationFailed
	}

	signed := SignedTransaction{
		Signatures: make([]Signature, len(t.Signatures)),
		Message:    m,
	}
	for i, s := range t.Signatures {
		if s.Signature != nil {
			signed.Signatures[i] = *s.Signature
		}
	}

	b := signed.Marshal()
	if len(b) > MaxTransactionSize {
		return nil, errors.Wrapf(ErrTransactionTooLarge, "%d > %d", len(b), MaxTransactionSize)
	}

	return b, nil
}

// Unmarshal parses the wire form of a transaction. Signature slots of 64 zero
// bytes are treated as empty.
func (t *Transaction) Unmarshal(b []byte) error {
	var signed SignedTransaction
	if err := signed.Unmarshal(b); err != nil {
		return err
	}

	*t = *populate(signed.Message, signed.Signatures)
	return nil
}

// populate reconstructs a Transaction from a compiled message. len(signatures)
// must not exceed the number of message accounts.
func populate(m Message, signatures []Signature) *Transaction {
	blockhash := m.RecentBlockhash
	t := &Transaction{
		RecentBlockhash: &blockhash,
	}

	if m.Header.NumSignatures > 0 {
		payer := m.Accounts[0]
		t.FeePayer = &payer
	}

	for i, sig := range signatures {
		pair := SignaturePubkeyPair{PublicKey: m.Accounts[i]}
		if sig != (Signature{}) {
			s := sig
			pair.Signature = &s
		}
		t.Signatures = append(t.Signatures, pair)
	}

	for _, c := range m.Instructions {
		i := Instruction{
			Program: m.Accounts[c.ProgramIndex],
			Data:    c.Data,
		}

		for _, index := range c.Accounts {
			pub := m.Accounts[index]
			i.Accounts = append(i.Accounts, AccountMeta{
				PublicKey:  pub,
				IsSigner:   t.slotIndex(pub) >= 0 || m.IsAccountSigner(int(index)),
				IsWritable: m.IsAccountWritable(int(index)),
			})
		}

		t.Instructions = append(t.Instructions, i)
	}

	return t
}

func (t *Transaction) slotIndex(pub PublicKey) int {
	for i, s := range t.Signatures {
		if s.PublicKey == pub {
			return i
		}
	}
	return -1
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sig := "<none>"
		if s.Signature != nil {
			sig = s.Signature.String()
		}
		sb.WriteString(fmt.Sprintf("  %d: %s %s\n", i, s.PublicKey, sig))
	}
	if t.FeePayer != nil {
		sb.WriteString(fmt.Sprintf("FeePayer: %s\n", t.FeePayer))
	}
	if t.RecentBlockhash != nil {
		sb.WriteString(fmt.Sprintf("RecentBlockhash: %s\n", t.RecentBlockhash))
	}
	if t.NonceInfo != nil {
		sb.WriteString(fmt.Sprintf("Nonce: %s\n", t.NonceInfo.Nonce))
	}
	sb.WriteString("Instructions:\n")
	for i, instruction := range t.Instructions {
		sb.WriteString(fmt.Sprintf("  %d:\n", i))
		sb.WriteString(fmt.Sprintf("    Program: %s\n", instruction.Program))
		sb.WriteString("    Accounts:\n")
		for _, a := range instruction.Accounts {
			sb.WriteString(fmt.Sprintf("      %s signer=%t writable=%t\n", a.PublicKey, a.IsSigner, a.IsWritable))
		}
		sb.WriteString(fmt.Sprintf("    Data: %v\n", instruction.Data))
	}
	return sb.String()
}
