package solana

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana/shortvec"
)

// Marshal returns the wire form of the message. Every length must fit in a
// u16 compact prefix, which CompileMessage checks.
func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Header
	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadonlyUnsigned)

	// Accounts
	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a[:])
	}

	// Recent Blockhash
	_, _ = b.Write(m.RecentBlockhash[:])

	// Instructions
	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		// Accounts
		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		// Data
		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	return b.Bytes()
}

// Unmarshal parses a legacy message. Any bytes after the last instruction are
// rejected.
func (m *Message) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)
	if err := m.unmarshal(buf); err != nil {
		return err
	}
	if buf.Len() > 0 {
		return errors.Errorf("%d trailing bytes after message", buf.Len())
	}
	return nil
}

func (m *Message) unmarshal(buf *bytes.Buffer) (err error) {
	if buf.Len() > 0 && buf.Bytes()[0]&0x80 != 0 {
		return errors.New("versioned messages not supported")
	}

	// Header
	if m.Header.NumSignatures, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num signatures")
	}
	if m.Header.NumReadonlySigned, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly signatures")
	}
	if m.Header.NumReadonlyUnsigned, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly")
	}

	// Accounts
	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	if accountLen < int(m.Header.NumSignatures) ||
		m.Header.NumReadonlySigned > m.Header.NumSignatures ||
		int(m.Header.NumSignatures)+int(m.Header.NumReadonlyUnsigned) > accountLen {
		return errors.Errorf("header inconsistent with %d accounts", accountLen)
	}

	m.Accounts = make([]PublicKey, accountLen)
	for i := 0; i < accountLen; i++ {
		if _, err = io.ReadFull(buf, m.Accounts[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	// Recent block hash
	if _, err = io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}

	// Instructions
	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := 0; i < instructionLen; i++ {
		var c CompiledInstruction

		// Program Index
		if c.ProgramIndex, err = buf.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}
		if int(c.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
		}

		// Account Indexes
		accountLen, err = shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] account len", i)
		}
		if c.Accounts, err = readBytes(buf, accountLen); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}

		for _, index := range c.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("account index out of range: %d:%d", i, index)
			}
		}

		// Data
		dataLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data len", i)
		}
		if c.Data, err = readBytes(buf, dataLen); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}

		m.Instructions[i] = c
	}

	return nil
}

// Marshal returns the wire form of an already compiled transaction.
func (t SignedTransaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Signatures
	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	// Message
	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

// Unmarshal parses the wire form of a transaction.
func (t *SignedTransaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	if err := t.Message.Unmarshal(buf.Bytes()); err != nil {
		return err
	}
	if sigLen != int(t.Message.Header.NumSignatures) {
		return errors.Errorf("expected %d signatures, got %d", t.Message.Header.NumSignatures, sigLen)
	}

	return nil
}

// readBytes reads exactly n bytes, returning nil for n == 0.
func readBytes(buf *bytes.Buffer, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	out := make([]byte, n)
	if _, err := io.ReadFull(buf, out); err != nil {
		return nil, err
	}
	return out, nil
}
