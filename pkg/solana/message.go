package solana

// Header delimits the account list of a Message into four partitions, in
// order: writable signers, readonly signers, writable non-signers and readonly
// non-signers.
type Header struct {
	NumSignatures       byte
	NumReadonlySigned   byte
	NumReadonlyUnsigned byte
}

// Message is the signed portion of a transaction.
type Message struct {
	Header          Header
	Accounts        []PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

// IsAccountSigner reports whether the account at index must sign the message.
func (m Message) IsAccountSigner(index int) bool {
	return index < int(m.Header.NumSignatures)
}

// IsAccountWritable reports whether the account at index is writable.
func (m Message) IsAccountWritable(index int) bool {
	numSigned := int(m.Header.NumSignatures)
	if index < numSigned {
		return index < numSigned-int(m.Header.NumReadonlySigned)
	}

	return index < len(m.Accounts)-int(m.Header.NumReadonlyUnsigned)
}

// IsProgramID reports whether the account at index is invoked as a program by
// any instruction.
func (m Message) IsProgramID(index int) bool {
	for _, i := range m.Instructions {
		if int(i.ProgramIndex) == index {
			return true
		}
	}
	return false
}

// ProgramIDs returns the distinct programs invoked by the message, in order of
// first use.
func (m Message) ProgramIDs() []PublicKey {
	var programs []PublicKey
	seen := make(map[byte]struct{})
	for _, i := range m.Instructions {
		if _, ok := seen[i.ProgramIndex]; ok {
			continue
		}
		seen[i.ProgramIndex] = struct{}{}
		programs = append(programs, m.Accounts[i.ProgramIndex])
	}
	return programs
}

// SignerKeys returns the accounts that must sign the message.
func (m Message) SignerKeys() []PublicKey {
	return m.Accounts[:m.Header.NumSignatures]
}

// indexOf returns the index of pub in the message accounts, or -1.
func (m Message) indexOf(pub PublicKey) int {
	for i, a := range m.Accounts {
		if a == pub {
			return i
		}
	}
	return -1
}
