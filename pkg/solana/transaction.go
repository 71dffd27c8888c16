package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"slices"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

// MaxTransactionSize is the largest serialized transaction a validator
// accepts, the IPv6 MTU minus headers.
//
// Reference: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
const MaxTransactionSize = 1232

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// Message is a legacy transaction message. Address lookup tables are not
// needed by any transaction this module composes.
type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into a legacy transaction paid
// for by payer. Instruction order is preserved.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	accounts := []AccountMeta{{PublicKey: payer, IsSigner: true, IsWritable: true, isPayer: true}}
	for _, ix := range instructions {
		accounts = append(accounts, AccountMeta{PublicKey: ix.Program, isProgram: true})
		accounts = append(accounts, ix.Accounts...)
	}
	accounts = dedupeAccounts(accounts)
	slices.SortFunc(accounts, compareAccountMeta)

	var m Message
	for _, account := range accounts {
		m.Accounts = append(m.Accounts, account.PublicKey)

		switch {
		case account.IsSigner:
			m.Header.NumSignatures++
			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		case !account.IsWritable:
			m.Header.NumReadOnly++
		}
	}

	for _, ix := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, ix.Program)),
			Accounts:     make([]byte, len(ix.Accounts)),
			Data:         ix.Data,
		}
		for i, a := range ix.Accounts {
			compiled.Accounts[i] = byte(indexOf(m.Accounts, a.PublicKey))
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	for i := range m.Accounts {
		if len(m.Accounts[i]) == 0 {
			m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		}
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// Signature returns the fee payer signature, which identifies the transaction.
func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign signs the message with each signer, which must be one of the
// message's required signers.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	message := t.Message.Marshal()

	for _, signer := range signers {
		pub := signer.Public().(ed25519.PublicKey)
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 || index >= len(t.Signatures) {
			return errors.Errorf("%s is not a required signer", base58.Encode(pub))
		}
		copy(t.Signatures[index][:], ed25519.Sign(signer, message))
	}
	return nil
}

// VerifySignatures checks that every required signer has produced a valid
// signature over the message.
func (t *Transaction) VerifySignatures() error {
	if len(t.Signatures) != int(t.Message.Header.NumSignatures) {
		return errors.Errorf("expected %d signatures, got %d", t.Message.Header.NumSignatures, len(t.Signatures))
	}

	var empty Signature
	message := t.Message.Marshal()
	for i, sig := range t.Signatures {
		signer := t.Message.Accounts[i]
		switch {
		case sig == empty:
			return errors.Wrapf(ErrMissingSignature, "signer %s", base58.Encode(signer))
		case !ed25519.Verify(signer, message, sig[:]):
			return errors.Wrapf(ErrInvalidSignature, "signer %s", base58.Encode(signer))
		}
	}
	return nil
}

// IsSigner reports whether the account at the message index is a required signer.
func (m Message) IsSigner(index int) bool {
	return index < int(m.Header.NumSignatures)
}

// IsWritable reports whether the account at the message index is writable.
func (m Message) IsWritable(index int) bool {
	if m.IsSigner(index) {
		return index < int(m.Header.NumSignatures-m.Header.NumReadonlySigned)
	}
	return index < len(m.Accounts)-int(m.Header.NumReadOnly)
}

// DecompileInstruction expands the compiled instruction at index back into
// an Instruction with its account permissions.
func (m Message) DecompileInstruction(index int) (Instruction, error) {
	if index < 0 || index >= len(m.Instructions) {
		return Instruction{}, errors.Errorf("instruction index out of range: %d", index)
	}

	compiled := m.Instructions[index]
	if int(compiled.ProgramIndex) >= len(m.Accounts) {
		return Instruction{}, errors.Errorf("program index out of range: %d", compiled.ProgramIndex)
	}

	ix := Instruction{
		Program:  m.Accounts[compiled.ProgramIndex],
		Data:     compiled.Data,
		Accounts: make([]AccountMeta, len(compiled.Accounts)),
	}
	for i, accountIndex := range compiled.Accounts {
		j := int(accountIndex)
		if j >= len(m.Accounts) {
			return Instruction{}, errors.Errorf("account index out of range: %d", j)
		}
		ix.Accounts[i] = AccountMeta{
			PublicKey:  m.Accounts[j],
			IsSigner:   m.IsSigner(j),
			IsWritable: m.IsWritable(j),
		}
	}
	return ix, nil
}

// dedupeAccounts collapses repeated references to an account into its first
// occurrence, keeping the widest permissions.
func dedupeAccounts(accounts []AccountMeta) []AccountMeta {
	unique := make([]AccountMeta, 0, len(accounts))
	for _, account := range accounts {
		if i := slices.IndexFunc(unique, func(m AccountMeta) bool {
			return bytes.Equal(m.PublicKey, account.PublicKey)
		}); i >= 0 {
			unique[i].merge(account)
			continue
		}
		unique = append(unique, account)
	}
	return unique
}

func indexOf(keys []ed25519.PublicKey, key ed25519.PublicKey) int {
	return slices.IndexFunc(keys, func(k ed25519.PublicKey) bool {
		return bytes.Equal(k, key)
	})
}
