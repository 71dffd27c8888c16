package solana

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta is an account referenced by an instruction, along with the
// permissions the instruction requires of it.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	isPayer   bool
	isProgram bool
}

// NewAccountMeta returns a writable AccountMeta.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner, IsWritable: true}
}

func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{PublicKey: pub, IsSigner: isSigner}
}

// merge widens the permissions of m with those of another reference to the
// same account.
func (m *AccountMeta) merge(other AccountMeta) {
	m.IsSigner = m.IsSigner || other.IsSigner
	m.IsWritable = m.IsWritable || other.IsWritable
	m.isPayer = m.isPayer || other.isPayer
}

// compareAccountMeta orders accounts the way the runtime expects them in a
// message: the payer, then signers before non-signers, writable before
// readonly within each, and programs last. Ties are broken by key.
//
// Reference: https://solana.com/docs/core/transactions#account-addresses
func compareAccountMeta(a, b AccountMeta) int {
	rank := func(m AccountMeta) int {
		switch {
		case m.isPayer:
			return 0
		case m.isProgram:
			return 5
		case m.IsSigner && m.IsWritable:
			return 1
		case m.IsSigner:
			return 2
		case m.IsWritable:
			return 3
		}
		return 4
	}

	if ra, rb := rank(a), rank(b); ra != rb {
		return ra - rb
	}
	return bytes.Compare(a.PublicKey, b.PublicKey)
}

// Instruction is a single program invocation within a transaction.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction is an Instruction whose program and accounts are
// indexes into the message account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
