package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
)

// ProgramKey is the system program, 11111111111111111111111111111111.
var ProgramKey [32]byte

// Command is the u32 discriminator of a system instruction.
type Command uint32

const (
	CommandCreateAccount Command = iota
	CommandAssign
	CommandTransfer
)

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L18
const (
	ErrorAccountAlreadyInUse solana.CustomError = iota
	ErrorResultWithNegativeLamports
	ErrorInvalidProgramID
	ErrorInvalidAccountDataLength
)

// MaxPermittedDataLength is the largest account that CreateAccount allocates.
const MaxPermittedDataLength = 10 * 1024 * 1024

const createAccountDataSize = 4 + 2*8 + ed25519.PublicKeySize

// CreateAccount allocates size bytes at address, funds it with lamports from
// funder and assigns it to owner.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	data := make([]byte, createAccountDataSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandCreateAccount))
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey[:]) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) < 4 || Command(binary.LittleEndian.Uint32(i.Data)) != CommandCreateAccount {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != createAccountDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledCreateAccount{
		Funder:   m.Accounts[i.Accounts[0]],
		Address:  m.Accounts[i.Accounts[1]],
		Lamports: binary.LittleEndian.Uint64(i.Data[4:]),
		Size:     binary.LittleEndian.Uint64(i.Data[4+8:]),
		Owner:    append(ed25519.PublicKey(nil), i.Data[4+2*8:]...),
	}, nil
}

// GetCommand returns the system command of the instruction at index.
func GetCommand(m solana.Message, index int) (Command, error) {
	if index >= len(m.Instructions) {
		return 0, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey[:]) {
		return 0, solana.ErrIncorrectProgram
	}
	if len(i.Data) < 4 {
		return 0, solana.ErrIncorrectInstruction
	}

	return Command(binary.LittleEndian.Uint32(i.Data)), nil
}
