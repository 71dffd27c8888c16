package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
)

// ProgramKey is the address of the token program.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

type Command byte

const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	CommandInitializeMultisig
	CommandTransfer
	CommandApprove
	CommandRevoke
	CommandSetAuthority
	CommandMintTo

	CommandUnknown = Command(math.MaxUint8)
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/error.rs
const (
	ErrorNotRentExempt solana.CustomError = iota
	ErrorInsufficientFunds
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	ErrorFixedSupply
	ErrorAlreadyInUse
	ErrorInvalidNumberOfProvidedSigners
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	ErrorInvalidState
	ErrorOverflow
	ErrorAuthorityTypeNotSupported
	ErrorMintCannotFreeze
	ErrorAccountFrozen
)

const (
	initializeMintDataSize = 1 + 1 + ed25519.PublicKeySize + 1 + ed25519.PublicKeySize
	mintToDataSize         = 1 + 8
)

func GetCommand(m solana.Message, index int) (Command, error) {
	if index >= len(m.Instructions) {
		return CommandUnknown, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// InitializeMint initializes a freshly allocated mint account. A nil
// freezeAuthority leaves the mint without one.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L29-L40
func InitializeMint(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//   1. `[]` Rent sysvar
	data := make([]byte, initializeMintDataSize)
	data[0] = byte(CommandInitializeMint)
	data[1] = decimals
	copy(data[2:], mintAuthority)
	if len(freezeAuthority) > 0 {
		data[2+ed25519.PublicKeySize] = 1
		copy(data[2+ed25519.PublicKeySize+1:], freezeAuthority)
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeMint struct {
	Mint            ed25519.PublicKey
	Decimals        byte
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
}

func DecompileInitializeMint(m solana.Message, index int) (*DecompiledInitializeMint, error) {
	i, err := getInstruction(m, index, CommandInitializeMint)
	if err != nil {
		return nil, err
	}

	if len(i.Data) != initializeMintDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), 2)
	}
	if !bytes.Equal(m.Accounts[i.Accounts[1]], system.RentSysVar) {
		return nil, errors.New("rent sysvar mismatch")
	}

	v := &DecompiledInitializeMint{
		Mint:          m.Accounts[i.Accounts[0]],
		Decimals:      i.Data[1],
		MintAuthority: append(ed25519.PublicKey(nil), i.Data[2:2+ed25519.PublicKeySize]...),
	}
	if i.Data[2+ed25519.PublicKeySize] == 1 {
		v.FreezeAuthority = append(ed25519.PublicKey(nil), i.Data[2+ed25519.PublicKeySize+1:]...)
	}

	return v, nil
}

// MintTo mints amount new tokens of mint into dest.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L170-L185
func MintTo(mint, dest, authority ed25519.PublicKey, amount uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	data := make([]byte, mintToDataSize)
	data[0] = byte(CommandMintTo)
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledMintTo struct {
	Mint      ed25519.PublicKey
	Dest      ed25519.PublicKey
	Authority ed25519.PublicKey
	Amount    uint64
}

func DecompileMintTo(m solana.Message, index int) (*DecompiledMintTo, error) {
	i, err := getInstruction(m, index, CommandMintTo)
	if err != nil {
		return nil, err
	}

	if len(i.Data) != mintToDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), 3)
	}

	return &DecompiledMintTo{
		Mint:      m.Accounts[i.Accounts[0]],
		Dest:      m.Accounts[i.Accounts[1]],
		Authority: m.Accounts[i.Accounts[2]],
		Amount:    binary.LittleEndian.Uint64(i.Data[1:]),
	}, nil
}

func getInstruction(m solana.Message, index int, command Command) (solana.CompiledInstruction, error) {
	actual, err := GetCommand(m, index)
	if err != nil {
		return solana.CompiledInstruction{}, err
	}
	if actual != command {
		return solana.CompiledInstruction{}, solana.ErrIncorrectInstruction
	}

	return m.Instructions[index], nil
}
