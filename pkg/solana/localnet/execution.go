package localnet

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
)

// builtinError is an instruction error defined by the runtime rather than by
// a program.
type builtinError solana.InstructionErrorKey

func (e builtinError) Error() string {
	return string(e)
}

var (
	errInvalidArgument          = builtinError(solana.InstructionErrorInvalidArgument)
	errInvalidInstructionData   = builtinError(solana.InstructionErrorInvalidInstructionData)
	errInvalidAccountData       = builtinError(solana.InstructionErrorInvalidAccountData)
	errIncorrectProgramID       = builtinError(solana.InstructionErrorIncorrectProgramID)
	errMissingRequiredSignature = builtinError(solana.InstructionErrorMissingRequiredSignature)
	errUninitializedAccount     = builtinError(solana.InstructionErrorUninitializedAccount)
	errReadonlyDataModified     = builtinError(solana.InstructionErrorReadonlyDataModified)
	errNotEnoughAccountKeys     = builtinError(solana.InstructionErrorNotEnoughAccountKeys)
	errUnsupportedProgramID     = builtinError(solana.InstructionErrorUnsupportedProgramID)
	errInvalidSeeds             = builtinError(solana.InstructionErrorInvalidSeeds)
)

type inducedFailure struct {
	err error
}

func (f inducedFailure) Error() string {
	return f.err.Error()
}

func (f inducedFailure) Unwrap() error {
	return f.err
}

func toInstructionError(index int, err error) *solana.InstructionError {
	var custom solana.CustomError
	var builtin builtinError
	var induced inducedFailure

	switch {
	case errors.As(err, &custom):
		return solana.NewCustomInstructionError(index, custom)
	case errors.As(err, &builtin):
		return solana.NewInstructionError(index, solana.InstructionErrorKey(builtin))
	case errors.As(err, &induced):
		return solana.NewInstructionError(index, solana.InstructionErrorKey(induced.Error()))
	default:
		return solana.NewInstructionError(index, solana.InstructionErrorInvalidInstructionData)
	}
}

// execution is the state of one transaction being processed.
type execution struct {
	l       *Ledger
	journal *journal
	message solana.Message
	logs    []string
}

func (e *execution) logf(format string, args ...interface{}) {
	e.logs = append(e.logs, fmt.Sprintf(format, args...))
}

// account returns a copy of the account at address.
func (e *execution) account(address ed25519.PublicKey) (solana.AccountInfo, bool) {
	info, ok := e.l.accounts[string(address)]
	if !ok {
		return solana.AccountInfo{}, false
	}
	return copyAccount(info), true
}

// owned returns the account at address if it exists and is owned by program.
func (e *execution) owned(address, program ed25519.PublicKey) (solana.AccountInfo, error) {
	info, ok := e.account(address)
	if !ok || !bytes.Equal(info.Owner, program) {
		return info, errIncorrectProgramID
	}
	return info, nil
}

// isSigner reports whether address signed the transaction.
func (e *execution) isSigner(address ed25519.PublicKey) bool {
	for i, key := range e.message.Accounts {
		if bytes.Equal(key, address) {
			return e.message.IsSigner(i)
		}
	}
	return false
}

// write stores info at address. The account must be writable in the message.
func (e *execution) write(address ed25519.PublicKey, info solana.AccountInfo) error {
	for i, key := range e.message.Accounts {
		if !bytes.Equal(key, address) {
			continue
		}
		if !e.message.IsWritable(i) {
			return errReadonlyDataModified
		}

		e.store(address, info)
		return nil
	}
	return errNotEnoughAccountKeys
}

func (e *execution) store(address ed25519.PublicKey, info solana.AccountInfo) {
	key := string(address)
	if prev, ok := e.l.accounts[key]; ok {
		e.journal.append(accountChange{account: key, prev: prev})
	} else {
		e.journal.append(createAccountChange{account: key})
	}
	e.l.accounts[key] = copyAccount(info)
}

// allocate creates address as a rent exempt account of size bytes owned by
// owner, funded by payer. An existing balance on address counts towards the
// rent exempt minimum.
func (e *execution) allocate(payer, address, owner ed25519.PublicKey, size int) error {
	if !e.isSigner(payer) {
		return errMissingRequiredSignature
	}

	existing, ok := e.account(address)
	if ok && (len(existing.Data) > 0 || !bytes.Equal(existing.Owner, system.ProgramKey[:])) {
		return system.ErrorAccountAlreadyInUse
	}

	required := RentExemptBalance(uint64(size))
	var transfer uint64
	if existing.Lamports < required {
		transfer = required - existing.Lamports
	}

	funder, ok := e.account(payer)
	if !ok || funder.Lamports < transfer {
		return system.ErrorResultWithNegativeLamports
	}
	funder.Lamports -= transfer
	if err := e.write(payer, funder); err != nil {
		return err
	}

	return e.write(address, solana.AccountInfo{
		Data:     make([]byte, size),
		Owner:    owner,
		Lamports: existing.Lamports + transfer,
	})
}
