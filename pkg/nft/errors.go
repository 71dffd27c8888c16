package nft

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
)

var (
	// ErrPreconditionViolation matches every PreconditionError.
	ErrPreconditionViolation = errors.New("nft: precondition violation")
	// ErrDownstreamCallFailed matches every StepError.
	ErrDownstreamCallFailed = errors.New("nft: downstream call failed")

	ErrMissingSignature     = errors.New("account must sign")
	ErrProgramMismatch      = errors.New("unexpected program identity")
	ErrDerivationMismatch   = errors.New("address does not match derivation")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrInvalidCreators      = errors.New("invalid creators")
	ErrAlreadyIssued        = errors.New("mint already has an issuance")

	ErrRateLimited         = errors.New("nft: creator issuance rate limited")
	ErrTransactionTooLarge = errors.New("nft: issuance transaction exceeds the maximum size")
)

// PreconditionError is returned when a supplied account does not satisfy its
// constraint. Nothing was submitted.
type PreconditionError struct {
	Account string
	Err     error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPreconditionViolation, e.Account, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPreconditionViolation
}

func newPreconditionError(account string, err error) error {
	return &PreconditionError{Account: account, Err: err}
}

// StepError is returned when a pipeline step fails downstream. Err is the
// host's *solana.TransactionError, or the transport error that ended the
// submission. Reached is the last state the invocation was in before the
// failing step, every mutation since Start has been rolled back.
type StepError struct {
	Step    issuance.Step
	Reached issuance.State
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s (reached %s): %v", ErrDownstreamCallFailed, e.Step, e.Reached, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return target == ErrDownstreamCallFailed
}
