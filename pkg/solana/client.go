package solana

import (
	"crypto/ed25519"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/retry"
	"github.com/code-payments/code-nft-issuer/pkg/retry/backoff"
)

const (
	// Conservative, slots are produced every ~400ms
	slotsPerSec = 2

	// PollRate is the rate signature statuses are polled at.
	PollRate = (time.Second / slotsPerSec) / 2

	// Finalization takes 32 or more slots. Statuses are polled for ~64 slots
	// before giving up.
	sigStatusPollLimit = 2 * 64
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// CommitmentFromString parses a commitment level name.
func CommitmentFromString(s string) (Commitment, error) {
	for _, c := range []Commitment{CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized} {
		if c.Commitment == s {
			return c, nil
		}
	}
	return Commitment{}, errors.Errorf("unknown commitment: %q", s)
}

var (
	ErrNoAccountInfo     = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
	ErrNoBalance         = errors.New("no balance")

	// ErrCommitmentNotReached is returned when a signature was observed but
	// did not reach the requested commitment within the poll window.
	ErrCommitmentNotReached = errors.New("commitment not reached")
)

// AccountInfo is the raw state of a ledger account.
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations is nil once the transaction is rooted
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	switch {
	case s.Finalized(), s.ConfirmationStatus == confirmationStatusConfirmed:
		return true
	}
	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// SimulationResult is the outcome of running a transaction without
// committing it.
type SimulationResult struct {
	Err  *TransactionError
	Logs []string
}

// Client is the subset of the Solana JSON RPC API used to issue and inspect
// NFTs.
//
// Reference: https://solana.com/docs/rpc
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetBalance(ed25519.PublicKey) (uint64, error)
	GetLatestBlockhash() (Blockhash, error)
	GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error)
	GetSignatureStatus(Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses([]Signature) ([]*SignatureStatus, error)
	GetTokenAccountBalance(ed25519.PublicKey) (uint64, uint64, error)
	RequestAirdrop(ed25519.PublicKey, uint64, Commitment) (Signature, error)
	SimulateTransaction(Transaction) (*SimulationResult, error)

	// SubmitTransaction sends the transaction exactly once. Failures detected
	// during preflight are returned as a *TransactionError.
	SubmitTransaction(Transaction, Commitment) (Signature, error)
}

// PollSignatureStatus polls the client until the signature reaches the
// commitment level, fails, or the poll limit is reached.
func PollSignatureStatus(c Client, sig Signature, commitment Commitment) (*SignatureStatus, error) {
	var status *SignatureStatus
	_, err := retry.Retry(
		func() error {
			statuses, err := c.GetSignatureStatuses([]Signature{sig})
			if err != nil {
				return err
			}

			status = statuses[0]
			switch {
			case status == nil:
				return ErrSignatureNotFound
			case status.ErrorResult != nil:
				return nil
			case commitment == CommitmentProcessed:
				return nil
			case commitment == CommitmentConfirmed && status.Confirmed():
				return nil
			case commitment == CommitmentFinalized && status.Finalized():
				return nil
			}
			return ErrCommitmentNotReached
		},
		retry.RetriableErrors(ErrSignatureNotFound, ErrCommitmentNotReached),
		retry.Limit(sigStatusPollLimit),
		retry.Backoff(backoff.Constant(PollRate), PollRate),
	)
	return status, err
}
