// Package localnet is an in-process Solana ledger. It executes transactions
// against the system, token, associated token, token metadata and compute
// budget programs with the same all-or-nothing semantics as a cluster, and
// serves the results through solana.Client.
package localnet

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/computebudget"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
	"github.com/code-payments/code-nft-issuer/pkg/solana/tokenmetadata"
)

const (
	// LamportsPerSignature is the fee charged to the fee payer per signature.
	LamportsPerSignature = 5000

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/sdk/program/src/rent.rs
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	exemptionThreshold     = 2

	maxRecentBlockhashes = 150
)

// RentExemptBalance returns the minimum balance of an account holding size
// bytes of data.
func RentExemptBalance(size uint64) uint64 {
	return (accountStorageOverhead + size) * lamportsPerByteYear * exemptionThreshold
}

type processor func(e *execution, index int) error

type inducedError struct {
	program ed25519.PublicKey
	command byte
	err     error
}

// Ledger is an in-memory ledger. It is safe for concurrent use. Transactions
// are executed one at a time.
type Ledger struct {
	log *logrus.Entry

	mu          sync.Mutex
	accounts    map[string]solana.AccountInfo
	slot        uint64
	blockhashes []solana.Blockhash
	statuses    map[solana.Signature]*solana.SignatureStatus
	induced     []inducedError
	processors  map[string]processor
}

// New returns an empty ledger with the system, token, associated token and
// token metadata programs loaded.
func New() *Ledger {
	l := &Ledger{
		log: logrus.StandardLogger().WithField("type", "solana/localnet"),
		processors: map[string]processor{
			string(system.ProgramKey[:]):                   processSystem,
			string(token.ProgramKey):                       processToken,
			string(token.AssociatedTokenAccountProgramKey): processAssociatedToken,
			string(tokenmetadata.ProgramKey):               processTokenMetadata,
			string(computebudget.ProgramKey):               processComputeBudget,
		},
	}
	l.reset()
	return l
}

// Reset drops all accounts, signatures and induced errors.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reset()
}

func (l *Ledger) reset() {
	l.accounts = make(map[string]solana.AccountInfo)
	l.statuses = make(map[solana.Signature]*solana.SignatureStatus)
	l.induced = nil
	l.slot = 0
	l.blockhashes = nil
	l.advance()
}

// InduceInstructionError makes the next instruction of program whose data
// starts with command fail with err. A solana.CustomError surfaces as a
// custom program error, any other error as the builtin error named by its
// text.
func (l *Ledger) InduceInstructionError(program ed25519.PublicKey, command byte, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.induced = append(l.induced, inducedError{
		program: program,
		command: command,
		err:     err,
	})
}

// SetAccount writes account state directly, bypassing any program.
func (l *Ledger) SetAccount(address ed25519.PublicKey, info solana.AccountInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[string(address)] = copyAccount(info)
}

func (l *Ledger) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.accounts[string(address)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return copyAccount(info), nil
}

func (l *Ledger) GetBalance(address ed25519.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.accounts[string(address)].Lamports, nil
}

func (l *Ledger) GetLatestBlockhash() (solana.Blockhash, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.blockhashes[len(l.blockhashes)-1], nil
}

func (l *Ledger) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return RentExemptBalance(size), nil
}

func (l *Ledger) GetSignatureStatus(sig solana.Signature, commitment solana.Commitment) (*solana.SignatureStatus, error) {
	l.mu.Lock()
	_, ok := l.statuses[sig]
	l.mu.Unlock()

	// Polling an unknown signature would only wait for the poll limit.
	if !ok {
		return nil, solana.ErrSignatureNotFound
	}
	return solana.PollSignatureStatus(l, sig, commitment)
}

func (l *Ledger) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	statuses := make([]*solana.SignatureStatus, len(sigs))
	for i, sig := range sigs {
		if s, ok := l.statuses[sig]; ok {
			copied := *s
			statuses[i] = &copied
		}
	}
	return statuses, nil
}

func (l *Ledger) GetSlot(_ solana.Commitment) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.slot, nil
}

func (l *Ledger) GetTokenAccountBalance(address ed25519.PublicKey) (uint64, uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.accounts[string(address)]
	if !ok {
		return 0, 0, solana.ErrNoAccountInfo
	}

	var account token.Account
	if !bytes.Equal(info.Owner, token.ProgramKey) || !account.Unmarshal(info.Data) || account.State == token.AccountStateUninitialized {
		return 0, 0, errors.Errorf("%s is not a token account", base58.Encode(address))
	}
	return account.Amount, l.slot, nil
}

// RequestAirdrop credits lamports to account, creating it if needed.
func (l *Ledger) RequestAirdrop(address ed25519.PublicKey, lamports uint64, _ solana.Commitment) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sig solana.Signature
	if _, err := rand.Read(sig[:]); err != nil {
		return sig, errors.Wrap(err, "failed to generate signature")
	}

	info, ok := l.accounts[string(address)]
	if !ok {
		info = solana.AccountInfo{Owner: system.ProgramKey[:]}
	}
	info.Lamports += lamports
	l.accounts[string(address)] = copyAccount(info)

	l.advance()
	l.statuses[sig] = l.finalizedStatus()

	l.log.WithFields(logrus.Fields{
		"account":  base58.Encode(address),
		"lamports": lamports,
	}).Debug("airdrop")

	return sig, nil
}

// SimulateTransaction executes txn and discards every change it made.
func (l *Ledger) SimulateTransaction(txn solana.Transaction) (*solana.SimulationResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	j, logs, txErr := l.execute(txn)
	if j != nil {
		j.revert(l, 0)
	}

	return &solana.SimulationResult{
		Err:  txErr,
		Logs: logs,
	}, nil
}

// SubmitTransaction executes txn. A failed transaction leaves no trace on the
// ledger, as if it had been rejected in preflight, and its error is returned
// as a *solana.TransactionError.
func (l *Ledger) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sig solana.Signature
	if len(txn.Signatures) > 0 {
		sig = txn.Signatures[0]
	}

	log := l.log.WithFields(logrus.Fields{
		"method":    "SubmitTransaction",
		"signature": sig.String(),
	})

	j, logs, txErr := l.execute(txn)
	if txErr != nil {
		if j != nil {
			j.revert(l, 0)
		}

		log.WithError(txErr).WithField("logs", logs).Debug("transaction failed")
		return sig, txErr
	}

	l.advance()
	l.statuses[sig] = l.finalizedStatus()

	log.WithField("slot", l.slot).Debug("transaction committed")
	return sig, nil
}

// execute runs every instruction of txn. The returned journal holds the
// changes made so far, including those of a failed transaction.
func (l *Ledger) execute(txn solana.Transaction) (*journal, []string, *solana.TransactionError) {
	m := txn.Message
	if len(m.Accounts) == 0 || m.Header.NumSignatures == 0 || len(txn.Signatures) != int(m.Header.NumSignatures) {
		return nil, nil, solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}
	for _, instruction := range m.Instructions {
		if int(instruction.ProgramIndex) >= len(m.Accounts) {
			return nil, nil, solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		for _, index := range instruction.Accounts {
			if int(index) >= len(m.Accounts) {
				return nil, nil, solana.NewTransactionError(solana.TransactionErrorInvalidAccountIndex)
			}
		}
	}

	if err := txn.VerifySignatures(); err != nil {
		return nil, nil, solana.NewTransactionError(solana.TransactionErrorSignatureFailure)
	}
	if !l.isRecentBlockhash(m.RecentBlockhash) {
		return nil, nil, solana.NewTransactionError(solana.TransactionErrorBlockhashNotFound)
	}
	if _, ok := l.statuses[txn.Signatures[0]]; ok {
		return nil, nil, solana.NewTransactionError(solana.TransactionErrorAlreadyProcessed)
	}

	payer, ok := l.accounts[string(m.Accounts[0])]
	if !ok {
		return nil, nil, solana.NewTransactionError(solana.TransactionErrorAccountNotFound)
	}
	fee := TransactionFee(m)
	if payer.Lamports < fee {
		return nil, nil, solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	}

	e := &execution{
		l:       l,
		journal: newJournal(),
		message: m,
	}

	payer.Lamports -= fee
	e.store(m.Accounts[0], payer)

	for i, instruction := range m.Instructions {
		program := m.Accounts[instruction.ProgramIndex]
		e.logf("Program %s invoke [1]", base58.Encode(program))

		err := l.consumeInducedError(program, instruction.Data)
		if err == nil {
			process, ok := l.processors[string(program)]
			if !ok {
				err = errUnsupportedProgramID
			} else {
				err = process(e, i)
			}
		}

		if err != nil {
			e.logf("Program %s failed: %v", base58.Encode(program), err)

			txErr, convErr := solana.TransactionErrorFromInstructionError(toInstructionError(i, err))
			if convErr != nil {
				l.log.WithError(convErr).Warn("failed to convert instruction error")
				txErr = solana.NewTransactionError(solana.TransactionErrorInstructionError)
			}
			return e.journal, e.logs, txErr
		}

		e.logf("Program %s success", base58.Encode(program))
	}

	return e.journal, e.logs, nil
}

func (l *Ledger) consumeInducedError(program ed25519.PublicKey, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	for i, induced := range l.induced {
		if bytes.Equal(induced.program, program) && induced.command == data[0] {
			l.induced = append(l.induced[:i], l.induced[i+1:]...)
			return inducedFailure{induced.err}
		}
	}
	return nil
}

func (l *Ledger) isRecentBlockhash(hash solana.Blockhash) bool {
	for _, recent := range l.blockhashes {
		if recent == hash {
			return true
		}
	}
	return false
}

// advance moves the ledger to the next slot with a new blockhash.
func (l *Ledger) advance() {
	l.slot++

	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], l.slot)
	l.blockhashes = append(l.blockhashes, solana.Blockhash(sha256.Sum256(seed[:])))
	if len(l.blockhashes) > maxRecentBlockhashes {
		l.blockhashes = l.blockhashes[len(l.blockhashes)-maxRecentBlockhashes:]
	}
}

func (l *Ledger) finalizedStatus() *solana.SignatureStatus {
	return &solana.SignatureStatus{
		Slot:               l.slot,
		ConfirmationStatus: "finalized",
	}
}

func copyAccount(info solana.AccountInfo) solana.AccountInfo {
	return solana.AccountInfo{
		Data:       append([]byte(nil), info.Data...),
		Owner:      append(ed25519.PublicKey(nil), info.Owner...),
		Lamports:   info.Lamports,
		Executable: info.Executable,
	}
}
