package nft

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/code-nft-issuer/pkg/metrics"
	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
	"github.com/code-payments/code-nft-issuer/pkg/pointer"
	"github.com/code-payments/code-nft-issuer/pkg/rate"
	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
	sync_util "github.com/code-payments/code-nft-issuer/pkg/sync"
)

// Result describes a committed issuance.
type Result struct {
	Signature solana.Signature
	Accounts  Accounts
	State     issuance.State
	Slot      uint64
}

// Issuer issues unique NFTs: a zero decimal mint with one token held by the
// creator, metadata and a master edition capping supply at one.
type Issuer struct {
	log     *logrus.Entry
	conf    *conf
	sc      solana.Client
	records issuance.Store

	creatorLimiter rate.Limiter
	mintLocks      *sync_util.StripedLock
}

func NewIssuer(sc solana.Client, records issuance.Store, configProvider ConfigProvider) *Issuer {
	conf := configProvider()

	var creatorLimiter rate.Limiter = &rate.NoLimiter{}
	if r := conf.creatorIssuanceRateLimit.Get(context.Background()); r > 0 {
		creatorLimiter = rate.NewLocalRateLimiter(xrate.Limit(r))
	}

	return &Issuer{
		log:            logrus.StandardLogger().WithField("type", "nft/issuer"),
		conf:           conf,
		sc:             sc,
		records:        records,
		creatorLimiter: creatorLimiter,
		mintLocks:      sync_util.NewStripedLock(1024),
	}
}

// CreateUniqueNFT validates the invocation and submits its pipeline as a
// single transaction, exactly once. Precondition failures are returned as a
// *PreconditionError and nothing is submitted. A failing step is returned as
// a *StepError, and the transaction leaves no trace on the ledger.
func (i *Issuer) CreateUniqueNFT(ctx context.Context, inv *Invocation) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "CreateUniqueNFT")
	defer tracer.End()

	tracer.AddAttribute("mint", base58.Encode(inv.Accounts.Mint))

	result, err := i.createUniqueNFT(ctx, inv)
	if err != nil {
		tracer.OnError(err)
	}
	return result, err
}

func (i *Issuer) createUniqueNFT(ctx context.Context, inv *Invocation) (*Result, error) {
	start := time.Now()

	log := i.log.WithField("method", "CreateUniqueNFT").WithFields(inv.Accounts.Fields())

	if err := checkAccounts(inv); err != nil {
		log.WithError(err).Info("rejecting invocation")
		recordPreconditionViolation(ctx)
		return nil, err
	}

	allowed, err := i.creatorLimiter.Allow(base58.Encode(inv.Accounts.Creator))
	if err != nil {
		log.WithError(err).Warn("failure checking creator rate limit")
		return nil, errors.Wrap(err, "error checking creator rate limit")
	} else if !allowed {
		log.Info("creator is rate limited")
		return nil, ErrRateLimited
	}

	// Invocations of the same mint run one at a time, so a later one observes
	// the ledger and record left by an earlier one.
	mu := i.mintLocks.Get(inv.Accounts.Mint)
	mu.Lock()
	defer mu.Unlock()

	commitment, err := solana.CommitmentFromString(i.conf.commitment.Get(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "invalid commitment configuration")
	}

	if i.conf.enablePreflightCheck.Get(ctx) {
		err := checkUninitialized(i.sc, &inv.Accounts, commitment)
		if errors.Is(err, ErrPreconditionViolation) {
			log.WithError(err).Info("rejecting invocation")
			recordPreconditionViolation(ctx)
			return nil, err
		} else if err != nil {
			log.WithError(err).Warn("failure checking account state")
			return nil, err
		}
	}

	mintRentExemption, err := i.sc.GetMinimumBalanceForRentExemption(token.MintSize)
	if err != nil {
		log.WithError(err).Warn("failure getting mint rent exemption")
		return nil, errors.Wrap(err, "error getting mint rent exemption")
	}

	edition, err := buildPlan(inv, mintRentExemption)
	if err != nil {
		log.WithError(err).Warn("failure building issuance plan")
		return nil, err
	}
	p := prependComputeBudget(edition.plan, i.conf.computeUnitLimit.Get(ctx), i.conf.computeUnitPrice.Get(ctx))

	txn, err := i.sign(p, inv)
	if err != nil {
		log.WithError(err).Warn("failure signing transaction")
		return nil, err
	}
	sig := txn.Signatures[0]
	log = log.WithField("signature", sig.String())

	if i.conf.enableSimulation.Get(ctx) {
		simulation, err := i.sc.SimulateTransaction(txn)
		if err != nil {
			log.WithError(err).Warn("failure simulating transaction")
			return nil, errors.Wrap(err, "error simulating transaction")
		}
		if simulation.Err != nil {
			stepErr := newStepError(p, simulation.Err)
			log.WithError(stepErr).WithFields(logrus.Fields{
				"step": stepErr.Step.String(),
				"logs": simulation.Logs,
			}).Info("issuance failed simulation")
			return nil, stepErr
		}
	}

	record, err := i.startIssuance(ctx, inv)
	if err != nil {
		if errors.Is(err, ErrPreconditionViolation) {
			log.WithError(err).Info("rejecting invocation")
			recordPreconditionViolation(ctx)
		} else {
			log.WithError(err).Warn("failure saving issuance record")
		}
		return nil, err
	}

	_, err = i.sc.SubmitTransaction(txn, commitment)
	var txErr *solana.TransactionError
	if errors.As(err, &txErr) {
		stepErr := newStepError(p, txErr)
		i.abort(ctx, log, record, stepErr, start)
		return nil, stepErr
	} else if err != nil {
		// The transaction may still land, so the record stays in the start state
		log.WithError(err).Warn("failure submitting transaction")
		return nil, errors.Wrap(err, "error submitting transaction")
	}

	status, err := i.sc.GetSignatureStatus(sig, commitment)
	if err != nil {
		log.WithError(err).Info("signature status not settled, checking ledger")

		settled, settleErr := i.settle(sig, &inv.Accounts)
		if settleErr != nil {
			log.WithError(settleErr).Warn("failure getting signature status")
			return nil, errors.Wrap(err, "error getting signature status")
		}
		status = settled
	}
	if status.ErrorResult != nil {
		stepErr := newStepError(p, status.ErrorResult)
		i.abort(ctx, log, record, stepErr, start)
		return nil, stepErr
	}

	record.Signature = pointer.String(sig.String())
	record.State = issuance.StateCommitted
	if err := i.records.Update(ctx, record); err != nil {
		log.WithError(err).Warn("failure marking issuance as committed")
		return nil, errors.Wrap(err, "error updating issuance record")
	}

	recordIssuanceEvent(ctx, record, time.Since(start))
	log.WithField("slot", status.Slot).Info("issued unique nft")

	return &Result{
		Signature: sig,
		Accounts:  inv.Accounts,
		State:     issuance.StateCommitted,
		Slot:      status.Slot,
	}, nil
}

// GetIssuance returns the issuance record of a mint.
func (i *Issuer) GetIssuance(ctx context.Context, mint ed25519.PublicKey) (*issuance.Record, error) {
	return i.records.Get(ctx, base58.Encode(mint))
}

func (i *Issuer) sign(p *plan, inv *Invocation) (solana.Transaction, error) {
	txn := solana.NewTransaction(inv.Accounts.Creator, p.instructions...)

	blockhash, err := i.sc.GetLatestBlockhash()
	if err != nil {
		return txn, errors.Wrap(err, "error getting latest blockhash")
	}
	txn.SetBlockhash(blockhash)

	if err := txn.Sign(inv.Creator, inv.Mint); err != nil {
		return txn, errors.Wrap(err, "error signing transaction")
	}

	if size := len(txn.Marshal()); size > solana.MaxTransactionSize {
		return txn, errors.Wrapf(ErrTransactionTooLarge, "%d bytes", size)
	}

	return txn, nil
}

// startIssuance records the invocation in the start state. A previously
// aborted issuance of the same mint and args is restarted.
func (i *Issuer) startIssuance(ctx context.Context, inv *Invocation) (*issuance.Record, error) {
	a := &inv.Accounts

	record := &issuance.Record{
		Mint:          base58.Encode(a.Mint),
		Creator:       base58.Encode(a.Creator),
		TokenAccount:  base58.Encode(a.CreatorTokenAccount),
		Metadata:      base58.Encode(a.Metadata),
		MasterEdition: base58.Encode(a.MasterEdition),

		Name:   inv.Args.Name,
		Symbol: inv.Args.Symbol,
		URI:    inv.Args.URI,

		State: issuance.StateStart,

		CreatedAt: time.Now(),
	}

	err := i.records.Put(ctx, record)
	if err == nil {
		return record, nil
	} else if err != issuance.ErrAlreadyExists {
		return nil, errors.Wrap(err, "error creating issuance record")
	}

	existing, err := i.records.Get(ctx, record.Mint)
	if err != nil {
		return nil, errors.Wrap(err, "error getting issuance record")
	}

	if existing.State != issuance.StateAborted {
		return nil, newPreconditionError(AccountMint, ErrAlreadyIssued)
	}
	if existing.Creator != record.Creator || existing.Name != record.Name || existing.Symbol != record.Symbol || existing.URI != record.URI {
		return nil, newPreconditionError(AccountMint, errors.Wrap(ErrAlreadyIssued, "aborted issuance has different args"))
	}

	existing.Signature = nil
	existing.State = issuance.StateStart
	existing.FailedStep = issuance.StepUnknown
	if err := i.records.Update(ctx, existing); err != nil {
		return nil, errors.Wrap(err, "error restarting issuance record")
	}
	return existing, nil
}

func (i *Issuer) abort(ctx context.Context, log *logrus.Entry, record *issuance.Record, stepErr *StepError, start time.Time) {
	log = log.WithFields(logrus.Fields{
		"step":    stepErr.Step.String(),
		"reached": stepErr.Reached.String(),
	})
	log.WithError(stepErr.Err).Info("issuance aborted")

	record.State = issuance.StateAborted
	record.FailedStep = stepErr.Step
	if err := i.records.Update(ctx, record); err != nil {
		log.WithError(err).Warn("failure marking issuance as aborted")
		return
	}

	recordIssuanceEvent(ctx, record, time.Since(start))
}

// settle resolves the outcome of a submitted transaction whose status did not
// reach the configured commitment in time. A confirmed transaction whose
// master edition exists is treated as committed, and a failed one is
// returned with its error so it can be aborted.
func (i *Issuer) settle(sig solana.Signature, a *Accounts) (*solana.SignatureStatus, error) {
	statuses, err := i.sc.GetSignatureStatuses([]solana.Signature{sig})
	if err != nil {
		return nil, err
	}

	status := statuses[0]
	switch {
	case status == nil:
		return nil, solana.ErrSignatureNotFound
	case status.ErrorResult != nil:
		return status, nil
	case !status.Confirmed():
		return nil, solana.ErrCommitmentNotReached
	}

	if _, err := i.sc.GetAccountInfo(a.MasterEdition, solana.CommitmentConfirmed); err != nil {
		return nil, errors.Wrap(err, "error getting master edition")
	}
	return status, nil
}

// newStepError maps a transaction error back to the pipeline step owning the
// failing instruction. Errors not tied to an instruction fail the submission.
func newStepError(p *plan, txErr *solana.TransactionError) *StepError {
	step := issuance.StepSubmit
	if instructionErr := txErr.InstructionError(); instructionErr != nil {
		if owner := p.stepAt(instructionErr.Index); owner != issuance.StepUnknown {
			step = owner
		}
	}

	return &StepError{
		Step:    step,
		Reached: stateBefore(step),
		Err:     txErr,
	}
}
