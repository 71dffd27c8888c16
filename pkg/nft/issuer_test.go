package nft

import (
	"context"
	"crypto/ed25519"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance/memory"
	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/computebudget"
	"github.com/code-payments/code-nft-issuer/pkg/solana/localnet"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
	"github.com/code-payments/code-nft-issuer/pkg/solana/tokenmetadata"
	"github.com/code-payments/code-nft-issuer/pkg/testutil"
)

const airdropAmount = 10_000_000_000

type testEnv struct {
	ctx     context.Context
	ledger  *localnet.Ledger
	records issuance.Store
	issuer  *Issuer
	creator ed25519.PrivateKey
}

func setup(t *testing.T, overrides *testOverrides) *testEnv {
	ledger := localnet.New()
	records := memory.New()

	return &testEnv{
		ctx:     context.Background(),
		ledger:  ledger,
		records: records,
		issuer:  NewIssuer(ledger, records, withManualTestOverrides(overrides)),
		creator: testutil.NewFundedKeypair(t, ledger, airdropAmount),
	}
}

func (env *testEnv) newInvocation(t *testing.T) *Invocation {
	inv, err := NewInvocation(validArgs(), env.creator, testutil.GenerateSolanaKeypair(t))
	require.NoError(t, err)
	return inv
}

func (env *testEnv) balance(t *testing.T, address ed25519.PublicKey) uint64 {
	balance, err := env.ledger.GetBalance(address)
	require.NoError(t, err)
	return balance
}

func (env *testEnv) assertNothingIssued(t *testing.T, inv *Invocation) {
	for _, address := range []ed25519.PublicKey{
		inv.Accounts.Mint,
		inv.Accounts.CreatorTokenAccount,
		inv.Accounts.Metadata,
		inv.Accounts.MasterEdition,
	} {
		_, err := env.ledger.GetAccountInfo(address, solana.CommitmentFinalized)
		assert.Equal(t, solana.ErrNoAccountInfo, err)
	}
}

func validArgs() Args {
	return Args{
		Name:   "Artifact #1",
		Symbol: "ART1",
		URI:    "https://example.com/1.json",
	}
}

func assertPreconditionError(t *testing.T, err error, account string, expected error) {
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreconditionViolation), "unexpected error: %v", err)
	assert.False(t, errors.Is(err, ErrDownstreamCallFailed))

	var preconditionErr *PreconditionError
	require.True(t, errors.As(err, &preconditionErr))
	assert.Equal(t, account, preconditionErr.Account)
	assert.True(t, errors.Is(err, expected), "unexpected error: %v", err)
}

func assertStepError(t *testing.T, err error, step issuance.Step, reached issuance.State) *solana.TransactionError {
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDownstreamCallFailed), "unexpected error: %v", err)
	assert.False(t, errors.Is(err, ErrPreconditionViolation))

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, step, stepErr.Step)
	assert.Equal(t, reached, stepErr.Reached)

	var txErr *solana.TransactionError
	require.True(t, errors.As(err, &txErr))
	return txErr
}

func TestCreateUniqueNFT_HappyPath(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)
	creator := inv.Accounts.Creator

	result, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateCommitted, result.State)
	assert.Equal(t, inv.Accounts, result.Accounts)
	assert.NotZero(t, result.Slot)

	issued, err := env.issuer.Inspect(env.ctx, creator, inv.Accounts.Mint)
	require.NoError(t, err)
	require.NoError(t, issued.Validate())

	assert.EqualValues(t, 1, issued.Mint.Supply)
	assert.EqualValues(t, 0, issued.Mint.Decimals)
	assert.EqualValues(t, inv.Accounts.MasterEdition, issued.Mint.MintAuthority)
	assert.EqualValues(t, inv.Accounts.MasterEdition, issued.Mint.FreezeAuthority)
	assert.EqualValues(t, 1, issued.TokenAccount.Amount)

	balance, _, err := env.ledger.GetTokenAccountBalance(inv.Accounts.CreatorTokenAccount)
	require.NoError(t, err)
	assert.EqualValues(t, 1, balance)

	metadata := issued.Metadata
	assert.Equal(t, "Artifact #1", metadata.Data.Name)
	assert.Equal(t, "ART1", metadata.Data.Symbol)
	assert.Equal(t, "https://example.com/1.json", metadata.Data.URI)
	assert.EqualValues(t, 0, metadata.Data.SellerFeeBasisPoints)
	assert.False(t, metadata.IsMutable)
	assert.EqualValues(t, creator, metadata.UpdateAuthority)
	assert.Nil(t, metadata.Data.Collection)
	assert.Nil(t, metadata.Data.Uses)
	assert.Nil(t, metadata.CollectionDetails)
	require.Len(t, metadata.Data.Creators, 1)
	assert.EqualValues(t, creator, metadata.Data.Creators[0].Address)
	assert.False(t, metadata.Data.Creators[0].Verified)
	assert.EqualValues(t, 100, metadata.Data.Creators[0].Share)

	require.NotNil(t, issued.MasterEdition.MaxSupply)
	assert.EqualValues(t, 1, *issued.MasterEdition.MaxSupply)
	assert.EqualValues(t, 0, issued.MasterEdition.Supply)

	status, err := env.ledger.GetSignatureStatus(result.Signature, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Nil(t, status.ErrorResult)

	record, err := env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateCommitted, record.State)
	assert.Equal(t, issuance.StepUnknown, record.FailedStep)
	require.NotNil(t, record.Signature)
	assert.Equal(t, result.Signature.String(), *record.Signature)
	assert.Equal(t, "ART1", record.Symbol)

	count, err := env.records.CountByState(env.ctx, issuance.StateCommitted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCreateUniqueNFT_SameMintTwice(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)

	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	require.NoError(t, err)

	before, err := env.ledger.GetAccountInfo(inv.Accounts.Metadata, solana.CommitmentFinalized)
	require.NoError(t, err)
	balance := env.balance(t, inv.Accounts.Creator)

	_, err = env.issuer.CreateUniqueNFT(env.ctx, inv)
	assertPreconditionError(t, err, AccountMint, ErrAccountAlreadyExists)

	// Without the preflight check, the issuance record catches the re-invocation
	issuer := NewIssuer(env.ledger, env.records, withManualTestOverrides(&testOverrides{
		disablePreflightCheck: true,
	}))
	_, err = issuer.CreateUniqueNFT(env.ctx, inv)
	assertPreconditionError(t, err, AccountMint, ErrAlreadyIssued)

	// Without either, the ledger rejects the transaction as a whole
	issuer = NewIssuer(env.ledger, memory.New(), withManualTestOverrides(&testOverrides{
		disablePreflightCheck: true,
	}))
	_, err = issuer.CreateUniqueNFT(env.ctx, inv)
	txErr := assertStepError(t, err, issuance.StepInitializeAccounts, issuance.StateStart)
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 0, txErr.InstructionError().Index)
	require.NotNil(t, txErr.InstructionError().CustomError())
	assert.Equal(t, system.ErrorAccountAlreadyInUse, *txErr.InstructionError().CustomError())

	after, err := env.ledger.GetAccountInfo(inv.Accounts.Metadata, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, balance, env.balance(t, inv.Accounts.Creator))

	mint, err := token.NewClient(env.ledger).GetMint(inv.Accounts.Mint, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, 1, mint.Supply)
}

func TestCreateUniqueNFT_MetadataProgramMismatch(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)
	inv.Accounts.MetadataProgram = testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	assertPreconditionError(t, err, AccountMetadataProgram, ErrProgramMismatch)

	env.assertNothingIssued(t, inv)
	assert.EqualValues(t, airdropAmount, env.balance(t, inv.Accounts.Creator))

	_, err = env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	assert.Equal(t, issuance.ErrNotFound, err)
}

func TestCreateUniqueNFT_ProgramMismatch(t *testing.T) {
	env := setup(t, &testOverrides{})
	random := testutil.GenerateSolanaKeys(t, 1)[0]

	for _, tc := range []struct {
		account string
		mutate  func(a *Accounts)
	}{
		{AccountTokenProgram, func(a *Accounts) { a.TokenProgram = random }},
		{AccountAssociatedTokenProgram, func(a *Accounts) { a.AssociatedTokenProgram = random }},
		{AccountSystemProgram, func(a *Accounts) { a.SystemProgram = random }},
		{AccountRentSysvar, func(a *Accounts) { a.RentSysvar = random }},
	} {
		inv := env.newInvocation(t)
		tc.mutate(&inv.Accounts)

		_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
		assertPreconditionError(t, err, tc.account, ErrProgramMismatch)
		env.assertNothingIssued(t, inv)
	}

	assert.EqualValues(t, airdropAmount, env.balance(t, public(env.creator)))
}

func TestCreateUniqueNFT_DerivationMismatch(t *testing.T) {
	env := setup(t, &testOverrides{})
	other := env.newInvocation(t)

	for _, tc := range []struct {
		account string
		mutate  func(a *Accounts)
	}{
		{AccountMetadata, func(a *Accounts) { a.Metadata = a.MasterEdition }},
		{AccountMetadata, func(a *Accounts) { a.Metadata = other.Accounts.Metadata }},
		{AccountMasterEdition, func(a *Accounts) { a.MasterEdition = a.Metadata }},
		{AccountMasterEdition, func(a *Accounts) { a.MasterEdition = other.Accounts.MasterEdition }},
		{AccountCreatorTokenAccount, func(a *Accounts) { a.CreatorTokenAccount = other.Accounts.CreatorTokenAccount }},
	} {
		inv := env.newInvocation(t)
		tc.mutate(&inv.Accounts)

		_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
		assertPreconditionError(t, err, tc.account, ErrDerivationMismatch)
		env.assertNothingIssued(t, inv)
	}

	assert.EqualValues(t, airdropAmount, env.balance(t, public(env.creator)))
}

func TestCreateUniqueNFT_MissingSignature(t *testing.T) {
	env := setup(t, &testOverrides{})

	inv := env.newInvocation(t)
	inv.Creator = testutil.GenerateSolanaKeypair(t)
	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	assertPreconditionError(t, err, AccountCreator, ErrMissingSignature)

	inv = env.newInvocation(t)
	inv.Mint = nil
	_, err = env.issuer.CreateUniqueNFT(env.ctx, inv)
	assertPreconditionError(t, err, AccountMint, ErrMissingSignature)
	env.assertNothingIssued(t, inv)
}

func TestCreateUniqueNFT_MintFailureRollsBack(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)

	env.ledger.InduceInstructionError(token.ProgramKey, byte(token.CommandMintTo), token.ErrorOwnerMismatch)

	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	txErr := assertStepError(t, err, issuance.StepMintTo, issuance.StateMetadataCreated)
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 4, txErr.InstructionError().Index)

	env.assertNothingIssued(t, inv)
	assert.EqualValues(t, airdropAmount, env.balance(t, inv.Accounts.Creator))

	record, err := env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateAborted, record.State)
	assert.Equal(t, issuance.StepMintTo, record.FailedStep)
	assert.Nil(t, record.Signature)

	// Aborted issuances can be retried with the same mint
	result, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	require.NoError(t, err)

	record, err = env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateCommitted, record.State)
	assert.Equal(t, issuance.StepUnknown, record.FailedStep)
	assert.Equal(t, result.Signature.String(), *record.Signature)
}

func TestCreateUniqueNFT_RetryRequiresSameArgs(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)

	env.ledger.InduceInstructionError(token.ProgramKey, byte(token.CommandMintTo), token.ErrorOwnerMismatch)
	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	assertStepError(t, err, issuance.StepMintTo, issuance.StateMetadataCreated)

	inv.Args.Symbol = "ART2"
	_, err = env.issuer.CreateUniqueNFT(env.ctx, inv)
	assertPreconditionError(t, err, AccountMint, ErrAlreadyIssued)
	env.assertNothingIssued(t, inv)
}

func TestCreateUniqueNFT_MetadataRejected(t *testing.T) {
	env := setup(t, &testOverrides{})

	for _, tc := range []struct {
		args     Args
		expected solana.CustomError
	}{
		{Args{Name: strings.Repeat("a", tokenmetadata.MaxNameLength+1), Symbol: "ART1", URI: "uri"}, tokenmetadata.ErrorNameTooLong},
		{Args{Name: "name", Symbol: strings.Repeat("a", tokenmetadata.MaxSymbolLength+1), URI: "uri"}, tokenmetadata.ErrorSymbolTooLong},
		{Args{Name: "name", Symbol: "ART1", URI: strings.Repeat("a", tokenmetadata.MaxURILength+1)}, tokenmetadata.ErrorURITooLong},
	} {
		inv := env.newInvocation(t)
		inv.Args = tc.args

		_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
		txErr := assertStepError(t, err, issuance.StepCreateMetadata, issuance.StateStart)
		require.NotNil(t, txErr.InstructionError())
		assert.Equal(t, 3, txErr.InstructionError().Index)
		require.NotNil(t, txErr.InstructionError().CustomError())
		assert.Equal(t, tc.expected, *txErr.InstructionError().CustomError())

		env.assertNothingIssued(t, inv)

		record, err := env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
		require.NoError(t, err)
		assert.Equal(t, issuance.StateAborted, record.State)
		assert.Equal(t, issuance.StepCreateMetadata, record.FailedStep)
	}

	count, err := env.records.CountByState(env.ctx, issuance.StateAborted)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestCreateUniqueNFT_EditionFailureRollsBack(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)

	env.ledger.InduceInstructionError(tokenmetadata.ProgramKey, byte(tokenmetadata.CommandCreateMasterEditionV3), tokenmetadata.ErrorEditionsMustHaveExactlyOneToken)

	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	txErr := assertStepError(t, err, issuance.StepCreateMasterEdition, issuance.StateMinted)
	assert.Equal(t, 5, txErr.InstructionError().Index)

	env.assertNothingIssued(t, inv)
	assert.EqualValues(t, airdropAmount, env.balance(t, inv.Accounts.Creator))
}

func TestCreateUniqueNFT_ComputeBudget(t *testing.T) {
	spent := func(env *testEnv) uint64 {
		inv := env.newInvocation(t)
		before := env.balance(t, inv.Accounts.Creator)

		result, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
		require.NoError(t, err)
		assert.Equal(t, issuance.StateCommitted, result.State)

		return before - env.balance(t, inv.Accounts.Creator)
	}

	withoutBudget := spent(setup(t, &testOverrides{}))
	withBudget := spent(setup(t, &testOverrides{
		computeUnitLimit: 400_000,
		computeUnitPrice: 5_000,
	}))

	// 400k units at 5k micro-lamports each
	assert.EqualValues(t, 2_000, withBudget-withoutBudget)
}

func TestCreateUniqueNFT_ComputeBudgetFailure(t *testing.T) {
	env := setup(t, &testOverrides{
		computeUnitLimit: 400_000,
	})
	inv := env.newInvocation(t)

	env.ledger.InduceInstructionError(computebudget.ProgramKey, byte(computebudget.CommandSetComputeUnitLimit), solana.CustomError(0))

	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	txErr := assertStepError(t, err, issuance.StepSetComputeBudget, issuance.StateStart)
	assert.Equal(t, 0, txErr.InstructionError().Index)

	env.assertNothingIssued(t, inv)
	assert.EqualValues(t, airdropAmount, env.balance(t, inv.Accounts.Creator))

	record, err := env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateAborted, record.State)
	assert.Equal(t, issuance.StepSetComputeBudget, record.FailedStep)
}

func TestCreateUniqueNFT_Simulation(t *testing.T) {
	env := setup(t, &testOverrides{
		enableSimulation: true,
	})
	inv := env.newInvocation(t)

	env.ledger.InduceInstructionError(token.ProgramKey, byte(token.CommandMintTo), token.ErrorOwnerMismatch)

	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	assertStepError(t, err, issuance.StepMintTo, issuance.StateMetadataCreated)
	env.assertNothingIssued(t, inv)

	// Simulation failures are not recorded
	_, err = env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	assert.Equal(t, issuance.ErrNotFound, err)

	_, err = env.issuer.CreateUniqueNFT(env.ctx, inv)
	require.NoError(t, err)
}

func TestCreateUniqueNFT_UnfundedCreator(t *testing.T) {
	env := setup(t, &testOverrides{})

	inv, err := NewInvocation(validArgs(), testutil.GenerateSolanaKeypair(t), testutil.GenerateSolanaKeypair(t))
	require.NoError(t, err)

	_, err = env.issuer.CreateUniqueNFT(env.ctx, inv)
	txErr := assertStepError(t, err, issuance.StepSubmit, issuance.StateStart)
	assert.Equal(t, solana.TransactionErrorAccountNotFound, txErr.ErrorKey())

	record, err := env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateAborted, record.State)
	assert.Equal(t, issuance.StepSubmit, record.FailedStep)
}

func TestCreateUniqueNFT_SubmissionOutcomeUnknown(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)

	sc := &unreachableSubmitClient{Client: env.ledger}
	issuer := NewIssuer(sc, env.records, withManualTestOverrides(&testOverrides{}))

	_, err := issuer.CreateUniqueNFT(env.ctx, inv)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDownstreamCallFailed))
	assert.False(t, errors.Is(err, ErrPreconditionViolation))
	assert.True(t, errors.Is(err, errUnreachable))

	record, err := env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateStart, record.State)

	// The outcome is unknown, so the mint cannot be reissued blindly
	_, err = env.issuer.CreateUniqueNFT(env.ctx, inv)
	assertPreconditionError(t, err, AccountMint, ErrAlreadyIssued)
}

func TestCreateUniqueNFT_CommitmentPollExpired(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)

	sc := &unsettledStatusClient{Client: env.ledger}
	issuer := NewIssuer(sc, env.records, withManualTestOverrides(&testOverrides{}))

	result, err := issuer.CreateUniqueNFT(env.ctx, inv)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateCommitted, result.State)

	record, err := env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateCommitted, record.State)
	require.NotNil(t, record.Signature)
	assert.Equal(t, result.Signature.String(), *record.Signature)

	_, err = env.ledger.GetAccountInfo(inv.Accounts.MasterEdition, solana.CommitmentFinalized)
	require.NoError(t, err)
}

func TestCreateUniqueNFT_CommitmentPollExpiredWithoutStatus(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)

	sc := &unsettledStatusClient{Client: env.ledger, hideStatuses: true}
	issuer := NewIssuer(sc, env.records, withManualTestOverrides(&testOverrides{}))

	_, err := issuer.CreateUniqueNFT(env.ctx, inv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, solana.ErrCommitmentNotReached))
	assert.False(t, errors.Is(err, ErrDownstreamCallFailed))

	record, err := env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateStart, record.State)
}

func TestCreateUniqueNFT_Creators(t *testing.T) {
	env := setup(t, &testOverrides{})
	royalty := testutil.GenerateSolanaKeys(t, 1)[0]

	inv := env.newInvocation(t)
	inv.Creators = []tokenmetadata.Creator{
		{Address: inv.Accounts.Creator, Share: 60},
		{Address: royalty, Share: 40},
	}

	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	require.NoError(t, err)

	metadata, err := tokenmetadata.NewClient(env.ledger).GetMetadata(inv.Accounts.Mint, solana.CommitmentFinalized)
	require.NoError(t, err)
	require.Len(t, metadata.Data.Creators, 2)
	assert.EqualValues(t, inv.Accounts.Creator, metadata.Data.Creators[0].Address)
	assert.EqualValues(t, 60, metadata.Data.Creators[0].Share)
	assert.EqualValues(t, royalty, metadata.Data.Creators[1].Address)
	assert.EqualValues(t, 40, metadata.Data.Creators[1].Share)

	inv = env.newInvocation(t)
	inv.Creators = []tokenmetadata.Creator{
		{Address: inv.Accounts.Creator, Share: 60},
		{Address: royalty, Share: 30},
	}
	_, err = env.issuer.CreateUniqueNFT(env.ctx, inv)
	assertPreconditionError(t, err, AccountCreators, ErrInvalidCreators)
	env.assertNothingIssued(t, inv)
}

func TestCreateUniqueNFT_MutablePolicy(t *testing.T) {
	env := setup(t, &testOverrides{})

	inv := env.newInvocation(t)
	inv.Policy = &Policy{
		IsMutable:               true,
		UpdateAuthorityIsSigner: true,
	}
	inv.Creators = []tokenmetadata.Creator{
		{Address: inv.Accounts.Creator, Verified: true, Share: 100},
	}

	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	require.NoError(t, err)

	metadata, err := tokenmetadata.NewClient(env.ledger).GetMetadata(inv.Accounts.Mint, solana.CommitmentFinalized)
	require.NoError(t, err)
	assert.True(t, metadata.IsMutable)
	require.Len(t, metadata.Data.Creators, 1)
	assert.True(t, metadata.Data.Creators[0].Verified)
}

func TestCreateUniqueNFT_DistinctMints(t *testing.T) {
	env := setup(t, &testOverrides{})

	for i := 0; i < 3; i++ {
		_, err := env.issuer.CreateUniqueNFT(env.ctx, env.newInvocation(t))
		require.NoError(t, err)
	}

	count, err := env.records.CountByState(env.ctx, issuance.StateCommitted)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

var errUnreachable = errors.New("rpc endpoint unreachable")

// unreachableSubmitClient fails every submission before it reaches the
// ledger.
type unreachableSubmitClient struct {
	solana.Client
}

func (c *unreachableSubmitClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	return txn.Signatures[0], errors.Wrap(errUnreachable, "sendTransaction() failed to send request")
}

// unsettledStatusClient reports transactions as confirmed but never
// finalized, so waiting for finalization runs out.
type unsettledStatusClient struct {
	solana.Client

	hideStatuses bool
}

func (c *unsettledStatusClient) GetSignatureStatus(solana.Signature, solana.Commitment) (*solana.SignatureStatus, error) {
	return nil, solana.ErrCommitmentNotReached
}

func (c *unsettledStatusClient) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	if c.hideStatuses {
		return make([]*solana.SignatureStatus, len(sigs)), nil
	}

	statuses, err := c.Client.GetSignatureStatuses(sigs)
	if err != nil {
		return nil, err
	}

	confirmations := 2
	for _, status := range statuses {
		if status != nil {
			status.Confirmations = &confirmations
			status.ConfirmationStatus = "confirmed"
		}
	}
	return statuses, nil
}

func public(key ed25519.PrivateKey) ed25519.PublicKey {
	return key.Public().(ed25519.PublicKey)
}

func TestCreateUniqueNFT_ConcurrentSameMint(t *testing.T) {
	env := setup(t, &testOverrides{})
	inv := env.newInvocation(t)

	const workers = 8

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.issuer.CreateUniqueNFT(env.ctx, inv)
		}(i)
	}
	wg.Wait()

	var committed int
	for _, err := range errs {
		if err == nil {
			committed++
			continue
		}
		assertPreconditionError(t, err, AccountMint, ErrAccountAlreadyExists)
	}
	assert.Equal(t, 1, committed)

	record, err := env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	require.NoError(t, err)
	assert.Equal(t, issuance.StateCommitted, record.State)
}

func TestCreateUniqueNFT_CreatorRateLimited(t *testing.T) {
	env := setup(t, &testOverrides{
		creatorIssuanceRateLimit: 1,
	})

	_, err := env.issuer.CreateUniqueNFT(env.ctx, env.newInvocation(t))
	require.NoError(t, err)

	inv := env.newInvocation(t)
	_, err = env.issuer.CreateUniqueNFT(env.ctx, inv)
	assert.Equal(t, ErrRateLimited, err)
	env.assertNothingIssued(t, inv)

	_, err = env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	assert.Equal(t, issuance.ErrNotFound, err)

	// Other creators are unaffected
	other := testutil.NewFundedKeypair(t, env.ledger, airdropAmount)
	inv, err = NewInvocation(validArgs(), other, testutil.GenerateSolanaKeypair(t))
	require.NoError(t, err)
	_, err = env.issuer.CreateUniqueNFT(env.ctx, inv)
	require.NoError(t, err)
}

func TestCreateUniqueNFT_TransactionTooLarge(t *testing.T) {
	env := setup(t, &testOverrides{})

	inv := env.newInvocation(t)
	inv.Args.URI = "https://example.com/" + strings.Repeat("a", solana.MaxTransactionSize)

	_, err := env.issuer.CreateUniqueNFT(env.ctx, inv)
	assert.True(t, errors.Is(err, ErrTransactionTooLarge), "unexpected error: %v", err)
	env.assertNothingIssued(t, inv)

	_, err = env.issuer.GetIssuance(env.ctx, inv.Accounts.Mint)
	assert.Equal(t, issuance.ErrNotFound, err)
}
