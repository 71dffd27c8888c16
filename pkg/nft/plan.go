package nft

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
	"github.com/code-payments/code-nft-issuer/pkg/pointer"
	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/computebudget"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
	"github.com/code-payments/code-nft-issuer/pkg/solana/tokenmetadata"
)

const (
	mintDecimals      = 0
	mintAmount        = 1
	editionMaxSupply  = 1
	sellerFeeBasisPts = 0
)

// plan is the ordered instruction list of one issuance. Each instruction is
// tagged with the step that produced it, so a failing instruction index can
// be mapped back to its step.
type plan struct {
	instructions []solana.Instruction
	steps        []issuance.Step
}

func (p *plan) add(step issuance.Step, instructions ...solana.Instruction) {
	for _, instruction := range instructions {
		p.instructions = append(p.instructions, instruction)
		p.steps = append(p.steps, step)
	}
}

// prependComputeBudget returns a copy of p led by the compute budget
// instructions for limit and price. Zero values are omitted.
func prependComputeBudget(p *plan, limit, price uint64) *plan {
	res := &plan{}
	if limit > 0 {
		units := uint32(min(limit, computebudget.MaxComputeUnitLimit))
		res.add(issuance.StepSetComputeBudget, computebudget.SetComputeUnitLimit(units))
	}
	if price > 0 {
		res.add(issuance.StepSetComputeBudget, computebudget.SetComputeUnitPrice(price))
	}

	res.instructions = append(res.instructions, p.instructions...)
	res.steps = append(res.steps, p.steps...)
	return res
}

// stepAt returns the step owning the instruction at index.
func (p *plan) stepAt(index int) issuance.Step {
	if index < 0 || index >= len(p.steps) {
		return issuance.StepUnknown
	}
	return p.steps[index]
}

// stateBefore is the last state an invocation reaches before step runs.
func stateBefore(step issuance.Step) issuance.State {
	switch step {
	case issuance.StepMintTo:
		return issuance.StateMetadataCreated
	case issuance.StepCreateMasterEdition:
		return issuance.StateMinted
	}
	return issuance.StateStart
}

type initializedAccounts struct {
	plan *plan

	payer         ed25519.PublicKey
	mint          ed25519.PublicKey
	mintAuthority ed25519.PublicKey
	tokenAccount  ed25519.PublicKey
}

type createdMetadata struct {
	*initializedAccounts

	metadata        ed25519.PublicKey
	updateAuthority ed25519.PublicKey
}

type mintedToken struct {
	*createdMetadata

	amount uint64
}

type createdMasterEdition struct {
	*mintedToken

	edition   ed25519.PublicKey
	maxSupply uint64
}

// buildPlan runs every step of the pipeline and returns the final result,
// whose plan holds the complete instruction list.
func buildPlan(inv *Invocation, mintRentExemption uint64) (*createdMasterEdition, error) {
	initialized, err := initializeAccounts(inv, mintRentExemption)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing accounts")
	}

	metadata, err := createMetadata(initialized, inv)
	if err != nil {
		return nil, errors.Wrap(err, "error creating metadata")
	}

	minted := mintOne(metadata)

	edition, err := createMasterEdition(minted, inv.Accounts.MasterEdition)
	if err != nil {
		return nil, errors.Wrap(err, "error creating master edition")
	}

	return edition, nil
}

// initializeAccounts creates a zero decimal mint owned by the creator and the
// creator's associated token account.
func initializeAccounts(inv *Invocation, mintRentExemption uint64) (*initializedAccounts, error) {
	a := &inv.Accounts
	p := &plan{}

	createAta, tokenAccount, err := token.CreateAssociatedTokenAccount(a.Creator, a.Creator, a.Mint)
	if err != nil {
		return nil, err
	}

	p.add(
		issuance.StepInitializeAccounts,
		system.CreateAccount(a.Creator, a.Mint, token.ProgramKey, mintRentExemption, token.MintSize),
		token.InitializeMint(a.Mint, a.Creator, a.Creator, mintDecimals),
		createAta,
	)

	return &initializedAccounts{
		plan:          p,
		payer:         a.Creator,
		mint:          a.Mint,
		mintAuthority: a.Creator,
		tokenAccount:  tokenAccount,
	}, nil
}

func createMetadata(prev *initializedAccounts, inv *Invocation) (*createdMetadata, error) {
	policy := inv.policy()

	instruction, err := tokenmetadata.NewCreateMetadataAccountV3Instruction(
		&tokenmetadata.CreateMetadataAccountV3Accounts{
			Metadata:                inv.Accounts.Metadata,
			Mint:                    prev.mint,
			MintAuthority:           prev.mintAuthority,
			Payer:                   prev.payer,
			UpdateAuthority:         prev.mintAuthority,
			UpdateAuthorityIsSigner: policy.UpdateAuthorityIsSigner,
		},
		&tokenmetadata.CreateMetadataAccountV3Args{
			Data: tokenmetadata.DataV2{
				Name:                 inv.Args.Name,
				Symbol:               inv.Args.Symbol,
				URI:                  inv.Args.URI,
				SellerFeeBasisPoints: sellerFeeBasisPts,
				Creators:             inv.creators(),
			},
			IsMutable: policy.IsMutable,
		},
	)
	if err != nil {
		return nil, err
	}

	prev.plan.add(issuance.StepCreateMetadata, instruction)

	return &createdMetadata{
		initializedAccounts: prev,
		metadata:            inv.Accounts.Metadata,
		updateAuthority:     prev.mintAuthority,
	}, nil
}

func mintOne(prev *createdMetadata) *mintedToken {
	prev.plan.add(
		issuance.StepMintTo,
		token.MintTo(prev.mint, prev.tokenAccount, prev.mintAuthority, mintAmount),
	)

	return &mintedToken{
		createdMetadata: prev,
		amount:          mintAmount,
	}
}

func createMasterEdition(prev *mintedToken, edition ed25519.PublicKey) (*createdMasterEdition, error) {
	instruction, err := tokenmetadata.NewCreateMasterEditionV3Instruction(
		&tokenmetadata.CreateMasterEditionV3Accounts{
			Edition:         edition,
			Mint:            prev.mint,
			UpdateAuthority: prev.updateAuthority,
			MintAuthority:   prev.mintAuthority,
			Payer:           prev.payer,
			Metadata:        prev.metadata,
		},
		&tokenmetadata.CreateMasterEditionV3Args{
			MaxSupply: pointer.Uint64(editionMaxSupply),
		},
	)
	if err != nil {
		return nil, err
	}

	prev.plan.add(issuance.StepCreateMasterEdition, instruction)

	return &createdMasterEdition{
		mintedToken: prev,
		edition:     edition,
		maxSupply:   editionMaxSupply,
	}, nil
}
