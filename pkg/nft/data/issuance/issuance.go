package issuance

import (
	"errors"
	"time"

	"github.com/code-payments/code-nft-issuer/pkg/pointer"
)

// State is the position of an issuance in its lifecycle. The intermediate
// states are only ever observed inside a single transaction, so records move
// from StateStart directly to StateCommitted or StateAborted.
type State uint8

const (
	StateUnknown State = iota
	StateStart
	StateMetadataCreated
	StateMinted
	StateEditionCreated
	StateCommitted
	StateAborted
)

// Step is one stage of the issuance pipeline.
type Step uint8

const (
	StepUnknown Step = iota
	StepInitializeAccounts
	StepCreateMetadata
	StepMintTo
	StepCreateMasterEdition
	StepSubmit
	StepSetComputeBudget
)

type Record struct {
	Id uint64

	Mint          string
	Creator       string
	TokenAccount  string
	Metadata      string
	MasterEdition string

	Name   string
	Symbol string
	URI    string

	Signature *string

	State      State
	FailedStep Step

	CreatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.Mint) == 0 {
		return errors.New("mint is required")
	}

	if len(r.Creator) == 0 {
		return errors.New("creator is required")
	}

	if len(r.TokenAccount) == 0 {
		return errors.New("token account is required")
	}

	if len(r.Metadata) == 0 {
		return errors.New("metadata is required")
	}

	if len(r.MasterEdition) == 0 {
		return errors.New("master edition is required")
	}

	if r.Signature != nil && len(*r.Signature) == 0 {
		return errors.New("signature cannot be empty when set")
	}

	switch r.State {
	case StateStart, StateCommitted, StateAborted:
	default:
		return errors.New("state must be start, committed or aborted")
	}

	if r.State == StateCommitted && r.Signature == nil {
		return errors.New("signature is required for committed issuances")
	}

	if r.State == StateAborted && r.FailedStep == StepUnknown {
		return errors.New("failed step is required for aborted issuances")
	}

	if r.State != StateAborted && r.FailedStep != StepUnknown {
		return errors.New("failed step is only valid for aborted issuances")
	}

	return nil
}

func (r *Record) Clone() *Record {
	return &Record{
		Id: r.Id,

		Mint:          r.Mint,
		Creator:       r.Creator,
		TokenAccount:  r.TokenAccount,
		Metadata:      r.Metadata,
		MasterEdition: r.MasterEdition,

		Name:   r.Name,
		Symbol: r.Symbol,
		URI:    r.URI,

		Signature: pointer.StringCopy(r.Signature),

		State:      r.State,
		FailedStep: r.FailedStep,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Mint = r.Mint
	dst.Creator = r.Creator
	dst.TokenAccount = r.TokenAccount
	dst.Metadata = r.Metadata
	dst.MasterEdition = r.MasterEdition

	dst.Name = r.Name
	dst.Symbol = r.Symbol
	dst.URI = r.URI

	dst.Signature = pointer.StringCopy(r.Signature)

	dst.State = r.State
	dst.FailedStep = r.FailedStep

	dst.CreatedAt = r.CreatedAt
}

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateMetadataCreated:
		return "metadata_created"
	case StateMinted:
		return "minted"
	case StateEditionCreated:
		return "edition_created"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

func (s Step) String() string {
	switch s {
	case StepInitializeAccounts:
		return "initialize_accounts"
	case StepCreateMetadata:
		return "create_metadata"
	case StepMintTo:
		return "mint_to"
	case StepCreateMasterEdition:
		return "create_master_edition"
	case StepSubmit:
		return "submit"
	case StepSetComputeBudget:
		return "set_compute_budget"
	}
	return "unknown"
}
