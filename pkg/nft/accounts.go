package nft

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
	"github.com/code-payments/code-nft-issuer/pkg/solana/tokenmetadata"
)

// Args is the caller supplied description of the token. The values are passed
// to the metadata program as is.
type Args struct {
	Name   string
	Symbol string
	URI    string
}

// Accounts is the ordered set of account handles an issuance operates on.
type Accounts struct {
	Creator             ed25519.PublicKey
	Mint                ed25519.PublicKey
	CreatorTokenAccount ed25519.PublicKey
	Metadata            ed25519.PublicKey
	MasterEdition       ed25519.PublicKey

	TokenProgram           ed25519.PublicKey
	AssociatedTokenProgram ed25519.PublicKey
	MetadataProgram        ed25519.PublicKey
	SystemProgram          ed25519.PublicKey
	RentSysvar             ed25519.PublicKey
}

// NewAccounts derives the canonical account set for a creator and mint.
func NewAccounts(creator, mint ed25519.PublicKey) (*Accounts, error) {
	tokenAccount, err := token.GetAssociatedAccount(creator, mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving creator token account")
	}

	metadata, err := tokenmetadata.GetMetadataAddress(mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving metadata account")
	}

	edition, err := tokenmetadata.GetMasterEditionAddress(mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving master edition account")
	}

	return &Accounts{
		Creator:             creator,
		Mint:                mint,
		CreatorTokenAccount: tokenAccount,
		Metadata:            metadata.Address,
		MasterEdition:       edition.Address,

		TokenProgram:           token.ProgramKey,
		AssociatedTokenProgram: token.AssociatedTokenAccountProgramKey,
		MetadataProgram:        tokenmetadata.ProgramKey,
		SystemProgram:          system.ProgramKey[:],
		RentSysvar:             system.RentSysVar,
	}, nil
}

// Fields returns the issued accounts as base58 log fields.
func (a *Accounts) Fields() logrus.Fields {
	return logrus.Fields{
		"creator":       base58.Encode(a.Creator),
		"mint":          base58.Encode(a.Mint),
		"token_account": base58.Encode(a.CreatorTokenAccount),
		"metadata":      base58.Encode(a.Metadata),
		"edition":       base58.Encode(a.MasterEdition),
	}
}

// Policy controls the mutability of the created metadata.
type Policy struct {
	IsMutable               bool
	UpdateAuthorityIsSigner bool
}

// DefaultPolicy freezes the metadata at issuance.
var DefaultPolicy = Policy{
	IsMutable:               false,
	UpdateAuthorityIsSigner: false,
}

// Invocation is a single request to issue a unique NFT.
type Invocation struct {
	Args     Args
	Accounts Accounts

	// Creator pays for and authorizes the issuance.
	Creator ed25519.PrivateKey
	// Mint is the keypair of the fresh mint account.
	Mint ed25519.PrivateKey

	// Creators is the ordered royalty list. When empty, the creator receives
	// the full share unverified.
	Creators []tokenmetadata.Creator

	// Policy defaults to DefaultPolicy when nil.
	Policy *Policy
}

// NewInvocation builds an invocation over the canonical accounts of the
// creator and mint keypairs.
func NewInvocation(args Args, creator, mint ed25519.PrivateKey) (*Invocation, error) {
	accounts, err := NewAccounts(creator.Public().(ed25519.PublicKey), mint.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}

	return &Invocation{
		Args:     args,
		Accounts: *accounts,
		Creator:  creator,
		Mint:     mint,
	}, nil
}

func (i *Invocation) policy() Policy {
	if i.Policy == nil {
		return DefaultPolicy
	}
	return *i.Policy
}

func (i *Invocation) creators() []tokenmetadata.Creator {
	if len(i.Creators) == 0 {
		return []tokenmetadata.Creator{
			{
				Address:  i.Accounts.Creator,
				Verified: false,
				Share:    tokenmetadata.RequiredShareTotal,
			},
		}
	}
	return i.Creators
}
