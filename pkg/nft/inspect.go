package nft

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/metrics"
	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
	"github.com/code-payments/code-nft-issuer/pkg/solana/tokenmetadata"
)

// Issued is the ledger state of an issued NFT.
type Issued struct {
	Accounts Accounts

	Mint          *token.Mint
	TokenAccount  *token.Account
	Metadata      *tokenmetadata.Metadata
	MasterEdition *tokenmetadata.MasterEdition
}

// Inspect loads the ledger state of the NFT issued to creator under mint.
func (i *Issuer) Inspect(ctx context.Context, creator, mint ed25519.PublicKey) (*Issued, error) {
	defer metrics.TraceMethodCall(ctx, metricsStructName, "Inspect").End()

	commitment, err := solana.CommitmentFromString(i.conf.commitment.Get(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "invalid commitment configuration")
	}

	accounts, err := NewAccounts(creator, mint)
	if err != nil {
		return nil, err
	}

	tokenClient := token.NewClient(i.sc)
	metadataClient := tokenmetadata.NewClient(i.sc)

	res := &Issued{
		Accounts: *accounts,
	}

	res.Mint, err = tokenClient.GetMint(mint, commitment)
	if err != nil {
		return nil, errors.Wrap(err, "error getting mint")
	}

	res.TokenAccount, err = tokenClient.GetAccount(accounts.CreatorTokenAccount, mint, commitment)
	if err != nil {
		return nil, errors.Wrap(err, "error getting creator token account")
	}

	res.Metadata, err = metadataClient.GetMetadata(mint, commitment)
	if err != nil {
		return nil, errors.Wrap(err, "error getting metadata")
	}

	res.MasterEdition, err = metadataClient.GetMasterEdition(mint, commitment)
	if err != nil {
		return nil, errors.Wrap(err, "error getting master edition")
	}

	return res, nil
}

// Validate checks the ledger state against the outcome of a committed
// issuance.
func (n *Issued) Validate() error {
	if n.Mint.Decimals != mintDecimals {
		return errors.Errorf("mint has %d decimals", n.Mint.Decimals)
	}
	if n.Mint.Supply != mintAmount {
		return errors.Errorf("mint supply is %d", n.Mint.Supply)
	}
	if !bytes.Equal(n.Mint.MintAuthority, n.Accounts.MasterEdition) {
		return errors.New("mint authority is not the master edition")
	}

	if n.TokenAccount.Amount != mintAmount {
		return errors.Errorf("creator token account holds %d", n.TokenAccount.Amount)
	}
	if !bytes.Equal(n.TokenAccount.Owner, n.Accounts.Creator) {
		return errors.New("creator token account is not owned by the creator")
	}

	if !bytes.Equal(n.Metadata.Mint, n.Accounts.Mint) {
		return errors.New("metadata mint mismatch")
	}
	if n.Metadata.TokenStandard == nil || *n.Metadata.TokenStandard != tokenmetadata.TokenStandardNonFungible {
		return errors.New("metadata is not non-fungible")
	}

	if n.MasterEdition.MaxSupply == nil || *n.MasterEdition.MaxSupply != editionMaxSupply {
		return errors.New("master edition max supply is not one")
	}

	return nil
}
