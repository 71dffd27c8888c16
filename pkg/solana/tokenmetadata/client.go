package tokenmetadata

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
)

var (
	ErrMetadataNotFound      = errors.New("metadata not found")
	ErrMasterEditionNotFound = errors.New("master edition not found")
	ErrInvalidAccount        = errors.New("account not owned by the token metadata program")
)

// Client reads token metadata program state for a mint.
type Client struct {
	sc solana.Client
}

func NewClient(sc solana.Client) *Client {
	return &Client{
		sc: sc,
	}
}

// GetMetadata returns the metadata of mint.
func (c *Client) GetMetadata(mint ed25519.PublicKey, commitment solana.Commitment) (*Metadata, error) {
	address, err := GetMetadataAddress(mint)
	if err != nil {
		return nil, err
	}

	info, err := c.getProgramAccount(address.Address, commitment, ErrMetadataNotFound)
	if err != nil {
		return nil, err
	}

	var metadata Metadata
	if err := metadata.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrap(err, "invalid metadata account")
	}
	return &metadata, nil
}

// GetMasterEdition returns the master edition of mint.
func (c *Client) GetMasterEdition(mint ed25519.PublicKey, commitment solana.Commitment) (*MasterEdition, error) {
	address, err := GetMasterEditionAddress(mint)
	if err != nil {
		return nil, err
	}

	info, err := c.getProgramAccount(address.Address, commitment, ErrMasterEditionNotFound)
	if err != nil {
		return nil, err
	}

	var edition MasterEdition
	if err := edition.Unmarshal(info.Data); err != nil {
		return nil, errors.Wrap(err, "invalid master edition account")
	}
	return &edition, nil
}

func (c *Client) getProgramAccount(address ed25519.PublicKey, commitment solana.Commitment, notFound error) (solana.AccountInfo, error) {
	info, err := c.sc.GetAccountInfo(address, commitment)
	if err == solana.ErrNoAccountInfo {
		return info, notFound
	} else if err != nil {
		return info, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(info.Owner, ProgramKey) {
		return info, ErrInvalidAccount
	}

	return info, nil
}
