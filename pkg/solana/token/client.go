package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that a Solana account exists at the
	// given address, but it is either not initialized, or not configured correctly.
	ErrInvalidTokenAccount = errors.New("invalid token account")
	// ErrInvalidMint indicates that a Solana account exists at the given
	// address, but it is not an initialized mint.
	ErrInvalidMint = errors.New("invalid mint")
)

// Client reads typed token program state.
type Client struct {
	sc solana.Client
}

// NewClient creates a new Client.
func NewClient(sc solana.Client) *Client {
	return &Client{
		sc: sc,
	}
}

// GetMint returns the mint state at the specified address.
func (c *Client) GetMint(address ed25519.PublicKey, commitment solana.Commitment) (*Mint, error) {
	info, err := c.getProgramAccount(address, commitment)
	if err != nil {
		return nil, err
	}

	var mint Mint
	if !mint.Unmarshal(info.Data) || !mint.IsInitialized {
		return nil, ErrInvalidMint
	}

	return &mint, nil
}

// GetAccount returns the token account info for the specified account.
//
// If the account is not initialized, or belongs to a different
// mint, then ErrInvalidTokenAccount is returned.
func (c *Client) GetAccount(address, mint ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	info, err := c.getProgramAccount(address, commitment)
	if err != nil {
		return nil, err
	}

	var account Account
	if !account.Unmarshal(info.Data) || account.State == AccountStateUninitialized {
		return nil, ErrInvalidTokenAccount
	}

	if !bytes.Equal(mint, account.Mint) {
		return nil, ErrInvalidTokenAccount
	}

	return &account, nil
}

func (c *Client) getProgramAccount(address ed25519.PublicKey, commitment solana.Commitment) (solana.AccountInfo, error) {
	info, err := c.sc.GetAccountInfo(address, commitment)
	if err == solana.ErrNoAccountInfo {
		return info, ErrAccountNotFound
	} else if err != nil {
		return info, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(info.Owner, ProgramKey) {
		return info, ErrInvalidTokenAccount
	}

	return info, nil
}
