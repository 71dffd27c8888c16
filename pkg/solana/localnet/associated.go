package localnet

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
)

func processAssociatedToken(e *execution, index int) error {
	ix, err := token.DecompileCreateAssociatedAccount(e.message, index)
	if err != nil {
		return errInvalidInstructionData
	}

	expected, err := token.GetAssociatedAccount(ix.Owner, ix.Mint)
	if err != nil || !bytes.Equal(expected, ix.Address) {
		return errInvalidSeeds
	}

	if existing, ok := e.account(ix.Address); ok && bytes.Equal(existing.Owner, token.ProgramKey) {
		if ix.Command != token.AssociatedCommandCreateIdempotent {
			return system.ErrorAccountAlreadyInUse
		}

		var account token.Account
		if !account.Unmarshal(existing.Data) || !bytes.Equal(account.Mint, ix.Mint) || !bytes.Equal(account.Owner, ix.Owner) {
			return token.AssociatedErrorInvalidOwner
		}
		return nil
	}

	if _, _, err := loadMint(e, ix.Mint); err != nil {
		return token.ErrorInvalidMint
	}

	if err := e.allocate(ix.Subsidizer, ix.Address, token.ProgramKey, token.AccountSize); err != nil {
		return err
	}

	info, _ := e.account(ix.Address)
	info.Data = (&token.Account{
		Mint:  ix.Mint,
		Owner: ix.Owner,
		State: token.AccountStateInitialized,
	}).Marshal()
	return e.write(ix.Address, info)
}

// loadMint returns the initialized mint at address.
func loadMint(e *execution, address ed25519.PublicKey) (solana.AccountInfo, *token.Mint, error) {
	info, err := e.owned(address, token.ProgramKey)
	if err != nil {
		return info, nil, err
	}

	var mint token.Mint
	if !mint.Unmarshal(info.Data) || !mint.IsInitialized {
		return info, nil, errUninitializedAccount
	}
	return info, &mint, nil
}
