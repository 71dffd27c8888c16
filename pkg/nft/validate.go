package nft

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
	"github.com/code-payments/code-nft-issuer/pkg/solana/tokenmetadata"
)

// Account names used in PreconditionError.
const (
	AccountCreator                = "creator"
	AccountMint                   = "mint"
	AccountCreatorTokenAccount    = "creator_token_account"
	AccountMetadata               = "metadata"
	AccountMasterEdition          = "master_edition"
	AccountTokenProgram           = "token_program"
	AccountAssociatedTokenProgram = "associated_token_program"
	AccountMetadataProgram        = "metadata_program"
	AccountSystemProgram          = "system_program"
	AccountRentSysvar             = "rent_sysvar"
	AccountCreators               = "creators"
)

// checkAccounts validates the account relationships of an invocation. It
// performs no network calls. Name, symbol and uri are left to the metadata
// program.
func checkAccounts(inv *Invocation) error {
	a := &inv.Accounts

	if !isKeypairOf(inv.Creator, a.Creator) {
		return newPreconditionError(AccountCreator, ErrMissingSignature)
	}
	if !isKeypairOf(inv.Mint, a.Mint) {
		return newPreconditionError(AccountMint, ErrMissingSignature)
	}
	if bytes.Equal(a.Creator, a.Mint) {
		return newPreconditionError(AccountMint, errors.New("mint cannot be the creator"))
	}

	for _, program := range []struct {
		name     string
		actual   ed25519.PublicKey
		expected ed25519.PublicKey
	}{
		{AccountTokenProgram, a.TokenProgram, token.ProgramKey},
		{AccountAssociatedTokenProgram, a.AssociatedTokenProgram, token.AssociatedTokenAccountProgramKey},
		{AccountMetadataProgram, a.MetadataProgram, tokenmetadata.ProgramKey},
		{AccountSystemProgram, a.SystemProgram, system.ProgramKey[:]},
		{AccountRentSysvar, a.RentSysvar, system.RentSysVar},
	} {
		if !bytes.Equal(program.actual, program.expected) {
			return newPreconditionError(program.name, errors.Wrapf(ErrProgramMismatch, "expected %s", base58.Encode(program.expected)))
		}
	}

	tokenAccount, err := token.GetAssociatedAccount(a.Creator, a.Mint)
	if err != nil {
		return newPreconditionError(AccountCreatorTokenAccount, err)
	}
	if !bytes.Equal(tokenAccount, a.CreatorTokenAccount) {
		return newPreconditionError(AccountCreatorTokenAccount, ErrDerivationMismatch)
	}

	if err := tokenmetadata.VerifyMetadataAddress(a.Metadata, a.Mint); err == solana.ErrAddressMismatch {
		return newPreconditionError(AccountMetadata, ErrDerivationMismatch)
	} else if err != nil {
		return newPreconditionError(AccountMetadata, err)
	}

	if err := tokenmetadata.VerifyMasterEditionAddress(a.MasterEdition, a.Mint); err == solana.ErrAddressMismatch {
		return newPreconditionError(AccountMasterEdition, ErrDerivationMismatch)
	} else if err != nil {
		return newPreconditionError(AccountMasterEdition, err)
	}

	if err := checkCreators(a.Creator, inv.Creators, inv.policy()); err != nil {
		return newPreconditionError(AccountCreators, err)
	}

	return nil
}

// checkCreators validates a caller supplied royalty list. An empty list is
// replaced by the single unverified creator entry.
func checkCreators(creator ed25519.PublicKey, creators []tokenmetadata.Creator, policy Policy) error {
	if len(creators) == 0 {
		return nil
	}

	if len(creators) > tokenmetadata.MaxCreatorLimit {
		return errors.Wrapf(ErrInvalidCreators, "at most %d creators are allowed", tokenmetadata.MaxCreatorLimit)
	}

	var total int
	seen := make(map[string]struct{})
	for _, c := range creators {
		if len(c.Address) != ed25519.PublicKeySize {
			return errors.Wrap(ErrInvalidCreators, "creator address is invalid")
		}

		address := string(c.Address)
		if _, ok := seen[address]; ok {
			return errors.Wrapf(ErrInvalidCreators, "duplicate creator %s", base58.Encode(c.Address))
		}
		seen[address] = struct{}{}

		// Only the update authority can verify itself, and only when it signs
		if c.Verified && (!bytes.Equal(c.Address, creator) || !policy.UpdateAuthorityIsSigner) {
			return errors.Wrapf(ErrInvalidCreators, "creator %s cannot be verified", base58.Encode(c.Address))
		}

		total += int(c.Share)
	}

	if total != tokenmetadata.RequiredShareTotal {
		return errors.Wrapf(ErrInvalidCreators, "shares must total %d", tokenmetadata.RequiredShareTotal)
	}

	return nil
}

// checkUninitialized requires every account created by the issuance to be
// absent from the ledger.
func checkUninitialized(sc solana.Client, a *Accounts, commitment solana.Commitment) error {
	for _, account := range []struct {
		name    string
		address ed25519.PublicKey
	}{
		{AccountMint, a.Mint},
		{AccountCreatorTokenAccount, a.CreatorTokenAccount},
		{AccountMetadata, a.Metadata},
		{AccountMasterEdition, a.MasterEdition},
	} {
		_, err := sc.GetAccountInfo(account.address, commitment)
		switch err {
		case nil:
			return newPreconditionError(account.name, ErrAccountAlreadyExists)
		case solana.ErrNoAccountInfo:
		default:
			return errors.Wrapf(err, "error getting %s account info", account.name)
		}
	}

	return nil
}

func isKeypairOf(key ed25519.PrivateKey, public ed25519.PublicKey) bool {
	if len(key) != ed25519.PrivateKeySize || len(public) != ed25519.PublicKeySize {
		return false
	}
	return bytes.Equal(key.Public().(ed25519.PublicKey), public)
}
