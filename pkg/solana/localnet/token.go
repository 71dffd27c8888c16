package localnet

import (
	"bytes"
	"math"

	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
)

func processToken(e *execution, index int) error {
	command, err := token.GetCommand(e.message, index)
	if err != nil {
		return token.ErrorInvalidInstruction
	}

	switch command {
	case token.CommandInitializeMint:
		return initializeMint(e, index)
	case token.CommandMintTo:
		return mintTo(e, index)
	default:
		return token.ErrorInvalidInstruction
	}
}

func initializeMint(e *execution, index int) error {
	ix, err := token.DecompileInitializeMint(e.message, index)
	if err != nil {
		return token.ErrorInvalidInstruction
	}

	info, err := e.owned(ix.Mint, token.ProgramKey)
	if err != nil {
		return err
	}
	if len(info.Data) != token.MintSize {
		return errInvalidAccountData
	}

	var mint token.Mint
	mint.Unmarshal(info.Data)
	if mint.IsInitialized {
		return token.ErrorAlreadyInUse
	}
	if info.Lamports < RentExemptBalance(token.MintSize) {
		return token.ErrorNotRentExempt
	}

	mint = token.Mint{
		MintAuthority:   ix.MintAuthority,
		Decimals:        ix.Decimals,
		IsInitialized:   true,
		FreezeAuthority: ix.FreezeAuthority,
	}
	info.Data = mint.Marshal()
	return e.write(ix.Mint, info)
}

func mintTo(e *execution, index int) error {
	ix, err := token.DecompileMintTo(e.message, index)
	if err != nil {
		return token.ErrorInvalidInstruction
	}

	mintInfo, mint, err := loadMint(e, ix.Mint)
	if err != nil {
		return err
	}

	destInfo, err := e.owned(ix.Dest, token.ProgramKey)
	if err != nil {
		return err
	}
	var dest token.Account
	if !dest.Unmarshal(destInfo.Data) || dest.State == token.AccountStateUninitialized {
		return errUninitializedAccount
	}
	if dest.State == token.AccountStateFrozen {
		return token.ErrorAccountFrozen
	}
	if !bytes.Equal(dest.Mint, ix.Mint) {
		return token.ErrorMintMismatch
	}

	if len(mint.MintAuthority) == 0 {
		return token.ErrorFixedSupply
	}
	if !bytes.Equal(mint.MintAuthority, ix.Authority) {
		return token.ErrorOwnerMismatch
	}
	if !e.isSigner(ix.Authority) {
		return errMissingRequiredSignature
	}

	if mint.Supply > math.MaxUint64-ix.Amount || dest.Amount > math.MaxUint64-ix.Amount {
		return token.ErrorOverflow
	}
	mint.Supply += ix.Amount
	dest.Amount += ix.Amount

	mintInfo.Data = mint.Marshal()
	if err := e.write(ix.Mint, mintInfo); err != nil {
		return err
	}

	destInfo.Data = dest.Marshal()
	return e.write(ix.Dest, destInfo)
}
