package localnet

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/code-nft-issuer/pkg/pointer"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
	"github.com/code-payments/code-nft-issuer/pkg/solana/tokenmetadata"
)

func processTokenMetadata(e *execution, index int) error {
	command, err := tokenmetadata.GetCommand(e.message, index)
	if err != nil {
		return tokenmetadata.ErrorInstructionUnpack
	}

	switch command {
	case tokenmetadata.CommandCreateMetadataAccountV3:
		return createMetadataAccountV3(e, index)
	case tokenmetadata.CommandCreateMasterEditionV3:
		return createMasterEditionV3(e, index)
	default:
		return tokenmetadata.ErrorInstructionUnpack
	}
}

func createMetadataAccountV3(e *execution, index int) error {
	ix, err := tokenmetadata.DecompileCreateMetadataAccountV3(e.message, index)
	if err != nil {
		return tokenmetadata.ErrorInstructionUnpack
	}
	accounts, args := ix.Accounts, ix.Args

	if err := tokenmetadata.VerifyMetadataAddress(accounts.Metadata, accounts.Mint); err != nil {
		return tokenmetadata.ErrorInvalidMetadataKey
	}
	if existing, ok := e.account(accounts.Metadata); ok && len(existing.Data) > 0 {
		return tokenmetadata.ErrorAlreadyInitialized
	}

	_, mint, err := loadMint(e, accounts.Mint)
	if err != nil {
		return err
	}
	if err := checkMintAuthority(e, mint, accounts.MintAuthority); err != nil {
		return err
	}

	if err := validateData(&args.Data, accounts.UpdateAuthority, accounts.UpdateAuthorityIsSigner); err != nil {
		return err
	}

	edition, err := tokenmetadata.GetMasterEditionAddress(accounts.Mint)
	if err != nil {
		return err
	}

	if err := e.allocate(accounts.Payer, accounts.Metadata, tokenmetadata.ProgramKey, tokenmetadata.MaxMetadataLength); err != nil {
		return err
	}

	standard := tokenmetadata.TokenStandardFungible
	if mint.Decimals == 0 {
		standard = tokenmetadata.TokenStandardFungibleAsset
	}

	metadata := &tokenmetadata.Metadata{
		Key:               tokenmetadata.KeyMetadataV1,
		UpdateAuthority:   accounts.UpdateAuthority,
		Mint:              accounts.Mint,
		Data:              args.Data,
		IsMutable:         args.IsMutable,
		EditionNonce:      pointer.Uint8(edition.Bump),
		TokenStandard:     &standard,
		CollectionDetails: args.CollectionDetails,
	}
	return writeMetadata(e, accounts.Metadata, metadata)
}

func createMasterEditionV3(e *execution, index int) error {
	ix, err := tokenmetadata.DecompileCreateMasterEditionV3(e.message, index)
	if err != nil {
		return tokenmetadata.ErrorInstructionUnpack
	}
	accounts := ix.Accounts

	metadataInfo, err := e.owned(accounts.Metadata, tokenmetadata.ProgramKey)
	if err != nil {
		return tokenmetadata.ErrorUninitialized
	}
	var metadata tokenmetadata.Metadata
	if err := metadata.Unmarshal(metadataInfo.Data); err != nil {
		return tokenmetadata.ErrorUninitialized
	}
	if !bytes.Equal(metadata.Mint, accounts.Mint) {
		return tokenmetadata.ErrorMintMismatch
	}

	if err := tokenmetadata.VerifyMasterEditionAddress(accounts.Edition, accounts.Mint); err != nil {
		return tokenmetadata.ErrorDerivedKeyInvalid
	}
	if existing, ok := e.account(accounts.Edition); ok && len(existing.Data) > 0 {
		return tokenmetadata.ErrorAlreadyInitialized
	}

	if !bytes.Equal(metadata.UpdateAuthority, accounts.UpdateAuthority) {
		return tokenmetadata.ErrorUpdateAuthorityIncorrect
	}
	if !e.isSigner(accounts.UpdateAuthority) {
		return tokenmetadata.ErrorUpdateAuthorityIsNotSigner
	}

	mintInfo, mint, err := loadMint(e, accounts.Mint)
	if err != nil {
		return err
	}
	if err := checkMintAuthority(e, mint, accounts.MintAuthority); err != nil {
		return err
	}
	if mint.Decimals != 0 {
		return tokenmetadata.ErrorEditionMintDecimalsShouldBeZero
	}
	if mint.Supply != 1 {
		return tokenmetadata.ErrorEditionsMustHaveExactlyOneToken
	}

	if err := e.allocate(accounts.Payer, accounts.Edition, tokenmetadata.ProgramKey, tokenmetadata.MaxMasterEditionSize); err != nil {
		return err
	}

	editionData, err := (&tokenmetadata.MasterEdition{MaxSupply: pointer.Uint64Copy(ix.Args.MaxSupply)}).Marshal()
	if err != nil {
		return err
	}
	editionInfo, _ := e.account(accounts.Edition)
	editionInfo.Data = editionData
	if err := e.write(accounts.Edition, editionInfo); err != nil {
		return err
	}

	// The edition becomes the only authority able to mint or freeze.
	mint.MintAuthority = accounts.Edition
	if len(mint.FreezeAuthority) > 0 {
		mint.FreezeAuthority = accounts.Edition
	}
	mintInfo.Data = mint.Marshal()
	if err := e.write(accounts.Mint, mintInfo); err != nil {
		return err
	}

	standard := tokenmetadata.TokenStandardNonFungible
	metadata.TokenStandard = &standard
	return writeMetadata(e, accounts.Metadata, &metadata)
}

func checkMintAuthority(e *execution, mint *token.Mint, authority ed25519.PublicKey) error {
	if !bytes.Equal(mint.MintAuthority, authority) {
		return tokenmetadata.ErrorInvalidMintAuthority
	}
	if !e.isSigner(authority) {
		return tokenmetadata.ErrorNotMintAuthority
	}
	return nil
}

func validateData(data *tokenmetadata.DataV2, updateAuthority ed25519.PublicKey, updateAuthorityIsSigner bool) error {
	if len(data.Name) > tokenmetadata.MaxNameLength {
		return tokenmetadata.ErrorNameTooLong
	}
	if len(data.Symbol) > tokenmetadata.MaxSymbolLength {
		return tokenmetadata.ErrorSymbolTooLong
	}
	if len(data.URI) > tokenmetadata.MaxURILength {
		return tokenmetadata.ErrorURITooLong
	}
	if data.SellerFeeBasisPoints > tokenmetadata.MaxSellerFeeBasis {
		return tokenmetadata.ErrorInvalidBasisPoints
	}

	if data.Creators != nil {
		if len(data.Creators) > tokenmetadata.MaxCreatorLimit {
			return tokenmetadata.ErrorCreatorsTooLong
		}
		if len(data.Creators) == 0 {
			return tokenmetadata.ErrorCreatorsMustBeAtleastOne
		}

		var total int
		seen := make(map[string]struct{}, len(data.Creators))
		for _, creator := range data.Creators {
			if _, ok := seen[string(creator.Address)]; ok {
				return tokenmetadata.ErrorDuplicateCreatorAddress
			}
			seen[string(creator.Address)] = struct{}{}

			// Only the signing update authority may mark itself verified.
			if creator.Verified && (!updateAuthorityIsSigner || !bytes.Equal(creator.Address, updateAuthority)) {
				return errMissingRequiredSignature
			}

			total += int(creator.Share)
		}
		if total != tokenmetadata.RequiredShareTotal {
			return tokenmetadata.ErrorShareTotalMustBe100
		}
	}

	if data.Collection != nil && data.Collection.Verified {
		return errInvalidArgument
	}

	return nil
}

func writeMetadata(e *execution, address ed25519.PublicKey, metadata *tokenmetadata.Metadata) error {
	data, err := metadata.Marshal()
	if err != nil {
		return err
	}

	info, _ := e.account(address)
	info.Data = data
	return e.write(address, info)
}
