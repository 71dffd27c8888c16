// Package tokenmetadata binds the Metaplex token metadata program: account
// derivations, the instructions that create metadata and master editions,
// and the state those instructions produce.
package tokenmetadata

import (
	"crypto/ed25519"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
)

// ProgramKey is the address of the token metadata program.
//
// Current key: metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s
var ProgramKey = ed25519.PublicKey{11, 112, 101, 177, 227, 209, 124, 69, 56, 157, 82, 127, 107, 4, 195, 205, 88, 184, 108, 115, 26, 160, 253, 181, 73, 182, 209, 188, 3, 248, 41, 70}

var (
	metadataSeed = []byte("metadata")
	editionSeed  = []byte("edition")
)

// Instruction discriminators.
//
// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/v1.13.2/programs/token-metadata/program/src/instruction/mod.rs
type Command byte

const (
	CommandCreateMasterEditionV3   Command = 17
	CommandCreateMetadataAccountV3 Command = 33
	CommandUnknown                 Command = 255
)

// Key is the first byte of every account owned by the program.
type Key byte

const (
	KeyUninitialized Key = iota
	KeyEditionV1
	KeyMasterEditionV1
	KeyReservationListV1
	KeyMetadataV1
	KeyReservationListV2
	KeyMasterEditionV2
	KeyEditionMarker
)

// Limits enforced on metadata creation.
const (
	MaxNameLength        = 32
	MaxSymbolLength      = 10
	MaxURILength         = 200
	MaxCreatorLimit      = 5
	MaxSellerFeeBasis    = 10000
	RequiredShareTotal   = 100
	MaxMetadataLength    = 679
	MaxMasterEditionSize = 282
)

// Program errors surfaced as custom instruction errors.
//
// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/v1.13.2/programs/token-metadata/program/src/error.rs
const (
	ErrorInstructionUnpack               solana.CustomError = 0
	ErrorAlreadyInitialized              solana.CustomError = 3
	ErrorUninitialized                   solana.CustomError = 4
	ErrorInvalidMetadataKey              solana.CustomError = 5
	ErrorInvalidEditionKey               solana.CustomError = 6
	ErrorUpdateAuthorityIncorrect        solana.CustomError = 7
	ErrorUpdateAuthorityIsNotSigner      solana.CustomError = 8
	ErrorNotMintAuthority                solana.CustomError = 9
	ErrorInvalidMintAuthority            solana.CustomError = 10
	ErrorNameTooLong                     solana.CustomError = 11
	ErrorSymbolTooLong                   solana.CustomError = 12
	ErrorURITooLong                      solana.CustomError = 13
	ErrorMintMismatch                    solana.CustomError = 15
	ErrorEditionsMustHaveExactlyOneToken solana.CustomError = 16
	ErrorEditionMintDecimalsShouldBeZero solana.CustomError = 24
	ErrorDerivedKeyInvalid               solana.CustomError = 27
	ErrorCreatorsTooLong                 solana.CustomError = 36
	ErrorCreatorsMustBeAtleastOne        solana.CustomError = 37
	ErrorInvalidBasisPoints              solana.CustomError = 41
	ErrorShareTotalMustBe100             solana.CustomError = 45
	ErrorDuplicateCreatorAddress         solana.CustomError = 54
)

// GetMetadataAddress derives the metadata account of mint.
func GetMetadataAddress(mint ed25519.PublicKey) (solana.Derivation, error) {
	return solana.Derive(
		ProgramKey,
		metadataSeed,
		ProgramKey,
		mint,
	)
}

// GetMasterEditionAddress derives the master edition account of mint.
func GetMasterEditionAddress(mint ed25519.PublicKey) (solana.Derivation, error) {
	return solana.Derive(
		ProgramKey,
		metadataSeed,
		ProgramKey,
		mint,
		editionSeed,
	)
}

// VerifyMetadataAddress checks address against the metadata derivation of mint.
func VerifyMetadataAddress(address, mint ed25519.PublicKey) error {
	_, err := solana.VerifyProgramAddress(address, ProgramKey, metadataSeed, ProgramKey, mint)
	return err
}

// VerifyMasterEditionAddress checks address against the master edition
// derivation of mint.
func VerifyMasterEditionAddress(address, mint ed25519.PublicKey) error {
	_, err := solana.VerifyProgramAddress(address, ProgramKey, metadataSeed, ProgramKey, mint, editionSeed)
	return err
}
