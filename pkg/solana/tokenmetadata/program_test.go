package tokenmetadata

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
)

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)
	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}
	return keys
}

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s", base58.Encode(ProgramKey))
}

func TestDerivedAddresses(t *testing.T) {
	for _, mint := range generateKeys(t, 10) {
		metadata, err := GetMetadataAddress(mint)
		require.NoError(t, err)
		assert.False(t, solana.IsOnCurve(metadata.Address))

		edition, err := GetMasterEditionAddress(mint)
		require.NoError(t, err)
		assert.False(t, solana.IsOnCurve(edition.Address))
		assert.NotEqual(t, metadata.Address, edition.Address)

		again, err := GetMetadataAddress(mint)
		require.NoError(t, err)
		assert.Equal(t, metadata, again)

		expected, err := solana.CreateProgramAddress(ProgramKey, []byte("metadata"), ProgramKey, mint, []byte{metadata.Bump})
		require.NoError(t, err)
		assert.EqualValues(t, expected, metadata.Address)

		expected, err = solana.CreateProgramAddress(ProgramKey, []byte("metadata"), ProgramKey, mint, []byte("edition"), []byte{edition.Bump})
		require.NoError(t, err)
		assert.EqualValues(t, expected, edition.Address)

		assert.NoError(t, VerifyMetadataAddress(metadata.Address, mint))
		assert.NoError(t, VerifyMasterEditionAddress(edition.Address, mint))
		assert.Error(t, VerifyMetadataAddress(edition.Address, mint))
		assert.Error(t, VerifyMasterEditionAddress(metadata.Address, mint))
	}
}

func TestVerifyAddress_WrongMint(t *testing.T) {
	keys := generateKeys(t, 2)

	metadata, err := GetMetadataAddress(keys[0])
	require.NoError(t, err)

	err = VerifyMetadataAddress(metadata.Address, keys[1])
	assert.ErrorIs(t, err, solana.ErrAddressMismatch)
}
