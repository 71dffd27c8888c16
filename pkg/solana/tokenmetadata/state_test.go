package tokenmetadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_Layout(t *testing.T) {
	keys := generateKeys(t, 3)

	nonce := uint8(254)
	standard := TokenStandardNonFungible
	metadata := &Metadata{
		UpdateAuthority: keys[0],
		Mint:            keys[1],
		Data: DataV2{
			Name:   "Artifact #1",
			Symbol: "ART1",
			URI:    "https://example.com/1.json",
			Creators: []Creator{
				{Address: keys[2], Share: 100},
			},
		},
		EditionNonce:  &nonce,
		TokenStandard: &standard,
	}

	b, err := metadata.Marshal()
	require.NoError(t, err)
	require.Len(t, b, MaxMetadataLength)

	assert.EqualValues(t, KeyMetadataV1, b[0])
	assert.EqualValues(t, keys[0], b[1:33])
	assert.EqualValues(t, keys[1], b[33:65])

	// Name is padded to its maximum length, and the prefix reflects that.
	assert.Equal(t, []byte{MaxNameLength, 0, 0, 0}, b[65:69])
	assert.Equal(t, "Artifact #1", string(b[69:80]))
	assert.Equal(t, make([]byte, MaxNameLength-11), b[80:101])

	offset := 65 + 4 + MaxNameLength + 4 + MaxSymbolLength + 4 + MaxURILength
	assert.Equal(t, []byte{0, 0}, b[offset:offset+2])
	offset += 2
	assert.Equal(t, []byte{1, 1, 0, 0, 0}, b[offset:offset+5])
	offset += 5
	assert.EqualValues(t, keys[2], b[offset:offset+32])
	offset += 32
	assert.Equal(t, []byte{0, 100}, b[offset:offset+2]) // verified, share
	offset += 2
	assert.Equal(t, []byte{0, 0}, b[offset:offset+2]) // primary sale, mutable
	offset += 2
	assert.Equal(t, []byte{1, 254, 1, 0}, b[offset:offset+4]) // nonce, standard

	var decoded Metadata
	require.NoError(t, decoded.Unmarshal(b))
	assert.Equal(t, KeyMetadataV1, decoded.Key)
	assert.Equal(t, metadata.Data, decoded.Data)
	assert.EqualValues(t, keys[0], decoded.UpdateAuthority)
	assert.EqualValues(t, keys[1], decoded.Mint)
	assert.False(t, decoded.IsMutable)
	assert.False(t, decoded.PrimarySaleHappened)
	require.NotNil(t, decoded.EditionNonce)
	assert.EqualValues(t, 254, *decoded.EditionNonce)
	require.NotNil(t, decoded.TokenStandard)
	assert.Equal(t, TokenStandardNonFungible, *decoded.TokenStandard)
	assert.Nil(t, decoded.CollectionDetails)
	assert.Nil(t, decoded.ProgrammableConfig)
}

func TestMetadata_Optionals(t *testing.T) {
	keys := generateKeys(t, 3)

	standard := TokenStandardFungibleAsset
	metadata := &Metadata{
		UpdateAuthority: keys[0],
		Mint:            keys[1],
		Data: DataV2{
			Name:                 "n",
			Symbol:               "s",
			URI:                  "u",
			SellerFeeBasisPoints: 500,
			Collection:           &Collection{Verified: true, Key: keys[2]},
			Uses:                 &Uses{UseMethod: UseMethodSingle, Remaining: 1, Total: 1},
		},
		PrimarySaleHappened: true,
		IsMutable:           true,
		TokenStandard:       &standard,
		CollectionDetails:   &CollectionDetails{Size: 42},
	}

	b, err := metadata.Marshal()
	require.NoError(t, err)

	var decoded Metadata
	require.NoError(t, decoded.Unmarshal(b))
	assert.Equal(t, metadata.Data, decoded.Data)
	assert.True(t, decoded.PrimarySaleHappened)
	assert.True(t, decoded.IsMutable)
	assert.Nil(t, decoded.EditionNonce)
	assert.Equal(t, standard, *decoded.TokenStandard)
	assert.Equal(t, metadata.CollectionDetails, decoded.CollectionDetails)
}

func TestMetadata_LegacyLayout(t *testing.T) {
	keys := generateKeys(t, 2)

	metadata := &Metadata{
		UpdateAuthority: keys[0],
		Mint:            keys[1],
		Data:            DataV2{Name: "n"},
	}
	b, err := metadata.Marshal()
	require.NoError(t, err)

	// Accounts from before edition nonces existed end after is_mutable.
	end := 1 + 32 + 32 + 4 + MaxNameLength + 4 + MaxSymbolLength + 4 + MaxURILength + 2 + 1 + 1 + 1

	var decoded Metadata
	require.NoError(t, decoded.Unmarshal(b[:end]))
	assert.Equal(t, "n", decoded.Data.Name)
	assert.Nil(t, decoded.EditionNonce)
	assert.Nil(t, decoded.TokenStandard)

	assert.Error(t, decoded.Unmarshal(b[:end-1]))
}

func TestMetadata_Invalid(t *testing.T) {
	keys := generateKeys(t, 2)

	_, err := (&Metadata{UpdateAuthority: keys[0], Mint: keys[1], Data: DataV2{Name: string(make([]byte, MaxNameLength+1))}}).Marshal()
	assert.Error(t, err)

	_, err = (&Metadata{UpdateAuthority: keys[0][:31], Mint: keys[1]}).Marshal()
	assert.Error(t, err)

	var decoded Metadata
	assert.Error(t, decoded.Unmarshal(nil))
	assert.Error(t, decoded.Unmarshal(make([]byte, MaxMetadataLength)))

	edition, err := (&MasterEdition{}).Marshal()
	require.NoError(t, err)
	assert.Error(t, decoded.Unmarshal(edition))
}

func TestMasterEdition(t *testing.T) {
	maxSupply := uint64(1)
	edition := &MasterEdition{MaxSupply: &maxSupply}

	b, err := edition.Marshal()
	require.NoError(t, err)
	require.Len(t, b, MaxMasterEditionSize)
	assert.Equal(t, []byte{byte(KeyMasterEditionV2), 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0, 0}, b[:18])

	var decoded MasterEdition
	require.NoError(t, decoded.Unmarshal(b))
	assert.EqualValues(t, 0, decoded.Supply)
	require.NotNil(t, decoded.MaxSupply)
	assert.EqualValues(t, 1, *decoded.MaxSupply)

	unlimited, err := (&MasterEdition{Supply: 3}).Marshal()
	require.NoError(t, err)

	require.NoError(t, decoded.Unmarshal(unlimited))
	assert.EqualValues(t, 3, decoded.Supply)
	assert.Nil(t, decoded.MaxSupply)

	assert.Error(t, decoded.Unmarshal([]byte{byte(KeyMetadataV1)}))
	assert.Error(t, decoded.Unmarshal([]byte{byte(KeyMasterEditionV2), 1}))
}
