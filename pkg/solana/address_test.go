package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProgramAddress(t *testing.T) {
	exceededSeed := make([]byte, maxSeedLength+1)
	maxSeed := make([]byte, maxSeedLength)

	// Vectors (typo included) come from the Solana SDK test suite.
	publicKey, err := base58.Decode("SeedPubey1111111111111111111111111111111111")
	require.NoError(t, err)
	programID, err := base58.Decode("BPFLoader1111111111111111111111111111111111")
	require.NoError(t, err)

	_, err = CreateProgramAddress(programID, exceededSeed)
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)
	_, err = CreateProgramAddress(programID, []byte("short seed"), exceededSeed)
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)

	_, err = CreateProgramAddress(programID, make([][]byte, maxSeeds+1)...)
	assert.Equal(t, ErrTooManySeeds, err)

	_, err = CreateProgramAddress(programID, maxSeed)
	assert.NoError(t, err)

	for _, tc := range []struct {
		expected string
		input    [][]byte
	}{
		{
			expected: "3gF2KMe9KiC6FNVBmfg9i267aMPvK37FewCip4eGBFcT",
			input:    [][]byte{{}, {1}},
		},
		{
			expected: "7ytmC1nT1xY4RfxCV2ZgyA7UakC93do5ZdyhdF3EtPj7",
			input:    [][]byte{[]byte("☉")},
		},
		{
			expected: "HwRVBufQ4haG5XSgpspwKtNd3PC9GM9m1196uJW36vds",
			input:    [][]byte{[]byte("Talking"), []byte("Squirrels")},
		},
		{
			expected: "GUs5qLUfsEHkcMB9T38vjr18ypEhRuNWiePW2LoK4E3K",
			input:    [][]byte{publicKey},
		},
	} {
		key, err := CreateProgramAddress(programID, tc.input...)
		assert.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(key))
		assert.False(t, IsOnCurve(key))
	}
}

func TestIsOnCurve(t *testing.T) {
	for i := 0; i < 10; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		assert.True(t, IsOnCurve(pub))
	}

	assert.False(t, IsOnCurve(nil))
	assert.False(t, IsOnCurve(make([]byte, 31)))
}

func TestFindProgramAddress(t *testing.T) {
	for i := 0; i < 250; i++ {
		programID, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		pub, bump, err := FindProgramAddressAndBump(programID, []byte("Lil'"), []byte("Bits"))
		require.NoError(t, err)

		// The bump is the first one, counting down, that lands off curve.
		recreated, err := CreateProgramAddress(programID, []byte("Lil'"), []byte("Bits"), []byte{bump})
		require.NoError(t, err)
		assert.EqualValues(t, pub, recreated)

		for higher := int(bump) + 1; higher <= 255; higher++ {
			_, err := CreateProgramAddress(programID, []byte("Lil'"), []byte("Bits"), []byte{byte(higher)})
			assert.Equal(t, ErrInvalidPublicKey, err)
		}
	}
}

func TestVerifyProgramAddress(t *testing.T) {
	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	other, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	d, err := Derive(programID, []byte("metadata"), other)
	require.NoError(t, err)

	verified, err := VerifyProgramAddress(d.Address, programID, []byte("metadata"), other)
	require.NoError(t, err)
	assert.Equal(t, d, verified)
	assert.Equal(t, base58.Encode(d.Address), d.String())

	_, err = VerifyProgramAddress(other, programID, []byte("metadata"), other)
	assert.Equal(t, ErrAddressMismatch, err)

	// Seeds under a different program never collide.
	_, err = VerifyProgramAddress(d.Address, other, []byte("metadata"), other)
	assert.Equal(t, ErrAddressMismatch, err)
}
