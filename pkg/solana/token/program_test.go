package token

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
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

func TestProgramKeys(t *testing.T) {
	assert.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", base58.Encode(ProgramKey))
	assert.Equal(t, "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL", base58.Encode(AssociatedTokenAccountProgramKey))
}

func TestGetCommand_Error(t *testing.T) {
	keys := generateKeys(t, 2)

	cmd, err := GetCommand(solana.NewTransaction(keys[0], solana.NewInstruction(keys[1], []byte{})).Message, 0)
	assert.Equal(t, CommandUnknown, cmd)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	cmd, err = GetCommand(solana.NewTransaction(keys[0], solana.NewInstruction(ProgramKey, []byte{})).Message, 0)
	assert.Equal(t, CommandUnknown, cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing data")

	_, err = GetCommand(solana.NewTransaction(keys[0], solana.NewInstruction(ProgramKey, []byte{1})).Message, 1)
	assert.Error(t, err)
}

func TestInitializeMint(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := InitializeMint(keys[0], keys[1], keys[2], 0)

	require.Len(t, instruction.Data, 67)
	assert.EqualValues(t, CommandInitializeMint, instruction.Data[0])
	assert.EqualValues(t, 0, instruction.Data[1])
	assert.Equal(t, []byte(keys[1]), instruction.Data[2:34])
	assert.EqualValues(t, 1, instruction.Data[34])
	assert.Equal(t, []byte(keys[2]), instruction.Data[35:67])

	require.Len(t, instruction.Accounts, 2)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.EqualValues(t, system.RentSysVar, instruction.Accounts[1].PublicKey)

	decompiled, err := DecompileInitializeMint(solana.NewTransaction(keys[3], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Mint)
	assert.Equal(t, keys[1], decompiled.MintAuthority)
	assert.Equal(t, keys[2], decompiled.FreezeAuthority)
	assert.EqualValues(t, 0, decompiled.Decimals)

	instruction = InitializeMint(keys[0], keys[1], nil, 6)
	decompiled, err = DecompileInitializeMint(solana.NewTransaction(keys[3], instruction).Message, 0)
	require.NoError(t, err)
	assert.Nil(t, decompiled.FreezeAuthority)
	assert.EqualValues(t, 6, decompiled.Decimals)

	instruction.Accounts[1].PublicKey = keys[2]
	_, err = DecompileInitializeMint(solana.NewTransaction(keys[3], instruction).Message, 0)
	assert.Error(t, err)

	_, err = DecompileInitializeMint(solana.NewTransaction(keys[3], MintTo(keys[0], keys[1], keys[2], 1)).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestMintTo(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := MintTo(keys[0], keys[1], keys[2], 1)

	expectedAmount := make([]byte, 8)
	binary.LittleEndian.PutUint64(expectedAmount, 1)
	assert.EqualValues(t, CommandMintTo, instruction.Data[0])
	assert.Equal(t, expectedAmount, instruction.Data[1:])

	require.Len(t, instruction.Accounts, 3)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.True(t, instruction.Accounts[1].IsWritable)
	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)

	tx := solana.NewTransaction(keys[2], instruction)
	cmd, err := GetCommand(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, CommandMintTo, cmd)

	decompiled, err := DecompileMintTo(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Mint)
	assert.Equal(t, keys[1], decompiled.Dest)
	assert.Equal(t, keys[2], decompiled.Authority)
	assert.EqualValues(t, 1, decompiled.Amount)

	instruction.Accounts = instruction.Accounts[:2]
	_, err = DecompileMintTo(solana.NewTransaction(keys[2], instruction).Message, 0)
	assert.Error(t, err)
}
