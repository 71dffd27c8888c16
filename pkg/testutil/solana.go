package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// NewFundedKeypair generates a keypair and airdrops lamports to it.
func NewFundedKeypair(t *testing.T, client solana.Client, lamports uint64) ed25519.PrivateKey {
	keypair := GenerateSolanaKeypair(t)

	_, err := client.RequestAirdrop(keypair.Public().(ed25519.PublicKey), lamports, solana.CommitmentFinalized)
	require.NoError(t, err)

	return keypair
}

// SignAndSubmit compiles the instructions into a transaction paid for by the
// first signer and submits it.
func SignAndSubmit(t *testing.T, client solana.Client, signers []ed25519.PrivateKey, instructions ...solana.Instruction) (solana.Signature, error) {
	require.NotEmpty(t, signers)

	txn := solana.NewTransaction(signers[0].Public().(ed25519.PublicKey), instructions...)

	blockhash, err := client.GetLatestBlockhash()
	require.NoError(t, err)
	txn.SetBlockhash(blockhash)
	require.NoError(t, txn.Sign(signers...))

	return client.SubmitTransaction(txn, solana.CommitmentFinalized)
}
