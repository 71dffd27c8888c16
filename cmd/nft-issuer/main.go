package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set by the linker

func main() {
	env := &environment{}
	err := newRootCmd(env).Execute()
	env.close()
	if err != nil {
		// The error is already printed by cobra
		os.Exit(1)
	}
}

func newRootCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nft-issuer",
		Short: "Issues unique Metaplex NFTs on Solana",
		Long: `nft-issuer creates one-of-one NFTs. Every issuance is a single atomic
transaction that creates the mint, writes its metadata, mints exactly one
token to the creator and caps supply with a master edition.

Configuration is read from an optional config file and the environment
(SOLANA_RPC_ENDPOINT, CREATOR_KEYPAIR, DB_*, LOG_LEVEL, NFT_ISSUER_*).`,
		SilenceUsage:      true,
		PersistentPreRunE: env.init,
	}

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&env.configPath, "config", "", "config file")
	cmd.PersistentFlags().StringVar(&env.rpcEndpoint, "rpc", "", "Solana JSON RPC endpoint or cluster moniker such as devnet (overrides SOLANA_RPC_ENDPOINT)")
	cmd.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	cmd.AddCommand(newMintCmd(env))
	cmd.AddCommand(newDeriveCmd())
	cmd.AddCommand(newInspectCmd(env))
	cmd.AddCommand(newListCmd(env))

	return cmd
}
