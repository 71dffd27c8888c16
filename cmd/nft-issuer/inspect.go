package main

import (
	"fmt"
	"io"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-nft-issuer/pkg/nft"
)

func newInspectCmd(env *environment) *cobra.Command {
	var creator, mint string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load an issued NFT from the ledger and verify it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creatorKey, err := parsePublicKey(creator)
			if err != nil {
				return err
			}
			mintKey, err := parsePublicKey(mint)
			if err != nil {
				return err
			}

			issuer, err := env.issuer(env.client(false))
			if err != nil {
				return err
			}

			issued, err := issuer.Inspect(commandContext(cmd), creatorKey, mintKey)
			if err != nil {
				return err
			}

			printIssued(cmd.OutOrStdout(), issued)
			return issued.Validate()
		},
	}

	cmd.Flags().StringVar(&creator, "creator", "", "creator public key")
	cmd.Flags().StringVar(&mint, "mint", "", "mint public key")
	_ = cmd.MarkFlagRequired("creator")
	_ = cmd.MarkFlagRequired("mint")

	return cmd
}

func printIssued(w io.Writer, issued *nft.Issued) {
	printAccounts(w, &issued.Accounts)

	metadata := issued.Metadata
	fmt.Fprintf(w, "name:           %s\n", metadata.Data.Name)
	fmt.Fprintf(w, "symbol:         %s\n", metadata.Data.Symbol)
	fmt.Fprintf(w, "uri:            %s\n", metadata.Data.URI)
	fmt.Fprintf(w, "update auth:    %s\n", base58.Encode(metadata.UpdateAuthority))
	fmt.Fprintf(w, "mutable:        %t\n", metadata.IsMutable)
	for _, creator := range metadata.Data.Creators {
		fmt.Fprintf(w, "royalty:        %s %d%% verified=%t\n", base58.Encode(creator.Address), creator.Share, creator.Verified)
	}

	fmt.Fprintf(w, "supply:         %d\n", issued.Mint.Supply)
	if issued.MasterEdition.MaxSupply != nil {
		fmt.Fprintf(w, "max supply:     %d\n", *issued.MasterEdition.MaxSupply)
	}
}
