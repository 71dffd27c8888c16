package main

import (
	"github.com/spf13/cobra"

	"github.com/code-payments/code-nft-issuer/pkg/nft"
)

func newDeriveCmd() *cobra.Command {
	var creator, mint string

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the accounts an issuance would create",
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

			accounts, err := nft.NewAccounts(creatorKey, mintKey)
			if err != nil {
				return err
			}

			printAccounts(cmd.OutOrStdout(), accounts)
			return nil
		},
	}

	cmd.Flags().StringVar(&creator, "creator", "", "creator public key")
	cmd.Flags().StringVar(&mint, "mint", "", "mint public key")
	_ = cmd.MarkFlagRequired("creator")
	_ = cmd.MarkFlagRequired("mint")

	return cmd
}
