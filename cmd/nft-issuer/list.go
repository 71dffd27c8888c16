package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-nft-issuer/pkg/database/query"
	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
)

const (
	defaultListLimit = 100
)

func newListCmd(env *environment) *cobra.Command {
	var (
		creator   string
		cursor    uint64
		limit     uint64
		direction string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the issuance records of a creator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := parsePublicKey(creator); err != nil {
				return err
			}

			ordering, err := query.ToOrdering(direction)
			if err != nil {
				return errors.Wrap(err, "invalid direction")
			}

			records, err := env.store()
			if err != nil {
				return err
			}

			var c query.Cursor
			if cursor > 0 {
				c = query.ToCursor(cursor)
			}

			found, err := records.GetAllByCreator(commandContext(cmd), creator, c, limit, ordering)
			if err == issuance.ErrNotFound {
				fmt.Fprintln(cmd.OutOrStdout(), "No issuances found.")
				return nil
			} else if err != nil {
				return errors.Wrap(err, "error listing issuances")
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMINT\tNAME\tSTATE\tFAILED STEP\tSIGNATURE\tCREATED")
			for _, record := range found {
				sig := "-"
				if record.Signature != nil {
					sig = *record.Signature
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					record.Id,
					record.Mint,
					record.Name,
					record.State,
					record.FailedStep,
					sig,
					record.CreatedAt.Format("2006-01-02 15:04:05"),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&creator, "creator", "", "creator public key")
	cmd.Flags().Uint64Var(&cursor, "cursor", 0, "record id to page from")
	cmd.Flags().Uint64Var(&limit, "limit", defaultListLimit, "maximum number of records")
	cmd.Flags().StringVar(&direction, "direction", "asc", `ordering by record id ("asc", "desc")`)
	_ = cmd.MarkFlagRequired("creator")

	return cmd
}
