package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JohnPlummer/opportunity-scorer/ledger"
)

func newLedgerCmd(c *cli) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print the ids of records already scored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := getConfig(c.v)
			if err != nil {
				return err
			}

			store, closeStore, err := openLedgerStore(config)
			if err != nil {
				return err
			}
			defer closeStore()

			l, err := ledger.Open(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("open ledger %s: %w", config.ledgerPath(), err)
			}

			if count, _ := cmd.Flags().GetBool("count"); count {
				fmt.Fprintln(cmd.OutOrStdout(), l.Len())
				return nil
			}
			for _, id := range l.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	ledgerCmd.Flags().Bool("count", false, "print only the number of committed ids")
	return ledgerCmd
}
