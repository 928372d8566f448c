package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JohnPlummer/opportunity-scorer/inventory"
)

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List the CSV files available as inventory input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Dir(c.v.GetString("input"))
			if len(args) == 1 {
				dir = args[0]
			}

			files, err := inventory.ListCSVFiles(dir)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				c.logger.Warn("No CSV files found", "dir", dir)
				return nil
			}

			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, f))
			}
			return nil
		},
	}
}
