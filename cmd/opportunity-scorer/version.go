package main

import (
	"fmt"

	"github.com/spf13/cobra"

	opportunityscorer "github.com/JohnPlummer/opportunity-scorer"
)

// Actual commit can be specified in build command.
var commit = ""

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), opportunityscorer.GetVersion(commit))
		},
	}
}
