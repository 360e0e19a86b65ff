package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/treetagger"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of treetagger",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "treetagger version %s\n", strings.TrimSpace(treetagger.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
