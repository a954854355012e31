package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parleykit/parley"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of parley",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("parley version %s\n", strings.TrimSpace(parley.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
