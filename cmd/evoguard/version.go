package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the evoguard release version, overridable at build time via
// -ldflags "-X main.Version=...".
var Version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("evoguard %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
