package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose   bool
	output    string
	statePath string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "evoguard",
	Short: "Evolution policy guard for Claude Code projects",
	Long: `evoguard enforces evolution-workflow policy for agent, skill, and
workflow artifacts in a Claude Code project.

Core Commands:
  guard        Evaluate a tool call against evolution policy (hook entry point)
  state        Inspect or watch the evolution state document
  hooks        Install the guard as a Claude Code PreToolUse hook
  version      Show version information

The guard command is designed to run as a PreToolUse hook: it reads the
tool payload from its argument or stdin, exits 0 to allow and 2 to block,
and prints a one-line JSON decision on block or warn.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (json, table, yaml)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "Evolution state file (default: .evolution/state.json)")
}

// GetOutput returns the output format for use by subcommands.
func GetOutput() string {
	return output
}

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool {
	return verbose
}

// GetStatePath returns the state file path, honoring the --state flag.
func GetStatePath(fallback string) string {
	if statePath != "" {
		return statePath
	}
	return fallback
}
