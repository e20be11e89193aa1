package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/evoops/evoguard/internal/config"
	"github.com/evoops/evoguard/internal/diag"
	"github.com/evoops/evoguard/internal/evolution"
	"github.com/evoops/evoguard/internal/guard"
)

// hookName identifies this hook in diagnostic records.
const hookName = "evolution-guard"

var guardCmd = &cobra.Command{
	Use:   "guard [payload]",
	Short: "Evaluate a tool call against evolution policy",
	Long: `Evaluate one Write/Edit tool call against the evolution policy checkers.

The payload is a JSON object of the Claude Code hook shape:

  {"tool_name": "Write", "tool_input": {"file_path": "...", "content": "..."}}

passed either as the single argument or on stdin. Exit code 0 allows the
tool call, 2 blocks it; on block or warn a one-line JSON decision is
printed to stdout.

Enforcement is configured via .evolution/config.yaml and EVOGUARD_* env
vars (EVOGUARD_MODE=block|warn|off plus per-check overrides).`,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runGuard(args, os.Stdin, os.Stdout, os.Stderr))
	},
}

func init() {
	rootCmd.AddCommand(guardCmd)
}

// runGuard wires the guard pipeline and returns the process exit code.
func runGuard(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.Load()
	cfg.StatePath = GetStatePath(cfg.StatePath)

	log := diag.NewLogger(stderr, hookName)
	g := guard.New(cfg, evolution.NewStore(), log)
	decision := g.Run(args, stdin)

	if decision.Result == guard.ResultAllow {
		if GetVerbose() {
			log.Emit("decision", "allow")
		}
	} else {
		line, err := json.Marshal(decision)
		if err == nil {
			fmt.Fprintln(stdout, string(line))
		}
	}
	return decision.ExitCode()
}
