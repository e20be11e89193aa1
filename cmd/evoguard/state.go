package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evoops/evoguard/internal/config"
	"github.com/evoops/evoguard/internal/evolution"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the evolution state document",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current evolution state",
	Long: `Print the evolution state document with defaults applied.

A missing or corrupt state file prints the default document, the same view
the guard checkers operate on.

Examples:
  evoguard state show
  evoguard state show -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		path := GetStatePath(cfg.StatePath)
		snap := evolution.NewStore().Load(path)
		return outputState(snap, path)
	},
}

var stateWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the state file and print changes",
	Long: `Watch the evolution state file and print a line per observed change.
Useful when debugging workflow transitions. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		path := GetStatePath(cfg.StatePath)
		store := evolution.NewStore()

		fmt.Printf("watching %s\n", path)
		watcher, err := store.Watch(path, func(snap *evolution.Snapshot) {
			phase := ""
			if snap.Doc.CurrentEvolution != nil {
				phase = snap.Doc.CurrentEvolution.Phase
			}
			fmt.Printf("state=%s phase=%s version=%d (%s)\n",
				snap.Doc.State, phase, snap.Doc.Version, snap.Status)
		})
		if err != nil {
			return fmt.Errorf("watch state file: %w", err)
		}
		defer func() {
			_ = watcher.Close()
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func init() {
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateWatchCmd)
	rootCmd.AddCommand(stateCmd)
}

// outputState renders a state snapshot in the selected output format.
func outputState(snap *evolution.Snapshot, path string) error {
	switch GetOutput() {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Doc)

	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		return enc.Encode(snap.Doc)

	default:
		return outputStateTable(snap, path)
	}
}

// outputStateTable renders the state summary as a formatted table.
func outputStateTable(snap *evolution.Snapshot, path string) error {
	doc := snap.Doc
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "File:\t%s (%s)\n", path, snap.Status)
	fmt.Fprintf(w, "State:\t%s\n", doc.State)
	if doc.CurrentEvolution != nil {
		ev := doc.CurrentEvolution
		fmt.Fprintf(w, "Evolution:\t%s %q (phase %s)\n", ev.Type, ev.Name, ev.Phase)
		fmt.Fprintf(w, "Research:\t%d entries\n", len(ev.Research))
	} else {
		fmt.Fprintf(w, "Evolution:\tnone in progress\n")
	}
	fmt.Fprintf(w, "Completed:\t%d\n", len(doc.Evolutions))
	fmt.Fprintf(w, "Suggestions:\t%d\n", len(doc.Suggestions))
	fmt.Fprintf(w, "Locks:\t%d\n", len(doc.Locks))
	fmt.Fprintf(w, "Version:\t%d\n", doc.Version)

	return w.Flush()
}
