package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	// hookEventName is the Claude Code event the guard attaches to.
	hookEventName = "PreToolUse"

	// hookMatcher restricts the hook to file-mutation tools.
	hookMatcher = "Write|Edit"

	// hookCommand is the command Claude Code runs for each matched call.
	hookCommand = "evoguard guard"
)

// HookEntry is a single hook command in Claude settings.
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup is a hook group with a tool matcher and a hooks array.
// Claude Code format: {"matcher": "Write|Edit", "hooks": [{"type": "command", ...}]}
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the Claude Code hook registration",
	Long: `Manage the evoguard PreToolUse hook in .claude/settings.json.

The guard only enforces policy when Claude Code invokes it for Write/Edit
tool calls, so it has to be registered as a PreToolUse hook first.

Examples:
  evoguard hooks install
  evoguard hooks status`,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the guard as a PreToolUse hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		settingsPath, err := settingsFilePath()
		if err != nil {
			return err
		}

		rawSettings, err := loadSettings(settingsPath)
		if err != nil {
			return err
		}

		if hasGuardHook(rawSettings) {
			fmt.Printf("evoguard hook already installed in %s\n", settingsPath)
			return nil
		}

		if err := backupSettings(settingsPath); err != nil {
			return err
		}

		installGuardHook(rawSettings)
		if err := writeSettings(settingsPath, rawSettings); err != nil {
			return err
		}

		fmt.Printf("Installed evoguard hook in %s\n", settingsPath)
		fmt.Printf("  %s (%s): %s\n", hookEventName, hookMatcher, hookCommand)
		return nil
	},
}

var hooksStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the guard hook is registered",
	RunE: func(cmd *cobra.Command, args []string) error {
		settingsPath, err := settingsFilePath()
		if err != nil {
			return err
		}

		rawSettings, err := loadSettings(settingsPath)
		if err != nil {
			return err
		}

		if hasGuardHook(rawSettings) {
			fmt.Printf("evoguard hook installed (%s)\n", settingsPath)
		} else {
			fmt.Printf("evoguard hook NOT installed; run: evoguard hooks install\n")
		}
		return nil
	},
}

func init() {
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksStatusCmd)
	rootCmd.AddCommand(hooksCmd)
}

// settingsFilePath returns the project-level Claude settings path.
func settingsFilePath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(cwd, ".claude", "settings.json"), nil
}

// loadSettings reads settings.json into a generic map so unrelated settings
// survive the round trip. A missing file yields an empty map.
func loadSettings(settingsPath string) (map[string]any, error) {
	rawSettings := make(map[string]any)
	data, err := os.ReadFile(settingsPath)
	if err == nil {
		if err := json.Unmarshal(data, &rawSettings); err != nil {
			return nil, fmt.Errorf("parse existing settings: %w", err)
		}
		return rawSettings, nil
	}
	if os.IsNotExist(err) {
		return rawSettings, nil
	}
	return nil, fmt.Errorf("read settings: %w", err)
}

// hasGuardHook reports whether any PreToolUse group already runs the guard.
func hasGuardHook(rawSettings map[string]any) bool {
	hooksMap, ok := rawSettings["hooks"].(map[string]any)
	if !ok {
		return false
	}
	groups, ok := hooksMap[hookEventName].([]any)
	if !ok {
		return false
	}
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		entries, ok := group["hooks"].([]any)
		if !ok {
			continue
		}
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if cmd, ok := entry["command"].(string); ok && strings.Contains(cmd, "evoguard guard") {
				return true
			}
		}
	}
	return false
}

// installGuardHook appends the guard group to the PreToolUse event,
// preserving existing groups.
func installGuardHook(rawSettings map[string]any) {
	hooksMap, ok := rawSettings["hooks"].(map[string]any)
	if !ok {
		hooksMap = make(map[string]any)
		rawSettings["hooks"] = hooksMap
	}

	groups, _ := hooksMap[hookEventName].([]any)
	group := HookGroup{
		Matcher: hookMatcher,
		Hooks:   []HookEntry{{Type: "command", Command: hookCommand}},
	}

	// Round-trip through JSON so the settings map stays homogeneous.
	data, _ := json.Marshal(group)
	var generic map[string]any
	_ = json.Unmarshal(data, &generic)

	hooksMap[hookEventName] = append(groups, generic)
}

// backupSettings copies the existing settings file aside before modifying it.
func backupSettings(settingsPath string) error {
	if _, err := os.Stat(settingsPath); err != nil {
		return nil
	}
	backupPath := fmt.Sprintf("%s.backup.%s", settingsPath, time.Now().Format("20060102-150405"))
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil
	}
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	fmt.Printf("Backed up existing settings to %s\n", backupPath)
	return nil
}

// writeSettings writes the settings map back to disk, creating .claude if
// needed.
func writeSettings(settingsPath string, rawSettings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(settingsPath), 0755); err != nil {
		return fmt.Errorf("create .claude directory: %w", err)
	}
	data, err := json.MarshalIndent(rawSettings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
