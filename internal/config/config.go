// Package config resolves guard enforcement configuration.
// Configuration is loaded from (highest to lowest priority):
// 1. Environment variables (EVOGUARD_*)
// 2. Project config (.evolution/config.yaml in cwd)
// 3. Defaults
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode is an enforcement mode for the guard or an individual check.
type Mode string

const (
	// ModeBlock denies violating tool calls.
	ModeBlock Mode = "block"

	// ModeWarn reports violations but allows the call.
	ModeWarn Mode = "warn"

	// ModeOff disables enforcement.
	ModeOff Mode = "off"
)

// ParseMode normalizes a mode string. The second return is false for
// unrecognized values.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBlock:
		return ModeBlock, true
	case ModeWarn:
		return ModeWarn, true
	case ModeOff, "disabled", "false", "0":
		return ModeOff, true
	}
	return "", false
}

// DefaultStatePath is the project-relative location of the evolution state
// document.
const DefaultStatePath = ".evolution/state.json"

// Config holds all guard configuration.
type Config struct {
	// Mode is the overall enforcement mode. Per-check modes are capped by
	// it: off disables everything, warn downgrades block requests.
	Mode Mode `yaml:"mode"`

	// Checks carries per-check overrides. Empty means inherit Mode.
	Checks ChecksConfig `yaml:"checks"`

	// StatePath is where the evolution state document lives.
	StatePath string `yaml:"state_path"`

	// DebugFailOpen flips the fail-closed internal-error policy to allow.
	// Exercising it is audit-logged.
	DebugFailOpen bool `yaml:"debug_fail_open"`
}

// ChecksConfig holds per-check enforcement overrides.
type ChecksConfig struct {
	Transition Mode `yaml:"transition"`
	Naming     Mode `yaml:"naming"`
	Quality    Mode `yaml:"quality"`
	Research   Mode `yaml:"research"`
}

// Default returns the default configuration: strict blocking, state document
// at the conventional path.
func Default() *Config {
	return &Config{
		Mode:      ModeBlock,
		StatePath: DefaultStatePath,
	}
}

// Load resolves configuration with proper precedence. It never fails:
// unreadable or malformed config files are ignored.
func Load() *Config {
	cfg := Default()

	if fileCfg := loadFromPath(projectConfigPath()); fileCfg != nil {
		merge(cfg, fileCfg)
	}

	applyEnv(cfg)
	return cfg
}

// projectConfigPath returns the project config path, honoring the
// EVOGUARD_CONFIG override.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("EVOGUARD_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".evolution", "config.yaml")
}

// loadFromPath loads config from a YAML file, returning nil on any problem.
func loadFromPath(path string) *Config {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil
	}
	return &cfg
}

// merge overlays src onto dst, with src values taking precedence when set.
func merge(dst, src *Config) {
	mergeMode(&dst.Mode, src.Mode)
	mergeMode(&dst.Checks.Transition, src.Checks.Transition)
	mergeMode(&dst.Checks.Naming, src.Checks.Naming)
	mergeMode(&dst.Checks.Quality, src.Checks.Quality)
	mergeMode(&dst.Checks.Research, src.Checks.Research)
	if src.StatePath != "" {
		dst.StatePath = src.StatePath
	}
	if src.DebugFailOpen {
		dst.DebugFailOpen = true
	}
}

// mergeMode overwrites dst when src parses as a valid mode.
func mergeMode(dst *Mode, src Mode) {
	if parsed, ok := ParseMode(string(src)); ok {
		*dst = parsed
	}
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) {
	mergeMode(&cfg.Mode, Mode(os.Getenv("EVOGUARD_MODE")))
	mergeMode(&cfg.Checks.Transition, Mode(os.Getenv("EVOGUARD_CHECK_TRANSITION")))
	mergeMode(&cfg.Checks.Naming, Mode(os.Getenv("EVOGUARD_CHECK_NAMING")))
	mergeMode(&cfg.Checks.Quality, Mode(os.Getenv("EVOGUARD_CHECK_QUALITY")))
	mergeMode(&cfg.Checks.Research, Mode(os.Getenv("EVOGUARD_CHECK_RESEARCH")))
	if v := os.Getenv("EVOGUARD_STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv("EVOGUARD_DEBUG_FAIL_OPEN"); v == "true" || v == "1" {
		cfg.DebugFailOpen = true
	}
}

// EffectiveMode resolves a per-check override against the overall mode.
// Empty overrides inherit the overall mode; the overall mode caps what an
// override can escalate to.
func (c *Config) EffectiveMode(override Mode) Mode {
	overall, ok := ParseMode(string(c.Mode))
	if !ok {
		overall = ModeBlock
	}
	if overall == ModeOff {
		return ModeOff
	}

	check, ok := ParseMode(string(override))
	if !ok {
		return overall
	}
	if check == ModeBlock && overall == ModeWarn {
		return ModeWarn
	}
	return check
}
