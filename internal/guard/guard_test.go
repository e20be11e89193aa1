package guard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evoops/evoguard/internal/config"
	"github.com/evoops/evoguard/internal/diag"
	"github.com/evoops/evoguard/internal/evolution"
)

func writePayload(path, content string) string {
	payload := map[string]any{
		"tool_name": "Write",
		"tool_input": map[string]any{
			"file_path": path,
			"content":   content,
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

// writeStateFile persists a state document and returns its path.
func writeStateFile(t *testing.T, doc map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestGuard(t *testing.T, cfg *config.Config) *Guard {
	t.Helper()
	if cfg.StatePath == "" || cfg.StatePath == config.DefaultStatePath {
		cfg.StatePath = filepath.Join(t.TempDir(), "absent.json")
	}
	return New(cfg, evolution.NewStore(), nil)
}

func TestRunBlocksInvalidName(t *testing.T) {
	g := newTestGuard(t, config.Default())

	d := g.Run([]string{writePayload(".claude/agents/core/123bad.md", "# bad\n")}, nil)
	if d.Result != ResultBlock || d.ExitCode() != ExitBlock {
		t.Fatalf("decision = %+v, want block/exit 2", d)
	}
	if !strings.Contains(d.Message, "NAMING CONVENTION") {
		t.Errorf("message should cite the naming convention: %s", d.Message)
	}
}

func TestRunBlocksArtifactWithoutResearch(t *testing.T) {
	cfg := config.Default()
	cfg.StatePath = writeStateFile(t, map[string]any{
		"state": "obtaining",
		"currentEvolution": map[string]any{
			"type": "skill", "name": "new-skill", "research": []any{},
		},
		"version": 3,
	})
	g := New(cfg, evolution.NewStore(), nil)

	d := g.Run([]string{writePayload(".claude/skills/new-skill/SKILL.md", "# new-skill\n")}, nil)
	if d.Result != ResultBlock {
		t.Fatalf("decision = %+v, want block", d)
	}
	if !strings.Contains(strings.ToLower(d.Message), "research") || !strings.Contains(d.Message, "Current: 0") {
		t.Errorf("message should name the research deficit: %s", d.Message)
	}
}

func TestRunAllowsArtifactWithEnoughResearch(t *testing.T) {
	cfg := config.Default()
	cfg.StatePath = writeStateFile(t, map[string]any{
		"state": "obtaining",
		"currentEvolution": map[string]any{
			"type": "skill", "name": "new-skill",
			"research": []any{
				map[string]any{"query": "a", "source": "s1"},
				map[string]any{"query": "b", "source": "s2"},
				map[string]any{"query": "c", "source": "s3"},
			},
		},
		"version": 3,
	})
	g := New(cfg, evolution.NewStore(), nil)

	d := g.Run([]string{writePayload(".claude/skills/new-skill/SKILL.md", "# new-skill\n")}, nil)
	if d.Result != ResultAllow || d.ExitCode() != ExitAllow {
		t.Fatalf("decision = %+v, want allow/exit 0", d)
	}
}

func TestRunBlocksIllegalStateTransition(t *testing.T) {
	g := newTestGuard(t, config.Default()) // absent state file, current state idle

	payload := writePayload("evolution-state.json", `{"state": "locking", "version": 2}`)
	d := g.Run([]string{payload}, nil)
	if d.Result != ResultBlock {
		t.Fatalf("decision = %+v, want block", d)
	}
	if !strings.Contains(d.Message, "evaluating") {
		t.Errorf("message should list the valid next state: %s", d.Message)
	}
}

func TestRunEnumeratesQualityDefects(t *testing.T) {
	cfg := config.Default()
	cfg.StatePath = writeStateFile(t, map[string]any{
		"state": "verifying",
		"currentEvolution": map[string]any{
			"type": "agent", "name": "python-pro", "phase": "verify",
			"research": []any{
				map[string]any{"query": "a"},
				map[string]any{"query": "b"},
				map[string]any{"query": "c"},
			},
		},
		"version": 7,
	})
	g := New(cfg, evolution.NewStore(), nil)

	// 600+ characters, one placeholder, Memory Protocol absent.
	content := "# python-pro\n\n## Task Progress Protocol\n" +
		strings.Repeat("Track each step and report status as you go. ", 14) +
		"\nTODO: document the escalation path\nThe Iron Law: verify before enabling.\n"
	d := g.Run([]string{writePayload(".claude/agents/core/python-pro.md", content)}, nil)
	if d.Result != ResultBlock {
		t.Fatalf("decision = %+v, want block", d)
	}
	for _, want := range []string{"Placeholder marker", "Memory Protocol"} {
		if !strings.Contains(d.Message, want) {
			t.Errorf("message missing %q:\n%s", want, d.Message)
		}
	}
	if strings.Contains(d.Message, "Content too short") {
		t.Errorf("length defect reported for 600+ characters:\n%s", d.Message)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	g := newTestGuard(t, config.Default())
	payload := writePayload(".claude/agents/core/123bad.md", "# bad\n")

	first := g.Run([]string{payload}, nil)
	second := g.Run([]string{payload}, nil)
	if first != second {
		t.Errorf("same input produced different decisions:\n%+v\n%+v", first, second)
	}
}

func TestRunModeOffAllowsEverything(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = config.ModeOff
	g := newTestGuard(t, cfg)

	d := g.Run([]string{writePayload(".claude/agents/core/123bad.md", "# bad\n")}, nil)
	if d.Result != ResultAllow {
		t.Fatalf("decision = %+v, want allow in off mode", d)
	}
}

func TestRunModeWarnDowngradesBlocks(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = config.ModeWarn
	g := newTestGuard(t, cfg)

	d := g.Run([]string{writePayload(".claude/agents/core/123bad.md", "# bad\n")}, nil)
	if d.Result != ResultWarn {
		t.Fatalf("decision = %+v, want warn", d)
	}
	if d.ExitCode() != ExitAllow {
		t.Errorf("warn must not block the tool call, exit = %d", d.ExitCode())
	}
	if d.Message == "" {
		t.Error("warn decision must carry the remediation message")
	}
}

func TestRunPerCheckOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Checks.Naming = config.ModeOff
	g := newTestGuard(t, cfg)

	// Naming is off, so the bad name passes; research still applies but the
	// idle default document has no evolution, so it blocks instead.
	d := g.Run([]string{writePayload(".claude/agents/core/123bad.md", "# bad\n")}, nil)
	if d.Result != ResultBlock {
		t.Fatalf("decision = %+v, want research block", d)
	}
	if strings.Contains(d.Message, "NAMING") {
		t.Errorf("disabled naming check still fired: %s", d.Message)
	}
	if !strings.Contains(d.Message, "RESEARCH REQUIRED") {
		t.Errorf("expected the research check to decide: %s", d.Message)
	}
}

func TestRunNothingToCheckAllows(t *testing.T) {
	g := newTestGuard(t, config.Default())

	for _, args := range [][]string{nil, {"{not json"}, {"{}"}} {
		d := g.Run(args, strings.NewReader(""))
		if d.Result != ResultAllow {
			t.Errorf("Run(%v) = %+v, want allow", args, d)
		}
	}
}

// brokenCache serves a snapshot with no document, which no real loader ever
// produces. It forces an internal failure inside the checkers.
type brokenCache struct{}

func (brokenCache) Get(string) (*evolution.Snapshot, bool) { return &evolution.Snapshot{}, true }
func (brokenCache) Put(string, *evolution.Snapshot)        {}
func (brokenCache) Invalidate(string)                      {}
func (brokenCache) Clear()                                 {}

func TestRunFailsClosedOnInternalError(t *testing.T) {
	var log bytes.Buffer
	cfg := config.Default()
	cfg.StatePath = filepath.Join(t.TempDir(), "state.json")
	store := evolution.NewStore(evolution.WithCache(brokenCache{}))
	g := New(cfg, store, diag.NewLogger(&log, "evolution-guard"))

	payload := writePayload("evolution-state.json", `{"state": "locking"}`)
	d := g.Run([]string{payload}, nil)
	if d.Result != ResultBlock || d.ExitCode() != ExitBlock {
		t.Fatalf("decision = %+v, want fail-closed block", d)
	}
	if !strings.Contains(d.Message, "EVOLUTION GUARD ERROR") {
		t.Errorf("message should flag the internal failure: %s", d.Message)
	}
	if !strings.Contains(log.String(), "internal-error") {
		t.Errorf("internal failure not logged: %s", log.String())
	}
}

func TestRunDebugFailOpen(t *testing.T) {
	var log bytes.Buffer
	cfg := config.Default()
	cfg.StatePath = filepath.Join(t.TempDir(), "state.json")
	cfg.DebugFailOpen = true
	store := evolution.NewStore(evolution.WithCache(brokenCache{}))
	g := New(cfg, store, diag.NewLogger(&log, "evolution-guard"))

	payload := writePayload("evolution-state.json", `{"state": "locking"}`)
	d := g.Run([]string{payload}, nil)
	if d.Result != ResultAllow {
		t.Fatalf("decision = %+v, want debug fail-open allow", d)
	}
	if !strings.Contains(log.String(), "debug-fail-open") {
		t.Errorf("fail-open override must be logged: %s", log.String())
	}
}

func TestRunCorruptStateFileFailsOpenAtDataLayer(t *testing.T) {
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.StatePath = path
	g := New(cfg, evolution.NewStore(), nil)

	// Corrupt state falls back to the idle default, so idle -> evaluating
	// stays legal and ordinary writes proceed.
	d := g.Run([]string{writePayload("evolution-state.json", `{"state": "evaluating"}`)}, nil)
	if d.Result != ResultAllow {
		t.Fatalf("decision = %+v, want allow from default idle document", d)
	}
}

func TestDecisionJSONShape(t *testing.T) {
	raw, err := json.Marshal(Decision{Result: ResultBlock, Message: "why"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"result":"block","message":"why"}`
	if string(raw) != want {
		t.Errorf("decision JSON = %s, want %s", raw, want)
	}

	raw, _ = json.Marshal(Decision{Result: ResultAllow})
	if strings.Contains(string(raw), "message") {
		t.Errorf("empty message must be omitted: %s", raw)
	}
}

func ExampleDecision_ExitCode() {
	fmt.Println(Decision{Result: ResultAllow}.ExitCode())
	fmt.Println(Decision{Result: ResultBlock}.ExitCode())
	// Output:
	// 0
	// 2
}
