package guard

import (
	"strings"
	"testing"

	"github.com/evoops/evoguard/internal/evolution"
	"github.com/evoops/evoguard/internal/invocation"
)

// goodAgentContent passes every quality rule: no placeholders, all three
// required sections, and comfortably over the minimum length.
func goodAgentContent() string {
	body := strings.Repeat("Detailed operating instructions for the agent. ", 12)
	return "# python-pro\n\n" +
		"## Task Progress Protocol\n" + body + "\n\n" +
		"## Memory Protocol\n" + body + "\n\n" +
		"The Iron Law: never skip verification.\n"
}

func verifyingDoc() *evolution.Document {
	doc := evolution.DefaultDocument()
	doc.State = evolution.StateVerifying
	return doc
}

func contentWrite(path, content string) *invocation.Invocation {
	return &invocation.Invocation{ToolName: "Write", FilePath: path, Content: content}
}

func TestCheckQualityDormantOutsideVerification(t *testing.T) {
	doc := evolution.DefaultDocument()
	doc.State = evolution.StateObtaining

	inv := contentWrite(".claude/agents/core/python-pro.md", "TODO: draft\n")
	if res := CheckQuality(doc, inv); res.Block {
		t.Errorf("gate fired outside verification phase: %s", res.Message)
	}
}

func TestCheckQualityArmedByPhaseField(t *testing.T) {
	doc := evolution.DefaultDocument()
	doc.State = evolution.StateIdle
	doc.CurrentEvolution = &evolution.Evolution{Type: "agent", Name: "python-pro", Phase: "verify"}

	inv := contentWrite(".claude/agents/core/python-pro.md", "TODO: draft\n")
	if res := CheckQuality(doc, inv); !res.Block {
		t.Error("phase \"verify\" must arm the gate even when the state lags")
	}
}

func TestCheckQualityIgnoresNonArtifacts(t *testing.T) {
	inv := contentWrite("src/main.go", "// TODO: refactor\n")
	if res := CheckQuality(verifyingDoc(), inv); res.Block {
		t.Errorf("non-artifact file blocked: %s", res.Message)
	}
}

func TestCheckQualityCleanArtifactPasses(t *testing.T) {
	inv := contentWrite(".claude/agents/core/python-pro.md", goodAgentContent())
	if res := CheckQuality(verifyingDoc(), inv); res.Block {
		t.Errorf("clean artifact blocked: %s", res.Message)
	}
}

func TestCheckQualityPlaceholders(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"todo", "TODO: write this part"},
		{"todo lowercase", "todo later"},
		{"tbd", "Deadline: TBD"},
		{"fixme", "FIXME before release"},
		{"fill in bracket", "[FILL IN] the details"},
		{"fill-in bracket", "[FILL-IN] the details"},
		{"placeholder bracket", "[placeholder]"},
		{"angle fill in", "<fill in>"},
		{"trailing ellipsis", "and then..."},
		{"insert bracket", "[INSERT] example here"},
		{"xxx", "XXX check this"},
		{"hack", "temporary HACK around the parser"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content := goodAgentContent() + tc.line + "\n"
			res := CheckQuality(verifyingDoc(), contentWrite(".claude/agents/core/python-pro.md", content))
			if !res.Block {
				t.Fatalf("placeholder %q not detected", tc.line)
			}
			if !strings.Contains(res.Message, "Placeholder marker at line") {
				t.Errorf("message missing line report: %s", res.Message)
			}
		})
	}
}

func TestCheckQualityPlaceholderNonMatches(t *testing.T) {
	// Lines that superficially resemble markers but are legitimate prose.
	for _, line := range []string{
		"An ellipsis... mid-sentence is fine.",
		"Use the Maxx library for parsing.", // XXX requires word boundaries
		"Hackathon results are summarized below.",
	} {
		content := goodAgentContent() + line + "\n"
		res := CheckQuality(verifyingDoc(), contentWrite(".claude/agents/core/python-pro.md", content))
		if res.Block {
			t.Errorf("false positive on %q: %s", line, res.Message)
		}
	}
}

func TestCheckQualityAgentSections(t *testing.T) {
	// Drop Memory Protocol, keep the rest valid.
	content := strings.Replace(goodAgentContent(), "## Memory Protocol", "## Notes", 1)
	res := CheckQuality(verifyingDoc(), contentWrite(".claude/agents/core/python-pro.md", content))
	if !res.Block {
		t.Fatal("missing Memory Protocol section not detected")
	}
	if !strings.Contains(res.Message, "Missing required section: Memory Protocol") {
		t.Errorf("message does not name the missing section: %s", res.Message)
	}
	if strings.Contains(res.Message, "Task Progress Protocol") {
		t.Errorf("present section reported as missing: %s", res.Message)
	}
}

func TestCheckQualityIronLawAnywhere(t *testing.T) {
	// "Iron Law" does not need to be a heading.
	content := strings.Replace(goodAgentContent(),
		"The Iron Law: never skip verification.", "Remember the iron law here.", 1)
	if res := CheckQuality(verifyingDoc(), contentWrite(".claude/agents/core/python-pro.md", content)); res.Block {
		t.Errorf("inline iron law mention not accepted: %s", res.Message)
	}
}

func TestCheckQualitySkillSections(t *testing.T) {
	filler := strings.Repeat("Explains the procedure step by step. ", 16)

	passing := "# api-design\n\n## When to use this skill\n" + filler
	if res := CheckQuality(verifyingDoc(), contentWrite(".claude/skills/api-design/SKILL.md", passing)); res.Block {
		t.Errorf("skill with When-to heading blocked: %s", res.Message)
	}

	failing := "# api-design\n\n## Background\n" + filler
	res := CheckQuality(verifyingDoc(), contentWrite(".claude/skills/api-design/SKILL.md", failing))
	if !res.Block {
		t.Fatal("skill without any required heading not detected")
	}
	if !strings.Contains(res.Message, "Missing required section") {
		t.Errorf("message does not report the section defect: %s", res.Message)
	}
}

func TestCheckQualityLength(t *testing.T) {
	short := "# python-pro\n## Task Progress Protocol\nx\n## Memory Protocol\nx\nIron Law\n"
	res := CheckQuality(verifyingDoc(), contentWrite(".claude/agents/core/python-pro.md", short))
	if !res.Block {
		t.Fatal("short artifact not detected")
	}
	if !strings.Contains(res.Message, "Content too short") {
		t.Errorf("message missing length defect: %s", res.Message)
	}
}

func TestCheckQualityAggregatesDefects(t *testing.T) {
	// One pass reports placeholders, the missing section, and the length
	// defect together so a single retry can fix all of them.
	content := "# python-pro\n\n## Task Progress Protocol\nTODO: fill this in\nIron Law applies.\n"
	res := CheckQuality(verifyingDoc(), contentWrite(".claude/agents/core/python-pro.md", content))
	if !res.Block {
		t.Fatal("defective artifact not blocked")
	}
	for _, want := range []string{
		"Placeholder marker at line 4",
		"Missing required section: Memory Protocol",
		"Content too short",
	} {
		if !strings.Contains(res.Message, want) {
			t.Errorf("message missing %q:\n%s", want, res.Message)
		}
	}
}

func TestCheckQualityCapsPlaceholderReports(t *testing.T) {
	var b strings.Builder
	b.WriteString(goodAgentContent())
	for i := 0; i < 12; i++ {
		b.WriteString("TODO item\n")
	}

	res := CheckQuality(verifyingDoc(), contentWrite(".claude/agents/core/python-pro.md", b.String()))
	if !res.Block {
		t.Fatal("expected block")
	}
	if got := strings.Count(res.Message, "Placeholder marker"); got > maxPlaceholderReports {
		t.Errorf("%d placeholder reports, cap is %d", got, maxPlaceholderReports)
	}
}
