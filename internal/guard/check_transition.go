package guard

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/evoops/evoguard/internal/artifact"
	"github.com/evoops/evoguard/internal/evolution"
	"github.com/evoops/evoguard/internal/invocation"
)

// stateAssignPattern matches an explicit state assignment in proposed
// content. Content may be a partial edit fragment, so the match is textual
// rather than a full JSON parse.
var stateAssignPattern = regexp.MustCompile(`"state"\s*:\s*"([^"]*)"`)

// isStateDocument reports whether the mutation target is the evolution state
// document itself.
func isStateDocument(filePath string) bool {
	normalized := artifact.NormalizeSlashes(filePath)
	base := path.Base(normalized)
	if base == "evolution-state.json" {
		return true
	}
	return base == "state.json" && strings.Contains(normalized, ".evolution/")
}

// CheckTransition vetoes writes to the state document that would move the
// state machine along an edge not present in the transition table. It never
// mutates state.
func CheckTransition(doc *evolution.Document, inv *invocation.Invocation) CheckResult {
	if !isStateDocument(inv.FilePath) {
		return allow(checkTransitionName)
	}

	m := stateAssignPattern.FindStringSubmatch(inv.Content)
	if m == nil {
		return allow(checkTransitionName)
	}

	from := doc.State.OrIdle()
	target := m[1]
	to := evolution.ParseState(target)
	if to != "" && evolution.CanTransition(from, to) {
		return allow(checkTransitionName)
	}

	valid := evolution.ValidNext(from)
	validDesc := "none (terminal state)"
	if len(valid) > 0 {
		names := make([]string, len(valid))
		for i, s := range valid {
			names[i] = string(s)
		}
		validDesc = strings.Join(names, ", ")
	}

	return block(checkTransitionName, fmt.Sprintf(
		"STATE TRANSITION VIOLATION: %q -> %q is not a valid evolution state transition.\n"+
			"Valid next states from %q: %s.\n"+
			"Phases must not be skipped; complete the current phase first.",
		from, target, from, validDesc))
}
