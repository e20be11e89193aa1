package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evoops/evoguard/internal/artifact"
	"github.com/evoops/evoguard/internal/evolution"
	"github.com/evoops/evoguard/internal/invocation"
)

const (
	// MinArtifactLength is the minimum acceptable artifact content size.
	MinArtifactLength = 500

	// maxPlaceholderReports caps how many placeholder hits are listed.
	maxPlaceholderReports = 5

	// snippetLimit truncates reported placeholder lines.
	snippetLimit = 80
)

// placeholderPatterns match in-progress markers that must not survive the
// verification phase.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)TODO`),
	regexp.MustCompile(`(?i)TBD`),
	regexp.MustCompile(`(?i)FIXME`),
	regexp.MustCompile(`(?i)\[FILL[ -]?IN\]`),
	regexp.MustCompile(`(?i)\[PLACEHOLDER\]`),
	regexp.MustCompile(`(?i)<fill[ -]in>`),
	regexp.MustCompile(`\.\.\.\s*$`),
	regexp.MustCompile(`(?i)\[INSERT\]`),
	regexp.MustCompile(`\bXXX\b`),
	regexp.MustCompile(`(?i)\bHACK\b`),
}

// agentRequiredSections are the structural requirements for agent artifacts.
// The first two must appear as headings; "Iron Law" anywhere suffices.
var agentRequiredSections = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"Task Progress Protocol", regexp.MustCompile(`(?im)^#{1,6}\s.*task progress protocol`)},
	{"Memory Protocol", regexp.MustCompile(`(?im)^#{1,6}\s.*memory protocol`)},
	{"Iron Law", regexp.MustCompile(`(?i)iron law`)},
}

// skillSectionPattern accepts any of the headings a skill must carry.
var skillSectionPattern = regexp.MustCompile(`(?im)^#{1,6}\s.*(when to|purpose|usage)`)

// CheckQuality scans proposed artifact content for placeholder markers,
// missing required sections, and insufficient length. It only fires during
// the verification phase; earlier phases legitimately hold drafts.
func CheckQuality(doc *evolution.Document, inv *invocation.Invocation) CheckResult {
	typ := artifact.TypeOf(inv.FilePath)
	if typ == "" {
		return allow(checkQualityName)
	}
	if !inVerificationPhase(doc) {
		return allow(checkQualityName)
	}

	var defects []string
	defects = append(defects, placeholderDefects(inv.Content)...)
	defects = append(defects, sectionDefects(typ, inv.Content)...)
	if len(inv.Content) < MinArtifactLength {
		defects = append(defects, fmt.Sprintf(
			"- Content too short: %d characters (minimum %d)",
			len(inv.Content), MinArtifactLength))
	}

	if len(defects) == 0 {
		return allow(checkQualityName)
	}

	msg := "QUALITY GATE FAILED: artifact is not ready for the enable phase.\n" +
		strings.Join(defects, "\n") +
		"\nFix these defects and retry before proceeding to enable."
	return block(checkQualityName, msg)
}

// inVerificationPhase reports whether the quality gate is armed.
func inVerificationPhase(doc *evolution.Document) bool {
	if doc.State.OrIdle() == evolution.StateVerifying {
		return true
	}
	return doc.CurrentEvolution != nil && doc.CurrentEvolution.Phase == "verify"
}

// placeholderDefects reports up to maxPlaceholderReports placeholder hits
// with 1-based line numbers and truncated snippets.
func placeholderDefects(content string) []string {
	var defects []string
	for i, line := range strings.Split(content, "\n") {
		if len(defects) >= maxPlaceholderReports {
			break
		}
		for _, pattern := range placeholderPatterns {
			if !pattern.MatchString(line) {
				continue
			}
			snippet := strings.TrimSpace(line)
			if len(snippet) > snippetLimit {
				snippet = snippet[:snippetLimit]
			}
			defects = append(defects, fmt.Sprintf(
				"- Placeholder marker at line %d: %s", i+1, snippet))
			break
		}
	}
	return defects
}

// sectionDefects reports required sections missing from the content for the
// given artifact type.
func sectionDefects(typ artifact.Type, content string) []string {
	var defects []string
	switch typ {
	case artifact.TypeAgent:
		for _, section := range agentRequiredSections {
			if !section.pattern.MatchString(content) {
				defects = append(defects, fmt.Sprintf(
					"- Missing required section: %s", section.name))
			}
		}
	case artifact.TypeSkill:
		if !skillSectionPattern.MatchString(content) {
			defects = append(defects,
				"- Missing required section: one of \"When to\", \"Purpose\", or \"Usage\"")
		}
	}
	return defects
}
