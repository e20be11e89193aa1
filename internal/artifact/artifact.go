// Package artifact maps candidate file paths onto evolution artifact
// categories and enumerates the artifacts already present on disk.
package artifact

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Category is an artifact category with its own directory shape.
type Category string

const (
	CategoryAgent    Category = "agent"
	CategorySkill    Category = "skill"
	CategoryWorkflow Category = "workflow"
)

// NamePattern is the artifact naming convention: lowercase letters, digits,
// and hyphens, starting with a letter.
var NamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Path shapes for the three artifact categories. Matched against
// slash-normalized paths.
var (
	agentPathPattern    = regexp.MustCompile(`(?:^|/)(agents)/[^/]+/([^/]+)\.md$`)
	skillPathPattern    = regexp.MustCompile(`(?:^|/)(skills)/([^/]+)/SKILL\.md$`)
	workflowPathPattern = regexp.MustCompile(`(?:^|/)(workflows)/[^/]+/([^/]+)\.md$`)
)

// Ref identifies the artifact a file path would create or modify.
type Ref struct {
	// Category is the artifact category.
	Category Category

	// Name is the candidate artifact name derived from the path.
	Name string

	// Root is the category directory (".claude/agents", "skills", ...)
	// in the original path's terms, used for sibling enumeration.
	Root string

	// Path is the original candidate path, slash-normalized.
	Path string
}

// NormalizeSlashes converts backslash separators so Windows-style paths
// match the same patterns.
func NormalizeSlashes(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}

// Identify returns the artifact reference for path, or nil when the path is
// not one of the three artifact shapes.
func Identify(path string) *Ref {
	normalized := NormalizeSlashes(path)

	for _, shape := range []struct {
		pattern  *regexp.Regexp
		category Category
	}{
		{agentPathPattern, CategoryAgent},
		{skillPathPattern, CategorySkill},
		{workflowPathPattern, CategoryWorkflow},
	} {
		m := shape.pattern.FindStringSubmatchIndex(normalized)
		if m == nil {
			continue
		}
		// m[2]:m[3] is the category directory segment, m[4]:m[5] the name.
		return &Ref{
			Category: shape.category,
			Name:     normalized[m[4]:m[5]],
			Root:     normalized[:m[3]],
			Path:     normalized,
		}
	}
	return nil
}

// Type is a coarser artifact classification used by the quality gate.
type Type string

const (
	TypeAgent    Type = "agent"
	TypeSkill    Type = "skill"
	TypeWorkflow Type = "workflow"
	TypeHook     Type = "hook"
	TypeSchema   Type = "schema"
)

// typeMarkers maps directory segments to artifact types, in match order.
var typeMarkers = []struct {
	segment string
	typ     Type
}{
	{"agents", TypeAgent},
	{"skills", TypeSkill},
	{"workflows", TypeWorkflow},
	{"hooks", TypeHook},
	{"schemas", TypeSchema},
}

// TypeOf classifies path by its directory prefix. Returns empty string when
// the path maps to no known artifact type.
func TypeOf(path string) Type {
	normalized := NormalizeSlashes(path)
	for _, marker := range typeMarkers {
		if strings.Contains(normalized, "/"+marker.segment+"/") || strings.HasPrefix(normalized, marker.segment+"/") {
			return marker.typ
		}
	}
	return ""
}

// ExistingNames enumerates artifact names already present under root for the
// given category. For agents and workflows every *.md basename counts
// (excluding SKILL.md and README.md); for skills every subdirectory holding
// a SKILL.md counts. The file at excludePath is skipped so a write to an
// artifact never collides with itself. Scan errors are swallowed: this is an
// advisory naming gate, not a security boundary, so availability wins.
func ExistingNames(root string, category Category, excludePath string) map[string]bool {
	names := make(map[string]bool)
	exclude := NormalizeSlashes(excludePath)

	_ = filepath.WalkDir(filepath.FromSlash(root), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if NormalizeSlashes(path) == exclude {
			return nil
		}
		base := d.Name()
		switch category {
		case CategorySkill:
			if d.IsDir() {
				skillFile := filepath.Join(path, "SKILL.md")
				if NormalizeSlashes(skillFile) == exclude {
					return nil
				}
				if _, err := os.Stat(skillFile); err == nil {
					names[base] = true
				}
			}
		default:
			if d.IsDir() || !strings.HasSuffix(base, ".md") {
				return nil
			}
			if base == "SKILL.md" || base == "README.md" {
				return nil
			}
			names[strings.TrimSuffix(base, ".md")] = true
		}
		return nil
	})

	return names
}
