package guard

import (
	"fmt"

	"github.com/evoops/evoguard/internal/artifact"
	"github.com/evoops/evoguard/internal/evolution"
	"github.com/evoops/evoguard/internal/invocation"
)

// CheckNaming enforces the artifact naming convention and scans the target
// category directory for name collisions. Convention failures short-circuit
// the collision scan.
func CheckNaming(_ *evolution.Document, inv *invocation.Invocation) CheckResult {
	ref := artifact.Identify(inv.FilePath)
	if ref == nil {
		return allow(checkNamingName)
	}

	if !artifact.NamePattern.MatchString(ref.Name) {
		return block(checkNamingName, fmt.Sprintf(
			"NAMING CONVENTION VIOLATION: %q does not match %s.\n"+
				"Artifact names use lowercase letters, digits, and hyphens, starting with a letter.\n"+
				"Valid examples: \"python-pro\", \"api-design-review\".",
			ref.Name, artifact.NamePattern))
	}

	existing := artifact.ExistingNames(ref.Root, ref.Category, ref.Path)
	if existing[ref.Name] {
		return block(checkNamingName, fmt.Sprintf(
			"NAMING CONFLICT: %s %q already exists under %s.\n"+
				"Pick a different name, or edit the existing artifact instead of creating a duplicate.",
			ref.Category, ref.Name, ref.Root))
	}

	return allow(checkNamingName)
}
