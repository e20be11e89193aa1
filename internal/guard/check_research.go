package guard

import (
	"fmt"

	"github.com/evoops/evoguard/internal/artifact"
	"github.com/evoops/evoguard/internal/evolution"
	"github.com/evoops/evoguard/internal/invocation"
)

// MinResearchEntries is the number of accumulated research entries required
// before artifact creation is permitted. The boundary is inclusive.
const MinResearchEntries = 3

// CheckResearch blocks artifact creation until enough research has been
// recorded on the evolution in progress. Entries are opaque; only the count
// matters.
func CheckResearch(doc *evolution.Document, inv *invocation.Invocation) CheckResult {
	if artifact.Identify(inv.FilePath) == nil {
		return allow(checkResearchName)
	}

	count := doc.ResearchCount()
	if count >= MinResearchEntries {
		return allow(checkResearchName)
	}

	return block(checkResearchName, fmt.Sprintf(
		"RESEARCH REQUIRED: insufficient research before artifact creation.\n"+
			"Current: %d entries. Required: %d.\n"+
			"Run the research-synthesis skill to record findings, then retry.",
		count, MinResearchEntries))
}
