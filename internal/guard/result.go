// Package guard implements the evolution policy checkers and the
// orchestrator that runs them against one shared state snapshot.
package guard

import (
	"github.com/evoops/evoguard/internal/evolution"
	"github.com/evoops/evoguard/internal/invocation"
)

// Check names, in the fixed execution order.
const (
	checkTransitionName = "state-transition"
	checkNamingName     = "naming"
	checkQualityName    = "quality-gate"
	checkResearchName   = "research"
)

// CheckResult is a single checker's verdict. Policy violations are values,
// never errors.
type CheckResult struct {
	// Check names the checker that produced the result.
	Check string `json:"check"`

	// Block requests denial of the tool call.
	Block bool `json:"block"`

	// Warn flags a non-blocking concern.
	Warn bool `json:"warn"`

	// Message is the human-readable remediation text.
	Message string `json:"message,omitempty"`
}

// CheckFunc is a pure policy checker over one state snapshot and one
// normalized invocation.
type CheckFunc func(doc *evolution.Document, inv *invocation.Invocation) CheckResult

// allow is the neutral result for a checker that has no opinion.
func allow(check string) CheckResult {
	return CheckResult{Check: check}
}

// block is a denying result with a remediation message.
func block(check, message string) CheckResult {
	return CheckResult{Check: check, Block: true, Message: message}
}
