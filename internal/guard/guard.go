package guard

import (
	"fmt"
	"io"
	"time"

	"github.com/evoops/evoguard/internal/config"
	"github.com/evoops/evoguard/internal/diag"
	"github.com/evoops/evoguard/internal/evolution"
	"github.com/evoops/evoguard/internal/invocation"
)

// Result values in a Decision.
const (
	ResultAllow = "allow"
	ResultBlock = "block"
	ResultWarn  = "warn"
)

// Exit codes of the decision contract.
const (
	ExitAllow = 0
	ExitBlock = 2
)

// Decision is the guard's verdict for one tool call.
type Decision struct {
	// Result is allow, block, or warn.
	Result string `json:"result"`

	// Message is the remediation text for block and warn decisions.
	Message string `json:"message,omitempty"`
}

// ExitCode maps the decision onto the process exit contract.
func (d Decision) ExitCode() int {
	if d.Result == ResultBlock {
		return ExitBlock
	}
	return ExitAllow
}

// Guard runs the policy checkers against one shared state snapshot.
type Guard struct {
	cfg       *config.Config
	store     *evolution.Store
	log       *diag.Logger
	stdinWait time.Duration
}

// Option configures a Guard.
type Option func(*Guard)

// WithStdinWait overrides the bounded stdin wait, mainly for tests.
func WithStdinWait(wait time.Duration) Option {
	return func(g *Guard) {
		g.stdinWait = wait
	}
}

// New creates a guard. A nil store gets a default TTL-cached one; logger may
// be nil to silence diagnostics.
func New(cfg *config.Config, store *evolution.Store, log *diag.Logger, opts ...Option) *Guard {
	if cfg == nil {
		cfg = config.Default()
	}
	if store == nil {
		store = evolution.NewStore()
	}
	g := &Guard{
		cfg:       cfg,
		store:     store,
		log:       log,
		stdinWait: invocation.DefaultStdinWait,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run evaluates one hook invocation end to end and returns the decision.
// Policy outcomes never escape as errors; an internal failure inside a
// checker fails closed unless the debug escape hatch is configured.
func (g *Guard) Run(args []string, stdin io.Reader) (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			decision = g.internalFailure(fmt.Errorf("guard panic: %v", r))
		}
	}()

	if g.cfg.EffectiveMode("") == config.ModeOff {
		return Decision{Result: ResultAllow}
	}

	inv := invocation.Parse(args, stdin, g.stdinWait)
	if inv == nil {
		// Nothing to check. Missing or unparseable input fails open;
		// the host invokes this hook for calls it has no opinion about.
		return Decision{Result: ResultAllow}
	}

	doc := g.store.GetState(g.cfg.StatePath)
	return g.evaluate(doc, inv)
}

// checkEntry pairs a checker with its per-check override.
type checkEntry struct {
	fn       CheckFunc
	override config.Mode
}

// evaluate runs the checkers in fixed order against the shared snapshot.
func (g *Guard) evaluate(doc *evolution.Document, inv *invocation.Invocation) Decision {
	entries := []checkEntry{
		{CheckTransition, g.cfg.Checks.Transition},
		{CheckNaming, g.cfg.Checks.Naming},
		{CheckQuality, g.cfg.Checks.Quality},
		{CheckResearch, g.cfg.Checks.Research},
	}

	var warnings []CheckResult
	for _, entry := range entries {
		mode := g.cfg.EffectiveMode(entry.override)
		if mode == config.ModeOff {
			continue
		}

		res := entry.fn(doc, inv)
		switch {
		case res.Block && mode == config.ModeBlock:
			// First blocking result wins.
			g.emit("decision", fmt.Sprintf("block by %s check", res.Check))
			return Decision{Result: ResultBlock, Message: res.Message}
		case res.Block || res.Warn:
			warnings = append(warnings, res)
		}
	}

	if len(warnings) > 0 {
		return Decision{Result: ResultWarn, Message: warnings[0].Message}
	}
	return Decision{Result: ResultAllow}
}

// internalFailure converts an unexpected guard error into the fail-closed
// decision. An unknown evolution state must not be treated as permissive;
// the debug escape hatch is the only override and its use is logged.
func (g *Guard) internalFailure(err error) Decision {
	if g.log != nil {
		g.log.Errorf("internal-error", err)
	}
	if g.cfg.DebugFailOpen {
		g.emit("debug-fail-open", "internal error allowed through by debug override")
		return Decision{Result: ResultAllow}
	}
	return Decision{
		Result: ResultBlock,
		Message: "EVOLUTION GUARD ERROR: internal failure while evaluating policy; " +
			"denying by default. Inspect the diagnostic log and retry.",
	}
}

func (g *Guard) emit(event, message string) {
	if g.log != nil {
		g.log.Emit(event, message)
	}
}
