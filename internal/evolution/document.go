package evolution

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxSuggestions bounds the suggestions list; older entries are pruned.
	MaxSuggestions = 10

	// SuggestionDedupeWindow is how long a trigger type suppresses repeats.
	SuggestionDedupeWindow = 5 * time.Minute
)

// reservedKeys are object keys that must never drive logic. They are harmless
// once JSON lands in a Go struct, but the locks map is free-form and its keys
// are used for lookups downstream, so they are stripped on load.
var reservedKeys = []string{"__proto__", "constructor", "prototype"}

// Document is the persisted evolution state for a project. The guard reads
// it; only the workflow executor writes it.
type Document struct {
	// State is the current state machine phase. Unknown values are
	// normalized to idle on load.
	State State `json:"state"`

	// CurrentEvolution describes the evolution in progress, if any.
	CurrentEvolution *Evolution `json:"currentEvolution,omitempty"`

	// Evolutions is the append-only history of completed evolutions.
	Evolutions []Record `json:"evolutions"`

	// Suggestions are detected-but-unacted-upon evolution triggers.
	Suggestions []Suggestion `json:"suggestions"`

	// Locks holds named locks used by the workflow executor for mutual
	// exclusion. The guard only round-trips them.
	Locks map[string]Lock `json:"locks"`

	// Version is a monotonic counter for optimistic concurrency.
	Version int `json:"version"`
}

// Evolution describes an in-progress evolution.
type Evolution struct {
	// Type is the artifact kind being evolved (agent, skill, workflow).
	Type string `json:"type,omitempty"`

	// Name is the artifact name.
	Name string `json:"name,omitempty"`

	// Path is the artifact file path.
	Path string `json:"path,omitempty"`

	// Phase is the workflow executor's fine-grained phase label
	// (e.g. "research", "build", "verify").
	Phase string `json:"phase,omitempty"`

	// Research is the ordered list of accumulated research entries.
	Research []ResearchEntry `json:"research"`
}

// ResearchEntry records a single unit of investigation.
type ResearchEntry struct {
	Query   string   `json:"query"`
	Source  string   `json:"source,omitempty"`
	Sources []string `json:"sources,omitempty"`
}

// Record is a completed evolution. Entries are immutable once appended.
type Record struct {
	Type           string `json:"type"`
	Name           string `json:"name"`
	Path           string `json:"path,omitempty"`
	CompletedAt    string `json:"completedAt,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	ResearchReport string `json:"researchReport,omitempty"`
}

// Suggestion is a detected evolution trigger awaiting action.
type Suggestion struct {
	ID          string    `json:"id"`
	TriggerType string    `json:"triggerType"`
	Message     string    `json:"message,omitempty"`
	DetectedAt  time.Time `json:"detectedAt"`
}

// Lock is a named lock held by the workflow executor.
type Lock struct {
	Owner      string    `json:"owner,omitempty"`
	AcquiredAt time.Time `json:"acquiredAt,omitempty"`
}

// DefaultDocument returns a fully-populated default state document, the
// shape a fresh project gets on first read.
func DefaultDocument() *Document {
	return &Document{
		State:       StateIdle,
		Evolutions:  []Record{},
		Suggestions: []Suggestion{},
		Locks:       map[string]Lock{},
		Version:     1,
	}
}

// Normalize repairs a decoded document in place: unknown states become idle,
// nil collections become empty, and reserved lock keys are dropped.
func (d *Document) Normalize() {
	d.State = d.State.OrIdle()
	if d.Evolutions == nil {
		d.Evolutions = []Record{}
	}
	if d.Suggestions == nil {
		d.Suggestions = []Suggestion{}
	}
	if d.Locks == nil {
		d.Locks = map[string]Lock{}
	}
	for _, key := range reservedKeys {
		delete(d.Locks, key)
	}
	if d.CurrentEvolution != nil && d.CurrentEvolution.Research == nil {
		d.CurrentEvolution.Research = []ResearchEntry{}
	}
}

// ResearchCount returns the number of accumulated research entries for the
// evolution in progress; zero when no evolution is active.
func (d *Document) ResearchCount() int {
	if d.CurrentEvolution == nil {
		return 0
	}
	return len(d.CurrentEvolution.Research)
}

// AddSuggestion appends a suggestion, assigning an ID when absent.
// A suggestion with the same trigger type detected within
// SuggestionDedupeWindow of an existing one is dropped. The list is kept
// sorted newest-first and capped at MaxSuggestions.
func (d *Document) AddSuggestion(s Suggestion) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.DetectedAt.IsZero() {
		s.DetectedAt = time.Now()
	}
	for _, existing := range d.Suggestions {
		if existing.TriggerType != s.TriggerType {
			continue
		}
		age := s.DetectedAt.Sub(existing.DetectedAt)
		if age < 0 {
			age = -age
		}
		if age < SuggestionDedupeWindow {
			return
		}
	}
	d.Suggestions = append(d.Suggestions, s)
	d.PruneSuggestions()
}

// PruneSuggestions sorts suggestions newest-first and drops everything past
// MaxSuggestions.
func (d *Document) PruneSuggestions() {
	sort.SliceStable(d.Suggestions, func(i, j int) bool {
		return d.Suggestions[i].DetectedAt.After(d.Suggestions[j].DetectedAt)
	})
	if len(d.Suggestions) > MaxSuggestions {
		d.Suggestions = d.Suggestions[:MaxSuggestions]
	}
}
