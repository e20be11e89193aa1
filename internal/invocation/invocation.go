// Package invocation normalizes tool-call payloads delivered by the hook
// host. Payloads arrive either as a single argv JSON argument or on stdin;
// field names vary across host versions, so the multi-alias lookup lives
// here and nowhere else.
package invocation

import (
	"encoding/json"
	"io"
	"strings"
	"time"
)

// DefaultStdinWait bounds how long Parse waits for stdin content so the
// process never hangs when the host supplies nothing.
const DefaultStdinWait = 150 * time.Millisecond

// maxPayloadBytes caps how much stdin is read. Tool payloads are small;
// anything larger is not a hook invocation.
const maxPayloadBytes = 4 << 20

// filePathKeys lists accepted file-path field names in priority order.
var filePathKeys = []string{"file_path", "filePath", "path", "notebook_path"}

// Invocation is the normalized tool call the guard evaluates.
type Invocation struct {
	// ToolName is the invoked tool (Write, Edit, ...).
	ToolName string

	// FilePath is the mutation target, as supplied by the host.
	FilePath string

	// Content is the proposed file content or edit fragment.
	Content string
}

// rawPayload mirrors the host payload shape, including accepted aliases.
// Decoding into a fixed struct drops everything else.
type rawPayload struct {
	ToolName   string         `json:"tool_name"`
	Tool       string         `json:"tool"`
	ToolInput  map[string]any `json:"tool_input"`
	Input      map[string]any `json:"input"`
	Parameters map[string]any `json:"parameters"`
}

// Parse extracts an invocation from the command-line arguments, falling back
// to stdin with a bounded wait. Returns nil when there is nothing to check;
// callers treat that as allow.
func Parse(args []string, stdin io.Reader, wait time.Duration) *Invocation {
	for _, arg := range args {
		if inv := parsePayload([]byte(arg)); inv != nil {
			return inv
		}
	}
	if stdin == nil {
		return nil
	}
	if wait <= 0 {
		wait = DefaultStdinWait
	}
	data := readWithin(stdin, wait)
	return parsePayload(data)
}

// parsePayload decodes one JSON payload into an Invocation.
func parsePayload(data []byte) *Invocation {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}

	var raw rawPayload
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil
	}

	toolName := raw.ToolName
	if toolName == "" {
		toolName = raw.Tool
	}

	input := raw.ToolInput
	if input == nil {
		input = raw.Input
	}
	if input == nil {
		input = raw.Parameters
	}

	inv := &Invocation{ToolName: toolName}
	if input != nil {
		inv.FilePath = firstString(input, filePathKeys...)
		inv.Content = firstString(input, "content", "new_string")
	}

	if inv.ToolName == "" && inv.FilePath == "" {
		return nil
	}
	return inv
}

// firstString returns the first non-empty string value among keys.
func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// readWithin reads everything available on r, giving up after wait. The
// reader goroutine is abandoned on timeout; the process is short-lived so
// that leak is bounded by its lifetime.
func readWithin(r io.Reader, wait time.Duration) []byte {
	ch := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(io.LimitReader(r, maxPayloadBytes))
		ch <- data
	}()

	select {
	case data := <-ch:
		return data
	case <-time.After(wait):
		return nil
	}
}
