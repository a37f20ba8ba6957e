package ise

import (
	"strings"
)

// Identification handshake tokens.
const (
	// PromptMarker ends every monitor response.
	PromptMarker = '>'

	// IdentCommand asks the monitor for its version stamp.
	IdentCommand = "i"
)

// ParseIdent extracts the version string from a complete monitor exchange:
// everything up to the first prompt is discarded, and the text between it
// and the next prompt is the version. It reports false when the stream
// lacks two prompts.
func ParseIdent(stream string) (string, bool) {
	first := strings.IndexByte(stream, PromptMarker)
	if first < 0 {
		return "", false
	}
	rest := stream[first+1:]
	second := strings.IndexByte(rest, PromptMarker)
	if second < 0 {
		return "", false
	}
	return versionText(rest[:second]), true
}

// versionText cleans the text read between two prompts. A monitor that
// echoes input repeats the ident command on the first line; that line is
// dropped.
func versionText(raw string) string {
	raw = strings.ReplaceAll(raw, "\r", "")
	if head, tail, ok := strings.Cut(raw, "\n"); ok && strings.TrimSpace(head) == IdentCommand {
		raw = tail
	}
	return strings.TrimSpace(raw)
}
