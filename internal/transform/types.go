package transform

import (
	"fmt"

	"github.com/pageguard/pageguard/internal/moderation"
)

// Action selects how flagged content is rewritten.
type Action string

const (
	// ActionKeep leaves the text untouched.
	ActionKeep Action = "keep"
	// ActionRemove redacts flagged content irreversibly.
	ActionRemove Action = "remove"
	// ActionEncrypt replaces flagged content with recoverable placeholders.
	ActionEncrypt Action = "encrypt"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionKeep, ActionRemove, ActionEncrypt:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action: %q", s)
	}
}

// Kind distinguishes what sort of content a log entry covers.
type Kind string

const (
	KindSensitive       Kind = "sensitive"
	KindFlaggedWord     Kind = "flagged_word"
	KindFlaggedSentence Kind = "flagged_sentence"
)

// LogEntry records one encrypted span. Original holds the plaintext for the
// caller that produced it and is never serialized; recovery relies solely on
// the ciphertext. Position is the placeholder's byte offset in the final
// processed text.
type LogEntry struct {
	Kind       Kind                `json:"kind"`
	Category   moderation.Category `json:"category,omitempty"`
	Original   string              `json:"-"`
	Ciphertext string              `json:"ciphertext"`
	Position   int                 `json:"position"`
}

// Output is the result of one transformation pass.
type Output struct {
	ProcessedText string     `json:"processed_text"`
	Log           []LogEntry `json:"log,omitempty"`
}

const (
	// policyViolationMarker replaces a flagged sentence under ActionRemove.
	policyViolationMarker = "[REMOVED: POLICY VIOLATION]"
	// contentRemovedMarker replaces the whole text when the caller opts to
	// discard hate-speech content entirely.
	contentRemovedMarker = "[CONTENT REMOVED]"
)

// redactionMarker builds the replacement token for a removed sensitive item.
func redactionMarker(cat moderation.Category) string {
	return "[REDACTED " + cat.Marker() + "]"
}

// placeholderFor builds the placeholder token an encrypted span leaves
// behind; recovery reconstructs it from the entry's kind and category.
func placeholderFor(kind Kind, cat moderation.Category) string {
	switch kind {
	case KindFlaggedWord:
		return "[ENCRYPTED WORD]"
	case KindFlaggedSentence:
		return "[ENCRYPTED SENTENCE]"
	default:
		return "[ENCRYPTED " + cat.Marker() + "]"
	}
}
