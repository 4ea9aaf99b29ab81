package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pageguard/pageguard/internal/cipher"
	"go.uber.org/zap"
)

// Recoverer restores original text from an encryption log.
type Recoverer struct {
	cipher *cipher.Cipher
	logger *zap.Logger
}

// NewRecoverer creates a recovery engine backed by the given cipher.
func NewRecoverer(c *cipher.Cipher, logger *zap.Logger) *Recoverer {
	return &Recoverer{cipher: c, logger: logger}
}

// Recover walks the log entries from the highest recorded offset down, so
// restoring one entry never shifts the offsets of entries still pending.
// Entries whose placeholder is gone or whose ciphertext fails to decrypt
// (rotated key, tampering) are skipped; their errors are returned alongside
// the best-effort recovered text.
func (r *Recoverer) Recover(processedText string, log []LogEntry) (string, []error) {
	entries := make([]LogEntry, len(log))
	copy(entries, log)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Position > entries[j].Position
	})

	text := processedText
	var errs []error

	for _, entry := range entries {
		placeholder := placeholderFor(entry.Kind, entry.Category)

		idx := locatePlaceholder(text, placeholder, entry.Position)
		if idx < 0 {
			r.logger.Warn("Placeholder not found, skipping entry",
				zap.String("placeholder", placeholder),
				zap.Int("position", entry.Position),
			)
			continue
		}

		plaintext, err := r.cipher.Decrypt(entry.Ciphertext)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry at %d: %w", entry.Position, err))
			r.logger.Warn("Entry decryption failed, skipping",
				zap.Int("position", entry.Position),
				zap.Error(err),
			)
			continue
		}

		text = text[:idx] + plaintext + text[idx+len(placeholder):]
	}

	return text, errs
}

// RecoverEntry decrypts a single log entry's plaintext. Unlike batch
// recovery this surfaces the cipher error to the caller.
func (r *Recoverer) RecoverEntry(entry LogEntry) (string, error) {
	return r.cipher.Decrypt(entry.Ciphertext)
}

// locatePlaceholder prefers the recorded offset and falls back to the first
// remaining occurrence when the text shifted out-of-band.
func locatePlaceholder(text, placeholder string, position int) int {
	if position >= 0 && position+len(placeholder) <= len(text) &&
		text[position:position+len(placeholder)] == placeholder {
		return position
	}
	return strings.Index(text, placeholder)
}
