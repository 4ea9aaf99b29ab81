package logstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pageguard/pageguard/internal/moderation"
	"github.com/pageguard/pageguard/internal/transform"
)

// Store persists encryption logs so processed text can be recovered later.
// Append returns a reference the client hands back to read the batch.
// Plaintext never reaches a store; only ciphertext is persisted.
type Store interface {
	Append(ctx context.Context, entries []transform.LogEntry) (string, error)
	Read(ctx context.Context, reference string) ([]transform.LogEntry, error)
	Close() error
}

// Archiver is implemented by stores that can enumerate their rows for
// offline export.
type Archiver interface {
	Scan(ctx context.Context, offset, limit int) ([]ArchiveRecord, error)
}

// ArchiveRecord is the flat row shape used for audit exports.
type ArchiveRecord struct {
	Reference  string `db:"reference" parquet:"reference" json:"reference" csv:"reference"`
	Seq        int    `db:"seq" parquet:"seq" json:"seq" csv:"seq"`
	Kind       string `db:"kind" parquet:"kind" json:"kind" csv:"kind"`
	Category   string `db:"category" parquet:"category" json:"category" csv:"category"`
	Ciphertext string `db:"ciphertext" parquet:"ciphertext" json:"ciphertext" csv:"ciphertext"`
	Position   int    `db:"position" parquet:"position" json:"position" csv:"position"`
	CreatedAt  int64  `db:"created_at" parquet:"created_at" json:"created_at" csv:"created_at"`
}

// newReference generates a short random locator for one log batch.
func newReference() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reference: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// validReference guards file paths and queries against junk locators.
func validReference(ref string) bool {
	if len(ref) != 32 {
		return false
	}
	for _, r := range ref {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// toArchive flattens log entries into export rows.
func toArchive(reference string, entries []transform.LogEntry, at time.Time) []ArchiveRecord {
	records := make([]ArchiveRecord, 0, len(entries))
	for i, e := range entries {
		records = append(records, ArchiveRecord{
			Reference:  reference,
			Seq:        i,
			Kind:       string(e.Kind),
			Category:   string(e.Category),
			Ciphertext: e.Ciphertext,
			Position:   e.Position,
			CreatedAt:  at.Unix(),
		})
	}
	return records
}

// fromArchive rebuilds log entries from export rows.
func fromArchive(records []ArchiveRecord) []transform.LogEntry {
	entries := make([]transform.LogEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, transform.LogEntry{
			Kind:       transform.Kind(r.Kind),
			Category:   moderation.Category(r.Category),
			Ciphertext: r.Ciphertext,
			Position:   r.Position,
		})
	}
	return entries
}
