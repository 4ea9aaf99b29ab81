package logstore

import (
	"context"
	"testing"

	"github.com/pageguard/pageguard/internal/moderation"
	"github.com/pageguard/pageguard/internal/transform"
	"go.uber.org/zap"
)

func testEntries() []transform.LogEntry {
	return []transform.LogEntry{
		{Kind: transform.KindSensitive, Category: moderation.CategoryEmails, Ciphertext: "AAEC", Position: 5},
		{Kind: transform.KindFlaggedWord, Ciphertext: "AwQF", Position: 30},
		{Kind: transform.KindFlaggedSentence, Ciphertext: "BgcI", Position: 48},
	}
}

func TestFileStoreAppendRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	want := testEntries()

	reference, err := store.Append(ctx, want)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if !validReference(reference) {
		t.Fatalf("Append() returned malformed reference %q", reference)
	}

	got, err := store.Read(ctx, reference)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Read() returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Kind != want[i].Kind ||
			got[i].Category != want[i].Category ||
			got[i].Ciphertext != want[i].Ciphertext ||
			got[i].Position != want[i].Position {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFileStoreReadErrors(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	ctx := context.Background()

	t.Run("invalid reference", func(t *testing.T) {
		if _, err := store.Read(ctx, "../../etc/passwd"); err == nil {
			t.Error("Read() with path-traversal reference should fail")
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		if _, err := store.Read(ctx, "00000000000000000000000000000000"); err == nil {
			t.Error("Read() of absent reference should fail")
		}
	})
}

func TestFileStoreScan(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := store.Append(ctx, testEntries()); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	t.Run("full scan in pages", func(t *testing.T) {
		total := 0
		offset := 0
		for {
			batch, err := store.Scan(ctx, offset, 4)
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if len(batch) == 0 {
				break
			}
			total += len(batch)
			offset += len(batch)
		}
		if total != 9 {
			t.Errorf("scanned %d rows, want 9", total)
		}
	})

	t.Run("offset beyond end", func(t *testing.T) {
		batch, err := store.Scan(ctx, 100, 10)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(batch) != 0 {
			t.Errorf("Scan() past the end returned %d rows, want 0", len(batch))
		}
	})
}

func TestValidReference(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"0123456789abcdef0123456789abcdef", true},
		{"0123456789ABCDEF0123456789ABCDEF", false},
		{"0123456789abcdef", false},
		{"", false},
		{"../0123456789abcdef0123456789abc", false},
	}

	for _, tt := range tests {
		if got := validReference(tt.ref); got != tt.want {
			t.Errorf("validReference(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}
