package transform

import (
	"strings"
	"testing"

	"github.com/pageguard/pageguard/internal/cipher"
	"github.com/pageguard/pageguard/internal/moderation"
	"go.uber.org/zap"
)

func testCipher(t *testing.T) *cipher.Cipher {
	t.Helper()
	key := make([]byte, cipher.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := cipher.New(key)
	if err != nil {
		t.Fatalf("cipher.New() error = %v", err)
	}
	return c
}

func TestParseAction(t *testing.T) {
	for _, s := range []string{"keep", "remove", "encrypt"} {
		if _, err := ParseAction(s); err != nil {
			t.Errorf("ParseAction(%q) error = %v", s, err)
		}
	}
	if _, err := ParseAction("shred"); err == nil {
		t.Error("ParseAction(\"shred\") should fail")
	}
}

func TestApplyKeep(t *testing.T) {
	tr := New(testCipher(t), zap.NewNop())

	result := moderation.NewResult()
	result.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com"}

	text := "Mail a@b.com today."
	out := tr.Apply(text, result, ActionKeep)

	if out.ProcessedText != text {
		t.Errorf("ProcessedText = %q, want input unchanged", out.ProcessedText)
	}
	if len(out.Log) != 0 {
		t.Errorf("Log has %d entries, want 0", len(out.Log))
	}
}

func TestApplyRemove(t *testing.T) {
	tr := New(testCipher(t), zap.NewNop())

	t.Run("sensitive info markers", func(t *testing.T) {
		result := moderation.NewResult()
		result.SensitiveInfo[moderation.CategoryEmails] = []string{"john.doe@example.com"}
		result.SensitiveInfo[moderation.CategoryPhones] = []string{"9876543210"}

		out := tr.Apply("Reach john.doe@example.com or 9876543210.", result, ActionRemove)

		want := "Reach [REDACTED EMAILS] or [REDACTED PHONE_NUMBERS]."
		if out.ProcessedText != want {
			t.Errorf("ProcessedText = %q, want %q", out.ProcessedText, want)
		}
		if len(out.Log) != 0 {
			t.Errorf("remove produced %d log entries, want 0", len(out.Log))
		}
	})

	t.Run("flagged word becomes asterisks", func(t *testing.T) {
		result := moderation.NewResult()
		result.Profanity = true
		result.FlaggedWords = []string{"damn"}

		out := tr.Apply("well damn it", result, ActionRemove)

		if out.ProcessedText != "well **** it" {
			t.Errorf("ProcessedText = %q, want %q", out.ProcessedText, "well **** it")
		}
	})

	t.Run("flagged sentence marker", func(t *testing.T) {
		result := moderation.NewResult()
		result.HateSpeech = true
		result.FlaggedSentences = []string{"I hate all politicians"}

		out := tr.Apply("Intro. I hate all politicians. Outro.", result, ActionRemove)

		want := "Intro. [REMOVED: POLICY VIOLATION]. Outro."
		if out.ProcessedText != want {
			t.Errorf("ProcessedText = %q, want %q", out.ProcessedText, want)
		}
	})

	t.Run("longest match substituted first", func(t *testing.T) {
		// The word inside the sentence must not be replaced separately once
		// the sentence claims the region.
		result := moderation.NewResult()
		result.HateSpeech = true
		result.FlaggedWords = []string{"hate"}
		result.FlaggedSentences = []string{"I hate all politicians"}

		out := tr.Apply("I hate all politicians.", result, ActionRemove)

		want := "[REMOVED: POLICY VIOLATION]."
		if out.ProcessedText != want {
			t.Errorf("ProcessedText = %q, want %q", out.ProcessedText, want)
		}
	})

	t.Run("substring item untouched inside longer one", func(t *testing.T) {
		result := moderation.NewResult()
		result.Profanity = true
		result.FlaggedWords = []string{"cat", "catastrophe"}

		out := tr.Apply("a catastrophe with a cat", result, ActionRemove)

		want := "a *********** with a ***"
		if out.ProcessedText != want {
			t.Errorf("ProcessedText = %q, want %q", out.ProcessedText, want)
		}
	})

	t.Run("hate speech discard option", func(t *testing.T) {
		result := moderation.NewResult()
		result.HateSpeech = true
		result.FlaggedSentences = []string{"I hate all politicians"}

		out := tr.ApplyWithOptions("I hate all politicians. More text.", result, ActionRemove,
			Options{DiscardOnHateSpeech: true})

		if out.ProcessedText != "[CONTENT REMOVED]" {
			t.Errorf("ProcessedText = %q, want %q", out.ProcessedText, "[CONTENT REMOVED]")
		}
	})

	t.Run("discard option ignored without hate speech", func(t *testing.T) {
		result := moderation.NewResult()
		result.Profanity = true
		result.FlaggedWords = []string{"damn"}

		out := tr.ApplyWithOptions("damn it", result, ActionRemove,
			Options{DiscardOnHateSpeech: true})

		if out.ProcessedText != "**** it" {
			t.Errorf("ProcessedText = %q, want %q", out.ProcessedText, "**** it")
		}
	})
}

func TestApplyEncrypt(t *testing.T) {
	tr := New(testCipher(t), zap.NewNop())

	t.Run("placeholders and log entries", func(t *testing.T) {
		result := moderation.NewResult()
		result.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com"}

		out := tr.Apply("Mail a@b.com now.", result, ActionEncrypt)

		want := "Mail [ENCRYPTED EMAILS] now."
		if out.ProcessedText != want {
			t.Errorf("ProcessedText = %q, want %q", out.ProcessedText, want)
		}
		if len(out.Log) != 1 {
			t.Fatalf("Log has %d entries, want 1", len(out.Log))
		}

		entry := out.Log[0]
		if entry.Kind != KindSensitive || entry.Category != moderation.CategoryEmails {
			t.Errorf("entry = %+v, want sensitive/emails", entry)
		}
		if entry.Ciphertext == "" || entry.Ciphertext == "a@b.com" {
			t.Errorf("Ciphertext = %q, want opaque non-empty value", entry.Ciphertext)
		}
	})

	t.Run("positions point at placeholders in final text", func(t *testing.T) {
		result := moderation.NewResult()
		result.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com", "c@d.org"}
		result.SensitiveInfo[moderation.CategoryPhones] = []string{"9876543210"}

		out := tr.Apply("a@b.com then 9876543210 then c@d.org", result, ActionEncrypt)

		if len(out.Log) != 3 {
			t.Fatalf("Log has %d entries, want 3", len(out.Log))
		}
		for _, entry := range out.Log {
			placeholder := "[ENCRYPTED " + entry.Category.Marker() + "]"
			end := entry.Position + len(placeholder)
			if end > len(out.ProcessedText) ||
				out.ProcessedText[entry.Position:end] != placeholder {
				t.Errorf("position %d does not point at %q in %q",
					entry.Position, placeholder, out.ProcessedText)
			}
		}
	})

	t.Run("repeated occurrences each logged", func(t *testing.T) {
		result := moderation.NewResult()
		result.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com"}

		out := tr.Apply("a@b.com and a@b.com", result, ActionEncrypt)

		if got := strings.Count(out.ProcessedText, "[ENCRYPTED EMAILS]"); got != 2 {
			t.Errorf("placeholder count = %d, want 2", got)
		}
		if len(out.Log) != 2 {
			t.Errorf("Log has %d entries, want 2", len(out.Log))
		}
	})

	t.Run("flagged word and sentence placeholders", func(t *testing.T) {
		result := moderation.NewResult()
		result.Profanity = true
		result.HateSpeech = true
		result.FlaggedWords = []string{"damn"}
		result.FlaggedSentences = []string{"I hate all politicians"}

		out := tr.Apply("damn! I hate all politicians.", result, ActionEncrypt)

		want := "[ENCRYPTED WORD]! [ENCRYPTED SENTENCE]."
		if out.ProcessedText != want {
			t.Errorf("ProcessedText = %q, want %q", out.ProcessedText, want)
		}
	})

	t.Run("no findings leaves text unchanged", func(t *testing.T) {
		out := tr.Apply("nothing to see", moderation.NewResult(), ActionEncrypt)

		if out.ProcessedText != "nothing to see" {
			t.Errorf("ProcessedText = %q, want input unchanged", out.ProcessedText)
		}
		if len(out.Log) != 0 {
			t.Errorf("Log has %d entries, want 0", len(out.Log))
		}
	})
}
