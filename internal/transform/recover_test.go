package transform

import (
	"strings"
	"testing"

	"github.com/pageguard/pageguard/internal/cipher"
	"github.com/pageguard/pageguard/internal/moderation"
	"go.uber.org/zap"
)

func TestRecoverRoundTrip(t *testing.T) {
	c := testCipher(t)
	tr := New(c, zap.NewNop())
	rec := NewRecoverer(c, zap.NewNop())

	tests := []struct {
		name   string
		text   string
		result func() moderation.Result
	}{
		{
			name: "single email",
			text: "Mail a@b.com now.",
			result: func() moderation.Result {
				r := moderation.NewResult()
				r.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com"}
				return r
			},
		},
		{
			name: "mixed categories",
			text: "a@b.com then 9876543210 then 4111 1111 1111 1111",
			result: func() moderation.Result {
				r := moderation.NewResult()
				r.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com"}
				r.SensitiveInfo[moderation.CategoryPhones] = []string{"9876543210"}
				r.SensitiveInfo[moderation.CategoryCards] = []string{"4111 1111 1111 1111"}
				return r
			},
		},
		{
			name: "repeated occurrences",
			text: "a@b.com, a@b.com and once more a@b.com",
			result: func() moderation.Result {
				r := moderation.NewResult()
				r.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com"}
				return r
			},
		},
		{
			name: "words and sentences",
			text: "damn! I hate all politicians. The end.",
			result: func() moderation.Result {
				r := moderation.NewResult()
				r.Profanity = true
				r.HateSpeech = true
				r.FlaggedWords = []string{"damn"}
				r.FlaggedSentences = []string{"I hate all politicians"}
				return r
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tr.Apply(tt.text, tt.result(), ActionEncrypt)

			recovered, errs := rec.Recover(out.ProcessedText, out.Log)
			if len(errs) != 0 {
				t.Fatalf("Recover() errors = %v", errs)
			}
			if recovered != tt.text {
				t.Errorf("recovered = %q, want %q", recovered, tt.text)
			}
		})
	}
}

func TestRecoverWrongKey(t *testing.T) {
	c := testCipher(t)
	tr := New(c, zap.NewNop())

	otherKey := make([]byte, cipher.KeySize)
	for i := range otherKey {
		otherKey[i] = 0xaa
	}
	otherCipher, err := cipher.New(otherKey)
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecoverer(otherCipher, zap.NewNop())

	result := moderation.NewResult()
	result.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com"}
	out := tr.Apply("Mail a@b.com now.", result, ActionEncrypt)

	recovered, errs := rec.Recover(out.ProcessedText, out.Log)

	// Undecryptable entries are skipped, not fatal
	if len(errs) != 1 {
		t.Fatalf("Recover() errors = %v, want one", errs)
	}
	if recovered != out.ProcessedText {
		t.Errorf("recovered = %q, want placeholder left in place", recovered)
	}
}

func TestRecoverMissingPlaceholder(t *testing.T) {
	c := testCipher(t)
	tr := New(c, zap.NewNop())
	rec := NewRecoverer(c, zap.NewNop())

	result := moderation.NewResult()
	result.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com"}
	out := tr.Apply("Mail a@b.com now.", result, ActionEncrypt)

	// Simulate the caller having edited the placeholder away
	edited := strings.Replace(out.ProcessedText, "[ENCRYPTED EMAILS]", "(gone)", 1)

	recovered, errs := rec.Recover(edited, out.Log)
	if len(errs) != 0 {
		t.Fatalf("Recover() errors = %v, want none", errs)
	}
	if recovered != edited {
		t.Errorf("recovered = %q, want text unchanged", recovered)
	}
}

func TestRecoverShiftedText(t *testing.T) {
	c := testCipher(t)
	tr := New(c, zap.NewNop())
	rec := NewRecoverer(c, zap.NewNop())

	result := moderation.NewResult()
	result.SensitiveInfo[moderation.CategoryEmails] = []string{"a@b.com"}
	out := tr.Apply("Mail a@b.com now.", result, ActionEncrypt)

	// Prepended text invalidates recorded offsets; the fallback search must
	// still locate the placeholder.
	shifted := ">> " + out.ProcessedText

	recovered, errs := rec.Recover(shifted, out.Log)
	if len(errs) != 0 {
		t.Fatalf("Recover() errors = %v", errs)
	}
	if recovered != ">> Mail a@b.com now." {
		t.Errorf("recovered = %q, want %q", recovered, ">> Mail a@b.com now.")
	}
}

func TestRecoverEntry(t *testing.T) {
	c := testCipher(t)
	tr := New(c, zap.NewNop())
	rec := NewRecoverer(c, zap.NewNop())

	result := moderation.NewResult()
	result.SensitiveInfo[moderation.CategoryPhones] = []string{"9876543210"}
	out := tr.Apply("call 9876543210", result, ActionEncrypt)

	plaintext, err := rec.RecoverEntry(out.Log[0])
	if err != nil {
		t.Fatalf("RecoverEntry() error = %v", err)
	}
	if plaintext != "9876543210" {
		t.Errorf("RecoverEntry() = %q, want %q", plaintext, "9876543210")
	}

	if _, err := rec.RecoverEntry(LogEntry{Ciphertext: "garbage"}); err == nil {
		t.Error("RecoverEntry() with garbage ciphertext should fail")
	}
}
