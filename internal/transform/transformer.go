package transform

import (
	"sort"
	"strings"

	"github.com/pageguard/pageguard/internal/cipher"
	"github.com/pageguard/pageguard/internal/moderation"
	"go.uber.org/zap"
)

// Transformer rewrites text according to a detection result and an action.
type Transformer struct {
	cipher *cipher.Cipher
	logger *zap.Logger
}

// Options tune a single transformation pass.
type Options struct {
	// DiscardOnHateSpeech replaces the entire text with a removal marker
	// when hate speech was detected and the action is remove. It stands in
	// for the interactive prompt the extension shows; the core never blocks
	// on input.
	DiscardOnHateSpeech bool
}

// New creates a transformer backed by the given cipher.
func New(c *cipher.Cipher, logger *zap.Logger) *Transformer {
	return &Transformer{cipher: c, logger: logger}
}

// item is one piece of flagged content awaiting substitution.
type item struct {
	text     string
	kind     Kind
	category moderation.Category
}

// span is a concrete occurrence of an item in the original text.
type span struct {
	start, end int
	it         item
}

// Apply rewrites text per the action with default options.
func (t *Transformer) Apply(text string, result moderation.Result, action Action) Output {
	return t.ApplyWithOptions(text, result, action, Options{})
}

// ApplyWithOptions rewrites text per the action. ActionKeep returns the text
// unchanged with an empty log; ActionRemove substitutes redaction markers;
// ActionEncrypt substitutes placeholders and logs one entry per occurrence.
func (t *Transformer) ApplyWithOptions(text string, result moderation.Result, action Action, opts Options) Output {
	if action == ActionKeep {
		return Output{ProcessedText: text, Log: []LogEntry{}}
	}

	if action == ActionRemove && result.HateSpeech && opts.DiscardOnHateSpeech {
		t.logger.Info("Hate speech detected, discarding entire text")
		return Output{ProcessedText: contentRemovedMarker, Log: []LogEntry{}}
	}

	spans := claimSpans(text, collectItems(result))

	var b strings.Builder
	log := []LogEntry{}
	last := 0

	for _, sp := range spans {
		b.WriteString(text[last:sp.start])

		switch action {
		case ActionRemove:
			b.WriteString(t.removeReplacement(sp.it))
		case ActionEncrypt:
			ct, err := t.cipher.Encrypt(sp.it.text)
			if err != nil {
				// Never emit plaintext on a cipher failure; redact instead
				t.logger.Error("Span encryption failed, redacting",
					zap.String("kind", string(sp.it.kind)),
					zap.Error(err),
				)
				b.WriteString(t.removeReplacement(sp.it))
				last = sp.end
				continue
			}

			placeholder := placeholderFor(sp.it.kind, sp.it.category)
			log = append(log, LogEntry{
				Kind:       sp.it.kind,
				Category:   sp.it.category,
				Original:   sp.it.text,
				Ciphertext: ct,
				Position:   b.Len(),
			})
			b.WriteString(placeholder)
		}

		last = sp.end
	}
	b.WriteString(text[last:])

	return Output{ProcessedText: b.String(), Log: log}
}

// removeReplacement builds the irreversible substitute for one item.
func (t *Transformer) removeReplacement(it item) string {
	switch it.kind {
	case KindFlaggedWord:
		return strings.Repeat("*", len([]rune(it.text)))
	case KindFlaggedSentence:
		return policyViolationMarker
	default:
		return redactionMarker(it.category)
	}
}

// collectItems flattens a detection result into a single substitution list
// sorted by descending text length, so longer matches are always claimed
// before any shorter string they contain.
func collectItems(result moderation.Result) []item {
	var items []item

	for _, cat := range moderation.Categories() {
		for _, text := range result.SensitiveInfo[cat] {
			items = append(items, item{text: text, kind: KindSensitive, category: cat})
		}
	}
	for _, w := range result.FlaggedWords {
		items = append(items, item{text: w, kind: KindFlaggedWord})
	}
	for _, s := range result.FlaggedSentences {
		items = append(items, item{text: s, kind: KindFlaggedSentence})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return len(items[i].text) > len(items[j].text)
	})

	return items
}

// claimSpans locates every occurrence of every item, longest item first,
// skipping occurrences that overlap an already-claimed region. The returned
// spans are sorted by position for a single left-to-right rewrite.
func claimSpans(text string, items []item) []span {
	var spans []span

	for _, it := range items {
		if it.text == "" {
			continue
		}
		offset := 0
		for {
			idx := strings.Index(text[offset:], it.text)
			if idx < 0 {
				break
			}
			start := offset + idx
			end := start + len(it.text)
			offset = start + 1

			if overlaps(spans, start, end) {
				continue
			}
			spans = append(spans, span{start: start, end: end, it: it})
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// overlaps reports whether [start,end) intersects any claimed span.
func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}
