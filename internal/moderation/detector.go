package moderation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/logger"
	"go.uber.org/zap"
)

// Detector runs hate-speech/profanity detection and prioritized
// sensitive-info pattern matching over raw text.
type Detector struct {
	enabled map[Category]bool
	logger  *logger.Logger
	config  config.ModerationConfig
}

// sentenceSplit separates sentences on terminal punctuation.
var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// New creates a new detector instance
func New(cfg config.ModerationConfig, log *logger.Logger) (*Detector, error) {
	detector := &Detector{
		enabled: make(map[Category]bool),
		logger:  log,
		config:  cfg,
	}

	if err := detector.configureDetectors(cfg.Detectors); err != nil {
		return nil, fmt.Errorf("failed to configure detectors: %w", err)
	}

	log.Info("Moderation detector initialized",
		zap.Int("total_categories", len(priorityOrder)),
		zap.Int("enabled_categories", detector.countEnabled()),
	)

	return detector, nil
}

// configureDetectors enables/disables categories based on configuration
func (d *Detector) configureDetectors(detectors []string) error {
	for _, cat := range priorityOrder {
		d.enabled[cat] = false
	}

	for _, name := range detectors {
		if name == "all" {
			for _, cat := range priorityOrder {
				d.enabled[cat] = true
			}
			continue
		}

		found := false
		for _, cat := range priorityOrder {
			if string(cat) == name {
				d.enabled[cat] = true
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("unknown detector: %s", name)
		}
	}

	return nil
}

// countEnabled returns the number of enabled categories
func (d *Detector) countEnabled() int {
	count := 0
	for _, enabled := range d.enabled {
		if enabled {
			count++
		}
	}
	return count
}

// EnabledCategories returns the enabled categories in priority order.
func (d *Detector) EnabledCategories() []Category {
	var out []Category
	for _, cat := range priorityOrder {
		if d.enabled[cat] {
			out = append(out, cat)
		}
	}
	return out
}

// Detect runs a full detection pass over the text. It never fails: any
// panicking sub-check is contained and its category simply yields nothing.
func (d *Detector) Detect(text string) Result {
	result := NewResult()
	if !d.config.Enabled || text == "" {
		return result
	}

	d.detectPolicyViolations(text, &result)
	d.detectSensitiveInfo(text, &result)

	if !result.Empty() {
		d.logger.Debug("Detection pass produced findings",
			zap.Bool("hate_speech", result.HateSpeech),
			zap.Bool("profanity", result.Profanity),
			zap.Int("flagged_words", len(result.FlaggedWords)),
			zap.Int("flagged_sentences", len(result.FlaggedSentences)),
			zap.Int("sensitive_categories", len(result.SensitiveInfo)),
		)
	}

	return result
}

// detectPolicyViolations splits the text into paragraphs and sentences and
// tests every sentence against the hate-speech and profanity templates.
func (d *Detector) detectPolicyViolations(text string, result *Result) {
	wordSeen := make(map[string]bool)
	sentenceSeen := make(map[string]bool)

	for _, paragraph := range strings.Split(text, "\n") {
		for _, sentence := range sentenceSplit.Split(paragraph, -1) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" {
				continue
			}

			flagged := false
			for _, re := range hateSpeechPatterns {
				tokens := re.FindAllString(sentence, -1)
				if len(tokens) == 0 {
					continue
				}
				result.HateSpeech = true
				flagged = true
				for _, tok := range tokens {
					if !wordSeen[tok] {
						wordSeen[tok] = true
						result.FlaggedWords = append(result.FlaggedWords, tok)
					}
				}
			}

			for _, re := range profanityPatterns {
				tokens := re.FindAllString(sentence, -1)
				if len(tokens) == 0 {
					continue
				}
				result.Profanity = true
				flagged = true
				for _, tok := range tokens {
					if !wordSeen[tok] {
						wordSeen[tok] = true
						result.FlaggedWords = append(result.FlaggedWords, tok)
					}
				}
			}

			if flagged && !sentenceSeen[sentence] {
				sentenceSeen[sentence] = true
				result.FlaggedSentences = append(result.FlaggedSentences, sentence)
			}
		}
	}
}

// detectSensitiveInfo iterates categories in priority order. A literal
// string claimed by a higher-priority category is never reconsidered, and a
// match overlapping an already-claimed region of the text is dropped, so no
// token is ever classified twice.
func (d *Detector) detectSensitiveInfo(text string, result *Result) {
	claimedText := make(map[string]bool)
	var claimedSpans [][2]int

	for _, cat := range priorityOrder {
		if !d.enabled[cat] {
			continue
		}
		d.runCategory(cat, text, result, claimedText, &claimedSpans)
	}
}

// runCategory matches one category's patterns and validates candidates.
// Panics from a misbehaving pattern or validator are contained so a single
// bad category cannot poison the whole pass.
func (d *Detector) runCategory(cat Category, text string, result *Result, claimedText map[string]bool, claimedSpans *[][2]int) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Category detection failed",
				zap.String("category", string(cat)),
				zap.Any("panic", r),
			)
		}
	}()

	for _, re := range PatternsFor(cat) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			match := strings.TrimSpace(text[loc[0]:loc[1]])
			if match == "" || claimedText[match] {
				continue
			}
			if overlapsClaimed(*claimedSpans, loc[0], loc[1]) {
				continue
			}
			if !Validate(cat, match, text) {
				continue
			}

			claimedText[match] = true
			*claimedSpans = append(*claimedSpans, [2]int{loc[0], loc[1]})
			result.SensitiveInfo[cat] = append(result.SensitiveInfo[cat], match)
		}
	}
}

// overlapsClaimed reports whether [start,end) intersects any claimed span.
func overlapsClaimed(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}
