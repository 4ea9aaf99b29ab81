package moderation

// Match represents a single located pattern match during detection.
type Match struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Start    int      `json:"start"`
}

// Result is the outcome of one detection pass over a single text.
//
// Within SensitiveInfo no literal string ever appears under two different
// categories; priority ordering in the detector enforces that. Per-category
// lists are deduplicated and keep discovery order.
type Result struct {
	HateSpeech       bool                  `json:"hate_speech"`
	Profanity        bool                  `json:"profanity"`
	FlaggedWords     []string              `json:"flagged_words"`
	FlaggedSentences []string              `json:"flagged_sentences"`
	SensitiveInfo    map[Category][]string `json:"sensitive_info"`
}

// NewResult returns an empty detection result.
func NewResult() Result {
	return Result{
		FlaggedWords:     []string{},
		FlaggedSentences: []string{},
		SensitiveInfo:    make(map[Category][]string),
	}
}

// Empty reports whether the result contains no findings at all.
func (r *Result) Empty() bool {
	if r.HateSpeech || r.Profanity {
		return false
	}
	if len(r.FlaggedWords) > 0 || len(r.FlaggedSentences) > 0 {
		return false
	}
	for _, items := range r.SensitiveInfo {
		if len(items) > 0 {
			return false
		}
	}
	return true
}

// TotalFindings returns the number of individual findings in the result.
func (r *Result) TotalFindings() int {
	n := len(r.FlaggedWords) + len(r.FlaggedSentences)
	for _, items := range r.SensitiveInfo {
		n += len(items)
	}
	return n
}

// Reasons derives the human-readable reason list consumed by clients: every
// triggered category or flag, title-cased, with "detected" appended.
func (r *Result) Reasons() []string {
	reasons := []string{}
	if r.HateSpeech {
		reasons = append(reasons, "Hate Speech detected")
	}
	if r.Profanity {
		reasons = append(reasons, "Profanity detected")
	}
	for _, cat := range priorityOrder {
		if len(r.SensitiveInfo[cat]) > 0 {
			reasons = append(reasons, cat.Title()+" detected")
		}
	}
	return reasons
}

// Merge folds another result (typically from the remote classifier) into
// this one: booleans are OR-ed, flagged words/sentences and per-category
// sensitive info are unioned with duplicates dropped. A nil other is a no-op,
// so an absent classifier response leaves the regex result untouched.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}

	r.HateSpeech = r.HateSpeech || other.HateSpeech
	r.Profanity = r.Profanity || other.Profanity
	r.FlaggedWords = unionStrings(r.FlaggedWords, other.FlaggedWords)
	r.FlaggedSentences = unionStrings(r.FlaggedSentences, other.FlaggedSentences)

	if r.SensitiveInfo == nil {
		r.SensitiveInfo = make(map[Category][]string)
	}
	for cat, items := range other.SensitiveInfo {
		r.SensitiveInfo[cat] = unionStrings(r.SensitiveInfo[cat], items)
	}
}

// unionStrings appends items from b not already present in a, preserving order.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if s == "" || seen[s] {
			continue
		}
		a = append(a, s)
		seen[s] = true
	}
	return a
}
