package moderation

import "regexp"

// categoryPatterns maps every category to its ordered list of surface
// patterns. Patterns are tried in sequence and their matches unioned; a raw
// match still has to pass the category validator before it is accepted.
var categoryPatterns = map[Category][]*regexp.Regexp{
	CategoryEmails: {
		regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
	},
	CategoryPAN: {
		regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`),
	},
	CategoryIFSC: {
		regexp.MustCompile(`\b[A-Z]{4}0[A-Z0-9]{6}\b`),
	},
	CategorySWIFT: {
		regexp.MustCompile(`\b[A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?\b`),
	},
	CategoryPassports: {
		regexp.MustCompile(`\b[A-Z][0-9]{7}\b`),
	},
	CategoryCards: {
		// 13-16 digits in groups of four, with or without separators
		regexp.MustCompile(`\b\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{1,4}\b`),
		// Amex grouping 4-6-5
		regexp.MustCompile(`\b\d{4}[\s\-]?\d{6}[\s\-]?\d{5}\b`),
		// Unformatted runs up to 19 digits
		regexp.MustCompile(`\b\d{13,19}\b`),
	},
	CategorySSN: {
		regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		regexp.MustCompile(`\b\d{3}\s\d{2}\s\d{4}\b`),
		regexp.MustCompile(`\b\d{9}\b`),
	},
	CategoryGPS: {
		regexp.MustCompile(`[-+]?\d{1,3}\.\d{3,8},\s*[-+]?\d{1,3}\.\d{3,8}`),
	},
	CategoryPhones: {
		regexp.MustCompile(`\+91[\s\-]?[6-9]\d{9}\b`),
		regexp.MustCompile(`\+91[\s\-]?[6-9]\d{4}[\s\-]\d{5}\b`),
		regexp.MustCompile(`\b0?[6-9]\d{9}\b`),
		regexp.MustCompile(`\b[6-9]\d{4}[\s\-]\d{5}\b`),
	},
	CategoryNHS: {
		regexp.MustCompile(`\b\d{3}[\s\-]\d{3}[\s\-]\d{4}\b`),
		regexp.MustCompile(`\b\d{10}\b`),
	},
	CategoryAadhaar: {
		regexp.MustCompile(`\b\d{4}\s\d{4}\s\d{4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{4}-\d{4}\b`),
		regexp.MustCompile(`\b\d{12}\b`),
	},
	CategoryAccounts: {
		regexp.MustCompile(`\b\d{9,18}\b`),
	},
}

// PatternsFor returns the ordered pattern list for a category.
func PatternsFor(category Category) []*regexp.Regexp {
	return categoryPatterns[category]
}

// hateSpeechPatterns are sentence-level templates for violent, dehumanizing,
// or exclusionary phrasing. A sentence matching any of them is flagged.
var hateSpeechPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:should|must|deserve(?:s)?\s+to)\s+(?:all\s+)?(?:be\s+)?(?:killed|exterminated|eliminated|eradicated|wiped\s+out)\b`),
	regexp.MustCompile(`(?i)\ball\s+\w+\s+(?:should|must)\s+(?:be\s+)?(?:banned|deported|eliminated|removed|expelled)\b`),
	regexp.MustCompile(`(?i)\b(?:are|is)\s+(?:nothing\s+but\s+|just\s+|like\s+)?(?:animals|vermin|cockroaches|parasites|subhuman|scum)\b`),
	regexp.MustCompile(`(?i)\bi\s+hate\s+(?:all|every|those|these)\s+\w+`),
	regexp.MustCompile(`(?i)\bgo\s+back\s+to\s+(?:your|their)\s+country\b`),
	regexp.MustCompile(`(?i)\b(?:death|violence)\s+to\s+(?:all\s+)?\w+`),
	regexp.MustCompile(`(?i)\b(?:don'?t|do\s+not)\s+deserve\s+to\s+(?:live|exist)\b`),
}

// profanityPatterns cover common profanity along with obfuscated spellings
// that substitute digits or symbols for letters.
var profanityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bf[u*@#]+c?k\w*\b`),
	regexp.MustCompile(`(?i)\bsh[i1!*]+t\w*\b`),
	regexp.MustCompile(`(?i)\bb[i1!*]tch\w*`),
	regexp.MustCompile(`(?i)\ba[s$]{2}hole\w*`),
	regexp.MustCompile(`(?i)\bd[a@]mn\b`),
	regexp.MustCompile(`(?i)\bc[u*]nt\w*\b`),
	regexp.MustCompile(`(?i)\bd[i1!*]ck(?:head)?s?\b`),
	regexp.MustCompile(`(?i)\bp[i1!*]ss(?:ed|er)?\b`),
	regexp.MustCompile(`(?i)\bbastard\w*\b`),
	regexp.MustCompile(`(?i)\bwh[o0]re\w*\b`),
	regexp.MustCompile(`(?i)\bslut\w*\b`),
	regexp.MustCompile(`(?i)\bmoron(?:s|ic)?\b`),
}
