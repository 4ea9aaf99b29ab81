package moderation

import (
	"strings"
)

// Validate confirms that a raw pattern match is a genuine instance of its
// category. context is the full text surrounding the match; a few categories
// require contextual keywords to disambiguate from look-alike formats.
func Validate(category Category, match, context string) bool {
	switch category {
	case CategoryEmails:
		return validEmail(match)
	case CategoryPAN:
		return validPAN(match)
	case CategoryIFSC:
		return validIFSC(match)
	case CategorySWIFT:
		return validSWIFT(match)
	case CategoryCards:
		return validCard(match)
	case CategorySSN:
		return validSSN(match)
	case CategoryPhones:
		return validPhone(match)
	case CategoryNHS:
		return validNHS(match, context)
	case CategoryAadhaar:
		return validAadhaar(match)
	case CategoryAccounts:
		return validAccount(match, context)
	case CategoryPassports, CategoryGPS:
		// Structural pattern only, no additional validation
		return true
	default:
		return false
	}
}

// digitsOf strips everything but ASCII digits.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validEmail re-checks that the domain part contains a dot.
func validEmail(match string) bool {
	at := strings.LastIndex(match, "@")
	if at <= 0 || at == len(match)-1 {
		return false
	}
	domain := match[at+1:]
	return strings.Contains(domain, ".")
}

// validPhone strips separators and an optional country code or trunk zero,
// then requires exactly 10 digits with a leading 6-9.
func validPhone(match string) bool {
	digits := digitsOf(match)
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	} else if len(digits) == 11 && strings.HasPrefix(digits, "0") {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return false
	}
	return digits[0] >= '6' && digits[0] <= '9'
}

// validAadhaar requires exactly 12 digits. The Verhoeff checksum used by
// real Aadhaar numbers is intentionally not implemented; length is the only
// check, matching the behavior the extension relies on.
func validAadhaar(match string) bool {
	return len(digitsOf(match)) == 12
}

// panStatusCodes is the set of allowed holder-status characters in the
// fourth position of a PAN.
const panStatusCodes = "PCHABGJLFT"

// validPAN re-checks the fixed 5-letter/4-digit/1-letter grammar and the
// status code in the fourth position.
func validPAN(match string) bool {
	if len(match) != 10 {
		return false
	}
	for i := 0; i < 5; i++ {
		if match[i] < 'A' || match[i] > 'Z' {
			return false
		}
	}
	for i := 5; i < 9; i++ {
		if match[i] < '0' || match[i] > '9' {
			return false
		}
	}
	if match[9] < 'A' || match[9] > 'Z' {
		return false
	}
	return strings.ContainsRune(panStatusCodes, rune(match[3]))
}

// accountContextKeywords must appear near a digit run for it to count as a
// bank account number; the bare pattern is far too generic on its own.
var accountContextKeywords = []string{"account", "a/c", "acct", "bank", "acc no"}

// validAccount requires 9-18 digits and a banking keyword in the
// surrounding text.
func validAccount(match, context string) bool {
	n := len(digitsOf(match))
	if n < 9 || n > 18 {
		return false
	}
	lower := strings.ToLower(context)
	for _, kw := range accountContextKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// validIFSC checks the 4-letter bank code, the fixed '0', and 6 trailing
// alphanumerics.
func validIFSC(match string) bool {
	if len(match) != 11 {
		return false
	}
	for i := 0; i < 4; i++ {
		if match[i] < 'A' || match[i] > 'Z' {
			return false
		}
	}
	if match[4] != '0' {
		return false
	}
	for i := 5; i < 11; i++ {
		if !isUpperAlnum(match[i]) {
			return false
		}
	}
	return true
}

// validSWIFT checks the 8 or 11 character BIC grammar: 6 letters followed by
// 2 alphanumerics, with an optional 3-alphanumeric branch code.
func validSWIFT(match string) bool {
	if len(match) != 8 && len(match) != 11 {
		return false
	}
	for i := 0; i < 6; i++ {
		if match[i] < 'A' || match[i] > 'Z' {
			return false
		}
	}
	for i := 6; i < len(match); i++ {
		if !isUpperAlnum(match[i]) {
			return false
		}
	}
	return true
}

func isUpperAlnum(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// cardPrefixes maps issuer prefixes to network names. Checked longest
// prefix first.
var cardPrefixes = []struct {
	prefix string
	issuer string
}{
	{"34", "amex"}, {"37", "amex"},
	{"6011", "discover"}, {"644", "discover"}, {"645", "discover"},
	{"646", "discover"}, {"647", "discover"}, {"648", "discover"},
	{"649", "discover"}, {"65", "discover"},
	{"5018", "maestro"}, {"5020", "maestro"}, {"5038", "maestro"},
	{"56", "maestro"}, {"57", "maestro"}, {"58", "maestro"},
	{"6304", "maestro"}, {"6759", "maestro"}, {"676", "maestro"},
	{"51", "mastercard"}, {"52", "mastercard"}, {"53", "mastercard"},
	{"54", "mastercard"}, {"55", "mastercard"},
	{"2221", "mastercard"}, {"2222", "mastercard"}, {"223", "mastercard"},
	{"224", "mastercard"}, {"225", "mastercard"}, {"226", "mastercard"},
	{"227", "mastercard"}, {"228", "mastercard"}, {"229", "mastercard"},
	{"23", "mastercard"}, {"24", "mastercard"}, {"25", "mastercard"},
	{"26", "mastercard"}, {"270", "mastercard"}, {"271", "mastercard"},
	{"2720", "mastercard"},
	{"3528", "jcb"}, {"3529", "jcb"}, {"353", "jcb"}, {"354", "jcb"},
	{"355", "jcb"}, {"356", "jcb"}, {"357", "jcb"}, {"358", "jcb"},
	{"300", "diners"}, {"301", "diners"}, {"302", "diners"},
	{"303", "diners"}, {"304", "diners"}, {"305", "diners"},
	{"36", "diners"}, {"38", "diners"},
	{"4", "visa"},
}

// issuerFor returns the card network for a digit string, or "" when the
// prefix matches no known issuer.
func issuerFor(digits string) string {
	for _, p := range cardPrefixes {
		if strings.HasPrefix(digits, p.prefix) {
			return p.issuer
		}
	}
	return ""
}

// validCard strips separators, requires 13-19 digits, rejects strings that
// are really Aadhaar numbers, checks the issuer prefix table, and applies
// the Luhn checksum.
func validCard(match string) bool {
	digits := digitsOf(match)
	// A 12-digit run that validates as an Aadhaar number is never a card
	if len(digits) == 12 && validAadhaar(digits) {
		return false
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	if issuerFor(digits) == "" {
		return false
	}
	return luhnValid(digits)
}

// luhnValid applies the Luhn checksum: double every second digit from the
// right, subtract 9 when the result exceeds 9, and require the total sum to
// be divisible by 10.
func luhnValid(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// validSSN rejects the never-issued group patterns: 000/666/9xx in the area,
// 00 in the group, 0000 in the serial.
func validSSN(match string) bool {
	digits := digitsOf(match)
	if len(digits) != 9 {
		return false
	}
	area, group, serial := digits[0:3], digits[3:5], digits[5:9]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" {
		return false
	}
	return serial != "0000"
}

// nhsContextKeywords confirm a 10-digit run that could also be a phone
// number really is a health-service number.
var nhsContextKeywords = []string{"nhs", "health", "medical", "patient", "hospital", "clinic"}

// validNHS applies the NHS modulus-11 checksum: digits 1-9 weighted 10 down
// to 2, check digit = (11 - sum mod 11) mod 11, which must equal the tenth
// digit. A leading 6-9 looks like a phone number and is rejected unless the
// surrounding text carries a health-service keyword.
func validNHS(match, context string) bool {
	digits := digitsOf(match)
	if len(digits) != 10 {
		return false
	}

	if digits[0] >= '6' && digits[0] <= '9' {
		lower := strings.ToLower(context)
		confirmed := false
		for _, kw := range nhsContextKeywords {
			if strings.Contains(lower, kw) {
				confirmed = true
				break
			}
		}
		if !confirmed {
			return false
		}
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(digits[i]-'0') * (10 - i)
	}
	check := (11 - sum%11) % 11
	// check == 10 is not representable as a single digit; such numbers are
	// never issued
	if check == 10 {
		return false
	}
	return check == int(digits[9]-'0')
}
