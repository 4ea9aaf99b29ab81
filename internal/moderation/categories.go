package moderation

import "strings"

// Category identifies one kind of sensitive information.
type Category string

const (
	CategoryEmails    Category = "emails"
	CategoryPAN       Category = "pan_numbers"
	CategoryIFSC      Category = "ifsc_codes"
	CategorySWIFT     Category = "swift_codes"
	CategoryPassports Category = "passport_numbers"
	CategoryCards     Category = "credit_cards"
	CategorySSN       Category = "ssn_numbers"
	CategoryGPS       Category = "gps_coordinates"
	CategoryPhones    Category = "phone_numbers"
	CategoryNHS       Category = "nhs_numbers"
	CategoryAadhaar   Category = "aadhaar_numbers"
	CategoryAccounts  Category = "account_numbers"
)

// priorityOrder lists categories from most to least specific grammar.
// Categories with unambiguous formats claim their matches first so that
// generic numeric categories cannot steal them: a PAN or IFSC code is never
// mistaken for an account number, and a credit card never for an Aadhaar.
var priorityOrder = []Category{
	CategoryEmails,
	CategoryPAN,
	CategoryIFSC,
	CategorySWIFT,
	CategoryPassports,
	CategoryCards,
	CategorySSN,
	CategoryGPS,
	CategoryPhones,
	CategoryNHS,
	CategoryAadhaar,
	CategoryAccounts,
}

// Categories returns all sensitive-info categories in detection priority order.
func Categories() []Category {
	out := make([]Category, len(priorityOrder))
	copy(out, priorityOrder)
	return out
}

// Marker returns the upper-cased form used in redaction and encryption
// placeholders, e.g. "CREDIT_CARDS".
func (c Category) Marker() string {
	return strings.ToUpper(string(c))
}

// Title returns the human-readable form of the category name,
// e.g. "Phone Numbers".
func (c Category) Title() string {
	return titleCase(string(c))
}

// titleCase converts a snake_case name to space-separated title case.
func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
