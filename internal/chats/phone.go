package chats

import "strings"

// canonicalDigits is how many trailing digits identify a contact. Country and
// area prefixes vary across the gateway's record sources, but the trailing
// local-subscriber digits are stable within one restaurant's customer base.
const canonicalDigits = 8

// CanonicalPhone reduces a phone-like identifier (bare number or JID of the
// form <digits>@<domain>) to its canonical contact key: everything from '@'
// is dropped, non-digits are stripped, and only the last 8 digits are kept
// when at least 8 remain.
func CanonicalPhone(phone string) string {
	if phone == "" {
		return ""
	}
	local, _, _ := strings.Cut(phone, "@")

	var b strings.Builder
	for _, r := range local {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) >= canonicalDigits {
		return digits[len(digits)-canonicalDigits:]
	}
	return digits
}
