package db

import "strings"

// NormalizePhone reduces a phone number to a canonical digits-only local
// form so "+972-52-123-4567", "972521234567" and "0521234567" all compare
// equal. Unrecognized prefixes just pass through digit-stripped.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "972") && len(digits) > 9 {
		return "0" + digits[3:]
	}
	return digits
}
