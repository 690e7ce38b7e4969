package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var (
	supportedRegions = []string{
		"US",
		"GB",
		"IL",
	}

	rePhoneLike = regexp.MustCompile(`^\+?[0-9()\-.\s]{7,20}$`)
)

// NormalizePhone formats a phone number as E.164. It returns "" when the
// number cannot be parsed for any supported region.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}

func looksLikePhone(s string) bool {
	return rePhoneLike.MatchString(s)
}
