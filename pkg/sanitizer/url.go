package sanitizer

import (
	"net/url"
	"strings"
)

// NormalizeMeetingURL lowercases the scheme and host and drops utm_ tracking
// parameters. Path and query values keep their case since meeting ids are
// case sensitive. A missing scheme becomes https.
func NormalizeMeetingURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	if !looksLikeURL(s) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimSpace(input)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if strings.HasPrefix(strings.ToLower(key), "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String()
}

func looksLikeURL(s string) bool {
	lowered := strings.ToLower(s)
	return strings.HasPrefix(lowered, "http://") || strings.HasPrefix(lowered, "https://")
}
