package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(
	`^([A-Za-z0-9_+\-]([A-Za-z0-9_+\-.]*[A-Za-z0-9_+])?)@([A-Za-z0-9.\-]+\.[A-Za-z]{1,})`,
)

// Email is a normalized, validated address split into username and domain.
// Equality and storage always go through Email(), which lowercases both
// parts; Username/Domain preserve whatever case ParseEmail was given.
type Email struct {
	Username string
	Domain   string
}

// ParseEmail validates raw and splits it into username/domain. Matching is
// anchored at the start only, same as the pattern it is ported from; trailing
// garbage after a valid prefix is silently dropped by the regex, not rejected.
func ParseEmail(raw string) (Email, error) {
	m := emailPattern.FindStringSubmatch(raw)
	if m == nil {
		return Email{}, fmt.Errorf("invalid email format: %q", raw)
	}
	return Email{Username: m[1], Domain: m[3]}, nil
}

// Email renders the canonical, lowercased "user@domain" form.
func (e Email) Email() string {
	return strings.ToLower(e.Username) + "@" + strings.ToLower(e.Domain)
}

func (e Email) String() string { return e.Email() }

// RedactEmail returns a best-effort redacted form of raw: first char +
// "***" + last char of the username, then the domain. A single-character
// username duplicates its one char on both sides ("a***a@domain") — first
// and last are the same character.
func RedactEmail(raw string) string {
	e, err := ParseEmail(raw)
	if err != nil {
		return raw
	}
	username := strings.ToLower(e.Username)
	domain := strings.ToLower(e.Domain)

	runes := []rune(username)
	if len(runes) == 0 {
		return "***@" + domain
	}
	return string(runes[0]) + "***" + string(runes[len(runes)-1]) + "@" + domain
}
