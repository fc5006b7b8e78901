package service

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxUsernameLength bounds every generated username.
	MaxUsernameLength = 20
	fallbackUsername  = "user"
)

// UsernameGenerator derives login handles from a person's names.
type UsernameGenerator struct{}

// GenerateBase returns initial(first) + lastFirst + initial(lastSecond), lowercased,
// with diacritics stripped and everything outside [a-z0-9] removed.
func (UsernameGenerator) GenerateBase(first, lastFirst, lastSecond string) string {
	raw := strings.ToLower(initial(first) + lastFirst + initial(lastSecond))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, raw)
	if err != nil {
		folded = raw
	}

	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > MaxUsernameLength {
		s = s[:MaxUsernameLength]
	}
	if s == "" {
		s = fallbackUsername
	}
	return s
}

// EnsureUnique appends the smallest numeric suffix that makes base unique
// among existing, compared case-insensitively. The head of base is cut so the
// result never exceeds MaxUsernameLength.
func (UsernameGenerator) EnsureUnique(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		taken[strings.ToLower(u)] = struct{}{}
	}

	if len(base) > MaxUsernameLength {
		base = base[:MaxUsernameLength]
	}
	candidate := base
	for i := 1; ; i++ {
		if _, ok := taken[strings.ToLower(candidate)]; !ok {
			return candidate
		}
		suffix := strconv.Itoa(i)
		head := base
		if len(head)+len(suffix) > MaxUsernameLength {
			head = head[:max(1, MaxUsernameLength-len(suffix))]
		}
		candidate = head + suffix
	}
}

func initial(s string) string {
	s = strings.TrimSpace(s)
	for _, r := range s {
		return string(r)
	}
	return ""
}
