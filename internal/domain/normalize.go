package domain

import (
	"regexp"
	"strings"
)

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeMemberTypeName lowercases s and replaces spaces with hyphens.
func NormalizeMemberTypeName(s string) MemberTypeName {
	return MemberTypeName(strings.ReplaceAll(strings.ToLower(s), " ", "-"))
}

var (
	tagPattern     = regexp.MustCompile(`(?s)<[^>]*>`)
	octetPattern   = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	scriptPattern  = regexp.MustCompile(`(?is)<(script|style)[^>]*?>.*?</(script|style)>`)
	lineBreaksLike = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
)

// SanitizeTextField cleans a single-line text value the way the host does
// before storing submitted form input: markup and percent-encoded octets are
// removed, line breaks and tabs become spaces, whitespace runs collapse and
// the result is trimmed.
//
// The same transformation is applied to option names before comparing them
// with stored values, so matching uses the persisted form.
func SanitizeTextField(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, "")
	s = lineBreaksLike.Replace(s)
	for octetPattern.MatchString(s) {
		s = octetPattern.ReplaceAllString(s, "")
	}
	return NormalizeHumanName(s)
}

// StripSlashes removes one level of backslash escaping.
func StripSlashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if escaped {
			if r == '0' {
				b.WriteRune(0)
			} else {
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
