// Package sanitize cleans user-provided text before storage. Passport and
// address fields flow into CRM payloads verbatim, so markup is stripped here.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	tagRegex        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripHTML removes HTML tags and decodes common entities. Entity decoding
// happens between two strip passes to catch encoded tags.
func StripHTML(s string) string {
	result := tagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	return tagRegex.ReplaceAllString(result, "")
}

// Text prepares a free-text field (name, address) for storage: strips HTML
// and collapses runs of whitespace to a single space.
func Text(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(StripHTML(s), " "))
}

// TextPtr applies Text to optional fields, preserving nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}
