// Package textutil holds the tokenizing helpers shared by feature extraction,
// the rule engine and link checking, so that all three agree on what a link is.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// LowerAll trims and lowercases items, dropping blanks. It never returns nil.
func LowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Tokens splits text on runs of whitespace.
func Tokens(text string) []string {
	return strings.Fields(text)
}

// IsLinkToken reports whether a token looks like a link.
func IsLinkToken(token string) bool {
	return strings.HasPrefix(token, "http") || strings.HasPrefix(token, "www")
}

// LinkTokens returns the link-like tokens of text in order of appearance.
func LinkTokens(text string) []string {
	var links []string
	for _, tok := range Tokens(text) {
		if IsLinkToken(tok) {
			links = append(links, tok)
		}
	}
	return links
}

// CountPrefixed counts whitespace tokens starting with prefix.
func CountPrefixed(text, prefix string) int {
	n := 0
	for _, tok := range Tokens(text) {
		if strings.HasPrefix(tok, prefix) {
			n++
		}
	}
	return n
}

// ContainsAny reports whether any needle is a substring of haystack.
func ContainsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// CountContained counts the needles that occur in haystack. Each needle counts once.
func CountContained(haystack string, needles []string) int {
	n := 0
	for _, needle := range needles {
		if needle != "" && strings.Contains(haystack, needle) {
			n++
		}
	}
	return n
}

// IsUpper reports whether s has at least one cased letter and no lower-case ones.
func IsUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// RuneLen returns the number of characters in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
