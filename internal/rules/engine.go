package rules

import (
	"strings"

	"github.com/richxcame/postguard/pkg/textutil"
)

// Rule tags, reported in this order
const (
	ReasonKeyword   = "keyword"
	ReasonShortener = "shortener"
	ReasonManyLinks = "many_links"
	ReasonAllCaps   = "all_caps"
)

const (
	// a post with more than this many http links is flagged
	maxLinks = 2
	// shouting tokens must be longer than this
	minShoutLength = 4
)

// Engine flags posts by keyword and pattern rules. It is safe for concurrent use.
type Engine struct {
	keywords   []string
	shorteners []string
}

// NewEngine creates a rule engine. Keywords and domains are matched
// case-insensitively; an empty list disables the corresponding rule.
func NewEngine(keywords, shorteners []string) *Engine {
	return &Engine{
		keywords:   textutil.LowerAll(keywords),
		shorteners: textutil.LowerAll(shorteners),
	}
}

// Evaluate applies every rule to text and returns the tags that matched
func (e *Engine) Evaluate(text string) (bool, []string) {
	lower := strings.ToLower(text)
	reasons := make([]string, 0, 4)

	if textutil.ContainsAny(lower, e.keywords) {
		reasons = append(reasons, ReasonKeyword)
	}
	if textutil.ContainsAny(lower, e.shorteners) {
		reasons = append(reasons, ReasonShortener)
	}
	if textutil.CountPrefixed(text, "http") > maxLinks {
		reasons = append(reasons, ReasonManyLinks)
	}
	if hasShoutingToken(text) {
		reasons = append(reasons, ReasonAllCaps)
	}

	return len(reasons) > 0, reasons
}

func hasShoutingToken(text string) bool {
	for _, tok := range textutil.Tokens(text) {
		if textutil.RuneLen(tok) > minShoutLength && textutil.IsUpper(tok) {
			return true
		}
	}
	return false
}
