package detection

import (
	"fmt"
	"strings"
)

// Reason tags written to post annotations
const (
	reasonRulesPrefix = "rules:"
	reasonUnsafeLink  = "unsafe_link"
)

// Signals are the independent detector outputs for one post
type Signals struct {
	Probability  float64
	RulesFlagged bool
	RuleReasons  []string
	UnsafeLink   bool
}

// Fuse combines signals: any positive signal makes the post fraud. Reasons are
// ordered classifier, rules, links and only name the signals that fired.
func Fuse(s Signals, threshold float64) (bool, []string) {
	reasons := make([]string, 0, 3)

	if s.Probability >= threshold {
		reasons = append(reasons, fmt.Sprintf("ml_prob=%.2f", s.Probability))
	}
	if s.RulesFlagged {
		reasons = append(reasons, reasonRulesPrefix+strings.Join(s.RuleReasons, ","))
	}
	if s.UnsafeLink {
		reasons = append(reasons, reasonUnsafeLink)
	}

	return len(reasons) > 0, reasons
}

// FormatReason joins fusion reasons into the post annotation
func FormatReason(reasons []string) string {
	return strings.Join(reasons, ";")
}
