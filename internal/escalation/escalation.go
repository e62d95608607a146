// Package escalation implements the account status ratchet: accounts move from
// Safe to Red once their fraud count reaches a threshold and never move back.
package escalation

import "time"

// Status is an account status
type Status string

// Account statuses
const (
	StatusSafe Status = "Safe"
	StatusRed  Status = "Red"
)

// DefaultThreshold is the number of fraud verdicts that turns an account Red
const DefaultThreshold = 2

// Account is the escalation state of one user
type Account struct {
	Username   string    `json:"username"`
	Status     Status    `json:"status"`
	FraudCount int       `json:"fraud_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewAccount returns the default state for a user seen for the first time
func NewAccount(username string) Account {
	return Account{Username: username, Status: StatusSafe}
}

// Apply computes the account state after one verdict. current is nil when the
// account does not exist yet. changed reports whether next must be written.
func Apply(username string, current *Account, isFraud bool, threshold int) (next Account, changed bool) {
	if threshold < 1 {
		threshold = 1
	}

	if current == nil {
		next = NewAccount(username)
		if isFraud {
			next.FraudCount = 1
			if threshold <= 1 {
				next.Status = StatusRed
			}
		}
		return next, true
	}

	next = *current
	if !isFraud {
		return next, false
	}

	next.FraudCount++
	if next.FraudCount >= threshold {
		next.Status = StatusRed
	}
	return next, true
}

// Escalated reports whether a transition moved an account from Safe to Red.
// prev is nil for a newly created account.
func Escalated(prev *Account, next Account) bool {
	if next.Status != StatusRed {
		return false
	}
	return prev == nil || prev.Status != StatusRed
}
