package helpers

import (
	"testing"

	"github.com/richxcame/postguard/internal/escalation"
	"github.com/richxcame/postguard/internal/posts"
	"github.com/stretchr/testify/assert"
)

// AssertPostResolved asserts that a post reached the expected terminal status
func AssertPostResolved(t *testing.T, post *posts.Post, status posts.Status, reason string) {
	t.Helper()
	assert.Equal(t, status, post.Status)
	assert.Equal(t, reason, post.Reason)
}

// AssertAccount asserts the escalation state of an account
func AssertAccount(t *testing.T, account *escalation.Account, status escalation.Status, fraudCount int) {
	t.Helper()
	assert.Equal(t, status, account.Status)
	assert.Equal(t, fraudCount, account.FraudCount)
}
