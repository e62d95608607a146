package escalation

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_NewAccount(t *testing.T) {
	tests := []struct {
		name       string
		isFraud    bool
		threshold  int
		wantCount  int
		wantStatus Status
	}{
		{"safe verdict", false, 2, 0, StatusSafe},
		{"fraud below threshold", true, 2, 1, StatusSafe},
		{"fraud with threshold one", true, 1, 1, StatusRed},
		{"fraud with threshold zero treated as one", true, 0, 1, StatusRed},
		{"safe verdict with threshold one", false, 1, 0, StatusSafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, changed := Apply("alice", nil, tt.isFraud, tt.threshold)
			assert.True(t, changed)
			assert.Equal(t, "alice", next.Username)
			assert.Equal(t, tt.wantCount, next.FraudCount)
			assert.Equal(t, tt.wantStatus, next.Status)
		})
	}
}

func TestApply_ExistingAccount(t *testing.T) {
	current := &Account{Username: "bob", Status: StatusSafe, FraudCount: 1}

	next, changed := Apply("bob", current, true, 2)
	assert.True(t, changed)
	assert.Equal(t, 2, next.FraudCount)
	assert.Equal(t, StatusRed, next.Status)
	assert.Equal(t, 1, current.FraudCount, "input must not be mutated")

	next, changed = Apply("bob", current, false, 2)
	assert.False(t, changed)
	assert.Equal(t, *current, next)
}

func TestApply_BobScenario(t *testing.T) {
	var acct *Account
	for i := 0; i < 2; i++ {
		next, _ := Apply("bob", acct, true, DefaultThreshold)
		acct = &next
	}

	assert.Equal(t, StatusRed, acct.Status)
	assert.Equal(t, 2, acct.FraudCount)
}

func TestApply_RedIsTerminal(t *testing.T) {
	acct := &Account{Username: "mallory", Status: StatusRed, FraudCount: 5}

	next, changed := Apply("mallory", acct, false, 10)
	assert.False(t, changed)
	assert.Equal(t, StatusRed, next.Status)

	next, _ = Apply("mallory", acct, true, 10)
	assert.Equal(t, StatusRed, next.Status, "a higher threshold never demotes")
	assert.Equal(t, 6, next.FraudCount)
}

func TestApply_RatchetProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	for trial := 0; trial < 200; trial++ {
		threshold := rng.IntN(4) + 1
		var acct *Account
		frauds := 0

		for step := 0; step < 20; step++ {
			isFraud := rng.IntN(2) == 0
			if isFraud {
				frauds++
			}
			next, _ := Apply("u", acct, isFraud, threshold)

			if acct != nil {
				assert.GreaterOrEqual(t, next.FraudCount, acct.FraudCount)
				if acct.Status == StatusRed {
					assert.Equal(t, StatusRed, next.Status)
				}
			}
			assert.Equal(t, frauds, next.FraudCount)
			assert.Equal(t, frauds >= threshold, next.Status == StatusRed)
			acct = &next
		}
	}
}

func TestEscalated(t *testing.T) {
	safe := &Account{Status: StatusSafe}
	red := &Account{Status: StatusRed}

	assert.True(t, Escalated(safe, Account{Status: StatusRed}))
	assert.True(t, Escalated(nil, Account{Status: StatusRed}))
	assert.False(t, Escalated(red, Account{Status: StatusRed}))
	assert.False(t, Escalated(safe, Account{Status: StatusSafe}))
	assert.False(t, Escalated(nil, Account{Status: StatusSafe}))
}
