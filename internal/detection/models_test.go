package detection

import (
	"testing"

	"github.com/richxcame/postguard/internal/posts"
	"github.com/stretchr/testify/assert"
)

func TestResolution_Validate(t *testing.T) {
	tests := []struct {
		status  posts.Status
		wantErr bool
	}{
		{posts.StatusSafe, false},
		{posts.StatusFraudDetected, false},
		{posts.StatusPending, true},
		{posts.StatusProcessing, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			err := Resolution{PostID: 1, Status: tt.status}.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotFinal)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
