package posts

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a post
type Status string

// Post statuses. Safe and FraudDetected are terminal; Processing marks a post
// claimed by a detection pass.
const (
	StatusPending       Status = "Pending"
	StatusProcessing    Status = "Processing"
	StatusSafe          Status = "Safe"
	StatusFraudDetected Status = "FraudDetected"
)

// Terminal reports whether the status is a final verdict
func (s Status) Terminal() bool {
	return s == StatusSafe || s == StatusFraudDetected
}

// ErrNotFound is returned by the repository when a row does not exist
var ErrNotFound = errors.New("not found")

// Post is a user submission awaiting or holding a verdict
type Post struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
}

// Stats summarizes post verdicts for the dashboard
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Safe       int64 `json:"safe"`
	Fraud      int64 `json:"fraud"`
	RedUsers   int64 `json:"red_users"`
}

// SubmitPostRequest is the body of POST /api/v1/posts
type SubmitPostRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Text     string `json:"text" validate:"required,max=10000"`
}
