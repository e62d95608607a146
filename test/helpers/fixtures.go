package helpers

import "github.com/richxcame/postguard/internal/posts"

// Post texts exercising each detection signal
const (
	PhishingText  = "Win a FREE prize, click http://bit.ly/x now!!"
	CleanText     = "Good morning everyone"
	KeywordText   = "please verify your password"
	ShoutingText  = "this is AMAZING news"
	ManyLinksText = "http://a.test http://b.test http://c.test"
)

// CreateTestSubmission returns a submission request for username with text
func CreateTestSubmission(username, text string) posts.SubmitPostRequest {
	return posts.SubmitPostRequest{Username: username, Text: text}
}
