package features

import "context"

// AccountMetadata is the per-account input to the classifier that cannot be
// derived from post text
type AccountMetadata struct {
	AccountAgeDays float64
	FollowerRatio  float64
}

// AccountMetadataSource supplies AccountMetadata for a username
type AccountMetadataSource interface {
	Lookup(ctx context.Context, username string) (AccountMetadata, error)
	Defaults() AccountMetadata
}

// StaticMetadata returns the same configured values for every account.
// It is used until a real account profile source is wired in.
type StaticMetadata struct {
	Values AccountMetadata
}

// NewStaticMetadata creates a StaticMetadata source
func NewStaticMetadata(accountAgeDays, followerRatio float64) StaticMetadata {
	return StaticMetadata{Values: AccountMetadata{AccountAgeDays: accountAgeDays, FollowerRatio: followerRatio}}
}

// Lookup implements AccountMetadataSource
func (s StaticMetadata) Lookup(ctx context.Context, username string) (AccountMetadata, error) {
	return s.Values, nil
}

// Defaults implements AccountMetadataSource
func (s StaticMetadata) Defaults() AccountMetadata {
	return s.Values
}
