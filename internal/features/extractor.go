package features

import (
	"context"
	"strings"

	"github.com/richxcame/postguard/pkg/logger"
	"github.com/richxcame/postguard/pkg/textutil"
	"go.uber.org/zap"
)

// FeatureVector is the classifier input derived from one post
type FeatureVector struct {
	AccountAgeDays  float64 `json:"account_age_days"`
	FollowerRatio   float64 `json:"follower_ratio"`
	NumLinks        int     `json:"num_links"`
	UsesShortener   int     `json:"uses_shortener"`
	UrgencyKeywords int     `json:"urgency_keywords"`
}

// NumFeatures is the length of FeatureVector.Values
const NumFeatures = 5

// Values returns the vector in classifier column order:
// account age, follower ratio, links, shortener, urgency.
func (v FeatureVector) Values() []float64 {
	return []float64{
		v.AccountAgeDays,
		v.FollowerRatio,
		float64(v.NumLinks),
		float64(v.UsesShortener),
		float64(v.UrgencyKeywords),
	}
}

// Extractor turns post text plus account metadata into a FeatureVector
type Extractor struct {
	keywords   []string
	shorteners []string
	metadata   AccountMetadataSource
	logger     *zap.Logger
}

// NewExtractor creates an extractor. Keywords and domains are matched case-insensitively.
// A nil metadata source falls back to zero-valued StaticMetadata.
func NewExtractor(keywords, shorteners []string, metadata AccountMetadataSource, log *zap.Logger) *Extractor {
	if metadata == nil {
		metadata = StaticMetadata{}
	}
	if log == nil {
		log = logger.Get()
	}
	return &Extractor{
		keywords:   textutil.LowerAll(keywords),
		shorteners: textutil.LowerAll(shorteners),
		metadata:   metadata,
		logger:     log,
	}
}

// Extract computes the full vector for a post by username
func (e *Extractor) Extract(ctx context.Context, username, text string) FeatureVector {
	v := e.TextFeatures(text)

	meta, err := e.metadata.Lookup(ctx, username)
	if err != nil {
		e.logger.Warn("account metadata lookup failed, using defaults",
			zap.String("username", username),
			zap.Error(err),
		)
		meta = e.metadata.Defaults()
	}
	v.AccountAgeDays = meta.AccountAgeDays
	v.FollowerRatio = meta.FollowerRatio

	return v
}

// TextFeatures computes the fields that depend on the text alone
func (e *Extractor) TextFeatures(text string) FeatureVector {
	lower := strings.ToLower(text)

	v := FeatureVector{
		NumLinks:        len(textutil.LinkTokens(text)),
		UrgencyKeywords: textutil.CountContained(lower, e.keywords),
	}
	if textutil.ContainsAny(lower, e.shorteners) {
		v.UsesShortener = 1
	}
	return v
}
