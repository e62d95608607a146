// Package reputation queries the Google Safe Browsing v4 lookup API.
package reputation

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/richxcame/postguard/pkg/httpclient"
	"github.com/richxcame/postguard/pkg/resilience"
)

const (
	findPath = "/v4/threatMatches:find"

	// DefaultClientID identifies this service to the reputation API
	DefaultClientID      = "postguard"
	DefaultClientVersion = "1.0"
)

// Threat categories checked for every URL
var (
	ThreatTypes     = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"}
	PlatformTypes   = []string{"ANY_PLATFORM"}
	ThreatEntryType = []string{"URL"}
)

// ErrMissingAPIKey is returned when the client was built without credentials
var ErrMissingAPIKey = errors.New("reputation: api key not configured")

type findRequest struct {
	Client     clientInfo `json:"client"`
	ThreatInfo threatInfo `json:"threatInfo"`
}

type clientInfo struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type threatInfo struct {
	ThreatTypes      []string      `json:"threatTypes"`
	PlatformTypes    []string      `json:"platformTypes"`
	ThreatEntryTypes []string      `json:"threatEntryTypes"`
	ThreatEntries    []threatEntry `json:"threatEntries"`
}

type threatEntry struct {
	URL string `json:"url"`
}

type findResponse struct {
	Matches []Match `json:"matches"`
}

// Match is one threat match reported by the API
type Match struct {
	ThreatType   string      `json:"threatType"`
	PlatformType string      `json:"platformType"`
	Threat       threatEntry `json:"threat"`
}

// Options configures a SafeBrowsingClient
type Options struct {
	BaseURL       string
	APIKey        string
	ClientID      string
	ClientVersion string
	Timeout       time.Duration
	Breaker       *resilience.CircuitBreaker
}

// SafeBrowsingClient checks URLs against the Safe Browsing threat lists
type SafeBrowsingClient struct {
	http          *httpclient.Client
	apiKey        string
	clientID      string
	clientVersion string
	timeout       time.Duration
	breaker       *resilience.CircuitBreaker
}

// NewSafeBrowsingClient creates a client. Every call is bounded by opts.Timeout.
func NewSafeBrowsingClient(opts Options) *SafeBrowsingClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 6 * time.Second
	}
	if opts.ClientID == "" {
		opts.ClientID = DefaultClientID
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = DefaultClientVersion
	}

	return &SafeBrowsingClient{
		http:          httpclient.NewClient(opts.BaseURL, opts.Timeout),
		apiKey:        opts.APIKey,
		clientID:      opts.ClientID,
		clientVersion: opts.ClientVersion,
		timeout:       opts.Timeout,
		breaker:       opts.Breaker,
	}
}

// Check reports whether rawURL is free of known threats. Any failure to get
// an answer is returned as an error; deciding what that means is up to the caller.
func (c *SafeBrowsingClient) Check(ctx context.Context, rawURL string) (bool, error) {
	if c.apiKey == "" {
		return true, ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.breaker == nil {
		return c.lookup(ctx, rawURL)
	}

	result, err := c.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return c.lookup(ctx, rawURL)
	})
	if err != nil {
		return true, err
	}
	return result.(bool), nil
}

func (c *SafeBrowsingClient) lookup(ctx context.Context, rawURL string) (bool, error) {
	req := findRequest{
		Client: clientInfo{ClientID: c.clientID, ClientVersion: c.clientVersion},
		ThreatInfo: threatInfo{
			ThreatTypes:      ThreatTypes,
			PlatformTypes:    PlatformTypes,
			ThreatEntryTypes: ThreatEntryType,
			ThreatEntries:    []threatEntry{{URL: rawURL}},
		},
	}

	var resp findResponse
	path := findPath + "?key=" + url.QueryEscape(c.apiKey)
	if err := c.http.PostJSON(ctx, path, req, &resp, nil); err != nil {
		return true, err
	}

	return len(resp.Matches) == 0, nil
}
