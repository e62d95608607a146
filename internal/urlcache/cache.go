// Package urlcache remembers reputation verdicts for URLs so each URL is
// looked up externally at most once per freshness window.
package urlcache

import (
	"context"
	"strings"
	"time"

	"github.com/richxcame/postguard/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Entry is a cached reputation verdict
type Entry struct {
	URL       string    `json:"url"`
	IsSafe    bool      `json:"is_safe"`
	CheckedAt time.Time `json:"checked_at"`
}

// Store persists entries. Get reports found=false on a miss or a stale entry.
type Store interface {
	Get(ctx context.Context, url string) (entry Entry, found bool, err error)
	Put(ctx context.Context, entry Entry) error
}

// Checker asks an external service whether a URL is safe
type Checker interface {
	Check(ctx context.Context, url string) (bool, error)
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context, url string) (bool, error)

// Check implements Checker
func (f CheckerFunc) Check(ctx context.Context, url string) (bool, error) {
	return f(ctx, url)
}

// Options configures a Cache
type Options struct {
	// Enabled turns external checks on. When false every miss is safe and
	// nothing is written to the store.
	Enabled bool
	Logger  *zap.Logger
	Now     func() time.Time
}

// Cache answers IsSafe from the store first and falls back to the checker
type Cache struct {
	store   Store
	checker Checker
	enabled bool
	logger  *zap.Logger
	now     func() time.Time
	group   singleflight.Group
}

// NewCache creates a cache. A nil checker disables external checks.
func NewCache(store Store, checker Checker, opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = logger.Get()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		store:   store,
		checker: checker,
		enabled: opts.Enabled && checker != nil,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// Enabled reports whether misses trigger external checks
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Normalize turns a link token into a URL by giving bare www hosts a scheme
func Normalize(token string) string {
	if strings.HasPrefix(token, "www") {
		return "http://" + token
	}
	return token
}

// IsSafe reports whether rawURL is safe. It never fails: store problems are
// treated as misses and checker failures resolve to safe.
func (c *Cache) IsSafe(ctx context.Context, rawURL string) bool {
	entry, found, err := c.store.Get(ctx, rawURL)
	if err != nil {
		c.logger.Warn("url cache read failed", zap.String("url", rawURL), zap.Error(err))
	}
	if err == nil && found {
		lookupsTotal.WithLabelValues("hit").Inc()
		return entry.IsSafe
	}

	if !c.enabled {
		lookupsTotal.WithLabelValues("disabled").Inc()
		return true
	}
	lookupsTotal.WithLabelValues("miss").Inc()

	v, _, _ := c.group.Do(rawURL, func() (interface{}, error) {
		return c.resolve(ctx, rawURL), nil
	})
	return v.(bool)
}

func (c *Cache) resolve(ctx context.Context, rawURL string) bool {
	safe, err := c.checker.Check(ctx, rawURL)
	switch {
	case err != nil:
		checksTotal.WithLabelValues("error").Inc()
		c.logger.Warn("reputation check failed, treating url as safe",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		safe = true
	case safe:
		checksTotal.WithLabelValues("safe").Inc()
	default:
		checksTotal.WithLabelValues("unsafe").Inc()
	}

	entry := Entry{URL: rawURL, IsSafe: safe, CheckedAt: c.now().UTC()}
	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.Warn("url cache write failed", zap.String("url", rawURL), zap.Error(err))
	}
	return safe
}
