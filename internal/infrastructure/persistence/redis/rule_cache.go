package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULE CACHE
// Read-through cache for scholarship rule sets. Rules change rarely and a
// slightly stale rule set only shifts when a new rule takes effect, so a
// short TTL is acceptable. The cache never serves the duplicate guard.
// ══════════════════════════════════════════════════════════════════════════════

// Key prefixes and TTLs.
const (
	ruleKeyPrefix = "scholarship:rules:"

	// DefaultRuleTTL bounds rule staleness.
	DefaultRuleTTL = 5 * time.Minute
)

// RuleSource is the authoritative rule store behind the cache.
type RuleSource interface {
	GetRules(ctx context.Context, scholarshipID string) ([]scholarship.Rule, error)
}

// RuleCache implements eligibility.RuleProvider with read-through caching.
type RuleCache struct {
	cache  *Cache
	source RuleSource
	ttl    time.Duration
	logger *slog.Logger
}

// NewRuleCache creates a read-through rule cache.
func NewRuleCache(cache *Cache, source RuleSource, ttl time.Duration, logger *slog.Logger) *RuleCache {
	if ttl <= 0 {
		ttl = DefaultRuleTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleCache{cache: cache, source: source, ttl: ttl, logger: logger}
}

// RulesFor returns the scholarship's rules, from cache when fresh. Cache
// failures degrade to a direct read; they are never surfaced.
func (c *RuleCache) RulesFor(ctx context.Context, scholarshipID string) ([]scholarship.Rule, error) {
	key := ruleKeyPrefix + scholarshipID

	var cached []scholarship.Rule
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("rule cache read failed, falling through",
			slog.String("scholarship_id", scholarshipID),
			slog.String("error", err.Error()))
	}

	rules, err := c.source.GetRules(ctx, scholarshipID)
	if err != nil {
		return nil, fmt.Errorf("rule cache: source read failed: %w", err)
	}

	if err := c.cache.Set(ctx, key, rules, c.ttl); err != nil {
		c.logger.Warn("rule cache write failed",
			slog.String("scholarship_id", scholarshipID),
			slog.String("error", err.Error()))
	}
	return rules, nil
}

// Invalidate drops the cached rule set after an admin edit.
func (c *RuleCache) Invalidate(ctx context.Context, scholarshipID string) error {
	return c.cache.Delete(ctx, ruleKeyPrefix+scholarshipID)
}
