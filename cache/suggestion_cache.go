package cache

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	recentWindow = 30
	recentTTL    = 24 * time.Hour
)

// SuggestionCache keeps a short per-scope memory of recently returned provider
// suggestions so near-term repeats can be detected and downgraded.
type SuggestionCache struct {
	client *redis.Client
}

// NewSuggestionCache creates a suggestion cache. A nil client disables
// dedupe (every suggestion counts as fresh).
func NewSuggestionCache(client *redis.Client) *SuggestionCache {
	return &SuggestionCache{client: client}
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func normalizeSuggestion(text string) string {
	return whitespacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

func recentKey(scope string) string {
	return fmt.Sprintf("suggest:recent:%s", scope)
}

// Remember records the suggestion in the scope's recent window. It returns
// true when the suggestion was not seen recently (i.e. it is fresh).
func (c *SuggestionCache) Remember(ctx context.Context, scope, suggestion string) (bool, error) {
	norm := normalizeSuggestion(suggestion)
	if norm == "" {
		return false, nil
	}
	if c.client == nil {
		return true, nil
	}

	key := recentKey(scope)

	recent, err := c.client.LRange(ctx, key, 0, recentWindow-1).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("failed to read recent suggestions: %w", err)
	}
	for _, seen := range recent {
		if seen == norm {
			return false, nil
		}
	}

	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, norm)
	pipe.LTrim(ctx, key, 0, recentWindow-1)
	pipe.Expire(ctx, key, recentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record suggestion: %w", err)
	}

	return true, nil
}
