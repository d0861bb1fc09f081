package cache

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sjsage522/shiftcodeworker/logger"
	perrors "sjsage522/shiftcodeworker/pkg/errors"
)

const blockKeyPrefix = "shiftcodes:blocked:"

// BlockGuard remembers that a site rate limited us, so later runs leave it
// alone until the block expires.
type BlockGuard struct {
	cache     CacheService
	blockTime time.Duration
	log       *logger.Logger
}

// NewBlockGuard creates a guard storing blocks in cache for blockTime
func NewBlockGuard(cache CacheService, blockTime time.Duration) *BlockGuard {
	return &BlockGuard{
		cache:     cache,
		blockTime: blockTime,
		log:       logger.ForCache(),
	}
}

// BlockKey returns the cache key for the host of rawURL
func BlockKey(rawURL string) string {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return blockKeyPrefix + strings.ToLower(host)
}

// Check returns a rate limit error while rawURL's host is blocked.
// Cache failures are logged and never block a run.
func (g *BlockGuard) Check(rawURL string) error {
	key := BlockKey(rawURL)
	value, err := g.cache.Get(key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			g.log.Warn().Err(perrors.NewCache(key, "failed to read block", err)).Msg("Ignoring cache failure")
		}
		return nil
	}

	seconds, _ := strconv.Atoi(string(value))
	return perrors.New(perrors.ErrorTypeRateLimit, rawURL,
		"blocked after an earlier rate limit; requests paused for "+(time.Duration(seconds)*time.Second).String(), nil)
}

// Block pauses requests to rawURL's host for the configured block time
func (g *BlockGuard) Block(rawURL string) error {
	key := BlockKey(rawURL)
	value := strconv.Itoa(int(g.blockTime / time.Second))
	if err := g.cache.Set(key, []byte(value), g.blockTime); err != nil {
		return perrors.NewCache(key, "failed to store block", err)
	}
	g.log.Warn().Str("key", key).Dur("block_time", g.blockTime).Msg("Blocked source after rate limit")
	return nil
}
