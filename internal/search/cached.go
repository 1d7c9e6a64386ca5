package search

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

type iCache interface {
	GetPage(ctx context.Context, source Source, query, pageToken string) (Page, error)
	SetPage(ctx context.Context, source Source, query, pageToken string, page Page, ttl time.Duration) error
}

// CachedProvider serves repeated searches from cache. Cache failures are
// logged and fall through to the wrapped provider.
type CachedProvider struct {
	source   Source
	provider Provider
	cache    iCache
	ttl      time.Duration
	logger   *slog.Logger
}

func NewCachedProvider(source Source, provider Provider, cache iCache, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	return &CachedProvider{
		source:   source,
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func (c *CachedProvider) Search(ctx context.Context, query, pageToken string) (Page, error) {
	page, err := c.cache.GetPage(ctx, c.source, query, pageToken)
	if err == nil {
		c.logger.DebugContext(ctx, "search cache hit", "source", c.source, "query", query)
		return page, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.WarnContext(ctx, "failed to read search cache", "error", err)
	}

	page, err = c.provider.Search(ctx, query, pageToken)
	if err != nil {
		return Page{}, err
	}

	if err := c.cache.SetPage(ctx, c.source, query, pageToken, page, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "failed to write search cache", "error", err)
	}

	return page, nil
}
