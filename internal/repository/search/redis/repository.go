package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/search"
)

type repo struct {
	rc *redis.Client
}

func NewRepo(rc *redis.Client) *repo {
	return &repo{rc: rc}
}

func (r repo) getPageKey(source search.Source, query, pageToken string) string {
	return "search:" + string(source) + ":" + strings.ToLower(strings.TrimSpace(query)) + ":page:" + pageToken
}

func (r repo) GetPage(ctx context.Context, source search.Source, query, pageToken string) (search.Page, error) {
	data, err := r.rc.Get(ctx, r.getPageKey(source, query, pageToken)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return search.Page{}, search.ErrCacheMiss
		}

		return search.Page{}, fmt.Errorf("failed to get page: %w", err)
	}

	var page search.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return search.Page{}, fmt.Errorf("failed to decode page: %w", err)
	}

	return page, nil
}

func (r repo) SetPage(ctx context.Context, source search.Source, query, pageToken string, page search.Page, ttl time.Duration) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}

	if err := r.rc.Set(ctx, r.getPageKey(source, query, pageToken), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set page: %w", err)
	}

	return nil
}
