package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mkbrechtel/patterns/internal/sidebar"
)

// ErrSidebarNotCached is returned by GetSidebar before any build saved one.
var ErrSidebarNotCached = errors.New("sidebar not cached")

// Store handles Redis operations for page views and the sidebar cache
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// IncrementViews bumps the view counter of a page and returns the new value
func (s *Store) IncrementViews(ctx context.Context, id string) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, ViewsKey(id))
	pipe.SAdd(ctx, KeyPages, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return incr.Val(), nil
}

// GetAllViews returns every stored counter keyed by page ID
func (s *Store) GetAllViews(ctx context.Context) (map[string]int64, error) {
	ids, err := s.client.SMembers(ctx, KeyPages).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get page IDs: %w", err)
	}

	views := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return views, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ViewsKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get views: %w", err)
	}

	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Skip counters that expired or were deleted
			continue
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			continue
		}
		views[ids[i]] = n
	}

	return views, nil
}

// DeleteViews removes the counter of a page
func (s *Store) DeleteViews(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, ViewsKey(id))
	pipe.SRem(ctx, KeyPages, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete views: %w", err)
	}
	return nil
}

// SaveSidebar stores the JSON of the last built sidebar
func (s *Store) SaveSidebar(ctx context.Context, entries []sidebar.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal sidebar: %w", err)
	}

	if err := s.client.Set(ctx, KeySidebar, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save sidebar: %w", err)
	}
	return nil
}

// GetSidebar returns the raw JSON of the cached sidebar
func (s *Store) GetSidebar(ctx context.Context) (json.RawMessage, error) {
	data, err := s.client.Get(ctx, KeySidebar).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSidebarNotCached
		}
		return nil, fmt.Errorf("failed to get sidebar: %w", err)
	}
	return json.RawMessage(data), nil
}
