package scheduler

import (
	"context"

	"github.com/mkbrechtel/patterns/internal/index"
	"github.com/mkbrechtel/patterns/internal/logger"
	redisstore "github.com/mkbrechtel/patterns/internal/store/redis"
)

// RedisSyncer restores page view counters from Redis on startup
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.SiteIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store *redisstore.Store,
	idx *index.SiteIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads view counters from Redis into the index
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	views, err := rs.store.GetAllViews(ctx)
	if err != nil {
		return err
	}

	if len(views) == 0 {
		rs.logger.Info("no page views found in redis")
		return nil
	}

	rs.index.MergeViews(views)

	rs.logger.Info("synced page views from redis",
		logger.Int("pages", len(views)))

	return nil
}
