package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/mkbrechtel/patterns/internal/index"
	"github.com/mkbrechtel/patterns/internal/logger"
	redisstore "github.com/mkbrechtel/patterns/internal/store/redis"
)

const (
	// DefaultOrphanThreshold is how long a counter may point at a missing
	// page before it is deleted
	DefaultOrphanThreshold = 30 * 24 * time.Hour // 30 days
)

// ViewCollector drops view counters of pages that left the site. A page
// has to be missing from every snapshot for the threshold before its
// counter goes, so a temporarily broken or renamed file keeps its history.
type ViewCollector struct {
	store     *redisstore.Store
	index     *index.SiteIndex
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time

	mu      sync.Mutex
	orphans map[string]time.Time // ID -> first seen without a page

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewViewCollector creates a new collector. store may be nil.
func NewViewCollector(
	store *redisstore.Store,
	idx *index.SiteIndex,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *ViewCollector {
	if threshold == 0 {
		threshold = DefaultOrphanThreshold
	}

	return &ViewCollector{
		store:     store,
		index:     idx,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		orphans:   make(map[string]time.Time),
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic collection
func (vc *ViewCollector) Start(ctx context.Context) {
	vc.done = make(chan struct{})

	ticker := time.NewTicker(vc.interval)
	go func() {
		defer close(vc.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := vc.Collect(ctx); err != nil {
					vc.logger.Error("view collection failed",
						logger.Error(err))
				}
			case <-vc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the collector
func (vc *ViewCollector) Stop() {
	vc.stopOnce.Do(func() { close(vc.stopCh) })
	if vc.done != nil {
		<-vc.done
	}
}

// Collect deletes counters whose page has been gone for the threshold.
// It does nothing until the first snapshot exists.
func (vc *ViewCollector) Collect(ctx context.Context) error {
	snap := vc.index.Snapshot()
	if snap == nil {
		return nil
	}

	ids := make(map[string]struct{})
	for _, id := range vc.index.ViewIDs() {
		ids[id] = struct{}{}
	}
	if vc.store != nil {
		stored, err := vc.store.GetAllViews(ctx)
		if err != nil {
			vc.logger.Warn("failed to list page views in redis",
				logger.Error(err))
		}
		for id := range stored {
			ids[id] = struct{}{}
		}
	}

	now := vc.now()
	deleted := 0

	vc.mu.Lock()
	defer vc.mu.Unlock()

	for id := range vc.orphans {
		if _, ok := snap.Pages[id]; ok {
			delete(vc.orphans, id)
		}
	}

	for id := range ids {
		if _, ok := snap.Pages[id]; ok {
			continue
		}

		since, seen := vc.orphans[id]
		if !seen {
			vc.orphans[id] = now
			continue
		}
		if now.Sub(since) < vc.threshold {
			continue
		}

		vc.index.DeleteViews(id)

		// Delete from Redis store (best effort)
		if vc.store != nil {
			if err := vc.store.DeleteViews(ctx, id); err != nil {
				vc.logger.Warn("failed to delete page views from redis",
					logger.String("page", id),
					logger.Error(err))
				continue
			}
		}

		delete(vc.orphans, id)
		vc.logger.Info("dropped view counter of removed page",
			logger.String("page", id),
			logger.Duration("missing_for", now.Sub(since)))
		deleted++
	}

	if deleted > 0 {
		vc.logger.Info("view collection completed",
			logger.Int("deleted", deleted))
	} else {
		vc.logger.Debug("no view counters to collect")
	}

	return nil
}
