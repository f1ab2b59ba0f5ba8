package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mkbrechtel/patterns/internal/index"
	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/metrics"
	"github.com/mkbrechtel/patterns/internal/site"
	redisstore "github.com/mkbrechtel/patterns/internal/store/redis"
)

// ContentReloader rebuilds the site on a ticker and whenever the trigger
// channel fires (manual /reload or the content watcher).
type ContentReloader struct {
	builder  *site.Builder
	store    *redisstore.Store
	index    *index.SiteIndex
	metrics  *metrics.Metrics
	logger   logger.Logger
	interval time.Duration
	trigger  <-chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewContentReloader creates a reloader. store and m may be nil.
func NewContentReloader(
	builder *site.Builder,
	store *redisstore.Store,
	idx *index.SiteIndex,
	m *metrics.Metrics,
	log logger.Logger,
	interval time.Duration,
	trigger <-chan struct{},
) *ContentReloader {
	return &ContentReloader{
		builder:  builder,
		store:    store,
		index:    idx,
		metrics:  m,
		logger:   log,
		interval: interval,
		trigger:  trigger,
		stopCh:   make(chan struct{}),
	}
}

// Start builds once, then keeps rebuilding in the background. A failed
// first build is returned; later failures are logged and the previous
// snapshot stays in place.
func (cr *ContentReloader) Start(ctx context.Context) error {
	cr.done = make(chan struct{})
	if err := cr.Reload(ctx); err != nil {
		close(cr.done)
		return fmt.Errorf("initial build failed: %w", err)
	}

	ticker := time.NewTicker(cr.interval)
	go func() {
		defer close(cr.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cr.reloadAndLog(ctx, "scheduled")
			case <-cr.trigger:
				cr.reloadAndLog(ctx, "triggered")
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the background loop and waits for a running build to finish.
func (cr *ContentReloader) Stop() {
	cr.stopOnce.Do(func() { close(cr.stopCh) })
	if cr.done != nil {
		<-cr.done
	}
}

func (cr *ContentReloader) reloadAndLog(ctx context.Context, reason string) {
	cr.logger.Info("rebuilding site", logger.String("reason", reason))
	if err := cr.Reload(ctx); err != nil {
		cr.logger.Error("failed to rebuild site, keeping previous snapshot",
			logger.Error(err))
	}
}

// Reload runs one build and installs the result.
func (cr *ContentReloader) Reload(ctx context.Context) error {
	snap, err := cr.builder.Build(ctx)
	if err != nil {
		if cr.metrics != nil {
			cr.metrics.BuildsTotal.WithLabelValues("failure").Inc()
		}
		return err
	}

	cr.index.Update(snap)

	if cr.metrics != nil {
		cr.metrics.BuildsTotal.WithLabelValues("success").Inc()
		cr.metrics.BuildDurationSeconds.Observe(snap.Duration.Seconds())
		cr.metrics.Pages.Set(float64(len(snap.Pages)))
		cr.metrics.SidebarEntries.Set(float64(len(snap.Entries)))
		cr.metrics.LastBuildTimestamp.Set(float64(snap.BuiltAt.Unix()))
	}

	cr.logger.Info("site built",
		logger.Int("pages", len(snap.Pages)),
		logger.Int("sidebar_entries", len(snap.Entries)),
		logger.Duration("duration", snap.Duration))

	// Update Redis store (best effort)
	if cr.store != nil {
		if err := cr.store.SaveSidebar(ctx, snap.Entries); err != nil {
			cr.logger.Warn("failed to save sidebar to redis",
				logger.Error(err))
		}
	}

	return nil
}
