package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/mkbrechtel/patterns/content"
	"github.com/mkbrechtel/patterns/internal/config"
	"github.com/mkbrechtel/patterns/internal/httpserver"
	"github.com/mkbrechtel/patterns/internal/httpserver/deps"
	"github.com/mkbrechtel/patterns/internal/index"
	"github.com/mkbrechtel/patterns/internal/logger"
	"github.com/mkbrechtel/patterns/internal/metrics"
	"github.com/mkbrechtel/patterns/internal/redis"
	"github.com/mkbrechtel/patterns/internal/scheduler"
	"github.com/mkbrechtel/patterns/internal/site"
	redisstore "github.com/mkbrechtel/patterns/internal/store/redis"
	"github.com/mkbrechtel/patterns/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	index       *index.SiteIndex
	reloader    *scheduler.ContentReloader
	watcher     *scheduler.Watcher
	collector   *scheduler.ViewCollector
}

// ContentFS returns the content tree: the directory named by
// PATTERNS_CONTENT_ROOT, or the embedded docs.
func ContentFS(cfg *config.Config) fs.FS {
	if cfg.ContentRoot != "" {
		return os.DirFS(cfg.ContentRoot)
	}
	return content.Files
}

// NewSiteBuilder wires the build pipeline for cfg.
func NewSiteBuilder(cfg *config.Config, log logger.Logger) *site.Builder {
	loader := site.NewLoader(cfg.SiteFile, cfg.SiteFileOptional())
	return site.NewBuilder(ContentFS(cfg), loader, cfg.IncludeDrafts, log)
}

// New wires every component. A configured Redis that cannot be reached is
// an error; an unset PATTERNS_REDIS_ADDR runs without persistence.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	m := metrics.New(version.Version, version.GoVersion)
	siteIndex := index.NewSiteIndex()

	var (
		redisClient *goredis.Client
		store       *redisstore.Store
	)
	if cfg.RedisEnabled() {
		client, err := redis.Connect(ctx, redis.OptionsFromConfig(cfg), loggerClient)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		redisClient = client
		store = redisstore.NewStore(client)

		syncer := scheduler.NewRedisSyncer(store, siteIndex, loggerClient)
		if err := syncer.Sync(ctx); err != nil {
			loggerClient.Warn("failed to sync page views from redis, starting from zero",
				logger.Error(err))
		}
	} else {
		loggerClient.Info("redis not configured, page views are kept in memory")
	}

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	loader := site.NewLoader(cfg.SiteFile, cfg.SiteFileOptional())
	builder := site.NewBuilder(ContentFS(cfg), loader, cfg.IncludeDrafts, loggerClient)

	reloader := scheduler.NewContentReloader(
		builder,
		store,
		siteIndex,
		m,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	var watcher *scheduler.Watcher
	if cfg.Watch {
		w, err := scheduler.NewWatcher(cfg.ContentRoot, loader.Path(), cfg.WatchDebounce, reloadTrigger, m, loggerClient)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return nil, err
		}
		watcher = w
	}

	collector := scheduler.NewViewCollector(
		store,
		siteIndex,
		loggerClient,
		cfg.ViewGCInterval,
		scheduler.DefaultOrphanThreshold,
	)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		ReloadBurst:   cfg.ReloadBurst,
		ReloadPerMin:  cfg.ReloadPerMin,
		Index:         siteIndex,
		ContentFS:     builder.FS(),
		Metrics:       m,
		RedisClient:   redisClient,
		Store:         store,
		ReloadTrigger: reloadTrigger,
		Watching:      watcher != nil,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		index:       siteIndex,
		reloader:    reloader,
		watcher:     watcher,
		collector:   collector,
	}, nil
}

// Run builds the site, starts the background jobs and serves until SIGINT
// or SIGTERM.
func (a *App) Run() error {
	a.logger.Infof("🚀 Starting patterns %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.closeRedis()

	// The first build must succeed, there is nothing to serve otherwise
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start content reloader: %w", err)
	}
	a.logger.Info("content reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.reloader.Stop()
			return fmt.Errorf("failed to start content watcher: %w", err)
		}
	}

	a.collector.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		if a.watcher != nil {
			if err := a.watcher.Stop(); err != nil {
				a.logger.Warn("failed to stop content watcher", logger.Error(err))
			}
		}
		a.reloader.Stop()
		a.collector.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.logger.Info("✅ patterns stopped cleanly")
	return nil
}

func (a *App) closeRedis() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}
}
