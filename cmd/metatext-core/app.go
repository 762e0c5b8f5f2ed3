package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/metatext-core/internal/adapters/driven/ai"
	"github.com/custodia-labs/metatext-core/internal/adapters/driven/auth"
	"github.com/custodia-labs/metatext-core/internal/adapters/driven/filestore"
	"github.com/custodia-labs/metatext-core/internal/adapters/driven/httpimage"
	"github.com/custodia-labs/metatext-core/internal/adapters/driven/postgres"
	postgresqueue "github.com/custodia-labs/metatext-core/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/custodia-labs/metatext-core/internal/adapters/driven/queue/redis"
	redisadapter "github.com/custodia-labs/metatext-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/metatext-core/internal/config"
	"github.com/custodia-labs/metatext-core/internal/core/poller"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
	"github.com/custodia-labs/metatext-core/internal/metrics"
)

// backends holds the driven adapters shared by every command.
// Redis is optional; without it the PostgreSQL fallbacks are used.
type backends struct {
	cfg    *config.Config
	logger *slog.Logger

	db          *postgres.DB
	redisClient *redis.Client
	lock        *redisadapter.Lock

	users      driven.UserStore
	metatexts  driven.MetatextStore
	chunks     driven.ChunkStore
	images     driven.ImageStore
	viewStates driven.ViewStateStore
	navigation driven.NavigationStore
	queue      driven.TaskQueue
	files      driven.ImageFileStore
	authAdptr  driven.AuthAdapter
	metrics    *metrics.Metrics
}

func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{cfg: cfg, logger: logger, metrics: metrics.New()}

	logger.Info("connecting to postgres")
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	b.db = db

	if err := db.InitSchema(ctx); err != nil {
		b.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	b.users = postgres.NewUserStore(db)
	b.metatexts = postgres.NewMetatextStore(db)
	b.chunks = postgres.NewChunkStore(db)
	b.images = postgres.NewImageStore(db)
	b.authAdptr = auth.NewAdapter(cfg.Auth.JWTSecret)

	if cfg.Redis.URL != "" {
		logger.Info("connecting to redis")
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		b.redisClient = redis.NewClient(opts)
		if err := b.redisClient.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}

		hostname, _ := os.Hostname()
		queue, err := redisqueue.NewQueue(b.redisClient, fmt.Sprintf("%s-%d", hostname, os.Getpid()))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("create redis queue: %w", err)
		}
		b.queue = queue
		b.lock = redisadapter.NewLock(b.redisClient)
		b.viewStates = redisadapter.NewViewStateStore(b.redisClient, cfg.Redis.ViewStateTTL)
		b.navigation = redisadapter.NewNavigationStore(b.redisClient, 0)
		logger.Info("using redis for task queue and view state")
	} else {
		b.queue = postgresqueue.NewQueue(db.DB)
		b.viewStates = postgres.NewViewStateStore(db)
		b.navigation = postgres.NewNavigationStore(db)
		logger.Info("redis not configured, using postgres for task queue and view state")
	}

	files, err := filestore.NewOS(cfg.Images.Dir)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open image dir: %w", err)
	}
	b.files = files

	return b, nil
}

// lockOrNil returns the distributed lock as an interface value that is nil
// when Redis is not configured.
func (b *backends) lockOrNil() driven.DistributedLock {
	if b.lock == nil {
		return nil
	}
	return b.lock
}

func (b *backends) imageGenerator() (driven.ImageGenerator, error) {
	settings := ai.Settings{
		Provider: ai.Provider(b.cfg.AI.Provider),
		APIKey:   b.cfg.AI.APIKey,
		Model:    b.cfg.AI.Model,
		BaseURL:  b.cfg.AI.BaseURL,
	}
	if !settings.IsConfigured() {
		b.logger.Warn("image generation disabled, AI_API_KEY not set")
	}
	return ai.NewImageGenerator(settings)
}

func newPoller(cfg *config.Config, observer driven.PollObserver, logger *slog.Logger) *poller.Poller {
	return poller.New(poller.Config{
		Probe:    httpimage.New(cfg.Poller.AttemptTimeout),
		Timeout:  cfg.Poller.Timeout,
		Interval: cfg.Poller.Interval,
		Observer: observer,
		Logger:   logger,
	})
}

// Close releases connections in reverse order of opening
func (b *backends) Close() {
	if b.queue != nil {
		_ = b.queue.Close()
	}
	if b.redisClient != nil {
		_ = b.redisClient.Close()
	}
	if b.db != nil {
		_ = b.db.Close()
	}
}
