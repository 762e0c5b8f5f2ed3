package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/swaggo/swag"
	"golang.org/x/sync/errgroup"

	httpserver "github.com/custodia-labs/metatext-core/internal/adapters/driving/http"
	"github.com/custodia-labs/metatext-core/internal/core/services"
	"github.com/custodia-labs/metatext-core/internal/docs"
	"github.com/custodia-labs/metatext-core/internal/worker"
)

const (
	modeAPI    = "api"
	modeWorker = "worker"
	modeAll    = "all"
)

func newServeCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "serve [api|worker|all]",
		Short:     "Run the HTTP API, the image worker, or both",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{modeAPI, modeWorker, modeAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := modeAll
			if len(args) == 1 {
				mode = args[0]
			}

			cfg, logger, err := cc.ensureConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			logger.Info("starting metatext-core", "version", version, "mode", mode)

			g, gctx := errgroup.WithContext(ctx)
			if mode == modeAPI || mode == modeAll {
				server, closeServices, err := buildServer(b)
				if err != nil {
					return err
				}
				defer closeServices()
				g.Go(func() error { return server.Start(gctx) })
			}
			if mode == modeWorker || mode == modeAll {
				g.Go(func() error { return runWorker(gctx, b) })
			}

			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info("metatext-core stopped")
			return nil
		},
	}
}

// buildServer wires the services behind the HTTP API. The returned func
// stops background work owned by the services.
func buildServer(b *backends) (*httpserver.Server, func(), error) {
	cfg := b.cfg

	generator, err := b.imageGenerator()
	if err != nil {
		return nil, nil, fmt.Errorf("create image generator: %w", err)
	}

	authService := services.NewAuthService(b.users, b.authAdptr, cfg.Auth.TokenTTL)
	userService := services.NewUserService(b.users, b.authAdptr)
	metatextService := services.NewMetatextService(b.metatexts, b.chunks)

	viewService, err := services.NewChunkViewService(services.ChunkViewConfig{
		MetatextStore:   b.metatexts,
		ChunkStore:      b.chunks,
		ViewStateStore:  b.viewStates,
		NavigationStore: b.navigation,
		MinQueryLength:  cfg.Pipeline.MinQueryLength,
		Debounce:        cfg.Pipeline.Debounce,
		ChunksPerPage:   cfg.Pipeline.ChunksPerPage,
		SearchCacheSize: cfg.Pipeline.SearchCacheSize,
		MaxViews:        cfg.Pipeline.MaxViews,
		Logger:          b.logger.With("component", "views"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create view service: %w", err)
	}

	imageService, err := services.NewImageService(services.ImageServiceConfig{
		MetatextStore: b.metatexts,
		ChunkStore:    b.chunks,
		ImageStore:    b.images,
		Generator:     generator,
		TaskQueue:     b.queue,
		Poller:        newPoller(cfg, b.metrics, b.logger.With("component", "poller")),
		PublicBaseURL: cfg.Images.PublicBaseURL,
		MaxPolls:      cfg.Poller.MaxPolls,
		Logger:        b.logger.With("component", "images"),
	})
	if err != nil {
		viewService.Close()
		return nil, nil, fmt.Errorf("create image service: %w", err)
	}

	infra := httpserver.Infrastructure{
		DB:    b.db,
		Queue: b.queue,
		Files: b.files,
		Docs: func() (string, error) {
			return swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		},
		Metrics: b.metrics.Handler(),
	}
	if b.redisClient != nil {
		infra.Redis = b.lock
	}

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Port = cfg.Server.Port
	serverCfg.Version = version
	serverCfg.CORSOrigins = cfg.Server.CORSOriginList()
	serverCfg.RateLimit = cfg.Server.RateLimit
	serverCfg.RateBurst = cfg.Server.RateBurst
	serverCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	serverCfg.Logger = b.logger.With("component", "http")
	serverCfg.Observer = b.metrics

	server := httpserver.NewServer(serverCfg, httpserver.Services{
		Auth:      authService,
		Users:     userService,
		Metatexts: metatextService,
		Views:     viewService,
		Images:    imageService,
	}, infra)

	closeServices := func() {
		imageService.Close()
		viewService.Close()
	}
	return server, closeServices, nil
}

// runWorker processes image tasks until ctx is cancelled
func runWorker(ctx context.Context, b *backends) error {
	logger := b.logger.With("component", "worker")

	w := worker.NewWorker(worker.WorkerConfig{
		TaskQueue:       b.queue,
		Files:           b.files,
		Lock:            b.lockOrNil(),
		Observer:        b.metrics,
		Logger:          logger,
		Concurrency:     b.cfg.Worker.Concurrency,
		DequeueTimeout:  b.cfg.Worker.DequeueTimeout,
		DownloadTimeout: b.cfg.Worker.DownloadTimeout,
		MaxImageBytes:   b.cfg.Worker.MaxImageBytes,
	})
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	logger.Info("worker started", "concurrency", b.cfg.Worker.Concurrency)

	<-ctx.Done()

	logger.Info("stopping worker")
	w.Stop()
	w.Wait()
	logger.Info("worker stopped")
	return nil
}
