package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"motion/internal/auth"
	"motion/internal/cache"
	"motion/internal/config"
	"motion/internal/domain/repositories"
	docsysRepo "motion/internal/domain/repositories/docsystem"
	docsysSvc "motion/internal/domain/services/docsystem"
	"motion/internal/handler"
	"motion/internal/middleware"
	"motion/internal/repository/memory"
	"motion/internal/repository/postgres"
	postgresDocsys "motion/internal/repository/postgres/docsystem"
	serviceAuth "motion/internal/service/auth"
	serviceDocsys "motion/internal/service/docsystem"
	"motion/internal/storage"
)

type backend struct {
	docRepo   docsysRepo.DocumentRepository
	jobQueue  docsysRepo.CascadeJobQueue
	txManager repositories.TransactionManager
	close     func()
}

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"storage_backend", cfg.StorageBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtVerifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL, cfg.AuthIssuer, cfg.AuthAudience, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage backend: %v", err)
	}
	defer store.close()

	docCache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect to cache: %v", err)
	}
	defer closeCache()

	objectStorage, closeStorage, err := openObjectStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create object storage: %v", err)
	}
	defer closeStorage()

	cascadeWorker := serviceDocsys.NewCascadeWorker(store.docRepo, store.jobQueue, docCache, docsysSvc.CascadeOptions{
		Workers:      cfg.CascadeWorkers,
		PollInterval: cfg.CascadePollInterval,
		MaxAttempts:  cfg.CascadeMaxAttempts,
	}, logger)

	docService := serviceDocsys.NewDocumentService(
		store.docRepo,
		store.jobQueue,
		store.txManager,
		serviceAuth.NewOwnerBasedAuthorizer(),
		serviceDocsys.NewParentValidator(store.docRepo),
		docCache,
		objectStorage,
		cascadeWorker,
		logger,
	)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.NewDocumentHandler(docService, logger))

	// Order: CORS → Recovery → RequestLogger → Auth → Routes
	// RequestLogger reads the identity Auth resolves through httputil.Identity
	var h http.Handler = mux
	h = middleware.AuthMiddleware(jwtVerifier)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS must be outermost to answer OPTIONS pre-flight requests
	h = cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return cascadeWorker.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.StorageBackend {
	case "memory":
		logger.Warn("using in-memory storage backend; data is lost on restart")
		store := memory.NewStore()
		return &backend{
			docRepo:   memory.NewDocumentRepository(store),
			jobQueue:  memory.NewCascadeJobQueue(store),
			txManager: memory.NewTransactionManager(),
			close:     func() {},
		}, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		return &backend{
			docRepo:   postgresDocsys.NewDocumentRepository(repoConfig),
			jobQueue:  postgresDocsys.NewCascadeJobQueue(repoConfig),
			txManager: postgres.NewTransactionManager(pool, logger),
			close:     pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docsysSvc.DocumentCache, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("document cache disabled")
		return cache.NewNoop(), func() {}, nil
	}

	conn, err := cache.NewRedisConn(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("document cache enabled", "ttl", cfg.CacheTTL)
	return cache.NewDocumentCache(conn, cfg.CacheTTL), func() { _ = conn.Close() }, nil
}

func openObjectStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docsysSvc.ObjectStorage, func(), error) {
	if cfg.GCSBucket == "" {
		logger.Info("object storage disabled, cover image deletes are skipped")
		return storage.NewNoop(logger), func() {}, nil
	}

	gcs, err := storage.NewGCSStorage(ctx, cfg.GCSBucket, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("object storage enabled", "bucket", cfg.GCSBucket)
	return gcs, func() { _ = gcs.Close() }, nil
}
