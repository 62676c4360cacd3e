package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go-trash-bin/internal/config"
	"go-trash-bin/internal/database"
	"go-trash-bin/internal/docstore"
	"go-trash-bin/internal/event"
	"go-trash-bin/internal/handler"
	"go-trash-bin/internal/middleware"
	"go-trash-bin/internal/model"
	"go-trash-bin/internal/proxy"
	"go-trash-bin/internal/queue"
	"go-trash-bin/internal/repository"
	"go-trash-bin/internal/router"
	"go-trash-bin/internal/scheduler"
	"go-trash-bin/internal/service"
	"go-trash-bin/internal/storage"
	"go-trash-bin/internal/websocket"
)

// dispatchLockKey identifies the advisory lock serializing the dispatch loop.
const dispatchLockKey = 7215

type App struct {
	server *http.Server
	db     *database.DB

	background   []func(ctx context.Context)
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := storage.New(storage.Options{
		Backend:  cfg.StorageBackend,
		Root:     cfg.StorageRoot,
		Endpoint: cfg.MinioEndpoint,
		Key:      cfg.MinioKey,
		Secret:   cfg.MinioSecret,
		Bucket:   cfg.MinioBucket,
		Secure:   cfg.MinioSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	slog.Info("connecting to document store")
	docs, err := docstore.New(context.Background(), cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	slog.Info("connecting to Redis")
	dispatch, err := queue.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		db.Close()
		_ = docs.Close(context.Background())
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	pool := db.Pool
	trashRepo := repository.NewTrashRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	assetRepo := repository.NewAssetRepository(pool)
	xformRepo := repository.NewXFormRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	dispatchLock := repository.NewAdvisoryLock(pool, dispatchLockKey)

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run()

	trashService := service.NewTrashService(trashRepo, jobRepo, userRepo, assetRepo, xformRepo, bus,
		cfg.DefaultGracePeriodDays, cfg.MaxAttempts)
	auditService := service.NewAuditService(auditRepo)

	deletionProxy := proxy.NewClient(cfg.ProxyURL, cfg.ProxyToken, cfg.ProxyTimeout)
	var accountProxy service.DeletionProxy
	if deletionProxy.Enabled() {
		accountProxy = deletionProxy
	} else {
		slog.Warn("deletion proxy not configured, account purges stay local")
	}

	projectHandler := service.NewProjectHandler(assetRepo, xformRepo, submissionRepo, docs, store, cfg.BatchSize)
	accountHandler := service.NewAccountHandler(userRepo, assetRepo, projectHandler, accountProxy,
		func(ctx context.Context, user model.User) error {
			return userRepo.FoldUsageCounters(ctx, user.ID)
		})
	attachmentHandler := service.NewAttachmentHandler(attachmentRepo, store)

	backoff := scheduler.Backoff(cfg.BackoffBase, cfg.BackoffCap)
	runner := service.NewRunner(trashRepo, jobRepo, bus, backoff,
		accountHandler, projectHandler, attachmentHandler)

	dispatchLoop := scheduler.New(jobRepo, dispatch, dispatchLock, cfg.PollInterval, cfg.BatchSize)
	workers := scheduler.NewPool(dispatch, runner, cfg.WorkerCount)
	restarter := scheduler.NewRestarter(jobRepo, trashRepo, dispatch, cfg.StuckThreshold, cfg.RestartInterval)
	jobGC := scheduler.NewGC(jobRepo, cfg.GCInterval)

	tokenService := service.NewTokenService(cfg.JWTSecret)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	trashHandler := handler.NewTrashHandler(trashService)
	auditHandler := handler.NewAuditHandler(auditService)

	health := func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}

	appRouter := router.New(cfg, authMiddleware, trashHandler, auditHandler, hub, health)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		background: []func(ctx context.Context){
			dispatchLoop.Run,
			workers.Run,
			restarter.Run,
			jobGC.Run,
		},
		cleanupFuncs: []func(){
			func() { _ = dispatch.Close() },
			func() { _ = docs.Close(context.Background()) },
			func() { db.Close() },
		},
	}, nil
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, run := range a.background {
		wg.Add(1)
		go func(run func(ctx context.Context)) {
			defer wg.Done()
			run(ctx)
		}(run)
	}

	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	cancel()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.server.Shutdown(shutdownCtx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
