package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"technotes-api/internal/config"
	"technotes-api/internal/database"
	"technotes-api/internal/event"
	"technotes-api/internal/handler"
	"technotes-api/internal/logger"
	"technotes-api/internal/middleware"
	"technotes-api/internal/repository"
	"technotes-api/internal/router"
	"technotes-api/internal/service"
)

const tokenCleanupInterval = time.Hour

// App owns every process-scoped resource. New acquires them, Run serves until
// a termination signal arrives and then releases them in reverse order.
type App struct {
	server       *http.Server
	store        repository.Store
	events       *logger.EventLog
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	sameSite, err := config.ParseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, err
	}

	events, err := logger.NewEventLog(cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	a := &App{events: events}
	a.cleanupFuncs = append(a.cleanupFuncs, func() {
		if err := events.Close(); err != nil {
			slog.Warn("failed to close event log", "error", err)
		}
	})

	store, err := openStore(context.Background(), cfg, events)
	if err != nil {
		a.cleanup()
		return nil, err
	}
	a.store = store
	a.cleanupFuncs = append(a.cleanupFuncs, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	})

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	a.cleanupFuncs = append(a.cleanupFuncs, backgroundCancel)

	bus := event.NewBus()
	go event.Record(backgroundCtx, bus, events, logger.AuthLog)

	issuer, err := service.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	verifier, err := service.NewCredentialVerifier(store.Users())
	if err != nil {
		a.cleanup()
		return nil, err
	}

	authService := service.NewAuthService(store.Users(), store.RefreshTokens(), verifier, issuer, bus, cfg.RefreshTokenRotation)
	userService := service.NewUserService(store.Users(), store.Notes(), store.RefreshTokens(), bus)
	noteService := service.NewNoteService(store.Notes(), store.Users(), bus)

	seeded, err := userService.EnsureAdmin(context.Background(), cfg.SeedAdminUsername, cfg.SeedAdminPassword)
	if err != nil {
		a.cleanup()
		return nil, err
	}
	if seeded {
		slog.Info("seeded admin user", "username", cfg.SeedAdminUsername)
	}

	if cfg.RefreshTokenRotation {
		go runTokenCleanup(backgroundCtx, authService, tokenCleanupInterval)
	}

	rootHandler, err := handler.NewRootHandler()
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to load static assets: %w", err)
	}

	appRouter := router.New(
		cfg,
		middleware.NewAuthMiddleware(issuer),
		middleware.NewLoginLimiter(cfg.LoginRateLimitMax, cfg.LoginRateLimitWindow, events, bus),
		router.Handlers{
			Root:   rootHandler,
			Health: handler.NewHealthHandler(store),
			Auth:   handler.NewAuthHandler(authService, handler.CookieOptions{Secure: cfg.CookieSecure, SameSite: sameSite}, events),
			User:   handler.NewUserHandler(userService, events),
			Note:   handler.NewNoteHandler(noteService, events),
		},
		events,
	)

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, events *logger.EventLog) (repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.Connect(ctx, database.PoolOptions{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			events.Log(logger.DBErrorLog, fmt.Sprintf("postgres: %v", err))
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			events.Log(logger.DBErrorLog, fmt.Sprintf("postgres migrate: %v", err))
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		slog.Info("database ready", "driver", cfg.DatabaseDriver)
		return repository.NewPostgresStore(db), nil

	case config.DriverMongo:
		slog.Info("connecting to MongoDB", "database", cfg.MongoDatabase)
		db, err := database.NewMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			events.Log(logger.DBErrorLog, fmt.Sprintf("mongo: %v", err))
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			events.Log(logger.DBErrorLog, fmt.Sprintf("mongo indexes: %v", err))
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to ensure mongodb indexes: %w", err)
		}
		slog.Info("database ready", "driver", cfg.DatabaseDriver)
		return repository.NewMongoStore(db), nil

	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

type tokenCleaner interface {
	CleanExpiredTokens(ctx context.Context) (int64, error)
}

func runTokenCleanup(ctx context.Context, cleaner tokenCleaner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := cleaner.CleanExpiredTokens(ctx)
			if err != nil {
				slog.Warn("refresh token cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("removed expired refresh tokens", "count", removed)
			}
		}
	}
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run() error {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

// cleanup releases resources in reverse order of acquisition.
func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
