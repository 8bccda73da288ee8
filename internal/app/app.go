package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"todolist/internal/auth"
	"todolist/internal/config"
	"todolist/internal/handlers"
	"todolist/internal/logger"
	"todolist/internal/migrations"
	"todolist/internal/repository/inmemory"
	"todolist/internal/repository/postgres"
	"todolist/internal/repository/sqlite"
	"todolist/internal/service"
	"todolist/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	server    *http.Server
	storage   service.Storage
	sweeper   *worker.SessionSweeper
	shutdowns []func() // run in reverse order on shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init builds every component. On error the parts already built are released.
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Sync()
	})

	if err := a.initStorage(ctx); err != nil {
		a.Shutdown()
		return err
	}

	sessionStore, err := a.initSessionStore(ctx)
	if err != nil {
		a.Shutdown()
		return err
	}
	sessions := auth.NewSessionManager(auth.SessionConfig{
		Secret: a.config.Session.Secret,
		TTL:    a.config.Session.TTL,
	}, sessionStore)

	tasks := service.NewTaskService(a.storage, a.storage)
	groups := service.NewGroupService(a.storage, a.storage, a.storage)
	users := service.NewAuthService(a.storage, auth.NewPasswordHasher())

	h := handlers.NewHandler(tasks, groups, users, sessions, a.storage, handlers.CookieConfig{
		Name:   a.config.Session.CookieName,
		Secure: a.config.Session.Secure,
	})
	router := handlers.NewRouter(h, handlers.RouterConfig{
		Sessions:          sessions,
		AllowedOrigins:    a.config.CORS.AllowedOrigins,
		RequestsPerMinute: a.config.RateLimit.RequestsPerMinute,
		RequestTimeout:    a.config.Server.RequestTimeout,
	})

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	logger.Info("App: initialized",
		zap.String("repository", a.config.Repository.Type),
		zap.String("session_store", a.config.Session.Store),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		if a.config.Database.AutoMigrate {
			if err := migrations.Up(a.config.Database.URL); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("App: postgres schema is up to date")
		}

		storage, err := postgres.New(ctx, postgres.Config{
			URL:             a.config.Database.URL,
			MaxConns:        int32(a.config.Database.MaxConnections),
			MinConns:        int32(a.config.Database.MinConnections),
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("open postgres storage: %w", err)
		}
		a.storage = storage

	case config.RepositorySQLite:
		storage, err := sqlite.New(a.config.SQLite.Path)
		if err != nil {
			return fmt.Errorf("open sqlite storage: %w", err)
		}
		a.storage = storage

	case config.RepositoryInMemory:
		a.storage = inmemory.New()

	default:
		return fmt.Errorf("unknown repository type %q", a.config.Repository.Type)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: closing storage")
		a.storage.Close()
	})
	return nil
}

func (a *App) initSessionStore(ctx context.Context) (auth.Store, error) {
	switch a.config.Session.Store {
	case config.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		store := auth.NewRedisStore(client, a.config.Redis.Prefix)
		if err := store.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("App: closing redis client")
			if err := client.Close(); err != nil {
				logger.Warn("App: close redis client", zap.Error(err))
			}
		})
		return store, nil

	default:
		store := auth.NewMemoryStore()
		a.sweeper = worker.NewSessionSweeper(store, a.config.Session.SweepInterval)
		return store, nil
	}
}

// Run serves until ctx is cancelled or the server fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	if a.server == nil {
		return errors.New("app is not initialized")
	}
	defer a.Shutdown()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP: server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.sweeper != nil {
		g.Go(func() error {
			a.sweeper.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("HTTP: shutting down", zap.Duration("timeout", a.config.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Shutdown releases resources in reverse order of acquisition. It is safe to call twice.
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
