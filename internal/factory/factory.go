package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/idgateway/internal/api"
	"github.com/mcoot/idgateway/internal/config"
	"github.com/mcoot/idgateway/internal/dependencies/clock"
	"github.com/mcoot/idgateway/internal/dependencies/random"
	"github.com/mcoot/idgateway/internal/events"
	"github.com/mcoot/idgateway/internal/provider"
	"github.com/mcoot/idgateway/internal/scheduler"
	"github.com/mcoot/idgateway/internal/services/identity"
	"github.com/mcoot/idgateway/internal/services/session"
	"github.com/mcoot/idgateway/internal/services/users"
	"github.com/mcoot/idgateway/internal/storage"
	"github.com/mcoot/idgateway/internal/storage/memory"
	mongostorage "github.com/mcoot/idgateway/internal/storage/mongo"
	redisstorage "github.com/mcoot/idgateway/internal/storage/redis"
	sqlstorage "github.com/mcoot/idgateway/internal/storage/sql"
)

// App contains all wired application components
type App struct {
	Config config.Config
	Logger *slog.Logger

	// Storage
	UserStore    storage.UserStore
	SessionStore storage.SessionStore
	Publisher    events.Publisher

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Providers
	Registry *provider.Registry

	// Services
	UserService     *users.Service
	SessionService  *session.Service
	IdentityService *identity.Service
	Sweeper         *scheduler.Sweeper

	closers []func() error
}

// Dependencies are the externally built pieces an App is assembled from
type Dependencies struct {
	UserStore    storage.UserStore
	SessionStore storage.SessionStore
	Publisher    events.Publisher
	Clock        clock.Clock
	Random       random.Random
	Registry     *provider.Registry
	UsersConfig  users.Config
}

// New connects the configured backends and wires the application.
// On error every backend opened so far is closed again.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	defer func() {
		if err != nil {
			closeAll(closers)
		}
	}()

	userStore, closeUsers, err := newUserStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("user store: %w", err)
	}
	closers = append(closers, closeUsers)

	sessionStore, closeSessions, err := newSessionStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	closers = append(closers, closeSessions)

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}
	closers = append(closers, func() error { publisher.Close(); return nil })

	usersCfg := users.DefaultConfig()
	usersCfg.DedupeByEmail = cfg.DedupeByEmail

	app, err := newWithDependencies(cfg, Dependencies{
		UserStore:    userStore,
		SessionStore: sessionStore,
		Publisher:    publisher,
		Clock:        clock.New(),
		Random:       random.New(),
		Registry:     provider.FromConfig(cfg, nil),
		UsersConfig:  usersCfg,
	}, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(closers, app.closers...)

	logger.Info("application wired",
		slog.String("user_store", cfg.UserStore),
		slog.String("session_store", cfg.SessionStore),
		slog.Any("providers", app.Registry.Names()),
		slog.Bool("dedupe_by_email", cfg.DedupeByEmail))

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(cfg config.Config, deps Dependencies, logger *slog.Logger) (*App, error) {
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Registry == nil {
		deps.Registry = provider.NewRegistry()
	}

	userService := users.New(deps.UserStore, deps.Publisher, logger, deps.UsersConfig)
	sessionService := session.New(deps.SessionStore, deps.Clock, deps.Random, logger, session.Config{
		SessionTTL:     cfg.SessionTTL,
		PendingAuthTTL: cfg.PendingAuthTTL,
		CookieSecure:   cfg.SessionCookieSecure,
	})
	identityService := identity.New(deps.Registry, sessionService, userService, logger, identity.Config{
		FrontendBaseURL: cfg.FrontendBaseURL,
	})

	sweeper, err := scheduler.NewSweeper(sessionService, cfg.SessionSweepInterval, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:          cfg,
		Logger:          logger,
		UserStore:       deps.UserStore,
		SessionStore:    deps.SessionStore,
		Publisher:       deps.Publisher,
		Clock:           deps.Clock,
		Random:          deps.Random,
		Registry:        deps.Registry,
		UserService:     userService,
		SessionService:  sessionService,
		IdentityService: identityService,
		Sweeper:         sweeper,
		closers:         []func() error{sweeper.Shutdown},
	}, nil
}

// Router builds the HTTP handler for the application
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:             a.Logger,
		UserService:        a.UserService,
		SessionService:     a.SessionService,
		IdentityService:    a.IdentityService,
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
	})
}

// Close stops background work and closes backend connections, newest first
func (a *App) Close() error {
	return closeAll(a.closers)
}

func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newUserStore(ctx context.Context, cfg config.Config) (storage.UserStore, func() error, error) {
	switch cfg.UserStore {
	case config.UserStoreMongo:
		store, err := mongostorage.Connect(ctx, mongostorage.Config{
			URI:        cfg.DBURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.UserStoreSQL:
		store, err := sqlstorage.Open(sqlstorage.Config{Driver: cfg.SQLDriver, DSN: cfg.SQLDSN})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return memory.New(), func() error { return nil }, nil
	}
}

func newSessionStore(cfg config.Config) (storage.SessionStore, func() error, error) {
	if cfg.SessionStore != config.SessionStoreRedis {
		return memory.New(), func() error { return nil }, nil
	}

	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = cfg.RedisURL
	redisCfg.SessionTTL = cfg.SessionTTL
	redisCfg.PendingAuthTTL = cfg.PendingAuthTTL

	store, err := redisstorage.New(redisCfg)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func newPublisher(cfg config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return events.Nop{}, nil
	}
	return events.ConnectNATS(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
}
