package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/idgateway/internal/api/handler"
	"github.com/mcoot/idgateway/internal/api/middleware"
	"github.com/mcoot/idgateway/internal/services/identity"
	"github.com/mcoot/idgateway/internal/services/session"
	"github.com/mcoot/idgateway/internal/services/users"
)

// RouterConfig holds configuration for the gateway router
type RouterConfig struct {
	Logger             *slog.Logger
	UserService        *users.Service
	SessionService     *session.Service
	IdentityService    *identity.Service
	CORSAllowedOrigins []string
}

// NewRouter creates the gateway router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.UserService, logger)
	authHandler := handler.NewAuthHandler(cfg.IdentityService, cfg.SessionService)

	// Common middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Session(cfg.SessionService, logger))

	// OAuth routes
	r.HandleFunc("/auth/{provider}", authHandler.Initiate).Methods(http.MethodGet)
	r.HandleFunc("/auth/{provider}/callback", authHandler.Callback).Methods(http.MethodGet)

	// User record routes (no session required)
	r.HandleFunc("/store", userHandler.Store).Methods(http.MethodPost)
	r.HandleFunc("/addemail", userHandler.AddEmail).Methods(http.MethodPost)
	r.HandleFunc("/save-user-data", userHandler.SaveUserData).Methods(http.MethodPost)

	// Greeting routes
	r.HandleFunc("/", handler.Home).Methods(http.MethodGet)
	r.HandleFunc("/greet", handler.Greet).Methods(http.MethodGet)

	// Health check endpoint
	r.HandleFunc("/health", handler.Health).Methods(http.MethodGet)

	return middleware.CORS(cfg.CORSAllowedOrigins)(r)
}
