// Package config loads gateway configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends
const (
	UserStoreMemory = "memory"
	UserStoreMongo  = "mongo"
	UserStoreSQL    = "sql"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Provider names
const (
	ProviderTwitter  = "twitter"
	ProviderGoogle   = "google"
	ProviderDiscord  = "discord"
	ProviderFacebook = "facebook"
)

// Credentials is an OAuth client id/secret pair
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Configured reports whether both halves of the pair are present
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Config is the complete gateway configuration
type Config struct {
	Host            string `env:"HOST" envDefault:""`
	Port            int    `env:"PORT" envDefault:"8000"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8000"`
	FrontendBaseURL string `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:3000"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`

	UserStore       string `env:"USER_STORE" envDefault:"mongo"`
	DBURI           string `env:"DB_URI" envDefault:"mongodb://127.0.0.1:27017/web3"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"web3"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"users"`
	SQLDriver       string `env:"SQL_DRIVER" envDefault:"sqlite"`
	SQLDSN          string `env:"SQL_DSN" envDefault:"idgateway.db"`
	DedupeByEmail   bool   `env:"DEDUPE_BY_EMAIL" envDefault:"false"`

	SessionStore         string        `env:"SESSION_STORE" envDefault:"memory"`
	RedisURL             string        `env:"REDIS_URL"`
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"10m"`
	PendingAuthTTL       time.Duration `env:"PENDING_AUTH_TTL" envDefault:"10m"`
	SessionCookieSecure  bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	NATSURL           string `env:"NATS_URL"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"idgw"`

	TwitterConsumerKey    string `env:"TWITTER_CONSUMER_KEY"`
	TwitterConsumerSecret string `env:"TWITTER_CONSUMER_SECRET"`
	GoogleClientID        string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string `env:"GOOGLE_CLIENT_SECRET"`
	DiscordClientID       string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret   string `env:"DISCORD_CLIENT_SECRET"`
	FacebookAppID         string `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret     string `env:"FACEBOOK_APP_SECRET"`
}

// Load reads an optional .env file and parses the environment.
// Values already present in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// A missing file is fine; the environment alone is a valid source
		_ = godotenv.Load(f)
	}

	return Parse()
}

// Parse parses configuration from the environment only
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	cfg.FrontendBaseURL = strings.TrimRight(cfg.FrontendBaseURL, "/")
	return cfg, cfg.Validate()
}

// Validate rejects configurations the gateway cannot start with
func (c Config) Validate() error {
	var errs []error

	switch c.UserStore {
	case UserStoreMemory, UserStoreMongo:
	case UserStoreSQL:
		if c.SQLDriver != "sqlite" && c.SQLDriver != "postgres" {
			errs = append(errs, fmt.Errorf("invalid SQL_DRIVER %q: must be 'sqlite' or 'postgres'", c.SQLDriver))
		}
		switch {
		case c.SQLDSN == "":
			errs = append(errs, errors.New("SQL_DSN required when USER_STORE=sql"))
		case strings.HasPrefix(c.SQLDSN, "mongodb://"), strings.HasPrefix(c.SQLDSN, "mongodb+srv://"):
			errs = append(errs, fmt.Errorf("invalid SQL_DSN %q: a mongodb URI cannot back the sql store", c.SQLDSN))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid USER_STORE %q: must be 'memory', 'mongo' or 'sql'", c.UserStore))
	}

	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid SESSION_STORE %q: must be 'memory' or 'redis'", c.SessionStore))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.PendingAuthTTL <= 0 {
		errs = append(errs, errors.New("PENDING_AUTH_TTL must be positive"))
	}
	if c.SessionSweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_SWEEP_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProviderCredentials returns the credential pair for each known provider
func (c Config) ProviderCredentials() map[string]Credentials {
	return map[string]Credentials{
		ProviderTwitter:  {ClientID: c.TwitterConsumerKey, ClientSecret: c.TwitterConsumerSecret},
		ProviderGoogle:   {ClientID: c.GoogleClientID, ClientSecret: c.GoogleClientSecret},
		ProviderDiscord:  {ClientID: c.DiscordClientID, ClientSecret: c.DiscordClientSecret},
		ProviderFacebook: {ClientID: c.FacebookAppID, ClientSecret: c.FacebookAppSecret},
	}
}

// CallbackURL returns the redirect URI registered with a provider
func (c Config) CallbackURL(provider string) string {
	return c.PublicBaseURL + "/auth/" + provider + "/callback"
}
