package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/idgateway/internal/dependencies/clock"
	"github.com/mcoot/idgateway/internal/dependencies/random"
	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/storage"
)

const tokenBytes = 32

// Config holds configuration for the session service
type Config struct {
	SessionTTL     time.Duration
	PendingAuthTTL time.Duration
	CookieSecure   bool
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		SessionTTL:     24 * time.Hour,
		PendingAuthTTL: 10 * time.Minute,
	}
}

// Service manages server-side sessions and in-flight OAuth authorizations
type Service struct {
	store  storage.SessionStore
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
	cfg    Config
}

// New creates a new session Service
func New(store storage.SessionStore, clk clock.Clock, rnd random.Random, logger *slog.Logger, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = defaults.SessionTTL
	}
	if cfg.PendingAuthTTL == 0 {
		cfg.PendingAuthTTL = defaults.PendingAuthTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		clock:  clk,
		random: rnd,
		logger: logger,
		cfg:    cfg,
	}
}

// Config returns the service configuration
func (s *Service) Config() Config {
	return s.cfg
}

// Serialize wraps a principal, unmodified, in a new unsaved session
func (s *Service) Serialize(principal *model.Principal) *model.Session {
	now := s.clock.Now()
	return &model.Session{
		ID:        model.SessionID(s.random.Token(tokenBytes)),
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
}

// Deserialize returns the principal held by a session, unmodified
func (s *Service) Deserialize(session *model.Session) *model.Principal {
	if session == nil {
		return nil
	}
	return session.Principal
}

// Create serializes a principal into a new persisted session
func (s *Service) Create(ctx context.Context, principal *model.Principal) (*model.Session, error) {
	session := s.Serialize(principal)
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns a live session; an expired one is deleted and reported as not found
func (s *Service) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.clock.Now()) {
		if err := s.store.DeleteSession(ctx, id); err != nil {
			s.logger.Warn("failed to delete expired session", slog.String("error", err.Error()))
		}
		return nil, model.ErrSessionNotFound
	}

	return session, nil
}

// Principal returns the principal for a live session
func (s *Service) Principal(ctx context.Context, id model.SessionID) (*model.Principal, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Deserialize(session), nil
}

// Destroy removes a session
func (s *Service) Destroy(ctx context.Context, id model.SessionID) error {
	return s.store.DeleteSession(ctx, id)
}

// CleanExpired removes expired sessions and pending authorizations (call periodically)
func (s *Service) CleanExpired(ctx context.Context) (int, error) {
	return s.store.DeleteExpired(ctx, s.clock.Now())
}

// NewToken returns a fresh random token for OAuth state and PKCE verifiers
func (s *Service) NewToken() string {
	return s.random.Token(tokenBytes)
}

// BeginAuth records an authorization flow started for provider
func (s *Service) BeginAuth(ctx context.Context, provider, state, verifier string) (*model.PendingAuth, error) {
	now := s.clock.Now()
	pending := &model.PendingAuth{
		State:     state,
		Provider:  provider,
		Verifier:  verifier,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.PendingAuthTTL),
	}

	if err := s.store.SavePendingAuth(ctx, pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// CompleteAuth redeems the state of a flow started for provider.
// Unknown, expired and cross-provider states all fail with ErrInvalidState.
func (s *Service) CompleteAuth(ctx context.Context, provider, state string) (*model.PendingAuth, error) {
	if state == "" {
		return nil, model.ErrInvalidState
	}

	pending, err := s.store.TakePendingAuth(ctx, state)
	if err != nil {
		if errors.Is(err, model.ErrPendingAuthNotFound) {
			return nil, model.ErrInvalidState
		}
		return nil, err
	}

	if pending.Expired(s.clock.Now()) || pending.Provider != provider {
		return nil, model.ErrInvalidState
	}

	return pending, nil
}
