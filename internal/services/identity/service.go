package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/provider"
	"github.com/mcoot/idgateway/internal/services/session"
)

// UserLinker finds or creates the stored record a provider identity maps to
type UserLinker interface {
	FindOrCreateByEmail(ctx context.Context, email, username, source string) (*model.UserRecord, bool, error)
}

// Config holds configuration for the identity service
type Config struct {
	FrontendBaseURL string
}

// Service runs OAuth flows against registered providers and turns profiles into sessions
type Service struct {
	registry *provider.Registry
	sessions *session.Service
	users    UserLinker
	logger   *slog.Logger
	frontend string
}

// New creates a new identity Service
func New(registry *provider.Registry, sessions *session.Service, users UserLinker, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Service{
		registry: registry,
		sessions: sessions,
		users:    users,
		logger:   logger,
		frontend: strings.TrimRight(cfg.FrontendBaseURL, "/"),
	}
}

// Initiate starts a flow for the named provider, returning the provider URL
// to redirect to and the state value to bind to the browser
func (s *Service) Initiate(ctx context.Context, providerName string) (authURL, state string, err error) {
	strategy, err := s.registry.Get(providerName)
	if err != nil {
		return "", "", err
	}

	state = s.sessions.NewToken()
	verifier := oauth2.GenerateVerifier()

	if _, err := s.sessions.BeginAuth(ctx, providerName, state, verifier); err != nil {
		return "", "", fmt.Errorf("begin auth: %w", err)
	}

	s.logger.Debug("auth initiated", slog.String("provider", providerName))
	return strategy.AuthCodeURL(state, verifier), state, nil
}

// CallbackInput is what a provider callback request carries
type CallbackInput struct {
	Provider string
	Code     string
	State    string
	// CookieState is the state bound to the browser at Initiate
	CookieState string
	// ProviderError is the provider's error parameter, set when the user denied access
	ProviderError string
}

// Outcome tags a callback Result
type Outcome int

const (
	OutcomeFailure Outcome = iota
	OutcomeSuccess
)

// Result is the outcome of a callback. RedirectURL is always set.
type Result struct {
	Outcome     Outcome
	Principal   *model.Principal
	Session     *model.Session
	RedirectURL string
	Err         error
}

// OK reports whether the callback produced a session
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Callback completes a flow. Every path returns a Result with a redirect,
// so the caller always has a response to send.
func (s *Service) Callback(ctx context.Context, in CallbackInput) Result {
	strategy, err := s.registry.Get(in.Provider)
	if err != nil {
		return Result{Outcome: OutcomeFailure, RedirectURL: s.frontend, Err: err}
	}

	logger := s.logger.With(slog.String("provider", in.Provider))

	principal, err := s.resolve(ctx, strategy, in)
	if err != nil {
		level := slog.LevelError
		if isClientError(err) {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "auth callback failed", slog.String("error", err.Error()))
		return s.failure(strategy, err)
	}

	sess, err := s.sessions.Create(ctx, principal)
	if err != nil {
		logger.Error("failed to create session", slog.String("error", err.Error()))
		return s.failure(strategy, err)
	}

	logger.Info("auth callback succeeded", slog.String("user_id", string(principal.UserID)))

	return Result{
		Outcome:     OutcomeSuccess,
		Principal:   principal,
		Session:     sess,
		RedirectURL: s.successURL(strategy.Policy(), principal),
	}
}

func (s *Service) resolve(ctx context.Context, strategy provider.Strategy, in CallbackInput) (*model.Principal, error) {
	name := strategy.Name()

	if in.ProviderError != "" {
		return nil, fmt.Errorf("%w: %s", model.ErrProviderDenied, in.ProviderError)
	}

	if in.State == "" || in.CookieState != in.State {
		return nil, model.ErrInvalidState
	}

	pending, err := s.sessions.CompleteAuth(ctx, name, in.State)
	if err != nil {
		return nil, err
	}

	if in.Code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", model.ErrProviderExchange)
	}

	profile, err := strategy.Exchange(ctx, in.Code, pending.Verifier)
	if err != nil {
		return nil, err
	}

	policy := strategy.Policy()

	if policy.Identity == provider.IdentityUsername {
		if profile.Username == "" {
			return nil, model.ErrMissingUsername
		}
		return &model.Principal{Provider: name, Username: profile.Username}, nil
	}

	email := profile.FirstEmail()
	if email == "" {
		return nil, model.ErrMissingProviderEmail
	}

	if !policy.Link {
		return &model.Principal{Provider: name, Email: email}, nil
	}

	rec, created, err := s.users.FindOrCreateByEmail(ctx, email, profile.Username, name)
	if err != nil {
		return nil, fmt.Errorf("link user: %w", err)
	}
	s.logger.Debug("user linked",
		slog.String("provider", name),
		slog.String("user_id", string(rec.ID)),
		slog.Bool("created", created))

	return model.PrincipalFromRecord(name, rec), nil
}

func (s *Service) successURL(policy provider.Policy, principal *model.Principal) string {
	target := s.frontend + "/setting"

	if policy.EchoParam == "" {
		return target
	}

	value := principal.Email
	if policy.Identity == provider.IdentityUsername {
		value = principal.Username
	}
	return target + "?" + url.Values{policy.EchoParam: {value}}.Encode()
}

func (s *Service) failure(strategy provider.Strategy, err error) Result {
	policy := strategy.Policy()

	target := policy.FailurePath
	if policy.FailureToFrontend {
		target = s.frontend + policy.FailurePath
	}
	if target == "" {
		target = "/"
	}

	return Result{Outcome: OutcomeFailure, RedirectURL: target, Err: err}
}

// isClientError reports whether a callback failure was caused by the browser or the
// provider rather than by the gateway's own storage
func isClientError(err error) bool {
	for _, target := range []error{
		model.ErrProviderDenied,
		model.ErrInvalidState,
		model.ErrProviderExchange,
		model.ErrProviderProfile,
		model.ErrMissingProviderEmail,
		model.ErrMissingUsername,
		model.ErrProviderNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
