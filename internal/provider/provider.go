// Package provider adapts external OAuth identity providers to a common profile shape.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/mcoot/idgateway/internal/model"
)

// maxProfileBytes bounds the profile response read from a provider
const maxProfileBytes = 1 << 20

// Profile is the normalized identity returned by a provider
type Profile struct {
	ProviderUserID string
	Username       string
	// Emails holds verified addresses in provider order
	Emails []string
}

// FirstEmail returns the first email in provider order, or ""
func (p *Profile) FirstEmail() string {
	if len(p.Emails) == 0 {
		return ""
	}
	return p.Emails[0]
}

// IdentityField names the profile field a provider's principal is keyed on
type IdentityField string

const (
	IdentityUsername IdentityField = "username"
	IdentityEmail    IdentityField = "email"
)

// Policy describes what the gateway does with a provider's profile
type Policy struct {
	// Identity is the profile field the principal carries
	Identity IdentityField
	// Link finds or creates a stored user record by email
	Link bool
	// EchoParam is the success-redirect query parameter carrying the identity, or ""
	EchoParam string
	// FailureToFrontend sends failures to the frontend instead of the gateway
	FailureToFrontend bool
	// FailurePath is appended to the failure redirect base
	FailurePath string
}

// Strategy is one external identity provider
type Strategy interface {
	Name() string
	Policy() Policy
	// AuthCodeURL returns the provider authorization URL for a flow
	AuthCodeURL(state, verifier string) string
	// Exchange redeems an authorization code and fetches the profile
	Exchange(ctx context.Context, code, verifier string) (*Profile, error)
}

// Endpoints overrides a provider's URLs, for fake providers in tests
type Endpoints struct {
	AuthURL    string
	TokenURL   string
	ProfileURL string
}

// Options configures a provider adapter
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoints overrides the provider defaults field by field when non-empty
	Endpoints Endpoints
	// HTTPClient is used for token exchange and profile requests when set
	HTTPClient *http.Client
}

// profileParser decodes a provider's profile response
type profileParser func(body []byte) (*Profile, error)

// oauthStrategy is the shared authorization code + PKCE implementation
type oauthStrategy struct {
	name       string
	policy     Policy
	conf       *oauth2.Config
	profileURL string
	parse      profileParser
	httpClient *http.Client
}

func newOAuthStrategy(name string, policy Policy, opts Options, endpoint oauth2.Endpoint, profileURL string, scopes []string, parse profileParser) *oauthStrategy {
	if opts.Endpoints.AuthURL != "" {
		endpoint.AuthURL = opts.Endpoints.AuthURL
	}
	if opts.Endpoints.TokenURL != "" {
		endpoint.TokenURL = opts.Endpoints.TokenURL
	}
	if opts.Endpoints.ProfileURL != "" {
		profileURL = opts.Endpoints.ProfileURL
	}

	return &oauthStrategy{
		name:   name,
		policy: policy,
		conf: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		profileURL: profileURL,
		parse:      parse,
		httpClient: opts.HTTPClient,
	}
}

func (s *oauthStrategy) Name() string {
	return s.name
}

func (s *oauthStrategy) Policy() Policy {
	return s.policy
}

func (s *oauthStrategy) AuthCodeURL(state, verifier string) string {
	return s.conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (s *oauthStrategy) Exchange(ctx context.Context, code, verifier string) (*Profile, error) {
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	token, err := s.conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrProviderExchange, s.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.profileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrProviderProfile, s.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrProviderProfile, s.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", model.ErrProviderProfile, s.name, resp.StatusCode)
	}

	profile, err := s.parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrProviderProfile, s.name, err)
	}
	return profile, nil
}

func decode[T any](body []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
