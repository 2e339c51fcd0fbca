package identity

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/idgateway/internal/dependencies/mocks"
	"github.com/mcoot/idgateway/internal/events"
	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/provider"
	"github.com/mcoot/idgateway/internal/provider/providertest"
	"github.com/mcoot/idgateway/internal/services/session"
	"github.com/mcoot/idgateway/internal/services/users"
	"github.com/mcoot/idgateway/internal/storage/memory"
	"github.com/mcoot/idgateway/internal/testutil"
)

const frontend = "http://frontend.test"

type failingLinker struct{}

func (failingLinker) FindOrCreateByEmail(context.Context, string, string, string) (*model.UserRecord, bool, error) {
	return nil, false, errors.New("db down")
}

type ServiceSuite struct {
	suite.Suite
	fake     *providertest.Server
	storage  *memory.Storage
	clock    *mocks.MockClock
	sessions *session.Service
	users    *users.Service
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.fake = providertest.NewServer(s.T())
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.sessions = session.New(s.storage, s.clock, mocks.NewMockRandom(), nil, session.DefaultConfig())
	s.users = users.New(s.storage, events.Nop{}, nil, users.Config{BcryptCost: bcrypt.MinCost})
	s.service = s.newService(s.users)
	s.ctx = context.Background()
}

func (s *ServiceSuite) newService(linker UserLinker) *Service {
	opts := s.fake.Options()
	registry := provider.NewRegistry(
		provider.NewTwitter(opts),
		provider.NewGoogle(opts),
		provider.NewDiscord(opts),
		provider.NewFacebook(opts),
	)
	return New(registry, s.sessions, linker, testutil.NopLogger(), Config{FrontendBaseURL: frontend + "/"})
}

// callback runs a full initiate + callback round trip against the fake provider
func (s *ServiceSuite) callback(providerName string) Result {
	_, state, err := s.service.Initiate(s.ctx, providerName)
	s.Require().NoError(err)

	return s.service.Callback(s.ctx, CallbackInput{
		Provider:    providerName,
		Code:        "good-code",
		State:       state,
		CookieState: state,
	})
}

// Initiate tests

func (s *ServiceSuite) TestInitiateReturnsProviderURL() {
	authURL, state, err := s.service.Initiate(s.ctx, "google")
	s.Require().NoError(err)

	u, err := url.Parse(authURL)
	s.Require().NoError(err)
	s.Equal(s.fake.URL+"/authorize", u.Scheme+"://"+u.Host+u.Path)
	s.Equal(state, u.Query().Get("state"))
	s.NotEmpty(u.Query().Get("code_challenge"))
}

func (s *ServiceSuite) TestInitiateUnknownProvider() {
	_, _, err := s.service.Initiate(s.ctx, "myspace")
	s.ErrorIs(err, model.ErrProviderNotFound)
}

func (s *ServiceSuite) TestCallbackSendsVerifierFromInitiate() {
	s.fake.SetProfile(`{"sub":"g","email":"a@x.com","email_verified":true}`)

	result := s.callback("google")

	s.Require().True(result.OK())
	s.NotEmpty(s.fake.LastVerifier())
	s.Equal("good-code", s.fake.LastCode())
}

// Twitter

func (s *ServiceSuite) TestTwitterSuccessEchoesUsername() {
	s.fake.SetProfile(`{"data":{"id":"1","username":"alice"}}`)

	result := s.callback("twitter")

	s.Require().True(result.OK(), "%v", result.Err)
	s.Equal(frontend+"/setting?username=alice", result.RedirectURL)
	s.Equal("alice", result.Principal.Username)
	s.Empty(s.storage.Users())
}

func (s *ServiceSuite) TestTwitterFailureGoesToFrontendRoot() {
	s.fake.SetProfile(`{"data":{"id":"1"}}`)

	result := s.callback("twitter")

	s.False(result.OK())
	s.ErrorIs(result.Err, model.ErrMissingUsername)
	s.Equal(frontend, result.RedirectURL)
}

// Google

func (s *ServiceSuite) TestGoogleSuccessEchoesEscapedEmail() {
	s.fake.SetProfile(`{"sub":"g","email":"a+b@x.com","email_verified":true}`)

	result := s.callback("google")

	s.Require().True(result.OK())
	s.Equal(frontend+"/setting?email=a%2Bb%40x.com", result.RedirectURL)
	s.Equal("a+b@x.com", result.Principal.Email)
	s.Empty(s.storage.Users())
}

func (s *ServiceSuite) TestGoogleMissingEmailFailsWithRedirect() {
	s.fake.SetProfile(`{"sub":"g"}`)

	result := s.callback("google")

	s.False(result.OK())
	s.ErrorIs(result.Err, model.ErrMissingProviderEmail)
	s.Equal("/", result.RedirectURL)
	s.Nil(result.Session)
}

// Discord

func (s *ServiceSuite) TestDiscordCreatesRecordWhenAbsent() {
	s.fake.SetProfile(`{"id":"d","username":"carol","email":"carol@x.com","verified":true}`)

	result := s.callback("discord")

	s.Require().True(result.OK())
	s.Equal(frontend+"/setting", result.RedirectURL)
	s.Require().Len(s.storage.Users(), 1)
	rec := s.storage.Users()[0]
	s.Equal("carol", rec.Username)
	s.Equal("carol@x.com", rec.Email)
	s.Equal(rec.ID, result.Principal.UserID)
}

func (s *ServiceSuite) TestDiscordReusesExistingRecord() {
	existing := &model.UserRecord{Email: "carol@x.com"}
	s.Require().NoError(s.storage.SaveUser(s.ctx, existing))
	s.fake.SetProfile(`{"id":"d","username":"carol","email":"carol@x.com","verified":true}`)

	result := s.callback("discord")

	s.Require().True(result.OK())
	s.Len(s.storage.Users(), 1)
	s.Equal(existing.ID, result.Principal.UserID)
}

func (s *ServiceSuite) TestDiscordMissingEmail() {
	s.fake.SetProfile(`{"id":"d","username":"carol"}`)

	result := s.callback("discord")

	s.False(result.OK())
	s.ErrorIs(result.Err, model.ErrMissingProviderEmail)
	s.Equal("/", result.RedirectURL)
	s.Empty(s.storage.Users())
}

// Facebook

func (s *ServiceSuite) TestFacebookCreatesRecordWhenAbsent() {
	s.fake.SetProfile(`{"id":"f","name":"Dave","email":"dave@x.com"}`)

	result := s.callback("facebook")

	s.Require().True(result.OK())
	s.Equal(frontend+"/setting", result.RedirectURL)
	s.Require().Len(s.storage.Users(), 1)
	s.Equal("dave@x.com", s.storage.Users()[0].Email)
}

func (s *ServiceSuite) TestFacebookReusesExistingRecord() {
	s.Require().NoError(s.storage.SaveUser(s.ctx, &model.UserRecord{Email: "dave@x.com"}))
	s.fake.SetProfile(`{"id":"f","email":"dave@x.com"}`)

	result := s.callback("facebook")

	s.Require().True(result.OK())
	s.Len(s.storage.Users(), 1)
}

func (s *ServiceSuite) TestFacebookMissingEmailRedirectsToLogin() {
	s.fake.SetProfile(`{"id":"f","name":"Dave"}`)

	result := s.callback("facebook")

	s.False(result.OK())
	s.ErrorIs(result.Err, model.ErrMissingProviderEmail)
	s.Equal("/login", result.RedirectURL)
}

func (s *ServiceSuite) TestLinkFailureRedirects() {
	s.service = s.newService(failingLinker{})
	s.fake.SetProfile(`{"id":"f","email":"dave@x.com"}`)

	result := s.callback("facebook")

	s.False(result.OK())
	s.Equal("/login", result.RedirectURL)
}

// Session

func (s *ServiceSuite) TestSuccessCreatesSessionHoldingPrincipal() {
	s.fake.SetProfile(`{"data":{"id":"1","username":"alice"}}`)

	result := s.callback("twitter")
	s.Require().True(result.OK())

	principal, err := s.sessions.Principal(s.ctx, result.Session.ID)
	s.Require().NoError(err)
	s.Equal("alice", principal.Username)
	s.Equal("twitter", principal.Provider)
}

// State and provider errors

func (s *ServiceSuite) TestProviderDenied() {
	_, state, _ := s.service.Initiate(s.ctx, "google")

	result := s.service.Callback(s.ctx, CallbackInput{
		Provider:      "google",
		State:         state,
		CookieState:   state,
		ProviderError: "access_denied",
	})

	s.False(result.OK())
	s.ErrorIs(result.Err, model.ErrProviderDenied)
	s.Equal("/", result.RedirectURL)
}

func (s *ServiceSuite) TestStateMustMatchCookie() {
	_, state, _ := s.service.Initiate(s.ctx, "google")

	result := s.service.Callback(s.ctx, CallbackInput{
		Provider:    "google",
		Code:        "good-code",
		State:       state,
		CookieState: "other",
	})

	s.ErrorIs(result.Err, model.ErrInvalidState)
}

func (s *ServiceSuite) TestUnknownStateIsRejected() {
	result := s.service.Callback(s.ctx, CallbackInput{
		Provider:    "google",
		Code:        "good-code",
		State:       "forged",
		CookieState: "forged",
	})

	s.ErrorIs(result.Err, model.ErrInvalidState)
}

func (s *ServiceSuite) TestStateCannotBeReplayed() {
	s.fake.SetProfile(`{"sub":"g","email":"a@x.com","email_verified":true}`)
	_, state, _ := s.service.Initiate(s.ctx, "google")
	in := CallbackInput{Provider: "google", Code: "good-code", State: state, CookieState: state}

	first := s.service.Callback(s.ctx, in)
	second := s.service.Callback(s.ctx, in)

	s.True(first.OK())
	s.ErrorIs(second.Err, model.ErrInvalidState)
}

func (s *ServiceSuite) TestExpiredStateIsRejected() {
	_, state, _ := s.service.Initiate(s.ctx, "google")
	s.clock.Advance(time.Hour)

	result := s.service.Callback(s.ctx, CallbackInput{Provider: "google", Code: "good-code", State: state, CookieState: state})

	s.ErrorIs(result.Err, model.ErrInvalidState)
}

func (s *ServiceSuite) TestMissingCode() {
	_, state, _ := s.service.Initiate(s.ctx, "google")

	result := s.service.Callback(s.ctx, CallbackInput{Provider: "google", State: state, CookieState: state})

	s.ErrorIs(result.Err, model.ErrProviderExchange)
}

func (s *ServiceSuite) TestExchangeFailure() {
	_, state, _ := s.service.Initiate(s.ctx, "facebook")

	result := s.service.Callback(s.ctx, CallbackInput{
		Provider:    "facebook",
		Code:        providertest.BadCode,
		State:       state,
		CookieState: state,
	})

	s.ErrorIs(result.Err, model.ErrProviderExchange)
	s.Equal("/login", result.RedirectURL)
}

func (s *ServiceSuite) TestUnknownProviderStillRedirects() {
	result := s.service.Callback(s.ctx, CallbackInput{Provider: "myspace"})

	s.False(result.OK())
	s.ErrorIs(result.Err, model.ErrProviderNotFound)
	s.Equal(frontend, result.RedirectURL)
}

func (s *ServiceSuite) TestEveryFailureHasRedirect() {
	for _, name := range []string{"twitter", "google", "discord", "facebook"} {
		result := s.service.Callback(s.ctx, CallbackInput{Provider: name})
		s.False(result.OK(), name)
		s.NotEmpty(result.RedirectURL, name)
		s.Error(result.Err, name)
	}
}
