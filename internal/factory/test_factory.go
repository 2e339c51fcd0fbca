package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/idgateway/internal/config"
	"github.com/mcoot/idgateway/internal/dependencies/mocks"
	"github.com/mcoot/idgateway/internal/events"
	"github.com/mcoot/idgateway/internal/provider"
	"github.com/mcoot/idgateway/internal/services/users"
	"github.com/mcoot/idgateway/internal/storage/memory"
)

// TestFrontendBaseURL is the frontend base used by test apps
const TestFrontendBaseURL = "http://frontend.test"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Storage backs both the user and session stores
	Storage *memory.Storage

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// TestConfig returns the configuration test apps are built with
func TestConfig() config.Config {
	return config.Config{
		Port:                 8000,
		PublicBaseURL:        "http://gateway.test",
		FrontendBaseURL:      TestFrontendBaseURL,
		UserStore:            config.UserStoreMemory,
		SessionStore:         config.SessionStoreMemory,
		SessionTTL:           24 * time.Hour,
		PendingAuthTTL:       10 * time.Minute,
		SessionSweepInterval: time.Hour,
		CORSAllowedOrigins:   []string{"*"},
	}
}

// NewTestApp creates an App with memory storage, mocked dependencies and the given providers
func NewTestApp(strategies ...provider.Strategy) *TestApp {
	return NewTestAppWithConfig(TestConfig(), strategies...)
}

// NewTestAppWithConfig is NewTestApp with a custom configuration
func NewTestAppWithConfig(cfg config.Config, strategies ...provider.Strategy) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app, err := newWithDependencies(cfg, Dependencies{
		UserStore:    store,
		SessionStore: store,
		Publisher:    events.Nop{},
		Clock:        mockClock,
		Random:       mockRandom,
		Registry:     provider.NewRegistry(strategies...),
		UsersConfig:  users.Config{DedupeByEmail: cfg.DedupeByEmail, BcryptCost: bcrypt.MinCost},
	}, nil)
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		Storage:    store,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
