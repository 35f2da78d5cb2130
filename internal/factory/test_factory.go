package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/osrsbingo/internal/config"
	"github.com/mcoot/osrsbingo/internal/dependencies/mocks"
	"github.com/mcoot/osrsbingo/internal/storage/memory"
	"github.com/mcoot/osrsbingo/internal/testutil"
)

// Credentials configured on every TestApp
const (
	TestAdminPassword = "test-admin-password"
	TestTokenSecret   = "test-token-secret"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App over memory storage with mocked dependencies.
// Options adjust the config before wiring.
func NewTestApp(opts ...func(*config.Config)) *TestApp {
	cfg := config.DefaultConfig()
	cfg.Auth.AdminPassword = TestAdminPassword
	cfg.Auth.TokenSecret = TestTokenSecret
	cfg.Ingest.RatePerSecond = 0
	for _, opt := range opts {
		opt(cfg)
	}

	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app, err := newWithDependencies(cfg, store, mockClock, mockRandom, testutil.NopLogger(), bcrypt.MinCost)
	if err != nil {
		panic("factory: invalid test config: " + err.Error())
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
