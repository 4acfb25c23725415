package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/mpcoord/internal/config"
	"github.com/mcoot/mpcoord/internal/dependencies/mocks"
	"github.com/mcoot/mpcoord/internal/storage/memory"
	"github.com/mcoot/mpcoord/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockRandom  *mocks.MockRandom
	MemoryStore *memory.Storage
}

// TestConfig returns the defaults adjusted for tests: in-memory storage,
// a fast event dispatcher and no auth rate limit.
func TestConfig() config.Config {
	cfg := config.Default()
	cfg.Storage.Type = config.StorageMemory
	cfg.Storage.Path = ""
	cfg.Events.DispatchInterval = 5 * time.Millisecond
	cfg.Session.SweepInterval = time.Hour
	cfg.Server.AuthRateLimit = 0
	return cfg
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(TestConfig())
}

// NewTestAppWithConfig creates a test App from cfg. Storage is always in-memory.
func NewTestAppWithConfig(cfg config.Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, cfg, bcrypt.MinCost, testutil.NopLogger())

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		MemoryStore: store,
	}
}
