package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/openarcade/roomhost/internal/dependencies/mocks"
	"github.com/openarcade/roomhost/internal/report"
	"github.com/openarcade/roomhost/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked
// dependencies. Room ticks fire only when the mock clock's tickers are
// driven explicitly.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(store, mockClock, mockRandom, report.NopAttestation{}, 50*time.Millisecond, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
