package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/openarcade/roomhost/internal/api"
	"github.com/openarcade/roomhost/internal/dependencies/clock"
	"github.com/openarcade/roomhost/internal/dependencies/random"
	"github.com/openarcade/roomhost/internal/gateway"
	"github.com/openarcade/roomhost/internal/model"
	"github.com/openarcade/roomhost/internal/report"
	"github.com/openarcade/roomhost/internal/room"
	"github.com/openarcade/roomhost/internal/scheduler"
	"github.com/openarcade/roomhost/internal/sim"
	"github.com/openarcade/roomhost/internal/sim/quiz"
	"github.com/openarcade/roomhost/internal/sim/racer"
	"github.com/openarcade/roomhost/internal/sim/shooter"
	"github.com/openarcade/roomhost/internal/sim/towerdefence"
	"github.com/openarcade/roomhost/internal/storage"
	"github.com/openarcade/roomhost/internal/storage/memory"
	redisstorage "github.com/openarcade/roomhost/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Engine
	Registry   *sim.Registry
	Scheduler  *scheduler.Scheduler
	Dispatcher *report.Dispatcher
	Manager    *room.Manager
	Gateway    *gateway.Gateway
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// TickInterval overrides the simulation tick cadence (optional)
	TickInterval time.Duration
	// Attestation overrides the attestation collaborator (optional)
	// If nil, a local no-op implementation is used
	Attestation report.Attestation
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	attestation := cfg.Attestation
	if attestation == nil {
		attestation = report.NopAttestation{}
	}

	return newWithDependencies(store, clock.New(), random.New(), attestation, cfg.TickInterval, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, attestation report.Attestation, tickInterval time.Duration, logger *slog.Logger) *App {
	registry := sim.NewRegistry()
	registry.Register(model.GameTypeShooter, shooter.New)
	registry.Register(model.GameTypeRacer, racer.New)
	registry.Register(model.GameTypeTowerDefence, towerdefence.New)
	registry.Register(model.GameTypeQuiz, quiz.New)

	sched := scheduler.New(clk, tickInterval, logger)
	persistence := report.NewStoragePersistence(store, clk)
	dispatcher := report.NewDispatcher(persistence, attestation, logger)
	manager := room.NewManager(registry, sched, dispatcher, clk, rnd, logger)
	gw := gateway.New(manager, logger)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Registry:   registry,
		Scheduler:  sched,
		Dispatcher: dispatcher,
		Manager:    manager,
		Gateway:    gw,
	}
}

// Router builds the HTTP handler serving the app's API
func (a *App) Router(logger *slog.Logger) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:  logger,
		Manager: a.Manager,
		Storage: a.Storage,
		Gateway: a.Gateway,
	})
}

// Shutdown stops all rooms and their timers
func (a *App) Shutdown() {
	a.Manager.Shutdown()
	a.Scheduler.StopAll()
}
