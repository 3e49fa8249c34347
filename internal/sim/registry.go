package sim

import (
	"sync"

	"github.com/openarcade/roomhost/internal/model"
)

// Registry maps game types to variant constructors. Adding a variant means
// registering a constructor, not editing a dispatch switch.
type Registry struct {
	mu           sync.RWMutex
	constructors map[model.GameType]Constructor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[model.GameType]Constructor),
	}
}

// Register installs a constructor for a game type, replacing any existing one
func (r *Registry) Register(gameType model.GameType, fn Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[gameType] = fn
}

// New constructs a simulation for the given game type
func (r *Registry) New(gameType model.GameType, cfg Config) (Simulation, error) {
	r.mu.RLock()
	fn, ok := r.constructors[gameType]
	r.mu.RUnlock()
	if !ok {
		return nil, model.ErrUnknownGameType
	}
	return fn(cfg)
}

// GameTypes lists the registered game types
func (r *Registry) GameTypes() []model.GameType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]model.GameType, 0, len(r.constructors))
	for t := range r.constructors {
		types = append(types, t)
	}
	return types
}
