package combat

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Engine tracks live encounters, keyed by encounter ID. The map operations
// are safe for concurrent use; each Encounter itself must be driven from a
// single goroutine.
type Engine struct {
	mu         sync.RWMutex
	encounters map[string]*Encounter

	roller *dice.Roller
	logger *zap.Logger
}

// NewEngine creates an empty engine rolling initiative with roller.
//
// Precondition: roller and logger are non-nil.
func NewEngine(roller *dice.Roller, logger *zap.Logger) *Engine {
	if roller == nil {
		panic("combat: NewEngine requires a non-nil roller")
	}
	if logger == nil {
		panic("combat: NewEngine requires a non-nil logger")
	}
	return &Engine{
		encounters: make(map[string]*Encounter),
		roller:     roller,
		logger:     logger,
	}
}

// Start rolls initiative for combatants and registers a new encounter under
// a fresh ID.
func (e *Engine) Start(combatants []*character.Character) (*Encounter, error) {
	id := uuid.NewString()
	enc, err := NewEncounter(id, combatants, e.roller)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.encounters[id]; exists {
		return nil, fmt.Errorf("combat: encounter %s already registered", id)
	}
	e.encounters[id] = enc

	e.logger.Info("encounter started",
		zap.String("encounter", id),
		zap.Int("combatants", len(enc.Order)))
	return enc, nil
}

// Get returns the encounter registered under id.
func (e *Engine) Get(id string) (*Encounter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	enc, ok := e.encounters[id]
	return enc, ok
}

// End removes the encounter registered under id.
func (e *Engine) End(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.encounters, id)
}

// IDs returns the registered encounter IDs, sorted.
func (e *Engine) IDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.encounters))
	for id := range e.encounters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
