package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Side names the winning side of a finished encounter.
type Side string

const (
	SidePlayers Side = "PLAYERS"
	SideEnemies Side = "ENEMIES"
	// SideNone marks an encounter stopped at the round ceiling with both
	// sides still standing.
	SideNone Side = "NONE"
)

// Encounter is the live state of one fight: the initiative-ordered roster
// and round bookkeeping. It is not safe for concurrent use; the Engine
// hands out one encounter per ID and callers drive it from a single
// goroutine.
type Encounter struct {
	// ID is the engine key for this encounter.
	ID string
	// Order is the roster in initiative order, fixed at creation.
	Order []*character.Character
	// Round is the number of the round in progress, starting at 1 on the
	// first RunRound.
	Round int
	// Over is set once either side has no living members.
	Over bool

	initiative map[string]int
}

// NewEncounter rolls initiative and fixes the acting order. Both sides must
// field at least one living combatant and names must be unique, since
// effect sources and initiative records key on them.
func NewEncounter(id string, combatants []*character.Character, roller *dice.Roller) (*Encounter, error) {
	if id == "" {
		return nil, fmt.Errorf("combat: encounter id must not be empty")
	}
	if len(combatants) < 2 {
		return nil, fmt.Errorf("combat: an encounter needs at least two combatants, got %d", len(combatants))
	}

	seen := make(map[string]bool, len(combatants))
	players, enemies := false, false
	for _, c := range combatants {
		if c == nil {
			return nil, fmt.Errorf("combat: encounter roster contains a nil combatant")
		}
		if seen[c.Name()] {
			return nil, fmt.Errorf("combat: duplicate combatant name %q", c.Name())
		}
		seen[c.Name()] = true
		if !c.IsAlive() {
			continue
		}
		if c.Team() == rules.TeamEnemy {
			enemies = true
		} else {
			players = true
		}
	}
	if !players || !enemies {
		return nil, fmt.Errorf("combat: encounter needs living combatants on both sides")
	}

	order, scores, err := rollInitiative(combatants, roller)
	if err != nil {
		return nil, err
	}
	return &Encounter{ID: id, Order: order, initiative: scores}, nil
}

// Initiative returns the rolled initiative score for a combatant name.
func (e *Encounter) Initiative(name string) (int, bool) {
	score, ok := e.initiative[name]
	return score, ok
}

// Living returns the combatants still standing, in initiative order.
func (e *Encounter) Living() []*character.Character {
	var alive []*character.Character
	for _, c := range e.Order {
		if c.IsAlive() {
			alive = append(alive, c)
		}
	}
	return alive
}

// Opponents returns the living combatants hostile to actor, in initiative
// order.
func (e *Encounter) Opponents(actor *character.Character) []*character.Character {
	var out []*character.Character
	for _, c := range e.Order {
		if c.IsAlive() && rules.Opponents(actor.Team(), c.Team()) {
			out = append(out, c)
		}
	}
	return out
}

// Allies returns the living combatants friendly to actor, including actor
// themselves, in initiative order.
func (e *Encounter) Allies(actor *character.Character) []*character.Character {
	var out []*character.Character
	for _, c := range e.Order {
		if c.IsAlive() && !rules.Opponents(actor.Team(), c.Team()) {
			out = append(out, c)
		}
	}
	return out
}

// Combatant returns the roster entry with the given name.
func (e *Encounter) Combatant(name string) (*character.Character, bool) {
	for _, c := range e.Order {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// HasLivingPlayers reports whether the player side still stands.
func (e *Encounter) HasLivingPlayers() bool {
	for _, c := range e.Order {
		if c.IsAlive() && c.Team() != rules.TeamEnemy {
			return true
		}
	}
	return false
}

// HasLivingEnemies reports whether the enemy side still stands.
func (e *Encounter) HasLivingEnemies() bool {
	for _, c := range e.Order {
		if c.IsAlive() && c.Team() == rules.TeamEnemy {
			return true
		}
	}
	return false
}

// Victor names the standing side, or SideNone while both stand.
func (e *Encounter) Victor() Side {
	players, enemies := e.HasLivingPlayers(), e.HasLivingEnemies()
	switch {
	case players && !enemies:
		return SidePlayers
	case enemies && !players:
		return SideEnemies
	}
	return SideNone
}

// refreshOver latches Over once either side is wiped.
func (e *Encounter) refreshOver() {
	if !e.HasLivingPlayers() || !e.HasLivingEnemies() {
		e.Over = true
	}
}
