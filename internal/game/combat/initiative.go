package combat

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// rollInitiative rolls d20 + initiative bonus once per combatant and
// returns the roster sorted descending. Ties keep roster order, so a
// scenario's listing order is the deterministic tiebreak.
func rollInitiative(combatants []*character.Character, roller *dice.Roller) ([]*character.Character, map[string]int, error) {
	if roller == nil {
		panic("combat: rollInitiative requires a non-nil roller")
	}

	scores := make(map[string]int, len(combatants))
	order := make([]*character.Character, len(combatants))
	copy(order, combatants)

	for _, c := range order {
		rolled, err := roller.RollAndDescribe("1D20", nil)
		if err != nil {
			return nil, nil, fmt.Errorf("combat: initiative roll for %s: %w", c.Name(), err)
		}
		scores[c.Name()] = rolled.Value + c.Initiative()
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i].Name()] > scores[order[j].Name()]
	})
	return order, scores, nil
}
