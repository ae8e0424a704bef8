package scenario

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
)

// Spawn materializes the roster: every slot's statblock is instantiated,
// renamed to its instance name, and adjusted by its overrides, in roster
// order. Roster order matters because initiative draws follow it.
//
// Precondition: reg has been finalized; roller and logger are non-nil.
func (s *Scenario) Spawn(reg *content.Registry, roller *dice.Roller, limits effect.Limits, logger *zap.Logger) ([]*character.Character, error) {
	if reg == nil {
		panic("scenario: Spawn requires a non-nil registry")
	}

	combatants := make([]*character.Character, 0, len(s.Roster))
	for i := range s.Roster {
		slot := &s.Roster[i]
		c, err := character.FromMonster(reg, slot.Monster, slot.Team, roller, limits, logger)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: slot %d: %w", s.Name, i+1, err)
		}
		if name := slot.InstanceName(); name != c.Name() {
			c.Rename(name)
		}
		if err := slot.apply(reg, c); err != nil {
			return nil, fmt.Errorf("scenario %s: slot %d (%s): %w", s.Name, i+1, c.Name(), err)
		}
		combatants = append(combatants, c)
	}
	return combatants, nil
}

// apply layers the slot's overrides onto the spawned combatant: extra gear
// and actions first, then the pools are topped up to the possibly raised
// maxima or pinned to the override values.
func (sl *Slot) apply(reg *content.Registry, c *character.Character) error {
	o := sl.Overrides
	if o == nil {
		return nil
	}

	for _, name := range o.Weapons {
		w, ok := reg.Weapon(name)
		if !ok {
			return fmt.Errorf("override weapon %q not registered", name)
		}
		if err := c.EquipWeapon(w); err != nil {
			return err
		}
	}
	for _, name := range o.Armors {
		a, ok := reg.Armor(name)
		if !ok {
			return fmt.Errorf("override armor %q not registered", name)
		}
		if err := c.EquipArmor(a); err != nil {
			return err
		}
	}
	for _, name := range o.Actions {
		def, ok := reg.Action(name)
		if !ok {
			return fmt.Errorf("override action %q not registered", name)
		}
		c.Learn(def)
	}
	for _, name := range o.Spells {
		def, ok := reg.Action(name)
		if !ok {
			return fmt.Errorf("override spell %q not registered", name)
		}
		if !def.IsSpell() {
			return fmt.Errorf("override spell %q is a %s", name, def.Kind)
		}
		c.Learn(def)
	}

	hp, mind := c.MaxHP(), c.MaxMind()
	if o.HP != nil {
		hp = *o.HP
	}
	if o.Mind != nil {
		mind = *o.Mind
	}
	c.SetVitals(hp, mind)
	return nil
}
