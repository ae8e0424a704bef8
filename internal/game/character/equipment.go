package character

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/content"
)

// Learn adds an action or spell to the character's known set and seeds its
// use counter. Already-known names are left untouched.
func (c *Character) Learn(def *action.Definition) {
	if def == nil {
		panic("character: Learn called with a nil definition")
	}
	key := strings.ToLower(def.Name)
	known := c.actions
	if def.IsSpell() {
		known = c.spells
	}
	if _, ok := known[key]; ok {
		return
	}
	known[key] = def
	c.InitializeUses(def)
	c.logger.Debug("learned",
		zap.String("character", c.name),
		zap.String("action", def.Name),
		zap.String("kind", string(def.Kind)))
}

// Unlearn removes a known action or spell by name, reporting whether it was
// known.
func (c *Character) Unlearn(name string) bool {
	key := strings.ToLower(name)
	if _, ok := c.actions[key]; ok {
		delete(c.actions, key)
		return true
	}
	if _, ok := c.spells[key]; ok {
		delete(c.spells, key)
		return true
	}
	return false
}

// Knows looks up a known action or spell by name, case-insensitively.
func (c *Character) Knows(name string) (*action.Definition, bool) {
	key := strings.ToLower(name)
	if d, ok := c.actions[key]; ok {
		return d, true
	}
	if d, ok := c.spells[key]; ok {
		return d, true
	}
	return nil, false
}

// Actions returns every known non-spell action, sorted by name.
func (c *Character) Actions() []*action.Definition {
	return sortedDefs(c.actions)
}

// Spells returns every known spell, sorted by name.
func (c *Character) Spells() []*action.Definition {
	return sortedDefs(c.spells)
}

func sortedDefs(defs map[string]*action.Definition) []*action.Definition {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*action.Definition, 0, len(names))
	for _, name := range names {
		out = append(out, defs[name])
	}
	return out
}

// OccupiedHands counts the hands taken by wielded weapons and shields.
func (c *Character) OccupiedHands() int {
	hands := 0
	for _, w := range c.weapons {
		hands += w.HandsRequired
	}
	for _, a := range c.armor {
		if a.Slot == content.SlotShield {
			hands++
		}
	}
	return hands
}

// FreeHands returns how many hands remain for equipping gear.
func (c *Character) FreeHands() int {
	return c.totalHands - c.OccupiedHands()
}

// Weapons returns the equipped weapons.
func (c *Character) Weapons() []*content.Weapon { return c.weapons }

// Armor returns the worn armor pieces.
func (c *Character) Armor() []*content.Armor { return c.armor }

// EquipWeapon wields a weapon and learns its granted attacks.
func (c *Character) EquipWeapon(w *content.Weapon) error {
	if w == nil {
		panic("character: EquipWeapon called with a nil weapon")
	}
	if w.HandsRequired > 0 && w.HandsRequired > c.FreeHands() {
		return fmt.Errorf("character: %s has no free hand for %s", c.name, w.Name)
	}
	c.weapons = append(c.weapons, w)
	for _, atk := range w.Grants() {
		c.Learn(atk)
	}
	return nil
}

// UnequipWeapon removes a wielded weapon by name and unlearns its granted
// attacks.
func (c *Character) UnequipWeapon(name string) bool {
	for i, w := range c.weapons {
		if w.Name != name {
			continue
		}
		c.weapons = append(c.weapons[:i], c.weapons[i+1:]...)
		for _, atk := range w.Grants() {
			c.Unlearn(atk.Name)
		}
		return true
	}
	return false
}

// EquipArmor wears an armor piece and applies its carried effects to the
// wearer. Shields need a free hand; any other slot must be empty.
func (c *Character) EquipArmor(a *content.Armor) error {
	if a == nil {
		panic("character: EquipArmor called with a nil armor")
	}
	if a.Slot == content.SlotShield {
		if c.FreeHands() <= 0 {
			return fmt.Errorf("character: %s has no free hand for %s", c.name, a.Name)
		}
	} else {
		for _, worn := range c.armor {
			if worn.Slot == a.Slot {
				return fmt.Errorf("character: %s already wears armor in slot %s", c.name, a.Slot)
			}
		}
	}
	c.armor = append(c.armor, a)
	for _, def := range a.Effects {
		if _, err := c.ledger.Add(c, def, c.Env(), 0); err != nil {
			c.logger.Warn("armor effect not applied",
				zap.String("character", c.name),
				zap.String("armor", a.Name),
				zap.String("effect", def.Name),
				zap.Error(err))
		}
	}
	return nil
}

// UnequipArmor removes a worn piece by name together with the effects it
// granted.
func (c *Character) UnequipArmor(name string) bool {
	for i, a := range c.armor {
		if a.Name != name {
			continue
		}
		c.armor = append(c.armor[:i], c.armor[i+1:]...)
		for _, def := range a.Effects {
			c.ledger.Remove(def.Name)
		}
		return true
	}
	return false
}
