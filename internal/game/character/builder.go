package character

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// FromMonster spawns a combatant from a registered monster statblock:
// stats and class levels from the statblock, actions and spells from class
// grants, race defaults, and the statblock's own lists, then weapons and
// armor equipped with their attacks and effects attached.
//
// Precondition: reg has been finalized, so every name the statblock
// references resolves.
// Postcondition: the character spawns at full HP and Mind, including
// bonuses granted by worn armor.
func FromMonster(reg *content.Registry, name string, team rules.Team, roller *dice.Roller, limits effect.Limits, logger *zap.Logger) (*Character, error) {
	if reg == nil {
		panic("character: FromMonster requires a non-nil registry")
	}
	m, ok := reg.Monster(name)
	if !ok {
		return nil, fmt.Errorf("character: unknown monster %q", name)
	}

	race, ok := reg.Race(m.Race)
	if !ok {
		return nil, fmt.Errorf("character: monster %s references unknown race %q", m.Name, m.Race)
	}

	classNames := make([]string, 0, len(m.Levels))
	for className := range m.Levels {
		classNames = append(classNames, className)
	}
	sort.Strings(classNames)

	classes := make([]ClassLevel, 0, len(classNames))
	for _, className := range classNames {
		class, ok := reg.Class(className)
		if !ok {
			return nil, fmt.Errorf("character: monster %s references unknown class %q", m.Name, className)
		}
		classes = append(classes, ClassLevel{Class: class, Level: m.Levels[className]})
	}

	c, err := New(Sheet{
		Name:                m.Name,
		Team:                team,
		Race:                race,
		Classes:             classes,
		Stats:               m.Stats,
		SpellcastingAbility: m.SpellcastingAbility,
		TotalHands:          m.TotalHands,
		NumberOfAttacks:     m.NumberOfAttacks,
		Resistances:         m.Resistances,
		Vulnerabilities:     m.Vulnerabilities,
		Immunities:          m.Immunities,
	}, roller, limits, logger)
	if err != nil {
		return nil, fmt.Errorf("character: building %s: %w", m.Name, err)
	}

	for _, cl := range classes {
		if err := c.learnByName(reg, cl.Class.ActionsThrough(cl.Level)); err != nil {
			return nil, err
		}
		if err := c.learnByName(reg, cl.Class.SpellsThrough(cl.Level)); err != nil {
			return nil, err
		}
	}
	if err := c.learnByName(reg, race.DefaultActions); err != nil {
		return nil, err
	}
	if err := c.learnByName(reg, race.DefaultSpells); err != nil {
		return nil, err
	}
	if err := c.learnByName(reg, m.Actions); err != nil {
		return nil, err
	}
	if err := c.learnByName(reg, m.Spells); err != nil {
		return nil, err
	}

	for _, weaponName := range m.Weapons {
		w, ok := reg.Weapon(weaponName)
		if !ok {
			return nil, fmt.Errorf("character: monster %s references unknown weapon %q", m.Name, weaponName)
		}
		if err := c.EquipWeapon(w); err != nil {
			return nil, err
		}
	}
	for _, armorName := range m.Armors {
		a, ok := reg.Armor(armorName)
		if !ok {
			return nil, fmt.Errorf("character: monster %s references unknown armor %q", m.Name, armorName)
		}
		if err := c.EquipArmor(a); err != nil {
			return nil, err
		}
	}

	// Worn gear can raise the maxima, so top the pools up after equipping.
	c.hp = c.MaxHP()
	c.mind = c.MaxMind()

	c.logger.Info("combatant spawned",
		zap.String("character", c.name),
		zap.String("team", string(c.team)),
		zap.Int("level", c.Level()),
		zap.Int("hp", c.hp),
		zap.Int("mind", c.mind),
		zap.Int("ac", c.AC()))
	return c, nil
}

func (c *Character) learnByName(reg *content.Registry, names []string) error {
	for _, name := range names {
		def, ok := reg.Action(name)
		if !ok {
			return fmt.Errorf("character: %s references unregistered action %q", c.name, name)
		}
		c.Learn(def)
	}
	return nil
}
