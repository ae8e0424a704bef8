// Package content loads and registers the immutable game content the
// simulator draws on: character classes and races, armors, weapons, attacks
// and their variants, spells, abilities, standalone effects, and monster
// statblocks. Everything is strict JSON; a typo in a content file fails the
// load rather than shipping a broken document.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Class describes a character class: its per-level HP and Mind gains and
// the actions and spells it grants as levels are taken.
type Class struct {
	Name        string
	Description string

	// HPMult is the HP gained per class level before the Constitution
	// modifier is added.
	HPMult int

	// MindMult is the Mind gained per class level before the spellcasting
	// modifier is added. Zero marks a class without a mind pool.
	MindMult int

	// ActionsByLevel and SpellsByLevel map a class level to the names
	// granted on reaching it.
	ActionsByLevel map[int][]string
	SpellsByLevel  map[int][]string
}

// ActionsThrough returns every action name granted at or below level, in
// grant order.
func (c *Class) ActionsThrough(level int) []string {
	return grantedThrough(c.ActionsByLevel, level)
}

// SpellsThrough returns every spell name granted at or below level, in
// grant order.
func (c *Class) SpellsThrough(level int) []string {
	return grantedThrough(c.SpellsByLevel, level)
}

func grantedThrough(byLevel map[int][]string, level int) []string {
	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		if l <= level {
			levels = append(levels, l)
		}
	}
	sort.Ints(levels)

	var names []string
	for _, l := range levels {
		names = append(names, byLevel[l]...)
	}
	return names
}

// Validate checks the class invariants, collecting all violations.
func (c *Class) Validate() error {
	var violations []string
	if c.Name == "" {
		violations = append(violations, "name must not be empty")
	}
	if c.HPMult < 1 {
		violations = append(violations, "hp multiplier must be positive")
	}
	if c.MindMult < 0 {
		violations = append(violations, "mind multiplier must not be negative")
	}
	for level := range c.ActionsByLevel {
		if level < 1 {
			violations = append(violations, fmt.Sprintf("action grant level %d must be positive", level))
		}
	}
	for level := range c.SpellsByLevel {
		if level < 1 {
			violations = append(violations, fmt.Sprintf("spell grant level %d must be positive", level))
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("class %q invalid: %s", c.Name, strings.Join(violations, "; "))
	}
	return nil
}

// UnmarshalJSON decodes a class strictly. Grant levels arrive as JSON
// object keys and are parsed to ints here.
//
// Postcondition: on success the class passes Validate.
func (c *Class) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name           string              `json:"name"`
		Description    string              `json:"description"`
		HPMult         int                 `json:"hp_mult"`
		MindMult       int                 `json:"mind_mult"`
		ActionsByLevel map[string][]string `json:"actions_by_level"`
		SpellsByLevel  map[string][]string `json:"spells_by_level"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s shadow
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("decoding class: %w", err)
	}

	actions, err := levelKeys(s.ActionsByLevel)
	if err != nil {
		return fmt.Errorf("class %q actions_by_level: %w", s.Name, err)
	}
	spells, err := levelKeys(s.SpellsByLevel)
	if err != nil {
		return fmt.Errorf("class %q spells_by_level: %w", s.Name, err)
	}

	c.Name = s.Name
	c.Description = s.Description
	c.HPMult = s.HPMult
	c.MindMult = s.MindMult
	c.ActionsByLevel = actions
	c.SpellsByLevel = spells

	return c.Validate()
}

func levelKeys(m map[string][]string) (map[int][]string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[int][]string, len(m))
	for k, names := range m {
		level, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("level key %q is not a number", k)
		}
		out[level] = names
	}
	return out, nil
}

// Race describes a character race: natural armor and the actions and
// spells every member starts with.
type Race struct {
	Name        string
	Description string

	// NaturalAC is added to the armor class regardless of worn armor.
	NaturalAC int

	DefaultActions []string
	DefaultSpells  []string
}

// Validate checks the race invariants.
func (r *Race) Validate() error {
	var violations []string
	if r.Name == "" {
		violations = append(violations, "name must not be empty")
	}
	if r.NaturalAC < 0 {
		violations = append(violations, "natural AC must not be negative")
	}
	if len(violations) > 0 {
		return fmt.Errorf("race %q invalid: %s", r.Name, strings.Join(violations, "; "))
	}
	return nil
}

// UnmarshalJSON decodes a race strictly.
//
// Postcondition: on success the race passes Validate.
func (r *Race) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		NaturalAC      int      `json:"natural_ac"`
		DefaultActions []string `json:"default_actions"`
		DefaultSpells  []string `json:"default_spells"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s shadow
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("decoding race: %w", err)
	}

	r.Name = s.Name
	r.Description = s.Description
	r.NaturalAC = s.NaturalAC
	r.DefaultActions = s.DefaultActions
	r.DefaultSpells = s.DefaultSpells

	return r.Validate()
}
