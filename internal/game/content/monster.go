package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// Monster is a complete statblock: class levels, ability scores, gear, and
// known actions, all by registered name. Scenarios instantiate characters
// from these templates; which side a monster fights on is the scenario's
// call, not the statblock's.
type Monster struct {
	Name        string
	Description string

	Race string

	// Levels maps class name to levels taken in it.
	Levels map[string]int

	Stats rules.AbilityScores

	// SpellcastingAbility names the ability whose modifier drives the
	// monster's spellcasting. Empty means no spellcasting modifier.
	SpellcastingAbility rules.Ability

	// TotalHands bounds how many hands of weapons can be wielded at once.
	TotalHands int

	// NumberOfAttacks is how many attack resolutions a single attack
	// action performs.
	NumberOfAttacks int

	Resistances     []rules.DamageType
	Vulnerabilities []rules.DamageType
	Immunities      []rules.DamageType

	// Armors, Weapons, Actions, and Spells reference registered content
	// by name. Weapon attacks arrive prefixed per Weapon.Grants.
	Armors  []string
	Weapons []string
	Actions []string
	Spells  []string
}

// Level returns the monster's total character level across classes.
func (m *Monster) Level() int {
	total := 0
	for _, lvl := range m.Levels {
		total += lvl
	}
	return total
}

// Validate checks the statblock invariants, collecting all violations.
// Name references are resolved by the registry, not here.
func (m *Monster) Validate() error {
	var violations []string
	if m.Name == "" {
		violations = append(violations, "name must not be empty")
	}
	if m.Race == "" {
		violations = append(violations, "race must not be empty")
	}
	if len(m.Levels) == 0 {
		violations = append(violations, "at least one class level required")
	}
	for class, lvl := range m.Levels {
		if lvl < 1 {
			violations = append(violations, fmt.Sprintf("level in %s must be positive, got %d", class, lvl))
		}
	}
	if err := m.Stats.Validate(); err != nil {
		violations = append(violations, err.Error())
	}
	if m.SpellcastingAbility != "" {
		if err := m.SpellcastingAbility.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}
	if m.TotalHands < 0 {
		violations = append(violations, "total hands must not be negative")
	}
	if m.NumberOfAttacks < 1 {
		violations = append(violations, "number of attacks must be positive")
	}
	for _, set := range [][]rules.DamageType{m.Resistances, m.Vulnerabilities, m.Immunities} {
		for _, dt := range set {
			if err := dt.Validate(); err != nil {
				violations = append(violations, err.Error())
			}
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("monster %q invalid: %s", m.Name, strings.Join(violations, "; "))
	}
	return nil
}

// MarshalJSON encodes the statblock in its document form: the same shape
// UnmarshalJSON reads, with stats as an ability-keyed score map. A stored
// sheet therefore round-trips through the strict decoder.
func (m *Monster) MarshalJSON() ([]byte, error) {
	stats := make(map[string]int, len(rules.Abilities))
	for _, a := range rules.Abilities {
		score, _ := m.Stats.Score(a)
		stats[string(a)] = score
	}
	return json.Marshal(struct {
		Name                string             `json:"name"`
		Description         string             `json:"description,omitempty"`
		Race                string             `json:"race"`
		Levels              map[string]int     `json:"levels"`
		Stats               map[string]int     `json:"stats"`
		SpellcastingAbility rules.Ability      `json:"spellcasting_ability,omitempty"`
		TotalHands          int                `json:"total_hands"`
		NumberOfAttacks     int                `json:"number_of_attacks"`
		Resistances         []rules.DamageType `json:"resistances,omitempty"`
		Vulnerabilities     []rules.DamageType `json:"vulnerabilities,omitempty"`
		Immunities          []rules.DamageType `json:"immunities,omitempty"`
		Armors              []string           `json:"armors,omitempty"`
		Weapons             []string           `json:"weapons,omitempty"`
		Actions             []string           `json:"actions,omitempty"`
		Spells              []string           `json:"spells,omitempty"`
	}{
		Name:                m.Name,
		Description:         m.Description,
		Race:                m.Race,
		Levels:              m.Levels,
		Stats:               stats,
		SpellcastingAbility: m.SpellcastingAbility,
		TotalHands:          m.TotalHands,
		NumberOfAttacks:     m.NumberOfAttacks,
		Resistances:         m.Resistances,
		Vulnerabilities:     m.Vulnerabilities,
		Immunities:          m.Immunities,
		Armors:              m.Armors,
		Weapons:             m.Weapons,
		Actions:             m.Actions,
		Spells:              m.Spells,
	})
}

// UnmarshalJSON decodes a statblock strictly. Stats arrive as an
// ability-keyed score map; hands default to 2 and attacks per action to 1.
//
// Postcondition: on success the monster passes Validate.
func (m *Monster) UnmarshalJSON(data []byte) error {
	type shadow struct {
		Name                string             `json:"name"`
		Description         string             `json:"description"`
		Race                string             `json:"race"`
		Levels              map[string]int     `json:"levels"`
		Stats               map[string]int     `json:"stats"`
		SpellcastingAbility rules.Ability      `json:"spellcasting_ability"`
		TotalHands          *int               `json:"total_hands"`
		NumberOfAttacks     *int               `json:"number_of_attacks"`
		Resistances         []rules.DamageType `json:"resistances"`
		Vulnerabilities     []rules.DamageType `json:"vulnerabilities"`
		Immunities          []rules.DamageType `json:"immunities"`
		Armors              []string           `json:"armors"`
		Weapons             []string           `json:"weapons"`
		Actions             []string           `json:"actions"`
		Spells              []string           `json:"spells"`
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s shadow
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("decoding monster: %w", err)
	}

	stats, err := rules.ScoresFromMap(s.Stats)
	if err != nil {
		return fmt.Errorf("monster %q: %w", s.Name, err)
	}

	m.Name = s.Name
	m.Description = s.Description
	m.Race = s.Race
	m.Levels = s.Levels
	m.Stats = stats
	m.SpellcastingAbility = s.SpellcastingAbility
	m.TotalHands = 2
	if s.TotalHands != nil {
		m.TotalHands = *s.TotalHands
	}
	m.NumberOfAttacks = 1
	if s.NumberOfAttacks != nil {
		m.NumberOfAttacks = *s.NumberOfAttacks
	}
	m.Resistances = s.Resistances
	m.Vulnerabilities = s.Vulnerabilities
	m.Immunities = s.Immunities
	m.Armors = s.Armors
	m.Weapons = s.Weapons
	m.Actions = s.Actions
	m.Spells = s.Spells

	return m.Validate()
}
