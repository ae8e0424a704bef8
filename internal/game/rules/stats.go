package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Ability names one of the six core ability scores as it appears in roll
// expressions.
type Ability string

const (
	AbilityStrength     Ability = "STR"
	AbilityDexterity    Ability = "DEX"
	AbilityConstitution Ability = "CON"
	AbilityIntelligence Ability = "INT"
	AbilityWisdom       Ability = "WIS"
	AbilityCharisma     Ability = "CHA"
)

// Abilities lists the six abilities in conventional order.
var Abilities = []Ability{
	AbilityStrength, AbilityDexterity, AbilityConstitution,
	AbilityIntelligence, AbilityWisdom, AbilityCharisma,
}

// Validate rejects values outside the closed ability set.
func (a Ability) Validate() error {
	switch a {
	case AbilityStrength, AbilityDexterity, AbilityConstitution,
		AbilityIntelligence, AbilityWisdom, AbilityCharisma:
		return nil
	}
	return fmt.Errorf("rules: unknown ability %q", string(a))
}

// StatModifier converts an ability score to its modifier, flooring toward
// negative infinity so a score of 7 yields -2, not -1.
func StatModifier(score int) int {
	d := score - 10
	if d < 0 && d%2 != 0 {
		return d/2 - 1
	}
	return d / 2
}

// AbilityScores holds one character's six ability scores.
type AbilityScores struct {
	Strength     int
	Dexterity    int
	Constitution int
	Intelligence int
	Wisdom       int
	Charisma     int
}

// Score returns the raw score for the named ability.
func (s AbilityScores) Score(a Ability) (int, bool) {
	switch a {
	case AbilityStrength:
		return s.Strength, true
	case AbilityDexterity:
		return s.Dexterity, true
	case AbilityConstitution:
		return s.Constitution, true
	case AbilityIntelligence:
		return s.Intelligence, true
	case AbilityWisdom:
		return s.Wisdom, true
	case AbilityCharisma:
		return s.Charisma, true
	}
	return 0, false
}

// Modifier returns the modifier for the named ability, or 0 for an unknown
// ability name.
func (s AbilityScores) Modifier(a Ability) int {
	score, ok := s.Score(a)
	if !ok {
		return 0
	}
	return StatModifier(score)
}

// Env returns the six ability modifiers as expression bindings, in
// conventional order. Callers layer cast-time bindings in front.
func (s AbilityScores) Env() dice.Env {
	env := make(dice.Env, 0, len(Abilities))
	for _, a := range Abilities {
		env = append(env, dice.Var{Name: string(a), Value: s.Modifier(a)})
	}
	return env
}

// Validate checks every score against the playable range.
func (s AbilityScores) Validate() error {
	var violations []string
	for _, a := range Abilities {
		score, _ := s.Score(a)
		if score < 1 || score > 30 {
			violations = append(violations, fmt.Sprintf("%s must be between 1 and 30, got %d", a, score))
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("ability scores invalid: %s", strings.Join(violations, "; "))
	}
	return nil
}

// ScoresFromMap builds AbilityScores from an ability-keyed map, as score
// blocks appear in content documents. Every ability must be present and no
// unknown keys are tolerated.
func ScoresFromMap(m map[string]int) (AbilityScores, error) {
	var s AbilityScores
	var violations []string
	seen := make(map[Ability]bool, len(Abilities))

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		a := Ability(strings.ToUpper(k))
		if err := a.Validate(); err != nil {
			violations = append(violations, err.Error())
			continue
		}
		seen[a] = true
		v := m[k]
		switch a {
		case AbilityStrength:
			s.Strength = v
		case AbilityDexterity:
			s.Dexterity = v
		case AbilityConstitution:
			s.Constitution = v
		case AbilityIntelligence:
			s.Intelligence = v
		case AbilityWisdom:
			s.Wisdom = v
		case AbilityCharisma:
			s.Charisma = v
		}
	}
	for _, a := range Abilities {
		if !seen[a] {
			violations = append(violations, fmt.Sprintf("missing ability %s", a))
		}
	}
	if len(violations) > 0 {
		return AbilityScores{}, fmt.Errorf("ability scores invalid: %s", strings.Join(violations, "; "))
	}
	return s, s.Validate()
}
