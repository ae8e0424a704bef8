package combat_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// scriptSource feeds predetermined die faces in order, repeating the last
// face once the script runs out. A face larger than the die is clamped to
// its top face, so a scripted 20 is a natural on a d20 and a 6 on a d6.
type scriptSource struct {
	faces []int
	next  int
}

func script(faces ...int) *scriptSource {
	if len(faces) == 0 {
		panic("script requires at least one face")
	}
	return &scriptSource{faces: faces}
}

func (s *scriptSource) Intn(n int) int {
	face := s.faces[len(s.faces)-1]
	if s.next < len(s.faces) {
		face = s.faces[s.next]
		s.next++
	}
	if face > n {
		face = n
	}
	return face - 1
}

func scriptedRoller(faces ...int) *dice.Roller {
	return dice.NewLoggedRoller(script(faces...), zap.NewNop())
}

func soldier() *content.Class {
	return &content.Class{Name: "Soldier", HPMult: 10, MindMult: 4}
}

// newCombatant builds a level-2 soldier: 22 HP, 10 mind, AC 12, STR +3,
// DEX +2, spellcasting (WIS) +1. Scripted attack faces of 9 or better hit
// an unbuffed combatant when the attack carries the [STR] bonus.
func newCombatant(t testing.TB, name string, team rules.Team, mutate func(*character.Sheet)) *character.Character {
	t.Helper()
	sheet := character.Sheet{
		Name:    name,
		Team:    team,
		Classes: []character.ClassLevel{{Class: soldier(), Level: 2}},
		Stats: rules.AbilityScores{
			Strength: 16, Dexterity: 14, Constitution: 12,
			Intelligence: 10, Wisdom: 13, Charisma: 8,
		},
		SpellcastingAbility: rules.AbilityWisdom,
	}
	if mutate != nil {
		mutate(&sheet)
	}
	roller := dice.NewLoggedRoller(dice.NewSeededSource(dice.SeedFor(sheet.Name)), zap.NewNop())
	c, err := character.New(sheet, roller, effect.DefaultLimits(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func newTestResolver(roller *dice.Roller) *combat.Resolver {
	return combat.NewResolver(roller, combat.DefaultConfig(), zap.NewNop())
}

func longsword() *action.Definition {
	return &action.Definition{
		Name:        "Longsword",
		Kind:        action.KindWeaponAttack,
		Class:       rules.ClassStandard,
		Category:    rules.CategoryOffensive,
		Description: "No description.",
		AttackBonus: "[STR]",
		Damage:      []rules.DamageComponent{{Expr: "2d6+[STR]", Type: rules.DamageSlashing}},
	}
}

func firebolt() *action.Definition {
	return &action.Definition{
		Name:        "Firebolt",
		Kind:        action.KindSpellAttack,
		Class:       rules.ClassStandard,
		Category:    rules.CategoryOffensive,
		Description: "No description.",
		Level:       1,
		MindCost:    []int{2, 4},
		Damage:      []rules.DamageComponent{{Expr: "[MIND]d6", Type: rules.DamageFire}},
	}
}

func mend() *action.Definition {
	return &action.Definition{
		Name:        "Mend",
		Kind:        action.KindSpellHeal,
		Class:       rules.ClassBonus,
		Category:    rules.CategoryHealing,
		Description: "No description.",
		Level:       1,
		MindCost:    []int{2},
		HealExpr:    "1d8+[SPELLCASTING]",
	}
}

func warCry() *action.Definition {
	return &action.Definition{
		Name:        "War Cry",
		Kind:        action.KindSpellBuff,
		Class:       rules.ClassStandard,
		Category:    rules.CategoryBuff,
		Description: "No description.",
		Level:       1,
		MindCost:    []int{3},
		Effects: []*effect.Definition{{
			Name:     "Emboldened",
			Duration: 3,
			Modifier: &effect.Modifier{Bonus: rules.BonusAttack, Value: "2"},
		}},
	}
}
