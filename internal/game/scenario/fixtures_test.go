package scenario_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/action"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/rules"
)

// testRegistry builds a finalized registry with enough content to field a
// small scenario: a guard statblock that reliably beats a gutter rat, plus
// spare gear and an effect for override and scripting coverage.
func testRegistry(t *testing.T) *content.Registry {
	t.Helper()
	reg := content.NewRegistry()

	require.NoError(t, reg.RegisterRace(&content.Race{Name: "Human"}))
	require.NoError(t, reg.RegisterRace(&content.Race{Name: "Goblin", NaturalAC: 1}))

	require.NoError(t, reg.RegisterClass(&content.Class{Name: "Soldier", HPMult: 10, MindMult: 4}))
	require.NoError(t, reg.RegisterClass(&content.Class{Name: "Skirmisher", HPMult: 6, MindMult: 2}))

	require.NoError(t, reg.RegisterAction(&action.Definition{
		Name:        "Longsword",
		Kind:        action.KindWeaponAttack,
		Class:       rules.ClassStandard,
		Category:    rules.CategoryOffensive,
		AttackBonus: "[STR]",
		Damage: []rules.DamageComponent{
			{Expr: "2d6+[STR]", Type: rules.DamageSlashing},
		},
	}))
	require.NoError(t, reg.RegisterAction(&action.Definition{
		Name:        "Shiv",
		Kind:        action.KindWeaponAttack,
		Class:       rules.ClassStandard,
		Category:    rules.CategoryOffensive,
		AttackBonus: "[DEX]",
		Damage: []rules.DamageComponent{
			{Expr: "1d4+[DEX]", Type: rules.DamagePiercing},
		},
	}))
	require.NoError(t, reg.RegisterAction(&action.Definition{
		Name:     "Firebolt",
		Kind:     action.KindSpellAttack,
		Class:    rules.ClassStandard,
		Category: rules.CategoryOffensive,
		Level:    1,
		MindCost: []int{2, 4},
		Damage: []rules.DamageComponent{
			{Expr: "[MIND]d6", Type: rules.DamageFire},
		},
	}))

	require.NoError(t, reg.RegisterWeapon(&content.Weapon{
		Name:          "Torch",
		HandsRequired: 1,
		Attacks: []*action.Definition{
			{
				Name:     "Swing",
				Kind:     action.KindWeaponAttack,
				Class:    rules.ClassStandard,
				Category: rules.CategoryOffensive,
				Damage: []rules.DamageComponent{
					{Expr: "1d4", Type: rules.DamageFire},
				},
			},
		},
	}))
	require.NoError(t, reg.RegisterArmor(&content.Armor{
		Name: "Leather Jerkin",
		AC:   11,
		Slot: content.SlotTorso,
		Type: content.ArmorLight,
	}))
	require.NoError(t, reg.RegisterArmor(&content.Armor{
		Name: "Buckler",
		AC:   1,
		Slot: content.SlotShield,
		Type: content.ArmorOther,
	}))

	require.NoError(t, reg.RegisterEffect(&effect.Definition{
		Name:     "Rallied",
		Duration: 3,
		Modifier: &effect.Modifier{Bonus: rules.BonusAttack, Value: "2"},
	}))

	require.NoError(t, reg.RegisterMonster(&content.Monster{
		Name:   "Caravan Guard",
		Race:   "Human",
		Levels: map[string]int{"Soldier": 2},
		Stats: rules.AbilityScores{
			Strength: 16, Dexterity: 14, Constitution: 12,
			Intelligence: 10, Wisdom: 13, Charisma: 8,
		},
		SpellcastingAbility: rules.AbilityWisdom,
		TotalHands:          2,
		NumberOfAttacks:     1,
		Actions:             []string{"Longsword"},
	}))
	require.NoError(t, reg.RegisterMonster(&content.Monster{
		Name:   "Training Dummy",
		Race:   "Human",
		Levels: map[string]int{"Soldier": 1},
		Stats: rules.AbilityScores{
			Strength: 10, Dexterity: 10, Constitution: 10,
			Intelligence: 10, Wisdom: 10, Charisma: 10,
		},
		TotalHands:      2,
		NumberOfAttacks: 1,
	}))
	require.NoError(t, reg.RegisterMonster(&content.Monster{
		Name:   "Gutter Rat",
		Race:   "Goblin",
		Levels: map[string]int{"Skirmisher": 1},
		Stats: rules.AbilityScores{
			Strength: 8, Dexterity: 14, Constitution: 10,
			Intelligence: 10, Wisdom: 8, Charisma: 8,
		},
		TotalHands:      2,
		NumberOfAttacks: 1,
		Actions:         []string{"Shiv"},
	}))

	require.NoError(t, reg.Finalize())
	return reg
}

// testRoller seeds a roller from the test name so spawn tests replay
// identically without sharing PRNG state.
func testRoller(t *testing.T) *dice.Roller {
	t.Helper()
	return dice.NewLoggedRoller(dice.NewSeededSource(dice.SeedFor(t.Name())), zap.NewNop())
}

// writeScenarioDir lays out a scenario file and its sibling scripts in a
// temp directory and returns the scenario path.
func writeScenarioDir(t *testing.T, scenarioYAML string, scripts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range scripts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o644))
	return path
}
